package textutil

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// ContainsHTML reports whether s looks like it carries HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// HTMLToMarkdown converts an HTML description to Markdown. Plain text and
// unconvertible input come back unchanged.
func HTMLToMarkdown(s string) string {
	if s == "" || !ContainsHTML(s) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}

// Elements kept by SanitizeHTML. Everything else is unwrapped.
var allowedElements = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Hr: true, atom.Div: true, atom.Span: true,
	atom.Em: true, atom.I: true, atom.Strong: true, atom.B: true, atom.U: true, atom.S: true,
	atom.Sub: true, atom.Sup: true, atom.Small: true,
	atom.Blockquote: true, atom.Pre: true, atom.Code: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
}

// Elements dropped together with their content.
var droppedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true, atom.Object: true,
	atom.Embed: true, atom.Form: true, atom.Noscript: true, atom.Template: true,
	atom.Head: true, atom.Title: true, atom.Svg: true, atom.Math: true,
}

// SanitizeHTML reduces chapter markup to a formatting-only subset: no
// attributes, no scripts, no embedded content. Unknown elements are replaced
// by their children.
func SanitizeHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return html.EscapeString(s)
	}

	var buf strings.Builder
	for _, n := range nodes {
		renderClean(&buf, n)
	}
	return strings.TrimSpace(buf.String())
}

func renderClean(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderClean(buf, c)
		}
		return
	}

	if droppedElements[n.DataAtom] {
		return
	}
	keep := allowedElements[n.DataAtom]
	if keep {
		buf.WriteString("<" + n.Data + ">")
		if n.DataAtom == atom.Br || n.DataAtom == atom.Hr {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderClean(buf, c)
	}
	if keep {
		buf.WriteString("</" + n.Data + ">")
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// PlainText strips markup and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && droppedElements[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(whitespace.ReplaceAllString(buf.String(), " "))
}

// WordCount counts whitespace separated words in the text of s.
func WordCount(s string) int {
	return len(strings.Fields(PlainText(s)))
}
