// Package epub extracts metadata, cover and chapters from EPUB 2 and 3
// archives.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/textutil"
)

// maxEntryBytes bounds any single file read from the archive.
const maxEntryBytes = 16 << 20

// Book is the parsed content of an EPUB.
type Book struct {
	Title       string
	Author      string
	Description string // as found in the package document, possibly HTML
	Subjects    []string
	Language    string
	Cover       *Image
	Chapters    []Chapter
}

// Image is an embedded image.
type Image struct {
	Href      string
	MediaType string
	Data      []byte
}

// Chapter is one spine document with text content.
type Chapter struct {
	Href  string
	Title string
	HTML  string // sanitised body markup
}

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDoc struct {
	Metadata struct {
		Titles       []string `xml:"title"`
		Creators     []string `xml:"creator"`
		Descriptions []string `xml:"description"`
		Subjects     []string `xml:"subject"`
		Languages    []string `xml:"language"`
		Meta         []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest []manifestItem `xml:"manifest>item"`
	Spine    []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// Parse reads an EPUB from r. Structural problems are reported as
// validation errors.
func Parse(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Validation("not a valid EPUB archive").WithCause(err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var c container
	if err := decodeXML(files, "META-INF/container.xml", &c); err != nil {
		return nil, err
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return nil, errors.Validation("EPUB container lists no package document")
	}
	opfPath := c.Rootfiles[0].FullPath

	var pkg packageDoc
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return nil, err
	}
	base := path.Dir(opfPath)

	book := &Book{
		Title:       first(pkg.Metadata.Titles),
		Author:      first(pkg.Metadata.Creators),
		Description: first(pkg.Metadata.Descriptions),
		Language:    first(pkg.Metadata.Languages),
	}
	for _, s := range pkg.Metadata.Subjects {
		if s = strings.TrimSpace(s); s != "" {
			book.Subjects = append(book.Subjects, s)
		}
	}

	items := make(map[string]manifestItem, len(pkg.Manifest))
	for _, it := range pkg.Manifest {
		items[it.ID] = it
	}

	if cover := findCover(&pkg, items); cover != nil {
		href := resolve(base, cover.Href)
		if data, err := readFile(files, href); err == nil {
			book.Cover = &Image{Href: href, MediaType: cover.MediaType, Data: data}
		}
	}

	for _, ref := range pkg.Spine {
		if ref.Linear == "no" {
			continue
		}
		it, ok := items[ref.IDRef]
		if !ok || !isXHTML(it.MediaType) {
			continue
		}
		href := resolve(base, it.Href)
		data, err := readFile(files, href)
		if err != nil {
			return nil, err
		}
		ch, ok := parseChapter(data)
		if !ok {
			continue
		}
		ch.Href = href
		book.Chapters = append(book.Chapters, ch)
	}

	if book.Title == "" {
		return nil, errors.Validation("EPUB has no title")
	}
	if len(book.Chapters) == 0 {
		return nil, errors.Validation("EPUB has no readable chapters")
	}
	return book, nil
}

func first(vs []string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func isXHTML(mediaType string) bool {
	return mediaType == "application/xhtml+xml" || mediaType == "text/html"
}

func resolve(base, href string) string {
	href, _, _ = strings.Cut(href, "#")
	if base == "." || base == "" {
		return path.Clean(href)
	}
	return path.Join(base, href)
}

// findCover prefers the EPUB 3 cover-image property, then the EPUB 2
// <meta name="cover"> reference.
func findCover(pkg *packageDoc, items map[string]manifestItem) *manifestItem {
	for _, it := range pkg.Manifest {
		if strings.Contains(" "+it.Properties+" ", " cover-image ") {
			return &it
		}
	}
	for _, m := range pkg.Metadata.Meta {
		if m.Name == "cover" {
			if it, ok := items[m.Content]; ok && strings.HasPrefix(it.MediaType, "image/") {
				return &it
			}
		}
	}
	return nil
}

func readFile(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, errors.Validationf("EPUB is missing %s", name)
	}
	if f.UncompressedSize64 > maxEntryBytes {
		return nil, errors.TooLarge(fmt.Sprintf("EPUB entry %s is too large", name))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Validationf("open %s", name).WithCause(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, errors.Validationf("read %s", name).WithCause(err)
	}
	if len(data) > maxEntryBytes {
		return nil, errors.TooLarge(fmt.Sprintf("EPUB entry %s is too large", name))
	}
	return data, nil
}

func decodeXML(files map[string]*zip.File, name string, v any) error {
	data, err := readFile(files, name)
	if err != nil {
		return err
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(v); err != nil {
		return errors.Validationf("parse %s", name).WithCause(err)
	}
	return nil
}

// parseChapter extracts a title and sanitised body from an XHTML document.
// Documents without any text are skipped.
func parseChapter(data []byte) (Chapter, bool) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Chapter{}, false
	}

	var title, docTitle string
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Body:
				if body == nil {
					body = n
				}
			case atom.Title:
				if docTitle == "" {
					docTitle = textOf(n)
				}
			case atom.H1, atom.H2, atom.H3:
				if title == "" {
					title = textOf(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if body == nil {
		return Chapter{}, false
	}
	var inner strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&inner, c); err != nil {
			return Chapter{}, false
		}
	}
	clean := textutil.SanitizeHTML(inner.String())
	if textutil.PlainText(clean) == "" {
		return Chapter{}, false
	}

	if title == "" {
		title = docTitle
	}
	return Chapter{Title: title, HTML: clean}, true
}

func textOf(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
