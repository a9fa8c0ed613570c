// Package textutil normalises user-supplied text: genre and tag slugs,
// chapter markup and Markdown descriptions.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	titleCaser      = cases.Title(language.English)
)

// genreAliases folds common spellings of web-novel genres onto one slug.
// Keys are already slugified.
var genreAliases = map[string][]string{
	"sci-fi":              {"science-fiction"},
	"scifi":               {"science-fiction"},
	"sf":                  {"science-fiction"},
	"sci-fi-fantasy":      {"science-fiction", "fantasy"},
	"fantasy-romance":     {"fantasy", "romance"},
	"romantic-fantasy":    {"romantasy"},
	"high-fantasy":        {"epic-fantasy"},
	"ya":                  {"young-adult"},
	"teen":                {"young-adult"},
	"lit-rpg":             {"litrpg"},
	"gamelit":             {"litrpg"},
	"cultivation":         {"progression-fantasy"},
	"progression":         {"progression-fantasy"},
	"xianxia":             {"xianxia", "progression-fantasy"},
	"isekai":              {"isekai", "portal-fantasy"},
	"pnr":                 {"paranormal-romance"},
	"historical":          {"historical-fiction"},
	"suspense":            {"thriller"},
	"mystery-thriller":    {"mystery", "thriller"},
	"slice-of-life-drama": {"slice-of-life", "drama"},
}

// Slugify converts s to a URL-safe slug.
// "Science Fiction" -> "science-fiction", "Épée & Sorcery" -> "epee-sorcery".
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenreSlugs normalises raw genre labels, expanding aliases and dropping
// blanks and duplicates. Order of first appearance is preserved.
func GenreSlugs(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		slug := Slugify(r)
		if slug == "" {
			continue
		}
		expanded, ok := genreAliases[slug]
		if !ok {
			expanded = []string{slug}
		}
		for _, g := range expanded {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// TagSlugs normalises raw tag labels without alias expansion.
func TagSlugs(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		slug := Slugify(r)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	return out
}

// DisplayName turns a slug back into a readable label: "epic-fantasy" -> "Epic Fantasy".
func DisplayName(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}
