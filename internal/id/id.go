// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each entity kind. The prefix makes an id self-describing in
// logs and URLs.
const (
	PrefixUser    = "user"
	PrefixNovel   = "novel"
	PrefixChapter = "chapter"
	PrefixLibrary = "lib"
	PrefixComment = "comment"
	PrefixToken   = "token"
)

// Generate returns prefix + "-" + a 21 character NanoID.
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// MustGenerate is Generate that panics when the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("generate id: %v", err))
	}
	return v
}

// HasPrefix reports whether v was generated with prefix.
func HasPrefix(v, prefix string) bool {
	return strings.HasPrefix(v, prefix+"-") && len(v) > len(prefix)+1
}
