package store

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // items per page (default 50, max 200)
	Cursor string // opaque cursor for the next page (empty for first page)
}

// PaginatedResult contains a page of items and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total,omitempty"`
}

// DefaultPaginationParams returns the defaults used when a caller sends none.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: 50}
}

// Validate clamps Limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
}

// EncodeCursor builds an opaque cursor from key parts joined by "|".
func EncodeCursor(parts ...string) string {
	key := strings.Join(parts, "|")
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor splits a cursor back into exactly n parts. An empty cursor
// decodes to nil.
func DecodeCursor(cursor string, n int) ([]string, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidInput.WithMessage("invalid cursor").WithCause(err)
	}

	parts := strings.SplitN(string(decoded), "|", n)
	if len(parts) != n {
		return nil, ErrInvalidInput.WithMessage(fmt.Sprintf("invalid cursor: want %d parts, got %d", n, len(parts)))
	}
	return parts, nil
}
