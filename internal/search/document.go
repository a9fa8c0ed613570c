// Package search is the secondary, read-optimised novel index, built on Bleve.
// The primary store is authoritative; the index is kept eventually consistent
// by package indexsync.
package search

import (
	"strings"

	"github.com/inkwell/inkwell-server/internal/domain"
)

// NovelDocument is the indexed projection of a novel. It is replaced
// wholesale on every write and never carries cover bytes.
type NovelDocument struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	AuthorID      string   `json:"author_id"`
	AuthorName    string   `json:"author_name"`
	Genres        []string `json:"genres"`
	Tags          []string `json:"tags"`
	Status        string   `json:"status"`
	RatingAverage float64  `json:"rating_average"`
	RatingCount   int      `json:"rating_count"`
	ViewCount     int64    `json:"view_count"`
	ChapterCount  int      `json:"chapter_count"`
	CreatedAt     int64    `json:"created_at"` // Unix millis
	UpdatedAt     int64    `json:"updated_at"` // Unix millis
}

// FromNovel projects a live novel into its index document.
func FromNovel(n *domain.Novel) *NovelDocument {
	return &NovelDocument{
		ID:            n.ID,
		Title:         n.Title,
		Description:   n.Description,
		AuthorID:      n.AuthorID,
		AuthorName:    n.AuthorName,
		Genres:        append([]string{}, n.Genres...),
		Tags:          append([]string{}, n.Tags...),
		Status:        string(n.Status),
		RatingAverage: n.RatingAverage,
		RatingCount:   n.RatingCount,
		ViewCount:     n.ViewCount,
		ChapterCount:  n.ChapterCount,
		CreatedAt:     n.CreatedAt.UnixMilli(),
		UpdatedAt:     n.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *NovelDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":             d.ID,
		"title":          d.Title,
		"title_sort":     strings.ToLower(d.Title),
		"author_id":      d.AuthorID,
		"author_name":    d.AuthorName,
		"status":         d.Status,
		"rating_average": d.RatingAverage,
		"rating_count":   d.RatingCount,
		"view_count":     d.ViewCount,
		"chapter_count":  d.ChapterCount,
		"created_at":     d.CreatedAt,
		"updated_at":     d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// documentFromFields rebuilds a document from a hit's stored fields.
// Bleve returns a single-valued array field as a plain string and every
// number as float64.
func documentFromFields(id string, fields map[string]interface{}) *NovelDocument {
	return &NovelDocument{
		ID:            id,
		Title:         stringField(fields, "title"),
		Description:   stringField(fields, "description"),
		AuthorID:      stringField(fields, "author_id"),
		AuthorName:    stringField(fields, "author_name"),
		Genres:        stringsField(fields, "genres"),
		Tags:          stringsField(fields, "tags"),
		Status:        stringField(fields, "status"),
		RatingAverage: numberField(fields, "rating_average"),
		RatingCount:   int(numberField(fields, "rating_count")),
		ViewCount:     int64(numberField(fields, "view_count")),
		ChapterCount:  int(numberField(fields, "chapter_count")),
		CreatedAt:     int64(numberField(fields, "created_at")),
		UpdatedAt:     int64(numberField(fields, "updated_at")),
	}
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func stringsField(fields map[string]interface{}, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func numberField(fields map[string]interface{}, name string) float64 {
	f, _ := fields[name].(float64)
	return f
}
