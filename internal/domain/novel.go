package domain

import "slices"

// NovelStatus is the publication state of a novel.
type NovelStatus string

const (
	NovelStatusOngoing   NovelStatus = "ongoing"
	NovelStatusCompleted NovelStatus = "completed"
	NovelStatusHiatus    NovelStatus = "hiatus"
	NovelStatusDropped   NovelStatus = "dropped"
)

// Valid reports whether s is a known status.
func (s NovelStatus) Valid() bool {
	switch s {
	case NovelStatusOngoing, NovelStatusCompleted, NovelStatusHiatus, NovelStatusDropped:
		return true
	}
	return false
}

// Novel is the primary catalogue entity.
//
// AuthorName is denormalised on read from the author's display name; it is
// never written back. Genres and Tags hold slugs (see package textutil).
type Novel struct {
	Syncable
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	AuthorID      string      `json:"author_id"`
	AuthorName    string      `json:"author_name"`
	Genres        []string    `json:"genres"`
	Tags          []string    `json:"tags"`
	Status        NovelStatus `json:"status"`
	RatingAverage float64     `json:"rating_average"`
	RatingCount   int         `json:"rating_count"`
	ViewCount     int64       `json:"view_count"`
	ChapterCount  int         `json:"chapter_count"`
	Cover         *Cover      `json:"cover,omitempty"`
}

// Cover describes a novel's cover image. Data is only populated when the
// image itself is requested and never leaves the server as JSON.
type Cover struct {
	MimeType string `json:"mime_type"`
	BlurHash string `json:"blur_hash,omitempty"`
	Size     int    `json:"size"`
	Data     []byte `json:"-"`
}

// HasGenre reports whether n is tagged with genre slug g.
func (n *Novel) HasGenre(g string) bool {
	return slices.Contains(n.Genres, g)
}

// AuthorStats aggregates an author's catalogue for popularity ranking.
type AuthorStats struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	NovelCount int    `json:"novel_count"`
	TotalViews int64  `json:"total_views"`
}
