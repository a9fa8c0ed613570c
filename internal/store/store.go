// Package store defines persistence types shared by the SQLite store and
// its consumers.
package store

import (
	"context"

	"github.com/inkwell/inkwell-server/internal/domain"
)

// ChangeNotifier is told when a novel's indexed projection may have changed.
// The store calls it after the transaction commits; implementations must not
// block.
type ChangeNotifier interface {
	NovelChanged(ctx context.Context, novelID string)
}

// NoopNotifier ignores all notifications.
type NoopNotifier struct{}

// NovelChanged implements ChangeNotifier.
func (NoopNotifier) NovelChanged(context.Context, string) {}

// NovelOrder selects the ordering of a NovelQuery.
type NovelOrder int

const (
	// OrderPopular sorts by rating average, then views.
	OrderPopular NovelOrder = iota
	// OrderNewest sorts by creation time, then rating average.
	OrderNewest
	// OrderRandom returns an arbitrary sample.
	OrderRandom
)

// NovelQuery is a read-only catalogue query used by recommendation
// heuristics. Empty fields do not filter.
type NovelQuery struct {
	AnyGenres      []string // novel has at least one of these genres
	AuthorID       string
	ExcludeIDs     []string
	ExcludeAuthors []string
	Order          NovelOrder
	Limit          int
}

// NovelFilter narrows the public novel listing.
type NovelFilter struct {
	AuthorID string
	Genre    string
	Tag      string
	Status   domain.NovelStatus
}

// CommentFilter narrows a comment listing.
type CommentFilter struct {
	NovelID   string
	ChapterID string // empty lists novel-level and chapter comments alike
}
