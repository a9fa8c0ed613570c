// Package service implements the application use cases on top of the
// primary store. Writes also keep derived state in step: the search index
// through the store's change notifier, and cached recommendations through
// explicit invalidation.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
	"github.com/inkwell/inkwell-server/internal/validation"
)

// validate is shared by every service.
var validate = validation.New()

// Store is the primary store surface used by the services.
type Store interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error

	CreateNovel(ctx context.Context, n *domain.Novel) error
	GetNovel(ctx context.Context, id string) (*domain.Novel, error)
	UpdateNovel(ctx context.Context, n *domain.Novel) error
	DeleteNovel(ctx context.Context, id string, at time.Time) error
	IncrementViews(ctx context.Context, id string) error
	ListNovels(ctx context.Context, f store.NovelFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Novel], error)
	SetCover(ctx context.Context, novelID string, c *domain.Cover) error
	GetCover(ctx context.Context, novelID string) (*domain.Cover, error)

	CreateChapter(ctx context.Context, c *domain.Chapter) error
	GetChapter(ctx context.Context, novelID string, number int) (*domain.Chapter, error)
	ListChapters(ctx context.Context, novelID string) ([]*domain.Chapter, error)
	UpdateChapter(ctx context.Context, c *domain.Chapter) error
	DeleteChapter(ctx context.Context, c *domain.Chapter) error

	AddLibraryEntry(ctx context.Context, e *domain.LibraryEntry) error
	GetLibraryEntry(ctx context.Context, userID, novelID string) (*domain.LibraryEntry, error)
	ListLibraryEntries(ctx context.Context, userID string, statuses ...domain.ReadingStatus) ([]*domain.LibraryEntry, error)
	UpdateLibraryEntry(ctx context.Context, e *domain.LibraryEntry) error
	RemoveLibraryEntry(ctx context.Context, userID, novelID string) error
	LibraryStatusCounts(ctx context.Context, userID string) (map[domain.ReadingStatus]int, error)

	UpsertRating(ctx context.Context, r *domain.Rating) error
	GetRating(ctx context.Context, userID, novelID string) (*domain.Rating, error)
	DeleteRating(ctx context.Context, userID, novelID string) error

	CreateComment(ctx context.Context, c *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	ListComments(ctx context.Context, f store.CommentFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Comment], error)
	UpdateComment(ctx context.Context, c *domain.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// CacheInvalidator drops a user's cached recommendations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Options carries dependencies shared by the services.
type Options struct {
	Now func() time.Time
}

func (o Options) now() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
