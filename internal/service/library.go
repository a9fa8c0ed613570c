package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/id"
	"github.com/inkwell/inkwell-server/internal/store"
)

// LibraryService manages users' reading lists. Every mutation drops the
// user's cached recommendations.
type LibraryService struct {
	store  Store
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewLibraryService creates a new library service.
func NewLibraryService(s Store, cache CacheInvalidator, logger *slog.Logger, opts Options) *LibraryService {
	return &LibraryService{store: s, cache: cache, logger: logger, now: opts.now()}
}

// AddToLibraryRequest adds a novel to the caller's library.
type AddToLibraryRequest struct {
	NovelID string `json:"novel_id" validate:"required"`
	Status  string `json:"status,omitempty" validate:"omitempty,reading_status"`
	Note    string `json:"note,omitempty" validate:"max=1000"`
}

// UpdateLibraryRequest changes an entry. Nil fields are left alone.
type UpdateLibraryRequest struct {
	Status          *string `json:"status,omitempty" validate:"omitempty,reading_status"`
	LastReadChapter *int    `json:"last_read_chapter,omitempty" validate:"omitempty,gte=0"`
	Note            *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// LibraryStats counts entries per status.
type LibraryStats struct {
	Total    int                          `json:"total"`
	ByStatus map[domain.ReadingStatus]int `json:"by_status"`
}

// invalidate drops cached recommendations. Failures only cost a stale
// bundle until the TTL runs out.
func (s *LibraryService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate recommendations", "user_id", userID, "error", err)
	}
}

// Add puts a live novel in the user's library.
func (s *LibraryService) Add(ctx context.Context, userID string, req AddToLibraryRequest) (*domain.LibraryEntry, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	n, err := s.store.GetNovel(ctx, req.NovelID)
	if err != nil {
		return nil, err
	}

	entryID, err := id.Generate(id.PrefixLibrary)
	if err != nil {
		return nil, err
	}
	e := &domain.LibraryEntry{
		UserID:  userID,
		NovelID: n.ID,
		Status:  domain.ReadingStatusPlanToRead,
		Note:    req.Note,
	}
	if req.Status != "" {
		e.Status = domain.ReadingStatus(req.Status)
	}
	e.ID = entryID
	e.InitTimestamps(s.now())

	if err := s.store.AddLibraryEntry(ctx, e); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, errors.AlreadyExists("novel is already in your library")
		}
		return nil, fmt.Errorf("add library entry: %w", err)
	}
	e.Novel = n
	s.invalidate(ctx, userID)
	return e, nil
}

// List returns the user's entries, optionally filtered by status.
func (s *LibraryService) List(ctx context.Context, userID string, statuses ...domain.ReadingStatus) ([]*domain.LibraryEntry, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, errors.Validationf("unknown status %q", st)
		}
	}
	return s.store.ListLibraryEntries(ctx, userID, statuses...)
}

// Update changes status, progress or note.
func (s *LibraryService) Update(ctx context.Context, userID, novelID string, req UpdateLibraryRequest) (*domain.LibraryEntry, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	e, err := s.store.GetLibraryEntry(ctx, userID, novelID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		e.Status = domain.ReadingStatus(*req.Status)
	}
	if req.LastReadChapter != nil {
		e.LastReadChapter = *req.LastReadChapter
	}
	if req.Note != nil {
		e.Note = *req.Note
	}
	e.Touch(s.now())

	if err := s.store.UpdateLibraryEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("update library entry: %w", err)
	}
	s.invalidate(ctx, userID)
	return e, nil
}

// Remove takes a novel out of the user's library.
func (s *LibraryService) Remove(ctx context.Context, userID, novelID string) error {
	if err := s.store.RemoveLibraryEntry(ctx, userID, novelID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Stats counts the user's entries by status.
func (s *LibraryService) Stats(ctx context.Context, userID string) (*LibraryStats, error) {
	counts, err := s.store.LibraryStatusCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &LibraryStats{ByStatus: counts}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}
