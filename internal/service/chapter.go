package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/id"
	"github.com/inkwell/inkwell-server/internal/textutil"
)

// ChapterService manages a novel's chapters. The store keeps the novel's
// chapter count in step and notifies the index.
type ChapterService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewChapterService creates a new chapter service.
func NewChapterService(s Store, logger *slog.Logger, opts Options) *ChapterService {
	return &ChapterService{store: s, logger: logger, now: opts.now()}
}

// CreateChapterRequest adds a chapter. Number 0 appends after the last one.
type CreateChapterRequest struct {
	Number  int    `json:"number,omitempty" validate:"gte=0"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// UpdateChapterRequest changes a chapter. Nil fields are left alone.
type UpdateChapterRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1"`
}

func (s *ChapterService) authorOf(ctx context.Context, userID, novelID string) error {
	n, err := s.store.GetNovel(ctx, novelID)
	if err != nil {
		return err
	}
	if n.AuthorID != userID {
		return errors.Forbidden("only the author can modify chapters")
	}
	return nil
}

// Create adds a chapter to a novel owned by userID.
func (s *ChapterService) Create(ctx context.Context, userID, novelID string, req CreateChapterRequest) (*domain.Chapter, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.authorOf(ctx, userID, novelID); err != nil {
		return nil, err
	}
	return s.create(ctx, novelID, req)
}

// create skips the ownership check; imports call it for a novel they just
// created.
func (s *ChapterService) create(ctx context.Context, novelID string, req CreateChapterRequest) (*domain.Chapter, error) {
	number := req.Number
	if number == 0 {
		existing, err := s.store.ListChapters(ctx, novelID)
		if err != nil {
			return nil, err
		}
		number = 1
		if len(existing) > 0 {
			number = existing[len(existing)-1].Number + 1
		}
	}

	chapterID, err := id.Generate(id.PrefixChapter)
	if err != nil {
		return nil, err
	}
	content := textutil.SanitizeHTML(req.Content)
	c := &domain.Chapter{
		NovelID:   novelID,
		Number:    number,
		Title:     req.Title,
		Content:   content,
		WordCount: textutil.WordCount(content),
	}
	c.ID = chapterID
	c.InitTimestamps(s.now())

	if err := s.store.CreateChapter(ctx, c); err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}
	s.logger.Debug("chapter created", "novel_id", novelID, "number", number)
	return c, nil
}

// Get returns one chapter with its content.
func (s *ChapterService) Get(ctx context.Context, novelID string, number int) (*domain.Chapter, error) {
	return s.store.GetChapter(ctx, novelID, number)
}

// List returns a live novel's chapters without content.
func (s *ChapterService) List(ctx context.Context, novelID string) ([]*domain.Chapter, error) {
	if _, err := s.store.GetNovel(ctx, novelID); err != nil {
		return nil, err
	}
	return s.store.ListChapters(ctx, novelID)
}

// Update changes a chapter's title or content.
func (s *ChapterService) Update(ctx context.Context, userID, novelID string, number int, req UpdateChapterRequest) (*domain.Chapter, error) {
	req.Title = trimPtr(req.Title)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.authorOf(ctx, userID, novelID); err != nil {
		return nil, err
	}
	c, err := s.store.GetChapter(ctx, novelID, number)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Content != nil {
		c.Content = textutil.SanitizeHTML(*req.Content)
		c.WordCount = textutil.WordCount(c.Content)
	}
	c.Touch(s.now())

	if err := s.store.UpdateChapter(ctx, c); err != nil {
		return nil, fmt.Errorf("update chapter: %w", err)
	}
	return c, nil
}

// Delete removes a chapter.
func (s *ChapterService) Delete(ctx context.Context, userID, novelID string, number int) error {
	if err := s.authorOf(ctx, userID, novelID); err != nil {
		return err
	}
	c, err := s.store.GetChapter(ctx, novelID, number)
	if err != nil {
		return err
	}
	if err := s.store.DeleteChapter(ctx, c); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return nil
}
