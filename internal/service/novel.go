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
	"github.com/inkwell/inkwell-server/internal/media"
	"github.com/inkwell/inkwell-server/internal/store"
	"github.com/inkwell/inkwell-server/internal/textutil"
)

// NovelService manages the novel catalogue.
type NovelService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewNovelService creates a new novel service.
func NewNovelService(s Store, logger *slog.Logger, opts Options) *NovelService {
	return &NovelService{store: s, logger: logger, now: opts.now()}
}

// CreateNovelRequest contains a new novel's metadata. Description may be
// HTML; it is stored as Markdown.
type CreateNovelRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=20000"`
	Genres      []string `json:"genres" validate:"max=10,dive,min=1,max=50"`
	Tags        []string `json:"tags" validate:"max=30,dive,min=1,max=50"`
	Status      string   `json:"status,omitempty" validate:"omitempty,novel_status"`
}

// UpdateNovelRequest changes a novel. Nil fields are left alone.
type UpdateNovelRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=20000"`
	Genres      *[]string `json:"genres,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=30,dive,min=1,max=50"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,novel_status"`
}

// Create adds a novel authored by userID.
func (s *NovelService) Create(ctx context.Context, userID string, req CreateNovelRequest) (*domain.Novel, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	novelID, err := id.Generate(id.PrefixNovel)
	if err != nil {
		return nil, err
	}

	n := &domain.Novel{
		Title:       req.Title,
		Description: textutil.HTMLToMarkdown(req.Description),
		AuthorID:    userID,
		Genres:      textutil.GenreSlugs(req.Genres),
		Tags:        textutil.TagSlugs(req.Tags),
		Status:      domain.NovelStatusOngoing,
	}
	if req.Status != "" {
		n.Status = domain.NovelStatus(req.Status)
	}
	n.ID = novelID
	n.InitTimestamps(s.now())

	if err := s.store.CreateNovel(ctx, n); err != nil {
		return nil, fmt.Errorf("create novel: %w", err)
	}
	s.logger.Info("novel created", "novel_id", n.ID, "author_id", userID)
	return s.store.GetNovel(ctx, n.ID)
}

// Get returns a live novel. When countView is set the view counter is
// bumped; that does not move updated_at, so the index catches up on the
// next full reconciliation.
func (s *NovelService) Get(ctx context.Context, novelID string, countView bool) (*domain.Novel, error) {
	n, err := s.store.GetNovel(ctx, novelID)
	if err != nil {
		return nil, err
	}
	if countView {
		if err := s.store.IncrementViews(ctx, novelID); err != nil {
			s.logger.Warn("failed to count view", "novel_id", novelID, "error", err)
		} else {
			n.ViewCount++
		}
	}
	return n, nil
}

// List returns a page of live novels, newest first.
func (s *NovelService) List(ctx context.Context, f store.NovelFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Novel], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, errors.Validationf("unknown status %q", f.Status)
	}
	f.Genre = textutil.Slugify(f.Genre)
	f.Tag = textutil.Slugify(f.Tag)
	return s.store.ListNovels(ctx, f, params)
}

// owned loads a novel and checks that userID wrote it.
func (s *NovelService) owned(ctx context.Context, userID, novelID string) (*domain.Novel, error) {
	n, err := s.store.GetNovel(ctx, novelID)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != userID {
		return nil, errors.Forbidden("only the author can modify this novel")
	}
	return n, nil
}

// Update applies req to a novel owned by userID.
func (s *NovelService) Update(ctx context.Context, userID, novelID string, req UpdateNovelRequest) (*domain.Novel, error) {
	req.Title = trimPtr(req.Title)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	n, err := s.owned(ctx, userID, novelID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Description != nil {
		n.Description = textutil.HTMLToMarkdown(*req.Description)
	}
	if req.Genres != nil {
		n.Genres = textutil.GenreSlugs(*req.Genres)
	}
	if req.Tags != nil {
		n.Tags = textutil.TagSlugs(*req.Tags)
	}
	if req.Status != nil {
		n.Status = domain.NovelStatus(*req.Status)
	}
	n.Touch(s.now())

	if err := s.store.UpdateNovel(ctx, n); err != nil {
		return nil, fmt.Errorf("update novel: %w", err)
	}
	return n, nil
}

// Delete tombstones a novel owned by userID.
func (s *NovelService) Delete(ctx context.Context, userID, novelID string) error {
	if _, err := s.owned(ctx, userID, novelID); err != nil {
		return err
	}
	if err := s.store.DeleteNovel(ctx, novelID, s.now()); err != nil {
		return fmt.Errorf("delete novel: %w", err)
	}
	s.logger.Info("novel deleted", "novel_id", novelID)
	return nil
}

// SetCover validates an uploaded image and stores it with its BlurHash.
func (s *NovelService) SetCover(ctx context.Context, userID, novelID string, data []byte) (*domain.Cover, error) {
	if _, err := s.owned(ctx, userID, novelID); err != nil {
		return nil, err
	}
	cover, err := media.ProcessCover(data)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCover(ctx, novelID, cover); err != nil {
		return nil, fmt.Errorf("set cover: %w", err)
	}
	return cover, nil
}

// GetCover returns a novel's cover image.
func (s *NovelService) GetCover(ctx context.Context, novelID string) (*domain.Cover, error) {
	return s.store.GetCover(ctx, novelID)
}
