package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

// RatingService records user scores. The store refreshes the novel's
// aggregate in the same transaction.
type RatingService struct {
	store  Store
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewRatingService creates a new rating service.
func NewRatingService(s Store, cache CacheInvalidator, logger *slog.Logger, opts Options) *RatingService {
	return &RatingService{store: s, cache: cache, logger: logger, now: opts.now()}
}

// RateRequest scores a novel from 1 to 5.
type RateRequest struct {
	Score  int    `json:"score" validate:"required,min=1,max=5"`
	Review string `json:"review,omitempty" validate:"max=5000"`
}

func (s *RatingService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate recommendations", "user_id", userID, "error", err)
	}
}

// Rate creates or replaces the user's rating of a novel.
func (s *RatingService) Rate(ctx context.Context, userID, novelID string, req RateRequest) (*domain.Rating, error) {
	req.Review = strings.TrimSpace(req.Review)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetNovel(ctx, novelID); err != nil {
		return nil, err
	}

	now := s.now()
	r := &domain.Rating{
		UserID:    userID,
		NovelID:   novelID,
		Score:     req.Score,
		Review:    req.Review,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.store.GetRating(ctx, userID, novelID); err == nil {
		r.CreatedAt = existing.CreatedAt
	} else if !store.IsNotFound(err) {
		return nil, err
	}

	if err := s.store.UpsertRating(ctx, r); err != nil {
		return nil, fmt.Errorf("rate novel: %w", err)
	}
	s.invalidate(ctx, userID)
	return r, nil
}

// Get returns the user's rating of a novel.
func (s *RatingService) Get(ctx context.Context, userID, novelID string) (*domain.Rating, error) {
	return s.store.GetRating(ctx, userID, novelID)
}

// Remove deletes the user's rating of a novel.
func (s *RatingService) Remove(ctx context.Context, userID, novelID string) error {
	if err := s.store.DeleteRating(ctx, userID, novelID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}
