// Package recommend builds per-user novel suggestions from the reader's
// library and caches the result.
//
// Three heuristics contribute lists to a Bundle: content similarity, genre
// popularity and same author. Two further lists are reserved and always
// empty. An empty library is a normal outcome and yields an empty bundle.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/metrics"
	"github.com/inkwell/inkwell-server/internal/store"
)

const (
	// DefaultLimit is the per-list size when the caller gives none.
	DefaultLimit = 10
	// MaxLimit caps the per-list size.
	MaxLimit = 50
)

// Item is one suggestion with a human readable reason.
type Item struct {
	Novel  *domain.Novel `json:"novel"`
	Reason string        `json:"reason"`
}

// Bundle holds every recommendation list for one user. The list keys are
// camelCase on the wire, unlike the rest of the API.
type Bundle struct {
	BecauseYouRead       []Item `json:"becauseYouRead"`
	ReadersLikeYou       []Item `json:"readersLikeYou"`
	PopularInGenre       []Item `json:"popularInGenre"`
	FromAuthorsYouFollow []Item `json:"fromAuthorsYouFollow"`
	ContinueReading      []Item `json:"continueReading"`
}

func emptyBundle() *Bundle {
	return &Bundle{
		BecauseYouRead:       []Item{},
		ReadersLikeYou:       []Item{},
		PopularInGenre:       []Item{},
		FromAuthorsYouFollow: []Item{},
		ContinueReading:      []Item{},
	}
}

// Options controls one request.
type Options struct {
	Limit   int
	Refresh bool
}

// Result is a bundle plus where it came from.
type Result struct {
	Bundle     *Bundle   `json:"recommendations"`
	ComputedAt time.Time `json:"computed_at"`
	Cached     bool      `json:"cached"`
}

// DataSource is the read-only store surface the heuristics use.
type DataSource interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListLibraryEntries(ctx context.Context, userID string, statuses ...domain.ReadingStatus) ([]*domain.LibraryEntry, error)
	FindNovels(ctx context.Context, q store.NovelQuery) ([]*domain.Novel, error)
	PopularAuthors(ctx context.Context, excludeAuthors []string, limit int) ([]domain.AuthorStats, error)
}

// Engine computes and caches recommendation bundles.
type Engine struct {
	data   DataSource
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine. The cache's clock is used for timestamps.
func NewEngine(data DataSource, cache *Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		data:   data,
		cache:  cache,
		logger: logger.With("component", "recommend"),
		now:    cache.now,
	}
}

// Invalidate drops the user's cached bundle.
func (e *Engine) Invalidate(ctx context.Context, userID string) error {
	return e.cache.Invalidate(ctx, userID)
}

// GetUserRecommendations returns the user's bundle, from cache when a fresh
// entry exists and Refresh is not set. Only an unknown user is an error;
// cache failures degrade to recomputation.
func (e *Engine) GetUserRecommendations(ctx context.Context, userID string, opts Options) (*Result, error) {
	if _, err := e.data.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	limit := normalizeLimit(opts.Limit)

	if opts.Refresh {
		metrics.RecommendCache.WithLabelValues("refresh").Inc()
	} else {
		b, at, ok, err := e.cache.Get(ctx, userID)
		if err != nil {
			e.logger.Warn("recommendation cache read failed", "user_id", userID, "error", err)
		}
		if ok {
			metrics.RecommendCache.WithLabelValues("hit").Inc()
			return &Result{Bundle: b, ComputedAt: at, Cached: true}, nil
		}
		metrics.RecommendCache.WithLabelValues("miss").Inc()
	}

	started := time.Now()
	b, err := e.Compute(ctx, userID, limit)
	metrics.RecommendDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	computedAt := e.now()
	if err := e.cache.Set(ctx, userID, b); err != nil {
		e.logger.Warn("recommendation cache write failed", "user_id", userID, "error", err)
	}
	return &Result{Bundle: b, ComputedAt: computedAt}, nil
}

// Compute runs every heuristic concurrently and assembles the bundle. It
// does not touch the cache.
func (e *Engine) Compute(ctx context.Context, userID string, limit int) (*Bundle, error) {
	limit = normalizeLimit(limit)
	b := emptyBundle()

	library, err := e.data.ListLibraryEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	if len(library) == 0 {
		return b, nil
	}
	lib := newLibraryView(userID, library)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.contentSimilarity(gctx, lib, limit)
		if err != nil {
			return fmt.Errorf("content similarity: %w", err)
		}
		b.BecauseYouRead = items
		return nil
	})
	g.Go(func() error {
		items, err := e.genrePopularity(gctx, lib, limit)
		if err != nil {
			return fmt.Errorf("genre popularity: %w", err)
		}
		b.PopularInGenre = items
		return nil
	})
	g.Go(func() error {
		items, err := e.sameAuthor(gctx, lib, limit)
		if err != nil {
			return fmt.Errorf("same author: %w", err)
		}
		b.FromAuthorsYouFollow = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
