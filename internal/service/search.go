package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/search"
	"github.com/inkwell/inkwell-server/internal/textutil"
)

const maxSearchLimit = 100

// Searcher runs queries against the secondary index.
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// SearchService answers catalogue searches from the index. Results may lag
// the primary store by up to one poll interval.
type SearchService struct {
	index  Searcher
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index Searcher, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, logger: logger}
}

var sortKeys = []string{
	search.SortRelevance, search.SortTitle, search.SortRating,
	search.SortViews, search.SortRecent, search.SortUpdated,
}

// Search normalises filters to slugs and runs the query.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	params.Genres = textutil.GenreSlugs(params.Genres)
	params.Tags = textutil.TagSlugs(params.Tags)

	if params.Status != "" && !domain.NovelStatus(params.Status).Valid() {
		return nil, errors.Validationf("unknown status %q", params.Status)
	}
	if params.SortBy == "" {
		params.SortBy = search.SortRelevance
	}
	if !slices.Contains(sortKeys, params.SortBy) {
		return nil, errors.Validationf("unknown sort %q", params.SortBy)
	}
	switch params.SortOrder {
	case "":
		params.SortOrder = "desc"
	case "asc", "desc":
	default:
		return nil, errors.Validationf("sort order must be asc or desc")
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	switch {
	case params.Limit <= 0:
		params.Limit = search.DefaultSearchParams().Limit
	case params.Limit > maxSearchLimit:
		params.Limit = maxSearchLimit
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "query", params.Query, "error", err)
		return nil, errors.Unavailable("search is temporarily unavailable", err)
	}
	return res, nil
}
