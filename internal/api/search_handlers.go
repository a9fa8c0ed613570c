package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchNovels",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search novels",
		Description: "Full-text search over titles, descriptions, authors, genres and tags with optional facets",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search query parameters.
type SearchInput struct {
	Query     string   `query:"q" doc:"Search query, empty matches everything"`
	Genres    []string `query:"genres" doc:"Match any of these genres"`
	Tags      []string `query:"tags" doc:"Match all of these tags"`
	Status    string   `query:"status" doc:"Publication status"`
	AuthorID  string   `query:"author" doc:"Only novels by this author"`
	MinRating float64  `query:"min_rating" minimum:"0" maximum:"5" doc:"Minimum average rating"`
	Limit     int      `query:"limit" minimum:"0" doc:"Results per page (default 20, max 100)"`
	Offset    int      `query:"offset" minimum:"0" doc:"Results to skip"`
	Sort      string   `query:"sort" doc:"relevance, title, rating, views, recent or updated"`
	Order     string   `query:"order" doc:"asc or desc"`
	Facets    bool     `query:"facets" doc:"Include genre, tag and status facets"`
	Highlight bool     `query:"highlight" doc:"Include highlighted fragments"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	res, err := s.services.Search.Search(ctx, search.SearchParams{
		Query:         input.Query,
		Genres:        input.Genres,
		Tags:          input.Tags,
		Status:        input.Status,
		AuthorID:      input.AuthorID,
		MinRating:     input.MinRating,
		Limit:         input.Limit,
		Offset:        input.Offset,
		SortBy:        input.Sort,
		SortOrder:     input.Order,
		IncludeFacets: input.Facets,
		Highlight:     input.Highlight,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}
