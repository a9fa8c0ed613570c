package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/recommend"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Get recommendations",
		Description: "Returns the caller's recommendation lists. Results are cached for a day unless refresh is set.",
		Tags:        []string{"Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecommendations)
}

// RecommendationsInput controls list size and caching.
type RecommendationsInput struct {
	Authorization string `header:"Authorization"`
	Limit         int    `query:"limit" minimum:"0" maximum:"50" doc:"Items per list (default 10)"`
	Refresh       bool   `query:"refresh" doc:"Recompute instead of reading the cache"`
}

// RecommendationsOutput wraps the bundle for Huma.
type RecommendationsOutput struct {
	Body *recommend.Result
}

func (s *Server) handleGetRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.services.Recommend.GetUserRecommendations(ctx, userID, recommend.Options{
		Limit:   input.Limit,
		Refresh: input.Refresh,
	})
	if err != nil {
		return nil, err
	}
	return &RecommendationsOutput{Body: res}, nil
}
