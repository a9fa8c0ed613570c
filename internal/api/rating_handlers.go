package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/service"
)

func (s *Server) registerRatingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "rateNovel",
		Method:      http.MethodPut,
		Path:        "/api/v1/novels/{id}/rating",
		Summary:     "Rate novel",
		Description: "Creates or replaces the caller's 1-5 rating and refreshes the novel's average",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRateNovel)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyRating",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{id}/rating",
		Summary:     "Get my rating",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRating)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteMyRating",
		Method:        http.MethodDelete,
		Path:          "/api/v1/novels/{id}/rating",
		Summary:       "Remove my rating",
		Tags:          []string{"Ratings"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRating)
}

// RateRequest is the request body for rating a novel.
type RateRequest struct {
	Score  int    `json:"score" doc:"Score from 1 to 5"`
	Review string `json:"review,omitempty" doc:"Optional review text"`
}

// RateInput wraps the rating request for Huma.
type RateInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	Body          RateRequest
}

// RatingOutput wraps a rating for Huma.
type RatingOutput struct {
	Body *domain.Rating
}

func (s *Server) handleRateNovel(ctx context.Context, input *RateInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.services.Ratings.Rate(ctx, userID, input.ID, service.RateRequest{
		Score:  input.Body.Score,
		Review: input.Body.Review,
	})
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: r}, nil
}

func (s *Server) handleGetRating(ctx context.Context, input *NovelIDInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.services.Ratings.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: r}, nil
}

func (s *Server) handleDeleteRating(ctx context.Context, input *NovelIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Ratings.Remove(ctx, userID, input.ID)
}
