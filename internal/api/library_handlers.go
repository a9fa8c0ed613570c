package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the caller's library entries with their novels, optionally filtered by status",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addToLibrary",
		Method:        http.MethodPost,
		Path:          "/api/v1/library",
		Summary:       "Add to library",
		Tags:          []string{"Library"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddToLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/stats",
		Summary:     "Library stats",
		Description: "Counts the caller's entries per reading status",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLibraryStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateLibraryEntry",
		Method:      http.MethodPatch,
		Path:        "/api/v1/library/{novelId}",
		Summary:     "Update library entry",
		Description: "Changes reading status, progress or note",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateLibraryEntry)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeFromLibrary",
		Method:        http.MethodDelete,
		Path:          "/api/v1/library/{novelId}",
		Summary:       "Remove from library",
		Tags:          []string{"Library"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveFromLibrary)
}

// ListLibraryInput filters the caller's library.
type ListLibraryInput struct {
	Authorization string   `header:"Authorization"`
	Status        []string `query:"status" doc:"Reading statuses to include, comma separated"`
}

// LibraryResponse lists library entries.
type LibraryResponse struct {
	Entries []*domain.LibraryEntry `json:"entries"`
}

// LibraryOutput wraps the library for Huma.
type LibraryOutput struct {
	Body LibraryResponse
}

// AddToLibraryRequest is the request body for adding a novel.
type AddToLibraryRequest struct {
	NovelID string `json:"novel_id" doc:"Novel to add"`
	Status  string `json:"status,omitempty" doc:"Reading status, default plan_to_read"`
	Note    string `json:"note,omitempty" doc:"Private note"`
}

// AddToLibraryInput wraps the add request for Huma.
type AddToLibraryInput struct {
	Authorization string `header:"Authorization"`
	Body          AddToLibraryRequest
}

// UpdateLibraryRequest is the request body for entry changes.
type UpdateLibraryRequest struct {
	Status          *string `json:"status,omitempty" doc:"Reading status"`
	LastReadChapter *int    `json:"last_read_chapter,omitempty" doc:"Last chapter number read"`
	Note            *string `json:"note,omitempty" doc:"Private note"`
}

// UpdateLibraryInput wraps the entry update for Huma.
type UpdateLibraryInput struct {
	Authorization string `header:"Authorization"`
	NovelID       string `path:"novelId" doc:"Novel ID"`
	Body          UpdateLibraryRequest
}

// LibraryEntryInput addresses one entry by novel.
type LibraryEntryInput struct {
	Authorization string `header:"Authorization"`
	NovelID       string `path:"novelId" doc:"Novel ID"`
}

// LibraryEntryOutput wraps an entry for Huma.
type LibraryEntryOutput struct {
	Body *domain.LibraryEntry
}

// LibraryStatsOutput wraps library stats for Huma.
type LibraryStatsOutput struct {
	Body *service.LibraryStats
}

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*LibraryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]domain.ReadingStatus, 0, len(input.Status))
	for _, st := range input.Status {
		statuses = append(statuses, domain.ReadingStatus(st))
	}
	entries, err := s.services.Library.List(ctx, userID, statuses...)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.LibraryEntry{}
	}
	return &LibraryOutput{Body: LibraryResponse{Entries: entries}}, nil
}

func (s *Server) handleAddToLibrary(ctx context.Context, input *AddToLibraryInput) (*LibraryEntryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.services.Library.Add(ctx, userID, service.AddToLibraryRequest{
		NovelID: input.Body.NovelID,
		Status:  input.Body.Status,
		Note:    input.Body.Note,
	})
	if err != nil {
		return nil, err
	}
	return &LibraryEntryOutput{Body: e}, nil
}

func (s *Server) handleLibraryStats(ctx context.Context, _ *AuthenticatedInput) (*LibraryStatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.services.Library.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LibraryStatsOutput{Body: stats}, nil
}

func (s *Server) handleUpdateLibraryEntry(ctx context.Context, input *UpdateLibraryInput) (*LibraryEntryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.services.Library.Update(ctx, userID, input.NovelID, service.UpdateLibraryRequest{
		Status:          input.Body.Status,
		LastReadChapter: input.Body.LastReadChapter,
		Note:            input.Body.Note,
	})
	if err != nil {
		return nil, err
	}
	return &LibraryEntryOutput{Body: e}, nil
}

func (s *Server) handleRemoveFromLibrary(ctx context.Context, input *LibraryEntryInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Library.Remove(ctx, userID, input.NovelID)
}
