package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/service"
)

// maxChapterBodyBytes bounds chapter create and update requests.
const maxChapterBodyBytes = 5 << 20

func (s *Server) registerChapterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listChapters",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{id}/chapters",
		Summary:     "List chapters",
		Description: "Returns a novel's chapters in order, without content",
		Tags:        []string{"Chapters"},
	}, s.handleListChapters)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createChapter",
		Method:        http.MethodPost,
		Path:          "/api/v1/novels/{id}/chapters",
		Summary:       "Create chapter",
		Description:   "Adds a chapter. Number 0 or omitted appends after the last chapter. Content is sanitised HTML.",
		Tags:          []string{"Chapters"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxChapterBodyBytes,
	}, s.handleCreateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{id}/chapters/{number}",
		Summary:     "Get chapter",
		Description: "Returns one chapter with its content",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID:  "updateChapter",
		Method:       http.MethodPatch,
		Path:         "/api/v1/novels/{id}/chapters/{number}",
		Summary:      "Update chapter",
		Tags:         []string{"Chapters"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: maxChapterBodyBytes,
	}, s.handleUpdateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteChapter",
		Method:        http.MethodDelete,
		Path:          "/api/v1/novels/{id}/chapters/{number}",
		Summary:       "Delete chapter",
		Tags:          []string{"Chapters"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteChapter)
}

// ChapterRequest is the request body for a new chapter.
type ChapterRequest struct {
	Number  int    `json:"number,omitempty" minimum:"0" doc:"Chapter number, 0 to append"`
	Title   string `json:"title" doc:"Chapter title"`
	Content string `json:"content" doc:"Chapter HTML"`
}

// CreateChapterInput wraps the create request for Huma.
type CreateChapterInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	Body          ChapterRequest
}

// UpdateChapterRequest is the request body for chapter changes.
type UpdateChapterRequest struct {
	Title   *string `json:"title,omitempty" doc:"Chapter title"`
	Content *string `json:"content,omitempty" doc:"Chapter HTML"`
}

// UpdateChapterInput wraps the update request for Huma.
type UpdateChapterInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	Number        int    `path:"number" doc:"Chapter number"`
	Body          UpdateChapterRequest
}

// ChapterInput addresses one chapter.
type ChapterInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	Number        int    `path:"number" doc:"Chapter number"`
}

// ChapterOutput wraps a chapter for Huma.
type ChapterOutput struct {
	Body *domain.Chapter
}

// ChapterListResponse lists a novel's chapters.
type ChapterListResponse struct {
	Chapters []*domain.Chapter `json:"chapters"`
}

// ChapterListOutput wraps the chapter list for Huma.
type ChapterListOutput struct {
	Body ChapterListResponse
}

func (s *Server) handleListChapters(ctx context.Context, input *NovelIDInput) (*ChapterListOutput, error) {
	chapters, err := s.services.Chapters.List(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if chapters == nil {
		chapters = []*domain.Chapter{}
	}
	return &ChapterListOutput{Body: ChapterListResponse{Chapters: chapters}}, nil
}

func (s *Server) handleCreateChapter(ctx context.Context, input *CreateChapterInput) (*ChapterOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := s.services.Chapters.Create(ctx, userID, input.ID, service.CreateChapterRequest{
		Number:  input.Body.Number,
		Title:   input.Body.Title,
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: ch}, nil
}

func (s *Server) handleGetChapter(ctx context.Context, input *ChapterInput) (*ChapterOutput, error) {
	ch, err := s.services.Chapters.Get(ctx, input.ID, input.Number)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: ch}, nil
}

func (s *Server) handleUpdateChapter(ctx context.Context, input *UpdateChapterInput) (*ChapterOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := s.services.Chapters.Update(ctx, userID, input.ID, input.Number, service.UpdateChapterRequest{
		Title:   input.Body.Title,
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: ch}, nil
}

func (s *Server) handleDeleteChapter(ctx context.Context, input *ChapterInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Chapters.Delete(ctx, userID, input.ID, input.Number)
}
