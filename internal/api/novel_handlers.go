package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/media"
	"github.com/inkwell/inkwell-server/internal/service"
	"github.com/inkwell/inkwell-server/internal/store"
)

func (s *Server) registerNovelRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNovels",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels",
		Summary:     "List novels",
		Description: "Returns live novels, most recently updated first, with cursor pagination",
		Tags:        []string{"Novels"},
	}, s.handleListNovels)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNovel",
		Method:        http.MethodPost,
		Path:          "/api/v1/novels",
		Summary:       "Create novel",
		Description:   "Creates a novel authored by the caller. HTML descriptions are converted to Markdown.",
		Tags:          []string{"Novels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNovel)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNovel",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{id}",
		Summary:     "Get novel",
		Description: "Returns a novel and counts a view",
		Tags:        []string{"Novels"},
	}, s.handleGetNovel)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNovel",
		Method:      http.MethodPatch,
		Path:        "/api/v1/novels/{id}",
		Summary:     "Update novel",
		Description: "Changes a novel. Only its author may do this.",
		Tags:        []string{"Novels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateNovel)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNovel",
		Method:        http.MethodDelete,
		Path:          "/api/v1/novels/{id}",
		Summary:       "Delete novel",
		Description:   "Soft deletes a novel. It disappears from listings and search.",
		Tags:          []string{"Novels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNovel)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadNovelCover",
		Method:       http.MethodPut,
		Path:         "/api/v1/novels/{id}/cover",
		Summary:      "Upload cover",
		Description:  "Replaces the cover with a JPEG, PNG or GIF image",
		Tags:         []string{"Novels"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: media.MaxCoverBytes,
	}, s.handleUploadCover)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNovelCover",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{id}/cover",
		Summary:     "Get cover",
		Description: "Returns the cover image bytes",
		Tags:        []string{"Novels"},
	}, s.handleGetCover)
}

// ListNovelsInput contains filters and pagination for listing novels.
type ListNovelsInput struct {
	Limit    int    `query:"limit" doc:"Page size (default 50, max 200)"`
	Cursor   string `query:"cursor" doc:"Cursor from the previous page"`
	AuthorID string `query:"author" doc:"Only novels by this author"`
	Genre    string `query:"genre" doc:"Genre name or slug"`
	Tag      string `query:"tag" doc:"Tag name or slug"`
	Status   string `query:"status" doc:"Publication status"`
}

// NovelListOutput wraps a page of novels for Huma.
type NovelListOutput struct {
	Body *store.PaginatedResult[*domain.Novel]
}

// NovelRequest is the request body for creating a novel.
type NovelRequest struct {
	Title       string   `json:"title" doc:"Novel title"`
	Description string   `json:"description,omitempty" doc:"Description, HTML or Markdown"`
	Genres      []string `json:"genres,omitempty" doc:"Genre names"`
	Tags        []string `json:"tags,omitempty" doc:"Free-form tags"`
	Status      string   `json:"status,omitempty" doc:"ongoing, completed, hiatus or dropped"`
}

// CreateNovelInput wraps the create request for Huma.
type CreateNovelInput struct {
	Authorization string `header:"Authorization"`
	Body          NovelRequest
}

// UpdateNovelRequest is the request body for novel changes.
type UpdateNovelRequest struct {
	Title       *string   `json:"title,omitempty" doc:"Novel title"`
	Description *string   `json:"description,omitempty" doc:"Description, HTML or Markdown"`
	Genres      *[]string `json:"genres,omitempty" doc:"Replaces all genres"`
	Tags        *[]string `json:"tags,omitempty" doc:"Replaces all tags"`
	Status      *string   `json:"status,omitempty" doc:"Publication status"`
}

// UpdateNovelInput wraps the update request for Huma.
type UpdateNovelInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	Body          UpdateNovelRequest
}

// NovelIDInput addresses a single novel.
type NovelIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
}

// NovelOutput wraps a novel for Huma.
type NovelOutput struct {
	Body *domain.Novel
}

// UploadCoverInput carries raw image bytes.
type UploadCoverInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	RawBody       []byte
}

// CoverOutput wraps cover metadata for Huma.
type CoverOutput struct {
	Body *domain.Cover
}

// CoverImageOutput returns raw image bytes.
type CoverImageOutput struct {
	ContentType   string `header:"Content-Type"`
	ContentLength string `header:"Content-Length"`
	CacheControl  string `header:"Cache-Control"`
	BlurHash      string `header:"X-Blur-Hash"`
	Body          []byte
}

func (s *Server) handleListNovels(ctx context.Context, input *ListNovelsInput) (*NovelListOutput, error) {
	page, err := s.services.Novels.List(ctx,
		store.NovelFilter{
			AuthorID: input.AuthorID,
			Genre:    input.Genre,
			Tag:      input.Tag,
			Status:   domain.NovelStatus(input.Status),
		},
		store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor},
	)
	if err != nil {
		return nil, err
	}
	return &NovelListOutput{Body: page}, nil
}

func (s *Server) handleCreateNovel(ctx context.Context, input *CreateNovelInput) (*NovelOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	novel, err := s.services.Novels.Create(ctx, userID, service.CreateNovelRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Genres:      input.Body.Genres,
		Tags:        input.Body.Tags,
		Status:      input.Body.Status,
	})
	if err != nil {
		return nil, err
	}
	return &NovelOutput{Body: novel}, nil
}

func (s *Server) handleGetNovel(ctx context.Context, input *NovelIDInput) (*NovelOutput, error) {
	novel, err := s.services.Novels.Get(ctx, input.ID, true)
	if err != nil {
		return nil, err
	}
	return &NovelOutput{Body: novel}, nil
}

func (s *Server) handleUpdateNovel(ctx context.Context, input *UpdateNovelInput) (*NovelOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	novel, err := s.services.Novels.Update(ctx, userID, input.ID, service.UpdateNovelRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Genres:      input.Body.Genres,
		Tags:        input.Body.Tags,
		Status:      input.Body.Status,
	})
	if err != nil {
		return nil, err
	}
	return &NovelOutput{Body: novel}, nil
}

func (s *Server) handleDeleteNovel(ctx context.Context, input *NovelIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Novels.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleUploadCover(ctx context.Context, input *UploadCoverInput) (*CoverOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	cover, err := s.services.Novels.SetCover(ctx, userID, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &CoverOutput{Body: cover}, nil
}

func (s *Server) handleGetCover(ctx context.Context, input *NovelIDInput) (*CoverImageOutput, error) {
	cover, err := s.services.Novels.GetCover(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CoverImageOutput{
		ContentType:   cover.MimeType,
		ContentLength: strconv.Itoa(len(cover.Data)),
		CacheControl:  "public, max-age=3600",
		BlurHash:      cover.BlurHash,
		Body:          cover.Data,
	}, nil
}
