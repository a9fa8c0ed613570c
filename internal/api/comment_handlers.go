package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/service"
	"github.com/inkwell/inkwell-server/internal/store"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{id}/comments",
		Summary:     "List comments",
		Description: "Returns a page of comments on a novel, optionally for one chapter",
		Tags:        []string{"Comments"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/novels/{id}/comments",
		Summary:       "Post comment",
		Tags:          []string{"Comments"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/comments/{commentId}",
		Summary:     "Edit comment",
		Description: "Replaces the body of the caller's own comment",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteComment",
		Method:        http.MethodDelete,
		Path:          "/api/v1/comments/{commentId}",
		Summary:       "Delete comment",
		Tags:          []string{"Comments"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteComment)
}

// ListCommentsInput contains filters and pagination for comments.
type ListCommentsInput struct {
	ID      string `path:"id" doc:"Novel ID"`
	Chapter int    `query:"chapter" minimum:"0" doc:"Only comments on this chapter number"`
	Limit   int    `query:"limit" doc:"Page size (default 50, max 200)"`
	Cursor  string `query:"cursor" doc:"Cursor from the previous page"`
}

// CommentListOutput wraps a page of comments for Huma.
type CommentListOutput struct {
	Body *store.PaginatedResult[*domain.Comment]
}

// CommentRequest is the request body for posting a comment.
type CommentRequest struct {
	ChapterNumber int    `json:"chapter_number,omitempty" minimum:"0" doc:"Chapter the comment is about"`
	Body          string `json:"body" doc:"Comment text"`
}

// CreateCommentInput wraps the comment request for Huma.
type CreateCommentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Novel ID"`
	Body          CommentRequest
}

// EditCommentRequest is the request body for editing a comment.
type EditCommentRequest struct {
	Body string `json:"body" doc:"New comment text"`
}

// UpdateCommentInput wraps the edit request for Huma.
type UpdateCommentInput struct {
	Authorization string `header:"Authorization"`
	CommentID     string `path:"commentId" doc:"Comment ID"`
	Body          EditCommentRequest
}

// CommentIDInput addresses one comment.
type CommentIDInput struct {
	Authorization string `header:"Authorization"`
	CommentID     string `path:"commentId" doc:"Comment ID"`
}

// CommentOutput wraps a comment for Huma.
type CommentOutput struct {
	Body *domain.Comment
}

func (s *Server) handleListComments(ctx context.Context, input *ListCommentsInput) (*CommentListOutput, error) {
	if _, err := s.services.Novels.Get(ctx, input.ID, false); err != nil {
		return nil, err
	}
	page, err := s.services.Comments.List(ctx, input.ID, input.Chapter,
		store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return nil, err
	}
	return &CommentListOutput{Body: page}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.services.Comments.Create(ctx, userID, input.ID, service.CreateCommentRequest{
		ChapterNumber: input.Body.ChapterNumber,
		Body:          input.Body.Body,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: c}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.services.Comments.Update(ctx, userID, input.CommentID, service.UpdateCommentRequest{Body: input.Body.Body})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: c}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Comments.Delete(ctx, userID, input.CommentID)
}
