package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/id"
	"github.com/inkwell/inkwell-server/internal/store"
)

// CommentService manages reader comments.
type CommentService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewCommentService creates a new comment service.
func NewCommentService(s Store, logger *slog.Logger, opts Options) *CommentService {
	return &CommentService{store: s, logger: logger, now: opts.now()}
}

// CreateCommentRequest posts a comment, optionally on one chapter.
type CreateCommentRequest struct {
	ChapterNumber int    `json:"chapter_number,omitempty" validate:"gte=0"`
	Body          string `json:"body" validate:"required,max=10000"`
}

// UpdateCommentRequest replaces a comment's body.
type UpdateCommentRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// Create posts a comment on a live novel.
func (s *CommentService) Create(ctx context.Context, userID, novelID string, req CreateCommentRequest) (*domain.Comment, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetNovel(ctx, novelID); err != nil {
		return nil, err
	}

	c := &domain.Comment{NovelID: novelID, UserID: userID, Body: req.Body}
	if req.ChapterNumber > 0 {
		ch, err := s.store.GetChapter(ctx, novelID, req.ChapterNumber)
		if err != nil {
			return nil, err
		}
		c.ChapterID = ch.ID
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, err
	}
	c.ID = commentID
	c.InitTimestamps(s.now())

	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.store.GetComment(ctx, c.ID)
}

// List returns a page of a novel's comments, or one chapter's when
// chapterNumber is positive.
func (s *CommentService) List(ctx context.Context, novelID string, chapterNumber int, params store.PaginationParams) (*store.PaginatedResult[*domain.Comment], error) {
	f := store.CommentFilter{NovelID: novelID}
	if chapterNumber > 0 {
		ch, err := s.store.GetChapter(ctx, novelID, chapterNumber)
		if err != nil {
			return nil, err
		}
		f.ChapterID = ch.ID
	}
	return s.store.ListComments(ctx, f, params)
}

func (s *CommentService) owned(ctx context.Context, userID, commentID string) (*domain.Comment, error) {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, errors.Forbidden("only the author of a comment can change it")
	}
	return c, nil
}

// Update edits the caller's own comment.
func (s *CommentService) Update(ctx context.Context, userID, commentID string, req UpdateCommentRequest) (*domain.Comment, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	c, err := s.owned(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	c.Body = req.Body
	c.Touch(s.now())
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return c, nil
}

// Delete removes the caller's own comment.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	if _, err := s.owned(ctx, userID, commentID); err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, commentID)
}
