package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

const commentColumns = `c.id, c.created_at, c.updated_at, c.deleted_at, c.novel_id,
	COALESCE(c.chapter_id, ''), c.user_id, COALESCE(u.display_name, ''), c.body`

const commentFrom = ` FROM comments c LEFT JOIN users u ON u.id = c.user_id `

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var (
		c         domain.Comment
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)
	if err := scanner.Scan(&c.ID, &createdAt, &updatedAt, &deletedAt, &c.NovelID,
		&c.ChapterID, &c.UserID, &c.AuthorName, &c.Body); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComment inserts a comment.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, created_at, updated_at, deleted_at, novel_id, chapter_id, user_id, body)
		VALUES (?, ?, ?, NULL, ?, ?, ?, ?)`,
		c.ID, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		c.NovelID, nullString(c.ChapterID), c.UserID, c.Body)
	if isForeignKeyViolation(err) {
		return store.ErrNovelNotFound
	}
	return err
}

// GetComment returns a live comment.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+commentFrom+`WHERE c.id = ? AND c.deleted_at IS NULL`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, noRows(err, store.ErrCommentNotFound)
	}
	return c, nil
}

// ListComments lists live comments oldest first.
// Cursor format: "created_at|id".
func (s *Store) ListComments(ctx context.Context, f store.CommentFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Comment], error) {
	params.Validate()

	parts, err := store.DecodeCursor(params.Cursor, 2)
	if err != nil {
		return nil, err
	}

	where := []string{"c.deleted_at IS NULL", "c.novel_id = ?"}
	args := []any{f.NovelID}
	if f.ChapterID != "" {
		where = append(where, "c.chapter_id = ?")
		args = append(args, f.ChapterID)
	}
	if parts != nil {
		where = append(where, "(c.created_at > ? OR (c.created_at = ? AND c.id > ?))")
		args = append(args, parts[0], parts[0], parts[1])
	}
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, `SELECT `+commentColumns+commentFrom+
		`WHERE `+strings.Join(where, " AND ")+`
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(comments) > params.Limit
	if hasMore {
		comments = comments[:params.Limit]
	}
	var next string
	if hasMore {
		last := comments[len(comments)-1]
		next = store.EncodeCursor(formatTime(last.CreatedAt), last.ID)
	}
	return &store.PaginatedResult[*domain.Comment]{Items: comments, HasMore: hasMore, NextCursor: next}, nil
}

// UpdateComment replaces a live comment's body.
func (s *Store) UpdateComment(ctx context.Context, c *domain.Comment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET updated_at = ?, body = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(c.UpdatedAt), c.Body, c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrCommentNotFound)
}

// DeleteComment soft-deletes a comment.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	ts := formatTime(s.now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrCommentNotFound)
}
