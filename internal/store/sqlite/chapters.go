package sqlite

import (
	"context"
	"database/sql"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

const chapterColumns = `id, created_at, updated_at, novel_id, number, title, content, word_count`

// chapterSummaryColumns omits content for listings.
const chapterSummaryColumns = `id, created_at, updated_at, novel_id, number, title, '', word_count`

func scanChapter(scanner interface{ Scan(dest ...any) error }) (*domain.Chapter, error) {
	var (
		c         domain.Chapter
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&c.ID, &createdAt, &updatedAt, &c.NovelID, &c.Number,
		&c.Title, &c.Content, &c.WordCount); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// syncChapterCount recomputes a novel's chapter count and touches it.
func syncChapterCount(ctx context.Context, tx *sql.Tx, novelID, at string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE novels
		SET chapter_count = (SELECT COUNT(*) FROM chapters WHERE novel_id = ?), updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`, novelID, at, novelID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrNovelNotFound)
}

// CreateChapter inserts a chapter and updates the novel's chapter count.
func (s *Store) CreateChapter(ctx context.Context, c *domain.Chapter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chapters (id, created_at, updated_at, novel_id, number, title, content, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, formatTime(c.CreatedAt), formatTime(c.UpdatedAt), c.NovelID, c.Number,
		c.Title, c.Content, c.WordCount)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists.WithMessage("chapter number already exists")
		case isForeignKeyViolation(err):
			return store.ErrNovelNotFound
		}
		return err
	}

	if err := syncChapterCount(ctx, tx, c.NovelID, formatTime(c.UpdatedAt)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, c.NovelID)
	return nil
}

// GetChapter returns chapter number of a live novel.
func (s *Store) GetChapter(ctx context.Context, novelID string, number int) (*domain.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+chapterColumns+` FROM chapters
		WHERE novel_id = ? AND number = ?
		AND novel_id IN (SELECT id FROM novels WHERE deleted_at IS NULL)`, novelID, number)
	c, err := scanChapter(row)
	if err != nil {
		return nil, noRows(err, store.ErrChapterNotFound)
	}
	return c, nil
}

// ListChapters lists a novel's chapters in order, without content.
func (s *Store) ListChapters(ctx context.Context, novelID string) ([]*domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chapterSummaryColumns+` FROM chapters
		WHERE novel_id = ?
		ORDER BY number ASC`, novelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := []*domain.Chapter{}
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// UpdateChapter replaces title and content. The novel projection is unchanged.
func (s *Store) UpdateChapter(ctx context.Context, c *domain.Chapter) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chapters SET updated_at = ?, title = ?, content = ?, word_count = ?
		WHERE id = ?`,
		formatTime(c.UpdatedAt), c.Title, c.Content, c.WordCount, c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrChapterNotFound)
}

// DeleteChapter removes a chapter and updates the novel's chapter count.
func (s *Store) DeleteChapter(ctx context.Context, c *domain.Chapter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, c.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, store.ErrChapterNotFound); err != nil {
		return err
	}
	if err := syncChapterCount(ctx, tx, c.NovelID, formatTime(s.now())); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, c.NovelID)
	return nil
}
