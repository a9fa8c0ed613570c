package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

// refreshRatingAggregate recomputes a novel's average and count and touches it.
func refreshRatingAggregate(ctx context.Context, tx *sql.Tx, novelID string, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE novels SET
			rating_average = COALESCE((SELECT AVG(score) FROM ratings WHERE novel_id = ?), 0),
			rating_count = (SELECT COUNT(*) FROM ratings WHERE novel_id = ?),
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		novelID, novelID, formatTime(at), novelID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrNovelNotFound)
}

// UpsertRating creates or replaces the user's rating and refreshes the
// novel's aggregate in the same transaction.
func (s *Store) UpsertRating(ctx context.Context, r *domain.Rating) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (user_id, novel_id, score, review, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, novel_id) DO UPDATE SET
			score = excluded.score,
			review = excluded.review,
			updated_at = excluded.updated_at`,
		r.UserID, r.NovelID, r.Score, r.Review, formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNovelNotFound
		}
		return err
	}

	if err := refreshRatingAggregate(ctx, tx, r.NovelID, r.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, r.NovelID)
	return nil
}

// GetRating returns the user's rating for a novel.
func (s *Store) GetRating(ctx context.Context, userID, novelID string) (*domain.Rating, error) {
	var (
		r                    domain.Rating
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, novel_id, score, review, created_at, updated_at
		FROM ratings WHERE user_id = ? AND novel_id = ?`, userID, novelID).
		Scan(&r.UserID, &r.NovelID, &r.Score, &r.Review, &createdAt, &updatedAt)
	if err != nil {
		return nil, noRows(err, store.ErrRatingNotFound)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRating removes the user's rating and refreshes the aggregate.
func (s *Store) DeleteRating(ctx context.Context, userID, novelID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM ratings WHERE user_id = ? AND novel_id = ?`, userID, novelID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, store.ErrRatingNotFound); err != nil {
		return err
	}
	if err := refreshRatingAggregate(ctx, tx, novelID, s.now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, novelID)
	return nil
}
