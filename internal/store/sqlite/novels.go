package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

// novelColumns must match the scan order in scanNovel. Cover bytes are never
// selected here; see GetCover.
const novelColumns = `n.id, n.created_at, n.updated_at, n.deleted_at,
	n.title, n.description, n.author_id, COALESCE(u.display_name, ''),
	n.status, n.rating_average, n.rating_count, n.view_count, n.chapter_count,
	n.cover_mime, n.cover_size, n.cover_blur_hash,
	COALESCE((SELECT group_concat(genre, ',') FROM novel_genres g WHERE g.novel_id = n.id), ''),
	COALESCE((SELECT group_concat(tag, ',') FROM novel_tags t WHERE t.novel_id = n.id), '')`

const novelFrom = ` FROM novels n LEFT JOIN users u ON u.id = n.author_id `

func scanNovel(scanner interface{ Scan(dest ...any) error }) (*domain.Novel, error) {
	var (
		n         domain.Novel
		createdAt string
		updatedAt string
		deletedAt sql.NullString
		status    string
		coverMime sql.NullString
		coverSize int
		coverHash sql.NullString
		genres    string
		tags      string
	)

	err := scanner.Scan(
		&n.ID, &createdAt, &updatedAt, &deletedAt,
		&n.Title, &n.Description, &n.AuthorID, &n.AuthorName,
		&status, &n.RatingAverage, &n.RatingCount, &n.ViewCount, &n.ChapterCount,
		&coverMime, &coverSize, &coverHash,
		&genres, &tags,
	)
	if err != nil {
		return nil, err
	}

	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if n.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}

	n.Status = domain.NovelStatus(status)
	n.Genres = splitList(genres)
	n.Tags = splitList(tags)
	if coverMime.Valid {
		n.Cover = &domain.Cover{MimeType: coverMime.String, Size: coverSize, BlurHash: coverHash.String}
	}
	return &n, nil
}

func (s *Store) queryNovels(ctx context.Context, query string, args ...any) ([]*domain.Novel, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var novels []*domain.Novel
	for rows.Next() {
		n, err := scanNovel(rows)
		if err != nil {
			return nil, err
		}
		novels = append(novels, n)
	}
	return novels, rows.Err()
}

func replaceNovelLabels(ctx context.Context, tx execer, novelID string, genres, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM novel_genres WHERE novel_id = ?`, novelID); err != nil {
		return fmt.Errorf("clear genres: %w", err)
	}
	for i, g := range genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO novel_genres (novel_id, position, genre) VALUES (?, ?, ?)`, novelID, i, g); err != nil {
			return fmt.Errorf("insert genre %q: %w", g, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM novel_tags WHERE novel_id = ?`, novelID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for i, t := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO novel_tags (novel_id, position, tag) VALUES (?, ?, ?)`, novelID, i, t); err != nil {
			return fmt.Errorf("insert tag %q: %w", t, err)
		}
	}
	return nil
}

// CreateNovel inserts a novel with its genres and tags.
func (s *Store) CreateNovel(ctx context.Context, n *domain.Novel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO novels (
			id, created_at, updated_at, deleted_at, title, description, author_id, status,
			rating_average, rating_count, view_count, chapter_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, formatTime(n.CreatedAt), formatTime(n.UpdatedAt), nullTimeString(n.DeletedAt),
		n.Title, n.Description, n.AuthorID, string(n.Status),
		n.RatingAverage, n.RatingCount, n.ViewCount, n.ChapterCount,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists.WithMessage("novel already exists")
		case isForeignKeyViolation(err):
			return store.ErrUserNotFound
		}
		return err
	}

	if err := replaceNovelLabels(ctx, tx, n.ID, n.Genres, n.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, n.ID)
	return nil
}

// GetNovel returns a live novel.
func (s *Store) GetNovel(ctx context.Context, id string) (*domain.Novel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+novelColumns+novelFrom+`WHERE n.id = ? AND n.deleted_at IS NULL`, id)
	n, err := scanNovel(row)
	if err != nil {
		return nil, noRows(err, store.ErrNovelNotFound)
	}
	return n, nil
}

// GetNovelIncludingDeleted returns a novel or its tombstone.
func (s *Store) GetNovelIncludingDeleted(ctx context.Context, id string) (*domain.Novel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+novelColumns+novelFrom+`WHERE n.id = ?`, id)
	n, err := scanNovel(row)
	if err != nil {
		return nil, noRows(err, store.ErrNovelNotFound)
	}
	return n, nil
}

// UpdateNovel replaces the editable fields of a live novel.
func (s *Store) UpdateNovel(ctx context.Context, n *domain.Novel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE novels SET updated_at = ?, title = ?, description = ?, status = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(n.UpdatedAt), n.Title, n.Description, string(n.Status), n.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, store.ErrNovelNotFound); err != nil {
		return err
	}

	if err := replaceNovelLabels(ctx, tx, n.ID, n.Genres, n.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, n.ID)
	return nil
}

// DeleteNovel soft-deletes a novel, leaving a tombstone for the index poll.
func (s *Store) DeleteNovel(ctx context.Context, id string, at time.Time) error {
	ts := formatTime(at)
	res, err := s.db.ExecContext(ctx,
		`UPDATE novels SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, store.ErrNovelNotFound); err != nil {
		return err
	}
	s.notifyNovelChanged(ctx, id)
	return nil
}

// IncrementViews bumps the view counter. updated_at is deliberately left
// alone; the index picks view counts up during full reconciliation.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE novels SET view_count = view_count + 1 WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrNovelNotFound)
}

// SetCover stores cover bytes and metadata. Cover changes do not touch the
// indexed projection.
func (s *Store) SetCover(ctx context.Context, novelID string, c *domain.Cover) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE novels SET cover_data = ?, cover_mime = ?, cover_size = ?, cover_blur_hash = ?
		WHERE id = ? AND deleted_at IS NULL`,
		c.Data, c.MimeType, len(c.Data), nullString(c.BlurHash), novelID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrNovelNotFound)
}

// GetCover returns a novel's cover including its bytes.
func (s *Store) GetCover(ctx context.Context, novelID string) (*domain.Cover, error) {
	var (
		data []byte
		mime sql.NullString
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cover_data, cover_mime, cover_blur_hash FROM novels WHERE id = ? AND deleted_at IS NULL`,
		novelID).Scan(&data, &mime, &hash)
	if err != nil {
		return nil, noRows(err, store.ErrNovelNotFound)
	}
	if !mime.Valid || len(data) == 0 {
		return nil, store.ErrCoverNotFound
	}
	return &domain.Cover{MimeType: mime.String, BlurHash: hash.String, Size: len(data), Data: data}, nil
}

// ListNovels lists live novels newest first.
// Cursor format: "created_at|id".
func (s *Store) ListNovels(ctx context.Context, f store.NovelFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Novel], error) {
	params.Validate()

	parts, err := store.DecodeCursor(params.Cursor, 2)
	if err != nil {
		return nil, err
	}

	where := []string{"n.deleted_at IS NULL"}
	var args []any
	if f.AuthorID != "" {
		where = append(where, "n.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.Genre != "" {
		where = append(where, "n.id IN (SELECT novel_id FROM novel_genres WHERE genre = ?)")
		args = append(args, f.Genre)
	}
	if f.Tag != "" {
		where = append(where, "n.id IN (SELECT novel_id FROM novel_tags WHERE tag = ?)")
		args = append(args, f.Tag)
	}
	if f.Status != "" {
		where = append(where, "n.status = ?")
		args = append(args, string(f.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM novels n WHERE `+strings.Join(where, " AND "), args...).Scan(&total); err != nil {
		return nil, err
	}

	if parts != nil {
		where = append(where, "(n.created_at < ? OR (n.created_at = ? AND n.id < ?))")
		args = append(args, parts[0], parts[0], parts[1])
	}
	args = append(args, params.Limit+1)

	novels, err := s.queryNovels(ctx, `SELECT `+novelColumns+novelFrom+
		`WHERE `+strings.Join(where, " AND ")+`
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}

	hasMore := len(novels) > params.Limit
	if hasMore {
		novels = novels[:params.Limit]
	}

	var next string
	if hasMore && len(novels) > 0 {
		last := novels[len(novels)-1]
		next = store.EncodeCursor(formatTime(last.CreatedAt), last.ID)
	}

	return &store.PaginatedResult[*domain.Novel]{
		Items:      novels,
		Total:      total,
		HasMore:    hasMore,
		NextCursor: next,
	}, nil
}

// NovelsModifiedSince returns every novel, tombstones included, whose
// updated_at is strictly after since, oldest change first.
func (s *Store) NovelsModifiedSince(ctx context.Context, since time.Time) ([]*domain.Novel, error) {
	return s.queryNovels(ctx, `SELECT `+novelColumns+novelFrom+`
		WHERE n.updated_at > ?
		ORDER BY n.updated_at ASC, n.id ASC`, formatTime(since))
}

// ListLiveNovelsAfter pages live novels in id order. Pass the last id of the
// previous page as afterID; empty starts from the beginning.
func (s *Store) ListLiveNovelsAfter(ctx context.Context, afterID string, limit int) ([]*domain.Novel, error) {
	return s.queryNovels(ctx, `SELECT `+novelColumns+novelFrom+`
		WHERE n.deleted_at IS NULL AND n.id > ?
		ORDER BY n.id ASC
		LIMIT ?`, afterID, limit)
}

// ListLiveNovelIDsAfter pages live novel ids in id order.
func (s *Store) ListLiveNovelIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM novels
		WHERE deleted_at IS NULL AND id > ?
		ORDER BY id ASC
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountLiveNovels returns the number of live novels.
func (s *Store) CountLiveNovels(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM novels WHERE deleted_at IS NULL`).Scan(&n)
	return n, err
}

// FindNovels runs a catalogue query over live novels.
func (s *Store) FindNovels(ctx context.Context, q store.NovelQuery) ([]*domain.Novel, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	where := []string{"n.deleted_at IS NULL"}
	var args []any
	if len(q.AnyGenres) > 0 {
		where = append(where, "n.id IN (SELECT novel_id FROM novel_genres WHERE genre IN ("+placeholders(len(q.AnyGenres))+"))")
		args = append(args, stringArgs(q.AnyGenres)...)
	}
	if q.AuthorID != "" {
		where = append(where, "n.author_id = ?")
		args = append(args, q.AuthorID)
	}
	if len(q.ExcludeIDs) > 0 {
		where = append(where, "n.id NOT IN ("+placeholders(len(q.ExcludeIDs))+")")
		args = append(args, stringArgs(q.ExcludeIDs)...)
	}
	if len(q.ExcludeAuthors) > 0 {
		where = append(where, "n.author_id NOT IN ("+placeholders(len(q.ExcludeAuthors))+")")
		args = append(args, stringArgs(q.ExcludeAuthors)...)
	}

	var order string
	switch q.Order {
	case store.OrderNewest:
		order = "n.created_at DESC, n.rating_average DESC, n.id ASC"
	case store.OrderRandom:
		order = "RANDOM()"
	default:
		order = "n.rating_average DESC, n.view_count DESC, n.id ASC"
	}
	args = append(args, q.Limit)

	return s.queryNovels(ctx, `SELECT `+novelColumns+novelFrom+
		`WHERE `+strings.Join(where, " AND ")+`
		ORDER BY `+order+`
		LIMIT ?`, args...)
}

// PopularAuthors ranks authors of live novels by novel count, then total views.
func (s *Store) PopularAuthors(ctx context.Context, excludeAuthors []string, limit int) ([]domain.AuthorStats, error) {
	where := "n.deleted_at IS NULL"
	var args []any
	if len(excludeAuthors) > 0 {
		where += " AND n.author_id NOT IN (" + placeholders(len(excludeAuthors)) + ")"
		args = append(args, stringArgs(excludeAuthors)...)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.author_id, COALESCE(u.display_name, ''), COUNT(*), COALESCE(SUM(n.view_count), 0)
		FROM novels n LEFT JOIN users u ON u.id = n.author_id
		WHERE `+where+`
		GROUP BY n.author_id
		ORDER BY COUNT(*) DESC, SUM(n.view_count) DESC, n.author_id ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuthorStats
	for rows.Next() {
		var a domain.AuthorStats
		if err := rows.Scan(&a.AuthorID, &a.AuthorName, &a.NovelCount, &a.TotalViews); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
