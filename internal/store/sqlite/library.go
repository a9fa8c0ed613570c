package sqlite

import (
	"context"
	"database/sql"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

const libraryColumns = `l.id, l.created_at, l.updated_at, l.user_id, l.novel_id, l.status, l.last_read_chapter, l.note`

func scanLibraryEntry(dest []any, e *domain.LibraryEntry, createdAt, updatedAt, status *string) []any {
	return append(dest, &e.ID, createdAt, updatedAt, &e.UserID, &e.NovelID, status, &e.LastReadChapter, &e.Note)
}

func finishLibraryEntry(e *domain.LibraryEntry, createdAt, updatedAt, status string) error {
	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return err
	}
	e.Status = domain.ReadingStatus(status)
	return nil
}

// AddLibraryEntry inserts an entry. Fails with ErrAlreadyExists when the
// novel is already in the user's library.
func (s *Store) AddLibraryEntry(ctx context.Context, e *domain.LibraryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO library_entries (id, created_at, updated_at, user_id, novel_id, status, last_read_chapter, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.CreatedAt), formatTime(e.UpdatedAt), e.UserID, e.NovelID,
		string(e.Status), e.LastReadChapter, e.Note)
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithMessage("novel already in library")
	case isForeignKeyViolation(err):
		return store.ErrNovelNotFound
	}
	return err
}

// GetLibraryEntry returns the user's entry for a novel.
func (s *Store) GetLibraryEntry(ctx context.Context, userID, novelID string) (*domain.LibraryEntry, error) {
	var (
		e                            domain.LibraryEntry
		createdAt, updatedAt, status string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT `+libraryColumns+` FROM library_entries l
		WHERE l.user_id = ? AND l.novel_id = ?`, userID, novelID).
		Scan(scanLibraryEntry(nil, &e, &createdAt, &updatedAt, &status)...)
	if err != nil {
		return nil, noRows(err, store.ErrLibraryEntryNotFound)
	}
	if err := finishLibraryEntry(&e, createdAt, updatedAt, status); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListLibraryEntries lists a user's entries for live novels, most recently
// updated first, each with its novel populated. Empty statuses means all.
func (s *Store) ListLibraryEntries(ctx context.Context, userID string, statuses ...domain.ReadingStatus) ([]*domain.LibraryEntry, error) {
	where := "l.user_id = ? AND n.deleted_at IS NULL"
	args := []any{userID}
	if len(statuses) > 0 {
		where += " AND l.status IN (" + placeholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+libraryColumns+`, `+novelColumns+`
		FROM library_entries l
		JOIN novels n ON n.id = l.novel_id
		LEFT JOIN users u ON u.id = n.author_id
		WHERE `+where+`
		ORDER BY l.updated_at DESC, l.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.LibraryEntry{}
	for rows.Next() {
		var (
			e                            domain.LibraryEntry
			createdAt, updatedAt, status string
		)
		dest := scanLibraryEntry(nil, &e, &createdAt, &updatedAt, &status)
		novel, err := scanNovel(joinedScanner{rows: rows, head: dest})
		if err != nil {
			return nil, err
		}
		if err := finishLibraryEntry(&e, createdAt, updatedAt, status); err != nil {
			return nil, err
		}
		e.Novel = novel
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// joinedScanner lets scanNovel read the tail of a row whose head belongs to
// another entity.
type joinedScanner struct {
	rows *sql.Rows
	head []any
}

func (j joinedScanner) Scan(dest ...any) error {
	return j.rows.Scan(append(j.head, dest...)...)
}

// UpdateLibraryEntry saves status, progress and note.
func (s *Store) UpdateLibraryEntry(ctx context.Context, e *domain.LibraryEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE library_entries SET updated_at = ?, status = ?, last_read_chapter = ?, note = ?
		WHERE user_id = ? AND novel_id = ?`,
		formatTime(e.UpdatedAt), string(e.Status), e.LastReadChapter, e.Note, e.UserID, e.NovelID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrLibraryEntryNotFound)
}

// RemoveLibraryEntry deletes the user's entry for a novel.
func (s *Store) RemoveLibraryEntry(ctx context.Context, userID, novelID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM library_entries WHERE user_id = ? AND novel_id = ?`, userID, novelID)
	if err != nil {
		return err
	}
	return requireAffected(res, store.ErrLibraryEntryNotFound)
}

// LibraryStatusCounts returns how many entries the user has per status.
func (s *Store) LibraryStatusCounts(ctx context.Context, userID string) (map[domain.ReadingStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM library_entries WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ReadingStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.ReadingStatus(status)] = n
	}
	return counts, rows.Err()
}
