package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetSyncCursor returns the stored cursor for name. ok is false when no
// cursor has been recorded yet.
func (s *Store) GetSyncCursor(ctx context.Context, name string) (cursor time.Time, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT cursor FROM sync_state WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	cursor, err = parseTime(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return cursor, true, nil
}

// SetSyncCursor records the cursor for name.
func (s *Store) SetSyncCursor(ctx context.Context, name string, cursor time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (name, cursor, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at`,
		name, formatTime(cursor), formatTime(s.now()))
	return err
}
