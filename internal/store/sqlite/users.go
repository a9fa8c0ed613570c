package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, deleted_at, email, password_hash, display_name, bio`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)
	if err := scanner.Scan(&u.ID, &createdAt, &updatedAt, &deletedAt,
		&u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. Emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, deleted_at, email, email_lower, password_hash, display_name, bio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, formatTime(u.CreatedAt), formatTime(u.UpdatedAt), nullTimeString(u.DeletedAt),
		u.Email, strings.ToLower(u.Email), u.PasswordHash, u.DisplayName, u.Bio,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("email already registered")
	}
	return err
}

// GetUser returns a live user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, noRows(err, store.ErrUserNotFound)
	}
	return u, nil
}

// GetUserByEmail returns a live user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ? AND deleted_at IS NULL`,
		strings.ToLower(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, noRows(err, store.ErrUserNotFound)
	}
	return u, nil
}

// UpdateUser updates profile fields. A display name change alters every
// authored novel's indexed projection, so those novels are touched too.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var previous string
	if err := tx.QueryRowContext(ctx,
		`SELECT display_name FROM users WHERE id = ? AND deleted_at IS NULL`, u.ID).Scan(&previous); err != nil {
		return noRows(err, store.ErrUserNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET updated_at = ?, display_name = ?, bio = ? WHERE id = ?`,
		formatTime(u.UpdatedAt), u.DisplayName, u.Bio, u.ID); err != nil {
		return err
	}

	var touched []string
	if previous != u.DisplayName {
		rows, err := tx.QueryContext(ctx,
			`UPDATE novels SET updated_at = ? WHERE author_id = ? AND deleted_at IS NULL RETURNING id`,
			formatTime(u.UpdatedAt), u.ID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			touched = append(touched, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	for _, id := range touched {
		s.notifyNovelChanged(ctx, id)
	}
	return nil
}
