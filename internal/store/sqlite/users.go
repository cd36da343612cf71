package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, password_hash, created_at, last_sign_in_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u          domain.User
		createdAt  string
		lastSignIn sql.NullString
	)
	if err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt, &lastSignIn); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if lastSignIn.Valid && lastSignIn.String != "" {
		if u.LastSignInAt, err = parseTime(lastSignIn.String); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

// CreateUser inserts a user. Emails are unique case-insensitively;
// a duplicate returns store.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, password_hash, created_at, last_sign_in_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		normalizeEmail(u.Email),
		u.PasswordHash,
		formatTime(u.CreatedAt),
		nullTime(u.LastSignInAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("email already registered")
	}
	return err
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	return u, err
}

// GetUserByEmail returns a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, normalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	return u, err
}

// TouchSignIn records a successful sign-in time.
func (s *Store) TouchSignIn(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_sign_in_at = ? WHERE id = ?`, formatTime(at), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("user not found")
	}
	return nil
}
