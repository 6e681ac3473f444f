package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/assemble-interior/assemble-go/internal/auth/domain"
)

// UserRepository provides persistence for approved accounts.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Get returns a user by id.
func (r *UserRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	const q = `
SELECT user_id, name, COALESCE(email, ''), role, password, created_at, updated_at
FROM users
WHERE user_id = $1;
`
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, userID).
		Scan(&u.UserID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user id is taken.
func (r *UserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM users WHERE user_id = $1;`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// EmailExists reports whether an email belongs to an existing account.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	const q = `SELECT COUNT(*) FROM users WHERE email = $1;`
	var n int
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns all accounts, newest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	const q = `
SELECT user_id, name, COALESCE(email, ''), role, created_at, updated_at
FROM users
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.UserID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an account. Returns domain.ErrNotFound when nothing matched.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	const q = `DELETE FROM users WHERE user_id = $1;`
	result, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
