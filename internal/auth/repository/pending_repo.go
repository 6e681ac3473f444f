package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/assemble-interior/assemble-go/internal/auth/domain"
)

// PendingRepository provides persistence for signup requests. Approve spans
// the pending_users and users tables inside one transaction.
type PendingRepository struct {
	db *sql.DB
}

func NewPendingRepository(db *sql.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

const pendingColumns = `
id, user_id, name, COALESCE(email, ''), role, password, status, registered_at,
approved_at, approved_by, rejected_reason`

func scanPending(row interface{ Scan(...any) error }) (*domain.PendingUser, error) {
	var p domain.PendingUser
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Role, &p.PasswordHash,
		&p.Status, &p.RegisteredAt, &p.ApprovedAt, &p.ApprovedBy, &p.RejectedReason)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create records a new signup request in pending state.
func (r *PendingRepository) Create(ctx context.Context, p *domain.PendingUser) (*domain.PendingUser, error) {
	const q = `
INSERT INTO pending_users (user_id, name, email, role, password, status)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, 'pending')
RETURNING ` + pendingColumns + `;`

	created, err := scanPending(r.db.QueryRowContext(ctx, q, p.UserID, p.Name, p.Email, p.Role, p.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("insert pending user: %w", err)
	}
	return created, nil
}

// Get returns a signup request by id.
func (r *PendingRepository) Get(ctx context.Context, id int64) (*domain.PendingUser, error) {
	const q = `SELECT ` + pendingColumns + ` FROM pending_users WHERE id = $1;`
	p, err := scanPending(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// LatestByUserID returns the most recent request for a user id, if any.
func (r *PendingRepository) LatestByUserID(ctx context.Context, userID string) (*domain.PendingUser, error) {
	const q = `
SELECT ` + pendingColumns + `
FROM pending_users
WHERE user_id = $1
ORDER BY registered_at DESC
LIMIT 1;`
	p, err := scanPending(r.db.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// HasActiveRequest reports whether the user id already has a pending or
// approved request.
func (r *PendingRepository) HasActiveRequest(ctx context.Context, userID string) (bool, error) {
	const q = `
SELECT COUNT(*) FROM pending_users
WHERE user_id = $1 AND status IN ('pending', 'approved');`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// EmailHasActiveRequest reports whether the email already has a pending or
// approved request.
func (r *PendingRepository) EmailHasActiveRequest(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	const q = `
SELECT COUNT(*) FROM pending_users
WHERE email = $1 AND status IN ('pending', 'approved');`
	var n int
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns signup requests, newest first, optionally filtered by status.
func (r *PendingRepository) List(ctx context.Context, status domain.PendingStatus) ([]domain.PendingUser, error) {
	q := `SELECT ` + pendingColumns + ` FROM pending_users`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(status))
	}
	q += ` ORDER BY registered_at DESC;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PendingUser, 0, 16)
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve marks the request approved and creates the account in the same
// transaction. createUser is false when the user id already exists and the
// row is only being reconciled.
func (r *PendingRepository) Approve(ctx context.Context, p *domain.PendingUser, adminID string, createUser bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback()

	if createUser {
		const insertUser = `
INSERT INTO users (user_id, name, email, role, password)
VALUES ($1, $2, NULLIF($3, ''), $4, $5);`
		if _, err := tx.ExecContext(ctx, insertUser, p.UserID, p.Name, p.Email, p.Role, p.PasswordHash); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	}

	const updatePending = `
UPDATE pending_users
SET status = 'approved', approved_at = NOW(), approved_by = $2, rejected_reason = NULL
WHERE id = $1;`
	if _, err := tx.ExecContext(ctx, updatePending, p.ID, adminID); err != nil {
		return fmt.Errorf("mark approved: %w", err)
	}

	return tx.Commit()
}

// Reject marks the request rejected with a reason.
func (r *PendingRepository) Reject(ctx context.Context, id int64, adminID, reason string) error {
	const q = `
UPDATE pending_users
SET status = 'rejected', approved_at = NULL, approved_by = $2, rejected_reason = NULLIF($3, '')
WHERE id = $1;`
	_, err := r.db.ExecContext(ctx, q, id, adminID, reason)
	return err
}

// Delete removes a request regardless of its status.
func (r *PendingRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM pending_users WHERE id = $1;`
	result, err := r.db.ExecContext(ctx, q, id)
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

// DeleteRejectedBefore purges rejected requests older than the cutoff.
// Returns the number of rows removed.
func (r *PendingRepository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM pending_users WHERE status = 'rejected' AND registered_at < $1;`
	result, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
