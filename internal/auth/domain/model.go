package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	RoleAdmin    = "ADMIN"
	RoleDesigner = "DESIGNER"
)

// Expected business failures. Handlers map these to stable error codes.
var (
	ErrUserExists         = errors.New("user id already exists")
	ErrEmailExists        = errors.New("email already registered")
	ErrRequestPending     = errors.New("registration request already in flight")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrApprovalPending    = errors.New("registration approval pending")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyProcessed   = errors.New("request already processed")
	ErrAdminRequired      = errors.New("admin privileges required")
	ErrSelfDelete         = errors.New("cannot delete own account")
	ErrAdminDelete        = errors.New("cannot delete another admin account")
)

// RejectedError reports a login against a rejected registration, carrying the
// reason the admin recorded.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("registration rejected: %s", e.Reason)
}

// User is an approved account.
type User struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

// PendingUser is a self-service signup awaiting admin action.
type PendingUser struct {
	ID             int64         `json:"id"`
	UserID         string        `json:"user_id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Role           string        `json:"role"`
	PasswordHash   string        `json:"-"`
	Status         PendingStatus `json:"status"`
	RegisteredAt   time.Time     `json:"registered_at"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy     *string       `json:"approved_by,omitempty"`
	RejectedReason *string       `json:"rejected_reason,omitempty"`
}
