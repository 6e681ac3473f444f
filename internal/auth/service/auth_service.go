package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/assemble-interior/assemble-go/internal/auth/domain"
	"github.com/assemble-interior/assemble-go/internal/auth/repository"
)

const defaultName = "디자이너"

// AuthService handles registration, login and the admin approval workflow.
type AuthService struct {
	users   *repository.UserRepository
	pending *repository.PendingRepository
	logger  *zap.Logger
}

func NewAuthService(users *repository.UserRepository, pending *repository.PendingRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, pending: pending, logger: logger}
}

type RegisterInput struct {
	UserID   string
	Password string
	Name     string
	Email    string
	Role     string
}

// Register records a signup request pending admin approval. Duplicate user
// ids, duplicate emails and in-flight requests are rejected.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.PendingUser, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	taken, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user id: %w", err)
	}
	if taken {
		return nil, domain.ErrUserExists
	}

	active, err := s.pending.HasActiveRequest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check pending request: %w", err)
	}
	if active {
		return nil, domain.ErrRequestPending
	}

	email := strings.TrimSpace(in.Email)
	if email != "" {
		emailTaken, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if !emailTaken {
			emailTaken, err = s.pending.EmailHasActiveRequest(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check pending email: %w", err)
			}
		}
		if emailTaken {
			return nil, domain.ErrEmailExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultName
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = domain.RoleDesigner
	}

	created, err := s.pending.Create(ctx, &domain.PendingUser{
		UserID:       userID,
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration request recorded", zap.String("user_id", userID))
	return created, nil
}

// Login verifies credentials. A login against a pending or rejected
// registration reports that state instead of a bare credential failure.
func (s *AuthService) Login(ctx context.Context, userID, password string) (*domain.User, error) {
	if userID == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		return nil, s.pendingLoginState(ctx, userID)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// pendingLoginState distinguishes "no such account" from "account awaiting
// approval" and "registration rejected".
func (s *AuthService) pendingLoginState(ctx context.Context, userID string) error {
	p, err := s.pending.LatestByUserID(ctx, userID)
	if err != nil {
		return domain.ErrInvalidCredentials
	}

	switch p.Status {
	case domain.PendingStatusPending:
		return domain.ErrApprovalPending
	case domain.PendingStatusRejected:
		reason := ""
		if p.RejectedReason != nil {
			reason = *p.RejectedReason
		}
		return &domain.RejectedError{Reason: reason}
	}
	return domain.ErrInvalidCredentials
}

// ValidateAdmin loads the acting admin and verifies the role.
func (s *AuthService) ValidateAdmin(ctx context.Context, adminID string) (*domain.User, error) {
	if adminID == "" {
		return nil, domain.ErrAdminRequired
	}
	admin, err := s.users.Get(ctx, adminID)
	if err != nil {
		return nil, domain.ErrAdminRequired
	}
	if admin.Role != domain.RoleAdmin {
		return nil, domain.ErrAdminRequired
	}
	return admin, nil
}

// PendingUsers lists signup requests. Unknown filters are ignored.
func (s *AuthService) PendingUsers(ctx context.Context, statusFilter string) ([]domain.PendingUser, error) {
	var status domain.PendingStatus
	switch domain.PendingStatus(statusFilter) {
	case domain.PendingStatusPending, domain.PendingStatusApproved, domain.PendingStatusRejected:
		status = domain.PendingStatus(statusFilter)
	}
	return s.pending.List(ctx, status)
}

// Approve turns a pending request into an account. When the user id already
// exists, the row is reconciled to approved and ErrUserExists is reported.
func (s *AuthService) Approve(ctx context.Context, pendingID int64, adminID string) error {
	p, err := s.pending.Get(ctx, pendingID)
	if err != nil {
		return err
	}
	if p.Status != domain.PendingStatusPending {
		return domain.ErrAlreadyProcessed
	}

	exists, err := s.users.Exists(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("check user id: %w", err)
	}
	if exists {
		if err := s.pending.Approve(ctx, p, adminID, false); err != nil {
			return err
		}
		return domain.ErrUserExists
	}

	if err := s.pending.Approve(ctx, p, adminID, true); err != nil {
		return err
	}
	s.logger.Info("registration approved",
		zap.String("user_id", p.UserID), zap.String("admin_id", adminID))
	return nil
}

// Reject marks a pending request rejected. Approved requests cannot be
// rejected.
func (s *AuthService) Reject(ctx context.Context, pendingID int64, adminID, reason string) error {
	p, err := s.pending.Get(ctx, pendingID)
	if err != nil {
		return err
	}
	if p.Status == domain.PendingStatusApproved {
		return domain.ErrAlreadyProcessed
	}
	return s.pending.Reject(ctx, pendingID, adminID, reason)
}

// DeletePending removes a signup request regardless of status.
func (s *AuthService) DeletePending(ctx context.Context, pendingID int64) error {
	return s.pending.Delete(ctx, pendingID)
}

// Users lists registered accounts.
func (s *AuthService) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// DeleteUser removes an account. Admins cannot delete themselves or another
// admin.
func (s *AuthService) DeleteUser(ctx context.Context, adminID, targetUserID string) error {
	if targetUserID == adminID {
		return domain.ErrSelfDelete
	}

	target, err := s.users.Get(ctx, targetUserID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleAdmin {
		return domain.ErrAdminDelete
	}
	return s.users.Delete(ctx, targetUserID)
}
