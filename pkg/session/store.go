package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/assemble-interior/assemble-go/pkg/client"
)

// RoleAdmin is the role value that unlocks the admin operations.
const RoleAdmin = "ADMIN"

// ErrAdminRequired is returned by every admin operation invoked without an
// admin session. The check is local; no request is made.
var ErrAdminRequired = errors.New("admin privileges required")

// Backend is the slice of the API client the store depends on. *client.Client
// satisfies it; tests substitute a recording fake.
type Backend interface {
	Login(ctx context.Context, userID, password string) (*client.LoginPayload, error)
	Register(ctx context.Context, userID, password string, extra client.RegisterExtra) (*client.RegisterAck, error)
	AdminPendingUsers(ctx context.Context, adminID, statusFilter string) ([]client.PendingRegistration, error)
	AdminUsers(ctx context.Context, adminID string) ([]client.User, error)
	AdminApprovePendingUser(ctx context.Context, adminID string, pendingID int64) (*client.Ack, error)
	AdminRejectPendingUser(ctx context.Context, adminID string, pendingID int64, reason string) (*client.Ack, error)
	AdminDeletePendingUser(ctx context.Context, adminID string, pendingID int64) (*client.Ack, error)
	AdminDeleteUser(ctx context.Context, adminID, targetUserID string) (*client.Ack, error)
}

// Session is the current authenticated identity.
type Session struct {
	UserID string
	Name   string
	Role   string
}

// FailReason tags the expected business outcomes of login and registration so
// callers can branch without error handling.
type FailReason string

const (
	ReasonLoginFailed    FailReason = "loginFailed"
	ReasonUserExists     FailReason = "userExists"
	ReasonEmailExists    FailReason = "emailExists"
	ReasonUserPending    FailReason = "userPending"
	ReasonRegisterFailed FailReason = "registerFailed"
)

type LoginResult struct {
	Success bool
	Session Session
	Reason  FailReason
}

type RegisterResult struct {
	Success bool
	// Pending is always true on success: registration yields a request
	// awaiting admin approval, never an authenticated session.
	Pending bool
	Reason  FailReason
}

// Store holds the single current session and gates the admin data operations
// behind it. Construct one per process and pass it to consumers; transitions
// write through to the Storage mirror.
type Store struct {
	api     Backend
	storage Storage
	logger  *zap.Logger

	mu      sync.Mutex
	current Session
	authed  bool
}

func NewStore(api Backend, storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:     api,
		storage: storage,
		logger:  logger,
	}
}

// Restore rebuilds the session from persisted identity, trusting local
// persistence for the lifetime of the process. No network call is made.
// Returns true when a session was restored.
func (s *Store) Restore() bool {
	id, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err))
		return false
	}
	if id.UserID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{UserID: id.UserID, Name: id.Name, Role: id.Role}
	s.authed = true
	return true
}

// Current returns the session and whether one exists.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.authed
}

// IsAdmin reports whether the current session carries the admin role.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed && s.current.Role == RoleAdmin
}

// Login authenticates and, on success, replaces the whole session atomically
// and writes the identity mirror. Failures of any kind come back as a tagged
// result; no error crosses this boundary.
func (s *Store) Login(ctx context.Context, userID, password string) LoginResult {
	payload, err := s.api.Login(ctx, userID, password)
	if err != nil {
		s.logger.Warn("login rejected", zap.String("user_id", userID), zap.Error(err))
		return LoginResult{Reason: ReasonLoginFailed}
	}

	sess := Session{UserID: payload.UserID, Name: payload.Name, Role: payload.Role}

	s.mu.Lock()
	s.current = sess
	s.authed = true
	s.mu.Unlock()

	if err := s.storage.Save(Identity{UserID: sess.UserID, Name: sess.Name, Role: sess.Role}); err != nil {
		s.logger.Warn("session persist failed", zap.Error(err))
	}

	return LoginResult{Success: true, Session: sess}
}

// Register submits a signup request. Known conflicts map to distinct tags;
// a session is never established.
func (s *Store) Register(ctx context.Context, userID, email, password string) RegisterResult {
	_, err := s.api.Register(ctx, userID, password, client.RegisterExtra{Email: email})
	if err == nil {
		return RegisterResult{Success: true, Pending: true}
	}

	s.logger.Warn("register rejected", zap.String("user_id", userID), zap.Error(err))
	return RegisterResult{Reason: classifyRegisterError(err)}
}

// Logout clears the in-memory session and the persisted mirror. Safe to call
// with no session.
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = Session{}
	s.authed = false
	s.mu.Unlock()

	if err := s.storage.Clear(); err != nil {
		s.logger.Warn("session clear failed", zap.Error(err))
	}
}

// FetchPendingUsers lists signup requests, acting as the current admin.
func (s *Store) FetchPendingUsers(ctx context.Context, statusFilter string) ([]client.PendingRegistration, error) {
	adminID, err := s.requireAdmin()
	if err != nil {
		return nil, err
	}
	return s.api.AdminPendingUsers(ctx, adminID, statusFilter)
}

// FetchAllUsers lists registered accounts, acting as the current admin.
func (s *Store) FetchAllUsers(ctx context.Context) ([]client.User, error) {
	adminID, err := s.requireAdmin()
	if err != nil {
		return nil, err
	}
	return s.api.AdminUsers(ctx, adminID)
}

// ApprovePendingUser approves a signup request, acting as the current admin.
func (s *Store) ApprovePendingUser(ctx context.Context, pendingID int64) error {
	adminID, err := s.requireAdmin()
	if err != nil {
		return err
	}
	_, err = s.api.AdminApprovePendingUser(ctx, adminID, pendingID)
	return err
}

// RejectPendingUser rejects a signup request with a reason.
func (s *Store) RejectPendingUser(ctx context.Context, pendingID int64, reason string) error {
	adminID, err := s.requireAdmin()
	if err != nil {
		return err
	}
	_, err = s.api.AdminRejectPendingUser(ctx, adminID, pendingID, reason)
	return err
}

// DeletePendingRequest removes a signup request regardless of status.
func (s *Store) DeletePendingRequest(ctx context.Context, pendingID int64) error {
	adminID, err := s.requireAdmin()
	if err != nil {
		return err
	}
	_, err = s.api.AdminDeletePendingUser(ctx, adminID, pendingID)
	return err
}

// DeleteUserAccount removes a registered account.
func (s *Store) DeleteUserAccount(ctx context.Context, targetUserID string) error {
	adminID, err := s.requireAdmin()
	if err != nil {
		return err
	}
	_, err = s.api.AdminDeleteUser(ctx, adminID, targetUserID)
	return err
}

// requireAdmin returns the acting admin id, or ErrAdminRequired without
// touching the network.
func (s *Store) requireAdmin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authed || s.current.Role != RoleAdmin || s.current.UserID == "" {
		return "", ErrAdminRequired
	}
	return s.current.UserID, nil
}

// classifyRegisterError maps backend conflicts to tags. Codes are preferred;
// the message substrings cover older backends that only send localized text.
func classifyRegisterError(err error) FailReason {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return ReasonRegisterFailed
	}

	switch apiErr.Code {
	case client.CodeUserExists:
		return ReasonUserExists
	case client.CodeEmailExists:
		return ReasonEmailExists
	case client.CodeRequestPending:
		return ReasonUserPending
	}

	switch {
	case strings.Contains(apiErr.Message, "이미 존재하는 아이디"):
		return ReasonUserExists
	case strings.Contains(apiErr.Message, "이미 등록된 이메일"):
		return ReasonEmailExists
	case strings.Contains(apiErr.Message, "가입 요청이 진행 중"):
		return ReasonUserPending
	}
	return ReasonRegisterFailed
}
