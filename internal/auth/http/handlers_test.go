package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/assemble-interior/assemble-go/internal/auth/domain"
	"github.com/assemble-interior/assemble-go/internal/auth/service"
)

type fakeService struct {
	registerIn  service.RegisterInput
	registerErr error
	loginUser   *domain.User
	loginErr    error
	pending     []domain.PendingUser
	users       []domain.User
	approveErr  error
	rejectErr   error
	deleteErr   error

	admins map[string]bool

	rejectReason  string
	deletedTarget string
}

func (f *fakeService) Register(_ context.Context, in service.RegisterInput) (*domain.PendingUser, error) {
	f.registerIn = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.PendingUser{ID: 1, UserID: in.UserID}, nil
}

func (f *fakeService) Login(_ context.Context, userID, _ string) (*domain.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginUser != nil {
		return f.loginUser, nil
	}
	return &domain.User{UserID: userID, Name: "이름", Role: domain.RoleDesigner}, nil
}

func (f *fakeService) ValidateAdmin(_ context.Context, adminID string) (*domain.User, error) {
	if f.admins[adminID] {
		return &domain.User{UserID: adminID, Role: domain.RoleAdmin}, nil
	}
	return nil, domain.ErrAdminRequired
}

func (f *fakeService) PendingUsers(_ context.Context, _ string) ([]domain.PendingUser, error) {
	return f.pending, nil
}

func (f *fakeService) Approve(_ context.Context, _ int64, _ string) error {
	return f.approveErr
}

func (f *fakeService) Reject(_ context.Context, _ int64, _, reason string) error {
	f.rejectReason = reason
	return f.rejectErr
}

func (f *fakeService) DeletePending(_ context.Context, _ int64) error {
	return f.deleteErr
}

func (f *fakeService) Users(_ context.Context) ([]domain.User, error) {
	return f.users, nil
}

func (f *fakeService) DeleteUser(_ context.Context, _, targetUserID string) error {
	f.deletedTarget = targetUserID
	return f.deleteErr
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	NewHandler(svc).Register(api)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	w := postJSON(r, "/api/register", `{"user_id": "newbie", "password": "pw", "email": "n@x.com"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "가입 신청이 접수되었습니다")
	assert.Equal(t, "newbie", svc.registerIn.UserID)
	assert.Equal(t, "n@x.com", svc.registerIn.Email)
}

func TestRegisterEndpoint_MissingFields(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := postJSON(r, "/api/register", `{"user_id": "", "password": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "아이디와 비밀번호는 필수입니다.")
}

func TestRegisterEndpoint_Conflicts(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{"user exists", domain.ErrUserExists, "user_exists", "이미 존재하는 아이디입니다."},
		{"email exists", domain.ErrEmailExists, "email_exists", "이미 등록된 이메일입니다."},
		{"request pending", domain.ErrRequestPending, "request_pending", "가입 요청이 진행 중"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeService{registerErr: tc.err})
			w := postJSON(r, "/api/register", `{"user_id": "u", "password": "pw"}`)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantCode)
			assert.Contains(t, w.Body.String(), tc.wantMsg)
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	svc := &fakeService{loginUser: &domain.User{UserID: "admin1", Name: "관리자", Role: domain.RoleAdmin}}
	r := newTestRouter(svc)

	w := postJSON(r, "/api/login", `{"user_id": "admin1", "password": "pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "로그인 성공", body["message"])
	assert.Equal(t, "admin1", body["user_id"])
	assert.Equal(t, "관리자", body["name"])
	assert.Equal(t, "ADMIN", body["role"])
}

func TestLoginEndpoint_States(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"approval pending", domain.ErrApprovalPending, http.StatusForbidden, "approval_pending"},
		{"rejected", &domain.RejectedError{Reason: "정보 불충분"}, http.StatusForbidden, "registration_rejected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeService{loginErr: tc.err})
			w := postJSON(r, "/api/login", `{"user_id": "u", "password": "pw"}`)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantCode)
		})
	}
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	r := newTestRouter(&fakeService{admins: map[string]bool{"admin1": true}})

	// No admin id.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/pending-users", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin_required")

	// Non-admin id.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/pending-users?admin_id=designer1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Query parameter works.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/pending-users?admin_id=admin1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Header works too.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("X-Admin-Id", "admin1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApproveEndpoint_ExistingUserConflict(t *testing.T) {
	svc := &fakeService{admins: map[string]bool{"admin1": true}, approveErr: domain.ErrUserExists}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/pending-users/5/approve?admin_id=admin1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "자동 승인 처리되었습니다")
}

func TestRejectEndpoint_PassesReason(t *testing.T) {
	svc := &fakeService{admins: map[string]bool{"admin1": true}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/pending-users/5/reject?admin_id=admin1",
		strings.NewReader(`{"reason": "정보 불충분"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "정보 불충분", svc.rejectReason)
}

func TestDeleteUserEndpoint_Rules(t *testing.T) {
	svc := &fakeService{admins: map[string]bool{"admin1": true}, deleteErr: domain.ErrSelfDelete}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/admin1?admin_id=admin1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "self_delete")
}

func TestDeleteUserEndpoint(t *testing.T) {
	svc := &fakeService{admins: map[string]bool{"admin1": true}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/designer1?admin_id=admin1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "designer1", svc.deletedTarget)
}

func TestPendingIDParam_Invalid(t *testing.T) {
	r := newTestRouter(&fakeService{admins: map[string]bool{"admin1": true}})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/pending-users/abc/approve?admin_id=admin1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	limiter := rate.NewLimiter(rate.Limit(0), 1) // one request, no refill
	r.POST("/limited", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/limited", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
}
