package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/assemble-interior/assemble-go/internal/auth/domain"
	"github.com/assemble-interior/assemble-go/internal/auth/service"
)

// Service is the auth capability surface the handlers need. Satisfied by
// *service.AuthService; tests substitute a fake.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.PendingUser, error)
	Login(ctx context.Context, userID, password string) (*domain.User, error)
	ValidateAdmin(ctx context.Context, adminID string) (*domain.User, error)
	PendingUsers(ctx context.Context, statusFilter string) ([]domain.PendingUser, error)
	Approve(ctx context.Context, pendingID int64, adminID string) error
	Reject(ctx context.Context, pendingID int64, adminID, reason string) error
	DeletePending(ctx context.Context, pendingID int64) error
	Users(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, adminID, targetUserID string) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidCredentials, "아이디와 비밀번호는 필수입니다.")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, codeInvalidCredentials, "아이디와 비밀번호는 필수입니다.")
		return
	}

	_, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		UserID:   req.UserID,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "가입 신청이 접수되었습니다. 관리자 승인 후 이용 가능합니다.",
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, codeInvalidCredentials, "아이디와 비밀번호를 입력해주세요.")
		return
	}

	user, err := h.svc.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "로그인 성공",
		"user_id": user.UserID,
		"name":    user.Name,
		"role":    user.Role,
	})
}

func (h *Handler) listPending(c *gin.Context) {
	items, err := h.svc.PendingUsers(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) approvePending(c *gin.Context) {
	pendingID, ok := pendingIDParam(c)
	if !ok {
		return
	}

	adminID := ActingAdmin(c)
	err := h.svc.Approve(c.Request.Context(), pendingID, adminID)
	if errors.Is(err, domain.ErrUserExists) {
		// Same id already registered: the row was reconciled to approved.
		fail(c, http.StatusConflict, codeUserExists, "이미 동일한 아이디가 존재하여 자동 승인 처리되었습니다.")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "가입 요청을 승인했습니다."})
}

func (h *Handler) rejectPending(c *gin.Context) {
	pendingID, ok := pendingIDParam(c)
	if !ok {
		return
	}

	var req rejectReq
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.Reject(c.Request.Context(), pendingID, ActingAdmin(c), req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "가입 요청을 거절했습니다."})
}

func (h *Handler) deletePending(c *gin.Context) {
	pendingID, ok := pendingIDParam(c)
	if !ok {
		return
	}

	if err := h.svc.DeletePending(c.Request.Context(), pendingID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "가입 요청을 삭제했습니다."})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.Users(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) deleteUser(c *gin.Context) {
	targetID := c.Param("user_id")
	if err := h.svc.DeleteUser(c.Request.Context(), ActingAdmin(c), targetID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "사용자 계정을 삭제했습니다."})
}

func pendingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("pending_id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, codeNotFound, "가입 요청을 찾을 수 없습니다.")
		return 0, false
	}
	return id, true
}
