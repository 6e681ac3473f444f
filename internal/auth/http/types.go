package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assemble-interior/assemble-go/internal/auth/domain"
)

type registerReq struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginReq struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type rejectReq struct {
	Reason string `json:"reason"`
}

// Stable error codes attached to every failure response. The SPA and the Go
// SDK branch on these instead of the localized messages.
const (
	codeUserExists           = "user_exists"
	codeEmailExists          = "email_exists"
	codeRequestPending       = "request_pending"
	codeInvalidCredentials   = "invalid_credentials"
	codeApprovalPending      = "approval_pending"
	codeRegistrationRejected = "registration_rejected"
	codeAdminRequired        = "admin_required"
	codeNotFound             = "not_found"
	codeAlreadyProcessed     = "already_processed"
	codeSelfDelete           = "self_delete"
	codeAdminDelete          = "admin_delete"
	codeInternal             = "internal_error"
)

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// writeError maps domain failures onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var rejected *domain.RejectedError
	switch {
	case errors.Is(err, domain.ErrUserExists):
		fail(c, http.StatusBadRequest, codeUserExists, "이미 존재하는 아이디입니다.")
	case errors.Is(err, domain.ErrEmailExists):
		fail(c, http.StatusBadRequest, codeEmailExists, "이미 등록된 이메일입니다.")
	case errors.Is(err, domain.ErrRequestPending):
		fail(c, http.StatusBadRequest, codeRequestPending, "이미 가입 요청이 진행 중이거나 완료된 아이디입니다.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, codeInvalidCredentials, "로그인 실패. 아이디 또는 비밀번호를 확인하세요.")
	case errors.Is(err, domain.ErrApprovalPending):
		fail(c, http.StatusForbidden, codeApprovalPending, "가입 승인이 진행 중입니다. 관리자 승인 후 로그인 가능합니다.")
	case errors.As(err, &rejected):
		msg := rejected.Reason
		if msg == "" {
			msg = "관리자에 의해 가입 요청이 거절되었습니다."
		}
		fail(c, http.StatusForbidden, codeRegistrationRejected, msg)
	case errors.Is(err, domain.ErrAdminRequired):
		fail(c, http.StatusForbidden, codeAdminRequired, "관리자 권한이 없습니다.")
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, codeNotFound, "요청한 리소스를 찾을 수 없습니다.")
	case errors.Is(err, domain.ErrAlreadyProcessed):
		fail(c, http.StatusBadRequest, codeAlreadyProcessed, "이미 처리된 요청입니다.")
	case errors.Is(err, domain.ErrSelfDelete):
		fail(c, http.StatusBadRequest, codeSelfDelete, "자신의 계정은 삭제할 수 없습니다.")
	case errors.Is(err, domain.ErrAdminDelete):
		fail(c, http.StatusBadRequest, codeAdminDelete, "다른 관리자 계정은 삭제할 수 없습니다.")
	default:
		fail(c, http.StatusInternalServerError, codeInternal, "서버 오류가 발생했습니다.")
	}
}
