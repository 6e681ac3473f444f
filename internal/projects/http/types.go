package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assemble-interior/assemble-go/internal/projects/domain"
)

type updateStatusReq struct {
	Status string `json:"status"`
}

type refineReq struct {
	RefinementPrompt string `json:"refinement_prompt"`
}

const (
	codeNotFound       = "not_found"
	codeInvalidRequest = "invalid_request"
	codeInternal       = "internal_error"
)

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// writeError maps domain failures onto HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, codeNotFound, "프로젝트를 찾을 수 없습니다.")
	case errors.Is(err, domain.ErrImageNotFound):
		fail(c, http.StatusNotFound, codeNotFound, "AI 이미지를 찾을 수 없습니다.")
	case errors.Is(err, domain.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, codeInvalidRequest, "status 값이 필요합니다.")
	case errors.Is(err, domain.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, codeInvalidRequest, "refinement_prompt 값이 필요합니다.")
	default:
		fail(c, http.StatusInternalServerError, codeInternal, "서버 오류가 발생했습니다.")
	}
}
