package client

import (
	"errors"
	"fmt"
)

// Stable error codes the backend attaches to failure responses. Older
// deployments only send the localized message, so callers that need to branch
// should also match on Message substrings (pkg/session does this).
const (
	CodeUserExists           = "user_exists"
	CodeEmailExists          = "email_exists"
	CodeRequestPending       = "request_pending"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeApprovalPending      = "approval_pending"
	CodeRegistrationRejected = "registration_rejected"
	CodeAdminRequired        = "admin_required"
	CodeNotFound             = "not_found"
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps err into an APIError if the failure came from a backend
// response rather than from transport.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err is a backend response carrying the given code.
func HasCode(err error, code string) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == code
}
