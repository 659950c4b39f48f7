package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/teamforge/auth-service/auth"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Error codes exposed on the wire. Clients switch on these, never on the
// human-readable message.
const (
	CodeValidationError         = "VALIDATION_ERROR"
	CodeEmailExists             = "EMAIL_EXISTS"
	CodeAuthenticationFailed    = "AUTHENTICATION_FAILED"
	CodeInvalidRefreshToken     = "INVALID_REFRESH_TOKEN"
	CodeMissingToken            = "MISSING_TOKEN"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeInternalError           = "INTERNAL_ERROR"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error"`
}

type apiError struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	Details      map[string]string `json:"details,omitempty"`
	UserRole     string            `json:"userRole,omitempty"`
	RequiredRole string            `json:"requiredRole,omitempty"`
	RetryAfter   int               `json:"retryAfter,omitempty"`
}

func (s *Server) respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data}); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, apiErr *apiError) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: apiErr}); err != nil {
		s.log.Error().Err(err).Msg("failed to encode error response")
	}
}

// respondAuthError maps the auth error taxonomy to transport status codes.
// Unexpected failures surface as a generic 500 with the detail logged only.
func (s *Server) respondAuthError(w http.ResponseWriter, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondError(w, http.StatusBadRequest, &apiError{
			Code:    CodeValidationError,
			Message: "request validation failed",
			Details: verr.Fields,
		})
	case errors.Is(err, auth.ErrEmailExists):
		s.respondError(w, http.StatusConflict, &apiError{
			Code:    CodeEmailExists,
			Message: "an account with this email already exists",
		})
	case errors.Is(err, auth.ErrAuthenticationFailed):
		s.respondError(w, http.StatusUnauthorized, &apiError{
			Code:    CodeAuthenticationFailed,
			Message: "invalid email or password",
		})
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		s.respondError(w, http.StatusUnauthorized, &apiError{
			Code:    CodeInvalidRefreshToken,
			Message: "refresh token is invalid or expired",
		})
	case errors.Is(err, auth.ErrInvalidToken):
		s.respondError(w, http.StatusUnauthorized, &apiError{
			Code:    CodeInvalidToken,
			Message: "access token is invalid or expired",
		})
	default:
		s.log.Error().Err(err).Msg("internal error")
		s.respondError(w, http.StatusInternalServerError, &apiError{
			Code:    CodeInternalError,
			Message: "internal server error",
		})
	}
}
