package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/teamforge/auth-service/auth"
	"github.com/teamforge/auth-service/users"
)

// RegisterHandler creates an account and returns the public user view plus a
// fresh token pair.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.RegisterInput
		if !s.decodeBody(w, r, &input) {
			return
		}

		result, err := s.auth.Register(input)
		if err != nil {
			s.respondAuthError(w, err)
			return
		}

		s.respondData(w, http.StatusCreated, result)
	}
}

// LoginHandler verifies credentials and opens a new session.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.LoginInput
		if !s.decodeBody(w, r, &input) {
			return
		}

		result, err := s.auth.Login(input)
		if err != nil {
			s.respondAuthError(w, err)
			return
		}

		s.respondData(w, http.StatusOK, result)
	}
}

// RefreshHandler rotates a refresh token into a new token pair for the same
// session.
func (s *Server) RefreshHandler() http.HandlerFunc {
	type refreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}
	type refreshResponse struct {
		Tokens *auth.TokenPair `json:"tokens"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var input refreshRequest
		if !s.decodeBody(w, r, &input) {
			return
		}
		if input.RefreshToken == "" {
			s.respondAuthError(w, errors.Wrap(auth.ErrInvalidRefreshToken, "missing refresh token"))
			return
		}

		tokens, err := s.auth.Refresh(input.RefreshToken)
		if err != nil {
			s.respondAuthError(w, err)
			return
		}

		s.respondData(w, http.StatusOK, refreshResponse{Tokens: tokens})
	}
}

// LogoutHandler acknowledges a logout. Tokens stay valid until expiry; the
// acknowledgment exists so clients have a uniform call to clear state on.
func (s *Server) LogoutHandler() http.HandlerFunc {
	type logoutResponse struct {
		Message string `json:"message"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if claims != nil {
			if err := s.auth.Logout(claims.SessionID); err != nil {
				s.respondAuthError(w, err)
				return
			}
		}
		s.respondData(w, http.StatusOK, logoutResponse{Message: "logged out"})
	}
}

// MeHandler returns the profile of the authenticated user.
func (s *Server) MeHandler() http.HandlerFunc {
	type meResponse struct {
		User *users.User `json:"user"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			s.respondError(w, http.StatusUnauthorized, &apiError{
				Code:    CodeMissingToken,
				Message: "authorization bearer token is required",
			})
			return
		}

		user, err := s.auth.Profile(claims.UserID)
		if err != nil {
			s.respondAuthError(w, err)
			return
		}

		s.respondData(w, http.StatusOK, meResponse{User: user})
	}
}

// decodeBody parses a JSON request body, answering 400 VALIDATION_ERROR on
// malformed input. It reports whether decoding succeeded.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, &apiError{
			Code:    CodeValidationError,
			Message: "request body is not valid JSON",
		})
		return false
	}
	return true
}
