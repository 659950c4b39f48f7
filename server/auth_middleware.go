package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/teamforge/auth-service/ratelimit"
	"github.com/teamforge/auth-service/token"
	"github.com/teamforge/auth-service/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access-token claims for the request.
const ContextKeyClaims ContextKey = "claims"

// ClaimsFromContext returns the access-token claims injected by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims, ok
}

// RequireAuth validates the Bearer access token and injects its claims into
// the request context. A missing or non-Bearer Authorization header is
// reported as MISSING_TOKEN; an unusable token as INVALID_TOKEN. Expired and
// tampered tokens are not distinguished.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				s.respondError(w, http.StatusUnauthorized, &apiError{
					Code:    CodeMissingToken,
					Message: "authorization bearer token is required",
				})
				return
			}

			raw := strings.TrimSpace(authHeader[len("Bearer "):])
			claims, err := s.auth.VerifyAccess(raw)
			if err != nil {
				s.respondError(w, http.StatusUnauthorized, &apiError{
					Code:    CodeInvalidToken,
					Message: "access token is invalid or expired",
				})
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole guards a route behind a minimum role. It must be chained after
// RequireAuth. The 403 body names both the caller's role and the required
// one for debuggability.
func (s *Server) RequireRole(required users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				s.respondError(w, http.StatusUnauthorized, &apiError{
					Code:    CodeMissingToken,
					Message: "authorization bearer token is required",
				})
				return
			}

			if !users.Role(claims.Role).Meets(required) {
				s.respondError(w, http.StatusForbidden, &apiError{
					Code:         CodeInsufficientPermissions,
					Message:      fmt.Sprintf("role %q does not satisfy required role %q", claims.Role, required),
					UserRole:     claims.Role,
					RequiredRole: string(required),
				})
				return
			}

			next(w, r)
		}
	}
}

// RateLimitMiddleware counts an attempt for the client before the handler
// runs and rejects with 429 once the client exhausts its window.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retryAfter, err := s.limiter.Check(clientIP(r))
		if err != nil {
			if !errors.Is(err, ratelimit.ErrRateLimited) {
				s.log.Error().Err(err).Msg("rate limiter failure")
				s.respondError(w, http.StatusInternalServerError, &apiError{
					Code:    CodeInternalError,
					Message: "internal server error",
				})
				return
			}
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			s.respondError(w, http.StatusTooManyRequests, &apiError{
				Code:       CodeRateLimitExceeded,
				Message:    "too many attempts, try again later",
				RetryAfter: seconds,
			})
			return
		}
		next(w, r)
	}
}

// clientIP resolves the rate-limit key for a request. The first
// X-Forwarded-For hop wins when the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
