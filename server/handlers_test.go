package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/teamforge/auth-service/auth"
	"github.com/teamforge/auth-service/internal/config"
	"github.com/teamforge/auth-service/ratelimit"
	"github.com/teamforge/auth-service/server"
	"github.com/teamforge/auth-service/token"
	"github.com/teamforge/auth-service/users"
	"github.com/teamforge/auth-service/users/repofake"
)

type errorBody struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	Details      map[string]string `json:"details"`
	UserRole     string            `json:"userRole"`
	RequiredRole string            `json:"requiredRole"`
	RetryAfter   int               `json:"retryAfter"`
}

type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

type authData struct {
	User   *users.User     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                 "8080",
		AppName:              "Auth Service",
		Env:                  "TEST",
		AccessTokenSecret:    "access-secret-1",
		RefreshTokenSecret:   "refresh-secret-1",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      7 * 24 * time.Hour,
		RememberMeTTL:        30 * 24 * time.Hour,
		BcryptCost:           4,
		RateLimitWindow:      15 * time.Minute,
		RateLimitMaxAttempts: 100,
		AllowedOrigins:       "*",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *server.Server {
	t.Helper()

	codec := token.NewCodec(
		token.NewHMACSigner(cfg.AccessTokenSecret),
		token.NewHMACSigner(cfg.RefreshTokenSecret),
	)
	authService, err := auth.NewService(
		repofake.NewFakeUserRepo(),
		codec,
		users.NewPasswordHasher(cfg.BcryptCost),
		auth.TTLConfig{
			Access:     cfg.AccessTokenTTL,
			Refresh:    cfg.RefreshTokenTTL,
			RememberMe: cfg.RememberMeTTL,
		},
	)
	require.NoError(t, err)

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimitWindow, cfg.RateLimitMaxAttempts)
	return server.New(cfg, authService, limiter, zerolog.Nop())
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, responseEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func registerBody() map[string]any {
	return map[string]any{
		"name":     "John Doe",
		"email":    "john.doe@example.com",
		"password": "Password123",
		"role":     "developer",
		"timezone": "Europe/London",
	}
}

func registerUser(t *testing.T, srv *server.Server) authData {
	t.Helper()
	rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var data authData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("creates an account", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, registerBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.True(t, envelope.Success)

		var data authData
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		require.Equal(t, "john.doe@example.com", data.User.Email)
		require.NotEmpty(t, data.Tokens.AccessToken)
		require.NotEmpty(t, data.Tokens.RefreshToken)
	})

	t.Run("duplicate email conflicts, case variant included", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		registerUser(t, srv)

		body := registerBody()
		body["email"] = "John.Doe@Example.COM"
		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, body, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.False(t, envelope.Success)
		require.Equal(t, server.CodeEmailExists, envelope.Error.Code)
	})

	t.Run("malformed input reports per-field messages", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, map[string]any{
			"email": "nope", "password": "short",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, server.CodeValidationError, envelope.Error.Code)
		require.Contains(t, envelope.Error.Details, "email")
		require.Contains(t, envelope.Error.Details, "password")
		require.Contains(t, envelope.Error.Details, "name")
	})

	t.Run("non-JSON body is a validation error", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		req := httptest.NewRequest(http.MethodPost, server.RouteRegister, bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("succeeds with valid credentials", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		registerUser(t, srv)

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteLogin, map[string]any{
			"email": "john.doe@example.com", "password": "Password123",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, envelope.Success)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		registerUser(t, srv)

		recWrong, envWrong := doJSON(t, srv, http.MethodPost, server.RouteLogin, map[string]any{
			"email": "john.doe@example.com", "password": "Wrong-Pass1",
		}, nil)
		recUnknown, envUnknown := doJSON(t, srv, http.MethodPost, server.RouteLogin, map[string]any{
			"email": "nobody@example.com", "password": "Password123",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, recWrong.Code)
		require.Equal(t, http.StatusUnauthorized, recUnknown.Code)
		require.Equal(t, server.CodeAuthenticationFailed, envWrong.Error.Code)
		require.Equal(t, envWrong.Error, envUnknown.Error)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("rotates the pair for the same session", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		registered := registerUser(t, srv)

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRefresh, map[string]any{
			"refreshToken": registered.Tokens.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Tokens *auth.TokenPair `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		require.NotEmpty(t, data.Tokens.AccessToken)
		require.NotEqual(t, registered.Tokens.RefreshToken, data.Tokens.RefreshToken)
	})

	t.Run("rejects a bad token", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRefresh, map[string]any{
			"refreshToken": "not.a.token",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, server.CodeInvalidRefreshToken, envelope.Error.Code)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRefresh, map[string]any{}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, server.CodeInvalidRefreshToken, envelope.Error.Code)
	})
}

func TestAuthenticatedRoutes(t *testing.T) {
	t.Run("me returns the current profile", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		registered := registerUser(t, srv)

		rec, envelope := doJSON(t, srv, http.MethodGet, server.RouteMe, nil, map[string]string{
			"Authorization": "Bearer " + registered.Tokens.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			User *users.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		require.Equal(t, registered.User.ID, data.User.ID)
	})

	t.Run("missing token", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		rec, envelope := doJSON(t, srv, http.MethodGet, server.RouteMe, nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, server.CodeMissingToken, envelope.Error.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		srv := newTestServer(t, testConfig())

		rec, envelope := doJSON(t, srv, http.MethodGet, server.RouteMe, nil, map[string]string{
			"Authorization": "Bearer garbage",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, server.CodeInvalidToken, envelope.Error.Code)
	})

	t.Run("logout acknowledges", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		registered := registerUser(t, srv)

		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteLogout, nil, map[string]string{
			"Authorization": "Bearer " + registered.Tokens.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, envelope.Success)

		// No revocation: the token still works after logout.
		rec, _ = doJSON(t, srv, http.MethodGet, server.RouteMe, nil, map[string]string{
			"Authorization": "Bearer " + registered.Tokens.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := registerBody()
	body["role"] = "stakeholder"
	rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered authData
	require.NoError(t, json.Unmarshal(envelope.Data, &registered))

	protected := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, srv.RequireAuth(), srv.RequireRole(users.RoleDeveloper))
	srv.RegisterRouteHandler("GET /api/admin/reports", protected)

	t.Run("insufficient role is forbidden with both roles named", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/reports", nil)
		req.Header.Set("Authorization", "Bearer "+registered.Tokens.AccessToken)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		var envelope responseEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, server.CodeInsufficientPermissions, envelope.Error.Code)
		require.Equal(t, "stakeholder", envelope.Error.UserRole)
		require.Equal(t, "developer", envelope.Error.RequiredRole)
	})

	t.Run("sufficient role passes", func(t *testing.T) {
		dev := registerUserWithEmail(t, srv, "dev@example.com", "developer")

		req := httptest.NewRequest(http.MethodGet, "/api/admin/reports", nil)
		req.Header.Set("Authorization", "Bearer "+dev.Tokens.AccessToken)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func registerUserWithEmail(t *testing.T, srv *server.Server, email, role string) authData {
	t.Helper()
	body := registerBody()
	body["email"] = email
	body["role"] = role
	rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var data authData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

func TestRateLimiting(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMaxAttempts = 2
	srv := newTestServer(t, cfg)

	login := map[string]any{"email": "john.doe@example.com", "password": "Wrong-Pass1"}

	for i := 0; i < 2; i++ {
		rec, _ := doJSON(t, srv, http.MethodPost, server.RouteLogin, login, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteLogin, login, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, server.CodeRateLimitExceeded, envelope.Error.Code)
	require.Greater(t, envelope.Error.RetryAfter, 0)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	t.Run("register shares the per-client budget", func(t *testing.T) {
		rec, envelope := doJSON(t, srv, http.MethodPost, server.RouteRegister, registerBody(), nil)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, server.CodeRateLimitExceeded, envelope.Error.Code)
	})
}
