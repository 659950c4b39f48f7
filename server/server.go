// Package server exposes the authentication service over HTTP with JSON
// bodies. Routing, the response envelope, and the request guards (bearer
// auth, role checks, rate limiting) live here; all authentication semantics
// live in the auth package.
package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/teamforge/auth-service/auth"
	"github.com/teamforge/auth-service/internal/config"
	"github.com/teamforge/auth-service/ratelimit"
)

type Server struct {
	mux     *http.ServeMux
	routes  []string
	config  *config.Config
	auth    *auth.Service
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

func New(cfg *config.Config, authService *auth.Service, limiter *ratelimit.Limiter, log zerolog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		auth:    authService,
		limiter: limiter,
		log:     log,
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Routes returns the registered route patterns, for startup logging.
func (s *Server) Routes() []string {
	return s.routes
}
