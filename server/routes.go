package server

import "net/http"

type middleware = func(http.HandlerFunc) http.HandlerFunc

func (s *Server) initRoutes() {
	// Credential endpoints additionally carry the brute-force guard;
	// logout and profile carry the bearer guard.
	s.RegisterRouteHandler("POST "+RouteRegister,
		ChainMiddleware(s.RegisterHandler(), s.withAPI(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogin,
		ChainMiddleware(s.LoginHandler(), s.withAPI(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteRefresh,
		ChainMiddleware(s.RefreshHandler(), s.withAPI()...))
	s.RegisterRouteHandler("POST "+RouteLogout,
		ChainMiddleware(s.LogoutHandler(), s.withAPI(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteMe,
		ChainMiddleware(s.MeHandler(), s.withAPI(s.RequireAuth())...))
}

// withAPI appends route-specific guards to the base API chain.
func (s *Server) withAPI(mw ...middleware) []middleware {
	chained := s.APIMiddleware()
	return append(chained, mw...)
}
