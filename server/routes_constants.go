package server

// Route paths for the authentication API.
const (
	RouteRegister = "/api/auth/register"
	RouteLogin    = "/api/auth/login"
	RouteRefresh  = "/api/auth/refresh"
	RouteLogout   = "/api/auth/logout"
	RouteMe       = "/api/auth/me"
)
