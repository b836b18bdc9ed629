package server

import (
	"net/http"

	"github.com/jrsteele09/go-collab-server/guard"
	"github.com/jrsteele09/go-collab-server/users"
)

func (s *Server) initRoutes() {
	// REGISTRATION
	s.RegisterRouteFunc("POST "+RouteInfluencerRegister, ChainMiddleware(s.RegisterInfluencerHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteBrandRegister, ChainMiddleware(s.RegisterBrandHandler(), s.APIMiddleware()...))

	// LOGIN
	s.RegisterRouteFunc("POST "+RouteInfluencerLogin, ChainMiddleware(s.LoginHandler(users.RoleInfluencer), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteBrandLogin, ChainMiddleware(s.LoginHandler(users.RoleBrand), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAdminLogin, ChainMiddleware(s.LoginHandler(users.RoleAdmin), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSuperUserLogin, ChainMiddleware(s.LoginHandler(users.RoleSuperUser), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireBearer())...))

	// PASSWORDS
	s.RegisterRouteFunc("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireBearer())...))

	// CURRENT CALLER
	s.RegisterRouteFunc("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.RequireBearer())...))
	s.RegisterRouteFunc("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.RequireSession())...))

	// ADMIN
	s.RegisterRouteFunc("POST "+RouteAdminPromote, ChainMiddleware(s.PromoteHandler(), s.APIMiddleware(s.RequireBearer(users.RoleAdmin, users.RoleSuperUser))...))
	s.RegisterRouteFunc("GET "+RouteAdminUsers, ChainMiddleware(s.ListUsersHandler(), s.APIMiddleware(s.RequireBearer(users.RoleAdmin, users.RoleSuperUser))...))
	s.RegisterRouteFunc("POST "+RouteAdminAdmins, ChainMiddleware(s.CreateAdminHandler(), s.APIMiddleware(s.RequireBearer(users.RoleSuperUser))...))

	// OPERATIONS
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	if s.deps.Metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.deps.Metrics.Handler())
	}

	// Anything unmatched: CORS preflight is answered by CorsMiddleware, the rest is a JSON 404
	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

// RequireBearer guards a route with the bearer token and, when roles are given, a role check
func (s *Server) RequireBearer(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	var steps []guard.Step
	if len(roles) > 0 {
		steps = append(steps, guard.RequireRoles(roles...))
	}
	return guard.Middleware(writeError, s.bearer, steps...)
}

// RequireSession guards a route with the session cookie
func (s *Server) RequireSession(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	var steps []guard.Step
	if len(roles) > 0 {
		steps = append(steps, guard.RequireRoles(roles...))
	}
	return guard.Middleware(writeError, s.session, steps...)
}
