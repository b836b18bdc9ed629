package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Registration
	RouteInfluencerRegister = "/auth/influencer/register"
	RouteBrandRegister      = "/auth/brand/register"

	// Auth Routes - Login & Logout
	RouteInfluencerLogin = "/auth/influencer/login"
	RouteBrandLogin      = "/auth/brand/login"
	RouteAdminLogin      = "/auth/admin/login"
	RouteSuperUserLogin  = "/auth/superuser/login"
	RouteRefresh         = "/auth/refresh"
	RouteLogout          = "/auth/logout"

	// Auth Routes - Password Management
	RouteChangePassword = "/auth/change-password"
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"

	// Auth Routes - Current Caller
	RouteProfile = "/auth/profile"
	RouteSession = "/auth/session"

	// Admin Routes
	RouteAdminPromote = "/admin/promote"
	RouteAdminUsers   = "/admin/users"
	RouteAdminAdmins  = "/admin/admins"

	// Operational Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
