package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-collab-server/admin"
	"github.com/jrsteele09/go-collab-server/auth"
	"github.com/jrsteele09/go-collab-server/guard"
	"github.com/jrsteele09/go-collab-server/internal/config"
	"github.com/jrsteele09/go-collab-server/metrics"
	"github.com/jrsteele09/go-collab-server/sessions"
	"github.com/jrsteele09/go-collab-server/token"
	"github.com/rs/zerolog/log"
)

// HealthCheck reports whether a backing service is reachable
type HealthCheck func(ctx context.Context) error

// Deps are the services the HTTP surface is built on. They are constructed once at
// startup and shared by every request.
type Deps struct {
	Auth          *auth.AuthService
	PasswordReset *auth.PasswordResetService
	Admin         *admin.AdminService
	Tokens        *token.Issuer
	Sessions      *sessions.Manager
	Revoked       token.RevokedTokenCache
	Metrics       *metrics.Metrics       // Optional
	HealthChecks  map[string]HealthCheck // Optional, keyed by component name
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	deps       Deps
	bearer     guard.Authenticator
	session    guard.Authenticator
	sessionTTL time.Duration
}

type ServerOption func(*Server)

// WithAuthenticators replaces the bearer and session guards. Test wiring uses it to
// install guard.Disabled; production wiring never calls it.
func WithAuthenticators(bearer, session guard.Authenticator) ServerOption {
	return func(s *Server) {
		s.bearer = bearer
		s.session = session
	}
}

func New(config config.Config, deps Deps, options ...ServerOption) (*Server, error) {
	if deps.Auth == nil || deps.PasswordReset == nil || deps.Admin == nil {
		return nil, fmt.Errorf("[Server New] auth, password reset and admin services are required")
	}
	if deps.Tokens == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("[Server New] token issuer and session manager are required")
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		deps:       deps,
		bearer:     guard.NewBearer(deps.Tokens, deps.Revoked),
		session:    guard.NewSessionCookie(deps.Tokens, deps.Sessions),
		sessionTTL: deps.Sessions.TTL(),
	}
	for _, opt := range options {
		opt(s)
	}

	// Bootstrap: ensure the superuser exists
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
