package guard

import (
	"context"
	"time"

	"github.com/jrsteele09/go-collab-server/sessions"
	"github.com/jrsteele09/go-collab-server/token"
	"github.com/jrsteele09/go-collab-server/users"
)

// Identity is the authenticated caller attached to a request
type Identity struct {
	UserID    string     `json:"userId"`
	Username  string     `json:"username,omitempty"`
	Role      users.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`

	Claims  *token.Claims         `json:"-"` // Set by the bearer guard
	Session *sessions.SessionData `json:"-"` // Set by the session guard
}

func identityFromClaims(c *token.Claims) *Identity {
	return &Identity{
		UserID:    c.Subject,
		Username:  c.Username,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt,
		Claims:    c,
	}
}

func identityFromSession(s *sessions.SessionData) *Identity {
	return &Identity{
		UserID:    s.UserID,
		Username:  s.Username,
		Role:      s.Role,
		ExpiresAt: s.ExpiresAt,
		Session:   s,
	}
}

type identityKey struct{}

// WithIdentity returns a new context carrying id
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the request's identity, or nil if no guard attached one
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
