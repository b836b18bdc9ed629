package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-collab-server/users"
)

// Type distinguishes what a token may be used for. A refresh token is never
// accepted where an access token is expected, and vice versa.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	TypeSession Type = "session"
)

const (
	claimSubject   = "sub"
	claimRole      = "role"
	claimUsername  = "username"
	claimType      = "typ"
	claimID        = "jti"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
)

// Claims is the decoded payload of a verified token
type Claims struct {
	Subject   string     `json:"sub"`
	Role      users.Role `json:"role,omitempty"`
	Username  string     `json:"username,omitempty"`
	Type      Type       `json:"typ"`
	ID        string     `json:"jti"`
	IssuedAt  time.Time  `json:"iat"`
	ExpiresAt time.Time  `json:"exp"`
}

func (c Claims) toMap() jwt.MapClaims {
	m := jwt.MapClaims{
		claimSubject:   c.Subject,
		claimType:      string(c.Type),
		claimID:        c.ID,
		claimIssuedAt:  c.IssuedAt.Unix(),
		claimExpiresAt: c.ExpiresAt.Unix(),
	}
	if c.Role != "" {
		m[claimRole] = string(c.Role)
	}
	if c.Username != "" {
		m[claimUsername] = c.Username
	}
	return m
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	sub, err := m.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	exp, err := m.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	c := &Claims{
		Subject:   sub,
		ExpiresAt: exp.Time,
	}
	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	c.Role = users.Role(stringClaim(m, claimRole))
	c.Username = stringClaim(m, claimUsername)
	c.Type = Type(stringClaim(m, claimType))
	c.ID = stringClaim(m, claimID)
	return c, nil
}

func stringClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
