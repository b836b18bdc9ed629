package sessions

import (
	"time"

	"github.com/jrsteele09/go-collab-server/users"
)

// SessionData is the server-side record of a logged-in account, stored under session:<userId>
type SessionData struct {
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	Role      users.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// NewSessionData builds the session payload for an account
func NewSessionData(account *users.Account, now time.Time, ttl time.Duration) SessionData {
	return SessionData{
		UserID:    account.ID,
		Username:  account.Username,
		Role:      account.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
