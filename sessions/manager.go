package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-collab-server/kvstore"
	"github.com/pkg/errors"
)

const keyPrefix = "session:"

// Key returns the store key for a user's session
func Key(userID string) string {
	return keyPrefix + userID
}

// Manager keeps one session per user in the KV store. Writing a session for a user
// replaces any previous one and resets its TTL.
type Manager struct {
	store kvstore.Store
	ttl   time.Duration
}

func NewManager(store kvstore.Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) SetSession(ctx context.Context, userID string, data SessionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "[SessionManager.SetSession] marshal failed")
	}
	if err := m.store.Set(ctx, Key(userID), string(payload), m.ttl); err != nil {
		return errors.Wrap(err, "[SessionManager.SetSession] store failed")
	}
	return nil
}

// GetSession returns nil and no error when the user has no live session
func (m *Manager) GetSession(ctx context.Context, userID string) (*SessionData, error) {
	payload, err := m.store.Get(ctx, Key(userID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.GetSession] store failed")
	}

	var data SessionData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		// Corrupt entries are dropped so the next login starts clean
		_ = m.store.Del(ctx, Key(userID))
		return nil, errors.Wrap(err, "[SessionManager.GetSession] unmarshal failed")
	}
	return &data, nil
}

// DeleteSession is idempotent
func (m *Manager) DeleteSession(ctx context.Context, userID string) error {
	if err := m.store.Del(ctx, Key(userID)); err != nil {
		return errors.Wrap(err, "[SessionManager.DeleteSession] store failed")
	}
	return nil
}
