// Package kvstore is the expiring key-value store shared by sessions, rate limits,
// password reset tokens and the access-token revocation list.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired
var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set writes value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX writes value only if the key does not exist and reports whether it was written
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
