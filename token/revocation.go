package token

import (
	"context"
	"time"

	"github.com/jrsteele09/go-collab-server/kvstore"
	"github.com/pkg/errors"
)

const revokedPrefix = "revoked:"

// RevokedTokenCache tracks access tokens invalidated before their natural expiry
type RevokedTokenCache interface {
	Add(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// KVRevokedTokenCache stores revoked token IDs in the KV store. Each entry expires
// with the token it revokes, so the list never needs an explicit cleanup.
type KVRevokedTokenCache struct {
	store   kvstore.Store
	nowFunc func() time.Time
}

var _ RevokedTokenCache = (*KVRevokedTokenCache)(nil)

func NewKVRevokedTokenCache(store kvstore.Store) *KVRevokedTokenCache {
	return &KVRevokedTokenCache{store: store, nowFunc: time.Now}
}

func (c *KVRevokedTokenCache) Add(ctx context.Context, jti string, exp time.Time) error {
	ttl := exp.Sub(c.nowFunc())
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := c.store.Set(ctx, revokedPrefix+jti, "1", ttl); err != nil {
		return errors.Wrap(err, "[KVRevokedTokenCache.Add]")
	}
	return nil
}

func (c *KVRevokedTokenCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	revoked, err := c.store.Exists(ctx, revokedPrefix+jti)
	if err != nil {
		return false, errors.Wrap(err, "[KVRevokedTokenCache.IsRevoked]")
	}
	return revoked, nil
}
