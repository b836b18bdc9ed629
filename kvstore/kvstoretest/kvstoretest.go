// Package kvstoretest provides a Redis-backed kvstore for tests, served by miniredis.
package kvstoretest

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-collab-server/kvstore"
)

// New starts an in-process miniredis and returns a RedisStore bound to it.
// Both are closed when the test finishes.
func New(t testing.TB) (*kvstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := kvstore.NewRedisStore(context.Background(), kvstore.RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}
