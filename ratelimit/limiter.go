// Package ratelimit implements fixed-window request throttling on the KV store.
// A key that exists means the caller is inside an active window.
package ratelimit

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/kvstore"
	"github.com/pkg/errors"
)

const (
	keyPrefix      = "ratelimit:"
	markerValue    = "1"
	DefaultMessage = "Too many requests"
)

// Recorder observes rate limit rejections (implemented by the metrics package)
type Recorder interface {
	RateLimited(scope string)
}

type Limiter struct {
	store    kvstore.Store
	recorder Recorder
}

type LimiterOption func(*Limiter)

// WithRecorder reports every rejection to r
func WithRecorder(r Recorder) LimiterOption {
	return func(l *Limiter) {
		l.recorder = r
	}
}

func New(store kvstore.Store, options ...LimiterOption) *Limiter {
	l := &Limiter{store: store}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Key builds a limiter key from a scope and its parts, e.g. Key("login", "brand", "bob")
func Key(scope string, parts ...string) string {
	return keyPrefix + strings.Join(append([]string{scope}, parts...), ":")
}

// IsRateLimited reports whether key is inside an active window
func (l *Limiter) IsRateLimited(ctx context.Context, key string) (bool, error) {
	exists, err := l.store.Exists(ctx, key)
	if err != nil {
		return false, errors.Wrap(err, "[Limiter.IsRateLimited] store failed")
	}
	return exists, nil
}

// RateLimitOrThrow opens a window of the given length for key, or fails with
// TooManyRequests if one is already open. Check and set happen in one atomic SET NX.
func (l *Limiter) RateLimitOrThrow(ctx context.Context, key string, window time.Duration, message ...string) error {
	opened, err := l.store.SetNX(ctx, key, markerValue, window)
	if err != nil {
		return errors.Wrap(err, "[Limiter.RateLimitOrThrow] store failed")
	}
	if opened {
		return nil
	}

	if l.recorder != nil {
		l.recorder.RateLimited(scopeOf(key))
	}
	msg := DefaultMessage
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return apperrors.TooManyRequests(msg)
}

func scopeOf(key string) string {
	scope, _, _ := strings.Cut(strings.TrimPrefix(key, keyPrefix), ":")
	return scope
}
