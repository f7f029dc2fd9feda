package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by a Backend when the key is absent.
var ErrMiss = errors.New("cache miss")

// Backend stores opaque values with an expiry.
type Backend interface {
	// Get returns the stored value or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// DisabledBackend is used when no cache is configured. Every read misses and
// every write is discarded.
type DisabledBackend struct{}

// Get implements Backend.
func (DisabledBackend) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set implements Backend.
func (DisabledBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Backend.
func (DisabledBackend) Delete(context.Context, ...string) error { return nil }

var _ Backend = DisabledBackend{}
