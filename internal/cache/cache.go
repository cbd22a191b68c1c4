// Package cache provides a TTL key/value cache with fail-open semantics.
// A backend failure is never allowed to alter the correctness of a sync
// cycle, only its latency: errors on get are treated as misses and
// errors on set are dropped, both at warning level.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonesrussell/cinefeed/internal/logger"
)

// Store is the raw backend contract the fail-open cache wraps.
// Get returns ok=false for a missing key without an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Interface is the cache contract consumed by the fetch orchestrator.
type Interface interface {
	// GetJSON looks up key and unmarshals the stored payload into dest.
	// It returns false on a miss, a backend failure, or a corrupt payload.
	GetJSON(ctx context.Context, key string, dest any) bool
	// SetJSON stores value under key with the given TTL. Failures are
	// logged and dropped.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration)
	// Close releases the backend connection.
	Close()
}

// Cache is the fail-open cache over a Store backend.
type Cache struct {
	store  Store
	logger logger.Interface
}

// New creates a fail-open cache over the given backend.
func New(store Store, log logger.Interface) *Cache {
	return &Cache{
		store:  store,
		logger: log.WithComponent("cache"),
	}
}

// GetJSON looks up key and unmarshals the stored payload into dest.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	if unmarshalErr := json.Unmarshal([]byte(raw), dest); unmarshalErr != nil {
		c.logger.Warn("cache payload corrupt, treating as miss", "key", key, "error", unmarshalErr)
		return false
	}

	return true
}

// SetJSON stores value under key with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed, dropping set", "key", key, "error", err)
		return
	}

	if setErr := c.store.Set(ctx, key, string(payload), ttl); setErr != nil {
		c.logger.Warn("cache set failed, dropping set", "key", key, "error", setErr)
	}
}

// Close releases the backend connection.
func (c *Cache) Close() {
	if err := c.store.Close(); err != nil {
		c.logger.Debug("cache close failed", "error", err)
	}
}
