package cache_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cinefeed/internal/cache"
	"github.com/jonesrussell/cinefeed/internal/logger"
)

// memStore is an in-memory Store for tests. TTLs are recorded but not
// enforced.
type memStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	closed bool
}

func newMemStore() *memStore {
	return &memStore{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memStore) Close() error {
	s.closed = true
	return nil
}

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (failingStore) Set(_ context.Context, _, _ string, _ time.Duration) error {
	return errors.New("backend down")
}

func (failingStore) Close() error {
	return errors.New("backend down")
}

type payload struct {
	Description string `json:"description"`
}

func TestCacheRoundTrip(t *testing.T) {
	store := newMemStore()
	c := cache.New(store, logger.NewNoOp())
	ctx := context.Background()

	c.SetJSON(ctx, "k", payload{Description: "plot"}, time.Hour)

	var got payload
	require.True(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, "plot", got.Description)
	assert.Equal(t, time.Hour, store.ttls["k"])
}

func TestCacheMiss(t *testing.T) {
	c := cache.New(newMemStore(), logger.NewNoOp())

	var got payload
	assert.False(t, c.GetJSON(context.Background(), "absent", &got))
}

func TestCacheFailOpen(t *testing.T) {
	c := cache.New(failingStore{}, logger.NewNoOp())
	ctx := context.Background()

	// A failing backend must behave exactly like a disabled cache:
	// sets are dropped, gets are misses, close does not panic.
	c.SetJSON(ctx, "k", payload{Description: "plot"}, time.Hour)

	var got payload
	assert.False(t, c.GetJSON(ctx, "k", &got))
	c.Close()
}

func TestCacheCorruptPayloadIsMiss(t *testing.T) {
	store := newMemStore()
	store.values["k"] = "{not json"
	c := cache.New(store, logger.NewNoOp())

	var got payload
	assert.False(t, c.GetJSON(context.Background(), "k", &got))
}

func TestNoOpCache(t *testing.T) {
	c := cache.NewNoOp()
	ctx := context.Background()

	c.SetJSON(ctx, "k", payload{Description: "plot"}, time.Hour)

	var got payload
	assert.False(t, c.GetJSON(ctx, "k", &got))
	c.Close()
}

func TestKeyDerivation(t *testing.T) {
	descKey := cache.DescriptionKey("https://example.com/film/dune")
	schedKey := cache.ScheduleKey("https://example.com/film/dune", "podgorica", "2026-01-02")

	// Stable across calls.
	assert.Equal(t, descKey, cache.DescriptionKey("https://example.com/film/dune"))
	assert.Equal(t, schedKey, cache.ScheduleKey("https://example.com/film/dune", "podgorica", "2026-01-02"))

	// Namespaces keep the two kinds apart even for the same URL.
	assert.NotEqual(t, descKey, schedKey)
	assert.True(t, strings.HasPrefix(descKey, "cineplexx:film:"))
	assert.True(t, strings.HasPrefix(schedKey, "cineplexx:sessions:"))

	// Fixed-length digests regardless of input length.
	long := cache.DescriptionKey(strings.Repeat("x", 4096))
	assert.Len(t, long, len(descKey))

	// Distinct dates produce distinct schedule keys.
	other := cache.ScheduleKey("https://example.com/film/dune", "podgorica", "2026-01-03")
	assert.NotEqual(t, schedKey, other)
}
