package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cinefeed/internal/cache"
	"github.com/jonesrussell/cinefeed/internal/catalog"
	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
)

// --- Fakes ---

// fakeRenderer implements renderer.PageRenderer with per-call hooks.
type fakeRenderer struct {
	listings     map[string][]domain.CatalogEntry // date -> entries
	listingErr   error
	descriptions map[string]string // url -> description
	descErr      error
	schedules    map[string][]domain.Session // url|date -> sessions
	scheduleErr  error

	mu                sync.Mutex
	descCalls         int
	schedCalls        int
	activeDesc        atomic.Int64
	maxActiveDesc     atomic.Int64
	activeSchedule    atomic.Int64
	maxActiveSchedule atomic.Int64
}

func (f *fakeRenderer) RenderListing(_ context.Context, _, date string) ([]domain.CatalogEntry, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return f.listings[date], nil
}

func (f *fakeRenderer) RenderDescription(_ context.Context, url string) (string, error) {
	cur := f.activeDesc.Add(1)
	defer f.activeDesc.Add(-1)
	for {
		prev := f.maxActiveDesc.Load()
		if cur <= prev || f.maxActiveDesc.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.descCalls++
	f.mu.Unlock()

	if f.descErr != nil {
		return "", f.descErr
	}
	return f.descriptions[url], nil
}

func (f *fakeRenderer) RenderSchedule(_ context.Context, url, _, date string) ([]domain.Session, error) {
	cur := f.activeSchedule.Add(1)
	defer f.activeSchedule.Add(-1)
	for {
		prev := f.maxActiveSchedule.Load()
		if cur <= prev || f.maxActiveSchedule.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.schedCalls++
	f.mu.Unlock()

	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return f.schedules[url+"|"+date], nil
}

// memStore is an in-memory cache.Store.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Close() error { return nil }

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (failingStore) Set(_ context.Context, _, _ string, _ time.Duration) error {
	return errors.New("backend down")
}

func (failingStore) Close() error { return nil }

func baseConfig() catalog.Config {
	return catalog.Config{
		Location:               "1",
		ScheduleEnabled:        false,
		LookaheadDays:          0,
		DescriptionConcurrency: 2,
		ScheduleConcurrency:    2,
		DescriptionTTL:         time.Hour,
		DescriptionNegativeTTL: time.Minute,
		ScheduleTTL:            time.Hour,
		ScheduleNegativeTTL:    time.Minute,
		MaxSessionsPerMovie:    50,
		MaxDatesPerMovie:       10,
	}
}

func sessions(date string, n int) []domain.Session {
	out := make([]domain.Session, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Session{Date: date, Time: "20:00"})
	}
	return out
}

// --- Tests ---

func TestFetchMergesWindowKeepingFirstTitle(t *testing.T) {
	cfg := baseConfig()
	cfg.LookaheadDays = 2

	r := &fakeRenderer{
		listings: map[string][]domain.CatalogEntry{
			"2026-03-01": {{Title: "Dune", URL: "https://x/film/dune"}},
			"2026-03-02": {
				{Title: "Dune Part Two", URL: "https://x/film/dune"}, // later title loses
				{Title: "Alien", URL: "https://x/film/alien"},
			},
			"2026-03-03": {{Title: "Alien Redux", URL: "https://x/film/alien"}},
		},
		descriptions: map[string]string{},
	}

	o := catalog.New(cfg, r, cache.NewNoOp(), logger.NewNoOp())
	movies, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)

	require.Len(t, movies, 2)
	// Sorted by lowercase title.
	assert.Equal(t, "Alien", movies[0].Title)
	assert.Equal(t, "Dune", movies[1].Title)
}

func TestFetchDropsEntriesWithoutTitle(t *testing.T) {
	r := &fakeRenderer{
		listings: map[string][]domain.CatalogEntry{
			"2026-03-01": {
				{Title: "", URL: "https://x/film/untitled"},
				{Title: "Dune", URL: "https://x/film/dune"},
			},
		},
		descriptions: map[string]string{},
	}

	o := catalog.New(baseConfig(), r, cache.NewNoOp(), logger.NewNoOp())
	movies, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)

	require.Len(t, movies, 1)
	assert.Equal(t, "Dune", movies[0].Title)
}

func TestFetchDescriptionFailureKeepsMovie(t *testing.T) {
	r := &fakeRenderer{
		listings: map[string][]domain.CatalogEntry{
			"2026-03-01": {{Title: "Dune", URL: "https://x/film/dune"}},
		},
		descErr: errors.New("navigation timeout"),
	}

	store := newMemStore()
	o := catalog.New(baseConfig(), r, cache.New(store, logger.NewNoOp()), logger.NewNoOp())
	movies, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)

	require.Len(t, movies, 1)
	assert.Empty(t, movies[0].Description)

	// The failure is cached negatively: a second fetch does not render again.
	before := r.descCalls
	_, _, err = o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, before, r.descCalls)
}

func TestFetchDescriptionCacheHit(t *testing.T) {
	r := &fakeRenderer{
		listings: map[string][]domain.CatalogEntry{
			"2026-03-01": {{Title: "Dune", URL: "https://x/film/dune"}},
		},
		descriptions: map[string]string{"https://x/film/dune": "sand and spice"},
	}

	store := newMemStore()
	c := cache.New(store, logger.NewNoOp())
	o := catalog.New(baseConfig(), r, c, logger.NewNoOp())

	movies, stats, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "sand and spice", movies[0].Description)
	assert.Equal(t, int64(1), stats.CacheMisses)

	movies, stats, err = o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "sand and spice", movies[0].Description)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, 1, r.descCalls)
}

func TestFetchSessionCaps(t *testing.T) {
	cfg := baseConfig()
	cfg.ScheduleEnabled = true
	cfg.LookaheadDays = 3
	cfg.MaxSessionsPerMovie = 5
	cfg.MaxDatesPerMovie = 2

	url := "https://x/film/dune"
	r := &fakeRenderer{
		listings: map[string][]domain.CatalogEntry{
			"2026-03-01": {{Title: "Dune", URL: url}},
		},
		descriptions: map[string]string{url: "desc"},
		schedules: map[string][]domain.Session{
			url + "|2026-03-01": sessions("2026-03-01", 2),
			url + "|2026-03-02": sessions("2026-03-02", 2),
			url + "|2026-03-03": sessions("2026-03-03", 2),
			url + "|2026-03-04": sessions("2026-03-04", 2),
		},
	}

	o := catalog.New(cfg, r, cache.NewNoOp(), logger.NewNoOp())
	movies, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)
	require.Len(t, movies, 1)

	// Two distinct dates reached, so the third date contributes nothing.
	got := movies[0].Sessions
	require.Len(t, got, 4)
	assert.Equal(t, "2026-03-01", got[0].Date)
	assert.Equal(t, "2026-03-01", got[1].Date)
	assert.Equal(t, "2026-03-02", got[2].Date)
	assert.Equal(t, "2026-03-02", got[3].Date)
}

func TestFetchSessionTotalCap(t *testing.T) {
	cfg := baseConfig()
	cfg.ScheduleEnabled = true
	cfg.LookaheadDays = 1
	cfg.MaxSessionsPerMovie = 3

	url := "https://x/film/dune"
	r := &fakeRenderer{
		listings: map[string][]domain.CatalogEntry{
			"2026-03-01": {{Title: "Dune", URL: url}},
		},
		descriptions: map[string]string{url: "desc"},
		schedules: map[string][]domain.Session{
			url + "|2026-03-01": sessions("2026-03-01", 2),
			url + "|2026-03-02": sessions("2026-03-02", 5),
		},
	}

	o := catalog.New(cfg, r, cache.NewNoOp(), logger.NewNoOp())
	movies, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Len(t, movies[0].Sessions, 3)
}

func TestFetchBoundsConcurrency(t *testing.T) {
	cfg := baseConfig()
	cfg.ScheduleEnabled = true
	cfg.LookaheadDays = 4
	cfg.DescriptionConcurrency = 2
	cfg.ScheduleConcurrency = 3

	listings := make([]domain.CatalogEntry, 0, 8)
	descriptions := make(map[string]string)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		url := "https://x/film/" + name
		listings = append(listings, domain.CatalogEntry{Title: name, URL: url})
		descriptions[url] = "desc " + name
	}

	r := &fakeRenderer{
		listings:     map[string][]domain.CatalogEntry{"2026-03-01": listings},
		descriptions: descriptions,
		schedules:    map[string][]domain.Session{},
	}

	o := catalog.New(cfg, r, cache.NewNoOp(), logger.NewNoOp())
	_, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)

	assert.LessOrEqual(t, r.maxActiveDesc.Load(), int64(2))
	assert.LessOrEqual(t, r.maxActiveSchedule.Load(), int64(3))
}

func TestFetchFailingCacheMatchesDisabledCache(t *testing.T) {
	build := func(c cache.Interface) []domain.Movie {
		cfg := baseConfig()
		cfg.ScheduleEnabled = true
		cfg.LookaheadDays = 1

		url := "https://x/film/dune"
		r := &fakeRenderer{
			listings: map[string][]domain.CatalogEntry{
				"2026-03-01": {{Title: "Dune", URL: url}},
			},
			descriptions: map[string]string{url: "desc"},
			schedules: map[string][]domain.Session{
				url + "|2026-03-01": sessions("2026-03-01", 2),
			},
		}

		o := catalog.New(cfg, r, c, logger.NewNoOp())
		movies, _, err := o.Fetch(context.Background(), "2026-03-01")
		require.NoError(t, err)
		return movies
	}

	withFailing := build(cache.New(failingStore{}, logger.NewNoOp()))
	withDisabled := build(cache.NewNoOp())
	assert.Equal(t, withDisabled, withFailing)
}

func TestFetchListingFailureYieldsEmptyList(t *testing.T) {
	r := &fakeRenderer{listingErr: errors.New("timeout")}

	o := catalog.New(baseConfig(), r, cache.NewNoOp(), logger.NewNoOp())
	movies, _, err := o.Fetch(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestWindow(t *testing.T) {
	assert.Equal(t,
		[]string{"2026-02-27", "2026-02-28", "2026-03-01"},
		catalog.Window("2026-02-27", 2),
	)
	assert.Equal(t, []string{"2026-03-01"}, catalog.Window("2026-03-01", 0))

	// Unparsable start falls back to today without failing.
	assert.Len(t, catalog.Window("not-a-date", 1), 2)
}
