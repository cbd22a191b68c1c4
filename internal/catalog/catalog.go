// Package catalog implements the cache-aware, concurrency-bounded fetch
// orchestrator that produces the current catalog listing.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/cinefeed/internal/cache"
	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/renderer"
)

// Config holds orchestrator settings for one catalog location.
type Config struct {
	// Location is the catalog location identifier.
	Location string
	// ScheduleEnabled toggles per-date session collection.
	ScheduleEnabled bool
	// LookaheadDays is N; the window spans N+1 dates starting at the run date.
	LookaheadDays int
	// DescriptionConcurrency bounds concurrent description renders (P).
	DescriptionConcurrency int
	// ScheduleConcurrency bounds concurrent schedule renders (Q).
	ScheduleConcurrency int
	// DescriptionTTL is the positive cache TTL for descriptions.
	DescriptionTTL time.Duration
	// DescriptionNegativeTTL is the cache TTL for a "not found" description.
	DescriptionNegativeTTL time.Duration
	// ScheduleTTL is the positive cache TTL for a date's session list.
	ScheduleTTL time.Duration
	// ScheduleNegativeTTL is the cache TTL for an empty session list.
	ScheduleNegativeTTL time.Duration
	// MaxSessionsPerMovie caps the sessions retained for one movie.
	MaxSessionsPerMovie int
	// MaxDatesPerMovie caps the distinct dates contributing sessions.
	MaxDatesPerMovie int
}

// Orchestrator fetches the current catalog listing using the page
// renderer and the cache, under two independent concurrency bounds.
type Orchestrator struct {
	cfg      Config
	renderer renderer.PageRenderer
	cache    cache.Interface
	logger   logger.Interface

	// Semaphores for the two bounded pools. Description renders and
	// schedule renders never contend for each other's slots.
	descSem  chan struct{}
	schedSem chan struct{}
}

// New creates a fetch orchestrator.
func New(cfg Config, pr renderer.PageRenderer, c cache.Interface, log logger.Interface) *Orchestrator {
	if cfg.DescriptionConcurrency < 1 {
		cfg.DescriptionConcurrency = 1
	}
	if cfg.ScheduleConcurrency < 1 {
		cfg.ScheduleConcurrency = 1
	}

	return &Orchestrator{
		cfg:      cfg,
		renderer: pr,
		cache:    c,
		logger:   log.WithComponent("catalog"),
		descSem:  make(chan struct{}, cfg.DescriptionConcurrency),
		schedSem: make(chan struct{}, cfg.ScheduleConcurrency),
	}
}

// descriptionEntry is the cached payload for a film description. A
// non-empty Error field is the negative marker: the description was
// probed and is known to be absent.
type descriptionEntry struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// scheduleEntry is the cached payload for one film's session list on one
// date. An entry with no sessions and a non-empty Error field is the
// negative marker.
type scheduleEntry struct {
	Sessions  []domain.Session `json:"sessions"`
	Error     string           `json:"error,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// notFoundMarker flags a negative cache entry.
const notFoundMarker = "not_found"

// Fetch produces the catalog listing for the run date. Individual fetch
// failures are isolated: they are logged, resolved to empty results, and
// never abort the batch. The returned list is always best-effort
// complete, filtered to entries with a title and URL, and sorted by
// (lowercase title, url) for deterministic diffing.
func (o *Orchestrator) Fetch(ctx context.Context, date string) ([]domain.Movie, Stats, error) {
	start := time.Now()
	stats := &counters{}
	window := Window(date, o.cfg.LookaheadDays)

	entries, err := o.mergeListings(ctx, window)
	if err != nil {
		return nil, stats.snapshot(), err
	}

	o.logger.Info("catalog listing merged",
		"dates", len(window),
		"movies_found", len(entries),
	)

	movies := make([]domain.Movie, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i := range entries {
		i := i
		g.Go(func() error {
			movies[i] = o.buildMovie(gctx, entries[i], window, stats)
			return nil
		})
	}
	if waitErr := g.Wait(); waitErr != nil {
		return nil, stats.snapshot(), waitErr
	}

	kept := make([]domain.Movie, 0, len(movies))
	for i := range movies {
		if movies[i].Valid() {
			kept = append(kept, movies[i])
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].SortKey() < kept[j].SortKey()
	})

	snap := stats.snapshot()
	o.logger.WithDuration(time.Since(start)).Info("catalog fetch done",
		"movies", len(kept),
		"cache_hits", snap.CacheHits,
		"cache_misses", snap.CacheMisses,
		"film_pages_fetched", snap.FilmPagesFetched,
		"schedule_cache_hits", snap.ScheduleCacheHits,
		"schedule_cache_misses", snap.ScheduleCacheMisses,
		"dates_probed", snap.DatesProbed,
		"sessions_found", snap.SessionsFound,
	)
	return kept, snap, nil
}

// mergeListings renders the listing for every window date and merges the
// results by canonical URL, keeping the first non-empty title seen. A
// single date's failure yields an empty contribution, never an abort.
func (o *Orchestrator) mergeListings(ctx context.Context, window []string) ([]domain.CatalogEntry, error) {
	order := make([]string, 0)
	byURL := make(map[string]domain.CatalogEntry)

	for _, d := range window {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := o.renderer.RenderListing(ctx, o.cfg.Location, d)
		if err != nil {
			o.logger.Warn("listing render failed, skipping date",
				"date", d,
				"error", err,
			)
			continue
		}

		for _, e := range entries {
			if e.URL == "" {
				continue
			}
			existing, seen := byURL[e.URL]
			if !seen {
				byURL[e.URL] = e
				order = append(order, e.URL)
				continue
			}
			if existing.Title == "" && e.Title != "" {
				existing.Title = e.Title
				byURL[e.URL] = existing
			}
		}
	}

	merged := make([]domain.CatalogEntry, 0, len(order))
	for _, u := range order {
		merged = append(merged, byURL[u])
	}
	return merged, nil
}

// buildMovie resolves one catalog entry into a Movie: description via
// the description pool, sessions via the schedule pool. Fetch failures
// degrade to empty fields; the entry itself is never dropped here.
func (o *Orchestrator) buildMovie(
	ctx context.Context,
	entry domain.CatalogEntry,
	window []string,
	stats *counters,
) domain.Movie {
	movie := domain.Movie{Title: entry.Title, URL: entry.URL}
	if movie.URL == "" {
		return movie
	}

	title, desc := o.fetchDescription(ctx, entry, stats)
	movie.Title = title
	movie.Description = desc

	if o.cfg.ScheduleEnabled {
		movie.Sessions = o.fetchSessions(ctx, entry.URL, window, stats)
	}

	return movie
}

// fetchDescription resolves a film's description through the cache. A
// hit carrying either a description or the negative marker
// short-circuits; a miss renders the page under the description bound.
func (o *Orchestrator) fetchDescription(ctx context.Context, entry domain.CatalogEntry, stats *counters) (title, desc string) {
	title = entry.Title
	key := cache.DescriptionKey(entry.URL)

	var cached descriptionEntry
	if o.cache.GetJSON(ctx, key, &cached) && (cached.Description != "" || cached.Error != "") {
		stats.cacheHits.Add(1)
		if cached.Title != "" {
			title = cached.Title
		}
		return title, cached.Description
	}
	stats.cacheMisses.Add(1)

	select {
	case o.descSem <- struct{}{}:
	case <-ctx.Done():
		return title, ""
	}
	defer func() { <-o.descSem }()

	stats.filmPagesFetched.Add(1)
	rendered, err := o.renderer.RenderDescription(ctx, entry.URL)
	if err != nil {
		o.logger.Warn("description render failed", "url", entry.URL, "error", err)
		rendered = ""
	}

	if rendered != "" {
		o.cache.SetJSON(ctx, key, descriptionEntry{
			Title:       title,
			Description: rendered,
			FetchedAt:   time.Now().UTC(),
		}, o.cfg.DescriptionTTL)
		return title, rendered
	}

	o.logger.Warn("movie description missing", "url", entry.URL)
	o.cache.SetJSON(ctx, key, descriptionEntry{
		Title:     title,
		Error:     notFoundMarker,
		FetchedAt: time.Now().UTC(),
	}, o.cfg.DescriptionNegativeTTL)
	return title, ""
}

// fetchSessions probes every window date for the film's sessions under
// the schedule bound and accumulates them in window-date order until the
// session cap or the distinct-dates cap is reached. Fetches still in
// flight when a cap trips complete normally; their results are simply
// not accumulated.
func (o *Orchestrator) fetchSessions(
	ctx context.Context,
	url string,
	window []string,
	stats *counters,
) []domain.Session {
	perDate := make([][]domain.Session, len(window))

	var wg sync.WaitGroup
	for i, d := range window {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			perDate[i] = o.fetchSessionsForDate(ctx, url, d, stats)
		}()
	}
	wg.Wait()

	var sessions []domain.Session
	dates := make(map[string]struct{})
	total := 0
	for i := range window {
		if total >= o.cfg.MaxSessionsPerMovie {
			break
		}
		raw := perDate[i]
		if len(raw) == 0 {
			continue
		}
		if len(sessions) > 0 && len(dates) >= o.cfg.MaxDatesPerMovie {
			break
		}
		for _, s := range raw {
			if total >= o.cfg.MaxSessionsPerMovie {
				break
			}
			sessions = append(sessions, s)
			dates[s.Date] = struct{}{}
			total++
		}
	}
	return sessions
}

// fetchSessionsForDate resolves one (url, date) session list through the
// cache, rendering on a miss. Both a failed render and a genuinely empty
// schedule resolve to an empty list with a negative cache entry.
func (o *Orchestrator) fetchSessionsForDate(
	ctx context.Context,
	url, date string,
	stats *counters,
) []domain.Session {
	key := cache.ScheduleKey(url, o.cfg.Location, date)

	var cached scheduleEntry
	if o.cache.GetJSON(ctx, key, &cached) {
		stats.scheduleCacheHits.Add(1)
		stats.sessionsFound.Add(int64(len(cached.Sessions)))
		return cached.Sessions
	}
	stats.scheduleCacheMisses.Add(1)

	select {
	case o.schedSem <- struct{}{}:
	case <-ctx.Done():
		return nil
	}
	defer func() { <-o.schedSem }()

	stats.datesProbed.Add(1)
	sessions, err := o.renderer.RenderSchedule(ctx, url, o.cfg.Location, date)
	if err != nil {
		o.logger.Warn("schedule render failed",
			"url", url,
			"date", date,
			"error", err,
		)
		sessions = nil
	}

	if len(sessions) > 0 {
		stats.sessionsFound.Add(int64(len(sessions)))
		o.cache.SetJSON(ctx, key, scheduleEntry{
			Sessions:  sessions,
			FetchedAt: time.Now().UTC(),
		}, o.cfg.ScheduleTTL)
		return sessions
	}

	o.cache.SetJSON(ctx, key, scheduleEntry{
		Sessions:  []domain.Session{},
		Error:     "no_sessions",
		FetchedAt: time.Now().UTC(),
	}, o.cfg.ScheduleNegativeTTL)
	return nil
}
