package catalog

import "sync/atomic"

// counters collects fetch statistics from concurrent workers.
type counters struct {
	cacheHits           atomic.Int64
	cacheMisses         atomic.Int64
	filmPagesFetched    atomic.Int64
	scheduleCacheHits   atomic.Int64
	scheduleCacheMisses atomic.Int64
	datesProbed         atomic.Int64
	sessionsFound       atomic.Int64
}

// Stats is an immutable snapshot of one fetch's statistics.
type Stats struct {
	CacheHits           int64
	CacheMisses         int64
	FilmPagesFetched    int64
	ScheduleCacheHits   int64
	ScheduleCacheMisses int64
	DatesProbed         int64
	SessionsFound       int64
}

// snapshot freezes the counters into a Stats value.
func (c *counters) snapshot() Stats {
	return Stats{
		CacheHits:           c.cacheHits.Load(),
		CacheMisses:         c.cacheMisses.Load(),
		FilmPagesFetched:    c.filmPagesFetched.Load(),
		ScheduleCacheHits:   c.scheduleCacheHits.Load(),
		ScheduleCacheMisses: c.scheduleCacheMisses.Load(),
		DatesProbed:         c.datesProbed.Load(),
		SessionsFound:       c.sessionsFound.Load(),
	}
}

// Counts flattens the snapshot into the job status record shape.
func (s Stats) Counts(movies int) map[string]int {
	return map[string]int{
		"movies":                movies,
		"cache_hits":            int(s.CacheHits),
		"cache_misses":          int(s.CacheMisses),
		"film_pages_fetched":    int(s.FilmPagesFetched),
		"schedule_cache_hits":   int(s.ScheduleCacheHits),
		"schedule_cache_misses": int(s.ScheduleCacheMisses),
		"dates_probed":          int(s.DatesProbed),
		"sessions_found":        int(s.SessionsFound),
	}
}
