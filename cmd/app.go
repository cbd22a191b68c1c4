package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/cinefeed/internal/cache"
	"github.com/jonesrussell/cinefeed/internal/catalog"
	"github.com/jonesrussell/cinefeed/internal/config"
	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/index"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/renderer"
	"github.com/jonesrussell/cinefeed/internal/scheduler"
	"github.com/jonesrussell/cinefeed/internal/telegram"
)

const siteTitle = "cinefeed"

// appMode selects which jobs an invocation assembles.
type appMode int

const (
	modeWorker appMode = iota
	modeSyncOnce
	modeChannelsOnce
)

// app is the assembled worker: configuration, logging, and the
// scheduler with its jobs.
type app struct {
	cfg   *config.Config
	log   logger.Interface
	sched *scheduler.Scheduler

	closers []func()
}

// close releases resources in reverse construction order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp loads configuration and wires every component the selected
// mode needs. The browser renderer and the cache are only constructed
// when the catalog job runs in this invocation.
func buildApp(mode appMode) (*app, error) {
	bootLog, err := logger.New(&logger.Config{Level: "info", Encoding: "console"})
	if err != nil {
		return nil, fmt.Errorf("create bootstrap logger: %w", err)
	}

	cfg, err := config.Load(bootLog)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&logger.Config{Level: cfg.LogLevel, Encoding: "console"})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	runID := uuid.NewString()
	log = log.WithRunID(runID)

	a := &app{cfg: cfg, log: log}
	status := scheduler.NewStatusWriter(filepath.Join(cfg.OutDir, "status.json"), runID)

	wantCatalog := mode == modeSyncOnce || (mode == modeWorker && cfg.CatalogJobEnabled())
	wantTelegram := mode == modeChannelsOnce || (mode == modeWorker && cfg.TelegramJobEnabled())

	var jobs []scheduler.Job
	if wantCatalog {
		job, buildErr := a.buildCatalogJob()
		if buildErr != nil {
			a.close()
			return nil, buildErr
		}
		jobs = append(jobs, job)
	} else {
		status.MarkDisabled(domain.JobCineplexx)
	}

	if wantTelegram {
		syncer := telegram.New(telegram.Config{PostLimit: cfg.TelegramPostLimit}, log)
		jobs = append(jobs, scheduler.NewTelegramJob(cfg, syncer, log))
	} else {
		status.MarkDisabled(domain.JobTelegram)
	}

	a.sched = scheduler.New(jobs, status, a.rebuildIndex, log)
	return a, nil
}

func (a *app) buildCatalogJob() (scheduler.Job, error) {
	cfg := a.cfg

	var store cache.Interface = cache.NewNoOp()
	if cfg.CacheEnabled {
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{Address: cfg.RedisAddress})
		if err != nil {
			a.log.Warn("redis unavailable, caching disabled", "address", cfg.RedisAddress, "error", err)
		} else {
			c := cache.New(redisStore, a.log)
			store = c
			a.closers = append(a.closers, c.Close)
		}
	}

	rend, err := renderer.NewChromeRenderer(renderer.Config{BaseURL: cfg.BaseURL}, a.log)
	if err != nil {
		return nil, fmt.Errorf("start page renderer: %w", err)
	}
	a.closers = append(a.closers, rend.Close)

	orch := catalog.New(catalog.Config{
		Location:               cfg.Location,
		ScheduleEnabled:        cfg.ScheduleEnabled,
		LookaheadDays:          cfg.ScheduleMaxDaysAhead,
		DescriptionConcurrency: cfg.DescriptionConcurrency,
		ScheduleConcurrency:    cfg.ScheduleConcurrency,
		DescriptionTTL:         cfg.FilmCacheTTL,
		DescriptionNegativeTTL: cfg.FilmCacheNegativeTTL,
		ScheduleTTL:            cfg.ScheduleCacheTTL,
		ScheduleNegativeTTL:    cfg.ScheduleCacheNegativeTTL,
		MaxSessionsPerMovie:    cfg.ScheduleMaxSessionsPerMovie,
		MaxDatesPerMovie:       cfg.ScheduleMaxDatesPerMovie,
	}, rend, store, a.log)

	return scheduler.NewCatalogJob(cfg, orch, a.log), nil
}

// rebuildIndex regenerates index.html and index.xml from the configured
// feed set and the jobs' last successful finish times.
func (a *app) rebuildIndex(lastSuccess map[domain.JobKind]time.Time) error {
	feeds := []index.FeedLink{{
		Kind:     index.KindCinema,
		Title:    a.cfg.FeedTitle,
		Href:     a.cfg.RSSFilename,
		Subtitle: "location=" + a.cfg.Location,
	}}
	for _, channel := range a.cfg.TelegramChannels {
		feeds = append(feeds, index.FeedLink{
			Kind:     index.KindTelegram,
			Title:    "Telegram t.me/" + channel,
			Href:     channel + ".xml",
			Subtitle: "t.me/" + channel,
		})
	}

	updated := time.Time{}
	for _, t := range lastSuccess {
		if t.After(updated) {
			updated = t
		}
	}
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	return index.Rebuild(a.cfg.OutDir, feeds, siteTitle, updated)
}
