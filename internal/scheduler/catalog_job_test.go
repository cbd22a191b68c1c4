package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cinefeed/internal/cache"
	"github.com/jonesrussell/cinefeed/internal/catalog"
	"github.com/jonesrussell/cinefeed/internal/config"
	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/state"
)

type listingRenderer struct {
	entries []domain.CatalogEntry
}

func (r *listingRenderer) RenderListing(_ context.Context, _, _ string) ([]domain.CatalogEntry, error) {
	return r.entries, nil
}

func (r *listingRenderer) RenderDescription(_ context.Context, _ string) (string, error) {
	return "a description", nil
}

func (r *listingRenderer) RenderSchedule(_ context.Context, _, _, _ string) ([]domain.Session, error) {
	return nil, nil
}

func catalogTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Location:         "1",
		DateMode:         config.DateModeFixed,
		FixedDate:        "2026-05-01",
		OutDir:           t.TempDir(),
		RSSFilename:      "catalog.xml",
		EventsLimit:      50,
		MaxEventsInState: 100,
		FeedTitle:        "Catalog",
		FeedLink:         "https://cineplexx.me",
		FeedDescription:  "Now showing",

		CatalogSyncInterval: time.Hour,
	}
}

func newCatalogJob(cfg *config.Config, entries []domain.CatalogEntry) *CatalogJob {
	orch := catalog.New(catalog.Config{
		Location:               cfg.Location,
		DescriptionConcurrency: 2,
		ScheduleConcurrency:    2,
	}, &listingRenderer{entries: entries}, cache.NewNoOp(), logger.NewNoOp())
	return NewCatalogJob(cfg, orch, logger.NewNoOp())
}

func TestCatalogJobFullCycle(t *testing.T) {
	cfg := catalogTestConfig(t)
	job := newCatalogJob(cfg, []domain.CatalogEntry{
		{Title: "Dune", URL: "https://cineplexx.me/film/dune"},
		{Title: "Alien", URL: "https://cineplexx.me/film/alien"},
	})

	status, counts, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusOk, status)
	assert.Equal(t, 2, counts["movies"])
	assert.Equal(t, 2, counts["added"])
	assert.Equal(t, 0, counts["removed"])

	st := state.Load(job.StatePath(), logger.NewNoOp())
	assert.Len(t, st.Snapshot, 2)
	assert.Len(t, st.Events, 2)

	raw, readErr := os.ReadFile(filepath.Join(cfg.OutDir, cfg.RSSFilename))
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "Dune")
	assert.Contains(t, string(raw), "Alien")
}

func TestCatalogJobDetectsRemovals(t *testing.T) {
	cfg := catalogTestConfig(t)
	job := newCatalogJob(cfg, []domain.CatalogEntry{
		{Title: "Dune", URL: "https://cineplexx.me/film/dune"},
	})
	_, _, err := job.Run(context.Background())
	require.NoError(t, err)

	job = newCatalogJob(cfg, nil)
	status, counts, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusOk, status)
	assert.Equal(t, 1, counts["removed"])

	st := state.Load(job.StatePath(), logger.NewNoOp())
	assert.Empty(t, st.Snapshot)
	require.Len(t, st.Events, 2)
	assert.Equal(t, domain.EventRemoved, st.Events[1].Kind)
}

func TestCatalogJobFixedModeWithoutDateFails(t *testing.T) {
	cfg := catalogTestConfig(t)
	cfg.FixedDate = ""
	job := newCatalogJob(cfg, nil)

	status, _, err := job.Run(context.Background())
	require.ErrorIs(t, err, ErrFixedDateMissing)
	assert.Equal(t, domain.JobStatusError, status)
}

func TestCatalogJobResolvesTodayInTimezone(t *testing.T) {
	cfg := catalogTestConfig(t)
	cfg.DateMode = config.DateModeToday
	cfg.Timezone = "UTC"
	job := newCatalogJob(cfg, nil)
	job.now = func() time.Time {
		return time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)
	}

	date, err := job.resolveDate()
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", date)
}

func TestCatalogJobUnknownTimezoneFallsBackToUTC(t *testing.T) {
	cfg := catalogTestConfig(t)
	cfg.DateMode = config.DateModeToday
	cfg.Timezone = "Mars/Olympus"
	job := newCatalogJob(cfg, nil)
	job.now = func() time.Time {
		return time.Date(2026, 5, 2, 1, 0, 0, 0, time.UTC)
	}

	date, err := job.resolveDate()
	require.NoError(t, err)
	assert.Equal(t, "2026-05-02", date)
}
