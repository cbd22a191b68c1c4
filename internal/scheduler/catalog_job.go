package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jonesrussell/cinefeed/internal/catalog"
	"github.com/jonesrussell/cinefeed/internal/config"
	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/feed"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/output"
	"github.com/jonesrussell/cinefeed/internal/state"
)

// ErrFixedDateMissing is returned when fixed date mode is configured
// without a date. It fails the catalog job only; the scheduler loop
// keeps running.
var ErrFixedDateMissing = errors.New("date mode is fixed but no fixed date configured")

const dateLayout = "2006-01-02"

// CatalogJob runs one full catalog-sync cycle: load state, fetch the
// listing, diff, append events, persist state, write the RSS feed.
type CatalogJob struct {
	cfg  *config.Config
	orch *catalog.Orchestrator
	log  logger.Interface
	now  func() time.Time
}

// NewCatalogJob wires the catalog-sync cycle.
func NewCatalogJob(cfg *config.Config, orch *catalog.Orchestrator, log logger.Interface) *CatalogJob {
	return &CatalogJob{cfg: cfg, orch: orch, log: log, now: time.Now}
}

func (j *CatalogJob) Kind() domain.JobKind { return domain.JobCineplexx }

func (j *CatalogJob) Interval() time.Duration { return j.cfg.CatalogSyncInterval }

// Run executes one cycle. Lower-level fetch failures are absorbed by
// the orchestrator; an error here means the cycle itself could not
// complete and surfaces as the job's Error status.
func (j *CatalogJob) Run(ctx context.Context) (domain.JobStatus, map[string]int, error) {
	date, err := j.resolveDate()
	if err != nil {
		return domain.JobStatusError, nil, err
	}

	statePath := j.StatePath()
	st := state.Load(statePath, j.log)

	movies, stats, err := j.orch.Fetch(ctx, date)
	if err != nil {
		return domain.JobStatusError, nil, fmt.Errorf("fetch catalog: %w", err)
	}

	now := j.now().UTC()
	added, removed := state.ComputeDiff(st.Snapshot, movies)
	st.AppendEvents(added, removed, now, j.cfg.Location, date, j.cfg.MaxEventsInState)
	st.UpdateSnapshot(movies, now)
	if saveErr := state.Save(statePath, st); saveErr != nil {
		return domain.JobStatusError, nil, saveErr
	}

	meta := feed.Meta{
		Title:       j.cfg.FeedTitle,
		Link:        j.cfg.FeedLink,
		Description: j.cfg.FeedDescription,
	}
	doc := feed.BuildCatalog(meta, now, st.Events, j.cfg.EventsLimit, movies, st.Snapshot)
	feedPath := filepath.Join(j.cfg.OutDir, j.cfg.RSSFilename)
	if writeErr := output.WriteFileAtomic(feedPath, []byte(doc)); writeErr != nil {
		return domain.JobStatusError, nil, fmt.Errorf("write catalog feed: %w", writeErr)
	}

	j.log.Info("catalog cycle complete",
		"date", date,
		"movies", len(movies),
		"added", len(added),
		"removed", len(removed),
	)

	counts := stats.Counts(len(movies))
	counts["added"] = len(added)
	counts["removed"] = len(removed)
	counts["events"] = len(st.Events)
	return domain.JobStatusOk, counts, nil
}

// StatePath returns the location-scoped state file path.
func (j *CatalogJob) StatePath() string {
	return filepath.Join(j.cfg.OutDir, "state_location_"+j.cfg.Location+".json")
}

// resolveDate derives the cycle's run date from the configured date
// mode. An unloadable timezone degrades to UTC with a warning.
func (j *CatalogJob) resolveDate() (string, error) {
	if j.cfg.DateMode == config.DateModeFixed {
		if j.cfg.FixedDate == "" {
			return "", ErrFixedDateMissing
		}
		return j.cfg.FixedDate, nil
	}

	loc, err := time.LoadLocation(j.cfg.Timezone)
	if err != nil {
		j.log.Warn("unknown timezone, using UTC", "timezone", j.cfg.Timezone, "error", err)
		loc = time.UTC
	}
	return j.now().In(loc).Format(dateLayout), nil
}
