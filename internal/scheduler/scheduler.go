// Package scheduler drives the worker's job cadences: it decides when
// each job is due, runs jobs sequentially, persists their status, and
// triggers the index rebuild after any job runs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
)

const defaultIdleInterval = time.Minute

// Job is one scheduled cadence. Run reports the outcome of a single
// cycle; returned errors are recorded in the job's status, never
// propagated to the loop.
type Job interface {
	Kind() domain.JobKind
	Interval() time.Duration
	Run(ctx context.Context) (domain.JobStatus, map[string]int, error)
}

// RebuildFunc regenerates the index documents after a wake-up that ran
// at least one job. It receives each job's last successful finish time.
type RebuildFunc func(lastSuccess map[domain.JobKind]time.Time) error

// Scheduler runs jobs on independent self-correcting cadences: a job's
// next run is its previous finish time plus its interval, so a slow
// cycle pushes the cadence back instead of piling runs up.
type Scheduler struct {
	jobs    []Job
	status  *StatusWriter
	rebuild RebuildFunc
	log     logger.Interface

	idle  time.Duration
	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// New creates a scheduler over the given jobs.
func New(jobs []Job, status *StatusWriter, rebuild RebuildFunc, log logger.Interface) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		status:  status,
		rebuild: rebuild,
		log:     log,
		idle:    defaultIdleInterval,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Run executes the scheduling loop until ctx is cancelled. Jobs never
// overlap: both kinds may run within one wake-up but execute one after
// another. A job failure never stops the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	next := make(map[domain.JobKind]time.Time, len(s.jobs))
	start := s.now()
	for _, job := range s.jobs {
		next[job.Kind()] = start
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ran := false
		for _, job := range s.jobs {
			if s.now().Before(next[job.Kind()]) {
				continue
			}
			rec := s.execute(ctx, job)
			next[job.Kind()] = rec.FinishedAt.Add(job.Interval())
			s.persist(job.Kind(), rec)
			ran = true
		}
		if ran {
			s.rebuildIndex()
		}

		s.sleep(ctx, s.untilNext(next))
	}
}

// RunOnce executes every job a single time regardless of cadence,
// persisting status and rebuilding the index afterwards.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		rec := s.execute(ctx, job)
		s.persist(job.Kind(), rec)
	}
	s.rebuildIndex()
}

func (s *Scheduler) persist(kind domain.JobKind, rec domain.JobRecord) {
	if err := s.status.Record(kind, rec); err != nil {
		s.log.Error("status write failed", "job", kind, "error", err)
	}
}

func (s *Scheduler) rebuildIndex() {
	if s.rebuild == nil {
		return
	}
	if err := s.rebuild(s.status.LastSuccesses()); err != nil {
		s.log.Error("index rebuild failed", "error", err)
	}
}

// untilNext returns how long to sleep before the earliest due instant
// among scheduled jobs, or the idle interval when no job is scheduled.
func (s *Scheduler) untilNext(next map[domain.JobKind]time.Time) time.Duration {
	var earliest time.Time
	for _, job := range s.jobs {
		t := next[job.Kind()]
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	if earliest.IsZero() {
		return s.idle
	}

	d := earliest.Sub(s.now())
	if d < 0 {
		return 0
	}
	return d
}

// execute runs one job behind the job boundary: any returned error or
// panic is converted into the job's status record and never escapes.
func (s *Scheduler) execute(ctx context.Context, job Job) domain.JobRecord {
	started := s.now().UTC()
	log := s.log.WithJob(string(job.Kind()))
	log.Info("job started")

	status, counts, err := s.runGuarded(ctx, job)
	finished := s.now().UTC()

	rec := domain.JobRecord{
		Enabled:         true,
		Status:          status,
		StartedAt:       started,
		FinishedAt:      finished,
		DurationSeconds: finished.Sub(started).Seconds(),
		Counts:          counts,
	}
	if err != nil {
		rec.Error = err.Error()
		log.WithError(err).Error("job failed", "status", string(status))
		return rec
	}

	log.WithDuration(finished.Sub(started)).Info("job finished", "status", string(status))
	return rec
}

func (s *Scheduler) runGuarded(ctx context.Context, job Job) (status domain.JobStatus, counts map[string]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = domain.JobStatusError
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return job.Run(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
