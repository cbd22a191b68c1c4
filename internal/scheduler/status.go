package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/output"
)

// Status is the worker's persisted run status document.
type Status struct {
	RunID        string            `json:"runId"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	CineplexxJob *domain.JobRecord `json:"cineplexxJob"`
	TelegramJob  *domain.JobRecord `json:"telegramJob"`
}

// StatusWriter persists the status document immediately after every job
// run, so the published status never lags behind by more than one job.
type StatusWriter struct {
	path  string
	runID string

	records     map[domain.JobKind]*domain.JobRecord
	lastSuccess map[domain.JobKind]time.Time
	now         func() time.Time
}

// NewStatusWriter creates a writer that persists to path. runID
// identifies this worker process in the status document.
func NewStatusWriter(path, runID string) *StatusWriter {
	return &StatusWriter{
		path:        path,
		runID:       runID,
		records:     make(map[domain.JobKind]*domain.JobRecord),
		lastSuccess: make(map[domain.JobKind]time.Time),
		now:         time.Now,
	}
}

// MarkDisabled records a job kind as disabled without running it.
func (w *StatusWriter) MarkDisabled(kind domain.JobKind) {
	w.records[kind] = &domain.JobRecord{Enabled: false}
}

// Record stores the record for kind and rewrites the status file.
func (w *StatusWriter) Record(kind domain.JobKind, rec domain.JobRecord) error {
	w.records[kind] = &rec
	if rec.Status == domain.JobStatusOk || rec.Status == domain.JobStatusPartial {
		w.lastSuccess[kind] = rec.FinishedAt
	}
	return w.write()
}

// LastSuccesses returns each job's last successful finish time.
func (w *StatusWriter) LastSuccesses() map[domain.JobKind]time.Time {
	out := make(map[domain.JobKind]time.Time, len(w.lastSuccess))
	for kind, t := range w.lastSuccess {
		out[kind] = t
	}
	return out
}

func (w *StatusWriter) write() error {
	doc := Status{
		RunID:        w.runID,
		UpdatedAt:    w.now().UTC(),
		CineplexxJob: w.records[domain.JobCineplexx],
		TelegramJob:  w.records[domain.JobTelegram],
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if writeErr := output.WriteFileAtomic(w.path, payload); writeErr != nil {
		return fmt.Errorf("write status file: %w", writeErr)
	}
	return nil
}
