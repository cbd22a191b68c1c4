// Package domain provides domain models used across the application.
package domain

import "time"

// JobKind identifies one of the scheduler's job cadences.
type JobKind string

const (
	// JobCineplexx is the catalog-sync job.
	JobCineplexx JobKind = "cineplexx"
	// JobTelegram is the channel-sync job.
	JobTelegram JobKind = "telegram"
)

// JobStatus is the outcome of a single job run.
type JobStatus string

const (
	// JobStatusOk means the job completed without failures.
	JobStatusOk JobStatus = "ok"
	// JobStatusPartial means some but not all units of the job's batch failed.
	JobStatusPartial JobStatus = "partial"
	// JobStatusError means the job's control flow itself failed.
	JobStatusError JobStatus = "error"
)

// JobRecord captures the result of one job run. One record exists per
// job kind and is overwritten each cycle.
type JobRecord struct {
	Enabled         bool           `json:"enabled"`
	Status          JobStatus      `json:"status"`
	StartedAt       time.Time      `json:"startedAt"`
	FinishedAt      time.Time      `json:"finishedAt"`
	DurationSeconds float64        `json:"durationSeconds"`
	Counts          map[string]int `json:"counts,omitempty"`
	Error           string         `json:"error,omitempty"`
}
