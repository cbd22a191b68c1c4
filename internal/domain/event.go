// Package domain provides domain models used across the application.
package domain

import "time"

// EventKind enumerates the kinds of catalog change events.
type EventKind string

const (
	// EventAdded records a movie appearing in the catalog.
	EventAdded EventKind = "added"
	// EventRemoved records a movie disappearing from the catalog.
	EventRemoved EventKind = "removed"
)

// Event is an immutable record of a detected catalog change. Events are
// kept in an append-only log, insertion order equals detection order,
// newest last.
type Event struct {
	Kind  EventKind `json:"kind"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
	// DetectedAt is the detection timestamp, shared by all events of one cycle
	DetectedAt time.Time `json:"detectedAt"`
	// Location is the catalog location the cycle ran against
	Location string `json:"location"`
	// Date is the cycle's run date in ISO format
	Date string `json:"date"`
}
