// Package domain provides domain models used across the application.
package domain

import "time"

// SnapshotRecord tracks when a catalog URL was first and last observed.
// A URL that disappears is dropped from the snapshot; if it reappears
// later it gets a fresh FirstSeen, so from the feed's perspective a
// reappearance is a new item.
type SnapshotRecord struct {
	Title     string    `json:"title"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}
