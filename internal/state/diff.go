package state

import (
	"sort"
	"time"

	"github.com/jonesrussell/cinefeed/internal/domain"
)

// ComputeDiff computes the set difference between the previous snapshot
// and the current listing on canonical URLs only; titles do not affect
// membership. Both result slices are sorted ascending by URL.
func ComputeDiff(prev map[string]domain.SnapshotRecord, current []domain.Movie) (added, removed []domain.CatalogEntry) {
	curTitles := make(map[string]string, len(current))
	for i := range current {
		curTitles[current[i].URL] = current[i].Title
	}

	for url, title := range curTitles {
		if _, ok := prev[url]; !ok {
			added = append(added, domain.CatalogEntry{Title: title, URL: url})
		}
	}
	for url, rec := range prev {
		if _, ok := curTitles[url]; !ok {
			removed = append(removed, domain.CatalogEntry{Title: rec.Title, URL: url})
		}
	}

	sort.Slice(added, func(i, j int) bool { return added[i].URL < added[j].URL })
	sort.Slice(removed, func(i, j int) bool { return removed[i].URL < removed[j].URL })
	return added, removed
}

// AppendEvents appends one event per added entry, then one per removed
// entry, each slice in URL order, so additions always precede removals
// within one cycle. If the log then exceeds maxEvents the oldest entries
// are discarded until exactly maxEvents remain.
func (s *State) AppendEvents(added, removed []domain.CatalogEntry, ts time.Time, location, date string, maxEvents int) {
	for _, e := range added {
		s.Events = append(s.Events, domain.Event{
			Kind:       domain.EventAdded,
			Title:      e.Title,
			URL:        e.URL,
			DetectedAt: ts,
			Location:   location,
			Date:       date,
		})
	}
	for _, e := range removed {
		s.Events = append(s.Events, domain.Event{
			Kind:       domain.EventRemoved,
			Title:      e.Title,
			URL:        e.URL,
			DetectedAt: ts,
			Location:   location,
			Date:       date,
		})
	}

	if maxEvents > 0 && len(s.Events) > maxEvents {
		trimmed := make([]domain.Event, maxEvents)
		copy(trimmed, s.Events[len(s.Events)-maxEvents:])
		s.Events = trimmed
	}
}

// UpdateSnapshot rebuilds the snapshot from the current listing. A URL
// already present keeps its FirstSeen and gets LastSeen = now; a new URL
// gets both set to now. URLs absent from the listing are dropped
// entirely; their disappearance lives only in the event log.
func (s *State) UpdateSnapshot(current []domain.Movie, now time.Time) {
	next := make(map[string]domain.SnapshotRecord, len(current))
	for i := range current {
		m := &current[i]
		rec := domain.SnapshotRecord{
			Title:     m.Title,
			FirstSeen: now,
			LastSeen:  now,
		}
		if prev, ok := s.Snapshot[m.URL]; ok {
			rec.FirstSeen = prev.FirstSeen
		}
		next[m.URL] = rec
	}
	s.Snapshot = next
}
