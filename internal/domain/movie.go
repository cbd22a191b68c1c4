// Package domain provides domain models used across the application.
package domain

import "strings"

// CatalogEntry is a single title discovered on a rendered listing page.
// Entries are identified by their canonical URL; the first non-empty
// title seen for a URL wins when listings from several dates are merged.
type CatalogEntry struct {
	// Title of the movie as shown on the listing page
	Title string `json:"title"`
	// URL is the canonical film page URL (query string stripped)
	URL string `json:"url"`
}

// Session is one bookable screening slot of a movie on a calendar date.
type Session struct {
	// Date of the screening in ISO format (YYYY-MM-DD)
	Date string `json:"date"`
	// Time of the screening as displayed (e.g. "20:15")
	Time string `json:"time"`
	// Hall name within the venue
	Hall string `json:"hall,omitempty"`
	// Info carries format/language annotations (e.g. "3D", "OV")
	Info string `json:"info,omitempty"`
	// SessionID is the site's internal screening identifier
	SessionID string `json:"session_id,omitempty"`
	// VenueName is the cinema the screening belongs to
	VenueName string `json:"venue_name,omitempty"`
	// PurchaseURL links to the ticket purchase page
	PurchaseURL string `json:"purchase_url,omitempty"`
}

// Movie is a catalog entry enriched with its description and upcoming
// sessions. Sessions are ordered by the lookahead date they were
// discovered in, then by discovery order within that date.
type Movie struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Sessions    []Session `json:"sessions,omitempty"`
}

// Valid reports whether the movie carries enough identity to be
// included in any output.
func (m *Movie) Valid() bool {
	return m.Title != "" && m.URL != ""
}

// SortKey returns the key movies are ordered by in the final listing.
func (m *Movie) SortKey() string {
	return strings.ToLower(m.Title) + "\x00" + m.URL
}
