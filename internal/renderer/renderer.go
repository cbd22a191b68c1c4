// Package renderer provides the page renderer used to read the
// JavaScript-rendered catalog site. The catalog pages are a SPA, so a
// plain HTTP fetch returns no listing; rendering happens in a headless
// browser via chromedp.
package renderer

import (
	"context"

	"github.com/jonesrussell/cinefeed/internal/domain"
)

// PageRenderer renders catalog pages and extracts structured data.
// Every call carries an explicit timeout through its context; a timeout
// or navigation failure surfaces as an error the caller is expected to
// absorb as an empty result.
type PageRenderer interface {
	// RenderListing renders the listing page for one location and date
	// and returns the catalog entries found on it.
	RenderListing(ctx context.Context, location, date string) ([]domain.CatalogEntry, error)

	// RenderDescription renders a film page and returns its description
	// text. An empty string means the page carries no description.
	RenderDescription(ctx context.Context, url string) (string, error)

	// RenderSchedule renders a film page scoped to one date and location
	// and returns the session slots listed on it.
	RenderSchedule(ctx context.Context, url, location, date string) ([]domain.Session, error)
}
