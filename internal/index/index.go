// Package index builds the static landing page listing every generated
// feed, plus a companion RSS document of the same listing.
package index

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/jonesrussell/cinefeed/internal/feed"
	"github.com/jonesrussell/cinefeed/internal/output"
)

//go:embed index.gohtml
var pageSource string

var pageTemplate = template.Must(template.New("index").Parse(pageSource))

// Kind groups feed links into sections on the index page.
type Kind string

const (
	// KindCinema marks catalog feeds.
	KindCinema Kind = "cineplexx"
	// KindTelegram marks channel feeds.
	KindTelegram Kind = "telegram"
)

// FeedLink is one entry on the index page.
type FeedLink struct {
	Kind  Kind
	Title string
	// Href is the feed's path relative to the output dir, e.g. "durov.xml".
	Href     string
	Subtitle string
}

type section struct {
	Title string
	Hint  string
	Feeds []FeedLink
}

type pageData struct {
	SiteTitle  string
	Updated    string
	StatusHref string
	Sections   []section
}

// BuildHTML renders the index page.
func BuildHTML(feeds []FeedLink, siteTitle string, lastUpdated time.Time) (string, error) {
	var cinema, channels, other []FeedLink
	for _, f := range feeds {
		switch f.Kind {
		case KindCinema:
			cinema = append(cinema, f)
		case KindTelegram:
			channels = append(channels, f)
		default:
			other = append(other, f)
		}
	}

	sections := []section{
		{Title: "Cineplexx", Hint: "Cinema feeds generated from the rendered catalog.", Feeds: cinema},
		{Title: "Telegram", Hint: "Public channel feeds parsed from t.me/s/<channel>.", Feeds: channels},
	}
	if len(other) > 0 {
		sections = append(sections, section{Title: "Other", Feeds: other})
	}

	data := pageData{
		SiteTitle:  siteTitle,
		Updated:    formatUpdated(lastUpdated),
		StatusHref: "status.json",
		Sections:   sections,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render index page: %w", err)
	}
	return buf.String(), nil
}

// BuildXML renders the RSS listing of all feeds. Every item is keyed by
// its relative href.
func BuildXML(feeds []FeedLink, siteTitle string, lastUpdated time.Time) string {
	meta := feed.Meta{
		Title:       siteTitle,
		Link:        "index.html",
		Description: siteTitle + " feeds index",
	}

	items := make([]feed.Item, 0, len(feeds))
	for _, f := range feeds {
		items = append(items, feed.Item{
			Title:       f.Title,
			Link:        f.Href,
			GUID:        f.Href,
			PubDate:     lastUpdated,
			Description: f.Subtitle,
		})
	}
	return feed.Render(meta, lastUpdated, items)
}

// Rebuild writes index.html and index.xml under outDir atomically.
func Rebuild(outDir string, feeds []FeedLink, siteTitle string, lastUpdated time.Time) error {
	page, err := BuildHTML(feeds, siteTitle, lastUpdated)
	if err != nil {
		return err
	}
	if writeErr := output.WriteFileAtomic(filepath.Join(outDir, "index.html"), []byte(page)); writeErr != nil {
		return fmt.Errorf("write index.html: %w", writeErr)
	}

	listing := BuildXML(feeds, siteTitle, lastUpdated)
	if writeErr := output.WriteFileAtomic(filepath.Join(outDir, "index.xml"), []byte(listing)); writeErr != nil {
		return fmt.Errorf("write index.xml: %w", writeErr)
	}
	return nil
}

func formatUpdated(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
