// Package feed serializes the change log and the current catalog
// listing into RSS 2.0 documents.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jonesrussell/cinefeed/internal/domain"
)

const contentNamespace = "http://purl.org/rss/1.0/modules/content/"

// Meta describes the channel element of a generated feed.
type Meta struct {
	Title       string
	Link        string
	Description string
}

// Item is a single entry of a generated feed.
type Item struct {
	Title       string
	Link        string
	GUID        string
	IsPermaLink bool
	PubDate     time.Time
	Description string
	// ContentHTML, when non-empty, is emitted as a CDATA-wrapped
	// content:encoded block.
	ContentHTML string
}

// EventGUID derives the synthetic identifier of a change event.
// Identical (kind, url, detectedAt) triples always produce the same
// identifier across independent rebuilds; a later re-addition of the
// same URL carries a new timestamp and therefore a new identifier,
// which is what triggers a fresh subscriber notification.
func EventGUID(kind domain.EventKind, url string, detectedAt time.Time) string {
	raw := fmt.Sprintf("event:%s|%s|%s", kind, url, detectedAt.UTC().Format(time.RFC3339))
	sum := sha256.Sum256([]byte(raw))
	return "urn:sha256:" + hex.EncodeToString(sum[:])
}

// BuildCatalog renders the catalog feed: recent change events first,
// most recent on top, followed by the current listing. Current items
// take their publish date from the snapshot's firstSeen so rebuilding
// an unchanged catalog never produces spurious "new item" signals.
func BuildCatalog(
	meta Meta,
	now time.Time,
	events []domain.Event,
	eventsLimit int,
	current []domain.Movie,
	snapshot map[string]domain.SnapshotRecord,
) string {
	items := make([]Item, 0, len(events)+len(current))
	for _, ev := range recentEvents(events, eventsLimit) {
		items = append(items, eventItem(ev, meta.Link, now))
	}
	for _, m := range current {
		items = append(items, movieItem(m, snapshot, now))
	}
	return Render(meta, now, items)
}

// recentEvents returns the newest events first, capped at limit. A zero
// limit hides events entirely; a negative limit keeps them all.
func recentEvents(events []domain.Event, limit int) []domain.Event {
	if limit == 0 || len(events) == 0 {
		return nil
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	out := make([]domain.Event, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}

func eventItem(ev domain.Event, feedLink string, now time.Time) Item {
	prefix := "➕ Added: "
	if ev.Kind == domain.EventRemoved {
		prefix = "➖ Removed: "
	}
	title := prefix + ev.Title

	link := ev.URL
	if link == "" {
		link = feedLink
	}
	pub := ev.DetectedAt
	if pub.IsZero() {
		pub = now
	}

	return Item{
		Title:       title,
		Link:        link,
		GUID:        EventGUID(ev.Kind, ev.URL, ev.DetectedAt),
		PubDate:     pub,
		Description: fmt.Sprintf("%s\nlocation=%s, date=%s\n%s", title, ev.Location, ev.Date, feedLink),
	}
}

func movieItem(m domain.Movie, snapshot map[string]domain.SnapshotRecord, now time.Time) Item {
	pub := now
	if rec, ok := snapshot[m.URL]; ok && !rec.FirstSeen.IsZero() {
		pub = rec.FirstSeen
	}

	return Item{
		Title:       m.Title,
		Link:        m.URL,
		GUID:        m.URL,
		IsPermaLink: true,
		PubDate:     pub,
		Description: "Now showing: " + m.Title,
		ContentHTML: movieContentHTML(m),
	}
}

// movieContentHTML renders the reader-facing body of a current item:
// the description paragraph plus the upcoming sessions as a list.
func movieContentHTML(m domain.Movie) string {
	var b strings.Builder
	if m.Description != "" {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(m.Description))
		b.WriteString("</p>")
	}
	if len(m.Sessions) == 0 {
		return b.String()
	}

	b.WriteString("<ul>")
	for _, s := range m.Sessions {
		line := s.Date + " " + s.Time
		if s.Hall != "" {
			line += ", " + s.Hall
		}
		if s.Info != "" {
			line += " (" + s.Info + ")"
		}
		if s.VenueName != "" {
			line += " @ " + s.VenueName
		}

		b.WriteString("<li>")
		b.WriteString(html.EscapeString(line))
		if s.PurchaseURL != "" {
			b.WriteString(` <a href="`)
			b.WriteString(html.EscapeString(s.PurchaseURL))
			b.WriteString(`">tickets</a>`)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// Render assembles an RSS 2.0 document from channel metadata and items.
func Render(meta Meta, now time.Time, items []Item) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString(`<rss version="2.0" xmlns:content="` + contentNamespace + "\">\n")
	b.WriteString("<channel>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", xmlEscape(meta.Title))
	fmt.Fprintf(&b, "<link>%s</link>\n", xmlEscape(meta.Link))
	fmt.Fprintf(&b, "<description>%s</description>\n", xmlEscape(meta.Description))
	fmt.Fprintf(&b, "<lastBuildDate>%s</lastBuildDate>\n", rssTime(now))

	for _, it := range items {
		b.WriteString("<item>\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", xmlEscape(it.Title))
		fmt.Fprintf(&b, "<link>%s</link>\n", xmlEscape(it.Link))
		permalink := "false"
		if it.IsPermaLink {
			permalink = "true"
		}
		fmt.Fprintf(&b, "<guid isPermaLink=%q>%s</guid>\n", permalink, xmlEscape(it.GUID))
		fmt.Fprintf(&b, "<pubDate>%s</pubDate>\n", rssTime(it.PubDate))
		fmt.Fprintf(&b, "<description>%s</description>\n", xmlEscape(it.Description))
		if it.ContentHTML != "" {
			fmt.Fprintf(&b, "<content:encoded><![CDATA[%s]]></content:encoded>\n", cdataSafe(it.ContentHTML))
		}
		b.WriteString("</item>\n")
	}

	b.WriteString("</channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

// cdataSafe splits any "]]>" in the payload so it cannot terminate the
// surrounding CDATA section.
func cdataSafe(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func rssTime(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}
