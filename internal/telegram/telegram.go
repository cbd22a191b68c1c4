// Package telegram republishes public Telegram channels as RSS feeds by
// scraping the t.me/s/ preview pages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/cinefeed/internal/feed"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/output"
)

const (
	defaultBaseURL   = "https://t.me/s/"
	defaultPostLimit = 5
	defaultTimeout   = 30 * time.Second
	titleRuneLimit   = 100
)

// ErrNoPosts is returned when a channel page parses cleanly but carries
// no messages, which usually means the channel preview is unavailable.
var ErrNoPosts = errors.New("no posts found")

// Post is one message scraped from a channel preview page.
type Post struct {
	Link      string
	Text      string
	Published time.Time
}

// Config holds the channel-sync settings.
type Config struct {
	// BaseURL is the preview endpoint posts are fetched from.
	BaseURL string
	// PostLimit caps how many of the newest posts each feed keeps.
	PostLimit int
	// Timeout bounds one channel page fetch.
	Timeout   time.Duration
	UserAgent string
}

// Result summarizes one channel-sync batch.
type Result struct {
	// Synced lists channels whose feed was written this batch.
	Synced []string
	// Failed lists channels whose fetch or parse failed.
	Failed []string
}

// Syncer fetches channel previews and writes one RSS document per
// channel. A single channel failure never stops the batch.
type Syncer struct {
	cfg    Config
	client *http.Client
	log    logger.Interface
}

// New creates a channel syncer, filling unset config fields with
// defaults.
func New(cfg Config, log logger.Interface) *Syncer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = defaultPostLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Syncer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Sync fetches every configured channel and writes <channel>.xml under
// outDir. Failed channels are logged and reported in the result.
func (s *Syncer) Sync(ctx context.Context, channels []string, outDir string, now time.Time) Result {
	var res Result
	for _, channel := range channels {
		if err := s.syncChannel(ctx, channel, outDir, now); err != nil {
			s.log.Error("channel sync failed", "channel", channel, "error", err)
			res.Failed = append(res.Failed, channel)
			continue
		}
		res.Synced = append(res.Synced, channel)
	}
	return res
}

func (s *Syncer) syncChannel(ctx context.Context, channel, outDir string, now time.Time) error {
	posts, err := s.FetchChannel(ctx, channel)
	if err != nil {
		return err
	}

	doc := s.BuildFeed(channel, posts, now)
	path := filepath.Join(outDir, channel+".xml")
	if writeErr := output.WriteFileAtomic(path, []byte(doc)); writeErr != nil {
		return fmt.Errorf("write channel feed: %w", writeErr)
	}

	s.log.Info("channel synced", "channel", channel, "posts", len(posts))
	return nil
}

// FetchChannel downloads and parses one channel preview page, returning
// the newest posts first, capped at the configured post limit.
func (s *Syncer) FetchChannel(ctx context.Context, channel string) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+channel, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch channel %s: unexpected status %d", channel, resp.StatusCode)
	}

	posts, err := ParsePosts(resp.Body, channel)
	if err != nil {
		return nil, err
	}
	if len(posts) > s.cfg.PostLimit {
		posts = posts[len(posts)-s.cfg.PostLimit:]
	}

	// page order is oldest first, feeds want newest first
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return posts, nil
}

// ParsePosts extracts posts from a t.me/s/ preview page. Messages
// without a post identifier (service messages) are skipped.
func ParsePosts(r io.Reader, channel string) ([]Post, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse channel page: %w", err)
	}

	var posts []Post
	doc.Find(".tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		ref, ok := sel.Attr("data-post")
		if !ok || ref == "" {
			return
		}

		post := Post{
			Link: "https://t.me/" + ref,
			Text: strings.TrimSpace(sel.Find(".tgme_widget_message_text").First().Text()),
		}
		if stamp, exists := sel.Find("time[datetime]").First().Attr("datetime"); exists {
			if parsed, parseErr := time.Parse(time.RFC3339, stamp); parseErr == nil {
				post.Published = parsed
			}
		}
		posts = append(posts, post)
	})

	if len(posts) == 0 {
		return nil, fmt.Errorf("channel %s: %w", channel, ErrNoPosts)
	}
	return posts, nil
}

// BuildFeed renders the RSS document for one channel from posts in
// newest-first order.
func (s *Syncer) BuildFeed(channel string, posts []Post, now time.Time) string {
	meta := feed.Meta{
		Title:       "Telegram: @" + channel,
		Link:        "https://t.me/s/" + channel,
		Description: "Latest posts from @" + channel,
	}

	items := make([]feed.Item, 0, len(posts))
	for _, p := range posts {
		pub := p.Published
		if pub.IsZero() {
			pub = now
		}
		items = append(items, feed.Item{
			Title:       postTitle(p, channel),
			Link:        p.Link,
			GUID:        p.Link,
			IsPermaLink: true,
			PubDate:     pub,
			Description: p.Text,
		})
	}
	return feed.Render(meta, now, items)
}

// postTitle derives an item title from the first line of the post text.
func postTitle(p Post, channel string) string {
	line := p.Text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "@" + channel + " post"
	}

	runes := []rune(line)
	if len(runes) > titleRuneLimit {
		line = string(runes[:titleRuneLimit]) + "…"
	}
	return line
}
