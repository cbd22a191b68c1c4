package renderer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
)

// Config holds browser renderer settings.
type Config struct {
	// BaseURL is the catalog site root, without a trailing slash.
	BaseURL string
	// UserAgent is sent with every page load.
	UserAgent string
	// NavigationTimeout bounds a single page render.
	NavigationTimeout time.Duration
	// SettleDelay is how long to wait after navigation for the SPA to
	// finish painting dynamic blocks that have no reliable selector.
	SettleDelay time.Duration
}

// DefaultNavigationTimeout bounds a single page render when the config
// does not say otherwise.
const DefaultNavigationTimeout = 60 * time.Second

// defaultSettleDelay is applied when the config does not set one.
const defaultSettleDelay = 2 * time.Second

// defaultUserAgent identifies the worker to the catalog site.
const defaultUserAgent = "Mozilla/5.0 cinefeed"

// ChromeRenderer implements PageRenderer on a shared headless Chrome
// process. Each render runs in its own tab.
type ChromeRenderer struct {
	cfg      Config
	logger   logger.Interface
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeRenderer starts a headless browser allocator and returns a
// renderer bound to it. Close must be called to shut the browser down.
func NewChromeRenderer(cfg Config, log logger.Interface) (*ChromeRenderer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("renderer: base URL is required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = DefaultNavigationTimeout
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("lang", "en-US"),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		cfg:      cfg,
		logger:   log.WithComponent("renderer"),
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Close shuts down the browser process.
func (r *ChromeRenderer) Close() {
	r.cancel()
}

// RenderListing renders the listing page for one location and date.
func (r *ChromeRenderer) RenderListing(ctx context.Context, location, date string) ([]domain.CatalogEntry, error) {
	listURL := fmt.Sprintf("%s/cinemas?location=%s&date=%s", r.cfg.BaseURL, location, date)

	var entries []domain.CatalogEntry
	err := r.run(ctx,
		chromedp.Navigate(listURL),
		chromedp.WaitVisible(`a[href*="/film/"]`, chromedp.ByQuery),
		chromedp.Evaluate(listingScript, &entries),
	)
	if err != nil {
		return nil, fmt.Errorf("render listing %s: %w", listURL, err)
	}

	for i := range entries {
		entries[i].Title = NormalizeSpace(entries[i].Title)
	}
	return entries, nil
}

// RenderDescription renders a film page and extracts its description.
func (r *ChromeRenderer) RenderDescription(ctx context.Context, url string) (string, error) {
	var desc string
	err := r.run(ctx,
		chromedp.Navigate(url),
		// The cookie consent overlay blocks the expand button.
		chromedp.Evaluate(dismissCookieScript, nil),
		chromedp.WaitVisible(`.b-movie-description__text, .b-movie-description`, chromedp.ByQuery),
		chromedp.Evaluate(expandDescriptionScript, nil),
		chromedp.Sleep(r.cfg.SettleDelay),
		chromedp.Evaluate(descriptionScript, &desc),
	)
	if err != nil {
		return "", fmt.Errorf("render description %s: %w", url, err)
	}

	return NormalizeSpace(desc), nil
}

// RenderSchedule renders a film page scoped to one date and location and
// extracts its session slots. The session block has no stable loading
// selector, so the render settles on a fixed delay; an absent block
// yields an empty slice, not an error.
func (r *ChromeRenderer) RenderSchedule(ctx context.Context, url, location, date string) ([]domain.Session, error) {
	pageURL := fmt.Sprintf("%s?date=%s&location=%s", strings.SplitN(url, "?", 2)[0], date, location)

	var sessions []domain.Session
	err := r.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.cfg.SettleDelay),
		chromedp.Evaluate(scheduleScript, &sessions),
	)
	if err != nil {
		return nil, fmt.Errorf("render schedule %s: %w", pageURL, err)
	}

	for i := range sessions {
		sessions[i].Date = date
	}
	return sessions, nil
}

// run executes the actions in a fresh tab under the navigation timeout.
func (r *ChromeRenderer) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()

	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	defer cancelTimeout()

	// Honor caller cancellation as well as the navigation timeout.
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(timeoutCtx, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancelTimeout()
		return ctx.Err()
	}
}

// spaceRe collapses whitespace runs.
var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses all whitespace runs to single spaces and
// trims the result.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
