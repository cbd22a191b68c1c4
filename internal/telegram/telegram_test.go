package telegram_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/telegram"
)

func channelPage(channel string, count int) string {
	var b strings.Builder
	b.WriteString("<html><body><section>")
	for i := 1; i <= count; i++ {
		fmt.Fprintf(&b, `
<div class="tgme_widget_message" data-post="%s/%d">
  <div class="tgme_widget_message_text">Post %d body
second line</div>
  <a class="tgme_widget_message_date" href="https://t.me/%s/%d">
    <time datetime="2026-02-0%dT10:00:00+00:00"></time>
  </a>
</div>`, channel, i, i, channel, i, i)
	}
	b.WriteString("</section></body></html>")
	return b.String()
}

func TestParsePostsExtractsLinkTextAndTime(t *testing.T) {
	posts, err := telegram.ParsePosts(strings.NewReader(channelPage("cinema", 2)), "cinema")
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "https://t.me/cinema/1", posts[0].Link)
	assert.Contains(t, posts[0].Text, "Post 1 body")
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), posts[0].Published.UTC())
}

func TestParsePostsSkipsServiceMessages(t *testing.T) {
	page := `<div class="tgme_widget_message"></div>
<div class="tgme_widget_message" data-post="cinema/7">
  <div class="tgme_widget_message_text">hello</div>
</div>`

	posts, err := telegram.ParsePosts(strings.NewReader(page), "cinema")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://t.me/cinema/7", posts[0].Link)
}

func TestParsePostsEmptyPageIsError(t *testing.T) {
	_, err := telegram.ParsePosts(strings.NewReader("<html><body></body></html>"), "cinema")
	require.Error(t, err)
	assert.ErrorIs(t, err, telegram.ErrNoPosts)
}

func TestFetchChannelKeepsNewestPostsFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, channelPage("cinema", 5))
	}))
	defer srv.Close()

	s := telegram.New(telegram.Config{BaseURL: srv.URL + "/", PostLimit: 3}, logger.NewNoOp())
	posts, err := s.FetchChannel(context.Background(), "cinema")
	require.NoError(t, err)

	require.Len(t, posts, 3)
	assert.Equal(t, "https://t.me/cinema/5", posts[0].Link)
	assert.Equal(t, "https://t.me/cinema/4", posts[1].Link)
	assert.Equal(t, "https://t.me/cinema/3", posts[2].Link)
}

func TestFetchChannelBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := telegram.New(telegram.Config{BaseURL: srv.URL + "/"}, logger.NewNoOp())
	_, err := s.FetchChannel(context.Background(), "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestSyncIsolatesChannelFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, channelPage(strings.TrimPrefix(r.URL.Path, "/"), 2))
	}))
	defer srv.Close()

	outDir := t.TempDir()
	s := telegram.New(telegram.Config{BaseURL: srv.URL + "/"}, logger.NewNoOp())
	res := s.Sync(context.Background(), []string{"first", "broken", "second"}, outDir, time.Now())

	assert.Equal(t, []string{"first", "second"}, res.Synced)
	assert.Equal(t, []string{"broken"}, res.Failed)

	_, err := os.Stat(filepath.Join(outDir, "first.xml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "second.xml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "broken.xml"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildFeedIsValidRSS(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	posts := []telegram.Post{
		{
			Link:      "https://t.me/cinema/9",
			Text:      "Premiere tonight & tickets <on sale>\nmore details inside",
			Published: now.Add(-time.Hour),
		},
	}

	s := telegram.New(telegram.Config{}, logger.NewNoOp())
	doc := s.BuildFeed("cinema", posts, now)

	parsed, err := gofeed.NewParser().ParseString(doc)
	require.NoError(t, err)
	assert.Equal(t, "Telegram: @cinema", parsed.Title)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "Premiere tonight & tickets <on sale>", parsed.Items[0].Title)
	assert.Equal(t, "https://t.me/cinema/9", parsed.Items[0].GUID)
}
