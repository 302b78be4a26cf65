package huefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// guideNewsSite serves the landing page and answers widget replays. Only the
// guide-news widget yields the listing fragment.
func guideNewsSite(landing string, items int) func(http.ResponseWriter, *http.Request, int) {
	return func(w http.ResponseWriter, r *http.Request, _ int) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == DefaultLandingPath:
			writeHTML(w, landing)
		case r.Method == http.MethodPost && r.URL.Path == DefaultFragmentPath:
			if r.PostForm.Get("widget") == "guide-news" {
				writeHTML(w, fragmentWithItems(items))
				return
			}
			writeHTML(w, `<div class="widget-placeholder">Đang tải</div>`)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestClientFetchSecondWidgetYieldsArticles(t *testing.T) {
	t.Parallel()

	site, srv := startSite(t, guideNewsSite(landingWithTwoWidgets, 3))
	client := newTestClient(t, srv.URL, nil)

	feed, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, srv.URL, feed.Source)
	require.Len(t, feed.Articles, 3)
	for i, a := range feed.Articles {
		require.Equal(t, fmt.Sprintf("Tin %d", i+1), a.Title)
		require.Equal(t, fmt.Sprintf("%s/tin-tuc/tin-%d.html", srv.URL, i+1), a.URL)
		require.NotNil(t, a.ImageURL)
		require.Equal(t, fmt.Sprintf("%s/uploads/%d.jpg", srv.URL, i+1), *a.ImageURL)
		require.Equal(t, "12/03/2025", a.PublishedAt)
	}

	reqs := site.recorded()
	require.Len(t, reqs, 3)
	require.Equal(t, map[string]string{"widget": "banner", "page": "1"}, reqs[1].Form)
	require.Equal(t, map[string]string{"widget": "guide-news", "page": "2", "cat": ""}, reqs[2].Form)
}

func TestClientFetchWithoutWidgetsReturnsEmptyList(t *testing.T) {
	t.Parallel()

	site, srv := startSite(t, guideNewsSite(landingWithoutWidgets, 3))
	client := newTestClient(t, srv.URL, nil)

	feed, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, feed.Articles)
	require.Empty(t, feed.Articles)
	require.Len(t, site.recorded(), 1)

	data, err := json.Marshal(feed)
	require.NoError(t, err)
	require.Contains(t, string(data), `"articles":[]`)
}

func TestClientFetchFollowsSessionReload(t *testing.T) {
	t.Parallel()

	inner := guideNewsSite(landingWithTwoWidgets, 2)
	site, srv := startSite(t, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			writeHTML(w, fmt.Sprintf(cookieReloadPage, "S3SS10N"))
			return
		}
		inner(w, r, n)
	})
	client := newTestClient(t, srv.URL, nil)

	feed, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Articles, 2)

	reqs := site.recorded()
	require.Len(t, reqs, 4)
	require.Empty(t, reqs[0].Cookie)
	for _, r := range reqs[1:] {
		require.Equal(t, "D1N=S3SS10N", r.Cookie)
	}
	require.Equal(t, DefaultLandingPath, reqs[1].Path)
}

func TestClientFetchCapsArticles(t *testing.T) {
	t.Parallel()

	_, srv := startSite(t, guideNewsSite(landingWithTwoWidgets, 9))

	feed, err := newTestClient(t, srv.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Articles, DefaultMaxArticles)
	require.Equal(t, "Tin 6", feed.Articles[5].Title)

	feed, err = newTestClient(t, srv.URL, func(c *Config) { c.MaxArticles = 2 }).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Articles, 2)
}

func TestClientFetchClampsConfiguredCapAboveSix(t *testing.T) {
	t.Parallel()

	_, srv := startSite(t, guideNewsSite(landingWithTwoWidgets, 10))

	feed, err := newTestClient(t, srv.URL, func(c *Config) { c.MaxArticles = 10 }).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Articles, DefaultMaxArticles)
}

func TestClientFetchSkipsItemsWithoutTitleLink(t *testing.T) {
	t.Parallel()

	fragment := `<div class="page-content">` +
		articleItem("Tin 1", "/1.html", "") +
		`<div class="items"><div class="card-text">01/01/2025</div></div>` +
		articleItem("Tin 2", "/2.html", "") +
		`</div>`
	_, srv := startSite(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		if r.Method == http.MethodPost {
			writeHTML(w, fragment)
			return
		}
		writeHTML(w, landingWithTwoWidgets)
	})

	feed, err := newTestClient(t, srv.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Articles, 2)
	require.Equal(t, "Tin 1", feed.Articles[0].Title)
	require.Equal(t, "Tin 2", feed.Articles[1].Title)
}

func TestClientFetchEndlessReloadFails(t *testing.T) {
	t.Parallel()

	_, srv := startSite(t, func(w http.ResponseWriter, _ *http.Request, n int) {
		writeHTML(w, fmt.Sprintf(cookieReloadPage, fmt.Sprintf("t%d", n)))
	})

	_, err := newTestClient(t, srv.URL, nil).Fetch(context.Background())
	require.ErrorIs(t, err, ErrSessionNegotiationFailed)
}

func TestClientFetchBudgetExceeded(t *testing.T) {
	t.Parallel()

	_, srv := startSite(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		writeHTML(w, landingWithTwoWidgets)
	})
	client := newTestClient(t, srv.URL, func(c *Config) {
		c.RequestTimeout = 5 * time.Second
		c.Budget = 150 * time.Millisecond
	})

	start := time.Now()
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestClientConcurrentFetchesUseIndependentSessions(t *testing.T) {
	t.Parallel()

	// Each landing visit without a cookie gets a fresh token; replays must
	// present the token issued to their own run.
	issued := make(chan string, 16)
	site, srv := startSite(t, func(w http.ResponseWriter, r *http.Request, n int) {
		if r.Method == http.MethodGet && r.Header.Get("Cookie") == "" {
			token := fmt.Sprintf("T%d", n)
			issued <- token
			writeHTML(w, fmt.Sprintf(cookieReloadPage, token))
			return
		}
		guideNewsSite(landingWithTwoWidgets, 1)(w, r, n)
	})
	client := newTestClient(t, srv.URL, nil)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := client.Fetch(context.Background())
			errs <- err
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	close(issued)

	tokens := map[string]bool{}
	for tok := range issued {
		tokens["D1N="+tok] = true
	}
	require.Len(t, tokens, 2)
	for _, r := range site.recorded() {
		if r.Cookie == "" {
			continue
		}
		require.True(t, tokens[r.Cookie], r.Cookie)
		require.False(t, strings.Contains(r.Cookie, ","), r.Cookie)
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseURL: "sdl.hue.gov.vn"}, nil, nil)
	require.Error(t, err)
}
