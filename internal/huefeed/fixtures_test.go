package huefeed

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const landingWithTwoWidgets = `<html><body>
<div class="view-data-widget">
  <div class="data-widget" data-value="{&quot;widget&quot;:&quot;banner&quot;,&quot;page&quot;:1}"></div>
</div>
<div class="view-data-widget">
  <div class="data-widget" data-value='{"widget":"guide-news","page":2,"cat":null}'></div>
</div>
</body></html>`

const landingWithoutWidgets = `<html><body><div class="content">Xin chào</div></body></html>`

const cookieReloadPage = `<html><head><script>document.cookie="D1N=%s";window.location.reload();</script></head></html>`

func articleItem(title, href, image string) string {
	var b strings.Builder
	b.WriteString(`<div class="items">`)
	if image != "" {
		fmt.Fprintf(&b, `<div class="article-thumbnail"><img src="%s"></div>`, image)
	}
	b.WriteString(`<div class="listitems_other_right"><div class="line-clamp-2">`)
	if href == "" {
		fmt.Fprintf(&b, `<a>%s</a>`, title)
	} else {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, href, title)
	}
	fmt.Fprintf(&b, `<p class="desc">  Tóm tắt
		%s  </p></div></div>`, title)
	b.WriteString(`<div class="card-text">
	   12/03/2025 </div></div>`)
	return b.String()
}

func fragmentWithItems(n int) string {
	var b strings.Builder
	b.WriteString(`<div class="page-content">`)
	for i := 1; i <= n; i++ {
		b.WriteString(articleItem(fmt.Sprintf("Tin %d", i), fmt.Sprintf("/tin-tuc/tin-%d.html", i), fmt.Sprintf("/uploads/%d.jpg", i)))
	}
	b.WriteString(`</div>`)
	return b.String()
}

type recordedRequest struct {
	Method string
	Path   string
	Cookie string
	Form   map[string]string
	CType  string
}

// fakeSite is a scripted stand-in for the upstream tourism site.
type fakeSite struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request, n int)
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			for k := range r.PostForm {
				form[k] = r.PostForm.Get(k)
			}
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Cookie: r.Header.Get("Cookie"),
		Form:   form,
		CType:  r.Header.Get("Content-Type"),
	})
	n := len(s.requests)
	s.mu.Unlock()
	s.handle(w, r, n)
}

func (s *fakeSite) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func startSite(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, n int)) (*fakeSite, *httptest.Server) {
	t.Helper()
	site := &fakeSite{handle: handle}
	srv := httptest.NewServer(site)
	t.Cleanup(srv.Close)
	return site, srv
}

func newTestClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:        baseURL,
		RequestTimeout: 2 * time.Second,
		Budget:         5 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := New(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return client
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
