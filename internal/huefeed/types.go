// Package huefeed scrapes the guide news listing from the Hue Department of
// Tourism website.
//
// The site hides its listing behind two obstacles: a session cookie that is
// handed out through an inline script instead of a Set-Cookie header, and a
// widget whose content is only returned when its JSON parameters are replayed
// as a form post. A feed run walks through both and parses the resulting
// fragment into a short list of articles.
package huefeed

import "context"

// Upstream defaults for sdl.hue.gov.vn.
const (
	DefaultBaseURL            = "https://sdl.hue.gov.vn"
	DefaultLandingPath        = "/huong-dan-vien.html"
	DefaultFragmentPath       = "/trang-chu"
	DefaultMaxArticles        = 6
	DefaultMaxSessionAttempts = 5
)

const (
	sessionCookieName = "D1N"
	reloadMarker      = "window.location.reload"
	fragmentMarker    = "page-content"
	formContentType   = "application/x-www-form-urlencoded; charset=UTF-8"
)

// Article is one news item from the listing fragment.
type Article struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Summary     string  `json:"summary"`
	PublishedAt string  `json:"publishedAt"`
	ImageURL    *string `json:"imageUrl"`
}

// Feed is the payload served to clients.
type Feed struct {
	Source   string    `json:"source"`
	Articles []Article `json:"articles"`
}

// Fetcher produces a feed.
type Fetcher interface {
	Fetch(ctx context.Context) (Feed, error)
}

// PageFetcher performs one logical request against the upstream site.
type PageFetcher interface {
	Fetch(ctx context.Context, path string, req Request) (string, error)
}
