package guides

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// PageSource returns the HTML of a registry page.
type PageSource interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// HTTPConfig controls the plain HTTP page source.
type HTTPConfig struct {
	UserAgent        string
	Timeout          time.Duration
	CloudflareBypass bool
}

// HTTPSource fetches registry pages with a resty client.
type HTTPSource struct {
	client *resty.Client
}

// NewHTTPSource builds an HTTPSource. transport may be nil.
func NewHTTPSource(cfg HTTPConfig, transport http.RoundTripper) *HTTPSource {
	client := resty.New()
	if transport != nil {
		client.SetTransport(transport)
	}
	if cfg.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if cfg.UserAgent != "" {
		client.SetHeader("user-agent", cfg.UserAgent)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client.SetTimeout(cfg.Timeout)
	return &HTTPSource{client: client}
}

// FetchPage GETs pageURL and returns the body. Non-2xx responses are errors.
func (s *HTTPSource) FetchPage(ctx context.Context, pageURL string) (string, error) {
	res, err := s.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("fetch registry page: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("fetch registry page: unexpected status %d", res.StatusCode())
	}
	return res.String(), nil
}
