package huefeed

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/metrics"
)

// Config controls the feed client.
type Config struct {
	BaseURL            string
	LandingPath        string
	FragmentPath       string
	UserAgent          string
	RequestTimeout     time.Duration
	Budget             time.Duration
	MaxSessionAttempts int
	MaxArticles        int
	RespectRobots      bool
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.LandingPath == "" {
		c.LandingPath = DefaultLandingPath
	}
	if c.FragmentPath == "" {
		c.FragmentPath = DefaultFragmentPath
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.Budget <= 0 {
		c.Budget = 25 * time.Second
	}
	if c.MaxSessionAttempts <= 0 {
		c.MaxSessionAttempts = DefaultMaxSessionAttempts
	}
	if c.MaxArticles <= 0 || c.MaxArticles > DefaultMaxArticles {
		c.MaxArticles = DefaultMaxArticles
	}
	return c
}

// Client runs the feed pipeline. A Client is safe for concurrent use: every
// Fetch gets its own session and cookie jar, and only the connection pool and
// rate limiter are shared.
type Client struct {
	cfg       Config
	base      *url.URL
	source    string
	transport http.RoundTripper
	limiter   Waiter
	logger    *zap.Logger
}

// New builds a Client. limiter may be nil.
func New(cfg Config, limiter Waiter, logger *zap.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	source := strings.TrimRight(cfg.BaseURL, "/")
	base, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:       cfg,
		base:      base,
		source:    source,
		transport: newHTTPTransport(),
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// Source is the origin reported in every feed.
func (c *Client) Source() string {
	return c.source
}

// NewSession returns a session with an empty cookie jar.
func (c *Client) NewSession() *Session {
	return newSession(sessionConfig{
		BaseURL:        c.source,
		UserAgent:      c.cfg.UserAgent,
		RequestTimeout: c.cfg.RequestTimeout,
		RespectRobots:  c.cfg.RespectRobots,
		MaxAttempts:    c.cfg.MaxSessionAttempts,
	}, c.transport, c.limiter, c.logger)
}

// Fetch runs the whole pipeline within the configured budget: landing page,
// widget extraction, fragment resolution and article parsing.
func (c *Client) Fetch(ctx context.Context) (Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Budget)
	defer cancel()

	start := time.Now()
	feed, err := c.run(ctx)
	if err != nil {
		metrics.ObserveFeedRun("error", 0)
		return Feed{}, err
	}
	outcome := "ok"
	if len(feed.Articles) == 0 {
		outcome = "empty"
	}
	metrics.ObserveFeedRun(outcome, len(feed.Articles))
	c.logger.Info("hue feed fetched",
		zap.Int("articles", len(feed.Articles)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return feed, nil
}

func (c *Client) run(ctx context.Context) (Feed, error) {
	session := c.NewSession()
	landing, err := session.Fetch(ctx, c.cfg.LandingPath, Request{})
	if err != nil {
		return Feed{}, fmt.Errorf("fetch landing page: %w", err)
	}
	payloads, err := ExtractWidgetPayloads(landing, c.logger)
	if err != nil {
		return Feed{}, err
	}
	fragment, err := ResolveFragment(ctx, session, c.cfg.FragmentPath, payloads)
	if err != nil {
		return Feed{}, fmt.Errorf("resolve fragment: %w", err)
	}
	if fragment == "" {
		c.logger.Debug("no widget yielded the listing fragment", zap.Int("widgets", len(payloads)))
	}
	articles, err := ParseArticles(fragment, c.base)
	if err != nil {
		return Feed{}, err
	}
	if len(articles) > c.cfg.MaxArticles {
		articles = articles[:c.cfg.MaxArticles]
	}
	return Feed{Source: c.source, Articles: articles}, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
}
