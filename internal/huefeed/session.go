package huefeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/metrics"
)

// ErrSessionNegotiationFailed is returned when the upstream site keeps asking
// for a reload after the attempt budget is spent.
var ErrSessionNegotiationFailed = errors.New("session-negotiation-failed")

var sessionCookiePattern = regexp.MustCompile(`document\.cookie="D1N=([A-Za-z0-9]+)"`)

// CookieJar holds the session token scraped from upstream responses.
// A jar belongs to exactly one feed run.
type CookieJar struct {
	token string
}

// Token returns the current session token, or "" when none was seen yet.
func (j *CookieJar) Token() string {
	return j.token
}

// Set stores a new session token.
func (j *CookieJar) Set(token string) {
	j.token = token
}

func (j *CookieJar) header() string {
	if j.token == "" {
		return ""
	}
	return sessionCookieName + "=" + j.token
}

// Request describes the optional body and headers of a logical request.
// A non-empty Body turns the request into a POST.
type Request struct {
	Body   string
	Header http.Header
}

func (r Request) method() string {
	if r.Body != "" {
		return http.MethodPost
	}
	return http.MethodGet
}

// Waiter gates outbound requests, typically a rate limiter.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Session issues requests for a single feed run. It is not safe for
// concurrent use; every run builds its own.
type Session struct {
	baseURL     string
	jar         *CookieJar
	collector   *colly.Collector
	transport   *contextTransport
	limiter     Waiter
	maxAttempts int
	logger      *zap.Logger

	// Populated by the collector hooks for the exchange in flight.
	status   int
	body     []byte
	fetchErr error
}

type sessionConfig struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
	RespectRobots  bool
	MaxAttempts    int
}

func newSession(cfg sessionConfig, base http.RoundTripper, limiter Waiter, logger *zap.Logger) *Session {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxSessionAttempts
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		jar:         &CookieJar{},
		transport:   &contextTransport{base: base, ctx: context.Background()},
		limiter:     limiter,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
	}
	s.collector = s.buildCollector(cfg)
	return s
}

// A fresh collector per session keeps colly's backend (and any cookie state
// it might hold) private to one run. Only the pooled transport is shared.
func (s *Session) buildCollector(cfg sessionConfig) *colly.Collector {
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.DisableCookies()
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	c.ParseHTTPErrorResponse = true
	// Markers can sit at the tail of large pages; read bodies in full.
	c.MaxBodySize = 0
	c.WithTransport(s.transport)
	c.SetRequestTimeout(cfg.RequestTimeout)
	s.configureHooks(c)
	return c
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

func (s *Session) configureHooks(hooks collectorHooks) {
	hooks.OnResponse(func(r *colly.Response) {
		s.status = r.StatusCode
		s.body = append([]byte(nil), r.Body...)
	})
	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			s.status = r.StatusCode
		}
		s.fetchErr = err
	})
}

// Jar exposes the session's cookie jar.
func (s *Session) Jar() *CookieJar {
	return s.jar
}

// Fetch performs one logical request. When the body carries a session cookie
// script the token is stored, and if the page also asks for a reload the same
// request is reissued with the new cookie. Transport failures are returned
// as-is and never retried here.
func (s *Session) Fetch(ctx context.Context, path string, req Request) (string, error) {
	target := s.baseURL + path
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		body, err := s.exchange(ctx, target, req)
		if err != nil {
			return "", err
		}
		match := sessionCookiePattern.FindStringSubmatch(body)
		if match == nil {
			return body, nil
		}
		s.jar.Set(match[1])
		if !strings.Contains(body, reloadMarker) {
			return body, nil
		}
		metrics.ObserveSessionRetry()
		s.logger.Debug("upstream requested reload with new session cookie",
			zap.String("path", path),
			zap.Int("attempt", attempt),
		)
	}
	return "", fmt.Errorf("%w: %s still requesting reload after %d attempts",
		ErrSessionNegotiationFailed, path, s.maxAttempts)
}

func (s *Session) exchange(ctx context.Context, target string, req Request) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, target); err != nil {
			return "", err
		}
	}
	header := http.Header{}
	for key, values := range req.Header {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	if cookie := s.jar.header(); cookie != "" {
		header.Set("Cookie", cookie)
	}

	s.status, s.body, s.fetchErr = 0, nil, nil
	s.transport.ctx = ctx
	method := req.method()
	status, err := s.runCollector(ctx, method, target, req.Body, header)
	metrics.ObserveUpstreamRequest(method, status)
	if err != nil {
		return "", err
	}
	if status >= http.StatusBadRequest {
		s.logger.Warn("upstream returned error status",
			zap.String("url", target),
			zap.Int("status", status),
		)
	}
	return string(s.body), nil
}

func (s *Session) runCollector(ctx context.Context, method, target, body string, header http.Header) (int, error) {
	var payload *strings.Reader
	if body != "" {
		payload = strings.NewReader(body)
	}
	done := make(chan error, 1)
	go func() {
		if payload == nil {
			done <- s.collector.Request(method, target, nil, nil, header)
			return
		}
		done <- s.collector.Request(method, target, payload, nil, header)
	}()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("upstream request canceled: %w", ctx.Err())
	case err := <-done:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("upstream request canceled: %w", ctxErr)
		}
		if err != nil {
			return s.status, fmt.Errorf("upstream %s %s: %w", method, target, err)
		}
		if s.fetchErr != nil {
			return s.status, fmt.Errorf("upstream %s %s: %w", method, target, s.fetchErr)
		}
		return s.status, nil
	}
}

// contextTransport binds outbound requests to the context of the fetch that
// issued them, so canceling a run aborts the request in flight.
type contextTransport struct {
	base http.RoundTripper
	ctx  context.Context
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}
	return resp, nil
}
