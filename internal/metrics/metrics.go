// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	feedRunsTotal              *prometheus.CounterVec
	feedArticles               prometheus.Gauge
	upstreamRequestsTotal      *prometheus.CounterVec
	sessionRetriesTotal        prometheus.Counter
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	notificationsTotal         *prometheus.CounterVec
	notifyActiveWorkers        prometheus.Gauge
	guidesScrapedTotal         prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
			},
			[]string{"method", "route"},
		)

		feedRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hue_feed_runs_total",
				Help: "Hue guide feed pipeline runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		feedArticles = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hue_feed_articles",
				Help: "Number of articles returned by the last successful feed run.",
			},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hue_feed_upstream_requests_total",
				Help: "Requests issued to the upstream tourism site, labeled by method and status.",
			},
			[]string{"method", "status"},
		)

		sessionRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hue_feed_session_retries_total",
				Help: "Requests reissued after the upstream site set a session cookie and asked for a reload.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expiry_notifications_total",
				Help: "Card expiry reminder decisions, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		notifyActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notify_active_workers",
				Help: "Number of notifier workers currently handling an event.",
			},
		)

		guidesScrapedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guides_scraped_total",
				Help: "Guide records parsed from the national registry.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveFeedRun records one feed pipeline outcome and, on success, the article count.
func ObserveFeedRun(outcome string, articles int) {
	Init()
	feedRunsTotal.WithLabelValues(outcome).Inc()
	if outcome != "error" {
		feedArticles.Set(float64(articles))
	}
}

// ObserveUpstreamRequest counts one request to the upstream site. A zero
// status means the request failed before a response arrived.
func ObserveUpstreamRequest(method string, status int) {
	Init()
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamRequestsTotal.WithLabelValues(method, label).Inc()
}

// ObserveSessionRetry counts one reload-driven reissue.
func ObserveSessionRetry() {
	Init()
	sessionRetriesTotal.Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveNotification increments the notification counter for the given outcome.
func ObserveNotification(outcome string) {
	Init()
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	notifyActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	notifyActiveWorkers.Dec()
}

// ObserveGuidesScraped adds n parsed registry records.
func ObserveGuidesScraped(n int) {
	Init()
	guidesScrapedTotal.Add(float64(n))
}
