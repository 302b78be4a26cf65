package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/huefeed"
	"github.com/sotaychohdv/hdv-functions/internal/metrics"
	"github.com/sotaychohdv/hdv-functions/internal/queue"
	"github.com/sotaychohdv/hdv-functions/internal/sharecard"
)

// ShareCards builds provider share cards.
type ShareCards interface {
	Build(ctx context.Context, id, baseURL string) (sharecard.Card, error)
}

// ProvinceResolver maps free text onto a canonical province name.
type ProvinceResolver interface {
	Resolve(raw string) string
}

// ReadinessCheck reports whether a downstream dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Deps are the collaborators behind the routes. Nil members disable their
// routes, which then answer 503.
type Deps struct {
	Feed      huefeed.Fetcher
	Share     ShareCards
	Events    queue.Enqueuer
	Provinces ProvinceResolver
	Ready     map[string]ReadinessCheck
}

// Config tunes handler behavior.
type Config struct {
	RequestTimeout    time.Duration
	ShareCacheControl string
}

// Server wires HTTP handlers to the feed client, stores and notifier queue.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    Config
	logger *zap.Logger
	render func(io.Writer, sharecard.Card) error
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.ShareCacheControl == "" {
		cfg.ShareCacheControl = sharecard.DefaultCacheControl
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		render: sharecard.Render,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Get("/hueGuideFeed", s.hueGuideFeed)
		r.Options("/hueGuideFeed", noContent)
	})

	r.Get("/share/provider/{id}", s.providerShareCard)
	r.Get("/providerShareCard", s.providerShareCard)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/guide-profiles/events", s.submitGuideProfileEvent)
		r.Get("/provinces/resolve", s.resolveProvince)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	failures := map[string]string{}
	for name, check := range s.deps.Ready {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		s.logger.Warn("readiness check failed", zap.Any("failures", failures))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failures})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
