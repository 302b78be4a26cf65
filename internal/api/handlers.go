package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/queue"
	"github.com/sotaychohdv/hdv-functions/internal/sharecard"
)

const (
	feedErrorCode    = "failed-to-fetch-hue-feed"
	feedErrorMessage = "Không thể lấy dữ liệu từ sdl.hue.gov.vn"
	maxEventBytes    = 1 << 20
)

type feedError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) hueGuideFeed(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "feed not configured")
		return
	}
	feed, err := s.deps.Feed.Fetch(r.Context())
	if err != nil {
		s.logger.Error("hue guide feed failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, feedError{Error: feedErrorCode, Message: feedErrorMessage})
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) providerShareCard(w http.ResponseWriter, r *http.Request) {
	if s.deps.Share == nil {
		writeText(w, http.StatusServiceUnavailable, "Share cards are not configured")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		id = chi.URLParam(r, "id")
	}
	card, err := s.deps.Share.Build(r.Context(), strings.TrimSpace(id), sharecard.RequestBaseURL(r))
	switch {
	case errors.Is(err, sharecard.ErrMissingID):
		writeText(w, http.StatusBadRequest, "Missing provider id")
		return
	case errors.Is(err, sharecard.ErrProviderNotFound):
		writeText(w, http.StatusNotFound, "Provider not found")
		return
	case errors.Is(err, sharecard.ErrProviderUnavailable):
		writeText(w, http.StatusNotFound, "Provider not available")
		return
	case err != nil:
		s.logger.Error("build provider share card",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("provider_id", id),
			zap.Error(err),
		)
		writeText(w, http.StatusInternalServerError, "Failed to build share content")
		return
	}
	var page bytes.Buffer
	if err := s.render(&page, card); err != nil {
		s.logger.Error("render provider share card",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("provider_id", id),
			zap.Error(err),
		)
		writeText(w, http.StatusInternalServerError, "Failed to build share content")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", s.cfg.ShareCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
}

func (s *Server) submitGuideProfileEvent(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		writeError(w, http.StatusServiceUnavailable, "notifier not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	event, err := queue.DecodeEvent(body)
	if err != nil {
		msg := "invalid JSON"
		if errors.Is(err, queue.ErrMissingUID) {
			msg = "uid required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.deps.Events.Enqueue(r.Context(), event); err != nil {
		s.logger.Error("enqueue guide profile event",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("uid", event.Profile.UID),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) resolveProvince(w http.ResponseWriter, r *http.Request) {
	if s.deps.Provinces == nil {
		writeError(w, http.StatusServiceUnavailable, "province list not configured")
		return
	}
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":     name,
		"province": s.deps.Provinces.Resolve(name),
	})
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
