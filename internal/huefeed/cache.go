package huefeed

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/metrics"
)

// Cache stores serialized feeds.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedFetcher serves successful feeds from a cache for ttl. Failures are
// never cached, and cache errors fall through to the wrapped fetcher.
type CachedFetcher struct {
	next   Fetcher
	cache  Cache
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedFetcher wraps next. A nil cache or non-positive ttl returns next unchanged.
func NewCachedFetcher(next Fetcher, cache Cache, key string, ttl time.Duration, logger *zap.Logger) Fetcher {
	if cache == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, cache: cache, key: key, ttl: ttl, logger: logger}
}

// Fetch returns the cached feed when present, otherwise runs the pipeline.
func (f *CachedFetcher) Fetch(ctx context.Context) (Feed, error) {
	if feed, ok := f.lookup(ctx); ok {
		metrics.ObserveFeedRun("cached", len(feed.Articles))
		return feed, nil
	}
	feed, err := f.next.Fetch(ctx)
	if err != nil {
		return Feed{}, err
	}
	data, err := json.Marshal(feed)
	if err != nil {
		f.logger.Warn("encode feed for cache", zap.Error(err))
		return feed, nil
	}
	if err := f.cache.Set(ctx, f.key, data, f.ttl); err != nil {
		f.logger.Warn("feed cache write failed", zap.Error(err))
	}
	return feed, nil
}

func (f *CachedFetcher) lookup(ctx context.Context) (Feed, bool) {
	data, ok, err := f.cache.Get(ctx, f.key)
	if err != nil {
		f.logger.Warn("feed cache read failed", zap.Error(err))
		return Feed{}, false
	}
	if !ok {
		return Feed{}, false
	}
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		f.logger.Warn("discarding undecodable cached feed", zap.Error(err))
		return Feed{}, false
	}
	if feed.Articles == nil {
		feed.Articles = []Article{}
	}
	return feed, true
}
