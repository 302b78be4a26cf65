// Package worker drains guide profile events from the queue and hands them to
// the expiry notifier.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/metrics"
)

// Handler processes one event.
type Handler interface {
	HandleEvent(ctx context.Context, event directory.GuideProfileEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event directory.GuideProfileEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event directory.GuideProfileEvent) error {
	return f(ctx, event)
}

// Config controls Worker behavior.
type Config struct {
	// ErrorBackoff is the pause after a failed dequeue.
	ErrorBackoff time.Duration
}

// Worker consumes queue items and runs the handler for each.
type Worker struct {
	id      int
	queue   directory.Queue
	handler Handler
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Worker.
func New(id int, queue directory.Queue, handler Handler, cfg Config, logger *zap.Logger) *Worker {
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		id:      id,
		queue:   queue,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.Int("worker", id)),
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	for {
		event, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.ErrorBackoff):
			}
			continue
		}
		w.process(ctx, event)
	}
}

func (w *Worker) process(ctx context.Context, event directory.GuideProfileEvent) {
	uid := event.Profile.UID
	w.logger.Debug("dequeued guide profile event", zap.String("uid", uid))
	if w.handler == nil {
		w.logger.Error("no handler configured", zap.String("uid", uid))
		return
	}
	if event.Submitted > 0 {
		w.logger.Debug("event queue latency",
			zap.String("uid", uid),
			zap.Duration("latency", time.Since(time.Unix(event.Submitted, 0))),
		)
	}
	if err := w.handler.HandleEvent(ctx, event); err != nil {
		w.logger.Warn("guide profile event failed", zap.String("uid", uid), zap.Error(err))
	}
}
