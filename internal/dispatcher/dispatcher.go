// Package dispatcher manages worker fan-out over the guide event queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/worker"
)

// Dispatcher fans out queue work to a pool of workers.
type Dispatcher struct {
	queue   directory.Queue
	workers []*worker.Worker
	now     func() time.Time
}

// New creates a Dispatcher.
func New(queue directory.Queue, workers []*worker.Worker) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		workers: workers,
		now:     time.Now,
	}
}

// Run starts all workers and blocks until the context finishes.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
}

// Enqueue stamps the submission time when the producer left it unset and
// hands the event to the queue.
func (d *Dispatcher) Enqueue(ctx context.Context, event directory.GuideProfileEvent) error {
	if event.Submitted == 0 {
		event.Submitted = d.now().Unix()
	}
	if err := d.queue.Enqueue(ctx, event); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
