// Package memory provides the bounded in-process queue that feeds the
// notifier workers.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// ErrClosed is returned once the queue has been shut down.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch        chan directory.GuideProfileEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		ch:   make(chan directory.GuideProfileEvent, capacity),
		done: make(chan struct{}),
	}
}

// Enqueue pushes an event, blocking while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, event directory.GuideProfileEvent) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case <-q.done:
		return ErrClosed
	case q.ch <- event:
		return nil
	}
}

// Dequeue pops the next event, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (directory.GuideProfileEvent, error) {
	select {
	case <-ctx.Done():
		return directory.GuideProfileEvent{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case <-q.done:
		return directory.GuideProfileEvent{}, ErrClosed
	case event := <-q.ch:
		return event, nil
	}
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue. Buffered events are discarded.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
