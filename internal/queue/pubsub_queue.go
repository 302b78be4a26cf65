package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"go.uber.org/zap"
)

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// PubSubSource forwards messages from a subscription into a local queue.
type PubSubSource struct {
	sub    receiver
	queue  Enqueuer
	logger *zap.Logger
}

// NewPubSubSource binds the named subscription of client to queue.
func NewPubSubSource(client *pubsub.Client, subscription string, queue Enqueuer, logger *zap.Logger) *PubSubSource {
	return newPubSubSource(client.Subscriber(subscription), queue, logger)
}

func newPubSubSource(sub receiver, queue Enqueuer, logger *zap.Logger) *PubSubSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubSubSource{sub: sub, queue: queue, logger: logger}
}

// Run blocks receiving messages until ctx is canceled.
func (s *PubSubSource) Run(ctx context.Context) error {
	err := s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.forward(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("receive guide profile events: %w", err)
	}
	return nil
}

// forward reports whether the message is done with. Undecodable messages are
// acknowledged so they are not redelivered forever.
func (s *PubSubSource) forward(ctx context.Context, id string, data []byte) bool {
	event, err := DecodeEvent(data)
	if err != nil {
		s.logger.Warn("dropping undecodable guide profile event", zap.String("message_id", id), zap.Error(err))
		return true
	}
	event.Submitted = time.Now().Unix()
	if err := s.queue.Enqueue(ctx, event); err != nil {
		s.logger.Warn("enqueue guide profile event failed", zap.String("message_id", id), zap.Error(err))
		return false
	}
	return true
}
