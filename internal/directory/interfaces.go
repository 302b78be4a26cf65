package directory

import (
	"context"
	"time"
)

// ProviderStore reads provider records.
type ProviderStore interface {
	GetProvider(ctx context.Context, id string) (Provider, error)
}

// GuideStore reads and updates guide profiles.
type GuideStore interface {
	ListGuideProfiles(ctx context.Context) ([]GuideProfile, error)
	MarkNotified(ctx context.Context, uid string, at time.Time) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for guide profile events.
type Queue interface {
	Enqueue(ctx context.Context, event GuideProfileEvent) error
	Dequeue(ctx context.Context) (GuideProfileEvent, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
