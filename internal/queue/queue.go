// Package queue feeds guide profile change events into the notifier's work
// queue from outside sources such as a Pub/Sub subscription.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// ErrMissingUID is returned for events that do not name a guide.
var ErrMissingUID = errors.New("guide profile event is missing uid")

// Enqueuer accepts events for asynchronous processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, event directory.GuideProfileEvent) error
}

// DecodeEvent parses an event body. Both the wrapped form
// {"profile": {...}, "deleted": false} and a bare profile object are accepted.
func DecodeEvent(data []byte) (directory.GuideProfileEvent, error) {
	var wrapped struct {
		Profile *directory.GuideProfile `json:"profile"`
		Deleted bool                    `json:"deleted"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return directory.GuideProfileEvent{}, fmt.Errorf("decode guide profile event: %w", err)
	}
	event := directory.GuideProfileEvent{Deleted: wrapped.Deleted}
	if wrapped.Profile != nil {
		event.Profile = *wrapped.Profile
	} else if err := json.Unmarshal(data, &event.Profile); err != nil {
		return directory.GuideProfileEvent{}, fmt.Errorf("decode guide profile: %w", err)
	}
	if event.Profile.UID == "" {
		return directory.GuideProfileEvent{}, ErrMissingUID
	}
	return event, nil
}
