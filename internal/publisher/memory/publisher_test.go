package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	sent := directory.NotificationSent{UID: "u1", Email: "a@example.com", DaysLeft: 3, SentAt: time.Unix(0, 0).UTC()}
	id1, err := pub.Publish(context.Background(), "guide-notifications", sent)
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)
	id2, err := pub.Publish(context.Background(), "other", "payload")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.JSONEq(t, `{"uid":"u1","email":"a@example.com","daysLeft":3,"sentAt":"1970-01-01T00:00:00Z"}`, string(msgs[0].Data))
	require.Len(t, pub.Topic("guide-notifications"), 1)
	require.Empty(t, pub.Topic("missing"))

	msgs[0].Topic = "modified"
	require.Equal(t, "guide-notifications", pub.Messages()[0].Topic)
}

func TestPublisherRejectsBadInput(t *testing.T) {
	t.Parallel()

	pub := New()
	_, err := pub.Publish(context.Background(), "", "x")
	require.Error(t, err)
	_, err = pub.Publish(context.Background(), "t", make(chan int))
	require.Error(t, err)
	require.Empty(t, pub.Messages())
}
