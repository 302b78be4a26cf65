package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

var now = time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func TestDaysUntilRoundsUp(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, DaysUntil(now.Add(time.Hour), now))
	require.Equal(t, 1, DaysUntil(now.Add(24*time.Hour), now))
	require.Equal(t, 2, DaysUntil(now.Add(25*time.Hour), now))
	require.Equal(t, 0, DaysUntil(now, now))
	require.Equal(t, 0, DaysUntil(now.Add(-time.Hour), now))
	require.Equal(t, -1, DaysUntil(now.Add(-25*time.Hour), now))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	base := directory.GuideProfile{UID: "u1", Email: "hdv@example.com", ExpiryDate: at(now.Add(10 * 24 * time.Hour))}
	with := func(mut func(p *directory.GuideProfile)) directory.GuideProfileEvent {
		p := base
		mut(&p)
		return directory.GuideProfileEvent{Profile: p}
	}

	cases := []struct {
		name   string
		event  directory.GuideProfileEvent
		send   bool
		reason string
		days   int
	}{
		{"due", with(func(*directory.GuideProfile) {}), true, "", 10},
		{"deleted", directory.GuideProfileEvent{Profile: base, Deleted: true}, false, ReasonDeleted, 0},
		{"no expiry", with(func(p *directory.GuideProfile) { p.ExpiryDate = nil }), false, ReasonNoExpiry, 0},
		{"expired", with(func(p *directory.GuideProfile) { p.ExpiryDate = at(now.Add(-48 * time.Hour)) }), false, ReasonExpired, -2},
		{"expires today", with(func(p *directory.GuideProfile) { p.ExpiryDate = at(now.Add(-time.Hour)) }), true, "", 0},
		{"edge of window", with(func(p *directory.GuideProfile) { p.ExpiryDate = at(now.Add(30 * 24 * time.Hour)) }), true, "", 30},
		{"beyond window", with(func(p *directory.GuideProfile) { p.ExpiryDate = at(now.Add(30*24*time.Hour + time.Minute)) }), false, ReasonOutsideWindow, 31},
		{"no email", with(func(p *directory.GuideProfile) { p.Email = "" }), false, ReasonNoEmail, 10},
		{"sent recently", with(func(p *directory.GuideProfile) { p.LastExpiryNotificationAt = at(now.Add(-23 * time.Hour)) }), false, ReasonRecentlySent, 10},
		{"sent yesterday", with(func(p *directory.GuideProfile) { p.LastExpiryNotificationAt = at(now.Add(-24 * time.Hour)) }), true, "", 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tc.event, now, DefaultPolicy)
			require.Equal(t, tc.send, got.Send)
			require.Equal(t, tc.reason, got.Reason)
			require.Equal(t, tc.days, got.DaysLeft)
		})
	}
}
