// Package notify reminds guides by email before their card expires.
package notify

import (
	"math"
	"time"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// Skip reasons reported by Evaluate.
const (
	ReasonDeleted       = "deleted"
	ReasonNoExpiry      = "no-expiry-date"
	ReasonExpired       = "already-expired"
	ReasonOutsideWindow = "outside-window"
	ReasonNoEmail       = "no-email"
	ReasonRecentlySent  = "recently-notified"
	ReasonNoMailer      = "mailer-not-configured"
)

// Policy bounds when a reminder goes out.
type Policy struct {
	WindowDays     int
	ResendInterval time.Duration
}

// DefaultPolicy reminds within 30 days of expiry, at most once a day.
var DefaultPolicy = Policy{WindowDays: 30, ResendInterval: 24 * time.Hour}

// Decision is the outcome of evaluating one profile.
type Decision struct {
	Send     bool
	Reason   string
	DaysLeft int
}

// DaysUntil returns the number of started days between now and expiry,
// rounded up. Past expiries are negative.
func DaysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// Evaluate decides whether profile should receive a reminder at now.
func Evaluate(event directory.GuideProfileEvent, now time.Time, policy Policy) Decision {
	if event.Deleted {
		return Decision{Reason: ReasonDeleted}
	}
	p := event.Profile
	if p.ExpiryDate == nil || p.ExpiryDate.IsZero() {
		return Decision{Reason: ReasonNoExpiry}
	}
	days := DaysUntil(*p.ExpiryDate, now)
	if days < 0 {
		return Decision{Reason: ReasonExpired, DaysLeft: days}
	}
	if days > policy.WindowDays {
		return Decision{Reason: ReasonOutsideWindow, DaysLeft: days}
	}
	if p.Email == "" {
		return Decision{Reason: ReasonNoEmail, DaysLeft: days}
	}
	if p.LastExpiryNotificationAt != nil && now.Sub(*p.LastExpiryNotificationAt) < policy.ResendInterval {
		return Decision{Reason: ReasonRecentlySent, DaysLeft: days}
	}
	return Decision{Send: true, DaysLeft: days}
}
