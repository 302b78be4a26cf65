package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/clock"
	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/metrics"
)

// Config controls the Service.
type Config struct {
	Policy Policy
	Topic  string
}

// Service evaluates guide profiles and sends due reminders.
type Service struct {
	guides    directory.GuideStore
	mailer    Mailer
	publisher directory.Publisher
	clock     directory.Clock
	cfg       Config
	logger    *zap.Logger
}

// NewService wires a Service. mailer may be nil, in which case due reminders
// are logged and skipped. publisher may be nil.
func NewService(
	guides directory.GuideStore,
	mailer Mailer,
	publisher directory.Publisher,
	clk directory.Clock,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy
	}
	return &Service{
		guides:    guides,
		mailer:    mailer,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle processes one profile change. Mail delivery failures are logged and
// reported through the returned error; they are never retried here.
func (s *Service) Handle(ctx context.Context, event directory.GuideProfileEvent) (Decision, error) {
	now := s.clock.Now()
	uid := event.Profile.UID
	decision := Evaluate(event, now, s.cfg.Policy)
	if !decision.Send {
		metrics.ObserveNotification("skipped")
		s.logger.Debug("expiry reminder skipped",
			zap.String("uid", uid),
			zap.String("reason", decision.Reason),
		)
		return decision, nil
	}
	if s.mailer == nil {
		metrics.ObserveNotification("skipped")
		s.logger.Warn("smtp credentials not configured; skipping email notification", zap.String("uid", uid))
		return Decision{Reason: ReasonNoMailer, DaysLeft: decision.DaysLeft}, nil
	}

	msg := Compose(event.Profile, decision.DaysLeft)
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.ObserveNotification("error")
		s.logger.Error("failed to send expiry notification", zap.String("uid", uid), zap.Error(err))
		return decision, fmt.Errorf("notify %s: %w", uid, err)
	}
	metrics.ObserveNotification("sent")

	if err := s.guides.MarkNotified(ctx, uid, now); err != nil {
		s.logger.Error("failed to record notification time", zap.String("uid", uid), zap.Error(err))
		return decision, fmt.Errorf("mark %s notified: %w", uid, err)
	}
	s.logger.Info("sent expiry notification",
		zap.String("uid", uid),
		zap.String("email", msg.To),
		zap.Int("days_left", decision.DaysLeft),
	)
	s.announce(ctx, directory.NotificationSent{
		UID:      uid,
		Email:    msg.To,
		DaysLeft: decision.DaysLeft,
		SentAt:   now,
	})
	return decision, nil
}

func (s *Service) announce(ctx context.Context, sent directory.NotificationSent) {
	if s.publisher == nil || s.cfg.Topic == "" {
		return
	}
	if _, err := s.publisher.Publish(ctx, s.cfg.Topic, sent); err != nil {
		s.logger.Warn("publish notification event failed", zap.String("uid", sent.UID), zap.Error(err))
	}
}

// ScanReport summarizes a batch run.
type ScanReport struct {
	Scanned  int
	Expiring []ExpiringGuide
	Sent     int
	Failed   int
}

// ExpiringGuide is one profile inside the reminder window.
type ExpiringGuide struct {
	UID        string
	FullName   string
	CardNumber string
	Email      string
	ExpiryDate string
	DaysLeft   int
	Notified   bool
}

// Scan evaluates every stored profile. Individual delivery failures are
// counted, not returned.
func (s *Service) Scan(ctx context.Context) (ScanReport, error) {
	profiles, err := s.guides.ListGuideProfiles(ctx)
	if err != nil {
		return ScanReport{}, fmt.Errorf("list guide profiles: %w", err)
	}
	report := ScanReport{Scanned: len(profiles)}
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("scan canceled: %w", err)
		}
		decision, err := s.Handle(ctx, directory.GuideProfileEvent{Profile: p})
		if err != nil {
			report.Failed++
		}
		if decision.Send && err == nil {
			report.Sent++
		}
		if !inWindow(decision) {
			continue
		}
		entry := ExpiringGuide{
			UID:        p.UID,
			FullName:   p.FullName,
			CardNumber: p.CardNumber,
			Email:      p.Email,
			DaysLeft:   decision.DaysLeft,
			Notified:   decision.Send && err == nil,
		}
		if p.ExpiryDate != nil {
			entry.ExpiryDate = FormatDate(*p.ExpiryDate)
		}
		report.Expiring = append(report.Expiring, entry)
	}
	return report, nil
}

func inWindow(d Decision) bool {
	switch d.Reason {
	case ReasonDeleted, ReasonNoExpiry, ReasonExpired, ReasonOutsideWindow:
		return false
	}
	return true
}
