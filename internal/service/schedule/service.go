package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
	"github.com/be-saavy/notification-timing/internal/observability/metrics"
	"github.com/be-saavy/notification-timing/internal/service/delay"
	"github.com/be-saavy/notification-timing/internal/service/learning"
	"github.com/be-saavy/notification-timing/internal/service/predict"
)

const (
	// Hour of day for the evening digest slot.
	defaultDigestHour = 19

	// A held notification fires early when the current hour scores this much
	// better than the hour it was scheduled for.
	betterNowDelta = 0.2

	eveningDigestConfidence = 0.85
	immediateConfidence     = 0.8
)

// Service orchestrates the scheduling pipeline: preference gating, optimal
// time prediction, delay arbitration, immediate or held dispatch, and the
// learning feedback loop.
type Service struct {
	profiles      domain.ProfileRepository
	pending       domain.PendingRepository
	delivery      domain.DeliveryClient
	predictor     *predict.Predictor
	arbiter       *delay.Arbiter
	updater       *learning.Updater
	timingMetrics *metrics.TimingMetrics
	digestHour    int
	nowFn         func() time.Time

	// Serializes mutations to behavior profiles and the pending set. The
	// scoring work inside the lock is in-memory and cheap; delivery I/O
	// happens outside it.
	mu sync.Mutex
}

func NewService(
	profiles domain.ProfileRepository,
	pending domain.PendingRepository,
	delivery domain.DeliveryClient,
	predictor *predict.Predictor,
	arbiter *delay.Arbiter,
	updater *learning.Updater,
	timingMetrics *metrics.TimingMetrics,
) *Service {
	return &Service{
		profiles:      profiles,
		pending:       pending,
		delivery:      delivery,
		predictor:     predictor,
		arbiter:       arbiter,
		updater:       updater,
		timingMetrics: timingMetrics,
		digestHour:    defaultDigestHour,
		nowFn:         time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(nowFn func() time.Time) *Service {
	s.nowFn = nowFn
	return s
}

// WithDigestHour overrides the evening digest slot.
func (s *Service) WithDigestHour(hour int) *Service {
	if hour >= 0 && hour <= 23 {
		s.digestHour = hour
	}
	return s
}

// Schedule runs one notification request through the preference policy and
// the predictor/arbiter pipeline. Critical urgency always proceeds
// immediately regardless of preferences.
func (s *Service) Schedule(ctx context.Context, req Request) (*Result, error) {
	if !req.Urgency.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidUrgency, req.Urgency)
	}

	now := s.nowFn()
	profile, babySchedule, prefs := s.loadContext(ctx, req.CaregiverID)

	if req.Urgency == domain.UrgencyCritical {
		notification := domain.NewScheduledNotification(
			req.CaregiverID, req.RecallID, req.Urgency, req.Title, req.Body,
			now, "critical safety alert, delivered immediately", 1.0,
		)
		return s.dispatchImmediate(ctx, notification, prefs, profile)
	}

	switch req.Urgency {
	case domain.UrgencyHigh:
		if !prefs.High.Enabled {
			s.timingMetrics.RecordScheduled(ctx, req.Urgency.String(), "suppressed")
			return suppressed("high urgency notifications disabled by preference"), nil
		}
	case domain.UrgencyMedium:
		if !prefs.Medium.Enabled || prefs.Medium.Frequency == domain.MediumDisabled {
			s.timingMetrics.RecordScheduled(ctx, req.Urgency.String(), "suppressed")
			return suppressed("medium urgency notifications disabled by preference"), nil
		}
	}

	scheduledFor, confidence, reasoning := s.evaluate(ctx, req, profile, babySchedule, prefs, now)

	notification := domain.NewScheduledNotification(
		req.CaregiverID, req.RecallID, req.Urgency, req.Title, req.Body,
		scheduledFor, reasoning, confidence,
	)

	s.timingMetrics.RecordConfidence(ctx, req.Urgency.String(), confidence)

	if notification.IsDue(now) {
		return s.dispatchImmediate(ctx, notification, prefs, profile)
	}

	s.mu.Lock()
	err := s.pending.SavePending(ctx, notification)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to hold notification: %w", err)
	}

	s.timingMetrics.RecordScheduled(ctx, req.Urgency.String(), "held")

	slog.InfoContext(ctx, "notification held",
		slog.String("caregiver_id", req.CaregiverID),
		slog.String("notification_id", notification.ID),
		slog.String("urgency", req.Urgency.String()),
		slog.Time("scheduled_for", scheduledFor),
		slog.Float64("confidence", confidence),
	)

	return &Result{Accepted: true, Notification: notification}, nil
}

// evaluate applies the per-urgency preference policy and falls back to the
// predictor/arbiter pipeline when the preference does not force a slot.
func (s *Service) evaluate(
	ctx context.Context,
	req Request,
	profile *domain.BehaviorProfile,
	babySchedule *domain.BabySchedule,
	prefs *domain.Preferences,
	now time.Time,
) (time.Time, float64, string) {
	nowMinutes := now.Hour()*60 + now.Minute()
	inQuiet := false
	if w, ok := prefs.QuietWindow(); ok {
		inQuiet = w.Contains(nowMinutes)
	}

	wantsImmediate := (req.Urgency == domain.UrgencyHigh && prefs.High.Schedule == domain.HighScheduleImmediate) ||
		(req.Urgency == domain.UrgencyMedium && prefs.Medium.Frequency == domain.MediumImmediate)

	if wantsImmediate && !inQuiet {
		return now, immediateConfidence, "immediate delivery outside quiet hours"
	}

	if req.Urgency == domain.UrgencyHigh && prefs.High.Schedule == domain.HighScheduleEveningDigest {
		slot := time.Date(now.Year(), now.Month(), now.Day(), s.digestHour, 0, 0, 0, now.Location())
		if !slot.After(now) {
			slot = slot.AddDate(0, 0, 1)
		}
		return slot, eveningDigestConfidence, "held for evening digest"
	}

	// next_optimal, daily_digest, weekly, and immediate-inside-quiet-hours
	// all run the prediction pipeline. The preference quiet-hours window is
	// overlaid onto the profile's quiet periods so the arbiter sees both.
	if w, ok := prefs.QuietWindow(); ok {
		profile = profile.WithQuietWindow(w)
	}

	start := time.Now()
	prediction := s.predictor.Predict(ctx, profile, babySchedule, req.Urgency, domain.ContentRecall)
	s.timingMetrics.RecordPredictionDuration(ctx, time.Since(start).Seconds())

	decision := s.arbiter.Evaluate(ctx, profile, babySchedule, req.Urgency, prediction.RecommendedTime)
	if !decision.ShouldDelay {
		return prediction.RecommendedTime, prediction.Confidence, prediction.Reasoning
	}

	s.timingMetrics.RecordDelayed(ctx, req.Urgency.String(), decision.Reason)

	reasoning := prediction.Reasoning + "; delayed: " + decision.Reason
	return decision.SuggestedTime, decision.Confidence, reasoning
}

// SendCriticalAlert is the bypass path for safety-critical recalls: always
// immediate, never suppressed, confidence 1.0.
func (s *Service) SendCriticalAlert(ctx context.Context, caregiverID, recallID, productName, hazardDescription string) (bool, error) {
	result, err := s.Schedule(ctx, Request{
		CaregiverID: caregiverID,
		RecallID:    recallID,
		Urgency:     domain.UrgencyCritical,
		Title:       "URGENT: " + productName + " recalled",
		Body:        hazardDescription,
	})
	if err != nil {
		return false, err
	}
	return result.Delivered, nil
}

// Pending returns held notifications sorted ascending by scheduled time.
func (s *Service) Pending(ctx context.Context, caregiverID string) ([]*domain.ScheduledNotification, error) {
	list, err := s.pending.ListPending(ctx, caregiverID)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ScheduledFor.Before(list[j].ScheduledFor)
	})
	return list, nil
}

// Cancel removes a held notification before it fires. Returns false when the
// notification already fired or never existed.
func (s *Service) Cancel(ctx context.Context, caregiverID, notificationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.pending.DeletePending(ctx, caregiverID, notificationID)
	if err != nil {
		return false, err
	}
	if removed {
		slog.InfoContext(ctx, "notification cancelled",
			slog.String("caregiver_id", caregiverID),
			slog.String("notification_id", notificationID),
		)
	}
	return removed, nil
}

// FireDue re-validates a held notification at fire time and dispatches it.
// A notification no longer in the pending set (already cancelled or already
// fired) is a silent no-op.
func (s *Service) FireDue(ctx context.Context, caregiverID, notificationID string) (bool, error) {
	s.mu.Lock()
	notification, err := s.pending.GetPending(ctx, caregiverID, notificationID)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, domain.ErrNotificationNotFound) {
			return false, nil
		}
		return false, err
	}

	profile, babySchedule, prefs := s.loadContext(ctx, caregiverID)

	deliver, reason := s.shouldDeliverNow(notification, profile, babySchedule)
	if !deliver {
		s.mu.Unlock()
		slog.DebugContext(ctx, "held notification not yet ready",
			slog.String("notification_id", notificationID),
			slog.String("reason", reason),
		)
		return false, nil
	}

	// Remove before delivering so a concurrent fire cannot send twice.
	removed, err := s.pending.DeletePending(ctx, caregiverID, notificationID)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	delivered, err := s.send(ctx, notification, prefs)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.touchLastNotified(ctx, profile)
	s.mu.Unlock()

	slog.InfoContext(ctx, "held notification fired",
		slog.String("caregiver_id", caregiverID),
		slog.String("notification_id", notificationID),
		slog.String("reason", reason),
		slog.Bool("delivered", delivered),
	)

	return delivered, nil
}

// shouldDeliverNow is the fire-time staleness recheck: immediate for
// critical, due by clock, or the current hour scoring meaningfully better
// than the originally scheduled hour. The comparison is hour-only and
// ignores the weekday pattern.
func (s *Service) shouldDeliverNow(
	notification *domain.ScheduledNotification,
	profile *domain.BehaviorProfile,
	babySchedule *domain.BabySchedule,
) (bool, string) {
	now := s.nowFn()

	if notification.Urgency == domain.UrgencyCritical {
		return true, "critical urgency"
	}
	if notification.IsDue(now) {
		return true, "scheduled time reached"
	}

	currentConfidence := s.predictor.HourConfidence(profile, babySchedule, notification.Urgency, now.Hour())
	scheduledConfidence := s.predictor.HourConfidence(profile, babySchedule, notification.Urgency, notification.ScheduledFor.Hour())
	if currentConfidence > scheduledConfidence+betterNowDelta {
		return true, "current hour scores better than scheduled hour"
	}

	return false, "waiting for scheduled time"
}

// BatchMediumPending merges queued medium-urgency notifications into one
// summary record, replacing the individual held entries.
func (s *Service) BatchMediumPending(ctx context.Context, caregiverID string) (*domain.ScheduledNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.pending.ListPending(ctx, caregiverID)
	if err != nil {
		return nil, err
	}

	mediums := make([]*domain.ScheduledNotification, 0, len(list))
	for _, n := range list {
		if n.Urgency == domain.UrgencyMedium {
			mediums = append(mediums, n)
		}
	}
	if len(mediums) < 2 {
		return nil, nil
	}

	earliest := mediums[0].ScheduledFor
	for _, n := range mediums[1:] {
		if n.ScheduledFor.Before(earliest) {
			earliest = n.ScheduledFor
		}
	}

	summary := domain.NewScheduledNotification(
		caregiverID,
		"batch",
		domain.UrgencyMedium,
		fmt.Sprintf("%d product safety updates", len(mediums)),
		fmt.Sprintf("You have %d product notices waiting for review.", len(mediums)),
		earliest,
		"batched with similar medium priority notices",
		mediums[0].Confidence,
	)
	summary.BatchCount = len(mediums)

	for _, n := range mediums {
		if _, err := s.pending.DeletePending(ctx, caregiverID, n.ID); err != nil {
			return nil, fmt.Errorf("failed to remove batched notification %s: %w", n.ID, err)
		}
	}

	if err := s.pending.SavePending(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to hold batch summary: %w", err)
	}

	slog.InfoContext(ctx, "medium notifications batched",
		slog.String("caregiver_id", caregiverID),
		slog.Int("count", len(mediums)),
		slog.Time("scheduled_for", earliest),
	)

	return summary, nil
}

// RecordAppUsage feeds an app-usage observation into the behavior profile.
func (s *Service) RecordAppUsage(ctx context.Context, caregiverID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.loadProfile(ctx, caregiverID)
	s.updater.RecordAppUsage(profile, ts)
	return s.profiles.SaveBehaviorProfile(ctx, profile)
}

// RecordNotificationResponse feeds one delivery outcome into the behavior
// profile.
func (s *Service) RecordNotificationResponse(
	ctx context.Context,
	caregiverID, notificationID string,
	deliveredAt, respondedAt time.Time,
	action domain.ResponseAction,
) error {
	if !action.IsValid() {
		return fmt.Errorf("invalid response action %q", action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.loadProfile(ctx, caregiverID)
	s.updater.RecordNotificationResponse(profile, deliveredAt, respondedAt, action)

	slog.DebugContext(ctx, "notification response recorded",
		slog.String("caregiver_id", caregiverID),
		slog.String("notification_id", notificationID),
		slog.String("action", string(action)),
		slog.Int("hour", deliveredAt.Hour()),
	)

	return s.profiles.SaveBehaviorProfile(ctx, profile)
}

// UpdatePreferences validates and stores edited preferences. A malformed
// update is rejected and the previous configuration stays in effect.
func (s *Service) UpdatePreferences(ctx context.Context, prefs *domain.Preferences) error {
	prefs.Normalize()
	if err := prefs.Validate(); err != nil {
		return err
	}
	prefs.UpdatedAt = time.Now().UTC()
	return s.profiles.SavePreferences(ctx, prefs)
}

// UpdateBabySchedule validates and stores edited schedule data. A malformed
// update is rejected and the previous schedule stays in effect.
func (s *Service) UpdateBabySchedule(ctx context.Context, babySchedule *domain.BabySchedule) error {
	if err := babySchedule.Validate(); err != nil {
		return err
	}
	babySchedule.UpdatedAt = time.Now().UTC()
	return s.profiles.SaveBabySchedule(ctx, babySchedule)
}

// UpdateContextualFactors applies a partial edit of profile-level context
// such as quiet periods. A malformed window is rejected and the prior
// context stays in effect.
func (s *Service) UpdateContextualFactors(ctx context.Context, caregiverID string, factors ContextualFactors) (*domain.BehaviorProfile, error) {
	for _, w := range factors.QuietPeriods {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.loadProfile(ctx, caregiverID)
	if factors.QuietPeriods != nil {
		profile.QuietPeriods = factors.QuietPeriods
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.SaveBehaviorProfile(ctx, profile); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "contextual factors updated",
		slog.String("caregiver_id", caregiverID),
		slog.Int("quiet_periods", len(profile.QuietPeriods)),
	)

	return profile, nil
}

// GetPreferences returns the caregiver's stored preferences, seeded with
// defaults when absent.
func (s *Service) GetPreferences(ctx context.Context, caregiverID string) (*domain.Preferences, error) {
	prefs, err := s.profiles.GetPreferences(ctx, caregiverID)
	if err != nil {
		if errors.Is(err, domain.ErrPreferencesMissing) {
			return domain.DefaultPreferences(caregiverID), nil
		}
		return nil, err
	}
	return prefs, nil
}

// GetBabySchedule returns the stored schedule, seeded with defaults when
// absent.
func (s *Service) GetBabySchedule(ctx context.Context, caregiverID string) (*domain.BabySchedule, error) {
	babySchedule, err := s.profiles.GetBabySchedule(ctx, caregiverID)
	if err != nil {
		if errors.Is(err, domain.ErrBabyScheduleMissing) {
			return domain.DefaultBabySchedule(caregiverID), nil
		}
		return nil, err
	}
	return babySchedule, nil
}

// Predict exposes the predictor standalone for "why this timing" surfaces.
func (s *Service) Predict(ctx context.Context, caregiverID string, urgency domain.Urgency, content domain.ContentType) (domain.TimePrediction, error) {
	if !urgency.IsValid() {
		return domain.TimePrediction{}, fmt.Errorf("%w: %q", domain.ErrInvalidUrgency, urgency)
	}
	if !content.IsValid() {
		content = domain.ContentGeneral
	}

	profile, babySchedule, _ := s.loadContext(ctx, caregiverID)
	return s.predictor.Predict(ctx, profile, babySchedule, urgency, content), nil
}

// dispatchImmediate delivers a notification synchronously. Delivery failure
// is reported, not retried, and the decision record is returned to the
// caller either way.
func (s *Service) dispatchImmediate(
	ctx context.Context,
	notification *domain.ScheduledNotification,
	prefs *domain.Preferences,
	profile *domain.BehaviorProfile,
) (*Result, error) {
	delivered, err := s.send(ctx, notification, prefs)
	if err != nil {
		slog.ErrorContext(ctx, "immediate delivery failed",
			slog.String("notification_id", notification.ID),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Lock()
	s.touchLastNotified(ctx, profile)
	s.mu.Unlock()

	s.timingMetrics.RecordScheduled(ctx, notification.Urgency.String(), "immediate")

	return &Result{
		Accepted:     true,
		Delivered:    delivered,
		Notification: notification,
	}, nil
}

func (s *Service) send(ctx context.Context, notification *domain.ScheduledNotification, prefs *domain.Preferences) (bool, error) {
	notification.Status = domain.StatusSent

	delivered, err := s.delivery.Deliver(ctx, &domain.Delivery{
		NotificationID:   notification.ID,
		CaregiverID:      notification.CaregiverID,
		RecallID:         notification.RecallID,
		Urgency:          notification.Urgency.String(),
		Title:            notification.Title,
		Body:             notification.Body,
		Priority:         notification.Priority,
		Sound:            prefs.General.Sound,
		Vibration:        prefs.General.Vibration,
		ShowOnLockscreen: prefs.General.ShowOnLockscreen,
	})

	s.timingMetrics.RecordSent(ctx, notification.Urgency.String(), delivered)

	return delivered, err
}

func (s *Service) touchLastNotified(ctx context.Context, profile *domain.BehaviorProfile) {
	profile.LastNotifiedTime = s.nowFn()
	if err := s.profiles.SaveBehaviorProfile(ctx, profile); err != nil {
		slog.WarnContext(ctx, "failed to persist last notified time",
			slog.String("caregiver_id", profile.CaregiverID),
			slog.String("error", err.Error()),
		)
	}
}

// loadContext fetches the caregiver's behavior, schedule and preferences,
// seeding defaults for anything missing or unreadable. A corrupt profile
// must not block a safety-relevant notice, so load errors degrade to
// defaults rather than failing the request.
func (s *Service) loadContext(ctx context.Context, caregiverID string) (*domain.BehaviorProfile, *domain.BabySchedule, *domain.Preferences) {
	profile := s.loadProfile(ctx, caregiverID)

	babySchedule, err := s.profiles.GetBabySchedule(ctx, caregiverID)
	if err != nil {
		if !errors.Is(err, domain.ErrBabyScheduleMissing) {
			slog.WarnContext(ctx, "failed to load baby schedule, using defaults",
				slog.String("caregiver_id", caregiverID),
				slog.String("error", err.Error()),
			)
		}
		babySchedule = domain.DefaultBabySchedule(caregiverID)
	}

	prefs, err := s.profiles.GetPreferences(ctx, caregiverID)
	if err != nil {
		if !errors.Is(err, domain.ErrPreferencesMissing) {
			slog.WarnContext(ctx, "failed to load preferences, using defaults",
				slog.String("caregiver_id", caregiverID),
				slog.String("error", err.Error()),
			)
		}
		prefs = domain.DefaultPreferences(caregiverID)
	}

	return profile, babySchedule, prefs
}

func (s *Service) loadProfile(ctx context.Context, caregiverID string) *domain.BehaviorProfile {
	profile, err := s.profiles.GetBehaviorProfile(ctx, caregiverID)
	if err != nil {
		if !errors.Is(err, domain.ErrBehaviorProfileMissing) {
			slog.WarnContext(ctx, "failed to load behavior profile, starting fresh",
				slog.String("caregiver_id", caregiverID),
				slog.String("error", err.Error()),
			)
		}
		profile = domain.NewBehaviorProfile(caregiverID)
	}
	return profile
}
