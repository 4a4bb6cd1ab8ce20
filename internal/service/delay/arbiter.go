package delay

import (
	"context"
	"log/slog"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
)

const (
	// High-urgency notices are never delayed when already close to delivery.
	urgentNoDelayWindow = 4 * time.Hour

	conflictDelayThreshold = 0.7
	lowResponseThreshold   = 0.3
	viableResponseRate     = 0.5

	probeCapHighHours   = 6
	probeCapMediumHours = 24
)

// Arbiter decides whether a proposed delivery time should be pushed later,
// and to when.
type Arbiter struct {
	nowFn func() time.Time
}

func NewArbiter() *Arbiter {
	return &Arbiter{nowFn: time.Now}
}

// WithNow overrides the clock. Intended for tests.
func (a *Arbiter) WithNow(nowFn func() time.Time) *Arbiter {
	a.nowFn = nowFn
	return a
}

// Evaluate checks a proposed delivery time against quiet periods, the baby's
// schedule and the caregiver's response history. When a delay is warranted
// the decision carries the next viable slot.
func (a *Arbiter) Evaluate(
	ctx context.Context,
	profile *domain.BehaviorProfile,
	schedule *domain.BabySchedule,
	urgency domain.Urgency,
	proposed time.Time,
) domain.DelayDecision {
	now := a.nowFn()

	if urgency == domain.UrgencyHigh && proposed.Sub(now) <= urgentNoDelayWindow {
		return domain.DelayDecision{
			ShouldDelay: false,
			Confidence:  0.8,
			Reason:      "urgent delivery window, no delay permitted",
		}
	}

	minutes := proposed.Hour()*60 + proposed.Minute()
	if profile.InQuietPeriod(minutes) {
		return a.delayed(ctx, profile, urgency, proposed, 0.9, "proposed time falls inside quiet hours")
	}

	conflict := schedule.ConflictAt(proposed.Hour())
	if conflict > conflictDelayThreshold {
		return a.delayed(ctx, profile, urgency, proposed, conflict, "high conflict with baby's schedule")
	}

	if urgency == domain.UrgencyMedium {
		rate := profile.ResponseRateAt(proposed.Hour())
		if rate < lowResponseThreshold {
			return a.delayed(ctx, profile, urgency, proposed, 1-rate, "historically low response rate at this hour")
		}
	}

	return domain.DelayDecision{
		ShouldDelay: false,
		Confidence:  0.8,
		Reason:      "no conflicts detected",
	}
}

func (a *Arbiter) delayed(
	ctx context.Context,
	profile *domain.BehaviorProfile,
	urgency domain.Urgency,
	proposed time.Time,
	confidence float64,
	reason string,
) domain.DelayDecision {
	suggested := a.FindNextOptimalTime(ctx, profile, proposed, urgency)

	slog.DebugContext(ctx, "delivery delayed",
		slog.String("caregiver_id", profile.CaregiverID),
		slog.String("urgency", urgency.String()),
		slog.Time("proposed", proposed),
		slog.Time("suggested", suggested),
		slog.String("reason", reason),
	)

	return domain.DelayDecision{
		ShouldDelay:   true,
		Confidence:    confidence,
		Reason:        reason,
		SuggestedTime: suggested,
	}
}

// FindNextOptimalTime probes forward hour by hour from the proposed time,
// skipping quiet periods, and accepts the first hour with a viable response
// rate. The probe is capped per urgency; past the cap it falls back to the
// caregiver's next known active hour, rolled to the following day when that
// lands within the next hour.
func (a *Arbiter) FindNextOptimalTime(
	ctx context.Context,
	profile *domain.BehaviorProfile,
	from time.Time,
	urgency domain.Urgency,
) time.Time {
	now := a.nowFn()

	capHours := probeCapMediumHours
	if urgency == domain.UrgencyHigh {
		capHours = probeCapHighHours
	}

	for offset := 1; offset <= capHours; offset++ {
		candidate := from.Add(time.Duration(offset) * time.Hour)
		minutes := candidate.Hour()*60 + candidate.Minute()
		if profile.InQuietPeriod(minutes) {
			continue
		}
		if profile.ResponseRateAt(candidate.Hour()) > viableResponseRate {
			return candidate
		}
	}

	fallback := a.nextActiveTime(profile, from)
	if fallback.Before(now.Add(time.Hour)) {
		fallback = fallback.AddDate(0, 0, 1)
	}

	slog.DebugContext(ctx, "no viable slot within probe cap, using next active hour",
		slog.String("caregiver_id", profile.CaregiverID),
		slog.Int("cap_hours", capHours),
		slog.Time("fallback", fallback),
	)

	return fallback
}

// nextActiveTime finds the caregiver's next active hour at or after the given
// time, consulting the weekday pattern of the current day first and the next
// day's pattern otherwise.
func (a *Arbiter) nextActiveTime(profile *domain.BehaviorProfile, from time.Time) time.Time {
	hours := profile.CandidateHours(from.Weekday().String())
	for _, hour := range hours {
		if hour > from.Hour() {
			return time.Date(from.Year(), from.Month(), from.Day(), hour, 0, 0, 0, from.Location())
		}
	}

	nextDay := from.AddDate(0, 0, 1)
	nextHours := profile.CandidateHours(nextDay.Weekday().String())
	if len(nextHours) > 0 {
		return time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(), nextHours[0], 0, 0, 0, from.Location())
	}

	// No activity history at all: stay inside the probe contract by falling
	// back to one hour past the probe origin.
	return from.Add(time.Hour)
}
