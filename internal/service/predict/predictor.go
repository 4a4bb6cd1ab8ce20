package predict

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
)

const (
	responseRateWeight    = 40.0
	responseSpeedWeight   = 2.0
	responseSpeedCeiling  = 20.0
	conflictPenaltyWeight = 20.0

	highUrgencyBoost     = 1.3
	offHoursContentDamp  = 0.7
	weekendMorningDamp   = 0.8
	recencyBiasHours     = 3
)

const criticalReasoning = "critical safety alert, delivered immediately"

// Predictor scores candidate hours against caregiver behavior and the baby's
// schedule to recommend a delivery time.
type Predictor struct {
	nowFn func() time.Time
}

func NewPredictor() *Predictor {
	return &Predictor{nowFn: time.Now}
}

// WithNow overrides the clock. Intended for tests.
func (p *Predictor) WithNow(nowFn func() time.Time) *Predictor {
	p.nowFn = nowFn
	return p
}

// Predict recommends a concrete delivery time for the given urgency and
// content type. Critical urgency bypasses scoring entirely. When the
// caregiver has no usable activity history the predictor fails safe toward
// immediate delivery rather than dropping a safety-relevant notice.
func (p *Predictor) Predict(
	ctx context.Context,
	profile *domain.BehaviorProfile,
	schedule *domain.BabySchedule,
	urgency domain.Urgency,
	content domain.ContentType,
) domain.TimePrediction {
	now := p.nowFn()

	if urgency == domain.UrgencyCritical {
		return domain.TimePrediction{
			RecommendedTime: now,
			Confidence:      1.0,
			Reasoning:       criticalReasoning,
		}
	}

	candidates := profile.CandidateHours(now.Weekday().String())
	if len(candidates) == 0 {
		slog.DebugContext(ctx, "no candidate hours, failing safe to immediate delivery",
			slog.String("caregiver_id", profile.CaregiverID),
			slog.String("urgency", urgency.String()),
		)
		return domain.TimePrediction{
			RecommendedTime: now,
			Confidence:      0.5,
			Reasoning:       "no activity history available, delivering immediately",
		}
	}

	weekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday

	scores := make(map[int]float64, len(candidates))
	for _, hour := range candidates {
		scores[hour] = p.scoreHour(profile, schedule, urgency, content, hour, weekend)
	}

	chosen := bestHour(candidates, scores)

	// Urgent content prefers the earliest viable hour near the current one
	// over the globally best-scoring hour. When that is the in-progress hour
	// the notice goes out now; rolling the elapsed hour top to tomorrow would
	// defeat the bias.
	var recommended time.Time
	if urgency == domain.UrgencyHigh {
		if near, ok := nearestUpcomingHour(candidates, now.Hour()); ok {
			chosen = near
			if near == now.Hour() {
				recommended = now
			}
		}
	}
	if recommended.IsZero() {
		recommended = hourToTime(now, chosen)
	}
	conflict := schedule.ConflictAt(chosen)
	rate := profile.ResponseRateAt(chosen)

	confidence := 0.7
	if profile.IsActiveHour(chosen) {
		confidence += 0.2
	}
	confidence += 0.3 * rate
	confidence += 0.2 * (1 - conflict)
	if urgency == domain.UrgencyHigh {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	prediction := domain.TimePrediction{
		RecommendedTime:  recommended,
		Confidence:       confidence,
		Reasoning:        buildReasoning(profile, urgency, chosen, rate, conflict),
		AlternativeTimes: alternativeTimes(now, candidates, scores, chosen),
	}

	slog.DebugContext(ctx, "optimal time predicted",
		slog.String("caregiver_id", profile.CaregiverID),
		slog.String("urgency", urgency.String()),
		slog.Int("hour", chosen),
		slog.Time("recommended", recommended),
		slog.Float64("confidence", confidence),
	)

	return prediction
}

// HourConfidence computes the confidence the predictor would attach to a
// delivery at the given hour, ignoring weekday patterns. Used by the
// fire-time staleness recheck.
func (p *Predictor) HourConfidence(
	profile *domain.BehaviorProfile,
	schedule *domain.BabySchedule,
	urgency domain.Urgency,
	hour int,
) float64 {
	confidence := 0.7
	if profile.IsActiveHour(hour) {
		confidence += 0.2
	}
	confidence += 0.3 * profile.ResponseRateAt(hour)
	confidence += 0.2 * (1 - schedule.ConflictAt(hour))
	if urgency == domain.UrgencyHigh {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func (p *Predictor) scoreHour(
	profile *domain.BehaviorProfile,
	schedule *domain.BabySchedule,
	urgency domain.Urgency,
	content domain.ContentType,
	hour int,
	weekend bool,
) float64 {
	score := profile.ResponseRateAt(hour) * responseRateWeight

	speed := responseSpeedCeiling - profile.AvgResponseTimeAt(hour)
	if speed > 0 {
		score += speed * responseSpeedWeight
	}

	score -= schedule.ConflictAt(hour) * conflictPenaltyWeight

	if urgency == domain.UrgencyHigh {
		score *= highUrgencyBoost
	}
	if content == domain.ContentDevelopment && (hour < 8 || hour > 20) {
		score *= offHoursContentDamp
	}
	if weekend && hour < 9 {
		score *= weekendMorningDamp
	}

	return score
}

func bestHour(candidates []int, scores map[int]float64) int {
	best := candidates[0]
	for _, hour := range candidates[1:] {
		if scores[hour] > scores[best] {
			best = hour
		}
	}
	return best
}

// nearestUpcomingHour returns the earliest candidate at or after the current
// hour within the recency-bias window, provided the current hour itself is a
// candidate.
func nearestUpcomingHour(candidates []int, currentHour int) (int, bool) {
	currentIsCandidate := false
	for _, hour := range candidates {
		if hour == currentHour {
			currentIsCandidate = true
			break
		}
	}
	if !currentIsCandidate {
		return 0, false
	}

	earliest := -1
	for _, hour := range candidates {
		if hour < currentHour || hour > currentHour+recencyBiasHours {
			continue
		}
		if earliest == -1 || hour < earliest {
			earliest = hour
		}
	}
	if earliest == -1 {
		return 0, false
	}
	return earliest, true
}

// hourToTime converts an hour-of-day to a concrete time: today at that hour,
// rolled to tomorrow when already elapsed.
func hourToTime(now time.Time, hour int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

func buildReasoning(profile *domain.BehaviorProfile, urgency domain.Urgency, hour int, rate, conflict float64) string {
	clauses := make([]string, 0, 5)

	if profile.IsActiveHour(hour) {
		clauses = append(clauses, "user typically active at this time")
	}
	if rate > 0.7 {
		clauses = append(clauses, "high historical response rate")
	}
	if conflict < 0.3 {
		clauses = append(clauses, "low conflict with baby's schedule")
	}
	if profile.AvgResponseTimeAt(hour) < 10 {
		clauses = append(clauses, "user typically responds quickly")
	}
	if urgency == domain.UrgencyHigh {
		clauses = append(clauses, "prioritized for safety importance")
	}

	if len(clauses) == 0 {
		return "best available hour from learned activity pattern"
	}
	return strings.Join(clauses, ", ")
}

func alternativeTimes(now time.Time, candidates []int, scores map[int]float64, chosen int) []time.Time {
	ranked := make([]int, 0, len(candidates))
	for _, hour := range candidates {
		if hour != chosen {
			ranked = append(ranked, hour)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	times := make([]time.Time, 0, len(ranked))
	for _, hour := range ranked {
		times = append(times, hourToTime(now, hour))
	}
	return times
}
