package predict

import (
	"context"
	"testing"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
)

// fixedNow is a Wednesday at 09:30 local time.
var fixedNow = time.Date(2025, time.March, 12, 9, 30, 0, 0, time.UTC)

func testPredictor() *Predictor {
	return NewPredictor().WithNow(func() time.Time { return fixedNow })
}

func quietSchedule() *domain.BabySchedule {
	return &domain.BabySchedule{CaregiverID: "caregiver-1"}
}

func profileWithHours(hours ...int) *domain.BehaviorProfile {
	profile := domain.NewBehaviorProfile("caregiver-1")
	for _, h := range hours {
		profile.AddActiveHour(h)
	}
	return profile
}

func TestPredictCriticalBypass(t *testing.T) {
	p := testPredictor()

	// Even with an empty profile and a fully blocked schedule.
	profile := domain.NewBehaviorProfile("caregiver-1")
	schedule := &domain.BabySchedule{
		NapTimes: []domain.NapWindow{
			{Window: domain.ClockWindow{Start: "00:00", End: "23:59"}, Reliability: 1.0},
		},
	}

	got := p.Predict(context.Background(), profile, schedule, domain.UrgencyCritical, domain.ContentRecall)

	if !got.RecommendedTime.Equal(fixedNow) {
		t.Errorf("critical recommended time = %v, want now (%v)", got.RecommendedTime, fixedNow)
	}
	if got.Confidence != 1.0 {
		t.Errorf("critical confidence = %v, want 1.0", got.Confidence)
	}
	if got.Reasoning != criticalReasoning {
		t.Errorf("critical reasoning = %q", got.Reasoning)
	}
}

func TestPredictNoHistoryFailsSafeToImmediate(t *testing.T) {
	p := testPredictor()

	got := p.Predict(context.Background(), domain.NewBehaviorProfile("caregiver-1"), quietSchedule(), domain.UrgencyHigh, domain.ContentRecall)

	if !got.RecommendedTime.Equal(fixedNow) {
		t.Errorf("recommended time = %v, want now", got.RecommendedTime)
	}
}

func TestPredictPicksHighestScoringHour(t *testing.T) {
	p := testPredictor()

	profile := profileWithHours(14, 20)
	profile.ResponseRateByHour = map[int]float64{14: 0.9, 20: 0.2}

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyMedium, domain.ContentGeneral)

	if got.RecommendedTime.Hour() != 14 {
		t.Errorf("recommended hour = %d, want 14", got.RecommendedTime.Hour())
	}
	if got.RecommendedTime.Day() != fixedNow.Day() {
		t.Errorf("14:00 is still ahead today, should not roll to tomorrow")
	}
}

func TestPredictRollsToTomorrowWhenElapsed(t *testing.T) {
	p := testPredictor()

	// Only candidate hour is already past at 09:30.
	profile := profileWithHours(8)

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyMedium, domain.ContentGeneral)

	want := fixedNow.AddDate(0, 0, 1)
	if got.RecommendedTime.Day() != want.Day() || got.RecommendedTime.Hour() != 8 {
		t.Errorf("recommended = %v, want tomorrow 08:00", got.RecommendedTime)
	}
}

func TestPredictHighUrgencyRecencyBias(t *testing.T) {
	p := testPredictor()

	// Hour 20 scores far higher, but 10 is within the recency window after
	// the current hour (9) and 9 is itself a candidate.
	profile := profileWithHours(9, 10, 20)
	profile.ResponseRateByHour = map[int]float64{9: 0.3, 10: 0.3, 20: 0.95}

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyHigh, domain.ContentRecall)

	if got.RecommendedTime.Hour() != 9 && got.RecommendedTime.Hour() != 10 {
		t.Errorf("recommended hour = %d, want a near-term hour (9 or 10), not 20", got.RecommendedTime.Hour())
	}
	if delta := got.RecommendedTime.Sub(fixedNow); delta < 0 || delta > 4*time.Hour {
		t.Errorf("recommended = %v, %v from now; an urgent notice must stay near-term, not roll a day", got.RecommendedTime, delta)
	}
}

func TestPredictRecencyBiasCurrentHourDeliversNow(t *testing.T) {
	p := testPredictor()

	// The current hour wins the bias outright: delivery is now, not the
	// already-elapsed hour top rolled to tomorrow.
	profile := profileWithHours(9, 20)
	profile.ResponseRateByHour = map[int]float64{9: 0.3, 20: 0.95}

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyHigh, domain.ContentRecall)

	if !got.RecommendedTime.Equal(fixedNow) {
		t.Errorf("recommended = %v, want now (%v)", got.RecommendedTime, fixedNow)
	}
}

func TestPredictRecencyBiasRequiresCurrentHourCandidate(t *testing.T) {
	p := testPredictor()

	// Current hour 9 is not a candidate, so the bias does not apply and the
	// best-scoring hour wins.
	profile := profileWithHours(10, 20)
	profile.ResponseRateByHour = map[int]float64{10: 0.3, 20: 0.95}

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyHigh, domain.ContentRecall)

	if got.RecommendedTime.Hour() != 20 {
		t.Errorf("recommended hour = %d, want 20", got.RecommendedTime.Hour())
	}
}

func TestPredictWeeklyPatternOverridesActiveHours(t *testing.T) {
	p := testPredictor()

	profile := profileWithHours(14)
	profile.WeeklyPattern = map[string][]int{
		"Wednesday": {16},
	}

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyMedium, domain.ContentGeneral)

	if got.RecommendedTime.Hour() != 16 {
		t.Errorf("recommended hour = %d, want weekday-pattern hour 16", got.RecommendedTime.Hour())
	}
}

func TestPredictConfidenceMonotonicInResponseRate(t *testing.T) {
	p := testPredictor()
	schedule := quietSchedule()

	prev := -1.0
	for _, rate := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		profile := profileWithHours(14)
		profile.ResponseRateByHour = map[int]float64{14: rate}

		got := p.Predict(context.Background(), profile, schedule, domain.UrgencyMedium, domain.ContentGeneral)
		if got.Confidence < prev {
			t.Errorf("confidence decreased from %v to %v when rate rose to %v", prev, got.Confidence, rate)
		}
		prev = got.Confidence
	}
}

func TestPredictNapConflictLowersScore(t *testing.T) {
	p := testPredictor()

	profile := profileWithHours(14, 16)
	profile.ResponseRateByHour = map[int]float64{14: 0.6, 16: 0.6}

	schedule := &domain.BabySchedule{
		NapTimes: []domain.NapWindow{
			{Window: domain.ClockWindow{Start: "13:00", End: "15:00"}, Reliability: 0.9},
		},
	}

	got := p.Predict(context.Background(), profile, schedule, domain.UrgencyMedium, domain.ContentGeneral)

	if got.RecommendedTime.Hour() != 16 {
		t.Errorf("recommended hour = %d, want 16 (14 is inside the nap window)", got.RecommendedTime.Hour())
	}
}

func TestPredictAlternativeTimes(t *testing.T) {
	p := testPredictor()

	profile := profileWithHours(10, 12, 14, 16, 18)

	got := p.Predict(context.Background(), profile, quietSchedule(), domain.UrgencyMedium, domain.ContentGeneral)

	if len(got.AlternativeTimes) != 3 {
		t.Errorf("alternative times = %d, want 3", len(got.AlternativeTimes))
	}
	for _, alt := range got.AlternativeTimes {
		if alt.Equal(got.RecommendedTime) {
			t.Error("alternatives must not repeat the recommended time")
		}
	}
}

func TestHourConfidence(t *testing.T) {
	p := testPredictor()

	profile := profileWithHours(14)
	profile.ResponseRateByHour = map[int]float64{14: 1.0}
	schedule := quietSchedule()

	// 0.7 + 0.2 active + 0.3*1.0 + 0.2*(1-0) = 1.4, capped.
	if got := p.HourConfidence(profile, schedule, domain.UrgencyMedium, 14); got != 1.0 {
		t.Errorf("HourConfidence = %v, want capped at 1.0", got)
	}

	// Unknown hour: 0.7 + 0.3*0.5 + 0.2 = 1.05, capped.
	if got := p.HourConfidence(domain.NewBehaviorProfile("c"), schedule, domain.UrgencyMedium, 3); got != 1.0 {
		t.Errorf("HourConfidence for unknown hour = %v, want 1.0", got)
	}
}
