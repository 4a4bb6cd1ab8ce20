package learning

import (
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
)

// DefaultOldWeight is the share of the previous estimate kept on each update.
const DefaultOldWeight = 0.8

// Updater folds notification outcomes and app usage into a behavior profile
// using a fixed-weight exponential filter. The weight is configuration, not
// a learned parameter.
type Updater struct {
	oldWeight float64
}

func NewUpdater(oldWeight float64) *Updater {
	if oldWeight <= 0 || oldWeight >= 1 {
		oldWeight = DefaultOldWeight
	}
	return &Updater{oldWeight: oldWeight}
}

// RecordAppUsage marks the hour and weekday of the usage as active and moves
// the last-active timestamp forward.
func (u *Updater) RecordAppUsage(profile *domain.BehaviorProfile, ts time.Time) {
	profile.AddActiveHour(ts.Hour())
	profile.AddWeekdayHour(ts.Weekday().String(), ts.Hour())
	if ts.After(profile.LastActiveTime) {
		profile.LastActiveTime = ts
	}
	profile.UpdatedAt = time.Now().UTC()
}

// RecordNotificationResponse folds one delivery outcome into the per-hour
// statistics for the hour the notification was delivered.
func (u *Updater) RecordNotificationResponse(
	profile *domain.BehaviorProfile,
	deliveredAt, respondedAt time.Time,
	action domain.ResponseAction,
) {
	hour := deliveredAt.Hour()

	signal := 0.0
	if action.Engaged() {
		signal = 1.0
	}

	rate := profile.ResponseRateAt(hour)*u.oldWeight + signal*(1-u.oldWeight)
	profile.ResponseRateByHour[hour] = clamp01(rate)

	if action.Engaged() && respondedAt.After(deliveredAt) {
		latency := respondedAt.Sub(deliveredAt).Minutes()
		avg := profile.AvgResponseTimeAt(hour)*u.oldWeight + latency*(1-u.oldWeight)
		if avg < 0 {
			avg = 0
		}
		profile.AvgResponseByHour[hour] = avg
	}

	profile.UpdatedAt = time.Now().UTC()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
