package domain

import (
	"sort"
	"time"
)

const (
	// Defaults returned for hours with no recorded history.
	DefaultResponseRate        = 0.5
	DefaultResponseTimeMinutes = 15.0
)

// BehaviorProfile holds per-hour caregiver response statistics learned from
// app usage and notification outcomes. One profile per caregiver, long-lived.
type BehaviorProfile struct {
	CaregiverID        string             `json:"caregiver_id"`
	ActiveHours        []int              `json:"active_hours"`
	ResponseRateByHour map[int]float64    `json:"response_rate_by_hour"`
	AvgResponseByHour  map[int]float64    `json:"avg_response_by_hour"`
	WeeklyPattern      map[string][]int   `json:"weekly_pattern"`
	QuietPeriods       []ClockWindow      `json:"quiet_periods"`
	LastActiveTime     time.Time          `json:"last_active_time"`
	LastNotifiedTime   time.Time          `json:"last_notified_time"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewBehaviorProfile creates a profile with empty history for a caregiver.
func NewBehaviorProfile(caregiverID string) *BehaviorProfile {
	return &BehaviorProfile{
		CaregiverID:        caregiverID,
		ActiveHours:        make([]int, 0),
		ResponseRateByHour: make(map[int]float64),
		AvgResponseByHour:  make(map[int]float64),
		WeeklyPattern:      make(map[string][]int),
		QuietPeriods:       make([]ClockWindow, 0),
	}
}

// ResponseRateAt returns the learned response rate for an hour, or the
// default when the hour has no history.
func (p *BehaviorProfile) ResponseRateAt(hour int) float64 {
	if rate, ok := p.ResponseRateByHour[hour]; ok {
		return rate
	}
	return DefaultResponseRate
}

// AvgResponseTimeAt returns the learned response latency in minutes for an
// hour, or the default when the hour has no history.
func (p *BehaviorProfile) AvgResponseTimeAt(hour int) float64 {
	if minutes, ok := p.AvgResponseByHour[hour]; ok {
		return minutes
	}
	return DefaultResponseTimeMinutes
}

// IsActiveHour reports whether the caregiver historically opens the app
// during the given hour.
func (p *BehaviorProfile) IsActiveHour(hour int) bool {
	for _, h := range p.ActiveHours {
		if h == hour {
			return true
		}
	}
	return false
}

// AddActiveHour records an hour into the active set. The set grows
// monotonically; hours are never removed.
func (p *BehaviorProfile) AddActiveHour(hour int) {
	if p.IsActiveHour(hour) {
		return
	}
	p.ActiveHours = append(p.ActiveHours, hour)
	sort.Ints(p.ActiveHours)
}

// AddWeekdayHour records an active hour for a specific weekday.
func (p *BehaviorProfile) AddWeekdayHour(day string, hour int) {
	if p.WeeklyPattern == nil {
		p.WeeklyPattern = make(map[string][]int)
	}
	hours := p.WeeklyPattern[day]
	for _, h := range hours {
		if h == hour {
			return
		}
	}
	hours = append(hours, hour)
	sort.Ints(hours)
	p.WeeklyPattern[day] = hours
}

// CandidateHours returns the hours to score for the given weekday: the
// weekday-specific pattern when one exists, otherwise the overall active set.
func (p *BehaviorProfile) CandidateHours(day string) []int {
	if hours, ok := p.WeeklyPattern[day]; ok && len(hours) > 0 {
		return hours
	}
	return p.ActiveHours
}

// InQuietPeriod reports whether the given minutes-since-midnight point falls
// inside any configured quiet period.
func (p *BehaviorProfile) InQuietPeriod(point int) bool {
	for _, w := range p.QuietPeriods {
		if w.Contains(point) {
			return true
		}
	}
	return false
}

// HourInQuietPeriod reports whether the top of the given hour falls inside
// any quiet period.
func (p *BehaviorProfile) HourInQuietPeriod(hour int) bool {
	return p.InQuietPeriod(hour * 60)
}

// WithQuietWindow returns a shallow copy whose quiet periods also include the
// given window. Used to overlay the preference quiet-hours window onto the
// learned profile for scoring and delay arbitration without persisting it.
func (p *BehaviorProfile) WithQuietWindow(w ClockWindow) *BehaviorProfile {
	cp := *p
	cp.QuietPeriods = append(append([]ClockWindow(nil), p.QuietPeriods...), w)
	return &cp
}
