package domain

import "time"

// NapWindow is a recurring daytime sleep window. Reliability weights how
// strongly the window should block notification delivery.
type NapWindow struct {
	Window      ClockWindow `json:"window"`
	Reliability float64     `json:"reliability"`
}

// FussyPeriod is a recurring high-stress window for the infant.
type FussyPeriod struct {
	Window    ClockWindow `json:"window"`
	Intensity float64     `json:"intensity"`
}

// SleepAnchor is a bedtime or wakeup time with an observed consistency.
type SleepAnchor struct {
	Time        string  `json:"time"`
	Consistency float64 `json:"consistency"`
}

// BabySchedule describes one tracked infant's sleep, feeding and fussy
// routine. All time fields are wall-clock "HH:MM"; windows may wrap midnight.
type BabySchedule struct {
	CaregiverID  string        `json:"caregiver_id"`
	NapTimes     []NapWindow   `json:"nap_times"`
	Bedtime      SleepAnchor   `json:"bedtime"`
	WakeupTime   SleepAnchor   `json:"wakeup_time"`
	FeedingHours []int         `json:"feeding_hours"`
	FussyPeriods []FussyPeriod `json:"fussy_periods"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DefaultBabySchedule seeds a typical newborn routine until the caregiver
// supplies their own.
func DefaultBabySchedule(caregiverID string) *BabySchedule {
	return &BabySchedule{
		CaregiverID: caregiverID,
		NapTimes: []NapWindow{
			{Window: ClockWindow{Start: "09:30", End: "10:30"}, Reliability: 0.7},
			{Window: ClockWindow{Start: "13:00", End: "15:00"}, Reliability: 0.8},
		},
		Bedtime:      SleepAnchor{Time: "19:30", Consistency: 0.8},
		WakeupTime:   SleepAnchor{Time: "06:30", Consistency: 0.7},
		FeedingHours: []int{6, 9, 12, 15, 18, 21},
		FussyPeriods: []FussyPeriod{
			{Window: ClockWindow{Start: "17:00", End: "19:00"}, Intensity: 0.6},
		},
	}
}

// ConflictAt scores how strongly the given hour overlaps infant sleep,
// feeding or fussy activity. Naps contribute reliability-weighted 0.8, fussy
// periods intensity-weighted 0.6, feeding hours a mild 0.2. Capped at 1.0.
func (s *BabySchedule) ConflictAt(hour int) float64 {
	conflict := 0.0

	for _, nap := range s.NapTimes {
		if nap.Window.ContainsHour(hour) {
			conflict += nap.Reliability * 0.8
		}
	}

	for _, fussy := range s.FussyPeriods {
		if fussy.Window.ContainsHour(hour) {
			conflict += fussy.Intensity * 0.6
		}
	}

	for _, feeding := range s.FeedingHours {
		if feeding == hour {
			conflict += 0.2
			break
		}
	}

	if conflict > 1.0 {
		conflict = 1.0
	}
	return conflict
}

// Validate checks every wall-clock field parses as "HH:MM".
func (s *BabySchedule) Validate() error {
	for _, nap := range s.NapTimes {
		if err := nap.Window.Validate(); err != nil {
			return err
		}
	}
	for _, fussy := range s.FussyPeriods {
		if err := fussy.Window.Validate(); err != nil {
			return err
		}
	}
	if s.Bedtime.Time != "" {
		if _, err := ParseClock(s.Bedtime.Time); err != nil {
			return err
		}
	}
	if s.WakeupTime.Time != "" {
		if _, err := ParseClock(s.WakeupTime.Time); err != nil {
			return err
		}
	}
	for _, h := range s.FeedingHours {
		if h < 0 || h > 23 {
			return ErrInvalidHour
		}
	}
	return nil
}
