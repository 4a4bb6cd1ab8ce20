package domain

import "time"

// HighSchedule selects how high-urgency notices are timed.
type HighSchedule string

const (
	HighScheduleImmediate     HighSchedule = "immediate"
	HighScheduleNextOptimal   HighSchedule = "next_optimal"
	HighScheduleEveningDigest HighSchedule = "evening_digest"
)

func (s HighSchedule) IsValid() bool {
	return s == HighScheduleImmediate || s == HighScheduleNextOptimal || s == HighScheduleEveningDigest
}

// MediumFrequency selects how medium-urgency notices are timed.
type MediumFrequency string

const (
	MediumImmediate   MediumFrequency = "immediate"
	MediumDailyDigest MediumFrequency = "daily_digest"
	MediumWeekly      MediumFrequency = "weekly"
	MediumDisabled    MediumFrequency = "disabled"
)

func (f MediumFrequency) IsValid() bool {
	return f == MediumImmediate || f == MediumDailyDigest || f == MediumWeekly || f == MediumDisabled
}

// QuietHours is the caregiver-configured suppression window for non-critical
// delivery.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// CriticalPreferences cannot be disabled by any configuration.
type CriticalPreferences struct {
	Enabled bool `json:"enabled"`
}

type HighPreferences struct {
	Enabled    bool         `json:"enabled"`
	Schedule   HighSchedule `json:"schedule"`
	QuietHours QuietHours   `json:"quiet_hours"`
}

type MediumPreferences struct {
	Enabled   bool            `json:"enabled"`
	Frequency MediumFrequency `json:"frequency"`
	BatchWith string          `json:"batch_with"`
}

// GeneralPreferences are display-only delivery options passed through to the
// transport layer.
type GeneralPreferences struct {
	Sound            bool `json:"sound"`
	Vibration        bool `json:"vibration"`
	ShowOnLockscreen bool `json:"show_on_lockscreen"`
	GroupSimilar     bool `json:"group_similar"`
}

// Preferences is the per-caregiver notification policy.
type Preferences struct {
	CaregiverID string              `json:"caregiver_id"`
	Critical    CriticalPreferences `json:"critical"`
	High        HighPreferences     `json:"high"`
	Medium      MediumPreferences   `json:"medium"`
	General     GeneralPreferences  `json:"general"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// DefaultPreferences returns the policy applied before the caregiver edits
// anything.
func DefaultPreferences(caregiverID string) *Preferences {
	return &Preferences{
		CaregiverID: caregiverID,
		Critical:    CriticalPreferences{Enabled: true},
		High: HighPreferences{
			Enabled:  true,
			Schedule: HighScheduleNextOptimal,
			QuietHours: QuietHours{
				Enabled: true,
				Start:   "22:00",
				End:     "07:00",
			},
		},
		Medium: MediumPreferences{
			Enabled:   true,
			Frequency: MediumDailyDigest,
		},
		General: GeneralPreferences{
			Sound:            true,
			Vibration:        true,
			ShowOnLockscreen: true,
			GroupSimilar:     true,
		},
	}
}

// Normalize enforces invariants after a partial update: critical stays
// enabled and enum fields fall back to defaults when unknown.
func (p *Preferences) Normalize() {
	p.Critical.Enabled = true
	if !p.High.Schedule.IsValid() {
		p.High.Schedule = HighScheduleNextOptimal
	}
	if !p.Medium.Frequency.IsValid() {
		p.Medium.Frequency = MediumDailyDigest
	}
}

// Validate checks the quiet-hours bounds parse as "HH:MM".
func (p *Preferences) Validate() error {
	if p.High.QuietHours.Enabled {
		w := ClockWindow{Start: p.High.QuietHours.Start, End: p.High.QuietHours.End}
		if err := w.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// QuietWindow returns the enabled quiet-hours window, if any.
func (p *Preferences) QuietWindow() (ClockWindow, bool) {
	if !p.High.QuietHours.Enabled {
		return ClockWindow{}, false
	}
	return ClockWindow{Start: p.High.QuietHours.Start, End: p.High.QuietHours.End}, true
}
