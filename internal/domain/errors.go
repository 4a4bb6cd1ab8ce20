package domain

import "errors"

var (
	ErrInvalidTimeFormat      = errors.New("invalid time format, expected HH:MM")
	ErrInvalidHour            = errors.New("hour must be between 0 and 23")
	ErrInvalidUrgency         = errors.New("invalid urgency level")
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrBehaviorProfileMissing = errors.New("behavior profile not found")
	ErrBabyScheduleMissing    = errors.New("baby schedule not found")
	ErrPreferencesMissing     = errors.New("preferences not found")
)
