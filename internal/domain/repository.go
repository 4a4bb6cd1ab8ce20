package domain

import (
	"context"
	"time"
)

// ProfileRepository persists per-caregiver behavior, schedule and preference
// state. Absent records are reported with the package sentinel errors so the
// caller can seed defaults.
type ProfileRepository interface {
	GetBehaviorProfile(ctx context.Context, caregiverID string) (*BehaviorProfile, error)
	SaveBehaviorProfile(ctx context.Context, profile *BehaviorProfile) error
	GetBabySchedule(ctx context.Context, caregiverID string) (*BabySchedule, error)
	SaveBabySchedule(ctx context.Context, schedule *BabySchedule) error
	GetPreferences(ctx context.Context, caregiverID string) (*Preferences, error)
	SavePreferences(ctx context.Context, prefs *Preferences) error
}

// PendingRepository holds the set of held notifications keyed by id.
type PendingRepository interface {
	SavePending(ctx context.Context, notification *ScheduledNotification) error
	GetPending(ctx context.Context, caregiverID, notificationID string) (*ScheduledNotification, error)
	ListPending(ctx context.Context, caregiverID string) ([]*ScheduledNotification, error)
	DeletePending(ctx context.Context, caregiverID, notificationID string) (bool, error)
	ListDue(ctx context.Context, caregiverID string, now time.Time) ([]*ScheduledNotification, error)
	ListCaregiversWithPending(ctx context.Context) ([]string, error)
}
