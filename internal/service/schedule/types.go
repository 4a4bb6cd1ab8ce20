package schedule

import (
	"github.com/be-saavy/notification-timing/internal/domain"
)

// Request is one scheduling request from the alerting layer.
type Request struct {
	CaregiverID string
	RecallID    string
	Urgency     domain.Urgency
	Title       string
	Body        string
}

// Result reports what the scheduler decided for a request. Suppression by
// preference is an expected outcome, not an error.
type Result struct {
	Accepted       bool
	Suppressed     bool
	SuppressReason string
	Delivered      bool
	Notification   *domain.ScheduledNotification
}

// ContextualFactors is a partial edit of profile-level delivery context.
// Nil fields are left untouched.
type ContextualFactors struct {
	QuietPeriods []domain.ClockWindow `json:"quiet_periods"`
}

func suppressed(reason string) *Result {
	return &Result{
		Accepted:       false,
		Suppressed:     true,
		SuppressReason: reason,
	}
}
