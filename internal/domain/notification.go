package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus tracks a scheduled notification through its lifecycle.
type NotificationStatus string

const (
	StatusHeld      NotificationStatus = "held"
	StatusSent      NotificationStatus = "sent"
	StatusCancelled NotificationStatus = "cancelled"
)

// ScheduledNotification is one pending or just-sent notice produced by the
// scheduling engine.
type ScheduledNotification struct {
	ID              string             `json:"id"`
	CaregiverID     string             `json:"caregiver_id"`
	RecallID        string             `json:"recall_id"`
	Urgency         Urgency            `json:"urgency"`
	Title           string             `json:"title"`
	Body            string             `json:"body"`
	ScheduledFor    time.Time          `json:"scheduled_for"`
	Priority        int                `json:"priority"`
	TimingReasoning string             `json:"timing_reasoning"`
	Confidence      float64            `json:"confidence"`
	Status          NotificationStatus `json:"status"`
	BatchCount      int                `json:"batch_count,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// NewScheduledNotification builds a notification record with timing artifacts
// attached at creation.
func NewScheduledNotification(
	caregiverID, recallID string,
	urgency Urgency,
	title, body string,
	scheduledFor time.Time,
	reasoning string,
	confidence float64,
) *ScheduledNotification {
	return &ScheduledNotification{
		ID:              uuid.NewString(),
		CaregiverID:     caregiverID,
		RecallID:        recallID,
		Urgency:         urgency,
		Title:           title,
		Body:            body,
		ScheduledFor:    scheduledFor,
		Priority:        urgency.Priority(),
		TimingReasoning: reasoning,
		Confidence:      confidence,
		Status:          StatusHeld,
		CreatedAt:       time.Now().UTC(),
	}
}

// IsDue reports whether the notification should have fired by now.
func (n *ScheduledNotification) IsDue(now time.Time) bool {
	return !n.ScheduledFor.After(now)
}
