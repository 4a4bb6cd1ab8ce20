package domain

import "context"

// Delivery is the payload handed to the delivery transport. Display options
// come from the caregiver's general preferences.
type Delivery struct {
	NotificationID   string `json:"notification_id"`
	CaregiverID      string `json:"caregiver_id"`
	RecallID         string `json:"recall_id"`
	Urgency          string `json:"urgency"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	Priority         int    `json:"priority"`
	Sound            bool   `json:"sound"`
	Vibration        bool   `json:"vibration"`
	ShowOnLockscreen bool   `json:"show_on_lockscreen"`
}

// DeliveryClient hands a notification to the out-of-process delivery
// transport. The core treats delivery as fire-and-forget: a false return is
// reported to the caller but never retried at this layer.
type DeliveryClient interface {
	Deliver(ctx context.Context, delivery *Delivery) (bool, error)
}
