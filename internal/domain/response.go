package domain

// ResponseAction is what the caregiver did with a delivered notification.
type ResponseAction string

const (
	ActionOpened    ResponseAction = "opened"
	ActionDismissed ResponseAction = "dismissed"
	ActionActed     ResponseAction = "acted"
)

func (a ResponseAction) IsValid() bool {
	return a == ActionOpened || a == ActionDismissed || a == ActionActed
}

// Engaged reports whether the action counts as a positive response signal.
func (a ResponseAction) Engaged() bool {
	return a == ActionOpened || a == ActionActed
}
