package domain

// Urgency classifies a notification for override and delay policy.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
)

func (u Urgency) String() string {
	return string(u)
}

func (u Urgency) IsValid() bool {
	return u == UrgencyCritical || u == UrgencyHigh || u == UrgencyMedium
}

// Priority returns the rank used for sort order and display.
func (u Urgency) Priority() int {
	switch u {
	case UrgencyCritical:
		return 10
	case UrgencyHigh:
		return 7
	case UrgencyMedium:
		return 4
	default:
		return 0
	}
}

// ContentType classifies notification content for scoring adjustments.
type ContentType string

const (
	ContentRecall      ContentType = "recall"
	ContentDevelopment ContentType = "development"
	ContentGeneral     ContentType = "general"
)

func (c ContentType) IsValid() bool {
	return c == ContentRecall || c == ContentDevelopment || c == ContentGeneral
}
