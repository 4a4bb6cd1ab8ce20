package domain

import "time"

// TimePrediction is the predictor's recommendation for a single notification,
// including the trust artifacts surfaced to the caregiver.
type TimePrediction struct {
	RecommendedTime  time.Time   `json:"recommended_time"`
	Confidence       float64     `json:"confidence"`
	Reasoning        string      `json:"reasoning"`
	AlternativeTimes []time.Time `json:"alternative_times,omitempty"`
}

// DelayDecision is the arbiter's verdict on a proposed delivery time.
type DelayDecision struct {
	ShouldDelay   bool      `json:"should_delay"`
	Confidence    float64   `json:"confidence"`
	Reason        string    `json:"reason"`
	SuggestedTime time.Time `json:"suggested_time,omitempty"`
}
