package domain

import "time"

// RecoveryOutcome records the result of one executed recovery action.
type RecoveryOutcome struct {
	ID         string          `json:"id"`
	Succeeded  bool            `json:"succeeded"`
	Action     RecoveryAction  `json:"action"`
	Attempt    int             `json:"attempt"`
	Duration   time.Duration   `json:"duration"`
	Error      string          `json:"error,omitempty"`
	Category   FailureCategory `json:"category"`
	RecordedAt time.Time       `json:"recorded_at"`
}
