package domain

import "time"

// ActionKind is the remedy chosen for a failure.
type ActionKind string

const (
	ActionRetry          ActionKind = "retry"
	ActionSwitchResource ActionKind = "switch_resource"
	ActionRestartUnit    ActionKind = "restart_unit"
	ActionBackoff        ActionKind = "backoff"
	ActionSkip           ActionKind = "skip"
	ActionAbort          ActionKind = "abort"
)

// RecoveryAction is the engine's decision for a reported failure.
// Delay is the wait the executor applies before performing the action.
type RecoveryAction struct {
	Kind          ActionKind    `json:"kind"`
	Reason        string        `json:"reason"`
	Delay         time.Duration `json:"delay"`
	MaxAttempts   int           `json:"max_attempts,omitempty"`
	NewResourceID string        `json:"new_resource_id,omitempty"`
}
