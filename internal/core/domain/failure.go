package domain

import "time"

// FailureCategory classifies what went wrong in a watch task.
type FailureCategory string

const (
	CategoryNetwork   FailureCategory = "network"
	CategoryProxy     FailureCategory = "proxy"
	CategoryChallenge FailureCategory = "challenge"
	CategoryTimeout   FailureCategory = "timeout"
	CategoryRateLimit FailureCategory = "rate_limit"
	CategoryCrash     FailureCategory = "crash"
	CategoryUnknown   FailureCategory = "unknown"
)

// Categories lists every known failure category.
var Categories = []FailureCategory{
	CategoryNetwork,
	CategoryProxy,
	CategoryChallenge,
	CategoryTimeout,
	CategoryRateLimit,
	CategoryCrash,
	CategoryUnknown,
}

// FailureReport describes a single classified failure reported by a caller.
type FailureReport struct {
	Category   FailureCategory `json:"category"`
	Message    string          `json:"message"`
	TaskID     string          `json:"task_id,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Origin     string          `json:"origin,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// FailureKey identifies a recurring failure context. Counts are tracked
// independently per key. A struct key avoids the delimiter-collision problem
// of concatenated string keys.
type FailureKey struct {
	Category   FailureCategory
	TaskID     string
	ResourceID string
}

const (
	// KeyGlobalTask is substituted when a report carries no task id.
	KeyGlobalTask = "global"
	// KeyNoResource is substituted when a report carries no resource id.
	KeyNoResource = "none"
)

// KeyFor derives the tracking key for a report.
func KeyFor(r FailureReport) FailureKey {
	k := FailureKey{
		Category:   r.Category,
		TaskID:     r.TaskID,
		ResourceID: r.ResourceID,
	}
	if k.TaskID == "" {
		k.TaskID = KeyGlobalTask
	}
	if k.ResourceID == "" {
		k.ResourceID = KeyNoResource
	}
	return k
}
