// Package health provides system health monitoring and status reporting for
// the recovery engine and its task runner.
package health

import (
	"time"

	"github.com/vietddude/mend/internal/core/domain"
)

// SystemStatus represents the overall health state of the system.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full health report derived from engine observability.
type Report struct {
	Status            SystemStatus                   `json:"status"`
	CheckedAt         time.Time                      `json:"checked_at"`
	Tasks             int                            `json:"tasks"`
	RecentAttempts    int                            `json:"recent_attempts"`
	RecentSuccessRate float64                        `json:"recent_success_rate"`
	ActiveFailures    map[domain.FailureCategory]int `json:"active_failures"`
	TotalRecoveries   int                            `json:"total_recoveries"`
	SuccessRate       float64                        `json:"success_rate"`
}
