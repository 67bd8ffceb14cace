package recovery

import (
	"time"

	"github.com/vietddude/mend/internal/core/domain"
)

// AggregateStats summarizes the full recovery history.
type AggregateStats struct {
	Total       int                             `json:"total"`
	Succeeded   int                             `json:"succeeded"`
	Failed      int                             `json:"failed"`
	SuccessRate float64                         `json:"success_rate"` // percent
	AvgDuration time.Duration                   `json:"avg_duration"`
	ByAction    map[domain.ActionKind]int       `json:"by_action"`
	ByCategory  map[domain.FailureCategory]int  `json:"by_category"`
	// RecoveryRate is successes/occurrences per category, in percent.
	RecoveryRate map[domain.FailureCategory]float64 `json:"recovery_rate"`
}

// RollingMetrics is a point-in-time snapshot over the last hour of activity.
type RollingMetrics struct {
	CapturedAt        time.Time                      `json:"captured_at"`
	ActiveFailures    map[domain.FailureCategory]int `json:"active_failures"`
	RecentAttempts    int                            `json:"recent_attempts"`
	RecentSuccessRate float64                        `json:"recent_success_rate"` // percent
	AvgBackoffDelay   time.Duration                  `json:"avg_backoff_delay"`
}

// metricsWindow is how far back RollingMetrics looks.
const metricsWindow = time.Hour

func computeStats(history []domain.RecoveryOutcome) AggregateStats {
	stats := AggregateStats{
		ByAction:     make(map[domain.ActionKind]int),
		ByCategory:   make(map[domain.FailureCategory]int),
		RecoveryRate: make(map[domain.FailureCategory]float64),
	}

	var totalDur time.Duration
	succeededByCat := make(map[domain.FailureCategory]int)

	for _, o := range history {
		stats.Total++
		if o.Succeeded {
			stats.Succeeded++
			succeededByCat[o.Category]++
		} else {
			stats.Failed++
		}
		stats.ByAction[o.Action.Kind]++
		stats.ByCategory[o.Category]++
		totalDur += o.Duration
	}

	if stats.Total > 0 {
		stats.SuccessRate = 100 * float64(stats.Succeeded) / float64(stats.Total)
		stats.AvgDuration = totalDur / time.Duration(stats.Total)
	}
	for cat, total := range stats.ByCategory {
		if total > 0 {
			stats.RecoveryRate[cat] = 100 * float64(succeededByCat[cat]) / float64(total)
		}
	}
	return stats
}

func computeMetrics(
	history []domain.RecoveryOutcome,
	active map[domain.FailureCategory]int,
	now time.Time,
) RollingMetrics {
	m := RollingMetrics{
		CapturedAt:     now,
		ActiveFailures: active,
	}

	cutoff := now.Add(-metricsWindow)
	var recentSucceeded int
	var delaySum time.Duration
	var delayCount int

	for _, o := range history {
		if !o.RecordedAt.After(cutoff) {
			continue
		}
		m.RecentAttempts++
		if o.Succeeded {
			recentSucceeded++
		}
		if o.Action.Delay > 0 {
			delaySum += o.Action.Delay
			delayCount++
		}
	}

	if m.RecentAttempts > 0 {
		m.RecentSuccessRate = 100 * float64(recentSucceeded) / float64(m.RecentAttempts)
	}
	if delayCount > 0 {
		m.AvgBackoffDelay = delaySum / time.Duration(delayCount)
	}
	return m
}
