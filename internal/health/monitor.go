package health

import (
	"sync"
	"time"

	"github.com/vietddude/mend/internal/recovery"
)

// TaskCounter reports how many tasks are under supervision.
type TaskCounter interface {
	TaskCount() int
}

// Thresholds tune when the monitor degrades the system status.
type Thresholds struct {
	// DegradedSuccessRate is the recent success-rate floor (percent) below
	// which the system is degraded, CriticalSuccessRate the critical floor.
	DegradedSuccessRate float64
	CriticalSuccessRate float64
	// MinAttempts is how many recent attempts are needed before success-rate
	// thresholds apply at all.
	MinAttempts int
	// MaxActiveFailures degrades the system when live failure keys exceed it.
	MaxActiveFailures int
}

// DefaultThresholds are the monitor defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DegradedSuccessRate: 75,
		CriticalSuccessRate: 25,
		MinAttempts:         5,
		MaxActiveFailures:   10,
	}
}

// Monitor derives a health report from the engine's stats and metrics.
type Monitor struct {
	engine     *recovery.Engine
	tasks      TaskCounter
	thresholds Thresholds

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a monitor. tasks may be nil.
func NewMonitor(engine *recovery.Engine, tasks TaskCounter, thresholds Thresholds) *Monitor {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Monitor{engine: engine, tasks: tasks, thresholds: thresholds}
}

// Check computes the current health report. Results are cached briefly so
// frequent polling does not hammer the engine's history buffer.
func (m *Monitor) Check() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && !m.lastCheck.IsZero() {
		return m.lastReport
	}

	stats := m.engine.Stats()
	metrics := m.engine.Metrics()

	report := Report{
		Status:            StatusHealthy,
		CheckedAt:         time.Now(),
		RecentAttempts:    metrics.RecentAttempts,
		RecentSuccessRate: metrics.RecentSuccessRate,
		ActiveFailures:    metrics.ActiveFailures,
		TotalRecoveries:   stats.Total,
		SuccessRate:       stats.SuccessRate,
	}
	if m.tasks != nil {
		report.Tasks = m.tasks.TaskCount()
	}

	active := 0
	for _, n := range metrics.ActiveFailures {
		active += n
	}
	if active > m.thresholds.MaxActiveFailures {
		report.Status = StatusDegraded
	}

	if metrics.RecentAttempts >= m.thresholds.MinAttempts {
		switch {
		case metrics.RecentSuccessRate < m.thresholds.CriticalSuccessRate:
			report.Status = StatusCritical
		case metrics.RecentSuccessRate < m.thresholds.DegradedSuccessRate:
			report.Status = StatusDegraded
		}
	}

	m.lastCheck = report.CheckedAt
	m.lastReport = report
	return report
}
