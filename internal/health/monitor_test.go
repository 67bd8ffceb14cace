package health

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/recovery"
	"github.com/vietddude/mend/internal/recovery/backoff"
)

func fastEngine() *recovery.Engine {
	cfg := recovery.DefaultConfig()
	cfg.MaxRetries = 100
	cfg.BackoffStrategy = backoff.KindImmediate
	return recovery.New(cfg)
}

func runRecovery(e *recovery.Engine, task string, fail bool) {
	r := domain.FailureReport{Category: domain.CategoryNetwork, Message: "x", TaskID: task}
	action := e.AnalyzeError(r)
	e.ExecuteRecovery(context.Background(), r, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			if fail {
				return errors.New("still broken")
			}
			return nil
		})
}

func TestMonitor_HealthyWhenQuiet(t *testing.T) {
	m := NewMonitor(fastEngine(), nil, DefaultThresholds())

	report := m.Check()
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy with no activity, got %s", report.Status)
	}
}

func TestMonitor_CriticalOnLowSuccessRate(t *testing.T) {
	engine := fastEngine()
	for i := 0; i < 6; i++ {
		runRecovery(engine, "t", true)
	}

	m := NewMonitor(engine, nil, Thresholds{
		DegradedSuccessRate: 75,
		CriticalSuccessRate: 25,
		MinAttempts:         5,
		MaxActiveFailures:   100,
	})

	report := m.Check()
	if report.Status != StatusCritical {
		t.Errorf("expected critical at 0%% recent success, got %s", report.Status)
	}
}

func TestMonitor_DegradedOnManyActiveFailures(t *testing.T) {
	engine := fastEngine()
	// Distinct task ids create distinct live failure keys.
	for i := 0; i < 4; i++ {
		engine.AnalyzeError(domain.FailureReport{
			Category: domain.CategoryNetwork,
			TaskID:   string(rune('a' + i)),
		})
	}

	m := NewMonitor(engine, nil, Thresholds{
		DegradedSuccessRate: 75,
		CriticalSuccessRate: 25,
		MinAttempts:         100,
		MaxActiveFailures:   3,
	})

	report := m.Check()
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded with 4 active failures, got %s", report.Status)
	}
}

func TestMonitor_SuccessRateNeedsMinAttempts(t *testing.T) {
	engine := fastEngine()
	runRecovery(engine, "t", true) // one failure only

	m := NewMonitor(engine, nil, Thresholds{
		DegradedSuccessRate: 75,
		CriticalSuccessRate: 25,
		MinAttempts:         5,
		MaxActiveFailures:   100,
	})

	report := m.Check()
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy below the attempt floor, got %s", report.Status)
	}
}
