package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/recovery/backoff"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseBackoff = 1 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	cfg.SwitchDelay = 1 * time.Millisecond
	cfg.ChallengePause = 5 * time.Millisecond
	cfg.RestartDelay = 2 * time.Millisecond
	return cfg
}

func networkReport(taskID string) domain.FailureReport {
	return domain.FailureReport{
		Category: domain.CategoryNetwork,
		Message:  "connection reset",
		TaskID:   taskID,
	}
}

// =============================================================================
// Decision tests
// =============================================================================

// Scenario A: maxRetries 3, exponential base 1000ms, multiplier 2. Four
// network reports for one key yield retry, retry, retry, abort, with the
// third retry's base delay 4000ms (observed within the ±10% jitter band).
func TestAnalyzeError_RetryLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	cfg.BaseBackoff = 1000 * time.Millisecond
	cfg.MaxBackoff = 60 * time.Second
	cfg.BackoffMultiplier = 2.0
	cfg.BackoffStrategy = backoff.KindExponential
	engine := New(cfg)

	report := networkReport("task-1")

	for i := 1; i <= 3; i++ {
		action := engine.AnalyzeError(report)
		if action.Kind != domain.ActionRetry {
			t.Fatalf("report %d: expected retry, got %s", i, action.Kind)
		}
		if i == 3 {
			// Base 4000ms, jitter keeps it within ±10%.
			if action.Delay < 3600*time.Millisecond || action.Delay > 4400*time.Millisecond {
				t.Errorf("third retry delay %v outside jitter band [3.6s, 4.4s]", action.Delay)
			}
		}
	}

	action := engine.AnalyzeError(report)
	if action.Kind != domain.ActionAbort {
		t.Fatalf("fourth report: expected abort, got %s", action.Kind)
	}
	if action.Reason == "" {
		t.Error("abort action should carry a reason")
	}
}

// Scenario B: challenge handling "pause" yields a fixed 60s backoff
// regardless of attempt count.
func TestAnalyzeError_ChallengePause(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChallengeHandling = ChallengePause
	cfg.ChallengePause = 60 * time.Second
	engine := New(cfg)

	action := engine.AnalyzeError(domain.FailureReport{
		Category: domain.CategoryChallenge,
		Message:  "captcha wall",
		TaskID:   "task-1",
	})
	if action.Kind != domain.ActionBackoff {
		t.Fatalf("expected backoff, got %s", action.Kind)
	}
	if action.Delay != 60*time.Second {
		t.Errorf("expected exact 60s pause (no jitter), got %v", action.Delay)
	}
}

// Scenario C: proxy failure with failover enabled switches resource on the
// very first occurrence with a fixed 500ms delay.
func TestAnalyzeError_ProxyFailover(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResourceFailoverEnabled = true
	cfg.SwitchDelay = 500 * time.Millisecond
	engine := New(cfg)

	action := engine.AnalyzeError(domain.FailureReport{
		Category:   domain.CategoryProxy,
		Message:    "407 proxy authentication required",
		TaskID:     "task-1",
		ResourceID: "proxy-a",
	})
	if action.Kind != domain.ActionSwitchResource {
		t.Fatalf("expected switch_resource, got %s", action.Kind)
	}
	if action.Delay != 500*time.Millisecond {
		t.Errorf("expected exact 500ms switch delay, got %v", action.Delay)
	}
}

// Scenario D: first timeout retries, second escalates to restart-unit at half
// the restart delay when unit restart is enabled.
func TestAnalyzeError_TimeoutEscalation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnitRestartEnabled = true
	cfg.RestartDelay = 5 * time.Second
	engine := New(cfg)

	report := domain.FailureReport{
		Category: domain.CategoryTimeout,
		Message:  "navigation timed out",
		TaskID:   "task-1",
	}

	first := engine.AnalyzeError(report)
	if first.Kind != domain.ActionRetry {
		t.Fatalf("first timeout: expected retry, got %s", first.Kind)
	}

	second := engine.AnalyzeError(report)
	if second.Kind != domain.ActionRestartUnit {
		t.Fatalf("second timeout: expected restart_unit, got %s", second.Kind)
	}
	if second.Delay != 2500*time.Millisecond {
		t.Errorf("expected restart delay 2.5s (half of 5s), got %v", second.Delay)
	}
}

func TestAnalyzeError_UnknownCategoryFallback(t *testing.T) {
	engine := New(testConfig())

	action := engine.AnalyzeError(domain.FailureReport{
		Category: domain.FailureCategory("something-new"),
		Message:  "???",
		TaskID:   "task-1",
	})
	if action.Kind != domain.ActionRetry {
		t.Errorf("unrecognized category should fall back to retry, got %s", action.Kind)
	}
}

func TestErrorCount_KeysIndependent(t *testing.T) {
	engine := New(testConfig())

	a := networkReport("task-a")
	b := networkReport("task-b")

	engine.AnalyzeError(a)
	engine.AnalyzeError(a)
	engine.AnalyzeError(b)

	if n := engine.ErrorCount(a); n != 2 {
		t.Errorf("expected count 2 for task-a, got %d", n)
	}
	if n := engine.ErrorCount(b); n != 1 {
		t.Errorf("expected count 1 for task-b, got %d", n)
	}

	engine.ClearErrorCount(a)
	if n := engine.ErrorCount(a); n != 0 {
		t.Errorf("expected count 0 after clear, got %d", n)
	}
	if n := engine.ErrorCount(b); n != 1 {
		t.Errorf("clearing task-a must not touch task-b, got %d", n)
	}

	engine.ClearAllErrorCounts()
	if n := engine.ErrorCount(b); n != 0 {
		t.Errorf("expected count 0 after clear all, got %d", n)
	}
}

func TestAnalyzeError_ConcurrentSameKey(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 1000
	engine := New(cfg)

	report := networkReport("task-1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				engine.AnalyzeError(report)
			}
		}()
	}
	wg.Wait()

	if n := engine.ErrorCount(report); n != 500 {
		t.Errorf("expected 500 reports counted, got %d (lost updates)", n)
	}
}

// =============================================================================
// Backoff calculation
// =============================================================================

func TestCalculateBackoff_JitterBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseBackoff = 1000 * time.Millisecond
	cfg.MaxBackoff = 60 * time.Second
	engine := New(cfg)

	// Attempt 3 -> base 4000ms. Jitter stays within ±10%.
	for i := 0; i < 100; i++ {
		d := engine.CalculateBackoff(3)
		if d < 3600*time.Millisecond || d > 4400*time.Millisecond {
			t.Fatalf("jittered delay %v outside [3.6s, 4.4s]", d)
		}
	}
}

func TestCalculateBackoff_ClampedToMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseBackoff = 1 * time.Second
	cfg.MaxBackoff = 5 * time.Second
	engine := New(cfg)

	for attempt := 1; attempt <= 20; attempt++ {
		if d := engine.CalculateBackoff(attempt); d > 5*time.Second {
			t.Fatalf("attempt %d: delay %v exceeds max", attempt, d)
		}
	}
}

// =============================================================================
// Execution tests
// =============================================================================

func TestExecuteRecovery_Success(t *testing.T) {
	engine := New(testConfig())
	report := networkReport("task-1")

	action := engine.AnalyzeError(report)
	if n := engine.ErrorCount(report); n != 1 {
		t.Fatalf("expected count 1 before recovery, got %d", n)
	}

	performed := false
	outcome := engine.ExecuteRecovery(context.Background(), report, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			performed = true
			return nil
		})

	if !performed {
		t.Fatal("perform was not called")
	}
	if !outcome.Succeeded {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.Attempt != 1 {
		t.Errorf("expected attempt 1, got %d", outcome.Attempt)
	}
	// Success clears the key's counter.
	if n := engine.ErrorCount(report); n != 0 {
		t.Errorf("expected count reset to 0 after success, got %d", n)
	}
	if got := len(engine.History()); got != 1 {
		t.Errorf("expected 1 history entry, got %d", got)
	}
}

// Scenario E: a perform that fails with "boom" yields a failed outcome with
// that message and exactly one history entry.
func TestExecuteRecovery_PerformError(t *testing.T) {
	engine := New(testConfig())
	report := networkReport("task-1")
	action := engine.AnalyzeError(report)

	outcome := engine.ExecuteRecovery(context.Background(), report, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			return errors.New("boom")
		})

	if outcome.Succeeded {
		t.Fatal("expected failed outcome")
	}
	if outcome.Error != "boom" {
		t.Errorf("expected error message %q, got %q", "boom", outcome.Error)
	}
	if got := len(engine.History()); got != 1 {
		t.Errorf("expected exactly 1 history entry, got %d", got)
	}
	// Failure keeps the counter.
	if n := engine.ErrorCount(report); n != 1 {
		t.Errorf("expected count 1 after failed recovery, got %d", n)
	}
}

func TestExecuteRecovery_PerformPanic(t *testing.T) {
	engine := New(testConfig())
	report := networkReport("task-1")
	action := engine.AnalyzeError(report)

	outcome := engine.ExecuteRecovery(context.Background(), report, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			panic("kaboom")
		})

	if outcome.Succeeded {
		t.Fatal("expected failed outcome after panic")
	}
	if outcome.Error == "" {
		t.Error("expected captured panic message")
	}
}

func TestExecuteRecovery_ContextCancelledDuringDelay(t *testing.T) {
	engine := New(testConfig())
	report := networkReport("task-1")
	engine.AnalyzeError(report)

	action := domain.RecoveryAction{
		Kind:  domain.ActionBackoff,
		Delay: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	performed := false
	start := time.Now()
	outcome := engine.ExecuteRecovery(ctx, report, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			performed = true
			return nil
		})

	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation did not interrupt the delay")
	}
	if performed {
		t.Error("perform must not run after cancellation")
	}
	if outcome.Succeeded {
		t.Error("cancelled recovery must be recorded as failed")
	}
}

func TestExecuteRecovery_EventSequence(t *testing.T) {
	engine := New(testConfig())
	report := networkReport("task-1")

	var mu sync.Mutex
	var seen []Event
	for _, evt := range []Event{EventRecoveryStarted, EventBackoffApplied, EventRecoverySuccess, EventRecoveryFailed} {
		engine.On(evt, func(e Event, _ EventData) {
			mu.Lock()
			seen = append(seen, e)
			mu.Unlock()
		})
	}

	action := domain.RecoveryAction{Kind: domain.ActionRetry, Delay: 1 * time.Millisecond}
	engine.ExecuteRecovery(context.Background(), report, action,
		func(ctx context.Context, a domain.RecoveryAction) error { return nil })

	want := []Event{EventRecoveryStarted, EventBackoffApplied, EventRecoverySuccess}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("expected events %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

// =============================================================================
// Config tests
// =============================================================================

func TestUpdateConfig_RebuildsStrategy(t *testing.T) {
	engine := New(testConfig())
	if name := engine.StrategyName(); name != "exponential" {
		t.Fatalf("expected exponential default, got %q", name)
	}

	kind := backoff.KindFibonacci
	engine.UpdateConfig(ConfigPatch{BackoffStrategy: &kind})

	if name := engine.StrategyName(); name != "fibonacci" {
		t.Errorf("expected fibonacci after update, got %q", name)
	}
}

func TestUpdateConfig_Partial(t *testing.T) {
	engine := New(testConfig())
	before := engine.Config()

	retries := 7
	engine.UpdateConfig(ConfigPatch{MaxRetries: &retries})

	after := engine.Config()
	if after.MaxRetries != 7 {
		t.Errorf("expected MaxRetries 7, got %d", after.MaxRetries)
	}
	if after.BaseBackoff != before.BaseBackoff {
		t.Errorf("unrelated field changed: %v != %v", after.BaseBackoff, before.BaseBackoff)
	}
}
