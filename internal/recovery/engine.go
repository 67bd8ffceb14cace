// Package recovery implements the self-healing error-recovery engine. Given a
// classified failure it decides what remedial action to take, how long to
// wait, and when to give up; it then executes the action through a
// caller-supplied side effect and records the outcome for observability.
//
// The engine performs no I/O of its own. Tasks, resources and units are
// opaque identifiers; the caller owns the actual proxies, tabs and pages.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/mend/internal/core/domain"
)

// PerformFunc is the caller-supplied side effect that carries out a recovery
// action. A returned error (or panic) marks the recovery as failed.
type PerformFunc func(ctx context.Context, action domain.RecoveryAction) error

// Engine is the recovery decision and execution engine. One engine serves one
// logical task runner; all methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex // guards cfg and policy
	cfg     Config
	policy  *policySet
	tracker *tracker
	history *ring
	events  *emitter
	log     *slog.Logger
}

// New creates an engine with the given config. Zero-valued fields fall back
// to engine defaults.
func New(cfg Config) *Engine {
	cfg = cfg.normalized()
	log := slog.Default()
	return &Engine{
		cfg:     cfg,
		policy:  newPolicySet(cfg),
		tracker: newTracker(),
		history: newRing(cfg.HistoryCapacity),
		events:  newEmitter(log),
		log:     log,
	}
}

// AnalyzeError decides the recovery action for a failure report. It bumps the
// failure count for the report's key first; once the count exceeds MaxRetries
// the decision is abort regardless of category.
func (e *Engine) AnalyzeError(report domain.FailureReport) domain.RecoveryAction {
	if report.OccurredAt.IsZero() {
		report.OccurredAt = time.Now()
	}
	key := domain.KeyFor(report)
	count := e.tracker.bump(key, report.OccurredAt)

	e.mu.RLock()
	cfg := e.cfg
	policy := e.policy
	e.mu.RUnlock()

	var action domain.RecoveryAction
	if count > cfg.MaxRetries {
		action = domain.RecoveryAction{
			Kind:   domain.ActionAbort,
			Reason: fmt.Sprintf("retry limit reached: %d failures for %s (max %d)", count, key.Category, cfg.MaxRetries),
		}
	} else {
		d := policy.decide(report, count, cfg)
		action = d.action
		if d.jitter {
			action.Delay = jitter(action.Delay, cfg.MaxBackoff)
		}
	}

	e.log.Debug("failure analyzed",
		"category", string(report.Category),
		"task", key.TaskID,
		"resource", key.ResourceID,
		"count", count,
		"action", string(action.Kind),
		"delay", action.Delay,
	)
	e.events.emit(EventActionExecuted, EventData{
		Category: report.Category,
		Action:   action,
		Attempt:  count,
	})
	return action
}

// CalculateBackoff returns the jittered strategy delay for the given attempt,
// for callers that want timing without classification.
func (e *Engine) CalculateBackoff(attempt int) time.Duration {
	e.mu.RLock()
	cfg := e.cfg
	policy := e.policy
	e.mu.RUnlock()

	return jitter(policy.strategy.Delay(attempt), cfg.MaxBackoff)
}

// ExecuteRecovery waits out the action's delay, invokes perform and records
// the outcome. It never returns an error: a failing or panicking perform
// yields a failed outcome instead. On success the failure count for the
// report's key is cleared.
//
// The delay wait observes ctx; cancellation skips perform and records a
// failed outcome carrying the context error. The engine does not serialize
// concurrent recoveries for the same key — callers recover sequentially per
// task.
func (e *Engine) ExecuteRecovery(
	ctx context.Context,
	report domain.FailureReport,
	action domain.RecoveryAction,
	perform PerformFunc,
) domain.RecoveryOutcome {
	key := domain.KeyFor(report)
	attempt := e.tracker.count(key)

	e.events.emit(EventRecoveryStarted, EventData{
		Category: report.Category,
		Action:   action,
		Attempt:  attempt,
	})

	start := time.Now()

	if action.Delay > 0 {
		e.events.emit(EventBackoffApplied, EventData{
			Category: report.Category,
			Action:   action,
			Delay:    action.Delay,
		})
		if err := e.wait(ctx, action.Delay); err != nil {
			return e.finish(report, action, attempt, start, err)
		}
	}

	err := e.perform(ctx, action, perform)
	return e.finish(report, action, attempt, start, err)
}

// wait blocks for d or until ctx is done.
func (e *Engine) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// perform invokes the caller's side effect, converting panics into errors so
// they never escape the engine.
func (e *Engine) perform(ctx context.Context, action domain.RecoveryAction, fn PerformFunc) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery action panicked: %v", r)
		}
	}()
	return fn(ctx, action)
}

func (e *Engine) finish(
	report domain.FailureReport,
	action domain.RecoveryAction,
	attempt int,
	start time.Time,
	err error,
) domain.RecoveryOutcome {
	outcome := domain.RecoveryOutcome{
		ID:         uuid.New().String(),
		Succeeded:  err == nil,
		Action:     action,
		Attempt:    attempt,
		Duration:   time.Since(start),
		Category:   report.Category,
		RecordedAt: time.Now(),
	}
	if err != nil {
		outcome.Error = err.Error()
	}

	data := EventData{
		Category: report.Category,
		Action:   action,
		Attempt:  attempt,
		Outcome:  &outcome,
	}
	if outcome.Succeeded {
		e.tracker.clear(domain.KeyFor(report))
		e.events.emit(EventRecoverySuccess, data)
	} else {
		e.log.Warn("recovery failed",
			"category", string(report.Category),
			"action", string(action.Kind),
			"attempt", attempt,
			"error", outcome.Error,
		)
		e.events.emit(EventRecoveryFailed, data)
	}

	e.history.append(outcome)
	return outcome
}

// ---------------------------------------------------------------------------
// Counters
// ---------------------------------------------------------------------------

// ErrorCount returns the current failure count for the report's key. Only the
// category/task/resource fields of the report matter.
func (e *Engine) ErrorCount(report domain.FailureReport) int {
	return e.tracker.count(domain.KeyFor(report))
}

// ClearErrorCount resets the failure count for the report's key.
func (e *Engine) ClearErrorCount(report domain.FailureReport) {
	e.tracker.clear(domain.KeyFor(report))
}

// ClearAllErrorCounts resets every failure count.
func (e *Engine) ClearAllErrorCounts() {
	e.tracker.clearAll()
}

// ---------------------------------------------------------------------------
// Observability
// ---------------------------------------------------------------------------

// Stats recomputes aggregate statistics from the full history buffer.
func (e *Engine) Stats() AggregateStats {
	return computeStats(e.history.snapshot())
}

// Metrics returns a rolling snapshot over the last hour and fires
// metrics:updated.
func (e *Engine) Metrics() RollingMetrics {
	now := time.Now()
	m := computeMetrics(e.history.snapshot(), e.tracker.activeSince(now.Add(-metricsWindow)), now)
	e.events.emit(EventMetricsUpdated, EventData{Metrics: &m})
	return m
}

// History returns a snapshot copy of the outcome history, oldest first.
func (e *Engine) History() []domain.RecoveryOutcome {
	return e.history.snapshot()
}

// ClearHistory drops all recorded outcomes.
func (e *Engine) ClearHistory() {
	e.history.clear()
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// UpdateConfig applies a partial config update and rebuilds the strategy and
// all category handlers as one immutable set.
func (e *Engine) UpdateConfig(patch ConfigPatch) {
	e.mu.Lock()
	e.cfg = patch.apply(e.cfg)
	e.policy = newPolicySet(e.cfg)
	capacity := e.cfg.HistoryCapacity
	e.mu.Unlock()

	e.history.resize(capacity)
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// StrategyName names the active backoff strategy.
func (e *Engine) StrategyName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy.strategy.Name()
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// On subscribes a handler to an event and returns a subscription id for Off.
func (e *Engine) On(evt Event, fn Handler) int {
	return e.events.on(evt, fn)
}

// Off removes the subscription with the given id.
func (e *Engine) Off(evt Event, id int) {
	e.events.off(evt, id)
}

// RemoveAllListeners drops every subscription.
func (e *Engine) RemoveAllListeners() {
	e.events.removeAll()
}

// jitter perturbs d by up to ±10%, rounded to the nearest millisecond and
// clamped to [0, max]. Desynchronizes retry storms across concurrent tasks.
func jitter(d, max time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	f := 1 + 0.10*(rand.Float64()*2-1)
	ms := math.Round(float64(d) * f / float64(time.Millisecond))
	j := time.Duration(ms) * time.Millisecond
	if j < 0 {
		return 0
	}
	if max > 0 && j > max {
		return max
	}
	return j
}
