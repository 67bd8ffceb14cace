// Package runner supervises watch tasks and drives the recovery engine for
// them: it classifies task failures, asks the engine for a remedial action
// and executes it, one recovery at a time per task.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/recovery"
	"github.com/vietddude/mend/internal/resource"
)

// Runner owns a set of tasks and recovers them through one shared engine.
type Runner struct {
	engine *recovery.Engine
	pool   resource.Pool
	log    *slog.Logger

	mu      sync.Mutex
	tasks   []*Task
	started bool
	wg      sync.WaitGroup
	runCtx  context.Context
	cancel  context.CancelFunc
}

// New creates a runner. pool may be nil when no resource failover is wanted.
func New(engine *recovery.Engine, pool resource.Pool) *Runner {
	return &Runner{
		engine: engine,
		pool:   pool,
		log:    slog.Default(),
	}
}

// Add registers a task. Tasks added after Start are picked up immediately.
func (r *Runner) Add(task *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = append(r.tasks, task)
	if r.started {
		r.launch(task)
	}
}

// Start launches one supervision goroutine per task.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	r.runCtx = ctx
	for _, task := range r.tasks {
		r.launch(task)
	}
}

// Stop cancels all task loops and waits for them to drain.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.started = false
	r.mu.Unlock()

	r.wg.Wait()
}

// TaskCount returns the number of registered tasks.
func (r *Runner) TaskCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// launch must be called with r.mu held.
func (r *Runner) launch(task *Task) {
	ctx := r.runCtx
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.supervise(ctx, task)
	}()
}

// supervise runs one task until its context ends or the engine aborts it.
// Recovery is strictly sequential per task, so no two recoveries ever run
// concurrently for the same failure key.
func (r *Runner) supervise(ctx context.Context, task *Task) {
	resourceID := r.acquireResource(ctx, "")
	interval := task.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	r.log.Info("task started", "task", task.Name, "resource", resourceID)

	for {
		err := task.Run(ctx, resourceID)
		if err == nil {
			if !r.sleep(ctx, interval) {
				return
			}
			continue
		}
		if ctx.Err() != nil {
			return
		}

		report := domain.FailureReport{
			Category:   Classify(err),
			Message:    err.Error(),
			TaskID:     task.ID,
			ResourceID: resourceID,
			Origin:     task.Origin,
			OccurredAt: time.Now(),
		}
		action := r.engine.AnalyzeError(report)

		switch action.Kind {
		case domain.ActionAbort:
			r.log.Error("task aborted",
				"task", task.Name,
				"reason", action.Reason,
				"error", err,
			)
			return

		case domain.ActionSkip:
			r.log.Info("cycle skipped", "task", task.Name, "reason", action.Reason)
			if !r.sleep(ctx, interval) {
				return
			}
			continue
		}

		if action.Kind == domain.ActionSwitchResource && action.NewResourceID == "" {
			action.NewResourceID = r.acquireResource(ctx, resourceID)
		}

		outcome := r.engine.ExecuteRecovery(ctx, report, action, func(ctx context.Context, act domain.RecoveryAction) error {
			switch act.Kind {
			case domain.ActionSwitchResource:
				if act.NewResourceID != "" {
					resourceID = act.NewResourceID
				}
				return nil
			case domain.ActionRestartUnit:
				if task.Restart != nil {
					return task.Restart(ctx)
				}
				return nil
			default:
				// retry/backoff: the recovery succeeds only if the retried
				// run does, otherwise the failure count would reset early.
				return task.Run(ctx, resourceID)
			}
		})

		r.log.Debug("recovery executed",
			"task", task.Name,
			"action", string(action.Kind),
			"succeeded", outcome.Succeeded,
			"attempt", outcome.Attempt,
		)

		if ctx.Err() != nil {
			return
		}
		if outcome.Succeeded {
			if !r.sleep(ctx, interval) {
				return
			}
		}
		// Still failing: loop straight back into the run so the next report
		// bumps the count toward the retry ceiling.
	}
}

// acquireResource picks a resource from the pool, excluding the current one.
// Pool errors degrade to keeping the current resource.
func (r *Runner) acquireResource(ctx context.Context, exclude string) string {
	if r.pool == nil {
		return exclude
	}
	id, err := r.pool.Next(ctx, exclude)
	if err != nil {
		if err != resource.ErrEmpty {
			r.log.Warn("resource pool unavailable", "error", err)
		}
		return exclude
	}
	return id
}

// sleep waits for d, returning false when ctx ends first.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
