package runner

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// TaskFunc performs one cycle of watch work against the given resource.
type TaskFunc func(ctx context.Context, resourceID string) error

// RestartFunc tears down and recreates the task's unit (tab, session).
type RestartFunc func(ctx context.Context) error

// Task is a long-running unit of watch work supervised by the Runner.
type Task struct {
	ID       string
	Name     string
	Origin   string
	Interval time.Duration

	Run     TaskFunc
	Restart RestartFunc // optional; nil means restart-unit is a no-op
}

// NewTask builds a task with a generated id.
func NewTask(name, origin string, interval time.Duration, run TaskFunc) *Task {
	return &Task{
		ID:       uuid.New().String(),
		Name:     name,
		Origin:   origin,
		Interval: interval,
		Run:      run,
	}
}

// NewProbeTask builds a task that fetches a URL each cycle and treats any
// non-2xx status as a failure. It is the built-in watch flavor used by the
// config-driven supervisor; richer automations install their own TaskFunc.
func NewProbeTask(name, url string, interval time.Duration, client *http.Client) *Task {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return NewTask(name, url, interval, func(ctx context.Context, resourceID string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build probe request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("probe returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil
	})
}
