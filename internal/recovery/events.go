package recovery

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
)

// Event names emitted by the engine.
type Event string

const (
	EventRecoveryStarted Event = "recovery:started"
	EventRecoverySuccess Event = "recovery:success"
	EventRecoveryFailed  Event = "recovery:failed"
	EventActionExecuted  Event = "action:executed"
	EventBackoffApplied  Event = "backoff:applied"
	EventMetricsUpdated  Event = "metrics:updated"
)

// EventData carries the fields published with an event. Only the fields
// relevant to the event name are set.
type EventData struct {
	Category domain.FailureCategory
	Action   domain.RecoveryAction
	Attempt  int
	Delay    time.Duration
	Outcome  *domain.RecoveryOutcome
	Metrics  *RollingMetrics
}

// Handler receives engine events. Handlers run synchronously on the emitting
// goroutine, in registration order.
type Handler func(evt Event, data EventData)

type subscription struct {
	id int
	fn Handler
}

// emitter is a minimal synchronous pub/sub keyed by event name. A panicking
// handler is recovered and logged; the remaining handlers still run.
type emitter struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Event][]subscription
	log    *slog.Logger
}

func newEmitter(log *slog.Logger) *emitter {
	return &emitter{subs: make(map[Event][]subscription), log: log}
}

// on registers a handler and returns its subscription id.
func (e *emitter) on(evt Event, fn Handler) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	e.subs[evt] = append(e.subs[evt], subscription{id: e.nextID, fn: fn})
	return e.nextID
}

// off removes the subscription with the given id from evt.
func (e *emitter) off(evt Event, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.subs[evt]
	for i, sub := range list {
		if sub.id == id {
			e.subs[evt] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (e *emitter) removeAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = make(map[Event][]subscription)
}

func (e *emitter) emit(evt Event, data EventData) {
	e.mu.RLock()
	list := make([]subscription, len(e.subs[evt]))
	copy(list, e.subs[evt])
	e.mu.RUnlock()

	for _, sub := range list {
		e.dispatch(evt, sub, data)
	}
}

func (e *emitter) dispatch(evt Event, sub subscription, data EventData) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("event handler panicked", "event", string(evt), "panic", r)
		}
	}()
	sub.fn(evt, data)
}
