// Package metrics exposes prometheus collectors for the recovery engine and
// bridges engine events into them.
package metrics

import (
	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/recovery"
)

// Bridge mirrors engine events into the prometheus collectors. Close detaches
// it from the engine.
type Bridge struct {
	engine *recovery.Engine
	subs   map[recovery.Event]int
}

// Bind subscribes the collectors to the engine's event stream.
func Bind(engine *recovery.Engine) *Bridge {
	b := &Bridge{engine: engine, subs: make(map[recovery.Event]int)}

	b.subs[recovery.EventActionExecuted] = engine.On(recovery.EventActionExecuted,
		func(_ recovery.Event, data recovery.EventData) {
			DecisionsTotal.WithLabelValues(string(data.Category), string(data.Action.Kind)).Inc()
		})

	b.subs[recovery.EventBackoffApplied] = engine.On(recovery.EventBackoffApplied,
		func(_ recovery.Event, data recovery.EventData) {
			BackoffDelay.WithLabelValues(string(data.Category)).Observe(data.Delay.Seconds())
		})

	b.subs[recovery.EventRecoverySuccess] = engine.On(recovery.EventRecoverySuccess,
		func(_ recovery.Event, data recovery.EventData) {
			b.observeOutcome(data, "success")
		})

	b.subs[recovery.EventRecoveryFailed] = engine.On(recovery.EventRecoveryFailed,
		func(_ recovery.Event, data recovery.EventData) {
			b.observeOutcome(data, "failure")
		})

	b.subs[recovery.EventMetricsUpdated] = engine.On(recovery.EventMetricsUpdated,
		func(_ recovery.Event, data recovery.EventData) {
			if data.Metrics == nil {
				return
			}
			RecentSuccessRate.Set(data.Metrics.RecentSuccessRate)
			for _, cat := range domain.Categories {
				ActiveFailures.WithLabelValues(string(cat)).Set(float64(data.Metrics.ActiveFailures[cat]))
			}
		})

	return b
}

func (b *Bridge) observeOutcome(data recovery.EventData, result string) {
	RecoveriesTotal.WithLabelValues(string(data.Category), string(data.Action.Kind), result).Inc()
	if data.Outcome != nil {
		RecoveryDuration.WithLabelValues(string(data.Category)).Observe(data.Outcome.Duration.Seconds())
	}
}

// Close removes the bridge's subscriptions from the engine.
func (b *Bridge) Close() {
	for evt, id := range b.subs {
		b.engine.Off(evt, id)
	}
	b.subs = make(map[recovery.Event]int)
}
