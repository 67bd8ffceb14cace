// Package backoff provides pluggable retry delay strategies for the recovery
// engine. Strategies are immutable after construction and safe for concurrent
// use; changing strategy means building a new one via New.
package backoff

import (
	"math"
	"sync"
	"time"
)

// Kind selects a strategy variant in configuration.
type Kind string

const (
	KindImmediate   Kind = "immediate"
	KindLinear      Kind = "linear"
	KindExponential Kind = "exponential"
	KindFibonacci   Kind = "fibonacci"
)

// Strategy computes the delay before retry attempt n (1-indexed).
type Strategy interface {
	Delay(attempt int) time.Duration
	Name() string
}

// New builds the strategy for the given kind. Unrecognized kinds fall back
// to exponential, which is the default.
func New(kind Kind, base, maxDelay time.Duration, multiplier float64) Strategy {
	switch kind {
	case KindImmediate:
		return Immediate{}
	case KindLinear:
		return &Linear{Base: base, Max: maxDelay}
	case KindFibonacci:
		return &Fibonacci{Base: base, Max: maxDelay, memo: []uint64{1, 1}}
	default:
		if multiplier <= 1 {
			multiplier = 2.0
		}
		return &Exponential{Base: base, Max: maxDelay, Multiplier: multiplier}
	}
}

// Immediate retries with no delay at all.
type Immediate struct{}

func (Immediate) Delay(_ int) time.Duration { return 0 }
func (Immediate) Name() string              { return string(KindImmediate) }

// Linear grows the delay linearly: Base * attempt, capped at Max.
type Linear struct {
	Base time.Duration
	Max  time.Duration
}

func (s *Linear) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := s.Base * time.Duration(attempt)
	if s.Max > 0 && d > s.Max {
		return s.Max
	}
	return d
}

func (s *Linear) Name() string { return string(KindLinear) }

// Exponential grows the delay geometrically: Base * Multiplier^(attempt-1),
// capped at Max.
type Exponential struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
}

func (s *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(s.Base) * math.Pow(s.Multiplier, float64(attempt-1))
	if s.Max > 0 && d > float64(s.Max) {
		return s.Max
	}
	return time.Duration(d)
}

func (s *Exponential) Name() string { return string(KindExponential) }

// Fibonacci grows the delay along the fibonacci sequence:
// Base * fib(attempt) with fib(1)=1, fib(2)=1, capped at Max. The sequence is
// memoized so repeated calls are O(1) after warm-up.
type Fibonacci struct {
	Base time.Duration
	Max  time.Duration

	mu   sync.Mutex
	memo []uint64
}

func (s *Fibonacci) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	s.mu.Lock()
	if len(s.memo) < 2 {
		s.memo = []uint64{1, 1}
	}
	for len(s.memo) < attempt {
		n := len(s.memo)
		next := s.memo[n-1] + s.memo[n-2]
		if next < s.memo[n-1] { // saturate on overflow
			next = math.MaxUint64
		}
		s.memo = append(s.memo, next)
	}
	fib := s.memo[attempt-1]
	s.mu.Unlock()

	if s.Base <= 0 {
		return 0
	}
	// Overflow guard before multiplying.
	if s.Max > 0 && fib > uint64(s.Max/s.Base) {
		return s.Max
	}
	d := s.Base * time.Duration(fib)
	if s.Max > 0 && d > s.Max {
		return s.Max
	}
	return d
}

func (s *Fibonacci) Name() string { return string(KindFibonacci) }
