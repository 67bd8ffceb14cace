package backoff

import (
	"testing"
	"time"
)

func TestImmediate_Delay(t *testing.T) {
	s := Immediate{}
	for _, attempt := range []int{1, 2, 10, 100} {
		if d := s.Delay(attempt); d != 0 {
			t.Errorf("attempt %d: expected 0, got %v", attempt, d)
		}
	}
}

func TestLinear_Delay(t *testing.T) {
	s := &Linear{Base: 1 * time.Second, Max: 5 * time.Second}

	if d := s.Delay(1); d != 1*time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := s.Delay(3); d != 3*time.Second {
		t.Errorf("expected 3s, got %v", d)
	}
	// Attempt 10: 10s, capped at 5s
	if d := s.Delay(10); d != 5*time.Second {
		t.Errorf("expected cap 5s, got %v", d)
	}
}

func TestExponential_Delay(t *testing.T) {
	s := &Exponential{Base: 1 * time.Second, Max: 30 * time.Second, Multiplier: 2.0}

	// 1*2^0=1s, 1*2^1=2s, 1*2^2=4s
	cases := map[int]time.Duration{
		1: 1 * time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		4: 8 * time.Second,
	}
	for attempt, want := range cases {
		if d := s.Delay(attempt); d != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, d)
		}
	}

	// Cap at Max
	if d := s.Delay(20); d != 30*time.Second {
		t.Errorf("expected cap 30s, got %v", d)
	}
}

func TestExponential_Monotonic(t *testing.T) {
	s := &Exponential{Base: 500 * time.Millisecond, Max: 60 * time.Second, Multiplier: 2.0}

	prev := time.Duration(-1)
	for attempt := 1; attempt <= 30; attempt++ {
		d := s.Delay(attempt)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > s.Max {
			t.Fatalf("delay exceeds max at attempt %d: %v", attempt, d)
		}
		prev = d
	}
}

func TestFibonacci_Delay(t *testing.T) {
	s := &Fibonacci{Base: 100 * time.Millisecond, Max: 10 * time.Second}

	// fib: 1, 1, 2, 3, 5, 8
	cases := map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 100 * time.Millisecond,
		3: 200 * time.Millisecond,
		4: 300 * time.Millisecond,
		5: 500 * time.Millisecond,
		6: 800 * time.Millisecond,
	}
	for attempt, want := range cases {
		if d := s.Delay(attempt); d != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, d)
		}
	}

	// Large attempt: capped, not overflowed
	if d := s.Delay(200); d != 10*time.Second {
		t.Errorf("expected cap 10s, got %v", d)
	}
}

func TestFibonacci_MemoReuse(t *testing.T) {
	s := &Fibonacci{Base: 1 * time.Millisecond, Max: time.Hour}

	// Warm up past attempt 20, then spot-check earlier entries stay correct.
	_ = s.Delay(20)
	if d := s.Delay(7); d != 13*time.Millisecond {
		t.Errorf("expected 13ms for fib(7)=13, got %v", d)
	}
	if d := s.Delay(10); d != 55*time.Millisecond {
		t.Errorf("expected 55ms for fib(10)=55, got %v", d)
	}
}

func TestNew_Factory(t *testing.T) {
	cases := map[Kind]string{
		KindImmediate:   "immediate",
		KindLinear:      "linear",
		KindExponential: "exponential",
		KindFibonacci:   "fibonacci",
	}
	for kind, want := range cases {
		s := New(kind, time.Second, time.Minute, 2.0)
		if s.Name() != want {
			t.Errorf("kind %q: expected name %q, got %q", kind, want, s.Name())
		}
	}

	// Unknown kind falls back to exponential.
	s := New(Kind("bogus"), time.Second, time.Minute, 2.0)
	if s.Name() != "exponential" {
		t.Errorf("expected exponential fallback, got %q", s.Name())
	}
}
