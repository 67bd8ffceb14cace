package recovery

import (
	"sync"

	"github.com/vietddude/mend/internal/core/domain"
)

// ring is a fixed-capacity FIFO of recovery outcomes. Appending past capacity
// evicts the oldest entry in O(1).
type ring struct {
	mu    sync.Mutex
	buf   []domain.RecoveryOutcome
	start int
	count int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]domain.RecoveryOutcome, capacity)}
}

func (r *ring) append(o domain.RecoveryOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = o
		r.count++
		return
	}
	// Full: overwrite the oldest slot and advance.
	r.buf[r.start] = o
	r.start = (r.start + 1) % len(r.buf)
}

// snapshot returns the entries oldest-first as a fresh slice.
func (r *ring) snapshot() []domain.RecoveryOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.RecoveryOutcome, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *ring) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = 0
	r.count = 0
}

// resize replaces the backing buffer, keeping the newest entries that fit.
func (r *ring) resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if capacity == len(r.buf) {
		return
	}
	buf := make([]domain.RecoveryOutcome, capacity)
	keep := r.count
	if keep > capacity {
		keep = capacity
	}
	// Copy the newest `keep` entries oldest-first.
	for i := 0; i < keep; i++ {
		buf[i] = r.buf[(r.start+r.count-keep+i)%len(r.buf)]
	}
	r.buf = buf
	r.start = 0
	r.count = keep
}
