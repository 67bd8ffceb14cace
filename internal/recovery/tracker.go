package recovery

import (
	"sync"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
)

// failureEntry tracks one recurring failure context.
type failureEntry struct {
	count    int
	lastSeen time.Time
}

// tracker keeps attempt counts and last-seen timestamps per failure key.
// The read-increment-write sequence is guarded so concurrent reports for the
// same key never lose updates.
type tracker struct {
	mu      sync.Mutex
	entries map[domain.FailureKey]*failureEntry
}

func newTracker() *tracker {
	return &tracker{entries: make(map[domain.FailureKey]*failureEntry)}
}

// bump atomically increments the count for key and returns the new value.
func (t *tracker) bump(key domain.FailureKey, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = &failureEntry{}
		t.entries[key] = e
	}
	e.count++
	e.lastSeen = now
	return e.count
}

// count returns the current count for key, 0 if never seen.
func (t *tracker) count(key domain.FailureKey) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[key]; ok {
		return e.count
	}
	return 0
}

// clear removes the entry for key so a future failure starts fresh.
func (t *tracker) clear(key domain.FailureKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

func (t *tracker) clearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[domain.FailureKey]*failureEntry)
}

// size returns the number of live failure keys.
func (t *tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// activeSince counts live keys per category whose last report is after cutoff.
func (t *tracker) activeSince(cutoff time.Time) map[domain.FailureCategory]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := make(map[domain.FailureCategory]int)
	for key, e := range t.entries {
		if e.lastSeen.After(cutoff) {
			active[key.Category]++
		}
	}
	return active
}
