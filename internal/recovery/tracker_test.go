package recovery

import (
	"sync"
	"testing"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
)

func key(cat domain.FailureCategory, task, resource string) domain.FailureKey {
	return domain.KeyFor(domain.FailureReport{Category: cat, TaskID: task, ResourceID: resource})
}

func TestKeyFor_Defaults(t *testing.T) {
	k := domain.KeyFor(domain.FailureReport{Category: domain.CategoryNetwork})
	if k.TaskID != domain.KeyGlobalTask {
		t.Errorf("expected task %q, got %q", domain.KeyGlobalTask, k.TaskID)
	}
	if k.ResourceID != domain.KeyNoResource {
		t.Errorf("expected resource %q, got %q", domain.KeyNoResource, k.ResourceID)
	}
}

func TestTracker_BumpAndClear(t *testing.T) {
	tr := newTracker()
	k := key(domain.CategoryNetwork, "t1", "p1")
	now := time.Now()

	if n := tr.bump(k, now); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	if n := tr.bump(k, now); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	if n := tr.count(k); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}

	tr.clear(k)
	if n := tr.count(k); n != 0 {
		t.Errorf("expected 0 after clear, got %d", n)
	}
}

func TestTracker_DistinctResourceDistinctKey(t *testing.T) {
	tr := newTracker()
	now := time.Now()

	tr.bump(key(domain.CategoryProxy, "t1", "proxy-a"), now)
	tr.bump(key(domain.CategoryProxy, "t1", "proxy-b"), now)
	tr.bump(key(domain.CategoryProxy, "t1", "proxy-b"), now)

	if n := tr.count(key(domain.CategoryProxy, "t1", "proxy-a")); n != 1 {
		t.Errorf("proxy-a: expected 1, got %d", n)
	}
	if n := tr.count(key(domain.CategoryProxy, "t1", "proxy-b")); n != 2 {
		t.Errorf("proxy-b: expected 2, got %d", n)
	}
	if tr.size() != 2 {
		t.Errorf("expected 2 live keys, got %d", tr.size())
	}
}

func TestTracker_ActiveSince(t *testing.T) {
	tr := newTracker()
	now := time.Now()

	tr.bump(key(domain.CategoryNetwork, "old", ""), now.Add(-2*time.Hour))
	tr.bump(key(domain.CategoryNetwork, "new", ""), now)

	active := tr.activeSince(now.Add(-time.Hour))
	if active[domain.CategoryNetwork] != 1 {
		t.Errorf("expected 1 recent network key, got %d", active[domain.CategoryNetwork])
	}
}

func TestTracker_ConcurrentBumps(t *testing.T) {
	tr := newTracker()
	k := key(domain.CategoryRateLimit, "t1", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				tr.bump(k, time.Now())
			}
		}()
	}
	wg.Wait()

	if n := tr.count(k); n != 500 {
		t.Errorf("expected 500, got %d (lost updates)", n)
	}
}
