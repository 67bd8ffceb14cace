// Package memory provides an in-process outcome archive, used when no
// database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/infra/storage"
)

// OutcomeRepo implements storage.OutcomeRepository in memory.
type OutcomeRepo struct {
	mu       sync.RWMutex
	outcomes []*domain.RecoveryOutcome
}

// NewOutcomeRepo creates an empty in-memory outcome repository.
func NewOutcomeRepo() *OutcomeRepo {
	return &OutcomeRepo{}
}

// Add archives one outcome.
func (r *OutcomeRepo) Add(_ context.Context, o *domain.RecoveryOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *o
	r.outcomes = append(r.outcomes, &clone)
	return nil
}

// Recent returns the newest outcomes, newest first.
func (r *OutcomeRepo) Recent(_ context.Context, limit int) ([]*domain.RecoveryOutcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.outcomes)
	if limit > n {
		limit = n
	}
	out := make([]*domain.RecoveryOutcome, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		clone := *r.outcomes[i]
		out = append(out, &clone)
	}
	return out, nil
}

// Summary aggregates archived outcomes per category.
func (r *OutcomeRepo) Summary(_ context.Context) ([]storage.CategorySummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCat := make(map[domain.FailureCategory]*storage.CategorySummary)
	for _, o := range r.outcomes {
		s, ok := byCat[o.Category]
		if !ok {
			s = &storage.CategorySummary{Category: o.Category}
			byCat[o.Category] = s
		}
		s.Total++
		if o.Succeeded {
			s.Succeeded++
		}
	}

	summaries := make([]storage.CategorySummary, 0, len(byCat))
	for _, cat := range domain.Categories {
		if s, ok := byCat[cat]; ok {
			summaries = append(summaries, *s)
		}
	}
	return summaries, nil
}

// Count returns the number of archived outcomes.
func (r *OutcomeRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outcomes), nil
}

// DeleteOlderThan removes outcomes recorded before the cutoff.
func (r *OutcomeRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.outcomes[:0]
	removed := 0
	for _, o := range r.outcomes {
		if o.RecordedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	r.outcomes = kept
	return removed, nil
}
