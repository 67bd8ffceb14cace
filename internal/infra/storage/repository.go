// Package storage defines the outcome archive interfaces. The archive is a
// write-only reporting sink fed from engine events; the engine itself keeps
// its own bounded in-memory history and never reads from here.
package storage

import (
	"context"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
)

// CategorySummary aggregates archived outcomes for one failure category.
type CategorySummary struct {
	Category  domain.FailureCategory `db:"category"`
	Total     int                    `db:"total"`
	Succeeded int                    `db:"succeeded"`
}

// OutcomeRepository persists executed recovery outcomes.
type OutcomeRepository interface {
	// Add archives one outcome.
	Add(ctx context.Context, outcome *domain.RecoveryOutcome) error

	// Recent returns the newest outcomes, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.RecoveryOutcome, error)

	// Summary aggregates archived outcomes per category.
	Summary(ctx context.Context) ([]CategorySummary, error)

	// Count returns the number of archived outcomes.
	Count(ctx context.Context) (int, error)

	// DeleteOlderThan removes outcomes recorded before the cutoff, returning
	// the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
