package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/mend/internal/infra/storage"
)

// Pruner deletes archived outcomes past the retention period.
type Pruner struct {
	retention time.Duration
	archive   storage.OutcomeRepository
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, archive storage.OutcomeRepository) *Pruner {
	return &Pruner{
		retention: retention,
		archive:   archive,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check interval: 10% of the retention period, clamped to [1m, 1h]
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	removed, err := p.archive.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to prune outcome archive", "error", err)
		return
	}
	if removed > 0 {
		slog.Debug("Pruned outcome archive", "removed", removed, "cutoff", cutoff)
	}
}
