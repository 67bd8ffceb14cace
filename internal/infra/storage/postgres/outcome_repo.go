package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/infra/storage"
)

// OutcomeRepo implements storage.OutcomeRepository using PostgreSQL.
type OutcomeRepo struct {
	db *DB
}

// NewOutcomeRepo creates a new PostgreSQL outcome repository.
func NewOutcomeRepo(db *DB) *OutcomeRepo {
	return &OutcomeRepo{db: db}
}

// outcomeRow is the table representation of a recovery outcome.
type outcomeRow struct {
	ID         string    `db:"id"`
	Succeeded  bool      `db:"succeeded"`
	ActionKind string    `db:"action_kind"`
	Reason     string    `db:"reason"`
	DelayMs    int64     `db:"delay_ms"`
	Attempt    int       `db:"attempt"`
	DurationMs int64     `db:"duration_ms"`
	Error      string    `db:"error_msg"`
	Category   string    `db:"category"`
	RecordedAt time.Time `db:"recorded_at"`
}

// Add archives one outcome.
func (r *OutcomeRepo) Add(ctx context.Context, o *domain.RecoveryOutcome) error {
	query := `
		INSERT INTO recovery_outcomes
			(id, succeeded, action_kind, reason, delay_ms, attempt, duration_ms, error_msg, category, recorded_at)
		VALUES
			(:id, :succeeded, :action_kind, :reason, :delay_ms, :attempt, :duration_ms, :error_msg, :category, :recorded_at)
	`
	row := outcomeRow{
		ID:         o.ID,
		Succeeded:  o.Succeeded,
		ActionKind: string(o.Action.Kind),
		Reason:     o.Action.Reason,
		DelayMs:    o.Action.Delay.Milliseconds(),
		Attempt:    o.Attempt,
		DurationMs: o.Duration.Milliseconds(),
		Error:      o.Error,
		Category:   string(o.Category),
		RecordedAt: o.RecordedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to archive outcome: %w", err)
	}
	return nil
}

// Recent returns the newest outcomes, newest first.
func (r *OutcomeRepo) Recent(ctx context.Context, limit int) ([]*domain.RecoveryOutcome, error) {
	query := `
		SELECT id, succeeded, action_kind, reason, delay_ms, attempt, duration_ms, error_msg, category, recorded_at
		FROM recovery_outcomes
		ORDER BY recorded_at DESC
		LIMIT $1
	`
	var rows []outcomeRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent outcomes: %w", err)
	}

	outcomes := make([]*domain.RecoveryOutcome, len(rows))
	for i, row := range rows {
		outcomes[i] = row.toDomain()
	}
	return outcomes, nil
}

// Summary aggregates archived outcomes per category.
func (r *OutcomeRepo) Summary(ctx context.Context) ([]storage.CategorySummary, error) {
	query := `
		SELECT category,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE succeeded) AS succeeded
		FROM recovery_outcomes
		GROUP BY category
		ORDER BY category
	`
	var summaries []storage.CategorySummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("failed to query outcome summary: %w", err)
	}
	return summaries, nil
}

// Count returns the number of archived outcomes.
func (r *OutcomeRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM recovery_outcomes`); err != nil {
		return 0, fmt.Errorf("failed to count outcomes: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes outcomes recorded before the cutoff.
func (r *OutcomeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recovery_outcomes WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune outcomes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

func (row outcomeRow) toDomain() *domain.RecoveryOutcome {
	return &domain.RecoveryOutcome{
		ID:        row.ID,
		Succeeded: row.Succeeded,
		Action: domain.RecoveryAction{
			Kind:   domain.ActionKind(row.ActionKind),
			Reason: row.Reason,
			Delay:  time.Duration(row.DelayMs) * time.Millisecond,
		},
		Attempt:    row.Attempt,
		Duration:   time.Duration(row.DurationMs) * time.Millisecond,
		Error:      row.Error,
		Category:   domain.FailureCategory(row.Category),
		RecordedAt: row.RecordedAt,
	}
}
