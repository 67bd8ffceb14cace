package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/infra/storage/memory"
)

func TestPruner_RemovesExpiredOutcomes(t *testing.T) {
	repo := memory.NewOutcomeRepo()
	ctx := context.Background()

	old := &domain.RecoveryOutcome{ID: "old", RecordedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &domain.RecoveryOutcome{ID: "fresh", RecordedAt: time.Now()}
	repo.Add(ctx, old)
	repo.Add(ctx, fresh)

	p := NewPruner(time.Hour, repo)
	p.prune(ctx)

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 outcome after prune, got %d", n)
	}

	recent, _ := repo.Recent(ctx, 10)
	if len(recent) != 1 || recent[0].ID != "fresh" {
		t.Errorf("Expected only the fresh outcome to survive")
	}
}

func TestPruner_DisabledWithoutRetention(t *testing.T) {
	repo := memory.NewOutcomeRepo()
	p := NewPruner(0, repo)

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return immediately when retention is disabled")
	}
}
