package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/mend/internal/core/config"
	"github.com/vietddude/mend/internal/core/domain"
)

// =====================================================
// Supervisor wiring
// =====================================================

func memoryConfig() *config.AppConfig {
	return &config.AppConfig{
		Resources: config.ResourcesConfig{IDs: []string{"res-a", "res-b"}},
	}
}

func TestSupervisor_ArchivesOutcomes(t *testing.T) {
	s, err := New(memoryConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report := domain.FailureReport{
		Category: domain.CategoryNetwork,
		TaskID:   "task-1",
		Message:  "connection reset",
	}

	action := s.Engine().AnalyzeError(report)
	action.Delay = 0 // keep the test fast
	outcome := s.Engine().ExecuteRecovery(context.Background(), report, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			return nil
		})
	if !outcome.Succeeded {
		t.Fatalf("Expected successful outcome, got error %q", outcome.Error)
	}

	// The archive sink runs synchronously inside the event dispatch.
	n, err := s.Archive().Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 archived outcome, got %d", n)
	}
}

func TestSupervisor_StopDetachesSinks(t *testing.T) {
	s, err := New(memoryConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	report := domain.FailureReport{Category: domain.CategoryCrash, TaskID: "task-2"}
	action := s.Engine().AnalyzeError(report)
	action.Delay = 0
	s.Engine().ExecuteRecovery(context.Background(), report, action,
		func(ctx context.Context, a domain.RecoveryAction) error {
			return errors.New("still failing")
		})

	n, err := s.Archive().Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no archived outcomes after Stop, got %d", n)
	}
}
