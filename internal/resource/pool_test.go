package resource

import (
	"context"
	"testing"
)

func TestStaticPool_RoundRobin(t *testing.T) {
	pool := NewStaticPool([]string{"a", "b", "c"})
	ctx := context.Background()

	want := []string{"a", "b", "c", "a"}
	for i, expected := range want {
		id, err := pool.Next(ctx, "")
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if id != expected {
			t.Errorf("call %d: expected %q, got %q", i, expected, id)
		}
	}
}

func TestStaticPool_SkipsExcluded(t *testing.T) {
	pool := NewStaticPool([]string{"a", "b"})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id, err := pool.Next(ctx, "a")
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if id == "a" {
			t.Fatalf("call %d: returned the excluded resource", i)
		}
	}
}

func TestStaticPool_SingleResourceAlwaysReturned(t *testing.T) {
	pool := NewStaticPool([]string{"only"})

	// With one resource, exclusion cannot be honored.
	id, err := pool.Next(context.Background(), "only")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if id != "only" {
		t.Errorf("expected %q, got %q", "only", id)
	}
}

func TestStaticPool_Empty(t *testing.T) {
	pool := NewStaticPool(nil)

	if _, err := pool.Next(context.Background(), ""); err != ErrEmpty {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if n, _ := pool.Size(context.Background()); n != 0 {
		t.Errorf("expected size 0, got %d", n)
	}
}
