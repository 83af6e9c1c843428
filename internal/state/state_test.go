package state

import (
	"fmt"
	"testing"
)

func TestMarkProcessedEvictsOldestFIFO(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.MarkProcessed(fmt.Sprintf("id-%d", i))
	}

	if got := s.ProcessedCount(); got != 3 {
		t.Fatalf("expected capacity 3, got %d", got)
	}
	if s.IsProcessed("id-0") || s.IsProcessed("id-1") {
		t.Fatal("oldest entries should have been evicted")
	}
	for i := 2; i < 5; i++ {
		if !s.IsProcessed(fmt.Sprintf("id-%d", i)) {
			t.Fatalf("id-%d should remain in the set", i)
		}
	}
}

func TestMarkProcessedIgnoresDuplicates(t *testing.T) {
	s := New(10)
	s.MarkProcessed("a")
	s.MarkProcessed("a")
	s.MarkProcessed("")

	if got := s.ProcessedCount(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s := New(10)
	if s.LastCheckedAt() != nil {
		t.Fatal("fresh state should have nil checkpoint")
	}

	s.Advance(100)
	s.Advance(50)

	if got := s.LastCheckedAt(); got == nil || *got != 100 {
		t.Fatalf("checkpoint should not move backward, got %v", got)
	}

	s.Advance(200)
	if got := s.LastCheckedAt(); got == nil || *got != 200 {
		t.Fatalf("checkpoint should advance to 200, got %v", got)
	}
}
