package game

import (
	"errors"
	"testing"
	"time"
)

func TestSpawnSchedulerCarriesRemainder(t *testing.T) {
	spawned := 0
	s := NewSpawnScheduler(1500*time.Millisecond, func() error {
		spawned++
		return nil
	})

	if n := s.Advance(3100 * time.Millisecond); n != 2 {
		t.Fatalf("expected 2 spawns, got %d", n)
	}
	if s.Remainder() != 100*time.Millisecond {
		t.Fatalf("remainder: got %v want 100ms", s.Remainder())
	}
	if n := s.Advance(1400 * time.Millisecond); n != 1 {
		t.Fatalf("carried remainder should complete one interval, got %d", n)
	}
	if spawned != 3 || s.Remainder() != 0 {
		t.Fatalf("spawned=%d remainder=%v", spawned, s.Remainder())
	}
}

func TestSpawnSchedulerSmallSteps(t *testing.T) {
	spawned := 0
	s := NewSpawnScheduler(time.Second, func() error {
		spawned++
		return nil
	})
	step := time.Second / 60
	for i := 0; i < 120; i++ {
		s.Advance(step)
	}
	// 120 个 1/60 秒的步长略少于 2 秒
	if spawned != 1 {
		t.Fatalf("expected 1 spawn, got %d", spawned)
	}
}

func TestSpawnSchedulerSpawnError(t *testing.T) {
	s := NewSpawnScheduler(time.Second, func() error {
		return errors.New("full")
	})
	if n := s.Advance(3 * time.Second); n != 0 {
		t.Fatalf("failed spawns counted: %d", n)
	}
	if s.Remainder() != 0 {
		t.Fatalf("intervals should still be consumed, remainder=%v", s.Remainder())
	}
}
