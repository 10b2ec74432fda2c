//go:build linux || darwin

package statusbar

import (
	"context"
	"testing"
	"time"
)

func TestForceRefreshRateLimit(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	worker := newFakeWorker("clock", method("tick", 0, "12:00"))
	registry := NewRegistry()
	if err := registry.Register(worker); err != nil {
		t.Fatal(err)
	}

	sup, _ := newTestSupervisor(t, "", WithStandalone(true))
	c := NewCompositor(sup, WithRegistry(registry), WithCompositorClock(clock.Now))
	ctx := context.Background()

	steps := []struct {
		advance time.Duration
		want    bool
		cleared int32
	}{
		{0, false, 0}, // too close to construction
		{150 * time.Millisecond, true, 1},
		{50 * time.Millisecond, false, 1},
		{50 * time.Millisecond, true, 2}, // exactly at the limit
		{99 * time.Millisecond, false, 2},
		{time.Millisecond, true, 3},
	}

	for i, step := range steps {
		clock.Advance(step.advance)
		if got := c.ForceRefresh(ctx); got != step.want {
			t.Errorf("step %d: ForceRefresh() = %v, want %v", i, got, step.want)
		}
		if got := worker.cleared.Load(); got != step.cleared {
			t.Errorf("step %d: caches cleared %d times, want %d", i, got, step.cleared)
		}
	}
}

func TestForceRefreshWithoutWorkers(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	sup, _ := newTestSupervisor(t, "", WithStandalone(true))
	c := NewCompositor(sup, WithCompositorClock(clock.Now), WithRefreshRateLimit(time.Second))

	clock.Advance(2 * time.Second)
	if !c.ForceRefresh(context.Background()) {
		t.Error("ForceRefresh() = false after the limit passed")
	}
}
