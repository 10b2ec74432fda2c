package statusbar

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func counterMethod(calls *atomic.Int32, text string) MethodFunc {
	return func(context.Context) (OutputItem, error) {
		calls.Add(1)
		return OutputItem{KeyFullText: text}, nil
	}
}

func TestPeriodicWorkerNameAndInstance(t *testing.T) {
	var calls atomic.Int32
	w := NewPeriodicWorker("weather paris")
	w.AddMethod("now", 2, counterMethod(&calls, "18C"))

	if w.Name() != "weather paris" {
		t.Errorf("Name() = %q", w.Name())
	}

	methods := w.Methods()
	if len(methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(methods))
	}
	if want := (OutputItem{KeyName: "now", KeyFullText: ""}); !reflect.DeepEqual(methods[0].LastOutput, want) {
		t.Errorf("output before first run = %v, want %v", methods[0].LastOutput, want)
	}

	w.RunDue(context.Background())
	methods = w.Methods()
	if methods[0].Position != 2 {
		t.Errorf("Position = %d, want 2", methods[0].Position)
	}
	want := OutputItem{KeyName: "weather", KeyInstance: "paris", KeyFullText: "18C"}
	if !reflect.DeepEqual(methods[0].LastOutput, want) {
		t.Errorf("output = %v, want %v", methods[0].LastOutput, want)
	}
}

func TestPeriodicWorkerCaching(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	var calls atomic.Int32
	w := NewPeriodicWorker("clock", WithWorkerClock(clock.Now), WithCacheTimeout(time.Minute))
	w.AddMethod("tick", 0, counterMethod(&calls, "12:00"))

	ctx := context.Background()
	steps := []struct {
		name  string
		do    func()
		calls int32
	}{
		{"first run", func() {}, 1},
		{"cached", func() {}, 1},
		{"before expiry", func() { clock.Advance(59 * time.Second) }, 1},
		{"at expiry", func() { clock.Advance(time.Second) }, 2},
		{"cleared", w.ClearCache, 3},
	}

	for _, step := range steps {
		step.do()
		w.RunDue(ctx)
		if got := calls.Load(); got != step.calls {
			t.Errorf("%s: method ran %d times, want %d", step.name, got, step.calls)
		}
	}
}

func TestPeriodicWorkerCachedUntil(t *testing.T) {
	start := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	var calls atomic.Int32

	w := NewPeriodicWorker("clock", WithWorkerClock(clock.Now))
	w.AddMethod("tick", 0, func(context.Context) (OutputItem, error) {
		calls.Add(1)
		return OutputItem{KeyFullText: "12:00", KeyCachedUntil: float64(start.Add(5 * time.Second).Unix())}, nil
	})

	ctx := context.Background()
	w.RunDue(ctx)
	if _, leaked := w.Methods()[0].LastOutput[KeyCachedUntil]; leaked {
		t.Error("cached_until leaked into the output item")
	}

	clock.Advance(4 * time.Second)
	w.RunDue(ctx)
	if got := calls.Load(); got != 1 {
		t.Errorf("method ran %d times before cached_until, want 1", got)
	}

	clock.Advance(time.Second)
	w.RunDue(ctx)
	if got := calls.Load(); got != 2 {
		t.Errorf("method ran %d times at cached_until, want 2", got)
	}
}

func TestPeriodicWorkerMethodFailuresKeepLastOutput(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	w := NewPeriodicWorker("flaky", WithWorkerClock(clock.Now))

	var mode atomic.Int32
	w.AddMethod("m", 0, func(context.Context) (OutputItem, error) {
		switch mode.Load() {
		case 1:
			return nil, errors.New("down")
		case 2:
			return OutputItem{"color": "#FF0000"}, nil
		case 3:
			panic("boom")
		}
		return OutputItem{KeyFullText: "ok"}, nil
	})

	ctx := context.Background()
	w.RunDue(ctx)
	if got := w.Methods()[0].LastOutput.FullText(); got != "ok" {
		t.Fatalf("first output = %q, want ok", got)
	}

	for _, m := range []int32{1, 2, 3} {
		mode.Store(m)
		w.ClearCache()
		w.RunDue(ctx)
		if got := w.Methods()[0].LastOutput.FullText(); got != "ok" {
			t.Errorf("mode %d: output = %q, want the last good output", m, got)
		}
	}
}

func TestPeriodicWorkerMethodsSorted(t *testing.T) {
	var calls atomic.Int32
	w := NewPeriodicWorker("multi")
	w.AddMethod("b", 0, counterMethod(&calls, "B"))
	w.AddMethod("a", 1, counterMethod(&calls, "A"))

	if got := methodNames(w); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("methodNames() = %q, want [a b]", got)
	}
}

func TestPeriodicWorkerLifecycle(t *testing.T) {
	var calls atomic.Int32
	var killed atomic.Bool
	w := NewPeriodicWorker("clock",
		WithWorkerInterval(10*time.Millisecond),
		WithCacheTimeout(time.Hour),
		WithKill(func() { killed.Store(true) }),
	)
	w.AddMethod("tick", 0, counterMethod(&calls, "12:00"))

	if w.IsAlive() {
		t.Error("alive before Start")
	}
	w.Start(context.Background())
	if !w.IsAlive() {
		t.Error("not alive after Start")
	}

	if !waitFor(t, time.Second, func() bool { return calls.Load() == 1 }) {
		t.Fatal("method never ran")
	}

	// a cleared cache wakes the loop before the cache would expire
	w.ClearCache()
	if !waitFor(t, time.Second, func() bool { return calls.Load() == 2 }) {
		t.Fatal("ClearCache did not wake the loop")
	}

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if w.IsAlive() {
		t.Error("alive after Stop")
	}
	if !killed.Load() {
		t.Error("kill hook not called")
	}
}

func TestPeriodicWorkerOnClick(t *testing.T) {
	w := NewPeriodicWorker("clock")
	if err := w.OnClick(context.Background(), ClickEvent{Name: "clock", Button: 1}); err != nil {
		t.Errorf("OnClick() without handler = %v", err)
	}

	var got ClickEvent
	w = NewPeriodicWorker("clock", WithClickHandler(func(_ context.Context, event ClickEvent) error {
		got = event
		return nil
	}))
	if err := w.OnClick(context.Background(), ClickEvent{Name: "clock", Button: 4}); err != nil {
		t.Fatal(err)
	}
	if got.Button != 4 {
		t.Errorf("handler saw button %d, want 4", got.Button)
	}
}

func TestPeriodicWorkerStopBeforeStart(t *testing.T) {
	if err := NewPeriodicWorker("clock").Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}
