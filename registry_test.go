package statusbar

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(WithConcurrency(2), WithTimeout(time.Second))
	if r.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", r.Concurrency)
	}
	if r.Timeout != time.Second {
		t.Errorf("Timeout = %v, want %v", r.Timeout, time.Second)
	}

	if err := r.Register(newFakeWorker("clock")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newFakeWorker("weather paris")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newFakeWorker("clock")); !errors.Is(err, ErrDuplicateWorker) {
		t.Errorf("duplicate Register() = %v, want ErrDuplicateWorker", err)
	}

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	names := make([]string, 0, r.Len())
	for _, w := range r.Workers() {
		names = append(names, w.Name())
	}
	if want := []string{"clock", "weather paris"}; !slices.Equal(names, want) {
		t.Errorf("Workers() = %q, want %q", names, want)
	}

	w, ok := r.Lookup("weather paris")
	if !ok {
		t.Fatal("Lookup(weather paris) found nothing")
	}
	if w.Name() != "weather paris" {
		t.Errorf("Lookup() returned %q", w.Name())
	}

	if _, ok := r.Lookup("weather"); ok {
		t.Error("Lookup(weather) matched a partial name")
	}
}

func TestRegistryConcurrencyFloor(t *testing.T) {
	r := NewRegistry(WithConcurrency(0))
	if r.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", r.Concurrency)
	}
}

func TestRegistryClearCache(t *testing.T) {
	r := NewRegistry(WithConcurrency(2))
	workers := []*fakeWorker{newFakeWorker("a"), newFakeWorker("b"), newFakeWorker("c")}
	for _, w := range workers {
		if err := r.Register(w); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.ClearCache(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, w := range workers {
		if got := w.cleared.Load(); got != 1 {
			t.Errorf("%s: cleared %d times, want 1", w.name, got)
		}
	}
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	if err := r.ClearCache(context.Background()); err != nil {
		t.Errorf("ClearCache() = %v", err)
	}

	handled, err := r.Click(context.Background(), "clock", ClickEvent{Name: "clock", Button: 1})
	if err != nil {
		t.Errorf("Click() = %v", err)
	}
	if handled {
		t.Error("empty registry handled a click")
	}
}

func TestRegistryClearCacheCanceled(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newFakeWorker("a")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.ClearCache(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ClearCache() = %v, want context.Canceled", err)
	}
}

func TestRegistryClick(t *testing.T) {
	r := NewRegistry()
	clicker := newFakeWorker("clock")
	if err := r.Register(clicker); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(struct{ Worker }{newFakeWorker("silent")}); err != nil {
		t.Fatal(err)
	}

	event := ClickEvent{Name: "clock", Button: 1}
	handled, err := r.Click(context.Background(), "clock", event)
	if err != nil {
		t.Fatal(err)
	}
	if !handled {
		t.Error("clicker did not handle the click")
	}
	if got := clicker.Clicks(); !reflect.DeepEqual(got, []ClickEvent{event}) {
		t.Errorf("Clicks() = %+v, want [%+v]", got, event)
	}

	handled, err = r.Click(context.Background(), "silent", ClickEvent{Name: "silent", Button: 1})
	if err != nil {
		t.Fatal(err)
	}
	if handled {
		t.Error("non-clicker handled a click")
	}
}
