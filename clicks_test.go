//go:build linux || darwin

package statusbar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clickConfig(t *testing.T, marker string) *Configuration {
	t.Helper()
	cfg, err := parseString(t, fmt.Sprintf(`
order += "disk /"
order += "weather paris"
disk "/" {
    format = "%%avail"
    on_click 1 = "touch %s"
}
weather "paris" {
    on_click 3 = "touch %s.weather"
}
`, marker, marker))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func fileAppears(t *testing.T, path string) bool {
	t.Helper()
	return waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})
}

func registryWith(t *testing.T, workers ...Worker) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, w := range workers {
		if err := r.Register(w); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func TestClickEventSection(t *testing.T) {
	if got := (ClickEvent{Name: "disk", Instance: "/"}).Section(); got != "disk /" {
		t.Errorf("Section() = %q, want %q", got, "disk /")
	}
	if got := (ClickEvent{Name: "clock"}).Section(); got != "clock" {
		t.Errorf("Section() = %q, want %q", got, "clock")
	}
}

func TestClickListenerRunsOnClickCommand(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "clicked")
	l := NewClickListener(clickConfig(t, marker), NewRegistry(), strings.NewReader(""))

	l.HandleLine(context.Background(), `[`)
	l.HandleLine(context.Background(), `{"name":"disk","instance":"/","button":1,"x":10,"y":5}`)

	if !fileAppears(t, marker) {
		t.Error("on_click command did not run")
	}
	if n := l.Handled(); n != 1 {
		t.Errorf("Handled() = %d, want 1", n)
	}
}

func TestClickListenerDispatchesToWorker(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "clicked")
	worker := newFakeWorker("weather paris")
	registry := registryWith(t, worker)

	l := NewClickListener(clickConfig(t, marker), registry, strings.NewReader(""))
	l.HandleLine(context.Background(), `,{"name":"weather","instance":"paris","button":3}`)

	clicks := worker.Clicks()
	if len(clicks) != 1 {
		t.Fatalf("worker got %d clicks, want 1", len(clicks))
	}
	if clicks[0].Button != 3 {
		t.Errorf("Button = %d, want 3", clicks[0].Button)
	}
	if !fileAppears(t, marker+".weather") {
		t.Error("on_click command did not run alongside the worker")
	}
}

func TestClickListenerFallsBackToWorkerKind(t *testing.T) {
	worker := newFakeWorker("clock")
	registry := registryWith(t, worker)

	l := NewClickListener(clickConfig(t, filepath.Join(t.TempDir(), "x")), registry, strings.NewReader(""))
	l.Dispatch(context.Background(), ClickEvent{Name: "clock", Instance: "utc", Button: 1})

	if n := len(worker.Clicks()); n != 1 {
		t.Errorf("worker got %d clicks, want 1", n)
	}
}

func TestClickListenerSkipsMalformedLines(t *testing.T) {
	worker := newFakeWorker("clock")
	registry := registryWith(t, worker)

	l := NewClickListener(clickConfig(t, filepath.Join(t.TempDir(), "x")), registry, strings.NewReader(""))
	for _, line := range []string{"", "[", ",", "{not json", `,{"name":"clock","button":"left"}`} {
		l.HandleLine(context.Background(), line)
	}

	if n := len(worker.Clicks()); n != 0 {
		t.Errorf("worker got %d clicks from malformed input", n)
	}
	if n := l.Handled(); n != 0 {
		t.Errorf("Handled() = %d, want 0", n)
	}
}

func TestClickListenerDiesAtEndOfInput(t *testing.T) {
	worker := newFakeWorker("clock")
	registry := registryWith(t, worker)

	input := "[\n" +
		`{"name":"clock","button":1}` + "\n" +
		`,{"name":"clock","button":2}` + "\n"
	l := NewClickListener(clickConfig(t, filepath.Join(t.TempDir(), "x")), registry, strings.NewReader(input))
	l.Start(context.Background())
	t.Cleanup(func() { _ = l.Stop() })

	if !waitFor(t, time.Second, func() bool { return !l.IsAlive() }) {
		t.Fatal("listener still alive at end of input")
	}
	if n := l.Handled(); n != 2 {
		t.Errorf("Handled() = %d, want 2", n)
	}

	clicks := worker.Clicks()
	if len(clicks) != 2 {
		t.Fatalf("worker got %d clicks, want 2", len(clicks))
	}
	if clicks[0].Button != 1 || clicks[1].Button != 2 {
		t.Errorf("buttons = %d,%d, want 1,2", clicks[0].Button, clicks[1].Button)
	}
}
