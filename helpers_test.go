package statusbar

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or timeout passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// fakeWorker is a Worker with fixed method outputs
type fakeWorker struct {
	name    string
	alive   atomic.Bool
	cleared atomic.Int32

	mu      sync.Mutex
	methods []MethodOutput
	clicks  []ClickEvent
}

func newFakeWorker(name string, methods ...MethodOutput) *fakeWorker {
	w := &fakeWorker{name: name, methods: methods}
	w.alive.Store(true)
	return w
}

func (w *fakeWorker) Name() string  { return w.name }
func (w *fakeWorker) IsAlive() bool { return w.alive.Load() }
func (w *fakeWorker) ClearCache()   { w.cleared.Add(1) }

func (w *fakeWorker) Methods() []MethodOutput {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]MethodOutput, len(w.methods))
	copy(out, w.methods)
	return out
}

func (w *fakeWorker) OnClick(_ context.Context, event ClickEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clicks = append(w.clicks, event)
	return nil
}

func (w *fakeWorker) Clicks() []ClickEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ClickEvent(nil), w.clicks...)
}

func item(name, text string) OutputItem {
	return OutputItem{KeyName: name, KeyFullText: text}
}

func method(name string, position int, text string) MethodOutput {
	return MethodOutput{Method: name, Position: position, LastOutput: item(name, text)}
}

func texts(frame Frame) []string {
	out := make([]string, len(frame))
	for i, it := range frame {
		out[i] = it.FullText()
	}
	return out
}
