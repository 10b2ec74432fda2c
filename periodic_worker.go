package statusbar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"vawter.tech/stopper"

	"github.com/axondata/go-statusbar/internal/logging"
)

// KeyCachedUntil lets a method output choose its own cache deadline, as a
// time.Time or as Unix seconds.
const KeyCachedUntil = "cached_until"

// ErrMissingFullText is returned for method outputs without full_text
var ErrMissingFullText = errors.New(`missing "full_text" key in output`)

// MethodFunc produces the output of one worker method
type MethodFunc func(ctx context.Context) (OutputItem, error)

// ClickFunc handles a click event on a worker's item
type ClickFunc func(ctx context.Context, event ClickEvent) error

type methodState struct {
	name        string
	position    int
	fn          MethodFunc
	cachedUntil time.Time
	last        OutputItem
}

// PeriodicWorker runs its methods on a fixed interval. A method is only run
// again once its cached output has expired.
type PeriodicWorker struct {
	// Interval is the sleep between scheduling passes
	Interval time.Duration
	// CacheTimeout is how long an output stays valid unless it sets
	// cached_until itself
	CacheTimeout time.Duration

	name     string
	instance string
	onClick  ClickFunc
	kill     func()
	log      *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	methods map[string]*methodState
	wake    chan struct{}
	alive   atomic.Bool
	sctx    *stopper.Context
	cancel  context.CancelFunc
}

// WorkerOption configures a PeriodicWorker
type WorkerOption func(*PeriodicWorker)

// WithWorkerInterval sets the scheduling interval
func WithWorkerInterval(d time.Duration) WorkerOption {
	return func(w *PeriodicWorker) {
		w.Interval = d
	}
}

// WithCacheTimeout sets the default cache lifetime of method outputs
func WithCacheTimeout(d time.Duration) WorkerOption {
	return func(w *PeriodicWorker) {
		w.CacheTimeout = d
	}
}

// WithClickHandler sets the worker's click handler
func WithClickHandler(fn ClickFunc) WorkerOption {
	return func(w *PeriodicWorker) {
		w.onClick = fn
	}
}

// WithKill sets a hook run once the worker stops
func WithKill(fn func()) WorkerOption {
	return func(w *PeriodicWorker) {
		w.kill = fn
	}
}

// WithWorkerLogger sets the worker's logger
func WithWorkerLogger(log *logging.Logger) WorkerOption {
	return func(w *PeriodicWorker) {
		w.log = log
	}
}

// WithWorkerClock replaces time.Now, for tests
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *PeriodicWorker) {
		w.now = now
	}
}

// NewPeriodicWorker returns a worker for the section name, e.g. "clock" or
// "weather paris". The first token names its items, the rest is their
// instance.
func NewPeriodicWorker(name string, opts ...WorkerOption) *PeriodicWorker {
	kind := moduleKind(name)
	instance := ""
	if kind != name {
		instance = name[len(kind)+1:]
	}

	w := &PeriodicWorker{
		Interval:     time.Duration(DefaultInterval) * time.Second,
		CacheTimeout: DefaultCacheTimeout,
		name:         name,
		instance:     instance,
		now:          time.Now,
		methods:      make(map[string]*methodState),
		wake:         make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.log == nil {
		w.log = logging.NopLogger()
	}
	w.log = w.log.With("worker", name)
	return w
}

// AddMethod registers a method displayed at position
func (w *PeriodicWorker) AddMethod(method string, position int, fn MethodFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.methods[method] = &methodState{
		name:        method,
		position:    position,
		fn:          fn,
		cachedUntil: w.now(),
		last:        OutputItem{KeyName: method, KeyFullText: ""},
	}
}

// Name returns the worker's section name
func (w *PeriodicWorker) Name() string {
	return w.name
}

// IsAlive reports whether the scheduling loop is running
func (w *PeriodicWorker) IsAlive() bool {
	return w.alive.Load()
}

// ClearCache expires every method and wakes the scheduling loop
func (w *PeriodicWorker) ClearCache() {
	w.mu.Lock()
	now := w.now()
	for _, m := range w.methods {
		m.cachedUntil = now
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Methods returns a copy of every method's output
func (w *PeriodicWorker) Methods() []MethodOutput {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]MethodOutput, 0, len(w.methods))
	for _, m := range w.methods {
		out = append(out, MethodOutput{Method: m.name, Position: m.position, LastOutput: m.last.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

// OnClick passes the event to the click handler, if any
func (w *PeriodicWorker) OnClick(ctx context.Context, event ClickEvent) error {
	if w.onClick == nil {
		return nil
	}
	return w.onClick(ctx, event)
}

// Start launches the scheduling loop
func (w *PeriodicWorker) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.sctx = stopper.WithContext(ctx)
	w.alive.Store(true)

	w.sctx.Go(func(sctx *stopper.Context) error {
		defer w.alive.Store(false)

		for !sctx.IsStopping() {
			w.RunDue(runCtx)

			select {
			case <-sctx.Stopping():
				return nil
			case <-w.wake:
			case <-time.After(w.Interval):
			}
		}
		return nil
	})
}

// Stop ends the scheduling loop and runs the kill hook
func (w *PeriodicWorker) Stop() error {
	if w.sctx == nil {
		return nil
	}
	w.cancel()
	w.sctx.Stop(time.Second)
	err := w.sctx.Wait()
	if w.kill != nil {
		w.kill()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunDue runs every method whose cache has expired
func (w *PeriodicWorker) RunDue(ctx context.Context) {
	w.mu.Lock()
	due := make([]*methodState, 0, len(w.methods))
	now := w.now()
	for _, m := range w.methods {
		if !now.Before(m.cachedUntil) {
			due = append(due, m)
		}
	}
	w.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].name < due[j].name })
	for _, m := range due {
		if ctx.Err() != nil {
			return
		}

		out, err := w.call(ctx, m)
		if err != nil {
			w.log.Warn("method failed", "method", m.name, "error", err)
			continue
		}

		w.mu.Lock()
		m.cachedUntil = w.cacheDeadline(out)
		delete(out, KeyCachedUntil)
		m.last = out
		w.mu.Unlock()
	}
}

func (w *PeriodicWorker) call(ctx context.Context, m *methodState) (out OutputItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("method panicked: %v", r)
		}
	}()

	out, err = m.fn(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("method returned no output")
	}
	if _, ok := out[KeyFullText]; !ok {
		return nil, ErrMissingFullText
	}

	out = out.Clone()
	out[KeyName] = moduleKind(w.name)
	if w.instance != "" {
		out[KeyInstance] = w.instance
	} else {
		delete(out, KeyInstance)
	}
	return out, nil
}

func (w *PeriodicWorker) cacheDeadline(out OutputItem) time.Time {
	switch v := out[KeyCachedUntil].(type) {
	case time.Time:
		return v
	case float64:
		return time.Unix(0, int64(v*float64(time.Second)))
	case int:
		return time.Unix(int64(v), 0)
	case int64:
		return time.Unix(v, 0)
	}
	return w.now().Add(w.CacheTimeout)
}

var (
	_ Worker  = (*PeriodicWorker)(nil)
	_ Clicker = (*PeriodicWorker)(nil)
)
