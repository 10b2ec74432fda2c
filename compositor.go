package statusbar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/axondata/go-statusbar/internal/logging"
	"github.com/axondata/go-statusbar/internal/unix"
)

// emptyFrame is the frame remembered before anything was emitted
var emptyFrame = []byte("[]")

// Liveness is implemented by collaborators whose death the compositor
// reports, such as the click listener.
type Liveness interface {
	IsAlive() bool
}

// Compositor is the output loop. Every tick it checks the producer and the
// workers, takes a copy of the latest snapshot, re-renders the time fields,
// merges in the worker outputs and writes the frame if it changed.
type Compositor struct {
	// Interval is the time field refresh interval, in seconds
	Interval int
	// Tick is the loop cadence
	Tick time.Duration
	// RefreshRateLimit is the minimum spacing of forced refreshes
	RefreshRateLimit time.Duration

	sup      *Supervisor
	registry *Registry
	clicks   Liveness
	notifier Notifier
	out      *StreamWriter
	log      *logging.Logger
	now      func() time.Time
	onStop   []func() error

	// loop state, owned by the Run goroutine
	ticks         int
	lastResyncSec int
	lastFrame     uint64
	clicksWarned  bool
	deadWarned    map[string]bool

	refreshMu   sync.Mutex
	lastRefresh time.Time
}

// CompositorOption configures a Compositor
type CompositorOption func(*Compositor)

// WithInterval sets the time field refresh interval in seconds
func WithInterval(seconds int) CompositorOption {
	return func(c *Compositor) {
		c.Interval = seconds
	}
}

// WithTick sets the loop cadence
func WithTick(d time.Duration) CompositorOption {
	return func(c *Compositor) {
		c.Tick = d
	}
}

// WithRefreshRateLimit sets the minimum spacing of forced refreshes
func WithRefreshRateLimit(d time.Duration) CompositorOption {
	return func(c *Compositor) {
		c.RefreshRateLimit = d
	}
}

// WithRegistry sets the workers merged into the output
func WithRegistry(r *Registry) CompositorOption {
	return func(c *Compositor) {
		c.registry = r
	}
}

// WithClickListener sets the click listener whose liveness is reported
func WithClickListener(l Liveness) CompositorOption {
	return func(c *Compositor) {
		c.clicks = l
	}
}

// WithNotifier sets how failures are reported to the user
func WithNotifier(n Notifier) CompositorOption {
	return func(c *Compositor) {
		c.notifier = n
	}
}

// WithFrameWriter sets the stream frames are written to. It defaults to the
// supervisor's output.
func WithFrameWriter(out *StreamWriter) CompositorOption {
	return func(c *Compositor) {
		c.out = out
	}
}

// WithCompositorLogger sets the compositor's logger
func WithCompositorLogger(log *logging.Logger) CompositorOption {
	return func(c *Compositor) {
		c.log = log
	}
}

// WithCompositorClock replaces time.Now, for tests
func WithCompositorClock(now func() time.Time) CompositorOption {
	return func(c *Compositor) {
		c.now = now
	}
}

// WithStopFunc adds a function called when Run returns, after the
// supervisor has been stopped
func WithStopFunc(fn func() error) CompositorOption {
	return func(c *Compositor) {
		c.onStop = append(c.onStop, fn)
	}
}

// NewCompositor returns a compositor reading from sup
func NewCompositor(sup *Supervisor, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		Interval:         DefaultInterval,
		Tick:             DefaultTick,
		RefreshRateLimit: DefaultRefreshRateLimit,
		sup:              sup,
		now:              time.Now,
		lastResyncSec:    -1,
		lastFrame:        xxh3.Hash(emptyFrame),
		deadWarned:       make(map[string]bool),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = NewRegistry()
	}
	if c.out == nil {
		c.out = sup.Output()
	}
	if c.log == nil {
		c.log = logging.NopLogger()
	}
	c.log = c.log.WithComponent("compositor")
	if c.notifier == nil {
		c.notifier = &LogNotifier{Log: c.log}
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	c.lastRefresh = c.now()

	return c
}

// Run waits for the producer's first output, then ticks until ctx is done,
// a terminate signal arrives or the producer dies. A requested shutdown
// returns nil; a producer failure returns a *FatalError. The supervisor is
// stopped before Run returns.
func (c *Compositor) Run(ctx context.Context) error {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, append([]os.Signal{unix.RefreshSignal}, unix.TerminateSignals()...)...)
	defer signal.Stop(sigs)

	defer func() {
		if err := c.stop(); err != nil {
			c.log.Warn("shutdown incomplete", "error", err)
		}
	}()

	if done, err := c.waitReady(ctx, sigs); done {
		return err
	}

	for {
		start := c.now()
		if err := c.tick(ctx); err != nil {
			return err
		}

		wait := c.Tick - c.now().Sub(start)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

	sleep:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case sig := <-sigs:
				if sig == unix.RefreshSignal {
					c.ForceRefresh(ctx)
					continue
				}
				c.log.Info("received terminate signal", "signal", sig.String())
				timer.Stop()
				return nil
			case <-timer.C:
				break sleep
			}
		}
	}
}

// waitReady blocks until the producer's first array while still serving
// signals. done reports that Run must return err instead of ticking.
func (c *Compositor) waitReady(ctx context.Context, sigs <-chan os.Signal) (done bool, err error) {
	readyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan error, 1)
	go func() { ready <- c.sup.WaitReady(readyCtx) }()

	for {
		select {
		case err := <-ready:
			if err == nil {
				return false, nil
			}
			if ctx.Err() != nil {
				return true, nil
			}
			c.notifier.Notify(ctx, NotifyError, err.Error())
			return true, &FatalError{Err: err}
		case sig := <-sigs:
			if sig == unix.RefreshSignal {
				c.ForceRefresh(ctx)
				continue
			}
			c.log.Info("received terminate signal before first output", "signal", sig.String())
			return true, nil
		}
	}
}

// tick runs one iteration of the output loop
func (c *Compositor) tick(ctx context.Context) error {
	if err := c.checkLiveness(ctx); err != nil {
		return err
	}

	snap := c.sup.Snapshot()
	force := c.forceResync()
	frame := c.sup.Times().Tick(snap, force)

	if c.registry.Len() > 0 {
		frame = c.merge(frame)
	}

	c.emit(frame)

	c.sup.Refresh()
	c.ticks++
	return nil
}

func (c *Compositor) checkLiveness(ctx context.Context) error {
	if !c.sup.IsAlive() {
		err := c.sup.LastError()
		if err == nil {
			err = ErrProducerDied
		}
		c.notifier.Notify(ctx, NotifyError, err.Error())
		return &FatalError{Err: err}
	}

	if c.clicks != nil && !c.clicks.IsAlive() && !c.clicksWarned {
		c.clicksWarned = true
		c.notifier.Notify(ctx, NotifyWarning, "click listener died, click events are disabled")
	}

	for _, w := range c.registry.Workers() {
		if w.IsAlive() || c.deadWarned[w.Name()] {
			continue
		}
		c.deadWarned[w.Name()] = true
		msg := fmt.Sprintf("output frozen for dead worker %s (%s)", w.Name(), strings.Join(methodNames(w), ","))
		c.notifier.Notify(ctx, NotifyWarning, msg)
	}
	return nil
}

// forceResync decides whether time fields are recomputed this tick. It
// fires on the first tick, then once each time the elapsed whole seconds
// reach a multiple of Interval.
func (c *Compositor) forceResync() bool {
	if c.Interval <= 1 {
		return true
	}

	sec := int(time.Duration(c.ticks) * c.Tick / time.Second)
	if sec%c.Interval == 0 && sec != c.lastResyncSec {
		c.ticks = 0
		c.lastResyncSec = 0
		return true
	}
	return false
}

func (c *Compositor) merge(frame Frame) Frame {
	cfg := c.sup.Config()
	if useOrderMerge(cfg, c.registry) {
		return mergeByOrder(cfg, frame, c.registry)
	}
	return mergeByPosition(frame, c.registry.Workers())
}

// emit writes frame unless it encodes to the same bytes as the previous
// composed frame. The memo advances either way.
func (c *Compositor) emit(frame Frame) {
	data, err := EncodeFrame(frame)
	if err != nil {
		c.log.Warn("dropping frame", "error", err)
		return
	}

	sum := xxh3.Hash(data)
	if sum != c.lastFrame {
		if err := c.out.WriteFrame(data); err != nil {
			c.log.Warn("failed to write frame", "error", err)
		}
	}
	c.lastFrame = sum
}

func (c *Compositor) stop() error {
	var merr MultiError
	merr.Add(c.sup.Stop())
	for _, fn := range c.onStop {
		merr.Add(fn())
	}
	if err := merr.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
