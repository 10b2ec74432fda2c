package statusbar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// ErrDuplicateWorker is returned when two workers share a name
var ErrDuplicateWorker = errors.New("statusbar: worker already registered")

// Registry holds the registered workers in registration order and runs
// broadcast operations on them with bounded concurrency.
type Registry struct {
	// Concurrency is the maximum number of concurrent worker calls
	Concurrency int
	// Timeout bounds a single worker call such as a click dispatch
	Timeout time.Duration

	mu      sync.RWMutex
	workers []Worker
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithConcurrency sets the maximum number of concurrent worker calls
func WithConcurrency(n int) RegistryOption {
	return func(r *Registry) {
		r.Concurrency = n
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.Timeout = d
	}
}

// NewRegistry creates an empty Registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		Concurrency: 10,
		Timeout:     5 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.Concurrency < 1 {
		r.Concurrency = 1
	}

	return r
}

// Register appends w to the registry
func (r *Registry) Register(w Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.workers {
		if existing.Name() == w.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateWorker, w.Name())
		}
	}
	r.workers = append(r.workers, w)
	return nil
}

// Workers returns the registered workers in registration order
func (r *Registry) Workers() []Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Worker, len(r.workers))
	copy(out, r.workers)
	return out
}

// Len returns the number of registered workers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// Lookup returns the worker registered under name
func (r *Registry) Lookup(name string) (Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.workers {
		if w.Name() == name {
			return w, true
		}
	}
	return nil, false
}

// ClearCache asks every worker to run its methods at the next opportunity
func (r *Registry) ClearCache(ctx context.Context) error {
	return r.execute(ctx, r.Workers(), func(_ context.Context, w Worker) error {
		w.ClearCache()
		return nil
	})
}

// Click dispatches a click event to the named worker if it handles clicks
func (r *Registry) Click(ctx context.Context, name string, event ClickEvent) (bool, error) {
	w, ok := r.Lookup(name)
	if !ok {
		return false, nil
	}
	clicker, ok := w.(Clicker)
	if !ok {
		return false, nil
	}

	opCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return true, clicker.OnClick(opCtx, event)
}

func (r *Registry) execute(ctx context.Context, workers []Worker, op func(context.Context, Worker) error) error {
	if len(workers) == 0 {
		return nil
	}

	var mu sync.Mutex
	merr := &MultiError{}

	p := pool.New().WithMaxGoroutines(r.Concurrency).WithContext(ctx)
	for _, w := range workers {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				merr.Add(err)
				mu.Unlock()
				return nil
			}

			opCtx := ctx
			if r.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, r.Timeout)
				defer cancel()
			}

			if err := op(opCtx, w); err != nil {
				mu.Lock()
				merr.Add(fmt.Errorf("worker %s: %w", w.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = p.Wait()

	return merr.Err()
}
