package statusbar

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
	"vawter.tech/stopper"
)

// DefaultConfigDebounce coalesces the burst of events an editor save makes
const DefaultConfigDebounce = 50 * time.Millisecond

// ConfigEvent reports a changed producer config. Err is set when the new
// content does not parse.
type ConfigEvent struct {
	Config *Configuration
	Err    error
}

// ConfigWatchCleanupFunc stops a config watch
type ConfigWatchCleanupFunc func() error

// configWatchState tracks the last seen content of the watched file
type configWatchState struct {
	mu              sync.Mutex
	lastSum         uint64
	debouncer       *time.Timer
	spinStartTime   time.Time
	spinCount       int
	backoffInterval time.Duration
}

// WatchConfig watches the producer config at path and sends a ConfigEvent
// whenever its content changes. The directory is watched rather than the
// file so that editors replacing the file by rename are noticed.
//
//nolint:gocyclo // debounce and spin detection share the watch state
func WatchConfig(ctx context.Context, path string, debounce time.Duration) (<-chan ConfigEvent, ConfigWatchCleanupFunc, error) {
	if debounce <= 0 {
		debounce = DefaultConfigDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	dir, base := filepath.Dir(abs), filepath.Base(abs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	ch := make(chan ConfigEvent, 4)

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	state := &configWatchState{}
	if data, err := os.ReadFile(abs); err == nil {
		state.lastSum = xxh3.Hash(data)
	}

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	send := func(ev ConfigEvent) {
		if sctx.IsStopping() {
			return
		}
		select {
		case ch <- ev:
		case <-sctx.Stopping():
		}
	}

	reparse := func() {
		if sctx.IsStopping() {
			return
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			// the file is briefly missing while an editor replaces it
			return
		}

		state.mu.Lock()
		sum := xxh3.Hash(data)
		if sum == state.lastSum {
			now := time.Now()
			if state.spinStartTime.IsZero() {
				state.spinStartTime = now
				state.spinCount = 1
			} else {
				state.spinCount++
				if now.Sub(state.spinStartTime) >= 5*time.Second && state.backoffInterval == 0 {
					state.backoffInterval = time.Second
				}
			}
			state.mu.Unlock()
			return
		}
		state.lastSum = sum
		state.spinCount = 0
		state.spinStartTime = time.Time{}
		state.backoffInterval = 0
		state.mu.Unlock()

		cfg, err := ParseConfig(abs)
		send(ConfigEvent{Config: cfg, Err: err})
	}

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			state.mu.Lock()
			if state.debouncer != nil {
				state.debouncer.Stop()
			}
			state.mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != base || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}

				state.mu.Lock()
				wait := debounce
				if state.backoffInterval > 0 {
					wait = state.backoffInterval
				}
				if state.debouncer != nil {
					state.debouncer.Stop()
				}
				state.debouncer = time.AfterFunc(wait, reparse)
				state.mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					send(ConfigEvent{Err: err})
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
