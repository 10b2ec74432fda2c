package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/axondata/go-statusbar"
	"github.com/axondata/go-statusbar/internal/config"
	"github.com/axondata/go-statusbar/internal/logging"
)

// defaultClockFormat renders the built-in clock worker
const defaultClockFormat = "%H:%M"

// builtinWorker builds the worker for one ordered section
type builtinWorker func(section statusbar.Section, name string, opts ...statusbar.WorkerOption) (*statusbar.PeriodicWorker, error)

var builtinWorkers = map[string]builtinWorker{
	"clock": newClockWorker,
	"text":  newTextWorker,
}

// registerWorkers creates a worker for every ordered worker section with a
// built-in implementation. Other names are left for library users.
func registerWorkers(cfg *statusbar.Configuration, registry *statusbar.Registry, settings *config.Config, log *logging.Logger) ([]*statusbar.PeriodicWorker, error) {
	var workers []*statusbar.PeriodicWorker

	for _, name := range cfg.WorkerModules {
		build, ok := builtinWorkers[kindOf(name)]
		if !ok {
			log.Warn("no worker for ordered section", "section", name)
			continue
		}

		w, err := build(cfg.Section(name), name,
			statusbar.WithCacheTimeout(settings.CacheTimeout),
			statusbar.WithWorkerLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("worker %s: %w", name, err)
		}
		if err := registry.Register(w); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// newClockWorker shows the time in the section's zone ("clock Europe/Paris")
// using the section's strftime format.
func newClockWorker(section statusbar.Section, name string, opts ...statusbar.WorkerOption) (*statusbar.PeriodicWorker, error) {
	format := defaultClockFormat
	if v, ok := section.Get("format"); ok {
		format = v.String()
	}

	loc := time.Local
	if zone := instanceOf(name); zone != "" {
		var err error
		if loc, err = time.LoadLocation(zone); err != nil {
			return nil, err
		}
	}

	w := statusbar.NewPeriodicWorker(name, opts...)
	w.AddMethod("time", 0, func(context.Context) (statusbar.OutputItem, error) {
		now := time.Now().In(loc)
		return statusbar.OutputItem{
			statusbar.KeyFullText:    strftime.Format(format, now),
			statusbar.KeyCachedUntil: now.Truncate(time.Second).Add(time.Second),
		}, nil
	})
	return w, nil
}

// newTextWorker shows the section's fixed full_text and color
func newTextWorker(section statusbar.Section, name string, opts ...statusbar.WorkerOption) (*statusbar.PeriodicWorker, error) {
	text, ok := section.Get(statusbar.KeyFullText)
	if !ok {
		return nil, statusbar.ErrMissingFullText
	}

	item := statusbar.OutputItem{statusbar.KeyFullText: text.String()}
	if color, ok := section.Get(statusbar.KeyColor); ok {
		item[statusbar.KeyColor] = color.String()
	}

	w := statusbar.NewPeriodicWorker(name, opts...)
	w.AddMethod("text", 0, func(context.Context) (statusbar.OutputItem, error) {
		return item.Clone(), nil
	})
	return w, nil
}

func kindOf(name string) string {
	kind, _, _ := strings.Cut(name, " ")
	return kind
}

func instanceOf(name string) string {
	_, instance, _ := strings.Cut(name, " ")
	return instance
}
