package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/axondata/go-statusbar"
	"github.com/axondata/go-statusbar/internal/config"
	"github.com/axondata/go-statusbar/internal/logging"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the aggregator (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runRun,
	}
}

func (a *app) runRun(cmd *cobra.Command, _ []string) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(settings.Logging.File, settings.LogLevel())
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	return run(cmd.Context(), settings, log)
}

// run wires the supervisor, workers, click listener and config watcher
// and blocks in the compositor loop.
func run(ctx context.Context, settings *config.Config, log *logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	path := settings.ProducerConfigPath()
	log.Info("starting", "version", statusbar.Version, "config", path, "standalone", settings.Standalone)

	var notifier statusbar.Notifier = &statusbar.LogNotifier{Log: log}
	if settings.Notifications.Nagbar {
		notifier = statusbar.NewNagbarNotifier(log)
	}

	sup, err := statusbar.NewSupervisor(path,
		statusbar.WithProducerBinary(settings.Producer.Binary),
		statusbar.WithStandalone(settings.Standalone),
		statusbar.WithSupervisorLogger(log),
	)
	if err != nil {
		notifier.Notify(ctx, statusbar.NotifyError, err.Error())
		return err
	}

	registry := statusbar.NewRegistry()
	workers, err := registerWorkers(sup.Config(), registry, settings, log)
	if err != nil {
		return err
	}

	opts := []statusbar.CompositorOption{
		statusbar.WithInterval(settings.Interval),
		statusbar.WithRegistry(registry),
		statusbar.WithNotifier(notifier),
		statusbar.WithCompositorLogger(log),
	}
	for _, w := range workers {
		opts = append(opts, statusbar.WithStopFunc(w.Stop))
	}

	// i3bar pipes click events to stdin; a terminal never sends any
	var clicks *statusbar.ClickListener
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		clicks = statusbar.NewClickListener(sup.Config(), registry, os.Stdin, statusbar.WithClickLogger(log))
		opts = append(opts, statusbar.WithClickListener(clicks), statusbar.WithStopFunc(clicks.Stop))
	}

	if stopWatch, err := watchProducerConfig(ctx, path, notifier, log); err != nil {
		log.Warn("not watching producer config", "path", path, "error", err)
	} else {
		opts = append(opts, statusbar.WithStopFunc(stopWatch))
	}

	if err := sup.Start(ctx); err != nil {
		return err
	}
	for _, w := range workers {
		w.Start(ctx)
	}
	if clicks != nil {
		clicks.Start(ctx)
	}

	return statusbar.NewCompositor(sup, opts...).Run(ctx)
}

// watchProducerConfig reports edits of the producer config. The running
// configuration is never swapped, so a valid edit only asks for a restart.
func watchProducerConfig(ctx context.Context, path string, notifier statusbar.Notifier, log *logging.Logger) (func() error, error) {
	events, cleanup, err := statusbar.WatchConfig(ctx, path, statusbar.DefaultConfigDebounce)
	if err != nil {
		return nil, err
	}

	go func() {
		for ev := range events {
			if ev.Err != nil {
				notifier.Notify(ctx, statusbar.NotifyWarning, fmt.Sprintf("invalid config edit: %v", ev.Err))
				continue
			}
			log.Info("producer config changed, restart to apply", "path", ev.Config.Path, "order", len(ev.Config.Order))
		}
	}()

	return cleanup, nil
}
