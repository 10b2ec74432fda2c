// Package statusbar wraps an i3status style producer and merges its output
// with items from in-process workers into a single i3bar protocol stream.
//
// A Supervisor spawns the producer with a derived config, forwards its
// protocol header and keeps the most recent output array as a Snapshot:
//
//	sup, err := statusbar.NewSupervisor("/home/me/.i3status.conf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sup.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// A Compositor then ticks on a fixed cadence. Every tick it re-renders the
// time fields of the snapshot from the host clock, so that seconds keep
// advancing between producer updates, merges in the worker outputs and
// writes the frame when it changed:
//
//	registry := statusbar.NewRegistry()
//	clock := statusbar.NewPeriodicWorker("clock")
//	clock.AddMethod("now", 0, func(ctx context.Context) (statusbar.OutputItem, error) {
//	    return statusbar.OutputItem{"full_text": time.Now().Format("15:04")}, nil
//	})
//	_ = registry.Register(clock)
//	clock.Start(ctx)
//
//	comp := statusbar.NewCompositor(sup, statusbar.WithRegistry(registry))
//	err = comp.Run(ctx)
//	os.Exit(statusbar.ExitCode(err))
//
// # Signals
//
// SIGUSR1 forces a refresh: the producer is signalled and every worker
// drops its cache. Refreshes closer than RefreshRateLimit are ignored.
// SIGTERM stops the compositor, which reaps the producer and removes the
// derived config.
//
// # Clicks
//
// A ClickListener reads the bar's click events, runs the on_click command
// configured for the clicked section and passes the event to the worker
// owning the item.
package statusbar
