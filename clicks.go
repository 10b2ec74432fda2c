package statusbar

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"vawter.tech/stopper"

	"github.com/axondata/go-statusbar/internal/logging"
)

// ClickEvent is one click reported by the bar
type ClickEvent struct {
	Name      string   `json:"name"`
	Instance  string   `json:"instance,omitempty"`
	Button    int      `json:"button"`
	X         int      `json:"x,omitempty"`
	Y         int      `json:"y,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// Section returns the config section the clicked item belongs to
func (e ClickEvent) Section() string {
	if e.Instance == "" {
		return e.Name
	}
	return e.Name + " " + e.Instance
}

// DefaultClickShell runs on_click commands
const DefaultClickShell = "/bin/sh"

// ClickListener reads click events, one JSON object per line, and runs the
// on_click command configured for the clicked section and button, then hands
// the event to the worker owning the item.
type ClickListener struct {
	// Shell runs on_click commands with -c
	Shell string

	config   *Configuration
	registry *Registry
	in       io.Reader
	log      *logging.Logger
	alive    atomic.Bool
	sctx     *stopper.Context
	handled  atomic.Int64
}

// ClickOption configures a ClickListener
type ClickOption func(*ClickListener)

// WithClickShell sets the shell running on_click commands
func WithClickShell(shell string) ClickOption {
	return func(l *ClickListener) {
		l.Shell = shell
	}
}

// WithClickLogger sets the listener's logger
func WithClickLogger(log *logging.Logger) ClickOption {
	return func(l *ClickListener) {
		l.log = log
	}
}

// NewClickListener returns a listener reading events from in
func NewClickListener(cfg *Configuration, registry *Registry, in io.Reader, opts ...ClickOption) *ClickListener {
	l := &ClickListener{
		Shell:    DefaultClickShell,
		config:   cfg,
		registry: registry,
		in:       in,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.log == nil {
		l.log = logging.NopLogger()
	}
	l.log = l.log.WithComponent("clicks")
	return l
}

// Start launches the read loop. The listener dies when its input ends.
func (l *ClickListener) Start(ctx context.Context) {
	l.sctx = stopper.WithContext(ctx)
	l.alive.Store(true)

	l.sctx.Go(func(sctx *stopper.Context) error {
		defer l.alive.Store(false)

		scanner := bufio.NewScanner(l.in)
		for scanner.Scan() {
			if sctx.IsStopping() {
				return nil
			}
			l.HandleLine(ctx, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			l.log.Warn("click input failed", "error", err)
		} else {
			l.log.Info("click input closed")
		}
		return nil
	})
}

// Stop ends the read loop. A loop blocked on input is abandoned after the
// grace period.
func (l *ClickListener) Stop() error {
	if l.sctx == nil {
		return nil
	}
	l.sctx.Stop(100 * time.Millisecond)
	l.alive.Store(false)
	return nil
}

// IsAlive reports whether the read loop is running
func (l *ClickListener) IsAlive() bool {
	return l.alive.Load()
}

// Handled returns how many click events were dispatched
func (l *ClickListener) Handled() int64 {
	return l.handled.Load()
}

// HandleLine decodes and dispatches one input line. The protocol wraps the
// events in an endless array, so a leading '[' or ',' is skipped.
func (l *ClickListener) HandleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "[")
	line = strings.TrimPrefix(line, ContinuationPrefix)
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var event ClickEvent
	if err := protocolJSON.UnmarshalFromString(line, &event); err != nil {
		l.log.Warn("skipping malformed click event", "line", line, "error", err)
		return
	}
	l.Dispatch(ctx, event)
}

// Dispatch runs the configured on_click command, if any, and passes the
// event to the worker owning the clicked item.
func (l *ClickListener) Dispatch(ctx context.Context, event ClickEvent) {
	l.handled.Add(1)
	section := event.Section()

	cmd, ok := l.config.ClickCommand(section, event.Button)
	if !ok && section != event.Name {
		cmd, ok = l.config.ClickCommand(event.Name, event.Button)
	}
	if ok {
		l.runCommand(section, cmd)
	}

	for _, name := range []string{section, event.Name} {
		handled, err := l.registry.Click(ctx, name, event)
		if err != nil {
			l.log.Warn("worker click handler failed", "worker", name, "button", event.Button, "error", err)
		}
		if handled {
			return
		}
		if section == event.Name {
			break
		}
	}

	if !ok {
		l.log.Debug("click ignored", "section", section, "button", event.Button)
	}
}

func (l *ClickListener) runCommand(section, command string) {
	cmd := exec.Command(l.Shell, "-c", command)
	if err := cmd.Start(); err != nil {
		l.log.Warn("on_click command failed", "section", section, "command", command, "error", err)
		return
	}
	l.log.Debug("on_click command started", "section", section, "command", command)
	go func() {
		if err := cmd.Wait(); err != nil {
			l.log.Warn("on_click command exited", "section", section, "command", command, "error", err)
		}
	}()
}
