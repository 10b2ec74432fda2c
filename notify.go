package statusbar

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/axondata/go-statusbar/internal/logging"
)

// NotifyLevel is the severity of a user notification
type NotifyLevel string

// Notification levels, as understood by i3-nagbar -t
const (
	NotifyError   NotifyLevel = "error"
	NotifyWarning NotifyLevel = "warning"
)

// DefaultNagbarBinary is the notification bar executable
const DefaultNagbarBinary = "i3-nagbar"

// Notifier reports failures to the user
type Notifier interface {
	Notify(ctx context.Context, level NotifyLevel, msg string)
}

// LogNotifier writes notifications to the log only
type LogNotifier struct {
	Log *logging.Logger
}

// Notify logs msg at the matching level
func (n *LogNotifier) Notify(_ context.Context, level NotifyLevel, msg string) {
	log := n.Log
	if log == nil {
		return
	}
	if level == NotifyError {
		log.Error(msg)
		return
	}
	log.Warn(msg)
}

// NagbarNotifier logs notifications and shows them with i3-nagbar
type NagbarNotifier struct {
	// Binary is the nagbar executable
	Binary string
	// Log receives every notification
	Log *logging.Logger
}

// NewNagbarNotifier returns a NagbarNotifier using the default binary
func NewNagbarNotifier(log *logging.Logger) *NagbarNotifier {
	return &NagbarNotifier{Binary: DefaultNagbarBinary, Log: log}
}

// Notify logs msg and spawns the nagbar without waiting for it
func (n *NagbarNotifier) Notify(ctx context.Context, level NotifyLevel, msg string) {
	text := nagbarMessage(msg)
	(&LogNotifier{Log: n.Log}).Notify(ctx, level, text)

	cmd := exec.Command(n.Binary, "-m", text, "-t", string(level))
	if err := cmd.Start(); err != nil {
		if n.Log != nil {
			n.Log.Debug("nagbar unavailable", "error", err)
		}
		return
	}
	go func() { _ = cmd.Wait() }()
}

func nagbarMessage(msg string) string {
	return fmt.Sprintf("statusbar: %s. please try to fix this and reload i3wm (Mod+Shift+R)", msg)
}
