//go:build linux || darwin

// Package unix provides the platform signal numbers used by the aggregator.
package unix

import (
	"os"

	xunix "golang.org/x/sys/unix"
)

// RefreshSignal asks the aggregator (and the producer) to refresh immediately.
const RefreshSignal = xunix.SIGUSR1

// TerminateSignal asks the aggregator to shut down gracefully.
const TerminateSignal = xunix.SIGTERM

// TerminateSignals returns every signal treated as a shutdown request.
func TerminateSignals() []os.Signal {
	return []os.Signal{xunix.SIGTERM, xunix.SIGINT}
}
