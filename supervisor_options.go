package statusbar

import (
	"io"
	"time"

	"github.com/axondata/go-statusbar/internal/logging"
)

// SupervisorOption configures a Supervisor
type SupervisorOption func(*Supervisor)

// WithProducerBinary sets the producer executable
func WithProducerBinary(binary string) SupervisorOption {
	return func(s *Supervisor) {
		s.Binary = binary
	}
}

// WithStandalone runs without a producer process
func WithStandalone(standalone bool) SupervisorOption {
	return func(s *Supervisor) {
		s.Standalone = standalone
	}
}

// WithTempDir sets the directory of the derived producer config
func WithTempDir(dir string) SupervisorOption {
	return func(s *Supervisor) {
		s.TempDir = dir
	}
}

// WithPollTimeouts sets the read timeout used before and after the producer
// starts streaming continuation frames
func WithPollTimeouts(first, steady time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.FirstPollTimeout = first
		s.PollTimeout = steady
	}
}

// WithStopGrace sets how long Stop waits for the producer to exit after
// SIGTERM before killing it
func WithStopGrace(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.StopGrace = d
	}
}

// WithOutput sets where forwarded protocol lines are written
func WithOutput(out *StreamWriter) SupervisorOption {
	return func(s *Supervisor) {
		s.out = out
	}
}

// WithOutputWriter wraps w in a StreamWriter for forwarded protocol lines
func WithOutputWriter(w io.Writer) SupervisorOption {
	return func(s *Supervisor) {
		s.out = NewStreamWriter(w)
	}
}

// WithSupervisorLogger sets the supervisor's logger
func WithSupervisorLogger(log *logging.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.log = log
	}
}

// WithSupervisorClock replaces time.Now, for tests
func WithSupervisorClock(now func() time.Time) SupervisorOption {
	return func(s *Supervisor) {
		s.now = now
	}
}
