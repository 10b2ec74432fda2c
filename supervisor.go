package statusbar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"vawter.tech/stopper"

	"github.com/axondata/go-statusbar/internal/logging"
	"github.com/axondata/go-statusbar/internal/unix"
)

// Supervisor owns the producer process. It writes the derived config,
// spawns the producer, classifies its output lines and publishes the parsed
// arrays as snapshots. Failures of the producer are recorded and polled
// through IsAlive and LastError; they never escape the read loop.
type Supervisor struct {
	// Binary is the producer executable
	Binary string

	// Standalone skips the producer and serves an empty status line
	Standalone bool

	// TempDir holds the derived producer config; os.TempDir when empty
	TempDir string

	// FirstPollTimeout is the read timeout until continuation frames start
	FirstPollTimeout time.Duration

	// PollTimeout is the read timeout in steady state
	PollTimeout time.Duration

	// StopGrace is how long Stop waits after SIGTERM before killing
	StopGrace time.Duration

	config    *Configuration
	times     *TimeNormalizer
	snapshots *snapshotStore
	out       *StreamWriter
	log       *logging.Logger
	now       func() time.Time

	ready     chan struct{}
	readyOnce sync.Once
	alive     atomic.Bool

	mu      sync.Mutex
	started bool
	stopped bool
	sctx    *stopper.Context
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	reader  *lineReader
	stderr  *lockedBuffer
	exited  chan struct{}
	tmpPath string
	lastErr error
}

// NewSupervisor parses the producer config at configPath and returns a
// Supervisor ready to Start. Configuration errors are returned here, before
// anything is spawned.
func NewSupervisor(configPath string, opts ...SupervisorOption) (*Supervisor, error) {
	cfg, err := ParseConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewSupervisorFromConfig(cfg, opts...), nil
}

// NewSupervisorFromConfig returns a Supervisor for an already parsed
// configuration.
func NewSupervisorFromConfig(cfg *Configuration, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		Binary:           DefaultProducerBinary,
		FirstPollTimeout: DefaultFirstPollTimeout,
		PollTimeout:      DefaultPollTimeout,
		StopGrace:        DefaultStopGrace,
		config:           cfg,
		snapshots:        newSnapshotStore(),
		ready:            make(chan struct{}),
		stderr:           &lockedBuffer{},
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.out == nil {
		s.out = NewStreamWriter(os.Stdout)
	}
	if s.log == nil {
		s.log = logging.NopLogger()
	}
	s.log = s.log.WithComponent("supervisor")
	s.times = NewTimeNormalizer(cfg, s.log, s.now)

	return s
}

// Config returns the parsed configuration
func (s *Supervisor) Config() *Configuration {
	return s.config
}

// Times returns the normalizer for the producer's time fields
func (s *Supervisor) Times() *TimeNormalizer {
	return s.times
}

// Output returns the stream forwarded lines are written to
func (s *Supervisor) Output() *StreamWriter {
	return s.out
}

// Start writes the derived config and launches the producer and its read
// loop. A failure to spawn the producer is not returned: it is recorded and
// reported through IsAlive and LastError like any later death.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.sctx = stopper.WithContext(ctx)
	s.alive.Store(true)

	if s.Standalone {
		s.mock()
		return nil
	}

	path, err := s.config.WriteProducerConfig(s.TempDir)
	if err != nil {
		s.alive.Store(false)
		return err
	}
	s.tmpPath = path

	cmd := exec.Command(s.Binary, "-c", path)
	cmd.Stderr = s.stderr
	cmd.WaitDelay = s.StopGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.failLocked(&ProducerIOError{Binary: s.binaryName(), ExitCode: -1, Err: err})
		return nil
	}
	if err := cmd.Start(); err != nil {
		s.failLocked(&ProducerIOError{Binary: s.binaryName(), ExitCode: -1, Err: err})
		return nil
	}

	s.cmd = cmd
	s.stdout = stdout
	s.reader = newLineReader(stdout)
	s.exited = make(chan struct{})
	s.log.Info("producer spawned", "binary", s.Binary, "config", path, "pid", cmd.Process.Pid)

	reader, exited := s.reader, s.exited
	s.sctx.Go(func(*stopper.Context) error {
		<-reader.done
		err := cmd.Wait()
		if err != nil {
			s.log.Debug("producer exited", "error", err)
		}
		close(exited)
		return nil
	})
	s.sctx.Go(func(sctx *stopper.Context) error {
		s.readLoop(sctx, reader, exited)
		return nil
	})

	return nil
}

// mock serves the minimal protocol preamble and an empty status line
func (s *Supervisor) mock() {
	for _, line := range []string{HeaderLine(), "["} {
		if err := s.out.WriteLine(line); err != nil {
			s.log.Warn("failed to write protocol preamble", "error", err)
		}
	}
	if err := s.out.WriteFrame([]byte("[]")); err != nil {
		s.log.Warn("failed to write protocol preamble", "error", err)
	}

	s.snapshots.publish(Snapshot{Items: Frame{}, CapturedAt: s.now().UTC(), Prefix: ContinuationPrefix})
	s.markReady()
	s.log.Info("running standalone, producer not spawned")
}

func (s *Supervisor) readLoop(sctx *stopper.Context, reader *lineReader, exited <-chan struct{}) {
	lines := reader.lines
	timeout := s.FirstPollTimeout

	for !sctx.IsStopping() {
		select {
		case <-sctx.Stopping():
			return

		case line, ok := <-lines:
			if !ok {
				if err := reader.Err(); err != nil && !sctx.IsStopping() {
					s.fail(&ProducerIOError{Binary: s.binaryName(), ExitCode: -1, Err: err})
					return
				}
				// wait for the exit status on the next empty poll
				lines = nil
				continue
			}
			s.handleLine(line, &timeout)

		case <-time.After(timeout):
			select {
			case <-exited:
				if !sctx.IsStopping() {
					s.fail(s.exitError())
				}
				return
			default:
			}
		}
	}
}

// handleLine classifies one producer line
func (s *Supervisor) handleLine(line string, timeout *time.Duration) {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, ContinuationPrefix):
		*timeout = s.PollTimeout
		s.record(trimmed)

	case strings.HasPrefix(trimmed, "[") && len(trimmed) > 1:
		if snap, ok := s.record(trimmed); ok {
			s.times.Initialize(snap)
			s.markReady()
		}

	default:
		if isHeaderLine(trimmed) {
			injected, err := InjectClickEvents(trimmed)
			if err != nil {
				s.log.Warn("forwarding unparsable protocol header", "line", trimmed, "error", err)
			} else {
				line = injected
			}
		}
		if err := s.out.WriteLine(line); err != nil {
			s.log.Warn("failed to forward producer line", "error", err)
		}
	}
}

// record parses an output array and publishes it
func (s *Supervisor) record(line string) (Snapshot, bool) {
	frame, err := DecodeFrame([]byte(line))
	if err != nil {
		s.log.Warn("skipping malformed producer output", "line", line, "error", err)
		return Snapshot{}, false
	}

	snap := Snapshot{Items: frame, CapturedAt: s.now().UTC(), Prefix: ContinuationPrefix}
	s.snapshots.publish(snap)
	return snap, true
}

func (s *Supervisor) exitError() error {
	code := -1
	if s.cmd != nil && s.cmd.ProcessState != nil {
		code = s.cmd.ProcessState.ExitCode()
	}
	return &ProducerIOError{Binary: s.binaryName(), ExitCode: code, Stderr: s.stderr.String()}
}

func (s *Supervisor) binaryName() string {
	return filepath.Base(s.Binary)
}

func (s *Supervisor) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Supervisor) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(err)
}

func (s *Supervisor) failLocked(err error) {
	s.lastErr = err
	s.alive.Store(false)
	s.log.Error("producer failed", "error", err)
}

// Snapshot returns a deep copy of the current read copy
func (s *Supervisor) Snapshot() Snapshot {
	return s.snapshots.load()
}

// Refresh replaces the read copy with the latest parsed output
func (s *Supervisor) Refresh() {
	s.snapshots.refresh()
}

// IsAlive reports whether the read loop is running
func (s *Supervisor) IsAlive() bool {
	return s.alive.Load()
}

// LastError returns the terminal error of the read loop, if any
func (s *Supervisor) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// WaitReady blocks until the first output array was parsed, the producer
// failed, or ctx is done.
func (s *Supervisor) WaitReady(ctx context.Context) error {
	for {
		select {
		case <-s.ready:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			if !s.IsAlive() {
				if err := s.LastError(); err != nil {
					return err
				}
				return ErrProducerDied
			}
		}
	}
}

// Pid returns the producer's process id, or 0
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Signal delivers sig to the producer
func (s *Supervisor) Signal(sig syscall.Signal) error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return ErrNoProcess
	}
	if err := cmd.Process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return ErrNoProcess
		}
		return fmt.Errorf("signalling producer: %w", err)
	}
	return nil
}

// Stop ends the read loop, reaps the producer (SIGTERM, then kill after
// StopGrace) and removes the derived config. A config file that is already
// gone is not an error.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	sctx, cmd, reader, exited, stdout, tmpPath := s.sctx, s.cmd, s.reader, s.exited, s.stdout, s.tmpPath
	s.mu.Unlock()

	sctx.Stop(s.StopGrace)

	var errs MultiError
	if cmd != nil {
		reader.stop()
		if err := cmd.Process.Signal(unix.TerminateSignal); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.log.Debug("terminating producer", "error", err)
		}

		select {
		case <-exited:
		case <-time.After(s.StopGrace):
			s.log.Warn("producer ignored SIGTERM, killing it", "pid", cmd.Process.Pid)
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				errs.Add(fmt.Errorf("killing producer: %w", err))
			}
			_ = stdout.Close()
			<-exited
		}
	}

	if err := sctx.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		errs.Add(err)
	}

	if tmpPath != "" {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs.Add(fmt.Errorf("removing producer config: %w", err))
		}
	}

	s.alive.Store(false)
	s.log.Info("supervisor stopped")
	return errs.Err()
}
