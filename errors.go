package statusbar

import (
	"errors"
	"fmt"
)

// Common errors returned by statusbar operations
var (
	// ErrNotStarted indicates the supervisor has not been started yet
	ErrNotStarted = errors.New("statusbar: supervisor not started")

	// ErrAlreadyStarted indicates Start was called twice
	ErrAlreadyStarted = errors.New("statusbar: supervisor already started")

	// ErrProducerDied is reported when the producer vanished without an error
	ErrProducerDied = errors.New("producer died horribly")

	// ErrNoProcess indicates there is no child process to signal
	ErrNoProcess = errors.New("statusbar: no producer process")
)

// ConfigSyntaxError reports a malformed line in the producer config file.
type ConfigSyntaxError struct {
	// Path is the config file being parsed
	Path string
	// Line is the 1-based line number of the offending line
	Line int
	// Msg describes what was wrong
	Msg string
}

// Error returns a formatted error message
func (e *ConfigSyntaxError) Error() string {
	return fmt.Sprintf("config %s:%d: %s", e.Path, e.Line, e.Msg)
}

// UnsupportedOutputFormatError is returned when general.output_format is not
// the bar protocol this aggregator understands.
type UnsupportedOutputFormatError struct {
	Path   string
	Format string
}

// Error returns a formatted error message
func (e *UnsupportedOutputFormatError) Error() string {
	return fmt.Sprintf("output_format should be set to %q in %s (got %q)", OutputFormat, e.Path, e.Format)
}

// InvalidClickButtonError is returned for an on_click key whose button id is
// missing or outside 1..5.
type InvalidClickButtonError struct {
	Section string
	Button  string
}

// Error returns a formatted error message
func (e *InvalidClickButtonError) Error() string {
	if e.Button == "" {
		return fmt.Sprintf("missing button id for on_click parameter in section %q", e.Section)
	}
	return fmt.Sprintf("invalid button id %q for on_click parameter in section %q (should be 1, 2, 3, 4 or 5)", e.Button, e.Section)
}

// ProducerIOError is the terminal error of the producer read loop: a spawn
// failure, a read failure or the child exiting.
type ProducerIOError struct {
	// Binary is the producer executable
	Binary string
	// ExitCode is the child's exit code, -1 when it never ran or was signalled
	ExitCode int
	// Stderr is whatever the child wrote to stderr before dying
	Stderr string
	// Err is the underlying error, if any
	Err error
}

// Error returns a formatted error message
func (e *ProducerIOError) Error() string {
	switch {
	case e.Stderr != "":
		return fmt.Sprintf("%s died and said: %s", e.Binary, e.Stderr)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Binary, e.Err)
	default:
		return fmt.Sprintf("%s died with code %d", e.Binary, e.ExitCode)
	}
}

// Unwrap returns the underlying error for error chain inspection
func (e *ProducerIOError) Unwrap() error {
	return e.Err
}

// TimeParseError describes a producer time field that could not be parsed.
// It is only ever logged; the normalizer falls back to the host clock.
type TimeParseError struct {
	Section string
	Text    string
	Format  string
	Err     error
}

// Error returns a formatted error message
func (e *TimeParseError) Error() string {
	return fmt.Sprintf("time field %s: parsing %q with %q: %v", e.Section, e.Text, e.Format, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TimeParseError) Unwrap() error {
	return e.Err
}

// FatalError ends the compositor loop with a runtime failure.
type FatalError struct {
	Err error
}

// Error returns a formatted error message
func (e *FatalError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *FatalError) Unwrap() error {
	return e.Err
}

// MultiError aggregates multiple errors from broadcast operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Process exit codes
const (
	// ExitOK is returned after a requested shutdown
	ExitOK = 0
	// ExitSetup is returned when configuration or start-up fails
	ExitSetup = 2
	// ExitRuntime is returned when the producer dies at runtime
	ExitRuntime = 3
)

// ExitCode maps an error returned by setup or Compositor.Run to the
// process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var fatal *FatalError
	var pio *ProducerIOError
	if errors.As(err, &fatal) || errors.As(err, &pio) {
		return ExitRuntime
	}
	return ExitSetup
}
