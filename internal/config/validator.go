package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/axondata/go-statusbar/internal/logging"
)

// ValidationError is a single invalid setting
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate returns every invalid setting
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Interval < 1 {
		errs = append(errs, ValidationError{
			Field:   "interval",
			Value:   c.Interval,
			Message: "must be at least 1 second",
		})
	}

	if c.CacheTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "cache_timeout",
			Value:   c.CacheTimeout,
			Message: "must be positive",
		})
	}

	if !c.Standalone && strings.TrimSpace(c.Producer.Binary) == "" {
		errs = append(errs, ValidationError{
			Field:   "producer.binary",
			Value:   c.Producer.Binary,
			Message: "is required unless standalone",
		})
	}

	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}

	return errs
}
