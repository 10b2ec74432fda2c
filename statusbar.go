package statusbar

import (
	"time"
)

// Protocol constants
const (
	// OutputFormat is the only producer output_format the aggregator accepts
	OutputFormat = "i3bar"

	// ProtocolVersion is the bar protocol version announced in the header
	ProtocolVersion = 1

	// ContinuationPrefix precedes every protocol array after the first one
	ContinuationPrefix = ","
)

// Producer defaults
const (
	// DefaultProducerBinary is the status producer executable
	DefaultProducerBinary = "i3status"

	// DefaultFirstPollTimeout is the read timeout used until the producer
	// starts streaming continuation frames
	DefaultFirstPollTimeout = 1 * time.Millisecond

	// DefaultPollTimeout is the read timeout once streaming has begun
	DefaultPollTimeout = 500 * time.Millisecond

	// DefaultStopGrace is how long Stop waits for the producer after SIGTERM
	DefaultStopGrace = 1 * time.Second

	// TempConfigPrefix names the derived producer config file
	TempConfigPrefix = "statusbar_"
)

// Compositor defaults
const (
	// DefaultTick is the compositor cadence
	DefaultTick = 100 * time.Millisecond

	// DefaultInterval is the refresh interval of time fields, in seconds
	DefaultInterval = 1

	// DefaultRefreshRateLimit is the minimum spacing of forced refreshes
	DefaultRefreshRateLimit = 100 * time.Millisecond

	// DefaultCacheTimeout is how long a worker method output stays cached
	DefaultCacheTimeout = 60 * time.Second
)

// Time field formats
const (
	// DefaultTimeFormat renders "time" fields without a configured format
	DefaultTimeFormat = "%Y-%m-%d %H:%M:%S"

	// DefaultTZTimeFormat renders "tztime" fields without a configured format
	DefaultTZTimeFormat = "%Y-%m-%d %H:%M:%S %Z"
)

// File modes
const (
	// FileMode is the mode of the derived producer config
	FileMode = 0o600
)
