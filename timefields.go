package statusbar

import (
	"strings"
	"sync"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/axondata/go-statusbar/internal/logging"
)

// Time-like producer modules
const (
	ModuleTime   = "time"
	ModuleTZTime = "tztime"
)

// dateDirectives must be present for a rendered time to be parsed into an
// instant. Missing ones are synthesized from the host's current date.
var dateDirectives = []string{"%Y", "%m", "%d"}

// TimeModuleState is the locally tracked state of one time-like section.
type TimeModuleState struct {
	// Section is the config section the item was rendered from
	Section string
	// Format is the strftime format used to render the field
	Format string
	// Instant is the displayed wall clock time, kept in UTC
	Instant time.Time
	// Delta is Instant minus the UTC capture time of the parsed output
	Delta time.Duration
	// Zone carries the zone name and offset parsed from the producer text
	Zone *time.Location
	// Text is the last rendered text
	Text string
}

func (s *TimeModuleState) render() string {
	w := s.Instant
	t := time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), s.Zone)
	return strftime.Format(s.Format, t)
}

// TimeNormalizer re-renders time and tztime fields locally so they tick
// smoothly between producer updates. Its state is keyed by section name and
// guarded by a mutex: Initialize runs on the supervisor's read loop and Tick
// on the compositor.
type TimeNormalizer struct {
	mu     sync.Mutex
	config *Configuration
	states map[string]*TimeModuleState
	now    func() time.Time
	log    *logging.Logger
}

// NewTimeNormalizer returns a normalizer for the time modules of cfg. now
// defaults to time.Now and log to a no-op logger.
func NewTimeNormalizer(cfg *Configuration, log *logging.Logger, now func() time.Time) *TimeNormalizer {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &TimeNormalizer{
		config: cfg,
		states: make(map[string]*TimeModuleState),
		now:    now,
		log:    log,
	}
}

// Initialize parses every time-like item of snap into an instant and its
// offset from the capture time.
func (n *TimeNormalizer) Initialize(snap Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.initialize(snap)
}

func (n *TimeNormalizer) initialize(snap Snapshot) {
	captured := snap.CapturedAt.UTC()

	for index, item := range snap.Items {
		if !isTimeItem(item) {
			continue
		}
		section := n.sectionAt(index, item)
		format := n.formatFor(section, item.Name())

		st := &TimeModuleState{Section: section, Format: format}
		instant, zone, err := n.parse(format, item.FullText())
		if err != nil {
			n.log.Warn("time field fell back to host clock",
				"error", &TimeParseError{Section: section, Text: item.FullText(), Format: format, Err: err})
			local := n.now()
			instant = wallUTC(local)
			zone = fixedZone(local)
		}

		st.Instant = instant
		st.Zone = zone
		st.Delta = instant.Sub(captured)
		st.Text = item.FullText()
		n.states[section] = st
	}
}

// Tick rewrites the time-like fields of snap's items and returns them. On a
// forced resync the displayed instant is recomputed from the host clock and
// the stored delta; otherwise the previous instant is shown again. At every
// whole UTC minute the state is re-initialized from snap to absorb drift.
func (n *TimeNormalizer) Tick(snap Snapshot, forceResync bool) Frame {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now().UTC()
	if now.Second() == 0 {
		n.initialize(snap)
	}

	frame := snap.Items
	for index, item := range frame {
		if !isTimeItem(item) {
			continue
		}
		st, ok := n.states[n.sectionAt(index, item)]
		if !ok {
			continue
		}

		if forceResync {
			st.Instant = now.Add(st.Delta)
		}
		st.Text = st.render()
		item.SetFullText(st.Text)
	}
	return frame
}

// State returns a copy of the tracked state of section
func (n *TimeNormalizer) State(section string) (TimeModuleState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	st, ok := n.states[section]
	if !ok {
		return TimeModuleState{}, false
	}
	return *st, true
}

// parse reads a producer rendered time. Date directives missing from format
// are appended to both the format and the text using the host's date.
func (n *TimeNormalizer) parse(format, text string) (time.Time, *time.Location, error) {
	host := n.now()
	for _, directive := range dateDirectives {
		if !strings.Contains(format, directive) {
			format += " " + directive
			text += " " + strftime.Format(directive, host)
		}
	}

	t, err := strftime.Parse(format, text)
	if err != nil {
		return time.Time{}, nil, err
	}
	return wallUTC(t), fixedZone(t), nil
}

func (n *TimeNormalizer) sectionAt(index int, item OutputItem) string {
	if section, ok := n.config.ProducerModuleAt(index); ok {
		return section
	}
	return item.Name()
}

func (n *TimeNormalizer) formatFor(section, kind string) string {
	if v, ok := n.config.Section(section).Get("format"); ok && v.String() != "" {
		return v.String()
	}
	if kind == ModuleTZTime {
		return DefaultTZTimeFormat
	}
	return DefaultTimeFormat
}

func isTimeItem(item OutputItem) bool {
	name := item.Name()
	return name == ModuleTime || name == ModuleTZTime
}

// wallUTC keeps the wall clock of t and drops its zone.
func wallUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func fixedZone(t time.Time) *time.Location {
	name, offset := t.Zone()
	return time.FixedZone(name, offset)
}
