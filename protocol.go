package statusbar

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// protocolJSON encodes bar protocol records. Keys are sorted so that equal
// frames always encode to equal bytes, and HTML characters in full_text are
// left alone.
var protocolJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Well-known OutputItem keys
const (
	KeyName     = "name"
	KeyInstance = "instance"
	KeyFullText = "full_text"
	KeyColor    = "color"
)

// OutputItem is one protocol record: {name, instance, full_text, color, ...}.
// Unknown keys are preserved.
type OutputItem map[string]any

// Name returns the item's module name
func (o OutputItem) Name() string {
	return o.stringField(KeyName)
}

// Instance returns the item's instance, or ""
func (o OutputItem) Instance() string {
	return o.stringField(KeyInstance)
}

// FullText returns the item's display text
func (o OutputItem) FullText() string {
	return o.stringField(KeyFullText)
}

// SetFullText replaces the item's display text
func (o OutputItem) SetFullText(text string) {
	o[KeyFullText] = text
}

// Empty reports whether the item has nothing to display
func (o OutputItem) Empty() bool {
	return len(o) == 0 || o.FullText() == ""
}

// Clone returns a deep copy of the item
func (o OutputItem) Clone() OutputItem {
	if o == nil {
		return nil
	}
	return cloneValue(map[string]any(o)).(map[string]any)
}

func (o OutputItem) stringField(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case OutputItem:
		return OutputItem(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// Frame is one protocol array
type Frame []OutputItem

// Clone returns a deep copy of the frame
func (f Frame) Clone() Frame {
	if f == nil {
		return nil
	}
	out := make(Frame, len(f))
	for i, item := range f {
		out[i] = item.Clone()
	}
	return out
}

// DecodeFrame parses a protocol array. A leading continuation prefix is
// stripped.
func DecodeFrame(line []byte) (Frame, error) {
	line = bytes.TrimSpace(line)
	line = bytes.TrimPrefix(line, []byte(ContinuationPrefix))

	var frame Frame
	if err := protocolJSON.Unmarshal(line, &frame); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	if frame == nil {
		frame = Frame{}
	}
	return frame, nil
}

// EncodeFrame encodes a frame as a protocol array. A nil frame encodes to
// "[]".
func EncodeFrame(frame Frame) ([]byte, error) {
	if frame == nil {
		frame = Frame{}
	}
	data, err := protocolJSON.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return data, nil
}

// HeaderLine returns the protocol header announcing click event support
func HeaderLine() string {
	return fmt.Sprintf(`{"click_events":true,"version":%d}`, ProtocolVersion)
}

// isHeaderLine reports whether a producer line carries the protocol header
func isHeaderLine(line string) bool {
	return !strings.HasPrefix(line, ContinuationPrefix) && strings.Contains(line, `"version"`)
}

// InjectClickEvents sets click_events to true in a protocol header line.
func InjectClickEvents(line string) (string, error) {
	var header map[string]any
	if err := protocolJSON.UnmarshalFromString(line, &header); err != nil {
		return "", fmt.Errorf("decoding header: %w", err)
	}
	header["click_events"] = true

	out, err := protocolJSON.MarshalToString(header)
	if err != nil {
		return "", fmt.Errorf("encoding header: %w", err)
	}
	return out, nil
}

// StreamWriter serializes protocol output. Forwarded producer lines and
// composed frames share one writer so lines never interleave. The first
// frame is written bare, later ones with the continuation prefix.
type StreamWriter struct {
	mu     sync.Mutex
	w      io.Writer
	frames int
}

// NewStreamWriter returns a StreamWriter writing to w
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteLine writes one line verbatim
func (s *StreamWriter) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// WriteFrame writes an encoded protocol array, prefixed with the
// continuation marker unless it is the first one.
func (s *StreamWriter) WriteFrame(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, len(data)+2)
	if s.frames > 0 {
		buf = append(buf, ContinuationPrefix...)
	}
	buf = append(buf, data...)
	buf = append(buf, '\n')

	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	s.frames++
	return nil
}

// Frames returns how many frames have been written
func (s *StreamWriter) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
