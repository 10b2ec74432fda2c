package statusbar

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/google/renameio/v2"
)

var producerConfigSeq atomic.Uint64

// RenderProducerConfig renders the derived config handed to the producer:
// the producer-native sections in sorted order followed by the cleaned order
// sequence. Worker sections and click commands are left out.
func (c *Configuration) RenderProducerConfig() []byte {
	var buf bytes.Buffer

	names := make([]string, 0, len(c.Sections))
	for name := range c.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		section := c.Sections[name]
		if len(section) == 0 || !isProducerSection(name) {
			continue
		}

		fmt.Fprintf(&buf, "%s {\n", renderHeader(name))
		keys := make([]string, 0, len(section))
		for key := range section {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&buf, "    %s = %s\n", key, renderValue(section[key]))
		}
		buf.WriteString("}\n\n")
	}

	for _, name := range c.Order {
		if isProducerSection(name) {
			fmt.Fprintf(&buf, "order += %s\n", strconv.Quote(name))
		}
	}

	return buf.Bytes()
}

// WriteProducerConfig atomically writes the derived config to a new file in
// dir (os.TempDir when empty) and returns its path.
func (c *Configuration) WriteProducerConfig(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	name := fmt.Sprintf("%s%d_%d.conf", TempConfigPrefix, os.Getpid(), producerConfigSeq.Add(1))
	path := filepath.Join(dir, name)

	if err := renameio.WriteFile(path, c.RenderProducerConfig(), FileMode); err != nil {
		return "", fmt.Errorf("writing producer config: %w", err)
	}
	return path, nil
}

// renderHeader quotes the argument of a section name so it parses back to
// the same name: "disk /home" is written as disk "/home".
func renderHeader(name string) string {
	kind := moduleKind(name)
	if kind == name {
		return name
	}
	return kind + " " + strconv.Quote(name[len(kind)+1:])
}

// renderValue writes integers bare and everything else quoted.
func renderValue(v Value) string {
	if v.Kind == KindInt {
		return v.Str
	}
	return strconv.Quote(v.Str)
}
