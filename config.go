package statusbar

import (
	"slices"
	"strings"
)

// Distinguished section names
const (
	// SectionGeneral holds producer-wide settings such as output_format
	SectionGeneral = "general"
	// SectionOrder is the display order sequence
	SectionOrder = "order"
)

// producerModules are the section kinds the producer renders itself.
var producerModules = []string{
	"battery",
	"cpu_temperature",
	"cpu_usage",
	"ddate",
	"disk",
	"ethernet",
	"ipv6",
	"load",
	"path_exists",
	"run_watch",
	"time",
	"tztime",
	"volume",
	"wireless",
}

// defaultedModules need no explicit section: the producer has a default
// configuration for them.
var defaultedModules = []string{
	"cpu_usage",
	"ddate",
	"load",
	"time",
}

// Section is the key/value map of one config section
type Section map[string]Value

// Get returns the value of key and whether it is set
func (s Section) Get(key string) (Value, bool) {
	v, ok := s[key]
	return v, ok
}

// Configuration is the parsed producer config file. It is built once at
// start-up and read-only afterwards.
type Configuration struct {
	// Path is the file the configuration was parsed from
	Path string `yaml:"path"`
	// Sections maps a section name (kind plus optional argument) to its keys
	Sections map[string]Section `yaml:"sections"`
	// Order is the left-to-right display order
	Order []string `yaml:"order"`
	// OnClick maps a section name to button id (1..5) to command
	OnClick map[string]map[int]string `yaml:"on_click"`
	// ProducerModules lists the ordered names rendered by the producer
	ProducerModules []string `yaml:"producer_modules"`
	// WorkerModules lists the ordered names supplied by workers
	WorkerModules []string `yaml:"worker_modules"`
}

// newConfiguration returns a configuration holding the producer's general
// defaults.
func newConfiguration(path string) *Configuration {
	return &Configuration{
		Path: path,
		Sections: map[string]Section{
			SectionGeneral: {
				"color_bad":       StringValue("#FF0000"),
				"color_degraded":  StringValue("#FFFF00"),
				"color_good":      StringValue("#00FF00"),
				"color_separator": StringValue("#333333"),
				"colors":          TokenValue("false"),
				"interval":        IntValue(5),
				"output_format":   StringValue(OutputFormat),
			},
		},
		OnClick: make(map[string]map[int]string),
	}
}

// Section returns the named section, or nil.
func (c *Configuration) Section(name string) Section {
	return c.Sections[name]
}

// General returns the general section
func (c *Configuration) General() Section {
	return c.Sections[SectionGeneral]
}

// ClickCommand returns the on_click command configured for a section and
// button.
func (c *Configuration) ClickCommand(section string, button int) (string, bool) {
	cmds, ok := c.OnClick[section]
	if !ok {
		return "", false
	}
	cmd, ok := cmds[button]
	return cmd, ok
}

// IsProducerModule reports whether name is rendered by the producer.
func (c *Configuration) IsProducerModule(name string) bool {
	return slices.Contains(c.ProducerModules, name)
}

// IsWorkerModule reports whether name is supplied by a worker.
func (c *Configuration) IsWorkerModule(name string) bool {
	return slices.Contains(c.WorkerModules, name)
}

// ProducerModuleAt maps a producer output index to its section name.
func (c *Configuration) ProducerModuleAt(index int) (string, bool) {
	if index < 0 || index >= len(c.ProducerModules) {
		return "", false
	}
	return c.ProducerModules[index], true
}

// moduleKind returns the first token of a section name: "disk /home" is a
// "disk" section.
func moduleKind(name string) string {
	kind, _, _ := strings.Cut(name, " ")
	return kind
}

// isProducerSection reports whether a section belongs in the derived
// producer config.
func isProducerSection(name string) bool {
	kind := moduleKind(name)
	return kind == SectionGeneral || kind == SectionOrder || slices.Contains(producerModules, kind)
}

// isProducerModuleName reports whether an order entry is a producer module.
func isProducerModuleName(name string) bool {
	return slices.Contains(producerModules, moduleKind(name))
}

// needsSection reports whether a producer module must be configured
// explicitly to be rendered.
func needsSection(name string) bool {
	return isProducerModuleName(name) && !slices.Contains(defaultedModules, moduleKind(name))
}
