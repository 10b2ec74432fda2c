package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ProducerConfigCandidates lists the producer config locations in the
// order the producer itself searches them.
func ProducerConfigCandidates() []string {
	home, _ := os.UserHomeDir()

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	candidates := []string{
		filepath.Join(home, ".i3status.conf"),
		filepath.Join(configHome, "i3status", "config"),
		"/etc/i3status.conf",
	}

	configDirs := os.Getenv("XDG_CONFIG_DIRS")
	if configDirs == "" {
		configDirs = "/etc/xdg"
	}
	for _, dir := range strings.Split(configDirs, ":") {
		if dir != "" {
			candidates = append(candidates, filepath.Join(dir, "i3status", "config"))
		}
	}

	return candidates
}

// FallbackProducerConfig is used when no candidate exists
func FallbackProducerConfig() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".i3", "i3status.conf")
}

// DiscoverProducerConfig returns the first existing candidate, or the
// fallback path.
func DiscoverProducerConfig() string {
	for _, path := range ProducerConfigCandidates() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return FallbackProducerConfig()
}

// ProducerConfigPath returns the configured producer config path, or the
// discovered one when none is set.
func (c *Config) ProducerConfigPath() string {
	if c.Producer.Config != "" {
		return c.Producer.Config
	}
	return DiscoverProducerConfig()
}
