// Package config loads the aggregator's own settings and locates the
// producer config file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding settings
const EnvPrefix = "STATUSBAR"

// Config holds the aggregator settings
type Config struct {
	// Interval is the time field refresh interval in seconds
	Interval int `mapstructure:"interval" yaml:"interval"`
	// CacheTimeout is the default lifetime of worker method outputs
	CacheTimeout time.Duration `mapstructure:"cache_timeout" yaml:"cache_timeout"`
	// Standalone runs without spawning the producer
	Standalone bool `mapstructure:"standalone" yaml:"standalone"`
	// Debug forces debug logging
	Debug bool `mapstructure:"debug" yaml:"debug"`

	Producer      ProducerConfig      `mapstructure:"producer" yaml:"producer"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
}

// ProducerConfig selects the producer and its config file
type ProducerConfig struct {
	// Binary is the producer executable
	Binary string `mapstructure:"binary" yaml:"binary"`
	// Config is the producer config path. Empty means discover it.
	Config string `mapstructure:"config" yaml:"config"`
}

// LoggingConfig controls the diagnostic log
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// File is the log file. Empty logs to stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// NotificationsConfig controls user-visible failure reports
type NotificationsConfig struct {
	// Nagbar shows failures with i3-nagbar
	Nagbar bool `mapstructure:"nagbar" yaml:"nagbar"`
}

// Default returns the default settings
func Default() *Config {
	return &Config{
		Interval:     1,
		CacheTimeout: 60 * time.Second,
		Producer: ProducerConfig{
			Binary: "i3status",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Notifications: NotificationsConfig{
			Nagbar: true,
		},
	}
}

// SetDefaults registers the defaults with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("interval", defaults.Interval)
	v.SetDefault("cache_timeout", defaults.CacheTimeout)
	v.SetDefault("standalone", defaults.Standalone)
	v.SetDefault("debug", defaults.Debug)

	v.SetDefault("producer.binary", defaults.Producer.Binary)
	v.SetDefault("producer.config", defaults.Producer.Config)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)

	v.SetDefault("notifications.nagbar", defaults.Notifications.Nagbar)
}

// NewViper returns a viper instance with the defaults set, reading
// STATUSBAR_* environment variables. Nested keys use underscores, e.g.
// STATUSBAR_PRODUCER_BINARY for producer.binary.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadSettingsFile reads the settings file into v. An explicit path must
// exist; otherwise the default locations are searched and a missing file
// is not an error.
func ReadSettingsFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(SettingsDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the settings from v and validates them
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// LogLevel returns the effective log level
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.Logging.Level
}

// SettingsDir returns the directory of the settings file
func SettingsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "statusbar")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".statusbar"
	}
	return filepath.Join(home, ".config", "statusbar")
}
