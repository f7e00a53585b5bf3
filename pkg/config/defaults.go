package config

import (
	"os"

	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/converter"
)

// Default values for configuration.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Environment variable names.
const (
	EnvLogLevel = "BLFDUMP_LOG_LEVEL"
	EnvTemplate = "BLFDUMP_TEMPLATE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Template:      converter.DefaultTemplate,
		SkipTypes:     []string{},
		OnlyTypes:     []string{},
		MaxObjectSize: blf.DefaultMaxObjectSize,
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if tmpl := os.Getenv(EnvTemplate); tmpl != "" {
		c.Template = tmpl
	}
}
