// Package config holds the blfdump configuration file format.
package config

import "github.com/boatkit-io/blf/pkg/blf"

// Config is the blfdump configuration.
type Config struct {
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	// Template renders each frame in the dump command. See converter.TemplateData.
	Template string `yaml:"template"`

	// SkipTypes and OnlyTypes hold object type names or numeric codes.
	SkipTypes []string `yaml:"skip_types"`
	OnlyTypes []string `yaml:"only_types"`

	IgnoreObjectCount bool `yaml:"ignore_object_count"`
	MaxObjectSize     int  `yaml:"max_object_size"`
	Progress          bool `yaml:"progress"`

	skipTypes []blf.ObjectType
	onlyTypes []blf.ObjectType
}

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// SkipObjectTypes returns SkipTypes parsed by Validate.
func (c *Config) SkipObjectTypes() []blf.ObjectType {
	return c.skipTypes
}

// OnlyObjectTypes returns OnlyTypes parsed by Validate.
func (c *Config) OnlyObjectTypes() []blf.ObjectType {
	return c.onlyTypes
}
