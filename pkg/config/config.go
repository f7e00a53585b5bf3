package config

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/converter"
)

// Load reads and validates a configuration file. An empty path yields the defaults with
// environment overrides applied.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parsing config file")
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, errors.WithMessage(err, "validating config")
	}
	return cfg, nil
}

// Validate checks a configuration for errors and parses the object type lists.
func Validate(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}

	switch cfg.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return errors.Errorf("log_format: invalid format %q (must be text or json)", cfg.LogFormat)
	}

	if cfg.Template == "" {
		return errors.New("template: must not be empty")
	}
	if _, err := converter.NewTemplateFormatter(cfg.Template); err != nil {
		return errors.WithMessage(err, "template")
	}

	if cfg.MaxObjectSize < 0 {
		return errors.Errorf("max_object_size: %d is negative", cfg.MaxObjectSize)
	}

	var err error
	if cfg.skipTypes, err = parseTypes(cfg.SkipTypes); err != nil {
		return errors.WithMessage(err, "skip_types")
	}
	if cfg.onlyTypes, err = parseTypes(cfg.OnlyTypes); err != nil {
		return errors.WithMessage(err, "only_types")
	}
	for _, only := range cfg.onlyTypes {
		for _, skip := range cfg.skipTypes {
			if only == skip {
				return errors.Errorf("%s is listed in both only_types and skip_types", only)
			}
		}
	}
	return nil
}

func parseTypes(names []string) ([]blf.ObjectType, error) {
	types := make([]blf.ObjectType, 0, len(names))
	for i, name := range names {
		t, err := blf.ParseObjectType(name)
		if err != nil {
			return nil, errors.WithMessagef(err, "[%d]", i)
		}
		types = append(types, t)
	}
	return types, nil
}

// Logger returns a logrus logger configured from cfg. cfg must have passed Validate.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if c.LogFormat == LogFormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
