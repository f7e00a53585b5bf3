// Package commands implements the blfdump subcommands.
package commands

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/config"
	"github.com/boatkit-io/blf/pkg/frame"
)

// Flag names shared between commands.
const (
	FlagConfig      = "config"
	FlagLogLevel    = "log-level"
	flagTemplate    = "template"
	flagType        = "type"
	flagSkipType    = "skip-type"
	flagIgnoreCount = "ignore-count"
	flagProgress    = "progress"
)

// addReaderFlags registers the flags that tune the BLF reader.
func addReaderFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice(flagType, nil, "only output these object types (name or code, repeatable)")
	cmd.Flags().StringSlice(flagSkipType, nil, "drop these object types (name or code, repeatable)")
	cmd.Flags().Bool(flagIgnoreCount, false, "read to end of file even when the header declares an object count")
}

// loadConfig reads the configuration file named by --config and applies the flags the
// user set on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed(FlagLogLevel) {
		cfg.LogLevel, _ = flags.GetString(FlagLogLevel)
	}
	if flags.Changed(flagTemplate) {
		cfg.Template, _ = flags.GetString(flagTemplate)
	}
	if flags.Changed(flagType) {
		cfg.OnlyTypes, _ = flags.GetStringSlice(flagType)
	}
	if flags.Changed(flagSkipType) {
		cfg.SkipTypes, _ = flags.GetStringSlice(flagSkipType)
	}
	if flags.Changed(flagIgnoreCount) {
		cfg.IgnoreObjectCount, _ = flags.GetBool(flagIgnoreCount)
	}
	if flags.Changed(flagProgress) {
		cfg.Progress, _ = flags.GetBool(flagProgress)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns the configured logger writing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	log := cfg.Logger()
	log.SetOutput(cmd.ErrOrStderr())
	return log
}

// readerOptions turns the configuration into blf reader options.
func readerOptions(cfg *config.Config, log *logrus.Logger) []blf.Option {
	opts := []blf.Option{
		blf.WithLogger(log),
		blf.WithSkipTypes(cfg.SkipObjectTypes()...),
		blf.WithMaxObjectSize(cfg.MaxObjectSize),
	}
	if cfg.IgnoreObjectCount {
		opts = append(opts, blf.WithIgnoreObjectCount())
	}
	return opts
}

// typeFilter returns a predicate selecting the frames cfg asks for.
func typeFilter(cfg *config.Config) func(frame.Frame) bool {
	only := cfg.OnlyObjectTypes()
	if len(only) == 0 {
		return func(frame.Frame) bool { return true }
	}
	keep := make(map[uint32]bool, len(only))
	for _, t := range only {
		keep[uint32(t)] = true
	}
	return func(f frame.Frame) bool {
		return keep[f.FrameHeader().ObjectType]
	}
}

// openLogFile opens path for reading. With progress enabled the bytes consumed by the
// reader drive a progress bar on stderr. The returned func releases everything.
func openLogFile(cmd *cobra.Command, path string, cfg *config.Config, log *logrus.Logger) (*blf.LogFile, func(), error) {
	file, err := os.Open(path) // #nosec G304 -- user-provided input file is expected
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening log file")
	}

	var r io.Reader = bufio.NewReaderSize(file, 64<<10)
	var bar *progressbar.ProgressBar
	if cfg.Progress {
		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return nil, nil, errors.Wrap(err, "reading file size")
		}
		bar = progressbar.NewOptions64(info.Size(),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription(filepath.Base(path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		r = io.TeeReader(r, bar)
	}

	lf, err := blf.NewLogFile(r, readerOptions(cfg, log)...)
	if err != nil {
		_ = file.Close()
		return nil, nil, errors.WithMessagef(err, "%s", path)
	}
	release := func() {
		if bar != nil {
			_ = bar.Finish()
		}
		_ = lf.Close()
		_ = file.Close()
	}
	return lf, release, nil
}
