package commands

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/boatkit-io/blf/pkg/converter"
)

const (
	flagStep  = "step"
	flagLimit = "limit"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file.blf>",
		Short: "Print the frames of a BLF file",
		Long: `Print every frame of a BLF file, one per line.

Lines are rendered with a Go text/template. The template sees .Index, .Time (wall clock),
.Offset (since measurement start), .Type (object type name) and .Frame, and can use the
sprig functions plus hexbytes.`,
		Args: cobra.ExactArgs(1),
		RunE: runDump,
	}
	cmd.Flags().String(flagTemplate, "", "output template (default from config)")
	cmd.Flags().Bool(flagProgress, false, "show a progress bar on stderr")
	cmd.Flags().Bool(flagStep, false, "wait for Enter after each frame")
	cmd.Flags().Int(flagLimit, 0, "stop after this many frames (0 means no limit)")
	addReaderFlags(cmd)
	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	step, _ := cmd.Flags().GetBool(flagStep)
	limit, _ := cmd.Flags().GetInt(flagLimit)

	var formatter *converter.TemplateFormatter
	if cfg.Template != converter.DefaultTemplate {
		// TextFromFrame renders the default template
		if formatter, err = converter.NewTemplateFormatter(cfg.Template); err != nil {
			return err
		}
	}
	keep := typeFilter(cfg)

	lf, release, err := openLogFile(cmd, args[0], cfg, log)
	if err != nil {
		return err
	}
	defer release()

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()
	in := bufio.NewReader(cmd.InOrStdin())

	index := 0
	for limit == 0 || index < limit {
		f, err := lf.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !keep(f) {
			continue
		}
		if formatter == nil {
			if _, err := fmt.Fprintln(out, converter.TextFromFrame(f, lf.AbsoluteTime(f))); err != nil {
				return err
			}
		} else if err := formatter.Format(out, converter.NewTemplateData(index, f, lf.AbsoluteTime(f))); err != nil {
			return err
		}
		index++

		if step {
			if err := out.Flush(); err != nil {
				return err
			}
			fmt.Fprint(cmd.ErrOrStderr(), "-- Enter for next frame --")
			if _, err := in.ReadString('\n'); err != nil {
				// input closed, stop stepping
				break
			}
		}
	}

	stats := lf.Stats()
	log.WithFields(logrus.Fields{
		"frames":     index,
		"objects":    stats.Objects,
		"containers": stats.Containers,
		"skipped":    stats.Skipped,
	}).Debug("dump finished")
	return out.Flush()
}
