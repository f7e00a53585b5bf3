package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/boatkit-io/blf/pkg/blf"
)

const flagHeaderOnly = "header-only"

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file.blf>",
		Short: "Summarize a BLF file",
		Long:  "Print the file header of a BLF file and, unless --header-only is set, read every object and print counts per object type.",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
	cmd.Flags().Bool(flagHeaderOnly, false, "only print the file header")
	cmd.Flags().Bool(flagProgress, false, "show a progress bar on stderr")
	addReaderFlags(cmd)
	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	headerOnly, _ := cmd.Flags().GetBool(flagHeaderOnly)

	lf, release, err := openLogFile(cmd, args[0], cfg, log)
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	h := lf.Header()
	fmt.Fprintf(out, "File:              %s\n", args[0])
	fmt.Fprintf(out, "Application:       %s\n", h.Application)
	fmt.Fprintf(out, "Format version:    %s\n", h.FormatVersion)
	fmt.Fprintf(out, "File size:         %d\n", h.FileSize)
	fmt.Fprintf(out, "Uncompressed size: %d\n", h.UncompressedSize)
	fmt.Fprintf(out, "Declared objects:  %d\n", h.ObjectCount)
	fmt.Fprintf(out, "Start:             %s\n", formatSystemTime(h.Start))
	fmt.Fprintf(out, "Stop:              %s\n", formatSystemTime(h.Stop))
	if headerOnly {
		return nil
	}

	var readErr error
	for {
		if _, err := lf.Next(); err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
	}

	stats := lf.Stats()
	fmt.Fprintf(out, "Containers:        %d\n", stats.Containers)
	fmt.Fprintf(out, "Compressed bytes:  %d\n", stats.CompressedBytes)
	fmt.Fprintf(out, "Inflated bytes:    %d\n", stats.UncompressedBytes)
	fmt.Fprintf(out, "Objects:           %d\n", stats.Objects)
	fmt.Fprintf(out, "Skipped:           %d\n", stats.Skipped)
	fmt.Fprintf(out, "Undecoded:         %d\n", stats.Unknown)
	for _, t := range stats.Types() {
		fmt.Fprintf(out, "  %-22s %d\n", t, stats.ByType[t])
	}
	return readErr
}

func formatSystemTime(st blf.SystemTime) string {
	if st.IsZero() {
		return "-"
	}
	return st.Time().Format(time.RFC3339Nano)
}
