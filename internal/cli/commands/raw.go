package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/boatkit-io/blf/pkg/adapter/canadapter"
	"github.com/boatkit-io/blf/pkg/endpoint"
	"github.com/boatkit-io/blf/pkg/endpoint/blfendpoint"
	"github.com/boatkit-io/blf/pkg/endpoint/rawendpoint"
)

const flagOut = "out"

// NewRawCommand creates the raw command.
func NewRawCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raw <file.blf>",
		Short: "Convert classic CAN frames to RAW lines",
		Long: `Replay a BLF file and write each classic CAN data frame as a canboat RAW line.

CAN FD frames, error frames and non-CAN objects are counted and dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: runRaw,
	}
	cmd.Flags().String(flagOut, "", "output file (default stdout)")
	addReaderFlags(cmd)
	return cmd
}

func runRaw(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	outPath, _ := cmd.Flags().GetString(flagOut)

	var wep *rawendpoint.RawEndpoint
	if outPath == "" {
		wep = rawendpoint.NewRawWriter(cmd.OutOrStdout(), log)
	} else if wep, err = rawendpoint.NewRawEndpoint(outPath, log); err != nil {
		return err
	}

	ca := canadapter.NewCANAdapter(log)
	ca.SetWriter(wep)

	keep := typeFilter(cfg)
	ep := blfendpoint.NewBLFFileEndpoint(args[0], log, readerOptions(cfg, log)...)
	ep.SetOutput(endpoint.HandlerFunc(func(m endpoint.Message) {
		if keep(m.Frame) {
			ca.HandleMessage(m)
		}
	}))

	runErr := ep.Run(cmd.Context())
	closeErr := wep.Close()
	log.WithFields(logrus.Fields{
		"lines":   wep.Lines(),
		"skipped": ca.Skipped(),
	}).Info("RAW conversion finished")
	if runErr != nil {
		return runErr
	}
	return closeErr
}
