package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cryotank-sim/internal/config"
	"cryotank-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayOutput    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a tank telemetry log file",
	Long:  "replay feeds tank rows from a JSONL or zstd log file back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		output := replayOutput
		if output == outputTUI {
			output = outputColor
		}
		writer, cleanup, err := newWriters(&config.SimulationConfig{}, writerOptions{
			Output:    output,
			PrintOnly: replayPrintOnly,
			Endpoint:  os.Getenv("GREPTIMEDB_ENDPOINT"),
		})
		if err != nil {
			return err
		}
		defer cleanup()
		return sim.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to telemetry log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	replayCmd.Flags().StringVar(&replayOutput, "output", outputJSON, "Console output: json or color")
	replayCmd.MarkFlagRequired("input")
}
