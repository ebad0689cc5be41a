package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryotank-sim/internal/config"
	"cryotank-sim/internal/sim"
	"cryotank-sim/internal/telemetry"
)

var (
	infoConfigPath string
	infoSchemaPath string
)

var infoCmd = &cobra.Command{
	Use:   "info [tank...]",
	Short: "Describe tank boiloff and cooling",
	Long:  "info prints the loss rate of every fuel and the cooling cost at capacity for each configured tank.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(infoConfigPath, infoSchemaPath)
		if err != nil {
			return err
		}
		simulator, err := sim.NewSimulator(cfg, discard{}, time.Second)
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = simulator.TankNames()
		}
		out := cmd.OutOrStdout()
		for _, name := range names {
			info, err := simulator.Info(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "== %s ==\n%s\n", name, info)
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	infoCmd.Flags().StringVar(&infoSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
}

// discard drops tank rows; info builds a simulator only to inspect it.
type discard struct{}

func (discard) Write(telemetry.TankRow) error { return nil }
