package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cryotank-sim/internal/logging"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cryotank-sim",
	Short: "Cryogenic tank boiloff simulator",
	Long:  "cryotank-sim simulates boiloff and active cooling of cryogenic propellant tanks on a powered vessel.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		l := logging.New(logLevel, logFormat)
		slog.SetDefault(l)
		cmd.SetContext(logging.NewContext(cmd.Context(), l))
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dashboardCmd)
}
