package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cryotank-sim/internal/admin"
	"cryotank-sim/internal/config"
	"cryotank-sim/internal/logging"
	"cryotank-sim/internal/scenario"
	"cryotank-sim/internal/sim"
	"cryotank-sim/internal/store"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simTicks      int
	simOutput     string
	simLogFile    string
	simStateDB    string
	simOfflineGap time.Duration
	simScenario   string
	simAdminAddr  string
	simWarp       float64
	simDatabase   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the tank simulator",
	Long:  "simulate ticks every configured tank, drawing cooling power from the vessel and writing boiloff telemetry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.FromContext(cmd.Context())

		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if simWarp > 0 {
			cfg.TimeWarp = simWarp
		}

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
			}
			tickInterval = d
		}

		var hub *admin.Hub
		var extra []sim.TelemetryWriter
		if simAdminAddr != "" && simTicks == 0 {
			hub = admin.NewHub(log)
			extra = append(extra, hub)
		}
		output := simOutput
		if simTicks > 0 && output == outputTUI {
			log.Warn("tui output needs real-time mode, using color")
			output = outputColor
		}
		writer, cleanup, err := newWriters(cfg, writerOptions{
			Output:    output,
			PrintOnly: simPrintOnly,
			Endpoint:  os.Getenv("GREPTIMEDB_ENDPOINT"),
			Database:  simDatabase,
			LogFile:   simLogFile,
			Extra:     extra,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		opts := []sim.Option{sim.WithLogger(log)}
		if simScenario != "" {
			sc, err := scenario.Resolve(simScenario)
			if err != nil {
				return err
			}
			opts = append(opts, sim.WithScenario(sc))
		}
		if cmd.Flags().Changed("offline-gap") {
			opts = append(opts, sim.WithOfflineGap(simOfflineGap))
		}
		dbPath := simStateDB
		if env := os.Getenv("CRYOTANK_STATE_DB"); env != "" && !cmd.Flags().Changed("state-db") {
			dbPath = env
		}
		if dbPath != "" {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()
			opts = append(opts, sim.WithStore(st))
		}

		simulator, err := sim.NewSimulator(cfg, writer, tickInterval, opts...)
		if err != nil {
			return err
		}
		if tw, ok := writer.(sim.CoolingToggleWriter); ok {
			tw.SetCoolingToggle(simulator.ToggleCooling)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if simTicks > 0 {
			if err := simulator.RunTicks(ctx, simTicks); err != nil {
				return err
			}
			log.Info("simulation finished", "ticks", simulator.Ticks(), "mission_time", simulator.MissionTime())
			return nil
		}

		if hub != nil {
			srv := admin.NewServer(simulator, hub)
			go func() {
				if aw, ok := writer.(sim.AdminStatusWriter); ok {
					aw.SetAdminStatus(true)
					defer aw.SetAdminStatus(false)
				}
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		simulator.Run(ctx)
		log.Info("tank simulation stopped")
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", time.Second, "Wall-clock tick interval (e.g. 500ms, 2s)")
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 0, "Run this many ticks as fast as possible and exit")
	simulateCmd.Flags().StringVar(&simOutput, "output", outputJSON, "Console output: json, color or tui")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry logs (JSONL, .zst compresses)")
	simulateCmd.Flags().StringVar(&simStateDB, "state-db", "", "SQLite file persisting vessel state between runs (env CRYOTANK_STATE_DB)")
	simulateCmd.Flags().DurationVar(&simOfflineGap, "offline-gap", 0, "Override the time the vessel spent unsimulated before this run")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Power profile: builtin name or scenario YAML file")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin UI listen address, empty to disable")
	simulateCmd.Flags().Float64Var(&simWarp, "warp", 0, "Time warp factor overriding the config")
	simulateCmd.Flags().StringVar(&simDatabase, "database", "public", "GreptimeDB database")
}
