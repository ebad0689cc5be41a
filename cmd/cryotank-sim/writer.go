package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"cryotank-sim/internal/config"
	"cryotank-sim/internal/sim"
)

// Console output modes.
const (
	outputJSON  = "json"
	outputColor = "color"
	outputTUI   = "tui"
)

// isTerminal is swapped in tests.
var isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

type writerOptions struct {
	Output    string
	PrintOnly bool
	Endpoint  string
	Database  string
	LogFile   string
	Extra     []sim.TelemetryWriter
	Stdout    io.Writer
}

// newWriters sets up the telemetry writer chain based on flags and env vars.
// It returns the writer and a cleanup function to close any resources.
func newWriters(cfg *config.SimulationConfig, opts writerOptions) (sim.TelemetryWriter, func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				slog.Error("writer close failed", "err", err)
			}
		}
	}

	base, err := baseWriter(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := base.(io.Closer); ok {
		closers = append(closers, c)
	}

	tws := []sim.TelemetryWriter{base}
	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, sidecar(opts.LogFile, ".state"), sidecar(opts.LogFile, ".events"))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, fw)
		tws = append(tws, fw)
	}
	tws = append(tws, opts.Extra...)
	if len(tws) == 1 {
		return base, cleanup, nil
	}
	return sim.NewMultiWriter(tws...), cleanup, nil
}

// baseWriter chooses GreptimeDB when an endpoint is set and printing is not
// forced, and a console writer otherwise.
func baseWriter(cfg *config.SimulationConfig, opts writerOptions) (sim.TelemetryWriter, error) {
	if !opts.PrintOnly && opts.Endpoint != "" {
		db := opts.Database
		if db == "" {
			db = "public"
		}
		return sim.NewGreptimeDBWriter(opts.Endpoint, db)
	}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	switch strings.ToLower(opts.Output) {
	case "", outputJSON:
		return sim.NewStdoutWriter(cfg, out, false), nil
	case outputColor:
		return sim.NewStdoutWriter(cfg, out, true), nil
	case outputTUI:
		if !isTerminal(os.Stdout) {
			slog.Warn("stdout is not a terminal, falling back to color output")
			return sim.NewStdoutWriter(cfg, out, true), nil
		}
		return sim.NewTUIWriter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown output %q", opts.Output)
	}
}

// sidecar derives a companion log path, keeping a trailing .zst last.
func sidecar(path, suffix string) string {
	if sim.IsCompressed(path) {
		return strings.TrimSuffix(path, ".zst") + suffix + ".zst"
	}
	return path + suffix
}
