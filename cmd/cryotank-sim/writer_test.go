package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cryotank-sim/internal/config"
	"cryotank-sim/internal/sim"
	"cryotank-sim/internal/telemetry"
)

func TestNewWritersPrintOnly(t *testing.T) {
	var buf bytes.Buffer
	tw, cleanup, err := newWriters(&config.SimulationConfig{}, writerOptions{PrintOnly: true, Endpoint: "localhost:4001", Stdout: &buf})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := tw.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", tw)
	}
	if err := tw.Write(telemetry.TankRow{Tank: "lh2"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"tank":"lh2"`) {
		t.Fatalf("expected JSON row, got %q", buf.String())
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	tw, cleanup, err := newWriters(&config.SimulationConfig{}, writerOptions{Output: outputColor, Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected *sim.ColorStdoutWriter, got %T", tw)
	}
}

func TestNewWritersTUIFallsBackWithoutTerminal(t *testing.T) {
	old := isTerminal
	isTerminal = func(*os.File) bool { return false }
	defer func() { isTerminal = old }()

	tw, cleanup, err := newWriters(&config.SimulationConfig{}, writerOptions{Output: outputTUI, Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected color fallback, got %T", tw)
	}
}

func TestNewWritersUnknownOutput(t *testing.T) {
	if _, _, err := newWriters(&config.SimulationConfig{}, writerOptions{Output: "xml"}); err == nil {
		t.Fatal("expected error for unknown output")
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.jsonl")
	tw, cleanup, err := newWriters(&config.SimulationConfig{}, writerOptions{PrintOnly: true, LogFile: path, Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := tw.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", tw)
	}
	row := telemetry.TankRow{Vessel: "v", Tank: "lh2", Timestamp: time.Now()}
	if err := tw.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	sw, ok := tw.(sim.StateWriter)
	if !ok {
		t.Fatalf("telemetry writer does not implement StateWriter")
	}
	if err := sw.WriteState(telemetry.VesselStateRow{Vessel: "v", PowerAmount: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write state failed: %v", err)
	}
	cleanup()

	for _, p := range []string{path, path + ".state"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s failed: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}

func TestNewWritersExtra(t *testing.T) {
	extra := &recordingWriter{}
	tw, cleanup, err := newWriters(&config.SimulationConfig{}, writerOptions{PrintOnly: true, Stdout: &bytes.Buffer{}, Extra: []sim.TelemetryWriter{extra}})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if err := tw.Write(telemetry.TankRow{Tank: "a"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(extra.rows) != 1 {
		t.Fatalf("extra writer not fed, got %d rows", len(extra.rows))
	}
}

func TestSidecar(t *testing.T) {
	cases := map[string]string{
		"run.jsonl":     "run.jsonl.state",
		"run.jsonl.zst": "run.jsonl.state.zst",
	}
	for in, want := range cases {
		if got := sidecar(in, ".state"); got != want {
			t.Errorf("sidecar(%q) = %q, want %q", in, got, want)
		}
	}
}

type recordingWriter struct{ rows []telemetry.TankRow }

func (r *recordingWriter) Write(row telemetry.TankRow) error {
	r.rows = append(r.rows, row)
	return nil
}
