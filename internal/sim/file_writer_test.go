package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryotank-sim/internal/telemetry"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	return out
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	tankPath := filepath.Join(dir, "tanks.jsonl")
	statePath := filepath.Join(dir, "logs", "state.jsonl")
	eventPath := filepath.Join(dir, "events.jsonl")

	fw, err := NewFileWriter(tankPath, statePath, eventPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	tRow := telemetry.TankRow{
		Vessel: "v1", Tank: "lh2", State: "uncooled", FuelAmount: 975.3,
		Channels:  []telemetry.ChannelSample{{Fuel: "LqdHydrogen", Amount: 975.3, Max: 1000}},
		Timestamp: ts,
	}
	if err := fw.WriteBatch([]telemetry.TankRow{tRow}); err != nil {
		t.Fatalf("write tank: %v", err)
	}
	if err := fw.WriteState(telemetry.VesselStateRow{Vessel: "v1", PowerAmount: 12, Timestamp: ts}); err != nil {
		t.Fatalf("write state: %v", err)
	}
	if err := fw.WriteEvent(telemetry.CoolingEventRow{Vessel: "v1", EventType: telemetry.CoolingEventCatchup, Value: 24.7, Timestamp: ts}); err != nil {
		t.Fatalf("write event: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, tankPath)
	if len(lines) != 1 {
		t.Fatalf("expected 1 tank line, got %d", len(lines))
	}
	var got telemetry.TankRow
	if err := json.Unmarshal(lines[0], &got); err != nil {
		t.Fatalf("decode tank: %v", err)
	}
	if got.FuelAmount != 975.3 || len(got.Channels) != 1 || got.Channels[0].Fuel != "LqdHydrogen" {
		t.Fatalf("unexpected tank row: %#v", got)
	}

	var st telemetry.VesselStateRow
	if err := json.Unmarshal(readLines(t, statePath)[0], &st); err != nil || st.PowerAmount != 12 {
		t.Fatalf("unexpected state row %+v err=%v", st, err)
	}
	var ev telemetry.CoolingEventRow
	if err := json.Unmarshal(readLines(t, eventPath)[0], &ev); err != nil || ev.EventType != telemetry.CoolingEventCatchup {
		t.Fatalf("unexpected event %+v err=%v", ev, err)
	}
}

func TestFileWriterOptionalLogs(t *testing.T) {
	fw, err := NewFileWriter(filepath.Join(t.TempDir(), "tanks.jsonl"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteState(telemetry.VesselStateRow{}); err != nil {
		t.Fatalf("disabled state log should be a no-op: %v", err)
	}
	if err := fw.WriteEvent(telemetry.CoolingEventRow{}); err != nil {
		t.Fatalf("disabled event log should be a no-op: %v", err)
	}
}
