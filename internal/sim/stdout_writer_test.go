package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cryotank-sim/internal/config"
	"cryotank-sim/internal/telemetry"
)

func TestStdoutWriterJSONFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewStdoutWriter(nil, buf, false)
	row := telemetry.TankRow{Vessel: "v1", Tank: "lh2", State: "cooled", Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var got telemetry.TankRow
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if got.Tank != "lh2" || got.State != "cooled" {
		t.Fatalf("unexpected decoded row %+v", got)
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	on := true
	cfg := &config.SimulationConfig{
		Vessel:        "tug",
		TickDurationS: 1,
		TimeWarp:      1,
		Power:         config.PowerConfig{Resource: "ElectricCharge", Capacity: 100, Initial: 50},
		Tanks: []config.TankConfig{{
			Name: "lh2", CoolingCost: 0.09, CoolingEnabled: &on,
			Boiloff: []config.ChannelConfig{{Fuel: "LqdHydrogen", RatePercentPerHour: 2.5}},
		}},
	}
	buf := &bytes.Buffer{}
	w := NewStdoutWriter(cfg, buf, true)
	row := telemetry.TankRow{Vessel: "tug", Tank: "lh2", State: "uncooled", BoiloffStatus: "Losing 0.42 u/min", Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Simulation Configuration:") || !strings.Contains(output, "Tanks:") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, "\x1b[") || !strings.Contains(output, "Losing 0.42 u/min") {
		t.Fatalf("expected colored row in output: %q", output)
	}

	buf.Reset()
	if err := w.Write(row); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Simulation Configuration:") {
		t.Fatalf("overview printed more than once")
	}

	buf.Reset()
	cw := w.(*ColorStdoutWriter)
	if err := cw.WriteEvent(telemetry.CoolingEventRow{EventType: telemetry.CoolingEventDisabled, Tank: "lh2"}); err != nil {
		t.Fatalf("event write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "type=cooling_disabled tank=lh2") {
		t.Fatalf("unexpected event output %q", buf.String())
	}
}
