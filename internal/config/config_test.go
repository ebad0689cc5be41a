package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cryotank-sim/internal/boiloff"
)

const schemaPath = "../../schemas/simulation.cue"

const validYAML = `
vessel: tug
power:
  capacity: 500
  initial: 800
tanks:
  - name: lh2
    cooling_cost: 0.09
    resources:
      - name: LqdHydrogen
        amount: 1000
    boiloff:
      - fuel: LqdHydrogen
        rate_percent_per_hour: 2.5
        outputs:
          - resource: Hydrogen
            ratio: 0.5
            flow: all_vessel
`

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML), schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Tanks) != 1 || cfg.Tanks[0].Name != "lh2" {
		t.Fatalf("unexpected tanks: %+v", cfg.Tanks)
	}
	if cfg.TickDurationS != 1 || cfg.TimeWarp != 1 {
		t.Errorf("defaults not applied: tick=%v warp=%v", cfg.TickDurationS, cfg.TimeWarp)
	}
	if cfg.Power.Resource != boiloff.DefaultPowerResource || cfg.Power.Initial != 500 {
		t.Errorf("power defaults wrong: %+v", cfg.Power)
	}
	if cfg.Tanks[0].CoolingEnabled == nil || !*cfg.Tanks[0].CoolingEnabled {
		t.Errorf("cooling should default to enabled")
	}
	if cfg.Tanks[0].Resources[0].Max != 1000 {
		t.Errorf("max should default to amount, got %v", cfg.Tanks[0].Resources[0].Max)
	}
}

func TestLoadConfig_SchemaRejectsNegativeRate(t *testing.T) {
	body := `
power:
  capacity: 10
tanks:
  - name: lh2
    resources: []
    boiloff:
      - fuel: LqdHydrogen
        rate_percent_per_hour: -1
`
	if _, err := Load(writeTemp(t, body), schemaPath); err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestLoadConfig_SchemaRejectsUnknownField(t *testing.T) {
	body := `
power:
  capacity: 10
pumps: 3
tanks:
  - name: lh2
    resources: []
`
	if _, err := Load(writeTemp(t, body), schemaPath); err == nil {
		t.Fatal("expected closed schema to reject unknown field")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"no tanks", "power: {capacity: 1}\n", ErrNoTanks},
		{"duplicate tank", `
tanks:
  - name: a
  - name: a
`, ErrDuplicateTank},
		{"duplicate fuel", `
tanks:
  - name: a
    boiloff:
      - fuel: LqdHydrogen
        rate_percent_per_hour: 1
      - fuel: LqdHydrogen
        rate_percent_per_hour: 2
`, ErrDuplicateFuel},
		{"unknown flow", `
tanks:
  - name: a
    boiloff:
      - fuel: LqdHydrogen
        rate_percent_per_hour: 1
        outputs:
          - resource: Hydrogen
            ratio: 1
            flow: sideways
`, ErrUnknownFlow},
		{"negative cost", `
tanks:
  - name: a
    cooling_cost: -2
`, ErrInvalidValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParse_UnknownFuelIsAllowed(t *testing.T) {
	body := `
tanks:
  - name: a
    resources:
      - name: Oxidizer
        amount: 10
    boiloff:
      - fuel: LqdMethane
        rate_percent_per_hour: 1
`
	if _, err := Parse([]byte(body)); err != nil {
		t.Fatalf("fuel absent from resources should not fail: %v", err)
	}
}

func TestEngineConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ec := cfg.Tanks[0].EngineConfig()
	if ec.Name != "lh2" || ec.CoolingCostPer1000 != 0.09 || !ec.CoolingEnabled {
		t.Fatalf("unexpected engine config %+v", ec)
	}
	if len(ec.Channels) != 1 || ec.Channels[0].FuelID != "LqdHydrogen" || ec.Channels[0].PercentPerHour != 2.5 {
		t.Fatalf("unexpected channels %+v", ec.Channels)
	}
	out := ec.Channels[0].Outputs
	if len(out) != 1 || out[0].Flow != boiloff.FlowAllVessel || out[0].Ratio != 0.5 {
		t.Fatalf("unexpected outputs %+v", out)
	}

	off := false
	cfg.Tanks[0].CoolingEnabled = &off
	if cfg.Tanks[0].EngineConfig().CoolingEnabled {
		t.Fatal("disabled cooling not carried over")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load("../../config/simulation.yaml", schemaPath)
	if err != nil {
		t.Fatalf("sample config: %v", err)
	}
	if len(cfg.Tanks) != 3 {
		t.Fatalf("expected 3 tanks, got %d", len(cfg.Tanks))
	}
}
