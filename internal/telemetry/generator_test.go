package telemetry

import (
	"testing"
	"time"

	"cryotank-sim/internal/boiloff"
)

func testGenerator() *Generator {
	g := NewGenerator("run-1", "tug")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g.now = func() time.Time { return fixed }
	return g
}

func TestGenerateTankRow(t *testing.T) {
	g := testGenerator()
	st := boiloff.Status{
		Tank:           "lh2",
		State:          boiloff.StateUncooledBoiloff,
		BoiloffStatus:  "Losing 0.42 u/min",
		CoolingStatus:  boiloff.StatusUncooled,
		CoolingEnabled: true,
		LossRate:       0.007,
		FuelAmount:     999,
		FuelMax:        1000,
		Boiled:         0.007,
		Channels: []boiloff.ChannelStatus{
			{FuelID: "LqdHydrogen", Active: true, Amount: 999, MaxAmount: 1000, DecayRatePerSecond: 7e-6, Boiled: 0.007},
		},
	}

	row := g.TankRow(st, "shadow", Power{Amount: 10, Max: 100}, 42)

	if row.RunID != "run-1" || row.Vessel != "tug" || row.Tank != "lh2" {
		t.Errorf("unexpected identity %+v", row)
	}
	if row.State != "uncooled" || row.Phase != "shadow" {
		t.Errorf("unexpected state/phase %s/%s", row.State, row.Phase)
	}
	if row.PowerAmount != 10 || row.PowerMax != 100 || row.MissionTime != 42 {
		t.Errorf("unexpected power/time %+v", row)
	}
	if len(row.Channels) != 1 || row.Channels[0].Fuel != "LqdHydrogen" || row.Channels[0].Max != 1000 {
		t.Errorf("unexpected channels %+v", row.Channels)
	}
	if !row.Boiling() {
		t.Errorf("row should report boiling")
	}
	if row.Timestamp.Year() != 2026 {
		t.Errorf("timestamp not from generator clock: %v", row.Timestamp)
	}
}

func TestGenerateStateRow(t *testing.T) {
	g := testGenerator()
	rows := []TankRow{
		{Tank: "a", CoolingCost: 1.5},
		{Tank: "b", Boiled: 0.2},
		{Tank: "c", CoolingCost: 0.5},
	}
	st := g.StateRow("sunlit", Power{Amount: 25, Max: 100}, 3, 60, 10, rows)
	if st.CoolingDraw != 2 || st.BoilingTanks != 1 {
		t.Fatalf("unexpected aggregates %+v", st)
	}
	if st.PowerFraction() != 0.25 {
		t.Fatalf("power fraction %v", st.PowerFraction())
	}
	if (VesselStateRow{}).PowerFraction() != 0 {
		t.Fatalf("zero capacity should report 0")
	}
}

func TestGenerateEvent(t *testing.T) {
	ev := testGenerator().Event("lh2", CoolingEventDisabled, "admin", 0)
	if ev.EventType != CoolingEventDisabled || ev.Tank != "lh2" || ev.RunID != "run-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestTableNames(t *testing.T) {
	if (TankRow{}).TableName() != TankTableName {
		t.Fatal("table name mismatch")
	}
	if ChannelTableName != TankTableName+"_channels" {
		t.Fatalf("channel table %s", ChannelTableName)
	}
}
