package host

import (
	"errors"
	"math"
	"testing"

	"cryotank-sim/internal/boiloff"
)

func testVessel() (*Vessel, *Part, *Part) {
	clock := NewMissionClock(1, 1)
	v := NewVessel("v1", "", clock)
	tank := v.AddPart(NewPart("tank").AddResource("LqdHydrogen", 100, 100).AddResource("ElectricCharge", 10, 50))
	bus := v.AddPart(NewPart("bus").AddResource("ElectricCharge", 30, 50))
	return v, tank, bus
}

func TestRequestNoFlow(t *testing.T) {
	v, tank, bus := testVessel()
	if got := v.Request(tank, "ElectricCharge", 20, boiloff.FlowNoFlow); got != 10 {
		t.Fatalf("no-flow withdraw granted %v, want 10", got)
	}
	ec, _ := bus.Resource("ElectricCharge")
	if ec.Amount != 30 {
		t.Fatalf("no-flow touched another part: %v", ec.Amount)
	}
	if got := v.Request(bus, "LqdHydrogen", 5, boiloff.FlowNoFlow); got != 0 {
		t.Fatalf("part without the resource granted %v", got)
	}
}

func TestRequestAllVesselProportional(t *testing.T) {
	v, tank, bus := testVessel()
	got := v.Request(tank, "ElectricCharge", 20, boiloff.FlowAllVessel)
	if math.Abs(got-20) > 1e-9 {
		t.Fatalf("granted %v, want 20", got)
	}
	a, _ := tank.Resource("ElectricCharge")
	b, _ := bus.Resource("ElectricCharge")
	if math.Abs(a.Amount-5) > 1e-9 || math.Abs(b.Amount-15) > 1e-9 {
		t.Fatalf("unexpected split: tank=%v bus=%v", a.Amount, b.Amount)
	}
}

func TestRequestPartialGrant(t *testing.T) {
	v, tank, _ := testVessel()
	if got := v.Request(tank, "ElectricCharge", 100, boiloff.FlowDefault); math.Abs(got-40) > 1e-9 {
		t.Fatalf("granted %v, want 40", got)
	}
	if cur, _ := v.Totals("ElectricCharge"); cur > 1e-9 {
		t.Fatalf("expected network drained, got %v", cur)
	}
}

func TestRequestDepositAndStackPriority(t *testing.T) {
	v, tank, bus := testVessel()
	got := v.Request(tank, "ElectricCharge", -50, boiloff.FlowStackPriority)
	if got != -50 {
		t.Fatalf("deposit transacted %v, want -50", got)
	}
	a, _ := tank.Resource("ElectricCharge")
	b, _ := bus.Resource("ElectricCharge")
	if a.Amount != 50 || b.Amount != 40 {
		t.Fatalf("stack fill order wrong: tank=%v bus=%v", a.Amount, b.Amount)
	}
	if got := v.Request(tank, "Hydrogen", -5, boiloff.FlowAllVessel); got != 0 {
		t.Fatalf("deposit without storage transacted %v", got)
	}
}

func TestGenerate(t *testing.T) {
	v, _, _ := testVessel()
	v.SetGeneration(10)
	if got := v.Generate(3); math.Abs(got-30) > 1e-9 {
		t.Fatalf("generated %v, want 30", got)
	}
	if got := v.Generate(100); math.Abs(got-30) > 1e-9 {
		t.Fatalf("generation should cap at capacity, stored %v", got)
	}
}

func TestPartView(t *testing.T) {
	v, tank, _ := testVessel()
	view := v.View(tank)
	if _, _, err := view.ResourceAmount("LqdMethane"); !errors.Is(err, boiloff.ErrResourceAbsent) {
		t.Fatalf("expected ErrResourceAbsent, got %v", err)
	}
	amt, max, err := view.ResourceAmount("LqdHydrogen")
	if err != nil || amt != 100 || max != 100 {
		t.Fatalf("ResourceAmount=%v,%v,%v", amt, max, err)
	}
	cur, pmax, err := view.ConnectedPowerTotals()
	if err != nil || cur != 40 || pmax != 100 {
		t.Fatalf("power totals %v/%v err=%v", cur, pmax, err)
	}
	v.Clock().Advance()
	if view.MissionTime() != 1 || view.TickDuration() != 1 {
		t.Fatalf("clock not visible through view")
	}
}

func TestMissionClock(t *testing.T) {
	c := NewMissionClock(0.5, 0)
	if c.Warp() != 1 {
		t.Fatalf("warp below 1 should default to 1")
	}
	c.SetWarp(10)
	if dt := c.Advance(); dt != 5 || c.MissionTime() != 5 {
		t.Fatalf("advance dt=%v mission=%v", dt, c.MissionTime())
	}
	c.Skip(100)
	c.Skip(-3)
	if c.MissionTime() != 105 {
		t.Fatalf("mission time %v, want 105", c.MissionTime())
	}
}

func TestEngineOnVessel(t *testing.T) {
	v, tank, _ := testVessel()
	cfg := boiloff.TankConfig{
		Name:               "tank",
		CoolingCostPer1000: 50,
		CoolingEnabled:     true,
		Channels:           []boiloff.ChannelConfig{{FuelID: "LqdHydrogen", PercentPerHour: 2.5}},
	}
	e := boiloff.New(cfg, v.View(tank))
	v.Clock().Advance()
	e.Tick()
	if e.State() != boiloff.StateCooledIdle {
		t.Fatalf("state %v, want cooled", e.State())
	}
	if cur, _ := v.Totals("ElectricCharge"); math.Abs(cur-35) > 1e-9 {
		t.Fatalf("power after cooling %v, want 35", cur)
	}
}
