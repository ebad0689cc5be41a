package scenario

import "testing"

func TestScenarioTransition(t *testing.T) {
	s := Scenario{
		Phases: []Phase{{
			Name:     "sunlit",
			Triggers: []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "shadow"}},
		}, {
			Name:     "shadow",
			Triggers: []Trigger{{Event: EventPowerBelow, Value: 0.2, Next: "shed"}},
		}, {
			Name: "shed",
		}},
	}

	if _, ok := s.NextPhase("sunlit", Event{Type: EventTimeElapsed, Value: 9.5}); ok {
		t.Fatal("transition fired early")
	}
	next, ok := s.NextPhase("sunlit", Event{Type: EventTimeElapsed, Value: 10})
	if !ok || next != "shadow" {
		t.Fatalf("expected transition to shadow, got %s", next)
	}
	if _, ok := s.NextPhase("shadow", Event{Type: EventPowerBelow, Value: 0.5}); ok {
		t.Fatal("power_below fired above threshold")
	}
	if next, ok := s.NextPhase("shadow", Event{Type: EventPowerBelow, Value: 0.2}); !ok || next != "shed" {
		t.Fatalf("expected transition to shed, got %s", next)
	}
	if _, ok := s.NextPhase("missing", Event{Type: EventTimeElapsed, Value: 100}); ok {
		t.Fatal("unknown phase should not transition")
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(sc.Phases))
	}
	if g := sc.Phases[0].GenerationRate; g == nil || *g != 12.5 {
		t.Fatalf("unexpected generation rate %v", g)
	}
	drain := sc.Phases[1]
	if on, ok := drain.CoolingFor("lh2-main"); !ok || on {
		t.Fatalf("expected explicit cooling off for lh2-main")
	}
	if on, ok := drain.CoolingFor("other"); !ok || !on {
		t.Fatalf("expected wildcard cooling on")
	}
	if _, ok := sc.Phases[0].CoolingFor("lh2-main"); ok {
		t.Fatalf("charge phase has no cooling override")
	}
}

func TestLoadScenarioMissing(t *testing.T) {
	if _, err := Load("testdata/nope.yaml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolve(t *testing.T) {
	sc, err := Resolve("eclipse")
	if err != nil || sc.Name != "Eclipse" {
		t.Fatalf("resolve builtin: %v %+v", err, sc)
	}
	sc, err = Resolve("testdata/simple.yaml")
	if err != nil || sc.Name != "example" {
		t.Fatalf("resolve file: %v", err)
	}
	if sc.Start().Name != "charge" {
		t.Fatalf("unexpected start phase %s", sc.Start().Name)
	}
}

func TestBuiltInProfiles(t *testing.T) {
	profiles := BuiltIn()
	for _, n := range []string{"steady", "eclipse", "brownout"} {
		p, ok := profiles[n]
		if !ok {
			t.Fatalf("profile %s not found", n)
		}
		if p.Description == "" || len(p.Phases) == 0 {
			t.Fatalf("profile %s incomplete", n)
		}
		for _, ph := range p.Phases {
			for _, tr := range ph.Triggers {
				if _, ok := p.Phase(tr.Next); !ok {
					t.Fatalf("profile %s phase %s points at unknown %s", n, ph.Name, tr.Next)
				}
			}
		}
	}
	brownout := profiles["brownout"]
	shed, ok := brownout.Phase("load-shed")
	if !ok {
		t.Fatal("brownout has no load-shed phase")
	}
	if on, ok := shed.CoolingFor("any"); !ok || on {
		t.Fatal("load-shed should disable cooling everywhere")
	}
}
