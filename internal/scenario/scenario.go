package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Trigger event types.
const (
	EventTimeElapsed = "time_elapsed"
	EventPowerBelow  = "power_below"
	EventFuelBelow   = "fuel_below"
)

// AllTanks is the cooling override key that applies to every tank.
const AllTanks = "*"

// Scenario defines a power profile with ordered phases and an overall description.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase describes a stage of the profile. GenerationRate replaces the vessel
// generation when set; Cooling switches tank cooling on entry, keyed by tank
// name or AllTanks.
type Phase struct {
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description,omitempty"`
	GenerationRate *float64        `yaml:"generation_rate,omitempty"`
	Cooling        map[string]bool `yaml:"cooling,omitempty"`
	Triggers       []Trigger       `yaml:"triggers,omitempty"`
}

// Trigger moves the scenario to another phase based on an event.
type Trigger struct {
	Event string  `yaml:"event"`
	Value float64 `yaml:"value"`
	Next  string  `yaml:"next"`
}

// Event represents a runtime observation that may advance the scenario.
// time_elapsed carries seconds spent in the current phase; power_below and
// fuel_below carry a fill fraction in [0,1].
type Event struct {
	Type  string
	Value float64
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Phases) == 0 {
		return nil, fmt.Errorf("parse scenario: %s has no phases", path)
	}
	return &s, nil
}

// Resolve returns the builtin profile called name, or loads name as a file.
func Resolve(name string) (*Scenario, error) {
	if s, ok := BuiltIn()[name]; ok {
		return &s, nil
	}
	return Load(name)
}

// Phase returns the phase called name.
func (s *Scenario) Phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// Start returns the first phase.
func (s *Scenario) Start() Phase {
	if len(s.Phases) == 0 {
		return Phase{}
	}
	return s.Phases[0]
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	p, found := s.Phase(current)
	if !found {
		return "", false
	}
	for _, tr := range p.Triggers {
		if tr.Event == ev.Type && tr.matches(ev.Value) {
			return tr.Next, true
		}
	}
	return "", false
}

func (tr Trigger) matches(v float64) bool {
	switch tr.Event {
	case EventPowerBelow, EventFuelBelow:
		return v <= tr.Value
	default:
		return v >= tr.Value
	}
}

// CoolingFor reports the cooling override for tank, if the phase sets one.
func (p Phase) CoolingFor(tank string) (enabled, ok bool) {
	if enabled, ok = p.Cooling[tank]; ok {
		return enabled, true
	}
	enabled, ok = p.Cooling[AllTanks]
	return enabled, ok
}
