package boiloff

import "fmt"

// State is the per-tick outcome of the cooling decision.
type State int

const (
	StateInactive State = iota
	StateNoFuel
	StateCooledIdle
	StateCoolingDisabledBoiloff
	StateUncooledBoiloff
	StateZeroCostBoiloff
)

var stateNames = [...]string{
	StateInactive:               "inactive",
	StateNoFuel:                 "no_fuel",
	StateCooledIdle:             "cooled",
	StateCoolingDisabledBoiloff: "cooling_disabled",
	StateUncooledBoiloff:        "uncooled",
	StateZeroCostBoiloff:        "uninsulated",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Boiling reports whether fuel is being lost in this state.
func (s State) Boiling() bool {
	switch s {
	case StateCoolingDisabledBoiloff, StateUncooledBoiloff, StateZeroCostBoiloff:
		return true
	}
	return false
}

// Display strings.
const (
	StatusNoFuel    = "No Fuel"
	StatusInsulated = "Insulated"
	StatusDisabled  = "Disabled"
	StatusUncooled  = "Uncooled!"
	StatusNA        = "N/A"
)

// ChannelStatus is a read-only view of one channel.
type ChannelStatus struct {
	FuelID             string  `json:"fuel"`
	Active             bool    `json:"active"`
	Amount             float64 `json:"amount"`
	MaxAmount          float64 `json:"max_amount"`
	DecayRatePerSecond float64 `json:"decay_rate_per_s"`
	Boiled             float64 `json:"boiled"`
}

// Status is a snapshot of an engine after its last update.
type Status struct {
	Tank           string          `json:"tank"`
	State          State           `json:"state"`
	BoiloffActive  bool            `json:"boiloff_active"`
	BoiloffStatus  string          `json:"boiloff_status"`
	CoolingStatus  string          `json:"cooling_status"`
	CoolingEnabled bool            `json:"cooling_enabled"`
	CoolingCost    float64         `json:"cooling_cost"`
	LossRate       float64         `json:"loss_rate"`
	FuelAmount     float64         `json:"fuel_amount"`
	FuelMax        float64         `json:"fuel_max"`
	Boiled         float64         `json:"boiled"`
	LastUpdateTime float64         `json:"last_update_time"`
	Channels       []ChannelStatus `json:"channels"`
}

// FormatRate renders a loss rate in units per second, switching to minutes
// and then hours while the value stays below 0.01.
func FormatRate(rate float64) string {
	adj := rate
	interval := "s"
	if adj < 0.01 {
		adj *= 60
		interval = "min"
	}
	if adj < 0.01 {
		adj *= 60
		interval = "hr"
	}
	return fmt.Sprintf("Losing %.2f u/%s", adj, interval)
}

func formatCoolingCost(cost float64) string {
	return fmt.Sprintf("Using %.2f Ec/s", cost)
}
