package boiloff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrResourceAbsent is returned by hosts when the queried resource is not
// stored on the part.
var ErrResourceAbsent = errors.New("resource absent")

// DefaultPowerResource is the resource drawn for active cooling.
const DefaultPowerResource = "ElectricCharge"

// Host is the collaborator an Engine runs against. Every call is expected to
// be synchronous and non-blocking.
type Host interface {
	// ResourceAmount reports the current and maximum quantity of a resource
	// stored on the part. It fails with ErrResourceAbsent when the part does
	// not carry the resource.
	ResourceAmount(resource string) (amount, max float64, err error)
	// RequestResource withdraws (positive amount) or deposits (negative
	// amount) a resource and returns the quantity actually transacted.
	RequestResource(resource string, amount float64, flow FlowPolicy) float64
	// ConnectedPowerTotals reports the power available across the connected
	// network.
	ConnectedPowerTotals() (current, max float64, err error)
	// MissionTime is the elapsed simulation time; 0 before the simulation starts.
	MissionTime() float64
	// TickDuration is the length of the current fixed step in seconds.
	TickDuration() float64
}

// FlowPolicy selects how the host sources or distributes a resource
// transaction across the vessel.
type FlowPolicy int

const (
	FlowDefault FlowPolicy = iota
	FlowNoFlow
	FlowAllVessel
	FlowStackPriority
)

var flowNames = map[FlowPolicy]string{
	FlowDefault:       "DEFAULT",
	FlowNoFlow:        "NO_FLOW",
	FlowAllVessel:     "ALL_VESSEL",
	FlowStackPriority: "STACK_PRIORITY",
}

func (f FlowPolicy) String() string {
	if s, ok := flowNames[f]; ok {
		return s
	}
	return fmt.Sprintf("FlowPolicy(%d)", int(f))
}

// ParseFlowPolicy maps a configuration name onto a FlowPolicy. An empty name
// selects FlowDefault.
func ParseFlowPolicy(s string) (FlowPolicy, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return FlowDefault, nil
	}
	for f, n := range flowNames {
		if n == name {
			return f, nil
		}
	}
	return FlowDefault, fmt.Errorf("unknown flow policy %q", s)
}
