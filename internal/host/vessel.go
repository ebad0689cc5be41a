// Package host provides an in-memory vessel that satisfies boiloff.Host:
// parts carrying resource pools, a shared power network, and a fixed-step
// mission clock.
package host

import (
	"errors"
	"fmt"
	"math"

	"cryotank-sim/internal/boiloff"
)

// ErrUnknownPart is returned when a part name is not on the vessel.
var ErrUnknownPart = errors.New("unknown part")

// Pool is a quantity of one resource held by a part.
type Pool struct {
	Resource string  `json:"resource"`
	Amount   float64 `json:"amount"`
	Max      float64 `json:"max"`
}

func (p *Pool) space() float64 { return math.Max(0, p.Max-p.Amount) }

// Part holds resource pools in declaration order.
type Part struct {
	Name  string
	pools []*Pool
}

// NewPart creates an empty part.
func NewPart(name string) *Part {
	return &Part{Name: name}
}

// AddResource adds a pool, or resets an existing one. Amount is clamped to
// [0, max].
func (p *Part) AddResource(resource string, amount, max float64) *Part {
	max = math.Max(0, max)
	amount = math.Min(math.Max(0, amount), max)
	if pl, ok := p.Resource(resource); ok {
		pl.Amount, pl.Max = amount, max
		return p
	}
	p.pools = append(p.pools, &Pool{Resource: resource, Amount: amount, Max: max})
	return p
}

// Resource returns the part's pool for resource.
func (p *Part) Resource(resource string) (*Pool, bool) {
	for _, pl := range p.pools {
		if pl.Resource == resource {
			return pl, true
		}
	}
	return nil, false
}

// Pools returns the part's pools in declaration order.
func (p *Part) Pools() []*Pool { return p.pools }

// Vessel is a set of parts sharing a resource network.
type Vessel struct {
	Name       string
	power      string
	generation float64
	clock      *MissionClock
	parts      []*Part
}

// NewVessel creates a vessel whose power network carries powerResource.
func NewVessel(name, powerResource string, clock *MissionClock) *Vessel {
	if powerResource == "" {
		powerResource = boiloff.DefaultPowerResource
	}
	return &Vessel{Name: name, power: powerResource, clock: clock}
}

// AddPart attaches a part to the vessel.
func (v *Vessel) AddPart(p *Part) *Part {
	v.parts = append(v.parts, p)
	return p
}

// Part finds a part by name.
func (v *Vessel) Part(name string) (*Part, error) {
	for _, p := range v.parts {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPart, name)
}

// Parts returns the vessel's parts in attach order.
func (v *Vessel) Parts() []*Part { return v.parts }

// Clock returns the vessel's mission clock.
func (v *Vessel) Clock() *MissionClock { return v.clock }

// PowerResource names the resource carried by the power network.
func (v *Vessel) PowerResource() string { return v.power }

// SetGeneration sets the power produced per second of mission time.
func (v *Vessel) SetGeneration(perSecond float64) { v.generation = math.Max(0, perSecond) }

// Generation returns the power produced per second of mission time.
func (v *Vessel) Generation() float64 { return v.generation }

// Generate charges the power network for seconds of generation and returns
// the quantity stored.
func (v *Vessel) Generate(seconds float64) float64 {
	if seconds <= 0 || v.generation <= 0 {
		return 0
	}
	return -v.Request(nil, v.power, -v.generation*seconds, boiloff.FlowAllVessel)
}

// Totals sums the amount and capacity of a resource across all parts.
func (v *Vessel) Totals(resource string) (amount, max float64) {
	for _, p := range v.parts {
		if pl, ok := p.Resource(resource); ok {
			amount += pl.Amount
			max += pl.Max
		}
	}
	return amount, max
}

// Request withdraws (positive amount) or deposits (negative amount) a
// resource on behalf of part and returns the signed quantity transacted.
// NO_FLOW restricts the transaction to the part's own pool, STACK_PRIORITY
// drains or fills the part first and then the other parts in attach order,
// and ALL_VESSEL (the default) spreads it across every pool in proportion to
// what each can give or take.
func (v *Vessel) Request(from *Part, resource string, amount float64, flow boiloff.FlowPolicy) float64 {
	if amount == 0 || math.IsNaN(amount) {
		return 0
	}
	pools := v.candidates(from, resource, flow)
	if len(pools) == 0 {
		return 0
	}
	withdraw := amount > 0
	want := math.Abs(amount)

	if flow == boiloff.FlowNoFlow || flow == boiloff.FlowStackPriority {
		var moved float64
		for _, pl := range pools {
			if moved >= want {
				break
			}
			moved += transfer(pl, want-moved, withdraw)
		}
		return signed(moved, withdraw)
	}

	var avail float64
	for _, pl := range pools {
		avail += capacity(pl, withdraw)
	}
	if avail <= 0 {
		return 0
	}
	take := math.Min(want, avail)
	var moved float64
	for _, pl := range pools {
		share := take * capacity(pl, withdraw) / avail
		moved += transfer(pl, share, withdraw)
	}
	return signed(moved, withdraw)
}

func (v *Vessel) candidates(from *Part, resource string, flow boiloff.FlowPolicy) []*Pool {
	if flow == boiloff.FlowNoFlow {
		if from == nil {
			return nil
		}
		if pl, ok := from.Resource(resource); ok {
			return []*Pool{pl}
		}
		return nil
	}
	var pools []*Pool
	if flow == boiloff.FlowStackPriority && from != nil {
		if pl, ok := from.Resource(resource); ok {
			pools = append(pools, pl)
		}
	}
	for _, p := range v.parts {
		if flow == boiloff.FlowStackPriority && p == from {
			continue
		}
		if pl, ok := p.Resource(resource); ok {
			pools = append(pools, pl)
		}
	}
	return pools
}

func capacity(pl *Pool, withdraw bool) float64 {
	if withdraw {
		return pl.Amount
	}
	return pl.space()
}

func transfer(pl *Pool, qty float64, withdraw bool) float64 {
	qty = math.Min(qty, capacity(pl, withdraw))
	if qty <= 0 {
		return 0
	}
	if withdraw {
		pl.Amount -= qty
	} else {
		pl.Amount += qty
	}
	return qty
}

func signed(qty float64, withdraw bool) float64 {
	if withdraw {
		return qty
	}
	return -qty
}

// View returns the boiloff.Host seen by an engine mounted on part.
func (v *Vessel) View(part *Part) *PartView {
	return &PartView{vessel: v, part: part}
}

// PartView adapts a vessel part to boiloff.Host.
type PartView struct {
	vessel *Vessel
	part   *Part
}

var _ boiloff.Host = (*PartView)(nil)

func (pv *PartView) ResourceAmount(resource string) (float64, float64, error) {
	pl, ok := pv.part.Resource(resource)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s on %s", boiloff.ErrResourceAbsent, resource, pv.part.Name)
	}
	return pl.Amount, pl.Max, nil
}

func (pv *PartView) RequestResource(resource string, amount float64, flow boiloff.FlowPolicy) float64 {
	return pv.vessel.Request(pv.part, resource, amount, flow)
}

func (pv *PartView) ConnectedPowerTotals() (float64, float64, error) {
	current, max := pv.vessel.Totals(pv.vessel.power)
	return current, max, nil
}

func (pv *PartView) MissionTime() float64 {
	if pv.vessel.clock == nil {
		return 0
	}
	return pv.vessel.clock.MissionTime()
}

func (pv *PartView) TickDuration() float64 {
	if pv.vessel.clock == nil {
		return 0
	}
	return pv.vessel.clock.TickDuration()
}
