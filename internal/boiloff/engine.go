// Package boiloff models cryogenic propellant boiloff and active cooling for a
// single storage tank.
//
// An Engine owns one Channel per tracked propellant. The host activates it
// once with Catchup to cover time the vessel was not simulated, then calls
// Step on every fixed tick. Fuel decays exponentially unless the tank can draw
// enough power to cool it for the whole tick.
package boiloff

import (
	"fmt"
	"log/slog"
	"strings"
)

// grantTolerance is the slack allowed when comparing granted power against
// the cooling request.
const grantTolerance = 1e-4

// TankConfig configures an Engine.
type TankConfig struct {
	Name string
	// CoolingCostPer1000 is the power per second needed to cool 1000 units
	// of capacity. Zero means the tank has no cooling hardware.
	CoolingCostPer1000 float64
	CoolingEnabled     bool
	Channels           []ChannelConfig
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for configuration and clock warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPowerResource overrides the resource drawn for cooling.
func WithPowerResource(name string) Option {
	return func(e *Engine) { e.powerResource = name }
}

// WithPowerReserve sets the reserve used by Activate and Tick.
func WithPowerReserve(reserve float64) Option {
	return func(e *Engine) { e.reserve = reserve }
}

// Engine simulates boiloff and cooling for one tank. It is not safe for
// concurrent use; the host serialises calls.
type Engine struct {
	name          string
	host          Host
	log           *slog.Logger
	powerResource string
	reserve       float64

	channels []*Channel
	byFuel   map[string]*Channel

	coolingRate    float64
	coolingCost    float64
	coolingEnabled bool
	lastUpdateTime float64

	boiloffActive bool
	state         State
	boiloffStatus string
	coolingStatus string
	reportedCost  float64
	lossRate      float64

	caughtUp bool
	stepped  bool
}

// New builds an engine from cfg. Channels whose fuel the host does not carry
// are kept but stay inert; duplicate fuel ids after the first are ignored.
func New(cfg TankConfig, host Host, opts ...Option) *Engine {
	e := &Engine{
		name:           cfg.Name,
		host:           host,
		log:            slog.Default(),
		powerResource:  DefaultPowerResource,
		byFuel:         make(map[string]*Channel, len(cfg.Channels)),
		coolingRate:    cfg.CoolingCostPer1000,
		coolingEnabled: cfg.CoolingEnabled,
		boiloffStatus:  StatusNA,
		coolingStatus:  StatusNA,
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With("tank", cfg.Name)

	for _, cc := range cfg.Channels {
		if _, dup := e.byFuel[cc.FuelID]; dup {
			e.log.Warn("duplicate boiloff channel ignored", "fuel", cc.FuelID)
			continue
		}
		ch := newChannel(cc)
		ch.refresh(host)
		if !ch.Active {
			e.log.Warn("fuel not present on tank, channel inert", "fuel", cc.FuelID)
		}
		e.channels = append(e.channels, ch)
		e.byFuel[cc.FuelID] = ch
	}
	if e.coolingRate > 0 {
		e.coolingCost = e.TotalMaxFuelAmount() / 1000 * e.coolingRate
	}
	return e
}

// Name returns the tank name.
func (e *Engine) Name() string { return e.name }

// Channels returns the channels in configuration order.
func (e *Engine) Channels() []*Channel { return e.channels }

// Channel looks up a channel by fuel id.
func (e *Engine) Channel(fuel string) (*Channel, bool) {
	ch, ok := e.byFuel[fuel]
	return ch, ok
}

// TotalFuelAmount sums the cached amount over active channels.
func (e *Engine) TotalFuelAmount() float64 {
	var total float64
	for _, ch := range e.channels {
		if ch.Active {
			total += ch.Amount
		}
	}
	return total
}

// TotalMaxFuelAmount sums the cached capacity over active channels.
func (e *Engine) TotalMaxFuelAmount() float64 {
	var total float64
	for _, ch := range e.channels {
		if ch.Active {
			total += ch.MaxAmount
		}
	}
	return total
}

// TotalDecayRatePerSecond sums the per-second rates of active channels. It
// is for display only; each channel decays at its own rate.
func (e *Engine) TotalDecayRatePerSecond() float64 {
	var total float64
	for _, ch := range e.channels {
		if ch.Active {
			total += ch.DecayRatePerSecond
		}
	}
	return total
}

// CoolingCostPerSecond is the power per second needed to hold the tank
// cooled, fixed at construction from the tank capacity.
func (e *Engine) CoolingCostPerSecond() float64 { return e.coolingCost }

// CoolingCost returns the cooling power demand while cooling is enabled.
func (e *Engine) CoolingCost() float64 {
	if e.coolingEnabled {
		return e.coolingCost
	}
	return 0
}

// CoolingEnabled reports the active cooling toggle.
func (e *Engine) CoolingEnabled() bool { return e.coolingEnabled }

// SetCoolingEnabled switches active cooling on or off. It takes effect on the
// next Step.
func (e *Engine) SetCoolingEnabled(enabled bool) { e.coolingEnabled = enabled }

// ToggleCooling flips active cooling and returns the new setting.
func (e *Engine) ToggleCooling() bool {
	e.coolingEnabled = !e.coolingEnabled
	return e.coolingEnabled
}

// LastUpdateTime is the mission time of the last processed step. Hosts
// persist it across suspension.
func (e *Engine) LastUpdateTime() float64 { return e.lastUpdateTime }

// SetLastUpdateTime restores a persisted LastUpdateTime before activation.
func (e *Engine) SetLastUpdateTime(t float64) { e.lastUpdateTime = t }

// BoiloffActive reports whether the last step lost fuel.
func (e *Engine) BoiloffActive() bool { return e.boiloffActive }

// State returns the outcome of the last step.
func (e *Engine) State() State { return e.state }

// Activate runs the one-off catch-up for the gap between LastUpdateTime and
// the host's mission time. It returns the total quantity boiled off.
func (e *Engine) Activate() float64 {
	now := e.host.MissionTime()
	if now <= 0 {
		e.log.Debug("mission not started, catch-up skipped")
		e.caughtUp = true
		return 0
	}
	current, _, err := e.host.ConnectedPowerTotals()
	if err != nil {
		e.log.Warn("power query failed, catch-up skipped", "err", err)
		e.caughtUp = true
		return 0
	}
	return e.Catchup(now-e.lastUpdateTime, current, e.reserve)
}

// Catchup decays every active channel over elapsed seconds when the tank
// could not have been held cold during the gap. Cooling counts as held when
// the current power, less the reserve, covers one tick of cooling; the gap is
// then assumed fully cooled. This is a coarse approximation of a power budget
// that may have varied over the gap. Catchup runs at most once and never
// after the first Step.
func (e *Engine) Catchup(elapsed, currentPower, minimumPowerReserve float64) float64 {
	if e.caughtUp || e.stepped {
		e.log.Debug("catch-up already applied")
		return 0
	}
	e.caughtUp = true
	if !validDuration(elapsed) {
		e.log.Warn("invalid catch-up interval, skipped", "elapsed", elapsed)
		return 0
	}
	e.refresh()
	if e.TotalFuelAmount() == 0 {
		return 0
	}
	if e.coolingCost > 0 && e.coolingEnabled &&
		currentPower-minimumPowerReserve >= e.coolingCost*e.host.TickDuration() {
		e.log.Debug("tank held cold during gap", "elapsed", elapsed)
		return 0
	}

	var total float64
	for _, ch := range e.channels {
		if ch.Active {
			total += e.drain(ch, elapsed)
		}
	}
	e.log.Info("catch-up boiloff applied", "elapsed", elapsed, "boiled", total)
	return total
}

// Tick queries the host for the tick duration and power, then runs Step
// with the configured reserve. A failed power query only skips the tick when
// the tank would have to draw power to stay cold.
func (e *Engine) Tick() {
	current, _, err := e.host.ConnectedPowerTotals()
	if err != nil && e.coolingCost > 0 && e.coolingEnabled {
		e.stepped = true
		if !e.begin() {
			return
		}
		e.log.Warn("power query failed, tick skipped", "err", err)
		e.idle()
		e.touch()
		return
	}
	e.Step(e.host.TickDuration(), current, e.reserve)
}

// Step advances the tank by one fixed tick.
func (e *Engine) Step(tickDuration, currentPower, minimumPowerReserve float64) {
	e.stepped = true
	if !e.begin() {
		return
	}
	if !validDuration(tickDuration) {
		e.log.Warn("invalid tick duration, no decay applied", "tick", tickDuration)
		e.idle()
		e.touch()
		return
	}

	switch {
	case e.coolingCost == 0:
		e.boil(StateZeroCostBoiloff, StatusNA)
	case !e.coolingEnabled:
		e.boil(StateCoolingDisabledBoiloff, StatusDisabled)
	default:
		request := e.coolingCost * tickDuration
		drawn := currentPower-request >= minimumPowerReserve
		var granted float64
		if drawn {
			granted = e.host.RequestResource(e.powerResource, request, FlowDefault)
		}
		if drawn && granted >= request-grantTolerance {
			e.setState(StateCooledIdle, StatusInsulated, formatCoolingCost(e.coolingCost))
			e.boiloffActive = false
			e.reportedCost = e.coolingCost
			e.lossRate = 0
		} else {
			e.boil(StateUncooledBoiloff, StatusUncooled)
		}
	}

	if e.boiloffActive {
		for _, ch := range e.channels {
			if ch.Active {
				e.drain(ch, tickDuration)
			}
		}
	}
	e.touch()
}

// begin refreshes the channels and handles the empty tank. It reports
// whether the step should continue.
func (e *Engine) begin() bool {
	e.refresh()
	for _, ch := range e.channels {
		ch.LastBoiled = 0
	}
	if e.TotalFuelAmount() == 0 {
		e.setState(StateNoFuel, StatusNoFuel, StatusNoFuel)
		e.boiloffActive = false
		e.reportedCost = 0
		e.lossRate = 0
		return false
	}
	return true
}

// idle marks a tick that was not evaluated: nothing boiled and no power was
// drawn.
func (e *Engine) idle() {
	e.setState(StateInactive, StatusNA, StatusNA)
	e.boiloffActive = false
	e.reportedCost = 0
	e.lossRate = 0
}

func (e *Engine) boil(s State, coolingStatus string) {
	e.boiloffActive = true
	e.reportedCost = 0
	e.lossRate = 0
	for _, ch := range e.channels {
		if ch.Active {
			e.lossRate += ch.DecayRatePerSecond * ch.Amount
		}
	}
	e.setState(s, FormatRate(e.lossRate), coolingStatus)
}

func (e *Engine) setState(s State, boiloffStatus, coolingStatus string) {
	e.state = s
	e.boiloffStatus = boiloffStatus
	e.coolingStatus = coolingStatus
}

// drain removes the fuel lost over seconds from ch and deposits byproducts
// in proportion to the quantity the host actually granted.
func (e *Engine) drain(ch *Channel, seconds float64) float64 {
	want := Boiled(ch.Amount, ch.DecayRatePerSecond, seconds)
	if want <= 0 {
		return 0
	}
	if want > ch.Amount {
		want = ch.Amount
	}
	got := e.host.RequestResource(ch.FuelID, want, FlowNoFlow)
	if got <= 0 {
		return 0
	}
	if got > ch.Amount {
		got = ch.Amount
	}
	ch.Amount -= got
	ch.LastBoiled += got
	for _, out := range ch.Outputs {
		if out.Ratio == 0 {
			continue
		}
		e.host.RequestResource(out.Resource, -out.Ratio*got, out.Flow)
	}
	return got
}

func (e *Engine) refresh() {
	for _, ch := range e.channels {
		ch.refresh(e.host)
	}
}

func (e *Engine) touch() {
	if t := e.host.MissionTime(); t > 0 {
		e.lastUpdateTime = t
	}
}

// Status returns a snapshot of the engine after its last update.
func (e *Engine) Status() Status {
	st := Status{
		Tank:           e.name,
		State:          e.state,
		BoiloffActive:  e.boiloffActive,
		BoiloffStatus:  e.boiloffStatus,
		CoolingStatus:  e.coolingStatus,
		CoolingEnabled: e.coolingEnabled,
		CoolingCost:    e.reportedCost,
		LossRate:       e.lossRate,
		FuelAmount:     e.TotalFuelAmount(),
		FuelMax:        e.TotalMaxFuelAmount(),
		LastUpdateTime: e.lastUpdateTime,
		Channels:       make([]ChannelStatus, 0, len(e.channels)),
	}
	for _, ch := range e.channels {
		st.Boiled += ch.LastBoiled
		st.Channels = append(st.Channels, ChannelStatus{
			FuelID:             ch.FuelID,
			Active:             ch.Active,
			Amount:             ch.Amount,
			MaxAmount:          ch.MaxAmount,
			DecayRatePerSecond: ch.DecayRatePerSecond,
			Boiled:             ch.LastBoiled,
		})
	}
	return st
}

// Info describes the tank for an editor panel: the loss rate of every
// channel and, with cooling hardware, the cooling cost at capacity.
func (e *Engine) Info() string {
	var b strings.Builder
	for _, ch := range e.channels {
		fmt.Fprintf(&b, "Loss Rate: %.2f%% %s/hr\n", ch.PercentPerHour, ch.FuelID)
	}
	if e.coolingRate > 0 {
		fmt.Fprintf(&b, "Cooling Cost: %.2f Ec/s\n", e.coolingCost)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
