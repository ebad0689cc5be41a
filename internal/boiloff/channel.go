package boiloff

import "math"

// Output is a byproduct generated in proportion to the fuel boiled off.
type Output struct {
	Resource string
	Ratio    float64
	Flow     FlowPolicy
}

// ChannelConfig describes one tracked propellant.
type ChannelConfig struct {
	FuelID         string
	PercentPerHour float64
	Outputs        []Output
}

// Channel is the runtime state of one tracked propellant. Amount and
// MaxAmount are cached from the host on every refresh.
type Channel struct {
	FuelID             string
	PercentPerHour     float64
	DecayRatePerSecond float64
	Outputs            []Output

	Active     bool
	Amount     float64
	MaxAmount  float64
	LastBoiled float64
}

func newChannel(cfg ChannelConfig) *Channel {
	outputs := make([]Output, len(cfg.Outputs))
	copy(outputs, cfg.Outputs)
	return &Channel{
		FuelID:             cfg.FuelID,
		PercentPerHour:     cfg.PercentPerHour,
		DecayRatePerSecond: RatePerSecond(cfg.PercentPerHour),
		Outputs:            outputs,
	}
}

// refresh re-reads the channel's quantities from the host. A resource that
// has gone missing reads as empty and the channel goes inert.
func (c *Channel) refresh(h Host) {
	amount, capacity, err := h.ResourceAmount(c.FuelID)
	if err != nil {
		c.Active, c.Amount, c.MaxAmount = false, 0, 0
		return
	}
	c.Active = true
	c.MaxAmount = math.Max(0, capacity)
	c.Amount = math.Min(math.Max(0, amount), c.MaxAmount)
}

// RatePerSecond converts a percent-per-hour boiloff rate into the fraction of
// the remaining quantity lost per second, clamped to [0, 1).
func RatePerSecond(percentPerHour float64) float64 {
	r := percentPerHour / 100 / 3600
	if r <= 0 || math.IsNaN(r) {
		return 0
	}
	return math.Min(r, math.Nextafter(1, 0))
}

// Decay returns what remains of amount after seconds of exponential decay at
// rate per second: max(0, amount*(1-rate)^seconds).
func Decay(amount, rate, seconds float64) float64 {
	if amount <= 0 {
		return 0
	}
	if !validDuration(seconds) || rate <= 0 {
		return amount
	}
	if rate >= 1 {
		return 0
	}
	return math.Max(0, amount*math.Pow(1-rate, seconds))
}

// Boiled is the quantity lost from amount over seconds at rate.
func Boiled(amount, rate, seconds float64) float64 {
	return math.Max(0, amount-Decay(amount, rate, seconds))
}

func validDuration(seconds float64) bool {
	return seconds > 0 && !math.IsNaN(seconds) && !math.IsInf(seconds, 0)
}
