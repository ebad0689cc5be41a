package host

// MissionClock is a fixed-step mission clock. Each Advance moves mission
// time forward by the tick length multiplied by the time warp factor.
type MissionClock struct {
	missionTime float64
	tick        float64
	warp        float64
}

// NewMissionClock creates a clock with tick seconds per step. A warp below 1
// is treated as 1.
func NewMissionClock(tick, warp float64) *MissionClock {
	if warp < 1 {
		warp = 1
	}
	return &MissionClock{tick: tick, warp: warp}
}

// Advance moves the clock one step and returns the step length.
func (c *MissionClock) Advance() float64 {
	dt := c.TickDuration()
	c.missionTime += dt
	return dt
}

// Skip jumps the clock forward without stepping, as when a vessel was not
// being simulated.
func (c *MissionClock) Skip(seconds float64) {
	if seconds > 0 {
		c.missionTime += seconds
	}
}

// MissionTime returns seconds since mission start.
func (c *MissionClock) MissionTime() float64 { return c.missionTime }

// SetMissionTime restores a persisted mission time.
func (c *MissionClock) SetMissionTime(t float64) {
	if t >= 0 {
		c.missionTime = t
	}
}

// TickDuration returns the mission seconds covered by one step.
func (c *MissionClock) TickDuration() float64 { return c.tick * c.warp }

// Warp returns the time warp factor.
func (c *MissionClock) Warp() float64 { return c.warp }

// SetWarp changes the time warp factor.
func (c *MissionClock) SetWarp(warp float64) {
	if warp >= 1 {
		c.warp = warp
	}
}
