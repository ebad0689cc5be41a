package telemetry

import (
	"time"

	"cryotank-sim/internal/boiloff"
)

// Generator converts engine snapshots into telemetry rows for one run.
type Generator struct {
	RunID  string
	Vessel string
	now    func() time.Time
}

// NewGenerator creates a row generator.
func NewGenerator(runID, vessel string) *Generator {
	return &Generator{RunID: runID, Vessel: vessel, now: func() time.Time { return time.Now().UTC() }}
}

// Power describes the vessel power network at the time of a sample.
type Power struct {
	Amount float64
	Max    float64
}

// TankRow builds a row from an engine status.
func (g *Generator) TankRow(st boiloff.Status, phase string, power Power, missionTime float64) TankRow {
	row := TankRow{
		RunID:          g.RunID,
		Vessel:         g.Vessel,
		Tank:           st.Tank,
		Phase:          phase,
		State:          st.State.String(),
		BoiloffStatus:  st.BoiloffStatus,
		CoolingStatus:  st.CoolingStatus,
		CoolingEnabled: st.CoolingEnabled,
		CoolingCost:    st.CoolingCost,
		LossRate:       st.LossRate,
		FuelAmount:     st.FuelAmount,
		FuelMax:        st.FuelMax,
		Boiled:         st.Boiled,
		PowerAmount:    power.Amount,
		PowerMax:       power.Max,
		MissionTime:    missionTime,
		Timestamp:      g.now(),
	}
	for _, ch := range st.Channels {
		row.Channels = append(row.Channels, ChannelSample{
			Fuel:          ch.FuelID,
			Active:        ch.Active,
			Amount:        ch.Amount,
			Max:           ch.MaxAmount,
			RatePerSecond: ch.DecayRatePerSecond,
			Boiled:        ch.Boiled,
		})
	}
	return row
}

// StateRow aggregates a tick's tank rows into a vessel power record.
func (g *Generator) StateRow(phase string, power Power, generation, missionTime, warp float64, rows []TankRow) VesselStateRow {
	st := VesselStateRow{
		RunID:          g.RunID,
		Vessel:         g.Vessel,
		Phase:          phase,
		PowerAmount:    power.Amount,
		PowerMax:       power.Max,
		GenerationRate: generation,
		MissionTime:    missionTime,
		TimeWarp:       warp,
		Timestamp:      g.now(),
	}
	for _, r := range rows {
		st.CoolingDraw += r.CoolingCost
		if r.Boiling() {
			st.BoilingTanks++
		}
	}
	return st
}

// Event builds a cooling event row.
func (g *Generator) Event(tank, eventType, detail string, value float64) CoolingEventRow {
	return CoolingEventRow{
		RunID:     g.RunID,
		Vessel:    g.Vessel,
		Tank:      tank,
		EventType: eventType,
		Detail:    detail,
		Value:     value,
		Timestamp: g.now(),
	}
}
