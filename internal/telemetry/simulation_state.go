package telemetry

import "time"

// VesselStateTableName is the GreptimeDB table for VesselStateRow.
const VesselStateTableName = "vessel_power"

// VesselStateRow captures per-tick vessel power metrics.
type VesselStateRow struct {
	RunID          string    `json:"run_id"`
	Vessel         string    `json:"vessel"`
	Phase          string    `json:"phase,omitempty"`
	PowerAmount    float64   `json:"power_amount"`
	PowerMax       float64   `json:"power_max"`
	GenerationRate float64   `json:"generation_rate"`
	CoolingDraw    float64   `json:"cooling_draw"`
	BoilingTanks   int       `json:"boiling_tanks"`
	MissionTime    float64   `json:"mission_time"`
	TimeWarp       float64   `json:"time_warp"`
	Timestamp      time.Time `json:"ts"`
}

// PowerFraction returns the fill level of the power network.
func (r VesselStateRow) PowerFraction() float64 {
	if r.PowerMax <= 0 {
		return 0
	}
	return r.PowerAmount / r.PowerMax
}
