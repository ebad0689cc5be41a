// Telemetry structs with greptime tags
package telemetry

import (
	"os"
	"time"
)

// TankRow represents one per-tick tank record for GreptimeDB.
type TankRow struct {
	RunID          string          `json:"run_id"`          // TAG
	Vessel         string          `json:"vessel"`          // TAG
	Tank           string          `json:"tank"`            // TAG
	Phase          string          `json:"phase,omitempty"` // FIELD
	State          string          `json:"state"`           // FIELD
	BoiloffStatus  string          `json:"boiloff_status"`  // FIELD
	CoolingStatus  string          `json:"cooling_status"`  // FIELD
	CoolingEnabled bool            `json:"cooling_enabled"` // FIELD
	CoolingCost    float64         `json:"cooling_cost"`    // FIELD, Ec/s drawn this tick
	LossRate       float64         `json:"loss_rate"`       // FIELD, units/s
	FuelAmount     float64         `json:"fuel_amount"`     // FIELD
	FuelMax        float64         `json:"fuel_max"`        // FIELD
	Boiled         float64         `json:"boiled"`          // FIELD
	PowerAmount    float64         `json:"power_amount"`    // FIELD
	PowerMax       float64         `json:"power_max"`       // FIELD
	MissionTime    float64         `json:"mission_time"`    // FIELD
	Channels       []ChannelSample `json:"channels,omitempty"`
	Timestamp      time.Time       `json:"ts"` // TIME INDEX
}

// ChannelSample is the per-fuel part of a TankRow. It is written to its own
// table since GreptimeDB columns cannot hold lists.
type ChannelSample struct {
	Fuel          string  `json:"fuel"`
	Active        bool    `json:"active"`
	Amount        float64 `json:"amount"`
	Max           float64 `json:"max"`
	RatePerSecond float64 `json:"rate_per_s"`
	Boiled        float64 `json:"boiled"`
}

// TankTableName holds the table name used when writing to GreptimeDB.
// It defaults to "tank_boiloff" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TankTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "tank_boiloff"
}()

// ChannelTableName is the table receiving ChannelSample rows.
var ChannelTableName = TankTableName + "_channels"

func (TankRow) TableName() string {
	return TankTableName
}

// Boiling reports whether the row recorded fuel loss.
func (r TankRow) Boiling() bool {
	return r.Boiled > 0
}
