package telemetry

import "time"

const (
	CoolingEventEnabled     = "cooling_enabled"
	CoolingEventDisabled    = "cooling_disabled"
	CoolingEventStateChange = "state_change"
	CoolingEventPhaseChange = "phase_change"
	CoolingEventCatchup     = "catchup"
)

// CoolingEventTableName is the GreptimeDB table for CoolingEventRow.
const CoolingEventTableName = "cooling_events"

// CoolingEventRow records a discrete change: a cooling toggle, a tank state
// transition, a scenario phase change or an activation catch-up.
type CoolingEventRow struct {
	RunID     string    `json:"run_id"`
	Vessel    string    `json:"vessel"`
	Tank      string    `json:"tank,omitempty"`
	EventType string    `json:"event_type"`
	Detail    string    `json:"detail,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Timestamp time.Time `json:"ts"`
}
