package sim

import "cryotank-sim/internal/telemetry"

// StateWriter handles per-tick vessel power rows.
type StateWriter interface {
	WriteState(telemetry.VesselStateRow) error
}
