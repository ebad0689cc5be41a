package sim

import "cryotank-sim/internal/telemetry"

// EventWriter handles cooling events.
type EventWriter interface {
	WriteEvent(telemetry.CoolingEventRow) error
}

// Optional: writers may support batch mode for events.
type batchEventWriter interface {
	WriteEvents([]telemetry.CoolingEventRow) error
}
