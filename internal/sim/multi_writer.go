package sim

import "cryotank-sim/internal/telemetry"

// MultiWriter fan-outs tank rows, state rows and events to multiple writers.
// State and event writers are picked from the telemetry writers that
// implement those interfaces.
type MultiWriter struct {
	telewriters  []TelemetryWriter
	statewriters []StateWriter
	evwriters    []EventWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws ...TelemetryWriter) *MultiWriter {
	mw := &MultiWriter{telewriters: tws}
	for _, w := range tws {
		if sw, ok := w.(StateWriter); ok {
			mw.statewriters = append(mw.statewriters, sw)
		}
		if ew, ok := w.(EventWriter); ok {
			mw.evwriters = append(mw.evwriters, ew)
		}
	}
	return mw
}

// Write sends a tank row to all writers.
func (mw *MultiWriter) Write(row telemetry.TankRow) error {
	for _, w := range mw.telewriters {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple tank rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.TankRow) error {
	for _, w := range mw.telewriters {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a vessel state row to all state writers.
func (mw *MultiWriter) WriteState(row telemetry.VesselStateRow) error {
	for _, w := range mw.statewriters {
		if err := w.WriteState(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent sends an event to all event writers.
func (mw *MultiWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	return mw.WriteEvents([]telemetry.CoolingEventRow{e})
}

// WriteEvents sends multiple events to all event writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []telemetry.CoolingEventRow) error {
	for _, w := range mw.evwriters {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetAdminStatus forwards the admin UI status to writers that support it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.telewriters {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

// SetCoolingToggle forwards the cooling toggle to writers that support it.
func (mw *MultiWriter) SetCoolingToggle(fn CoolingToggler) {
	for _, w := range mw.telewriters {
		if cw, ok := w.(CoolingToggleWriter); ok {
			cw.SetCoolingToggle(fn)
		}
	}
}
