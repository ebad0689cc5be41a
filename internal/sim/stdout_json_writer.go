package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"cryotank-sim/internal/telemetry"
)

// JSONStdoutWriter prints tank rows, state rows and events as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a tank row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.TankRow) error {
	return w.encode(row)
}

// WriteBatch outputs multiple tank rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.TankRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteState outputs a vessel state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row telemetry.VesselStateRow) error {
	return w.encode(row)
}

// WriteEvent outputs a cooling event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	return w.encode(e)
}
