// Writer selection for STDOUT output
package sim

import (
	"io"

	"cryotank-sim/internal/config"
)

// NewStdoutWriter returns a colorized writer when colorize is set and a JSON
// lines writer otherwise, both printing to out.
func NewStdoutWriter(cfg *config.SimulationConfig, out io.Writer, colorize bool) TelemetryWriter {
	if colorize {
		w := NewColorStdoutWriter(cfg)
		w.out = out
		return w
	}
	w := NewJSONStdoutWriter()
	w.out = out
	return w
}
