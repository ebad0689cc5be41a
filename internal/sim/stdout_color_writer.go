// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"cryotank-sim/internal/boiloff"
	"cryotank-sim/internal/config"
	"cryotank-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints tank rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg        *config.SimulationConfig
	out        io.Writer
	once       sync.Once
	tankColors map[string]string
	colorIdx   int
}

var tankPalette = []string{colorCyan, colorMagenta, colorBlue, colorGreen, colorYellow}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		cfg:        cfg,
		out:        os.Stdout,
		tankColors: make(map[string]string),
	}
}

func (w *ColorStdoutWriter) getTankColor(name string) string {
	if c, ok := w.tankColors[name]; ok {
		return c
	}
	c := tankPalette[w.colorIdx%len(tankPalette)]
	w.tankColors[name] = c
	w.colorIdx++
	return c
}

func stateColor(state string) string {
	switch state {
	case boiloff.StateCooledIdle.String():
		return colorGreen
	case boiloff.StateUncooledBoiloff.String(), boiloff.StateNoFuel.String():
		return colorRed
	case boiloff.StateInactive.String():
		return colorGray
	default:
		return colorYellow
	}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Vessel:\t%s\n", w.cfg.Vessel)
	fmt.Fprintf(tw, "Tick (s):\t%.2f\n", w.cfg.TickDurationS)
	fmt.Fprintf(tw, "Time Warp:\t%.0fx\n", w.cfg.TimeWarp)
	fmt.Fprintf(tw, "Power:\t%.1f/%.1f %s\n", w.cfg.Power.Initial, w.cfg.Power.Capacity, w.cfg.Power.Resource)
	fmt.Fprintf(tw, "Generation (/s):\t%.2f\n", w.cfg.Power.GenerationRate)
	fmt.Fprintf(tw, "Reserve:\t%.1f\n", w.cfg.Power.MinReserve)
	if w.cfg.Scenario != "" {
		fmt.Fprintf(tw, "Scenario:\t%s\n", w.cfg.Scenario)
	}
	tw.Flush()

	fmt.Fprintln(w.out, "\nTanks:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\tCooling Cost\tCooling\tFuels\n")
	for _, t := range w.cfg.Tanks {
		col := w.getTankColor(t.Name)
		enabled := t.CoolingEnabled == nil || *t.CoolingEnabled
		var fuels []string
		for _, ch := range t.Boiloff {
			fuels = append(fuels, fmt.Sprintf("%s@%.2f%%/hr", ch.Fuel, ch.RatePercentPerHour))
		}
		fmt.Fprintf(tw, "%s%s%s\t%.3f\t%t\t%v\n", col, t.Name, colorReset, t.CoolingCost, enabled, fuels)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single tank row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.TankRow) error {
	w.once.Do(w.printOverview)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%st=%.0f%s ", colorBlue, row.MissionTime, colorReset)
	fmt.Fprintf(w.out, "%stank=%s%s ", w.getTankColor(row.Tank), row.Tank, colorReset)
	fmt.Fprintf(w.out, "%sstate=%s%s ", stateColor(row.State), row.State, colorReset)
	fmt.Fprintf(w.out, "%sfuel=%.3f/%.0f%s ", colorCyan, row.FuelAmount, row.FuelMax, colorReset)
	fmt.Fprintf(w.out, "%spower=%.1f/%.0f%s ", colorYellow, row.PowerAmount, row.PowerMax, colorReset)
	fmt.Fprintf(w.out, "%scooling=%q%s ", colorMagenta, row.CoolingStatus, colorReset)
	fmt.Fprintf(w.out, "%sboiloff=%q%s", stateColor(row.State), row.BoiloffStatus, colorReset)
	if row.Phase != "" {
		fmt.Fprintf(w.out, " %sphase=%s%s", colorGray, row.Phase, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple tank rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.TankRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent prints a cooling event to STDOUT.
func (w *ColorStdoutWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sEVENT%s type=%s",
		colorGray, e.Timestamp.Format(time.RFC3339), colorReset,
		colorMagenta, colorReset, e.EventType)
	if e.Tank != "" {
		fmt.Fprintf(w.out, " tank=%s", e.Tank)
	}
	if e.Detail != "" {
		fmt.Fprintf(w.out, " detail=%q", e.Detail)
	}
	if e.Value != 0 {
		fmt.Fprintf(w.out, " value=%.4f", e.Value)
	}
	fmt.Fprintln(w.out)
	return nil
}
