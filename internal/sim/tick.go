package sim

import (
	"context"
	"math"
	"time"

	"cryotank-sim/internal/logging"
	"cryotank-sim/internal/scenario"
	"cryotank-sim/internal/telemetry"
)

// Run starts the simulation loop and stops when the context is done. The
// vessel is activated first if Activate has not been called.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	if err := s.Activate(ctx); err != nil {
		log.Error("activation failed", "err", err)
	}
	log.Info("starting simulator", "tick_interval", s.tickInterval, "tanks", len(s.tanks))
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping simulator", "ticks", s.Ticks())
			if err := s.Save(context.WithoutCancel(ctx)); err != nil {
				log.Error("final save failed", "err", err)
			}
			return
		}
	}
}

// RunTicks activates the vessel if needed and runs n ticks without waiting
// for the tick interval. It stops early when ctx is cancelled.
func (s *Simulator) RunTicks(ctx context.Context, n int) error {
	if err := s.Activate(ctx); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.tick(ctx)
	}
	return s.Save(ctx)
}

// Ticks returns the number of ticks run so far.
func (s *Simulator) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

type tickOutput struct {
	rows   []telemetry.TankRow
	state  telemetry.VesselStateRow
	events []telemetry.CoolingEventRow
	save   bool
}

// tick advances the vessel one step and writes the resulting rows. Writers
// run outside the lock so they may call back into the simulator.
func (s *Simulator) tick(ctx context.Context) {
	out := s.step()
	s.emit(ctx, out)
	if out.save {
		if err := s.Save(ctx); err != nil {
			logging.FromContext(ctx).Error("state save failed", "err", err)
		}
	}
}

func (s *Simulator) step() tickOutput {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out tickOutput
	dt := s.clock.Advance()
	out.events = append(out.events, s.advanceScenario()...)
	s.vessel.Generate(dt)

	for _, t := range s.tanks {
		t.engine.Tick()
		st := t.engine.Status()
		if st.State != t.state {
			out.events = append(out.events, s.gen.Event(st.Tank, telemetry.CoolingEventStateChange, st.State.String(), st.LossRate))
			t.state = st.State
		}
	}

	power := s.powerLocked()
	p := telemetry.Power{Amount: power.Amount, Max: power.Max}
	mission := s.clock.MissionTime()
	for _, t := range s.tanks {
		out.rows = append(out.rows, s.gen.TankRow(t.engine.Status(), s.phase, p, mission))
	}
	out.state = s.gen.StateRow(s.phase, p, s.vessel.Generation(), mission, s.clock.Warp(), out.rows)

	s.ticks++
	out.save = s.store != nil && s.saveEvery > 0 && s.ticks%s.saveEvery == 0
	return out
}

// advanceScenario evaluates the current phase's triggers and applies the
// next phase when one fires. At most one transition happens per tick.
func (s *Simulator) advanceScenario() []telemetry.CoolingEventRow {
	if s.scenario == nil || s.phase == "" {
		return nil
	}
	power := s.powerLocked()
	var powerFrac float64
	if power.Max > 0 {
		powerFrac = power.Amount / power.Max
	}
	events := []scenario.Event{
		{Type: scenario.EventTimeElapsed, Value: s.clock.MissionTime() - s.phaseStart},
		{Type: scenario.EventPowerBelow, Value: powerFrac},
		{Type: scenario.EventFuelBelow, Value: s.fuelFraction()},
	}
	for _, ev := range events {
		next, ok := s.scenario.NextPhase(s.phase, ev)
		if !ok {
			continue
		}
		return s.enterPhase(next)
	}
	return nil
}

// enterPhase switches to the named phase and applies its generation and
// cooling overrides.
func (s *Simulator) enterPhase(name string) []telemetry.CoolingEventRow {
	p, ok := s.scenario.Phase(name)
	if !ok {
		s.log.Warn("scenario phase not found", "phase", name)
		return nil
	}
	prev := s.phase
	s.phase = p.Name
	s.phaseStart = s.clock.MissionTime()
	if p.GenerationRate != nil {
		s.vessel.SetGeneration(*p.GenerationRate)
	} else {
		s.vessel.SetGeneration(s.cfg.Power.GenerationRate)
	}
	s.log.Info("scenario phase", "from", prev, "to", p.Name, "generation", s.vessel.Generation())

	events := []telemetry.CoolingEventRow{s.gen.Event("", telemetry.CoolingEventPhaseChange, p.Name, s.vessel.Generation())}
	for _, t := range s.tanks {
		enabled, ok := p.CoolingFor(t.engine.Name())
		if !ok || enabled == t.engine.CoolingEnabled() {
			continue
		}
		t.engine.SetCoolingEnabled(enabled)
		events = append(events, s.coolingEvent(t.engine.Name(), enabled, "phase "+p.Name))
	}
	return events
}

// fuelFraction is the lowest fill fraction across tanks holding fuel.
func (s *Simulator) fuelFraction() float64 {
	frac := math.Inf(1)
	for _, t := range s.tanks {
		if m := t.engine.TotalMaxFuelAmount(); m > 0 {
			frac = math.Min(frac, t.engine.TotalFuelAmount()/m)
		}
	}
	if math.IsInf(frac, 1) {
		return 1
	}
	return frac
}

func (s *Simulator) emit(ctx context.Context, out tickOutput) {
	log := logging.FromContext(ctx)

	// Batch support if writer implements WriteBatch
	if bw, ok := s.writer.(batchWriter); ok {
		if err := bw.WriteBatch(out.rows); err != nil {
			log.Error("batch write failed", "err", err)
		}
	} else {
		for _, row := range out.rows {
			if err := s.writer.Write(row); err != nil {
				log.Error("write failed", "tank", row.Tank, "err", err)
			}
		}
	}

	if s.stateWriter != nil {
		if err := s.stateWriter.WriteState(out.state); err != nil {
			log.Error("state write failed", "err", err)
		}
	}
	s.emitEvents(out.events)
}

func (s *Simulator) emitEvents(events []telemetry.CoolingEventRow) {
	if len(events) == 0 {
		return
	}
	s.recordEvents(events)
	if s.eventWriter == nil {
		return
	}
	if bw, ok := s.eventWriter.(batchEventWriter); ok {
		if err := bw.WriteEvents(events); err != nil {
			s.log.Error("event batch write failed", "err", err)
		}
		return
	}
	for _, e := range events {
		if err := s.eventWriter.WriteEvent(e); err != nil {
			s.log.Error("event write failed", "event", e.EventType, "err", err)
		}
	}
}
