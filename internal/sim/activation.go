package sim

import (
	"context"
	"errors"
	"time"

	"cryotank-sim/internal/logging"
	"cryotank-sim/internal/store"
	"cryotank-sim/internal/telemetry"
)

// Activate restores the last saved vessel state, skips the mission clock
// over the time spent offline and lets every tank catch up on boiloff for
// that gap. It also enters the first scenario phase. Activate is a no-op
// after the first call.
func (s *Simulator) Activate(ctx context.Context) error {
	log := logging.FromContext(ctx)
	s.mu.Lock()
	if s.activated {
		s.mu.Unlock()
		return nil
	}
	s.activated = true

	var gap time.Duration
	restored := false
	if s.store != nil {
		snap, err := s.store.Load(ctx, s.cfg.Vessel)
		switch {
		case errors.Is(err, store.ErrNotFound):
			log.Info("no saved state, starting fresh")
		case err != nil:
			s.mu.Unlock()
			return err
		default:
			s.restore(snap)
			restored = true
			gap = s.now().Sub(snap.SavedAt)
		}
	}
	if s.offlineGap != nil {
		gap = *s.offlineGap
	}
	if gap < 0 {
		log.Warn("saved state is from the future, offline gap ignored", "gap", gap)
		gap = 0
	}
	// The wall-clock gap passes at the current warp, an explicit gap does not.
	skip := gap.Seconds()
	if restored && s.offlineGap == nil {
		skip *= s.clock.Warp()
	}
	s.clock.Skip(skip)

	var events []telemetry.CoolingEventRow
	for _, t := range s.tanks {
		if boiled := t.engine.Activate(); boiled > 0 {
			events = append(events, s.gen.Event(t.engine.Name(), telemetry.CoolingEventCatchup, "offline boiloff", boiled))
		}
	}
	if s.scenario != nil && len(s.scenario.Phases) > 0 {
		events = append(events, s.enterPhase(s.scenario.Start().Name)...)
	}
	log.Info("vessel activated", "restored", restored, "offline_s", skip, "mission_time", s.clock.MissionTime())
	s.mu.Unlock()

	s.emitEvents(events)
	return nil
}

// restore applies a saved snapshot. Parts or tanks that no longer exist in
// the configuration are skipped.
func (s *Simulator) restore(snap store.Snapshot) {
	s.clock.SetMissionTime(snap.MissionTime)
	for _, p := range snap.Pools {
		part, err := s.vessel.Part(p.Part)
		if err != nil {
			s.log.Warn("saved part not on vessel", "part", p.Part)
			continue
		}
		if _, ok := part.Resource(p.Resource); !ok {
			s.log.Warn("saved resource not on part", "part", p.Part, "resource", p.Resource)
			continue
		}
		part.AddResource(p.Resource, p.Amount, p.Max)
	}
	for _, ts := range snap.Tanks {
		t, ok := s.byName[ts.Tank]
		if !ok {
			s.log.Warn("saved tank not on vessel", "tank", ts.Tank)
			continue
		}
		t.engine.SetLastUpdateTime(ts.LastUpdateTime)
		t.engine.SetCoolingEnabled(ts.CoolingEnabled)
	}
}

// Save writes the vessel state to the store, if one is configured.
func (s *Simulator) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap := s.snapshotState()
	if err := s.store.Save(ctx, snap); err != nil {
		return err
	}
	s.log.Debug("state saved", "mission_time", snap.MissionTime)
	return nil
}

func (s *Simulator) snapshotState() store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := store.Snapshot{
		Vessel:      s.cfg.Vessel,
		MissionTime: s.clock.MissionTime(),
		SavedAt:     s.now().UTC(),
	}
	for _, part := range s.vessel.Parts() {
		for _, pl := range part.Pools() {
			snap.Pools = append(snap.Pools, store.PoolState{Part: part.Name, Resource: pl.Resource, Amount: pl.Amount, Max: pl.Max})
		}
	}
	for _, t := range s.tanks {
		snap.Tanks = append(snap.Tanks, store.TankState{
			Tank:           t.engine.Name(),
			LastUpdateTime: t.engine.LastUpdateTime(),
			CoolingEnabled: t.engine.CoolingEnabled(),
		})
	}
	return snap
}
