// Simulator orchestrating tank boiloff and telemetry ticks
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cryotank-sim/internal/boiloff"
	"cryotank-sim/internal/config"
	"cryotank-sim/internal/host"
	"cryotank-sim/internal/scenario"
	"cryotank-sim/internal/store"
	"cryotank-sim/internal/telemetry"

	"github.com/google/uuid"
)

// BusPartName is the part holding the vessel's power storage.
const BusPartName = "power-bus"

// DefaultSaveEvery is the number of ticks between state saves.
const DefaultSaveEvery = 60

// ErrUnknownTank is returned when a tank name does not exist on the vessel.
var ErrUnknownTank = errors.New("unknown tank")

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TankRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.TankRow) error
}

// StateStore persists vessel snapshots between runs.
type StateStore interface {
	Save(ctx context.Context, snap store.Snapshot) error
	Load(ctx context.Context, vessel string) (store.Snapshot, error)
}

// PowerStatus describes the vessel power network.
type PowerStatus struct {
	Resource   string  `json:"resource"`
	Amount     float64 `json:"amount"`
	Max        float64 `json:"max"`
	Generation float64 `json:"generation_rate"`
	Reserve    float64 `json:"min_reserve"`
}

// VesselSnapshot is the current view of the whole vessel.
type VesselSnapshot struct {
	RunID       string           `json:"run_id"`
	Vessel      string           `json:"vessel"`
	Phase       string           `json:"phase,omitempty"`
	MissionTime float64          `json:"mission_time"`
	TimeWarp    float64          `json:"time_warp"`
	Ticks       int              `json:"ticks"`
	Power       PowerStatus      `json:"power"`
	Tanks       []boiloff.Status `json:"tanks"`
}

type tank struct {
	part   *host.Part
	engine *boiloff.Engine
	state  boiloff.State
}

// Simulator drives a vessel's tanks on a fixed tick and writes telemetry.
type Simulator struct {
	cfg          *config.SimulationConfig
	runID        string
	gen          *telemetry.Generator
	writer       TelemetryWriter
	stateWriter  StateWriter
	eventWriter  EventWriter
	tickInterval time.Duration
	log          *slog.Logger

	clock  *host.MissionClock
	vessel *host.Vessel
	tanks  []*tank
	byName map[string]*tank

	scenario   *scenario.Scenario
	phase      string
	phaseStart float64

	store      StateStore
	saveEvery  int
	offlineGap *time.Duration
	now        func() time.Time

	history   []telemetry.CoolingEventRow
	ticks     int
	activated bool
	mu        sync.Mutex
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithStore enables state persistence.
func WithStore(st StateStore) Option { return func(s *Simulator) { s.store = st } }

// WithSaveEvery sets how many ticks pass between saves. Zero disables
// periodic saves; a final save still happens when Run stops.
func WithSaveEvery(n int) Option { return func(s *Simulator) { s.saveEvery = n } }

// WithScenario sets the power profile, overriding the configured one.
func WithScenario(sc *scenario.Scenario) Option { return func(s *Simulator) { s.scenario = sc } }

// WithOfflineGap overrides the time the vessel spent unsimulated before
// activation. Without it the gap is the wall-clock time since the last save.
func WithOfflineGap(d time.Duration) Option { return func(s *Simulator) { s.offlineGap = &d } }

// WithRunID sets the run identifier stamped on telemetry.
func WithRunID(id string) Option { return func(s *Simulator) { s.runID = id } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Simulator) { s.log = l } }

// WithStateWriter sets the writer receiving per-tick vessel power rows.
func WithStateWriter(w StateWriter) Option { return func(s *Simulator) { s.stateWriter = w } }

// WithEventWriter sets the writer receiving cooling events.
func WithEventWriter(w EventWriter) Option { return func(s *Simulator) { s.eventWriter = w } }

// NewSimulator builds the vessel, its power bus and one boiloff engine per
// configured tank.
func NewSimulator(cfg *config.SimulationConfig, writer TelemetryWriter, tickInterval time.Duration, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		cfg:          cfg,
		writer:       writer,
		tickInterval: tickInterval,
		log:          slog.Default(),
		byName:       make(map[string]*tank),
		saveEvery:    DefaultSaveEvery,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.runID == "" {
		s.runID = uuid.New().String()
	}
	s.log = s.log.With("vessel", cfg.Vessel, "run_id", s.runID)
	s.gen = telemetry.NewGenerator(s.runID, cfg.Vessel)
	if s.stateWriter == nil {
		s.stateWriter, _ = writer.(StateWriter)
	}
	if s.eventWriter == nil {
		s.eventWriter, _ = writer.(EventWriter)
	}

	if s.scenario == nil && cfg.Scenario != "" {
		sc, err := scenario.Resolve(cfg.Scenario)
		if err != nil {
			return nil, err
		}
		s.scenario = sc
	}

	s.clock = host.NewMissionClock(cfg.TickDurationS, cfg.TimeWarp)
	s.vessel = host.NewVessel(cfg.Vessel, cfg.Power.Resource, s.clock)
	s.vessel.SetGeneration(cfg.Power.GenerationRate)
	s.vessel.AddPart(host.NewPart(BusPartName).AddResource(cfg.Power.Resource, cfg.Power.Initial, cfg.Power.Capacity))

	for _, tc := range cfg.Tanks {
		if tc.Name == BusPartName {
			return nil, fmt.Errorf("tank name %q is reserved", tc.Name)
		}
		part := host.NewPart(tc.Name)
		for _, r := range tc.Resources {
			part.AddResource(r.Name, r.Amount, r.Max)
		}
		s.vessel.AddPart(part)
		eng := boiloff.New(tc.EngineConfig(), s.vessel.View(part),
			boiloff.WithLogger(s.log),
			boiloff.WithPowerResource(cfg.Power.Resource),
			boiloff.WithPowerReserve(cfg.Power.MinReserve),
		)
		t := &tank{part: part, engine: eng}
		s.tanks = append(s.tanks, t)
		s.byName[tc.Name] = t
	}
	return s, nil
}

// RunID returns the run identifier.
func (s *Simulator) RunID() string { return s.runID }

// GetConfig returns the simulation configuration.
func (s *Simulator) GetConfig() *config.SimulationConfig { return s.cfg }

// Phase returns the active scenario phase, or "" without a scenario.
func (s *Simulator) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// MissionTime returns the vessel mission time in seconds.
func (s *Simulator) MissionTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.MissionTime()
}

// Power returns the power network totals.
func (s *Simulator) Power() PowerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powerLocked()
}

func (s *Simulator) powerLocked() PowerStatus {
	cur, capacity := s.vessel.Totals(s.cfg.Power.Resource)
	return PowerStatus{
		Resource:   s.cfg.Power.Resource,
		Amount:     cur,
		Max:        capacity,
		Generation: s.vessel.Generation(),
		Reserve:    s.cfg.Power.MinReserve,
	}
}

// Tanks returns the status of every tank in configuration order.
func (s *Simulator) Tanks() []boiloff.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]boiloff.Status, 0, len(s.tanks))
	for _, t := range s.tanks {
		out = append(out, t.engine.Status())
	}
	return out
}

// Tank returns the status of one tank.
func (s *Simulator) Tank(name string) (boiloff.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byName[name]
	if !ok {
		return boiloff.Status{}, fmt.Errorf("%w: %s", ErrUnknownTank, name)
	}
	return t.engine.Status(), nil
}

// Info returns the descriptive text for a tank.
func (s *Simulator) Info(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTank, name)
	}
	return t.engine.Info(), nil
}

// Snapshot returns the current state of the vessel.
func (s *Simulator) Snapshot() VesselSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := VesselSnapshot{
		RunID:       s.runID,
		Vessel:      s.cfg.Vessel,
		Phase:       s.phase,
		MissionTime: s.clock.MissionTime(),
		TimeWarp:    s.clock.Warp(),
		Ticks:       s.ticks,
		Power:       s.powerLocked(),
	}
	for _, t := range s.tanks {
		snap.Tanks = append(snap.Tanks, t.engine.Status())
	}
	return snap
}

// SetCooling switches cooling for a tank and returns its new status.
func (s *Simulator) SetCooling(name string, enabled bool) (boiloff.Status, error) {
	s.mu.Lock()
	t, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return boiloff.Status{}, fmt.Errorf("%w: %s", ErrUnknownTank, name)
	}
	t.engine.SetCoolingEnabled(enabled)
	st := t.engine.Status()
	s.mu.Unlock()

	s.log.Info("cooling changed", "tank", name, "enabled", enabled)
	s.emitEvents([]telemetry.CoolingEventRow{s.coolingEvent(name, enabled, "manual")})
	return st, nil
}

// ToggleCooling flips cooling for a tank and returns the new setting.
func (s *Simulator) ToggleCooling(name string) (bool, error) {
	s.mu.Lock()
	t, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownTank, name)
	}
	enabled := t.engine.ToggleCooling()
	s.mu.Unlock()

	s.log.Info("cooling toggled", "tank", name, "enabled", enabled)
	s.emitEvents([]telemetry.CoolingEventRow{s.coolingEvent(name, enabled, "toggle")})
	return enabled, nil
}

// SetTimeWarp changes the time warp factor; values below 1 are ignored.
func (s *Simulator) SetTimeWarp(warp float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.SetWarp(warp)
}

// TankNames returns the tank names in configuration order.
func (s *Simulator) TankNames() []string {
	names := make([]string, 0, len(s.tanks))
	for _, t := range s.tanks {
		names = append(names, t.engine.Name())
	}
	return names
}

func (s *Simulator) coolingEvent(name string, enabled bool, detail string) telemetry.CoolingEventRow {
	typ := telemetry.CoolingEventDisabled
	if enabled {
		typ = telemetry.CoolingEventEnabled
	}
	return s.gen.Event(name, typ, detail, 0)
}
