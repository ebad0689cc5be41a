// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"cryotank-sim/internal/boiloff"
)

var (
	ErrNoTanks        = errors.New("no tanks defined")
	ErrDuplicateTank  = errors.New("duplicate tank name")
	ErrDuplicateFuel  = errors.New("duplicate boiloff fuel")
	ErrInvalidValue   = errors.New("invalid value")
	ErrUnknownFlow    = errors.New("unknown flow policy")
	defaultTickS      = 1.0
	defaultVesselName = "vessel-01"
)

// PowerConfig describes the vessel power network.
type PowerConfig struct {
	Resource       string  `yaml:"resource"`
	Capacity       float64 `yaml:"capacity"`
	Initial        float64 `yaml:"initial"`
	GenerationRate float64 `yaml:"generation_rate"`
	MinReserve     float64 `yaml:"min_reserve"`
}

// ResourceConfig is a resource pool stored in a tank.
type ResourceConfig struct {
	Name   string  `yaml:"name"`
	Amount float64 `yaml:"amount"`
	Max    float64 `yaml:"max"`
}

// OutputConfig is a byproduct of boiloff.
type OutputConfig struct {
	Resource string  `yaml:"resource"`
	Ratio    float64 `yaml:"ratio"`
	Flow     string  `yaml:"flow"`
}

// ChannelConfig tracks one propellant in a tank.
type ChannelConfig struct {
	Fuel               string         `yaml:"fuel"`
	RatePercentPerHour float64        `yaml:"rate_percent_per_hour"`
	Outputs            []OutputConfig `yaml:"outputs"`
}

// TankConfig defines one cryogenic tank part.
type TankConfig struct {
	Name           string           `yaml:"name"`
	CoolingCost    float64          `yaml:"cooling_cost"`
	CoolingEnabled *bool            `yaml:"cooling_enabled"`
	Resources      []ResourceConfig `yaml:"resources"`
	Boiloff        []ChannelConfig  `yaml:"boiloff"`
}

// SimulationConfig is the root configuration for the vessel and its tanks.
type SimulationConfig struct {
	Vessel        string       `yaml:"vessel"`
	TickDurationS float64      `yaml:"tick_duration_s"`
	TimeWarp      float64      `yaml:"time_warp"`
	Power         PowerConfig  `yaml:"power"`
	Tanks         []TankConfig `yaml:"tanks"`
	// Scenario names a builtin power profile or a path to a scenario YAML file.
	Scenario string `yaml:"scenario"`
}

// Load loads YAML config, validating it against a CUE schema when
// cueSchemaPath is set.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	slog.Debug("loaded configuration", "path", configPath, "vessel", cfg.Vessel, "tanks", len(cfg.Tanks))
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*SimulationConfig, error) {
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *SimulationConfig) ApplyDefaults() {
	if c.Vessel == "" {
		c.Vessel = defaultVesselName
	}
	if c.TickDurationS <= 0 {
		c.TickDurationS = defaultTickS
	}
	if c.TimeWarp < 1 {
		c.TimeWarp = 1
	}
	if c.Power.Resource == "" {
		c.Power.Resource = boiloff.DefaultPowerResource
	}
	if c.Power.Initial > c.Power.Capacity {
		c.Power.Initial = c.Power.Capacity
	}
	for i := range c.Tanks {
		t := &c.Tanks[i]
		if t.CoolingEnabled == nil {
			on := true
			t.CoolingEnabled = &on
		}
		for j := range t.Resources {
			if t.Resources[j].Max == 0 {
				t.Resources[j].Max = t.Resources[j].Amount
			}
		}
	}
}

// Validate checks cross-field rules the schema cannot express. A boiloff
// fuel missing from the tank's resources is not an error: the channel is
// kept inert at runtime.
func (c *SimulationConfig) Validate() error {
	if len(c.Tanks) == 0 {
		return ErrNoTanks
	}
	if c.Power.Capacity < 0 || c.Power.GenerationRate < 0 || c.Power.MinReserve < 0 {
		return fmt.Errorf("%w: power values must be non-negative", ErrInvalidValue)
	}
	tanks := make(map[string]bool, len(c.Tanks))
	for _, t := range c.Tanks {
		if t.Name == "" {
			return fmt.Errorf("%w: tank without name", ErrInvalidValue)
		}
		if tanks[t.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTank, t.Name)
		}
		tanks[t.Name] = true
		if t.CoolingCost < 0 {
			return fmt.Errorf("%w: tank %s cooling_cost %v", ErrInvalidValue, t.Name, t.CoolingCost)
		}
		for _, r := range t.Resources {
			if r.Amount < 0 || r.Max < r.Amount {
				return fmt.Errorf("%w: tank %s resource %s amount %v max %v", ErrInvalidValue, t.Name, r.Name, r.Amount, r.Max)
			}
		}
		fuels := make(map[string]bool, len(t.Boiloff))
		for _, ch := range t.Boiloff {
			if fuels[ch.Fuel] {
				return fmt.Errorf("%w: tank %s fuel %s", ErrDuplicateFuel, t.Name, ch.Fuel)
			}
			fuels[ch.Fuel] = true
			if ch.RatePercentPerHour < 0 {
				return fmt.Errorf("%w: tank %s fuel %s rate %v", ErrInvalidValue, t.Name, ch.Fuel, ch.RatePercentPerHour)
			}
			for _, out := range ch.Outputs {
				if out.Ratio < 0 {
					return fmt.Errorf("%w: tank %s output %s ratio %v", ErrInvalidValue, t.Name, out.Resource, out.Ratio)
				}
				if _, err := boiloff.ParseFlowPolicy(out.Flow); err != nil {
					return fmt.Errorf("%w: tank %s output %s: %v", ErrUnknownFlow, t.Name, out.Resource, err)
				}
			}
		}
	}
	return nil
}

// EngineConfig converts a tank definition into the boiloff engine's
// configuration. Flow names must already have passed Validate.
func (t TankConfig) EngineConfig() boiloff.TankConfig {
	cfg := boiloff.TankConfig{
		Name:               t.Name,
		CoolingCostPer1000: t.CoolingCost,
		CoolingEnabled:     t.CoolingEnabled == nil || *t.CoolingEnabled,
	}
	for _, ch := range t.Boiloff {
		cc := boiloff.ChannelConfig{FuelID: ch.Fuel, PercentPerHour: ch.RatePercentPerHour}
		for _, out := range ch.Outputs {
			flow, _ := boiloff.ParseFlowPolicy(out.Flow)
			cc.Outputs = append(cc.Outputs, boiloff.Output{Resource: out.Resource, Ratio: out.Ratio, Flow: flow})
		}
		cfg.Channels = append(cfg.Channels, cc)
	}
	return cfg
}
