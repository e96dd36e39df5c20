package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPlant      = "thermal"
	DefaultIntegrator = "rk4"
	DefaultController = "pid"
	DefaultDt         = 0.1
	DefaultDuration   = 300.0
	DefaultTarget     = 60.0
	DefaultInit       = 20.0
	DefaultKp         = 8.0
	DefaultTi         = 20.0
	DefaultTd         = 0.0
)

var (
	ErrInvalid       = errors.New("config: invalid")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

type Config struct {
	Plant       string             `yaml:"plant"`
	Integrator  string             `yaml:"integrator"`
	Controller  string             `yaml:"controller"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Seed        int64              `yaml:"seed"`
	Jitter      float64            `yaml:"jitter"`
	Target      float64            `yaml:"target"`
	Gains       GainsConfig        `yaml:"gains"`
	Init        InitConfig         `yaml:"init"`
	Manual      float64            `yaml:"manual,omitempty"`
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
}

// GainsConfig holds standard-form PID gains. Ti = 0 disables integral
// action.
type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ti float64 `yaml:"ti"`
	Td float64 `yaml:"td"`
}

// InitConfig is the plant's initial measured value and its rate of change.
type InitConfig struct {
	Value float64 `yaml:"value"`
	Rate  float64 `yaml:"rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      DefaultPlant,
		Integrator: DefaultIntegrator,
		Controller: DefaultController,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Target:     DefaultTarget,
		Gains: GainsConfig{
			Kp: DefaultKp,
			Ti: DefaultTi,
			Td: DefaultTd,
		},
		Init: InitConfig{
			Value: DefaultInit,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the loop timing fields. Gains are not validated: any
// real value, zero or negative, is a legal tuning.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		return fmt.Errorf("%w: jitter must be in [0, 1), got %g", ErrInvalid, c.Jitter)
	}
	return nil
}

// InitState builds an initial state vector of length dim.
func (c *Config) InitState(dim int) []float64 {
	state := make([]float64, dim)
	if dim > 0 {
		state[0] = c.Init.Value
	}
	if dim > 1 {
		state[1] = c.Init.Rate
	}
	return state
}

// ControllerParams returns the parameters passed to controller factories.
// Manual is the fixed output of the manual controller.
func (c *Config) ControllerParams(controlDim int) map[string]float64 {
	return map[string]float64{
		"dim":    float64(controlDim),
		"kp":     c.Gains.Kp,
		"ti":     c.Gains.Ti,
		"td":     c.Gains.Td,
		"target": c.Target,
		"u":      c.Manual,
	}
}
