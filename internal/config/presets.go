package config

import (
	"fmt"
	"sort"
)

// The derivative term is subtracted from the error, so presets that want
// damping on a second-order plant carry a negative Td.
var Presets = map[string]map[string]*Config{
	"thermal": {
		"warmup": {
			Plant: "thermal", Integrator: "rk4", Controller: "pid", Dt: 0.5, Duration: 600,
			Target: 60, Gains: GainsConfig{Kp: 8, Ti: 20}, Init: InitConfig{Value: 20},
		},
		"proportional": {
			Plant: "thermal", Integrator: "rk4", Controller: "pid", Dt: 0.5, Duration: 600,
			Target: 60, Gains: GainsConfig{Kp: 8}, Init: InitConfig{Value: 20},
		},
		"jittery": {
			Plant: "thermal", Integrator: "rk4", Controller: "pid", Dt: 0.5, Duration: 600,
			Seed: 1, Jitter: 0.4, Target: 60, Gains: GainsConfig{Kp: 8, Ti: 20}, Init: InitConfig{Value: 20},
		},
		"step-test": {
			Plant: "thermal", Integrator: "rk4", Controller: "manual", Dt: 0.5, Duration: 600,
			Manual: 20, Target: 40, Init: InitConfig{Value: 20},
		},
	},
	"motor": {
		"spin-up": {
			Plant: "motor", Integrator: "rk4", Controller: "pid", Dt: 0.005, Duration: 2,
			Target: 100, Gains: GainsConfig{Kp: 0.5, Ti: 0.1},
		},
		"load-step": {
			Plant: "motor", Integrator: "rk4", Controller: "pid", Dt: 0.005, Duration: 2,
			Target: 100, Gains: GainsConfig{Kp: 0.5, Ti: 0.1},
			PlantParams: map[string]float64{"load": 2},
		},
	},
	"spring_mass": {
		"position": {
			Plant: "spring_mass", Integrator: "rk4", Controller: "pid", Dt: 0.01, Duration: 20,
			Target: 1, Gains: GainsConfig{Kp: 20, Ti: 2, Td: -0.15},
		},
		"open-loop": {
			Plant: "spring_mass", Integrator: "rk4", Controller: "none", Dt: 0.01, Duration: 20,
			Init: InitConfig{Value: 1},
		},
	},
}

// GetPreset returns a copy of the named preset.
func GetPreset(plant, preset string) (*Config, error) {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil, fmt.Errorf("%w: no presets for plant %q", ErrUnknownPreset, plant)
	}
	cfg, ok := plantPresets[preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, preset, ListPresets(plant))
	}
	c := *cfg
	if cfg.PlantParams != nil {
		c.PlantParams = make(map[string]float64, len(cfg.PlantParams))
		for k, v := range cfg.PlantParams {
			c.PlantParams[k] = v
		}
	}
	return &c, nil
}

// ListPresets returns the preset names for plant in sorted order.
func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultPresets = map[string]string{
	"thermal":     "warmup",
	"motor":       "spin-up",
	"spring_mass": "position",
}

// ForPlant returns the default preset of plant, or the package defaults
// with Plant set when the plant has no presets.
func ForPlant(plant string) *Config {
	if name, ok := defaultPresets[plant]; ok {
		if cfg, err := GetPreset(plant, name); err == nil {
			return cfg
		}
	}
	cfg := DefaultConfig()
	cfg.Plant = plant
	return cfg
}
