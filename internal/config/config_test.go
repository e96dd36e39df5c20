package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Plant != "thermal" {
		t.Errorf("expected plant thermal, got %s", cfg.Plant)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"negative jitter", func(c *Config) { c.Jitter = -0.1 }},
		{"full jitter", func(c *Config) { c.Jitter = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateAcceptsAnyGains(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gains = GainsConfig{Kp: -3, Ti: 0, Td: -0.5}
	if err := cfg.Validate(); err != nil {
		t.Errorf("negative gains rejected: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.yaml")
	data := []byte("plant: motor\ngains:\n  kp: 0.5\n  ti: 0.1\ntarget: 100\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Plant != "motor" || cfg.Target != 100 {
		t.Errorf("got plant=%s target=%v", cfg.Plant, cfg.Target)
	}
	if cfg.Gains.Kp != 0.5 || cfg.Gains.Ti != 0.1 || cfg.Gains.Td != 0 {
		t.Errorf("gains = %+v", cfg.Gains)
	}
	if cfg.Dt != DefaultDt || cfg.Integrator != DefaultIntegrator {
		t.Errorf("defaults not kept: dt=%v integrator=%s", cfg.Dt, cfg.Integrator)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gains: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.yaml")

	cfg, err := GetPreset("motor", "load-step")
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestGetPreset(t *testing.T) {
	cfg, err := GetPreset("spring_mass", "position")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gains.Td != -0.15 {
		t.Errorf("expected td -0.15, got %v", cfg.Gains.Td)
	}

	cfg.Gains.Kp = 0
	again, _ := GetPreset("spring_mass", "position")
	if again.Gains.Kp == 0 {
		t.Error("GetPreset returned a shared preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if _, err := GetPreset("thermal", "nonexistent"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("got %v, want ErrUnknownPreset", err)
	}
	if _, err := GetPreset("nonexistent", "warmup"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("got %v, want ErrUnknownPreset", err)
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("thermal")
	want := []string{"jittery", "proportional", "step-test", "warmup"}
	if len(presets) != len(want) {
		t.Fatalf("got %v, want %v", presets, want)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("presets[%d] = %s, want %s", i, presets[i], want[i])
		}
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent plant")
	}
}

func TestInitState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Init = InitConfig{Value: 3, Rate: -1}

	tests := []struct {
		dim  int
		want []float64
	}{
		{1, []float64{3}},
		{2, []float64{3, -1}},
		{3, []float64{3, -1, 0}},
	}

	for _, tt := range tests {
		got := cfg.InitState(tt.dim)
		if len(got) != len(tt.want) {
			t.Fatalf("dim %d: got %v", tt.dim, got)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("dim %d: got %v, want %v", tt.dim, got, tt.want)
			}
		}
	}
}

func TestForPlant(t *testing.T) {
	for plant := range Presets {
		cfg := ForPlant(plant)
		if cfg.Plant != plant {
			t.Errorf("ForPlant(%s).Plant = %s", plant, cfg.Plant)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("ForPlant(%s): %v", plant, err)
		}
	}

	cfg := ForPlant("furnace")
	if cfg.Plant != "furnace" || cfg.Gains.Kp != DefaultKp {
		t.Errorf("got %+v", cfg)
	}
}
