package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dynjoint/internal/joint"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Variant != joint.VariantTwoEndsSphere {
		t.Errorf("expected two_ends_sphere, got %s", cfg.Variant)
	}
	if !math.IsInf(cfg.Link.LinkSpring, 1) {
		t.Errorf("expected a rigid spring, got %f", cfg.Link.LinkSpring)
	}
	if cfg.Link.LinkDamper != 0.1 {
		t.Errorf("expected damper 0.1, got %f", cfg.Link.LinkDamper)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := `
name: stretch
engine: planar
steps: 50
target: {name: far, position: [0, 0, 8]}
link:
  max_length: 9
  spring: .inf
  break_force: 40
unbreakable:
  - {from: 0.1, to: 0.3}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "stretch" || cfg.Engine != EnginePlanar || cfg.Steps != 50 {
		t.Errorf("unexpected header %+v", cfg)
	}
	if cfg.Target.Position != [3]float64{0, 0, 8} {
		t.Errorf("expected target at z=8, got %v", cfg.Target.Position)
	}
	if cfg.Link.MaxLinkLength != 9 || cfg.Link.LinkBreakForce != 40 || !math.IsInf(cfg.Link.LinkSpring, 1) {
		t.Errorf("unexpected link %+v", cfg.Link)
	}
	// untouched fields keep their defaults
	if cfg.Dt != DefaultDt || cfg.Link.MinLinkLength != 1 {
		t.Errorf("expected defaults to survive, got dt=%f min=%f", cfg.Dt, cfg.Link.MinLinkLength)
	}
	if len(cfg.Unbreakable) != 1 || !cfg.UnbreakableAt(0.2) || cfg.UnbreakableAt(0.3) {
		t.Errorf("unexpected windows %v", cfg.Unbreakable)
	}
}

func TestSaveLoadKeepsInfinity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatalf("save: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !math.IsInf(cfg.Link.LinkSpring, 1) {
		t.Errorf("expected +Inf spring, got %f", cfg.Link.LinkSpring)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, ErrInvalid},
		{"no steps", func(c *Config) { c.Steps = 0 }, ErrInvalid},
		{"engine", func(c *Config) { c.Engine = "bullet" }, ErrInvalid},
		{"variant", func(c *Config) { c.Variant = "hinge" }, joint.ErrUnknownVariant},
		{"coincident", func(c *Config) { c.Target.Position = c.Source.Position }, ErrInvalid},
		{"window", func(c *Config) { c.Unbreakable = []Window{{From: 2, To: 1}} }, ErrInvalid},
		{"link", func(c *Config) { c.Link.MinLinkLength = 10 }, joint.ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("locked")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.UnbreakableAt(cfg.Duration() - cfg.Dt) {
		t.Error("locked preset should be unbreakable for the whole run")
	}

	// presets hand out fresh copies
	cfg.Steps = 1
	if GetPreset("locked").Steps == 1 {
		t.Error("preset was mutated through a previous result")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
