package config

import (
	"maps"
	"slices"

	"github.com/san-kum/dynjoint/internal/joint"
)

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"locked": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "locked"
		cfg.Unbreakable = []Window{{From: 0, To: cfg.Duration()}}
		return cfg
	},
	"soft": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "soft"
		cfg.Link.LinkSpring = 200
		cfg.Link.LinkDamper = 0.5
		cfg.Pull.Rate = 1
		return cfg
	},
	"rigid": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "rigid"
		cfg.Variant = joint.VariantRigid
		return cfg
	},
	"planar": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "planar"
		cfg.Engine = EnginePlanar
		cfg.Dt = 1.0 / 60
		cfg.Steps = 360
		return cfg
	},
}

func GetPreset(name string) *Config {
	mk, ok := Presets[name]
	if !ok {
		return nil
	}
	return mk()
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
