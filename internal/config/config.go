package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/san-kum/dynjoint/internal/joint"
	"github.com/san-kum/dynjoint/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt    = 0.02
	DefaultSteps = 300

	EngineWorld  = "world"
	EnginePlanar = "planar"
)

var ErrInvalid = errors.New("config: invalid scenario")

type Config struct {
	Name        string         `yaml:"name"`
	Variant     joint.Variant  `yaml:"variant"`
	Engine      string         `yaml:"engine"`
	Dt          float64        `yaml:"dt"`
	Steps       int            `yaml:"steps"`
	Source      PartConfig     `yaml:"source"`
	Target      PartConfig     `yaml:"target"`
	Link        joint.Settings `yaml:"link"`
	Pull        PullConfig     `yaml:"pull"`
	Unbreakable []Window       `yaml:"unbreakable"`
}

type PartConfig struct {
	Name     string     `yaml:"name"`
	Position [3]float64 `yaml:"position,flow"`
}

func (p PartConfig) Pose() physics.Pose {
	return physics.NewPose(p.Position[0], p.Position[1], p.Position[2])
}

// PullConfig moves the target end away from the source at Rate units per
// second, starting at Start seconds.
type PullConfig struct {
	Start float64 `yaml:"start"`
	Rate  float64 `yaml:"rate"`
}

// Window is a [From, To) time span in seconds during which the link is
// made unbreakable.
type Window struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
}

func (w Window) Contains(t float64) bool {
	return t >= w.From && t < w.To
}

func DefaultConfig() *Config {
	return &Config{
		Name:    "default",
		Variant: joint.VariantTwoEndsSphere,
		Engine:  EngineWorld,
		Dt:      DefaultDt,
		Steps:   DefaultSteps,
		Source:  PartConfig{Name: "A", Position: [3]float64{0, 0, 0}},
		Target:  PartConfig{Name: "B", Position: [3]float64{0, 0, 5}},
		Link: joint.Settings{
			SourceAngleLimit: 20,
			TargetAngleLimit: 20,
			MinLinkLength:    1,
			MaxLinkLength:    6,
			LinkSpring:       math.Inf(1),
			LinkDamper:       0.1,
			LinkBreakForce:   500,
			LinkBreakTorque:  500,
		},
		Pull:        PullConfig{Start: 0.5, Rate: 2},
		Unbreakable: []Window{{From: 0, To: 0.25}},
	}
}

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

func (c *Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalid, c.Steps)
	}
	if c.Engine != EngineWorld && c.Engine != EnginePlanar {
		return fmt.Errorf("%w: unknown engine %q", ErrInvalid, c.Engine)
	}
	if !slices.Contains(joint.Variants(), c.Variant) {
		return fmt.Errorf("%w: %w: %q", ErrInvalid, joint.ErrUnknownVariant, c.Variant)
	}
	if c.Source.Position == c.Target.Position {
		return fmt.Errorf("%w: source and target coincide", ErrInvalid)
	}
	if math.IsNaN(c.Pull.Rate) || math.IsInf(c.Pull.Rate, 0) {
		return fmt.Errorf("%w: pull rate must be finite", ErrInvalid)
	}
	for i, w := range c.Unbreakable {
		if w.From > w.To {
			return fmt.Errorf("%w: unbreakable window %d ends before it starts", ErrInvalid, i)
		}
	}
	if err := c.Link.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// UnbreakableAt reports whether t falls inside any unbreakable window.
func (c *Config) UnbreakableAt(t float64) bool {
	return slices.ContainsFunc(c.Unbreakable, func(w Window) bool { return w.Contains(t) })
}

// Duration is the simulated time covered by Steps.
func (c *Config) Duration() float64 {
	return float64(c.Steps) * c.Dt
}

func (c *Config) Clone() *Config {
	out := *c
	out.Unbreakable = slices.Clone(c.Unbreakable)
	return &out
}
