package joint

import (
	"fmt"
	"math"
)

// Settings are the tunables of a link, read at CreateJoint time. Angles are
// in degrees and +Inf means unbounded.
type Settings struct {
	SourceAngleLimit float64 `yaml:"source_angle_limit"`
	TargetAngleLimit float64 `yaml:"target_angle_limit"`
	MinLinkLength    float64 `yaml:"min_length"`
	MaxLinkLength    float64 `yaml:"max_length"`
	LinkSpring       float64 `yaml:"spring"`
	LinkDamper       float64 `yaml:"damper"`
	LinkBreakForce   float64 `yaml:"break_force"`
	LinkBreakTorque  float64 `yaml:"break_torque"`
}

// DefaultSettings is a rigid, unbreakable link with locked ends and a 10%
// damper.
func DefaultSettings() Settings {
	inf := math.Inf(1)
	return Settings{
		MaxLinkLength:   inf,
		LinkSpring:      inf,
		LinkDamper:      0.1,
		LinkBreakForce:  inf,
		LinkBreakTorque: inf,
	}
}

func (s Settings) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"source_angle_limit", s.SourceAngleLimit},
		{"target_angle_limit", s.TargetAngleLimit},
		{"min_length", s.MinLinkLength},
		{"max_length", s.MaxLinkLength},
		{"spring", s.LinkSpring},
		{"damper", s.LinkDamper},
		{"break_force", s.LinkBreakForce},
		{"break_torque", s.LinkBreakTorque},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) {
			return fmt.Errorf("%w: %s is NaN", ErrInvalidSettings, f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidSettings, f.name, f.v)
		}
	}
	if math.IsInf(s.MinLinkLength, 1) {
		return fmt.Errorf("%w: min_length must be finite", ErrInvalidSettings)
	}
	if s.MinLinkLength > s.MaxLinkLength {
		return fmt.Errorf("%w: min_length %g exceeds max_length %g", ErrInvalidSettings, s.MinLinkLength, s.MaxLinkLength)
	}
	if s.LinkDamper > 1 {
		return fmt.Errorf("%w: damper must be within [0,1], got %g", ErrInvalidSettings, s.LinkDamper)
	}
	return nil
}
