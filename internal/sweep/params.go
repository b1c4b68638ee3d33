package sweep

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/san-kum/dynjoint/internal/config"
)

var (
	ErrUnknownParam = errors.New("sweep: unknown parameter")
	ErrBadAxis      = errors.New("sweep: bad axis")
)

type setter func(c *config.Config, v float64)

var params = map[string]setter{
	"pull_rate":          func(c *config.Config, v float64) { c.Pull.Rate = v },
	"pull_start":         func(c *config.Config, v float64) { c.Pull.Start = v },
	"source_angle_limit": func(c *config.Config, v float64) { c.Link.SourceAngleLimit = v },
	"target_angle_limit": func(c *config.Config, v float64) { c.Link.TargetAngleLimit = v },
	"min_length":         func(c *config.Config, v float64) { c.Link.MinLinkLength = v },
	"max_length":         func(c *config.Config, v float64) { c.Link.MaxLinkLength = v },
	"spring":             func(c *config.Config, v float64) { c.Link.LinkSpring = v },
	"damper":             func(c *config.Config, v float64) { c.Link.LinkDamper = v },
	"break_force":        func(c *config.Config, v float64) { c.Link.LinkBreakForce = v },
	"break_torque":       func(c *config.Config, v float64) { c.Link.LinkBreakTorque = v },
	"dt":                 func(c *config.Config, v float64) { c.Dt = v },
}

// Params lists the names Apply accepts.
func Params() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply sets a named parameter on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	set(cfg, v)
	return nil
}

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Param  string
	Values []float64
}

// Linspace returns count evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, count int) []float64 {
	if count <= 1 {
		return []float64{lo}
	}
	out := make([]float64, count)
	step := (hi - lo) / float64(count-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[count-1] = hi
	return out
}

// ParseAxis reads "name=lo:hi:count" or "name=v1,v2,...". Values may be
// "inf".
func ParseAxis(s string) (Axis, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" || rest == "" {
		return Axis{}, fmt.Errorf("%w: %q", ErrBadAxis, s)
	}
	if _, ok := params[name]; !ok {
		return Axis{}, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}

	if parts := strings.Split(rest, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		count, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil || count < 1 {
			return Axis{}, fmt.Errorf("%w: %q", ErrBadAxis, s)
		}
		return Axis{Param: name, Values: Linspace(lo, hi, count)}, nil
	}

	var values []float64
	for _, p := range strings.Split(rest, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("%w: %q: %v", ErrBadAxis, s, err)
		}
		values = append(values, v)
	}
	return Axis{Param: name, Values: values}, nil
}
