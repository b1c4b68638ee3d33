package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Util builds canonical constraint parameters. It carries no state; the zero
// value is ready to use.
type Util struct{}

// MotionFor maps an angular limit in degrees to a motion mode: 0 locks,
// +Inf frees, anything else limits.
func (Util) MotionFor(limit float64) Motion {
	switch {
	case limit <= 0:
		return MotionLocked
	case math.IsInf(limit, 1):
		return MotionFree
	default:
		return MotionLimited
	}
}

// Spherical configures a rotation-only end constraint.
func (u Util) Spherical(connected BodyID, angleLimit, breakForce, breakTorque float64) Params {
	if angleLimit < 0 {
		angleLimit = 0
	}
	return Params{
		Kind:                KindSphericalEnd,
		Anchor:              mgl64.Vec3{},
		ConnectedBody:       connected,
		AngularMotion:       u.MotionFor(angleLimit),
		AngleLimit:          angleLimit,
		LinearMotion:        MotionLocked,
		Spring:              0,
		Damper:              0,
		BreakForce:          breakForce,
		BreakTorque:         breakTorque,
		EnablePreprocessing: true,
	}
}

// Linear configures a connector that only resists stretch and compression
// outside [min, max]. Torque never breaks it.
func (u Util) Linear(connected BodyID, min, max, spring, damper, breakForce float64) Params {
	return Params{
		Kind:                KindLinearConnector,
		Anchor:              mgl64.Vec3{},
		ConnectedBody:       connected,
		AngularMotion:       MotionLocked,
		LinearMotion:        MotionLimited,
		LinearMin:           min,
		LinearMax:           max,
		Spring:              spring,
		Damper:              damper,
		BreakForce:          breakForce,
		BreakTorque:         math.Inf(1),
		EnablePreprocessing: true,
	}
}

// Fixed configures a joint with no relative motion at all.
func (u Util) Fixed(connected BodyID, breakForce, breakTorque float64) Params {
	return Params{
		Kind:                KindFixed,
		ConnectedBody:       connected,
		AngularMotion:       MotionLocked,
		LinearMotion:        MotionLocked,
		BreakForce:          breakForce,
		BreakTorque:         breakTorque,
		EnablePreprocessing: true,
	}
}

// Unbreakable returns p with both break thresholds set to infinity.
func (Util) Unbreakable(p Params) Params {
	p.BreakForce = math.Inf(1)
	p.BreakTorque = math.Inf(1)
	return p
}
