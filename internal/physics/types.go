package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type (
	ObjectID     uint64
	BodyID       uint64
	ConstraintID uint64
)

// Pose is a world-space position and orientation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func NewPose(x, y, z float64) Pose {
	return Pose{Position: mgl64.Vec3{x, y, z}, Rotation: mgl64.QuatIdent()}
}

type Kind int

const (
	KindSphericalEnd Kind = iota + 1
	KindLinearConnector
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindSphericalEnd:
		return "spherical-end"
	case KindLinearConnector:
		return "linear-connector"
	case KindFixed:
		return "fixed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Motion int

const (
	MotionLocked Motion = iota
	MotionLimited
	MotionFree
)

func (m Motion) String() string {
	switch m {
	case MotionLocked:
		return "locked"
	case MotionLimited:
		return "limited"
	case MotionFree:
		return "free"
	default:
		return fmt.Sprintf("motion(%d)", int(m))
	}
}

// Params holds every mutable parameter of a constraint. Angles are in
// degrees, infinity is math.Inf(1).
type Params struct {
	Kind          Kind
	Anchor        mgl64.Vec3
	ConnectedBody BodyID

	AngularMotion Motion
	AngleLimit    float64

	LinearMotion Motion
	LinearMin    float64
	LinearMax    float64

	Spring float64
	Damper float64

	BreakForce  float64
	BreakTorque float64

	EnablePreprocessing bool
}

// Unbreakable reports whether both thresholds are infinite.
func (p Params) Unbreakable() bool {
	return math.IsInf(p.BreakForce, 1) && math.IsInf(p.BreakTorque, 1)
}

// Load is the force and torque a constraint carried during the last step.
type Load struct {
	Force  float64
	Torque float64
}

// Exceeds reports whether the load trips the break thresholds in p.
// Comparisons are strict so an infinite threshold never trips.
func (l Load) Exceeds(p Params) bool {
	return l.Force > p.BreakForce || l.Torque > p.BreakTorque
}
