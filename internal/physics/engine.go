package physics

import "github.com/go-gl/mathgl/mgl64"

// BreakListener receives the force that broke a constraint owned by the
// object it is subscribed to.
type BreakListener interface {
	OnJointBreak(force float64)
}

// BreakFunc adapts a plain function to BreakListener.
type BreakFunc func(force float64)

func (f BreakFunc) OnJointBreak(force float64) { f(force) }

// Engine is the physics backend consumed by the joint package.
type Engine interface {
	CreateObject(name string, pose Pose) (ObjectID, error)
	// DestroyObject removes the object, its body, every constraint it owns
	// and its listener.
	DestroyObject(id ObjectID) error
	ObjectPose(id ObjectID) (Pose, error)
	SetObjectRotation(id ObjectID, rot mgl64.Quat) error

	AddBody(id ObjectID) (BodyID, error)
	HasBody(id BodyID) bool

	AddConstraint(owner ObjectID, p Params) (ConstraintID, error)
	Params(id ConstraintID) (Params, error)
	SetParams(id ConstraintID, p Params) error
	RemoveConstraint(id ConstraintID) error

	// Subscribe installs the single break listener of an object, replacing
	// any previous one.
	Subscribe(id ObjectID, l BreakListener) error

	Step(dt float64)
}
