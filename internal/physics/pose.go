package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// Forward is the local axis a LookAt rotation points at the target.
	Forward = mgl64.Vec3{0, 0, -1}
	Up      = mgl64.Vec3{0, 1, 0}
)

const minLookDistance = 1e-9

// LookAt returns the rotation that turns Forward from `from` towards `to`,
// rolled so the local up axis stays as close to Up as possible.
// ok is false when the points coincide and no direction exists.
func LookAt(from, to mgl64.Vec3) (mgl64.Quat, bool) {
	dir := to.Sub(from)
	if dir.Len() < minLookDistance {
		return mgl64.QuatIdent(), false
	}
	dir = dir.Normalize()

	rot := mgl64.QuatBetweenVectors(Forward, dir)

	want := Up.Sub(dir.Mul(Up.Dot(dir)))
	if want.Len() < 1e-6 {
		return rot.Normalize(), true
	}
	want = want.Normalize()
	have := rot.Rotate(Up)

	var roll mgl64.Quat
	if have.Dot(want) < -0.999 {
		roll = mgl64.QuatRotate(math.Pi, dir)
	} else {
		roll = mgl64.QuatBetweenVectors(have, want)
	}
	return roll.Mul(rot).Normalize(), true
}

// Facing reports the world direction of the Forward axis under rot.
func Facing(rot mgl64.Quat) mgl64.Vec3 {
	return rot.Rotate(Forward)
}
