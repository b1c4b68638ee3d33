// Package joint builds and maintains link assemblies between two parts.
//
// The main variant, TwoEndsSphere, joins the parts with three constraints:
// a spherical end constraint at each attach point and a linear connector
// between the two end bodies. Each constraint's parameters are captured in a
// JointState right after construction so that a temporary unbreakable
// override can be undone exactly.
//
// Break notifications from the engine reach the owning part through a Host.
// The joint package never decides whether a part detaches; it only forwards.
//
// Everything here runs on the simulation goroutine. Break callbacks fire from
// inside Engine.Step and may call DropJoint.
package joint
