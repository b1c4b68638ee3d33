// Package planar implements physics.Engine on top of the chipmunk port
// github.com/jakecoffman/cp.
//
// The simulation runs in a vertical plane: world X maps to cp X and world Z
// maps to cp Y. World Y and the full 3D rotation of each object are kept as
// metadata so poses survive a round trip unchanged.
package planar

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/san-kum/dynjoint/internal/physics"
)

const (
	DefaultMass   = 1.0
	DefaultRadius = 0.5
	iterations    = 20

	// driftLimit is how far the pivot of a locked linear axis may open before
	// the solver is considered beaten and the axis overloaded.
	driftLimit = 0.1
)

var _ physics.Engine = (*Space)(nil)

type object struct {
	name     string
	pose     physics.Pose
	body     *cp.Body
	bodyID   physics.BodyID
	groups   []physics.ConstraintID
	listener physics.BreakListener
}

type part struct {
	c      *cp.Constraint
	rotary bool
}

// group is the set of cp constraints that realise one logical constraint.
type group struct {
	owner   physics.ObjectID
	params  physics.Params
	anchorB cp.Vector
	parts   []part
	load    physics.Load
}

// Space is a physics.Engine backed by a cp.Space. It is not safe for
// concurrent use.
type Space struct {
	space   *cp.Space
	objects map[physics.ObjectID]*object
	bodies  map[physics.BodyID]physics.ObjectID
	groups  map[physics.ConstraintID]*group

	nextObject     physics.ObjectID
	nextBody       physics.BodyID
	nextConstraint physics.ConstraintID
}

func New() *Space {
	space := cp.NewSpace()
	space.Iterations = iterations
	return &Space{
		space:   space,
		objects: make(map[physics.ObjectID]*object),
		bodies:  make(map[physics.BodyID]physics.ObjectID),
		groups:  make(map[physics.ConstraintID]*group),
	}
}

// CP exposes the underlying space.
func (s *Space) CP() *cp.Space { return s.space }

func toPlane(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Z()}
}

func (s *Space) CreateObject(name string, pose physics.Pose) (physics.ObjectID, error) {
	if pose.Rotation == (mgl64.Quat{}) {
		pose.Rotation = mgl64.QuatIdent()
	}
	s.nextObject++
	id := s.nextObject
	s.objects[id] = &object{name: name, pose: pose}
	return id, nil
}

// SpawnPart creates an object with a body in one call.
func (s *Space) SpawnPart(name string, pose physics.Pose) (physics.ObjectID, physics.BodyID, error) {
	obj, err := s.CreateObject(name, pose)
	if err != nil {
		return 0, 0, err
	}
	body, err := s.AddBody(obj)
	if err != nil {
		return 0, 0, err
	}
	return obj, body, nil
}

func (s *Space) DestroyObject(id physics.ObjectID) error {
	obj, ok := s.objects[id]
	if !ok {
		return physics.StaleObject(id)
	}
	for _, gid := range slices.Clone(obj.groups) {
		s.removeGroup(gid)
	}
	if obj.body != nil {
		for _, gid := range slices.Sorted(maps.Keys(s.groups)) {
			if g, ok := s.groups[gid]; ok && g.params.ConnectedBody == obj.bodyID {
				s.removeGroup(gid)
			}
		}
		if s.space.ContainsBody(obj.body) {
			s.space.RemoveBody(obj.body)
		}
		delete(s.bodies, obj.bodyID)
	}
	delete(s.objects, id)
	return nil
}

func (s *Space) ObjectPose(id physics.ObjectID) (physics.Pose, error) {
	obj, ok := s.objects[id]
	if !ok {
		return physics.Pose{}, physics.StaleObject(id)
	}
	pose := obj.pose
	if obj.body != nil {
		p := obj.body.Position()
		pose.Position = mgl64.Vec3{p.X, pose.Position.Y(), p.Y}
	}
	return pose, nil
}

func (s *Space) SetObjectRotation(id physics.ObjectID, rot mgl64.Quat) error {
	obj, ok := s.objects[id]
	if !ok {
		return physics.StaleObject(id)
	}
	obj.pose.Rotation = rot
	return nil
}

// Translate moves an object by delta; the out-of-plane component is kept as
// metadata only.
func (s *Space) Translate(id physics.ObjectID, delta mgl64.Vec3) error {
	obj, ok := s.objects[id]
	if !ok {
		return physics.StaleObject(id)
	}
	pose, _ := s.ObjectPose(id)
	obj.pose.Position = pose.Position.Add(delta)
	if obj.body != nil {
		obj.body.SetPosition(toPlane(obj.pose.Position))
	}
	return nil
}

func (s *Space) AddBody(id physics.ObjectID) (physics.BodyID, error) {
	obj, ok := s.objects[id]
	if !ok {
		return 0, physics.StaleObject(id)
	}
	if obj.body != nil {
		return 0, fmt.Errorf("%w: object #%d", physics.ErrBodyExists, id)
	}
	body := cp.NewBody(DefaultMass, cp.MomentForCircle(DefaultMass, 0, DefaultRadius, cp.Vector{}))
	s.space.AddBody(body)
	body.SetPosition(toPlane(obj.pose.Position))

	s.nextBody++
	obj.body, obj.bodyID = body, s.nextBody
	s.bodies[obj.bodyID] = id
	return obj.bodyID, nil
}

func (s *Space) HasBody(id physics.BodyID) bool {
	_, ok := s.bodies[id]
	return ok
}

func (s *Space) bodyOf(id physics.BodyID) (*cp.Body, error) {
	oid, ok := s.bodies[id]
	if !ok {
		return nil, physics.StaleBody(id)
	}
	return s.objects[oid].body, nil
}

func (s *Space) AddConstraint(owner physics.ObjectID, p physics.Params) (physics.ConstraintID, error) {
	obj, ok := s.objects[owner]
	if !ok {
		return 0, physics.StaleObject(owner)
	}
	if obj.body == nil {
		return 0, fmt.Errorf("%w: object #%d", physics.ErrNoBody, owner)
	}
	other, err := s.bodyOf(p.ConnectedBody)
	if err != nil {
		return 0, err
	}

	s.nextConstraint++
	id := s.nextConstraint
	g := &group{
		owner:   owner,
		params:  p,
		anchorB: other.WorldToLocal(obj.body.Position()),
	}
	s.groups[id] = g
	obj.groups = append(obj.groups, id)
	s.build(id, g, obj.body, other)
	return id, nil
}

func (s *Space) Params(id physics.ConstraintID) (physics.Params, error) {
	g, ok := s.groups[id]
	if !ok {
		return physics.Params{}, physics.StaleConstraint(id)
	}
	return g.params, nil
}

// SetParams updates a constraint. Threshold-only changes keep the cp joints
// and their warm-started impulses; anything else rebuilds them.
func (s *Space) SetParams(id physics.ConstraintID, p physics.Params) error {
	g, ok := s.groups[id]
	if !ok {
		return physics.StaleConstraint(id)
	}
	if sameShape(g.params, p) {
		g.params = p
		return nil
	}
	other, err := s.bodyOf(p.ConnectedBody)
	if err != nil {
		return err
	}
	s.clearParts(g)
	g.params = p
	s.build(id, g, s.objects[g.owner].body, other)
	return nil
}

func (s *Space) RemoveConstraint(id physics.ConstraintID) error {
	if _, ok := s.groups[id]; !ok {
		return physics.StaleConstraint(id)
	}
	s.removeGroup(id)
	return nil
}

func (s *Space) Subscribe(id physics.ObjectID, l physics.BreakListener) error {
	obj, ok := s.objects[id]
	if !ok {
		return physics.StaleObject(id)
	}
	obj.listener = l
	return nil
}

func (s *Space) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, g := range s.groups {
		g.load = physics.Load{}
	}
	s.space.Step(dt)
	s.checkDrift()
}

// checkDrift gives every locked linear axis whose pivot has opened past
// driftLimit an infinite load and breaks it unless it is unbreakable.
func (s *Space) checkDrift() {
	for _, id := range slices.Sorted(maps.Keys(s.groups)) {
		g, ok := s.groups[id]
		if !ok || g.params.LinearMotion != physics.MotionLocked {
			continue
		}
		if s.drift(g) <= driftLimit {
			continue
		}
		g.load.Force = math.Inf(1)
		if g.load.Exceeds(g.params) {
			s.breakGroup(s.space, id, nil)
		}
	}
}

// drift is the gap between the two anchors of a group's pivot.
func (s *Space) drift(g *group) float64 {
	other, err := s.bodyOf(g.params.ConnectedBody)
	if err != nil {
		return 0
	}
	a := s.objects[g.owner].body.LocalToWorld(toPlane(g.params.Anchor))
	return a.Distance(other.LocalToWorld(g.anchorB))
}

// Load reports the peak force and torque a constraint carried during the
// last Step.
func (s *Space) Load(id physics.ConstraintID) (physics.Load, error) {
	g, ok := s.groups[id]
	if !ok {
		return physics.Load{}, physics.StaleConstraint(id)
	}
	return g.load, nil
}

// Distance is the in-plane separation of a constraint's two bodies.
func (s *Space) Distance(id physics.ConstraintID) (float64, error) {
	g, ok := s.groups[id]
	if !ok {
		return 0, physics.StaleConstraint(id)
	}
	other, err := s.bodyOf(g.params.ConnectedBody)
	if err != nil {
		return 0, err
	}
	return s.objects[g.owner].body.Position().Distance(other.Position()), nil
}

// Counts reports live objects, bodies and logical constraints.
func (s *Space) Counts() (objects, bodies, constraints int) {
	return len(s.objects), len(s.bodies), len(s.groups)
}

// Joints counts the cp constraints currently in the space.
func (s *Space) Joints() int {
	n := 0
	s.space.EachConstraint(func(*cp.Constraint) { n++ })
	return n
}

func (s *Space) build(id physics.ConstraintID, g *group, a, b *cp.Body) {
	p := g.params
	var parts []part

	switch p.Kind {
	case physics.KindLinearConnector:
		lo, hi := finite(p.LinearMin), finite(p.LinearMax)
		if math.IsInf(p.Spring, 1) {
			parts = append(parts, part{c: cp.NewSlideJoint(a, b, cp.Vector{}, cp.Vector{}, lo, hi)})
		} else if p.Spring > 0 {
			parts = append(parts, part{c: boundedSpring(a, b, lo, hi, p.Spring, p.Damper)})
		}
	default:
		parts = append(parts, part{c: cp.NewPivotJoint2(a, b, toPlane(p.Anchor), g.anchorB)})
	}

	switch p.AngularMotion {
	case physics.MotionLocked:
		parts = append(parts, part{c: cp.NewRotaryLimitJoint(a, b, 0, 0), rotary: true})
	case physics.MotionLimited:
		lim := mgl64.DegToRad(p.AngleLimit)
		parts = append(parts, part{c: cp.NewRotaryLimitJoint(a, b, -lim, lim), rotary: true})
	}

	for _, pt := range parts {
		pt.c.PostSolve = s.watch(id, pt.rotary)
		pt.c.SetCollideBodies(false)
		s.space.AddConstraint(pt.c)
	}
	g.parts = parts
}

// boundedSpring only pushes back once the distance leaves [lo, hi].
func boundedSpring(a, b *cp.Body, lo, hi, k, zeta float64) *cp.Constraint {
	c := cp.NewDampedSpring(a, b, cp.Vector{}, cp.Vector{}, hi, k, zeta*2*math.Sqrt(k*DefaultMass))
	spring := c.Class.(*cp.DampedSpring)
	spring.SpringForceFunc = func(sp *cp.DampedSpring, dist float64) float64 {
		switch {
		case dist > hi:
			return (hi - dist) * sp.Stiffness
		case dist < lo:
			return (lo - dist) * sp.Stiffness
		default:
			return 0
		}
	}
	return c
}

// watch converts the solver impulse into force or torque and schedules a
// break once a threshold is exceeded. Removal has to wait for the post-step
// phase because the space is locked while constraints are solved.
func (s *Space) watch(id physics.ConstraintID, rotary bool) cp.ConstraintPostSolveFunc {
	return func(c *cp.Constraint, space *cp.Space) {
		g, ok := s.groups[id]
		if !ok {
			return
		}
		dt := space.TimeStep()
		if dt <= 0 {
			return
		}
		v := c.Class.GetImpulse() / dt
		if rotary {
			g.load.Torque = math.Max(g.load.Torque, v)
		} else {
			g.load.Force = math.Max(g.load.Force, v)
		}
		if g.load.Exceeds(g.params) {
			space.AddPostStepCallback(s.breakGroup, id, nil)
		}
	}
}

func (s *Space) breakGroup(_ *cp.Space, key, _ interface{}) {
	id := key.(physics.ConstraintID)
	g, ok := s.groups[id]
	if !ok {
		return
	}
	force := g.load.Force
	owner := g.owner
	s.removeGroup(id)
	if obj, ok := s.objects[owner]; ok && obj.listener != nil {
		obj.listener.OnJointBreak(force)
	}
}

func (s *Space) clearParts(g *group) {
	for _, pt := range g.parts {
		if s.space.ContainsConstraint(pt.c) {
			s.space.RemoveConstraint(pt.c)
		}
	}
	g.parts = nil
}

func (s *Space) removeGroup(id physics.ConstraintID) {
	g, ok := s.groups[id]
	if !ok {
		return
	}
	s.clearParts(g)
	delete(s.groups, id)
	if obj, ok := s.objects[g.owner]; ok {
		obj.groups = slices.DeleteFunc(obj.groups, func(x physics.ConstraintID) bool { return x == id })
	}
}

// sameShape reports whether two parameter sets differ only in break
// thresholds or the preprocessing flag.
func sameShape(a, b physics.Params) bool {
	a.BreakForce, a.BreakTorque, a.EnablePreprocessing = 0, 0, false
	b.BreakForce, b.BreakTorque, b.EnablePreprocessing = 0, 0, false
	return a == b
}

func finite(v float64) float64 {
	if math.IsInf(v, 1) {
		return cp.INFINITY
	}
	return v
}
