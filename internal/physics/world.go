package physics

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

var _ Engine = (*World)(nil)

type object struct {
	name        string
	pose        Pose
	body        BodyID
	constraints []ConstraintID
	listener    BreakListener
}

type constraint struct {
	owner    ObjectID
	params   Params
	applied  Load
	load     Load
	rest     float64
	lastDist float64
	measured bool
}

// driftTolerance is how far a locked linear axis may stray from its rest
// separation before it carries load.
const driftTolerance = 1e-9

// World is the reference Engine. Objects never move on their own; callers
// move them with Translate and the next Step turns the resulting geometry
// into constraint loads.
type World struct {
	objects     map[ObjectID]*object
	bodies      map[BodyID]ObjectID
	constraints map[ConstraintID]*constraint

	nextObject     ObjectID
	nextBody       BodyID
	nextConstraint ConstraintID

	time float64
}

func NewWorld() *World {
	return &World{
		objects:     make(map[ObjectID]*object),
		bodies:      make(map[BodyID]ObjectID),
		constraints: make(map[ConstraintID]*constraint),
	}
}

func (w *World) CreateObject(name string, pose Pose) (ObjectID, error) {
	if pose.Rotation == (mgl64.Quat{}) {
		pose.Rotation = mgl64.QuatIdent()
	}
	w.nextObject++
	id := w.nextObject
	w.objects[id] = &object{name: name, pose: pose}
	return id, nil
}

// SpawnPart creates an object with a body in one call. Scenarios use it for
// the parts an assembly attaches to.
func (w *World) SpawnPart(name string, pose Pose) (ObjectID, BodyID, error) {
	obj, err := w.CreateObject(name, pose)
	if err != nil {
		return 0, 0, err
	}
	body, err := w.AddBody(obj)
	if err != nil {
		return 0, 0, err
	}
	return obj, body, nil
}

func (w *World) DestroyObject(id ObjectID) error {
	obj, ok := w.objects[id]
	if !ok {
		return StaleObject(id)
	}
	for _, cid := range obj.constraints {
		delete(w.constraints, cid)
	}
	if obj.body != 0 {
		// Joints of other objects that pointed at this body go with it.
		for cid, c := range w.constraints {
			if c.params.ConnectedBody == obj.body {
				w.detach(cid, c)
			}
		}
		delete(w.bodies, obj.body)
	}
	delete(w.objects, id)
	return nil
}

func (w *World) detach(id ConstraintID, c *constraint) {
	delete(w.constraints, id)
	if owner, ok := w.objects[c.owner]; ok {
		owner.constraints = slices.DeleteFunc(owner.constraints, func(x ConstraintID) bool { return x == id })
	}
}

func (w *World) ObjectPose(id ObjectID) (Pose, error) {
	obj, ok := w.objects[id]
	if !ok {
		return Pose{}, StaleObject(id)
	}
	return obj.pose, nil
}

func (w *World) ObjectName(id ObjectID) (string, error) {
	obj, ok := w.objects[id]
	if !ok {
		return "", StaleObject(id)
	}
	return obj.name, nil
}

func (w *World) SetObjectRotation(id ObjectID, rot mgl64.Quat) error {
	obj, ok := w.objects[id]
	if !ok {
		return StaleObject(id)
	}
	obj.pose.Rotation = rot
	return nil
}

// Translate moves an object by delta.
func (w *World) Translate(id ObjectID, delta mgl64.Vec3) error {
	obj, ok := w.objects[id]
	if !ok {
		return StaleObject(id)
	}
	obj.pose.Position = obj.pose.Position.Add(delta)
	return nil
}

func (w *World) AddBody(id ObjectID) (BodyID, error) {
	obj, ok := w.objects[id]
	if !ok {
		return 0, StaleObject(id)
	}
	if obj.body != 0 {
		return 0, fmt.Errorf("%w: object #%d", ErrBodyExists, id)
	}
	w.nextBody++
	obj.body = w.nextBody
	w.bodies[obj.body] = id
	return obj.body, nil
}

func (w *World) HasBody(id BodyID) bool {
	_, ok := w.bodies[id]
	return ok
}

// BodyObject resolves the object a body belongs to.
func (w *World) BodyObject(id BodyID) (ObjectID, error) {
	obj, ok := w.bodies[id]
	if !ok {
		return 0, StaleBody(id)
	}
	return obj, nil
}

func (w *World) AddConstraint(owner ObjectID, p Params) (ConstraintID, error) {
	obj, ok := w.objects[owner]
	if !ok {
		return 0, StaleObject(owner)
	}
	if obj.body == 0 {
		return 0, fmt.Errorf("%w: object #%d", ErrNoBody, owner)
	}
	if !w.HasBody(p.ConnectedBody) {
		return 0, StaleBody(p.ConnectedBody)
	}
	w.nextConstraint++
	id := w.nextConstraint
	c := &constraint{owner: owner, params: p}
	c.rest, _ = w.distance(c)
	w.constraints[id] = c
	obj.constraints = append(obj.constraints, id)
	return id, nil
}

func (w *World) Params(id ConstraintID) (Params, error) {
	c, ok := w.constraints[id]
	if !ok {
		return Params{}, StaleConstraint(id)
	}
	return c.params, nil
}

func (w *World) SetParams(id ConstraintID, p Params) error {
	c, ok := w.constraints[id]
	if !ok {
		return StaleConstraint(id)
	}
	c.params = p
	return nil
}

func (w *World) RemoveConstraint(id ConstraintID) error {
	c, ok := w.constraints[id]
	if !ok {
		return StaleConstraint(id)
	}
	w.detach(id, c)
	return nil
}

func (w *World) Subscribe(id ObjectID, l BreakListener) error {
	obj, ok := w.objects[id]
	if !ok {
		return StaleObject(id)
	}
	obj.listener = l
	return nil
}

// ApplyLoad adds an external force and torque to a constraint for the next
// Step only.
func (w *World) ApplyLoad(id ConstraintID, force, torque float64) error {
	c, ok := w.constraints[id]
	if !ok {
		return StaleConstraint(id)
	}
	c.applied.Force += force
	c.applied.Torque += torque
	return nil
}

// Load reports what the constraint carried during the last Step.
func (w *World) Load(id ConstraintID) (Load, error) {
	c, ok := w.constraints[id]
	if !ok {
		return Load{}, StaleConstraint(id)
	}
	return c.load, nil
}

// Distance is the current separation between a constraint's owner and the
// object of its connected body.
func (w *World) Distance(id ConstraintID) (float64, error) {
	c, ok := w.constraints[id]
	if !ok {
		return 0, StaleConstraint(id)
	}
	return w.distance(c)
}

func (w *World) distance(c *constraint) (float64, error) {
	owner, ok := w.objects[c.owner]
	if !ok {
		return 0, StaleObject(c.owner)
	}
	otherID, ok := w.bodies[c.params.ConnectedBody]
	if !ok {
		return 0, StaleBody(c.params.ConnectedBody)
	}
	other := w.objects[otherID]
	return owner.pose.Position.Sub(other.pose.Position).Len(), nil
}

// Step derives loads for every constraint and breaks those whose load
// exceeds their thresholds. Listeners may destroy objects from inside the
// callback; constraints removed that way are skipped.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	w.time += dt

	for _, id := range slices.Sorted(maps.Keys(w.constraints)) {
		c, ok := w.constraints[id]
		if !ok {
			continue
		}
		c.load = c.applied
		c.applied = Load{}
		switch {
		case c.params.Kind == KindLinearConnector:
			c.load.Force += w.connectorForce(c, dt)
		case c.params.LinearMotion == MotionLocked:
			c.load.Force += w.lockedForce(c)
		}
		if !c.load.Exceeds(c.params) {
			continue
		}
		w.breakConstraint(id, c)
	}
}

// Time is the simulated time accumulated by Step.
func (w *World) Time() float64 { return w.time }

func (w *World) connectorForce(c *constraint, dt float64) float64 {
	dist, err := w.distance(c)
	if err != nil {
		return 0
	}
	rate := 0.0
	if c.measured {
		rate = (dist - c.lastDist) / dt
	}
	c.lastDist, c.measured = dist, true

	p := c.params
	var excess float64
	switch {
	case dist > p.LinearMax:
		excess = dist - p.LinearMax
	case dist < p.LinearMin:
		excess = p.LinearMin - dist
		rate = -rate
	default:
		return 0
	}
	return springForce(p.Spring, p.Damper, excess, rate)
}

// lockedForce loads a locked linear axis once its separation drifts from
// the one it was created with. Without a spring the axis is rigid.
func (w *World) lockedForce(c *constraint) float64 {
	dist, err := w.distance(c)
	if err != nil {
		return 0
	}
	drift := math.Abs(dist - c.rest)
	if drift <= driftTolerance {
		return 0
	}
	k := c.params.Spring
	if k <= 0 {
		k = math.Inf(1)
	}
	return springForce(k, c.params.Damper, drift, 0)
}

// springForce is k·x + c·v with c = ζ·2·sqrt(k) for a unit mass. An infinite
// spring is rigid: any excess is an infinite force.
func springForce(k, zeta, excess, rate float64) float64 {
	if excess <= 0 {
		return 0
	}
	if math.IsInf(k, 1) {
		return math.Inf(1)
	}
	f := k*excess + zeta*2*math.Sqrt(k)*rate
	return math.Max(f, 0)
}

func (w *World) breakConstraint(id ConstraintID, c *constraint) {
	w.detach(id, c)
	obj, ok := w.objects[c.owner]
	if !ok {
		return
	}
	if obj.listener != nil {
		obj.listener.OnJointBreak(c.load.Force)
	}
}

// Counts reports live objects, bodies and constraints.
func (w *World) Counts() (objects, bodies, constraints int) {
	return len(w.objects), len(w.bodies), len(w.constraints)
}

// ConstraintsOf lists the live constraints owned by an object.
func (w *World) ConstraintsOf(id ObjectID) ([]ConstraintID, error) {
	obj, ok := w.objects[id]
	if !ok {
		return nil, StaleObject(id)
	}
	return slices.Clone(obj.constraints), nil
}
