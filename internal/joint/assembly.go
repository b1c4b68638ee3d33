package joint

import (
	"errors"

	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/sirupsen/logrus"
)

// Mode is the lifecycle state of an assembly.
type Mode int

const (
	ModeUncreated Mode = iota
	ModeNormal
	ModeUnbreakable
	ModeDropped
)

func (m Mode) String() string {
	switch m {
	case ModeUncreated:
		return "uncreated"
	case ModeNormal:
		return "normal"
	case ModeUnbreakable:
		return "unbreakable"
	case ModeDropped:
		return "dropped"
	}
	return "unknown"
}

// Live reports whether the mode has constraints behind it.
func (m Mode) Live() bool {
	return m == ModeNormal || m == ModeUnbreakable
}

var _ LinkJoint = (*TwoEndsSphere)(nil)

// TwoEndsSphere links two parts with a spherical end constraint at each
// attach point and a linear connector between the end bodies. The connector
// lives on the source end object, so there are three constraints but only
// two new objects.
type TwoEndsSphere struct {
	engine    physics.Engine
	util      physics.Util
	factory   *Factory
	framework Framework
	host      Host
	settings  Settings
	log       *logrus.Logger

	src, tgt, conn             Constraint
	baseSrc, baseTgt, baseConn JointState
	mode                       Mode
}

func NewTwoEndsSphere(d Deps) *TwoEndsSphere {
	d = d.withDefaults()
	return &TwoEndsSphere{
		engine:    d.Engine,
		util:      d.Util,
		factory:   NewFactory(d.Engine, d.Util, d.Log),
		framework: d.Framework,
		host:      d.Host,
		settings:  d.Settings,
		log:       d.Log,
	}
}

// CreateJoint builds the assembly between source and target. A live
// assembly is dropped first. On failure every object built here is
// destroyed and a *ConstructionError is returned.
func (a *TwoEndsSphere) CreateJoint(source, target AttachPoint) error {
	if a.mode.Live() {
		if err := a.DropJoint(); err != nil {
			a.log.WithError(err).Warn("drop before recreate")
		}
	}
	if err := a.settings.Validate(); err != nil {
		return &ConstructionError{Step: "settings", Err: err}
	}
	if err := a.framework.DropSimpleJoint(); err != nil {
		return &ConstructionError{Step: "drop simple joint", Err: err}
	}

	b := builder{a: a}
	s := a.settings

	src, err := a.factory.BuildEnd(source, s.SourceAngleLimit, s.LinkBreakForce, s.LinkBreakTorque, a.host)
	if err != nil {
		return b.fail("source end", err)
	}
	b.objects = append(b.objects, src.Object)
	baseSrc, err := Capture(a.engine, src.ID)
	if err != nil {
		return b.fail("source baseline", err)
	}

	tgt, err := a.factory.BuildEnd(target, s.TargetAngleLimit, s.LinkBreakForce, s.LinkBreakTorque, a.host)
	if err != nil {
		return b.fail("target end", err)
	}
	b.objects = append(b.objects, tgt.Object)
	baseTgt, err := Capture(a.engine, tgt.ID)
	if err != nil {
		return b.fail("target baseline", err)
	}

	if err := a.face(src.Object, tgt.Object); err != nil {
		return b.fail("orientation", err)
	}

	p := a.util.Linear(tgt.Body, s.MinLinkLength, s.MaxLinkLength, s.LinkSpring, s.LinkDamper, s.LinkBreakForce)
	connID, err := a.engine.AddConstraint(src.Object, p)
	if err != nil {
		return b.fail("connector", err)
	}
	baseConn, err := Capture(a.engine, connID)
	if err != nil {
		return b.fail("connector baseline", err)
	}

	a.src, a.tgt = src, tgt
	a.conn = Constraint{ID: connID, Object: src.Object, Body: src.Body, Kind: p.Kind}
	a.baseSrc, a.baseTgt, a.baseConn = baseSrc, baseTgt, baseConn
	a.mode = ModeNormal

	a.log.WithFields(logrus.Fields{
		"source": source.Name,
		"target": target.Name,
		"min":    s.MinLinkLength,
		"max":    s.MaxLinkLength,
	}).Debug("joint created")
	return nil
}

// face turns each end object towards the other. Positions are untouched and
// coincident ends keep their orientation.
func (a *TwoEndsSphere) face(src, tgt physics.ObjectID) error {
	sp, err := a.engine.ObjectPose(src)
	if err != nil {
		return err
	}
	tp, err := a.engine.ObjectPose(tgt)
	if err != nil {
		return err
	}
	if rot, ok := physics.LookAt(sp.Position, tp.Position); ok {
		if err := a.engine.SetObjectRotation(src, rot); err != nil {
			return err
		}
	}
	if rot, ok := physics.LookAt(tp.Position, sp.Position); ok {
		if err := a.engine.SetObjectRotation(tgt, rot); err != nil {
			return err
		}
	}
	return nil
}

// builder tracks the objects of a CreateJoint in progress.
type builder struct {
	a       *TwoEndsSphere
	objects []physics.ObjectID
}

func (b *builder) fail(step string, err error) error {
	for i := len(b.objects) - 1; i >= 0; i-- {
		if derr := b.a.engine.DestroyObject(b.objects[i]); derr != nil {
			b.a.log.WithError(derr).WithField("step", step).Debug("rollback")
		}
	}
	b.a.log.WithError(err).WithField("step", step).Warn("joint construction failed")
	return &ConstructionError{Step: step, Err: err}
}

// DropJoint destroys the target end and the source end, which takes the
// connector with it. It is a no-op without a live assembly and safe to call
// from a break callback. Destroy errors are returned but the assembly is
// cleared regardless.
func (a *TwoEndsSphere) DropJoint() error {
	if !a.mode.Live() {
		return nil
	}
	src, tgt := a.src.Object, a.tgt.Object

	a.src, a.tgt, a.conn = Constraint{}, Constraint{}, Constraint{}
	a.baseSrc, a.baseTgt, a.baseConn = JointState{}, JointState{}, JointState{}
	a.mode = ModeDropped

	if err := errors.Join(a.engine.DestroyObject(tgt), a.engine.DestroyObject(src)); err != nil {
		return err
	}
	a.log.Debug("joint dropped")
	return nil
}

// AdjustJoint makes every constraint unbreakable, or restores all of them
// from the baselines captured at creation. If a constraint has gone stale
// the live ones are left at their baselines and the mode stays Normal.
func (a *TwoEndsSphere) AdjustJoint(unbreakable bool) error {
	if !a.mode.Live() {
		return ErrNotCreated
	}

	if !unbreakable {
		a.mode = ModeNormal
		return a.restore()
	}

	var errs []error
	for _, c := range []Constraint{a.src, a.tgt, a.conn} {
		p, err := a.engine.Params(c.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, a.engine.SetParams(c.ID, a.util.Unbreakable(p)))
	}
	if err := errors.Join(errs...); err != nil {
		if rerr := a.restore(); rerr != nil {
			a.log.WithError(rerr).Debug("restore after failed adjust")
		}
		a.mode = ModeNormal
		return err
	}
	a.mode = ModeUnbreakable
	return nil
}

// restore writes every baseline back onto its constraint.
func (a *TwoEndsSphere) restore() error {
	return errors.Join(
		a.baseSrc.Restore(a.engine, a.src.ID),
		a.baseTgt.Restore(a.engine, a.tgt.ID),
		a.baseConn.Restore(a.engine, a.conn.ID),
	)
}

// IsJointUnlocked is always true: both ends rotate freely within their
// limits for the whole life of the assembly.
func (a *TwoEndsSphere) IsJointUnlocked() bool { return true }

func (a *TwoEndsSphere) Mode() Mode { return a.mode }

// Constraints returns the three handles; ok is false without a live
// assembly.
func (a *TwoEndsSphere) Constraints() (src, tgt, conn Constraint, ok bool) {
	return a.src, a.tgt, a.conn, a.mode.Live()
}

func (a *TwoEndsSphere) Baselines() (src, tgt, conn JointState) {
	return a.baseSrc, a.baseTgt, a.baseConn
}

func (a *TwoEndsSphere) Settings() Settings { return a.settings }
