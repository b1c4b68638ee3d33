package joint

import (
	"fmt"

	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/sirupsen/logrus"
)

var (
	_ LinkJoint = (*Rigid)(nil)
	_ Framework = (*Rigid)(nil)
)

// Rigid is the simple link: one fixed constraint on the source part
// connected to the target body. It is also the Framework other variants drop
// before building their own.
type Rigid struct {
	engine   physics.Engine
	util     physics.Util
	host     Host
	settings Settings
	log      *logrus.Logger

	owner       physics.ObjectID
	c           Constraint
	baseline    JointState
	unbreakable bool
}

func NewRigid(d Deps) *Rigid {
	d = d.withDefaults()
	return &Rigid{
		engine:   d.Engine,
		util:     d.Util,
		host:     d.Host,
		settings: d.Settings,
		log:      d.Log,
	}
}

// CreateJoint replaces any previous fixed constraint. Break notifications go
// to the host directly since the constraint sits on the part itself.
func (r *Rigid) CreateJoint(source, target AttachPoint) error {
	if err := r.DropJoint(); err != nil {
		r.log.WithError(err).Warn("drop before recreate")
	}
	if !r.engine.HasBody(target.Body) {
		return &ConstructionError{Step: "fixed", Err: fmt.Errorf("%w: %q body #%d", ErrNoBody, target.Name, target.Body)}
	}

	p := r.util.Fixed(target.Body, r.settings.LinkBreakForce, r.settings.LinkBreakTorque)
	id, err := r.engine.AddConstraint(source.Object, p)
	if err != nil {
		return &ConstructionError{Step: "fixed", Err: err}
	}
	base, err := Capture(r.engine, id)
	if err != nil {
		return r.fail("fixed baseline", id, err)
	}
	if r.host != nil {
		if err := r.engine.Subscribe(source.Object, physics.BreakFunc(r.forward)); err != nil {
			return r.fail("subscribe", id, err)
		}
	}

	r.owner = source.Object
	r.c = Constraint{ID: id, Object: source.Object, Body: source.Body, Kind: p.Kind}
	r.baseline = base
	r.unbreakable = false
	return nil
}

func (r *Rigid) fail(step string, id physics.ConstraintID, err error) error {
	if rerr := r.engine.RemoveConstraint(id); rerr != nil {
		r.log.WithError(rerr).WithField("step", step).Debug("rollback")
	}
	return &ConstructionError{Step: step, Err: err}
}

func (r *Rigid) forward(force float64) {
	if !r.host.HasParent() {
		return
	}
	r.host.OnJointBreak(force)
}

// DropJoint removes the fixed constraint. A constraint that already broke is
// not an error.
func (r *Rigid) DropJoint() error {
	if r.c.ID == 0 {
		return nil
	}
	id, owner := r.c.ID, r.owner
	r.c, r.baseline, r.owner, r.unbreakable = Constraint{}, JointState{}, 0, false

	if r.host != nil {
		if err := r.engine.Subscribe(owner, nil); err != nil {
			r.log.WithError(err).WithField("object", owner).Debug("unsubscribe")
		}
	}
	if _, err := r.engine.Params(id); err != nil {
		return nil
	}
	return r.engine.RemoveConstraint(id)
}

func (r *Rigid) DropSimpleJoint() error { return r.DropJoint() }

func (r *Rigid) AdjustJoint(unbreakable bool) error {
	if r.c.ID == 0 {
		return ErrNotCreated
	}
	if !unbreakable {
		if err := r.baseline.Restore(r.engine, r.c.ID); err != nil {
			return err
		}
		r.unbreakable = false
		return nil
	}
	p, err := r.engine.Params(r.c.ID)
	if err != nil {
		return err
	}
	if err := r.engine.SetParams(r.c.ID, r.util.Unbreakable(p)); err != nil {
		return err
	}
	r.unbreakable = true
	return nil
}

// IsJointUnlocked is false: a fixed constraint never rotates.
func (r *Rigid) IsJointUnlocked() bool { return false }

// Constraint returns the fixed constraint; ok is false when none is held.
func (r *Rigid) Constraint() (Constraint, bool) {
	return r.c, r.c.ID != 0
}

func (r *Rigid) Unbreakable() bool { return r.unbreakable }
