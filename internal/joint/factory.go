package joint

import (
	"fmt"

	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/sirupsen/logrus"
)

// AttachPoint is where a link meets a part. It belongs to the part and is
// only read here.
type AttachPoint struct {
	Name   string
	Pose   physics.Pose
	Object physics.ObjectID
	Body   physics.BodyID
}

// Constraint is a handle to one built constraint and the object carrying it.
type Constraint struct {
	ID     physics.ConstraintID
	Object physics.ObjectID
	Body   physics.BodyID
	Kind   physics.Kind
}

// Host is the entity that owns a link and receives its break notifications.
type Host interface {
	Object() physics.ObjectID
	// HasParent reports whether the host is still attached to its parent.
	HasParent() bool
	OnJointBreak(force float64)
}

// Factory builds end constraints.
type Factory struct {
	engine physics.Engine
	util   physics.Util
	log    *logrus.Logger
}

func NewFactory(engine physics.Engine, util physics.Util, log *logrus.Logger) *Factory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Factory{engine: engine, util: util, log: log}
}

// BuildEnd creates a new object at ap, gives it a body and a spherical
// constraint to ap.Body, and subscribes a break listener that forwards to
// host. angleLimit is in degrees: 0 locks rotation, +Inf frees it.
//
// The returned constraint has no baseline yet; callers capture one right
// away. On error nothing created here is left behind.
func (f *Factory) BuildEnd(ap AttachPoint, angleLimit, breakForce, breakTorque float64, host Host) (Constraint, error) {
	if !f.engine.HasBody(ap.Body) {
		return Constraint{}, fmt.Errorf("%w: %q body #%d", ErrNoBody, ap.Name, ap.Body)
	}

	obj, err := f.engine.CreateObject(ap.Name+"/end", ap.Pose)
	if err != nil {
		return Constraint{}, err
	}

	c, err := f.attach(obj, ap, angleLimit, breakForce, breakTorque, host)
	if err != nil {
		if derr := f.engine.DestroyObject(obj); derr != nil {
			f.log.WithError(derr).Debug("discard end object")
		}
		return Constraint{}, err
	}
	return c, nil
}

func (f *Factory) attach(obj physics.ObjectID, ap AttachPoint, angleLimit, breakForce, breakTorque float64, host Host) (Constraint, error) {
	body, err := f.engine.AddBody(obj)
	if err != nil {
		return Constraint{}, err
	}

	p := f.util.Spherical(ap.Body, angleLimit, breakForce, breakTorque)
	id, err := f.engine.AddConstraint(obj, p)
	if err != nil {
		return Constraint{}, err
	}

	if host != nil {
		l := newBreakListener(host, obj, f.log)
		if l.selfHosted() {
			l.warnInconsistent()
		}
		if err := f.engine.Subscribe(obj, l); err != nil {
			return Constraint{}, err
		}
	}

	f.log.WithFields(logrus.Fields{
		"attach":     ap.Name,
		"object":     obj,
		"constraint": id,
		"motion":     p.AngularMotion,
	}).Debug("built end constraint")

	return Constraint{ID: id, Object: obj, Body: body, Kind: p.Kind}, nil
}
