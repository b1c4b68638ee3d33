package scenario

import (
	"context"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/joint"
	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/sirupsen/logrus"
)

// Runner drives one link through a scenario: it pulls the target away from
// the source, toggles unbreakable windows and steps the engine. A break
// detaches the target part and the runner drops the link.
type Runner struct {
	cfg  *config.Config
	rig  Rig
	log  *logrus.Logger
	link joint.LinkJoint

	source, target *Part
	dir            mgl64.Vec3

	metrics   []Metric
	observers []Observer

	step        int
	time        float64
	rate        float64
	unbreakable bool
	override    *bool
	live        bool

	samples   []Sample
	events    []Event
	broken    bool
	breakTime float64
	stepBreak float64
}

// NewRunner builds the rig, the two parts and the link described by cfg.
func NewRunner(cfg *config.Config, log *logrus.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	rig, err := NewRig(cfg.Engine)
	if err != nil {
		return nil, err
	}

	r := &Runner{cfg: cfg, rig: rig, log: log, rate: cfg.Pull.Rate}

	if r.source, err = spawnPart(rig, cfg.Source.Name, cfg.Source.Pose()); err != nil {
		return nil, err
	}
	if r.target, err = spawnPart(rig, cfg.Target.Name, cfg.Target.Pose()); err != nil {
		return nil, err
	}
	r.target.parent = r.source
	r.target.onBreak = r.onBreak
	r.dir = r.target.pose.Position.Sub(r.source.pose.Position).Normalize()

	deps := joint.Deps{
		Engine:   rig,
		Host:     r.target,
		Settings: cfg.Link,
		Log:      log,
	}

	// Attaching always starts from the simple link; richer variants replace it.
	simple := joint.NewRigid(deps)
	if err := simple.CreateJoint(r.source.AttachPoint(), r.target.AttachPoint()); err != nil {
		return nil, err
	}
	if cfg.Variant == joint.VariantRigid {
		r.link = simple
	} else {
		deps.Framework = simple
		if r.link, err = joint.New(cfg.Variant, deps); err != nil {
			return nil, err
		}
		if err := r.link.CreateJoint(r.source.AttachPoint(), r.target.AttachPoint()); err != nil {
			return nil, err
		}
	}

	r.live = true
	r.event(EventCreated, 0)
	log.WithFields(logrus.Fields{
		"scenario": cfg.Name,
		"variant":  cfg.Variant,
		"engine":   cfg.Engine,
	}).Info("link created")
	return r, nil
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run steps until the configured step count or until ctx is done.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	for _, m := range r.metrics {
		m.Reset()
	}
	for !r.Done() {
		select {
		case <-ctx.Done():
			return r.Result(), ctx.Err()
		default:
		}
		if err := r.Step(); err != nil {
			return r.Result(), err
		}
	}
	return r.Result(), nil
}

// Step advances the scenario by one dt.
func (r *Runner) Step() error {
	dt := r.cfg.Dt
	r.stepBreak = 0

	if r.live {
		if err := r.applyMode(); err != nil {
			return err
		}
	}
	if r.time >= r.cfg.Pull.Start && r.rate != 0 {
		if err := r.pull(r.dir.Mul(r.rate * dt)); err != nil {
			return err
		}
	}

	r.rig.Step(dt)
	r.time += dt
	r.step++

	s := r.sample()
	r.samples = append(r.samples, s)
	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, o := range r.observers {
		o.OnStep(s)
	}
	return nil
}

func (r *Runner) applyMode() error {
	want := r.cfg.UnbreakableAt(r.time)
	if r.override != nil {
		want = *r.override
	}
	if want == r.unbreakable {
		return nil
	}
	if err := r.link.AdjustJoint(want); err != nil {
		return err
	}
	r.unbreakable = want
	if want {
		r.event(EventUnbreakable, 0)
	} else {
		r.event(EventRestored, 0)
	}
	r.log.WithFields(logrus.Fields{"time": r.time, "unbreakable": want}).Debug("link adjusted")
	return nil
}

// pull moves the target part and, while the link is live, the target end
// of the assembly with it.
func (r *Runner) pull(delta mgl64.Vec3) error {
	movers := []physics.ObjectID{r.target.obj}
	if r.live {
		if a, ok := r.link.(*joint.TwoEndsSphere); ok {
			if _, tgt, _, ok := a.Constraints(); ok {
				movers = append(movers, tgt.Object)
			}
		}
	}
	var errs []error
	for _, id := range movers {
		errs = append(errs, r.rig.Translate(id, delta))
	}
	return errors.Join(errs...)
}

func (r *Runner) onBreak(p *Part, force float64) {
	r.event(EventBreak, force)
	r.stepBreak = math.Max(r.stepBreak, force)
	if !r.broken {
		r.broken = true
		r.breakTime = r.time
	}
	r.log.WithFields(logrus.Fields{
		"part":  p.Name(),
		"time":  r.time,
		"force": force,
	}).Info("link broke")

	if err := r.Drop(); err != nil {
		r.log.WithError(err).Warn("drop after break")
	}
}

// Drop releases the link. It is safe to call more than once.
func (r *Runner) Drop() error {
	if !r.live {
		return nil
	}
	r.live = false
	r.unbreakable = false
	r.target.parent = nil
	r.event(EventDropped, 0)
	return r.link.DropJoint()
}

func (r *Runner) sample() Sample {
	s := Sample{
		Step:        r.step,
		Time:        r.time,
		Unbreakable: r.unbreakable,
		Live:        r.live,
		Force:       r.stepBreak,
	}
	views := r.Constraints()
	for _, v := range views {
		s.Force = math.Max(s.Force, v.Load.Force)
		s.Torque = math.Max(s.Torque, v.Load.Torque)
	}
	s.Distance = r.distance()
	return s
}

func (r *Runner) distance() float64 {
	if r.live {
		var id physics.ConstraintID
		switch l := r.link.(type) {
		case *joint.TwoEndsSphere:
			_, _, conn, _ := l.Constraints()
			id = conn.ID
		case *joint.Rigid:
			c, _ := l.Constraint()
			id = c.ID
		}
		if d, err := r.rig.Distance(id); err == nil {
			return d
		}
	}
	sp, err := r.rig.ObjectPose(r.source.obj)
	if err != nil {
		return 0
	}
	tp, err := r.rig.ObjectPose(r.target.obj)
	if err != nil {
		return 0
	}
	return tp.Position.Sub(sp.Position).Len()
}

func (r *Runner) event(kind EventKind, force float64) {
	r.events = append(r.events, Event{Time: r.time, Kind: kind, Force: force})
}

// ConstraintView is a live constraint with its current parameters and the
// load it carried during the last step.
type ConstraintView struct {
	Label string
	joint.Constraint
	Params physics.Params
	Load   physics.Load
}

func (r *Runner) Constraints() []ConstraintView {
	if !r.live {
		return nil
	}
	var labeled []ConstraintView
	switch l := r.link.(type) {
	case *joint.TwoEndsSphere:
		src, tgt, conn, ok := l.Constraints()
		if !ok {
			return nil
		}
		labeled = []ConstraintView{
			{Label: "source end", Constraint: src},
			{Label: "target end", Constraint: tgt},
			{Label: "connector", Constraint: conn},
		}
	case *joint.Rigid:
		c, ok := l.Constraint()
		if !ok {
			return nil
		}
		labeled = []ConstraintView{{Label: "fixed", Constraint: c}}
	}

	out := labeled[:0]
	for _, v := range labeled {
		p, err := r.rig.Params(v.ID)
		if err != nil {
			continue
		}
		v.Params = p
		v.Load, _ = r.rig.Load(v.ID)
		out = append(out, v)
	}
	return out
}

// Override forces the unbreakable mode regardless of the configured windows.
func (r *Runner) Override(unbreakable bool) { r.override = &unbreakable }
func (r *Runner) ClearOverride()            { r.override = nil }

func (r *Runner) PullRate() float64        { return r.rate }
func (r *Runner) SetPullRate(rate float64) { r.rate = rate }

func (r *Runner) Done() bool             { return r.step >= r.cfg.Steps }
func (r *Runner) Live() bool             { return r.live }
func (r *Runner) Unbreakable() bool      { return r.unbreakable }
func (r *Runner) Time() float64          { return r.time }
func (r *Runner) Rig() Rig               { return r.rig }
func (r *Runner) Link() joint.LinkJoint  { return r.link }
func (r *Runner) Source() *Part          { return r.source }
func (r *Runner) Target() *Part          { return r.target }
func (r *Runner) Config() *config.Config { return r.cfg }

func (r *Runner) Samples() []Sample { return r.samples }
func (r *Runner) Events() []Event   { return r.events }

func (r *Runner) Result() *Result {
	res := &Result{
		Name:      r.cfg.Name,
		Samples:   r.samples,
		Events:    r.events,
		Metrics:   make(map[string]float64, len(r.metrics)),
		Broken:    r.broken,
		BreakTime: r.breakTime,
	}
	for _, m := range r.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
