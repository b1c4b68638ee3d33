package scenario

import (
	"github.com/san-kum/dynjoint/internal/joint"
	"github.com/san-kum/dynjoint/internal/physics"
)

var _ joint.Host = (*Part)(nil)

// Part is a rigid part of the scenario. The target part is the child of the
// source part and hosts the link between them.
type Part struct {
	name   string
	pose   physics.Pose
	obj    physics.ObjectID
	body   physics.BodyID
	parent *Part
	breaks []float64

	onBreak func(p *Part, force float64)
}

func spawnPart(rig Rig, name string, pose physics.Pose) (*Part, error) {
	obj, body, err := rig.SpawnPart(name, pose)
	if err != nil {
		return nil, err
	}
	return &Part{name: name, pose: pose, obj: obj, body: body}, nil
}

func (p *Part) Name() string             { return p.name }
func (p *Part) Object() physics.ObjectID { return p.obj }
func (p *Part) HasParent() bool          { return p.parent != nil }
func (p *Part) Parent() *Part            { return p.parent }

// Breaks lists the forces of every break forwarded to this part.
func (p *Part) Breaks() []float64 { return p.breaks }

// OnJointBreak detaches the part from its parent.
func (p *Part) OnJointBreak(force float64) {
	p.breaks = append(p.breaks, force)
	p.parent = nil
	if p.onBreak != nil {
		p.onBreak(p, force)
	}
}

func (p *Part) AttachPoint() joint.AttachPoint {
	return joint.AttachPoint{Name: p.name, Pose: p.pose, Object: p.obj, Body: p.body}
}
