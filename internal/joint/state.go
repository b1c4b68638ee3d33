package joint

import "github.com/san-kum/dynjoint/internal/physics"

// JointState is a snapshot of every mutable parameter of one constraint.
type JointState struct {
	id     physics.ConstraintID
	params physics.Params
}

// Capture reads the current parameters of a constraint. It has no side
// effects on the engine.
func Capture(e physics.Engine, id physics.ConstraintID) (JointState, error) {
	p, err := e.Params(id)
	if err != nil {
		return JointState{}, err
	}
	return JointState{id: id, params: p}, nil
}

// Restore writes the snapshot back onto a constraint, replacing whatever it
// holds now. A destroyed constraint yields a *physics.StaleReferenceError.
func (s JointState) Restore(e physics.Engine, id physics.ConstraintID) error {
	return e.SetParams(id, s.params)
}

// ID is the constraint the snapshot was captured from.
func (s JointState) ID() physics.ConstraintID { return s.id }

func (s JointState) Params() physics.Params { return s.params }

// IsZero reports whether the state was never captured.
func (s JointState) IsZero() bool { return s.id == 0 }
