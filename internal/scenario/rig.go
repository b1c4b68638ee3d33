package scenario

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/san-kum/dynjoint/internal/physics/planar"
)

// Rig is an engine a scenario can drive and measure.
type Rig interface {
	physics.Engine
	SpawnPart(name string, pose physics.Pose) (physics.ObjectID, physics.BodyID, error)
	Translate(id physics.ObjectID, delta mgl64.Vec3) error
	Distance(id physics.ConstraintID) (float64, error)
	Load(id physics.ConstraintID) (physics.Load, error)
	Counts() (objects, bodies, constraints int)
}

var (
	_ Rig = (*physics.World)(nil)
	_ Rig = (*planar.Space)(nil)
)

func NewRig(engine string) (Rig, error) {
	switch engine {
	case config.EngineWorld, "":
		return physics.NewWorld(), nil
	case config.EnginePlanar:
		return planar.New(), nil
	}
	return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalid, engine)
}
