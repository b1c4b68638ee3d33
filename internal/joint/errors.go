package joint

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction is matched by every *ConstructionError.
	ErrConstruction = errors.New("joint: construction failed")

	// ErrNoBody indicates an attach point whose body is not live.
	ErrNoBody = errors.New("joint: attach point has no body")

	// ErrNotCreated indicates an operation that needs a live assembly.
	ErrNotCreated = errors.New("joint: assembly not created")

	ErrInvalidSettings = errors.New("joint: invalid settings")
	ErrUnknownVariant  = errors.New("joint: unknown variant")
)

// ConstructionError reports the CreateJoint step that failed. Nothing built
// before the failure survives it.
type ConstructionError struct {
	Step string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("joint: construction failed at %s: %v", e.Step, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}
