package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleReference indicates an object, body or constraint that no longer exists.
	ErrStaleReference = errors.New("physics: stale reference")

	// ErrNoBody indicates an object that has no rigid body attached yet.
	ErrNoBody = errors.New("physics: object has no rigid body")

	// ErrBodyExists indicates a second AddBody on the same object.
	ErrBodyExists = errors.New("physics: object already has a rigid body")
)

// StaleReferenceError names the handle that could not be resolved.
type StaleReferenceError struct {
	What string
	ID   uint64
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("physics: stale %s reference #%d", e.What, e.ID)
}

func (e *StaleReferenceError) Unwrap() error {
	return ErrStaleReference
}

func StaleObject(id ObjectID) error {
	return &StaleReferenceError{What: "object", ID: uint64(id)}
}

func StaleBody(id BodyID) error {
	return &StaleReferenceError{What: "body", ID: uint64(id)}
}

func StaleConstraint(id ConstraintID) error {
	return &StaleReferenceError{What: "constraint", ID: uint64(id)}
}
