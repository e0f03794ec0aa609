package models

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrUnknownClass        = errors.New("unknown class")
	ErrUnknownProperty     = errors.New("unknown property")
)

// DuplicateIdentifierError is returned when a different live object already holds
// the identifier of an object added to a pool.
type DuplicateIdentifierError struct {
	ID       string
	Existing *Object
	Incoming *Object
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("UUID %s is already taken by another object %s, cannot add object %s",
		e.ID, e.Existing, e.Incoming)
}

func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}
