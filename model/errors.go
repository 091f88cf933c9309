package model

import "errors"

var (
	// ErrNullArgument is returned when a required control point or trajectory is nil.
	ErrNullArgument = errors.New("null argument")
	// ErrNotFound is returned when a control point is not a member of the
	// trajectory, or a trajectory is not a member of its document.
	ErrNotFound = errors.New("not found")
	// ErrNoSuccessor is returned when a curve is requested from the last control point.
	ErrNoSuccessor = errors.New("control point has no successor")
	// ErrAlreadyMember is returned when the same instance is added twice.
	ErrAlreadyMember = errors.New("already a member")
	// ErrDuplicateName is returned when a control point's name is already used
	// by another point of the same trajectory.
	ErrDuplicateName = errors.New("control point name already in use")
	// ErrInvalidName is returned when a rename is given a blank name.
	ErrInvalidName = errors.New("invalid name")
	// ErrIndexOutOfRange is returned for insert/remove positions outside the list.
	ErrIndexOutOfRange = errors.New("index out of range")
)
