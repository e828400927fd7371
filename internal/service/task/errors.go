package task

import "errors"

var (
	ErrNotFound        = errors.New("task not found")
	ErrForbidden       = errors.New("not permitted for this actor")
	ErrValidation      = errors.New("invalid input")
	ErrAlreadyAssigned = errors.New("employee already has an assignment on this task")
	ErrConflict        = errors.New("assignment is not in a state that allows this change")
)
