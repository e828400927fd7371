package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("task, assignment or proof not found")
	ErrConflict        = errors.New("assignment is not in the required state")
	ErrForbidden       = errors.New("not permitted for this actor")
	ErrReworkExhausted = errors.New("rework attempts exhausted")
	ErrStorageDisabled = errors.New("attachment storage is not configured")
)

// ValidationError describes one failing input field.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidationErrors lists every failing field in input order. The first entry
// is the primary message.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return ErrValidation.Error()
	case 1:
		return v[0].Message
	default:
		return fmt.Sprintf("%s (and %d more)", v[0].Message, len(v)-1)
	}
}

func (v ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v)+1)
	out = append(out, ErrValidation)
	for _, e := range v {
		out = append(out, e)
	}
	return out
}

// StateError reports a transition attempted from the wrong status.
type StateError struct {
	Current schema.AssignmentStatus
	Want    []schema.AssignmentStatus
}

func (e *StateError) Error() string {
	want := make([]string, len(e.Want))
	for i, w := range e.Want {
		want[i] = string(w)
	}
	if len(want) == 1 && e.Want[0] == schema.AssignmentPendingReview {
		return fmt.Sprintf("not awaiting review: assignment is %s", e.Current)
	}
	return fmt.Sprintf("assignment is %s, expected %s", e.Current, strings.Join(want, " or "))
}

func (e *StateError) Unwrap() error { return ErrConflict }

// ReworkExhaustedError carries the counters at the ceiling.
type ReworkExhaustedError struct {
	Attempts int
	Max      int
}

func (e *ReworkExhaustedError) Error() string {
	return fmt.Sprintf("rework attempts exhausted (%d of %d): reassign the task manually", e.Attempts, e.Max)
}

func (e *ReworkExhaustedError) Unwrap() error { return ErrReworkExhausted }
