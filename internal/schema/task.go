package schema

import (
	"github.com/google/uuid"
)

// Task is a unit of work inside a project. Assignments are embedded and
// owned by the task.
type Task struct {
	ID          uuid.UUID    `bson:"_id" json:"id"`
	ProjectID   uuid.UUID    `bson:"project_id" json:"project_id"`
	Title       string       `bson:"title" json:"title"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy   uuid.UUID    `bson:"created_by" json:"created_by"`
	Assignments []Assignment `bson:"assignments" json:"assignments"`

	Timestamps `bson:",inline"`
}

// AssignmentFor returns the employee's assignment on this task, or nil.
func (t *Task) AssignmentFor(employeeID uuid.UUID) *Assignment {
	for i := range t.Assignments {
		if t.Assignments[i].EmployeeID == employeeID {
			return &t.Assignments[i]
		}
	}
	return nil
}

// AssignmentByProof returns the assignment holding proofID, or nil.
func (t *Task) AssignmentByProof(proofID uuid.UUID) *Assignment {
	if proofID == uuid.Nil {
		return nil
	}
	for i := range t.Assignments {
		if t.Assignments[i].ProofID == proofID {
			return &t.Assignments[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Assignments = make([]Assignment, len(t.Assignments))
	for i := range t.Assignments {
		out.Assignments[i] = t.Assignments[i].Clone()
	}
	return &out
}

// Before reports whether t sorts ahead of other in creation order.
// Ties on created_at fall back to id order.
func (t *Task) Before(other *Task) bool {
	if !t.CreatedAt.Equal(other.CreatedAt) {
		return t.CreatedAt.Before(other.CreatedAt)
	}
	return t.ID.String() < other.ID.String()
}

