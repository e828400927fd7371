package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentAssigned       AssignmentStatus = "assigned"
	AssignmentInProgress     AssignmentStatus = "in_progress"
	AssignmentPendingReview  AssignmentStatus = "pending_review"
	AssignmentReworkRequired AssignmentStatus = "rework_required"
	// AssignmentApproved is terminal.
	AssignmentApproved AssignmentStatus = "approved"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentAssigned, AssignmentInProgress, AssignmentPendingReview,
		AssignmentReworkRequired, AssignmentApproved:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentApproved
}

// Open reports whether the employee is actively holding the work item.
func (s AssignmentStatus) Open() bool {
	switch s {
	case AssignmentInProgress, AssignmentPendingReview, AssignmentReworkRequired:
		return true
	}
	return false
}

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	st := AssignmentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown assignment status %q", s)
	}
	return st, nil
}

// DefaultMaxReworkAttempts applies when an assignment is created without an
// explicit ceiling.
const DefaultMaxReworkAttempts = 3

// Assignment is one employee's work record against one task.
//
// Version is bumped by the store on every write and is the compare-and-swap
// token for state transitions.
type Assignment struct {
	EmployeeID uuid.UUID        `bson:"employee_id" json:"employee_id"`
	Status     AssignmentStatus `bson:"status" json:"status"`
	Progress   int              `bson:"progress" json:"progress"`
	Deadline   *time.Time       `bson:"deadline,omitempty" json:"deadline,omitempty"`

	// ProofID is allocated on first submission and stays stable through
	// the rework loop.
	ProofID     uuid.UUID        `bson:"proof_id,omitempty" json:"proof_id,omitempty"`
	Proof       *ProofSubmission `bson:"proof,omitempty" json:"proof,omitempty"`
	ReviewCycle *ReviewCycle     `bson:"review_cycle,omitempty" json:"review_cycle,omitempty"`

	DefectCount          int        `bson:"defect_count" json:"defect_count"`
	ReworkAttempts       int        `bson:"rework_attempts" json:"rework_attempts"`
	MaxReworkAttempts    int        `bson:"max_rework_attempts" json:"max_rework_attempts"`
	ReassignmentRequired bool       `bson:"reassignment_required" json:"reassignment_required"`
	FinalApprovedAt      *time.Time `bson:"final_approved_at,omitempty" json:"final_approved_at,omitempty"`

	AssignedAt time.Time `bson:"assigned_at" json:"assigned_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
	Version    int64     `bson:"version" json:"version"`
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := a
	out.Deadline = timePtr(a.Deadline)
	out.FinalApprovedAt = timePtr(a.FinalApprovedAt)
	if a.Proof != nil {
		p := a.Proof.Clone()
		out.Proof = &p
	}
	if a.ReviewCycle != nil {
		rc := a.ReviewCycle.Clone()
		out.ReviewCycle = &rc
	}
	return out
}

// ReworkExhausted reports whether the rework ceiling has been reached.
func (a Assignment) ReworkExhausted() bool {
	return a.ReworkAttempts >= a.EffectiveMaxRework()
}

// EffectiveMaxRework returns the ceiling, substituting the default for
// records written without one.
func (a Assignment) EffectiveMaxRework() int {
	if a.MaxReworkAttempts <= 0 {
		return DefaultMaxReworkAttempts
	}
	return a.MaxReworkAttempts
}

type SubmissionStatus string

const (
	SubmissionPendingReview SubmissionStatus = "pending_review"
	SubmissionApproved      SubmissionStatus = "approved"
	SubmissionRejected      SubmissionStatus = "rejected"
)

type ReviewDecision string

const (
	ReviewDecisionPending     ReviewDecision = "pending"
	ReviewDecisionApproved    ReviewDecision = "approved"
	ReviewDecisionDefectFound ReviewDecision = "defect_found"
)

// ProofSubmission is the current proof-of-work snapshot on an assignment.
// It is rewritten in place on resubmission; the review history lives in the
// reviews collection.
type ProofSubmission struct {
	GithubLink      string           `bson:"github_link" json:"github_link"`
	DemoVideoLink   string           `bson:"demo_video_link" json:"demo_video_link"`
	CompletionNotes string           `bson:"completion_notes" json:"completion_notes"`
	Attachments     []string         `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Status          SubmissionStatus `bson:"status" json:"status"`
	Decision        ReviewDecision   `bson:"decision" json:"decision"`
	SubmittedAt     time.Time        `bson:"submitted_at" json:"submitted_at"`
	ReviewedBy      *uuid.UUID       `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
}

func (p ProofSubmission) Clone() ProofSubmission {
	out := p
	if p.Attachments != nil {
		out.Attachments = append([]string(nil), p.Attachments...)
	}
	out.ReviewedBy = uuidPtr(p.ReviewedBy)
	out.ReviewedAt = timePtr(p.ReviewedAt)
	return out
}

// ReviewCycle is the snapshot of the latest reviewer decision.
type ReviewCycle struct {
	ReviewerID        uuid.UUID `bson:"reviewer_id" json:"reviewer_id"`
	Decision          Decision  `bson:"decision" json:"decision"`
	Comments          string    `bson:"comments" json:"comments"`
	DefectDescription string    `bson:"defect_description,omitempty" json:"defect_description,omitempty"`
	DefectCount       int       `bson:"defect_count" json:"defect_count"`
	ReworkRequired    bool      `bson:"rework_required" json:"rework_required"`
	ReviewedAt        time.Time `bson:"reviewed_at" json:"reviewed_at"`
}

func (rc ReviewCycle) Clone() ReviewCycle {
	return rc
}
