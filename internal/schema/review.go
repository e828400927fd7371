package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Decision is a reviewer's verdict on a proof submission.
type Decision string

const (
	DecisionApproved    Decision = "approved"
	DecisionDefectFound Decision = "defect_found"
)

// ParseDecision accepts only the closed set of reviewer decisions.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionApproved, DecisionDefectFound:
		return d, nil
	default:
		return "", fmt.Errorf("unknown review decision %q", s)
	}
}

type DefectSeverity string

const (
	SeverityLow      DefectSeverity = "low"
	SeverityMedium   DefectSeverity = "medium"
	SeverityHigh     DefectSeverity = "high"
	SeverityCritical DefectSeverity = "critical"
)

func ParseSeverity(s string) (DefectSeverity, error) {
	switch d := DefectSeverity(s); d {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return d, nil
	case "":
		return SeverityMedium, nil
	default:
		return "", fmt.Errorf("unknown defect severity %q", s)
	}
}

// Review is an immutable audit record of one reviewer decision.
type Review struct {
	ID           uuid.UUID `bson:"_id" json:"id"`
	ProofID      uuid.UUID `bson:"proof_id" json:"proof_id"`
	TaskID       uuid.UUID `bson:"task_id" json:"task_id"`
	EmployeeID   uuid.UUID `bson:"employee_id" json:"employee_id"`
	ProjectID    uuid.UUID `bson:"project_id" json:"project_id"`
	ReviewerID   uuid.UUID `bson:"reviewed_by" json:"reviewed_by"`
	ReviewerRole Role      `bson:"reviewer_role" json:"reviewer_role"`

	Decision          Decision       `bson:"decision" json:"decision"`
	Comments          string         `bson:"comments" json:"comments"`
	DefectDescription string         `bson:"defect_description,omitempty" json:"defect_description,omitempty"`
	DefectSeverity    DefectSeverity `bson:"defect_severity,omitempty" json:"defect_severity,omitempty"`
	RequiresRework    bool           `bson:"requires_rework" json:"requires_rework"`

	TaskStatusAfterReview AssignmentStatus `bson:"task_status_after_review" json:"task_status_after_review"`
	// ReviewRound is 1 for the first decision on a proof.
	ReviewRound int `bson:"review_round" json:"review_round"`
	// ReworkAttempts is the attempt count after this decision was applied.
	ReworkAttempts int `bson:"rework_attempts" json:"rework_attempts"`

	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
