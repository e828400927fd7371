package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

var submittable = []schema.AssignmentStatus{schema.AssignmentAssigned, schema.AssignmentInProgress}

func (s *reviewService) SubmitProof(ctx context.Context, taskID, employeeID uuid.UUID, in ProofInput) (*SubmitResult, error) {
	if err := s.validateProof(&in); err != nil {
		return nil, err
	}

	task, err := s.db.Tasks.GetTask(ctx, taskID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	cur := task.AssignmentFor(employeeID)
	if cur == nil {
		return nil, ErrForbidden
	}
	if cur.Status != schema.AssignmentAssigned && cur.Status != schema.AssignmentInProgress {
		return nil, &StateError{Current: cur.Status, Want: submittable}
	}

	now := s.clock()
	next := cur.Clone()
	if next.ProofID == uuid.Nil {
		next.ProofID = schema.NewID()
	}
	next.Proof = newProof(in, now)
	next.Status = schema.AssignmentPendingReview
	next.UpdatedAt = now

	stored, err := s.db.Tasks.UpdateAssignment(ctx, taskID, employeeID, cur.Version, next)
	if err != nil {
		return nil, s.conflict(ctx, taskID, employeeID, err, submittable)
	}

	slog.InfoContext(ctx, "proof submitted",
		"task_id", taskID, "proof_id", stored.ProofID, "employee_id", employeeID)
	s.metrics.transition(ctx, "submit")
	s.notifySubmitted(ctx, task, stored, false)

	return &SubmitResult{
		ProofID:     stored.ProofID,
		TaskID:      taskID,
		Status:      stored.Status,
		SubmittedAt: stored.Proof.SubmittedAt,
	}, nil
}

func (s *reviewService) ResubmitProof(ctx context.Context, proofID, employeeID uuid.UUID, in ProofInput) (*SubmitResult, error) {
	if err := s.validateProof(&in); err != nil {
		return nil, err
	}

	task, cur, err := s.loadByProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if cur.EmployeeID != employeeID {
		return nil, ErrForbidden
	}
	want := []schema.AssignmentStatus{schema.AssignmentReworkRequired}
	if cur.Status != schema.AssignmentReworkRequired {
		return nil, &StateError{Current: cur.Status, Want: want}
	}

	now := s.clock()
	next := cur.Clone()
	next.Proof = newProof(in, now)
	next.Status = schema.AssignmentPendingReview
	next.UpdatedAt = now

	stored, err := s.db.Tasks.UpdateAssignment(ctx, task.ID, employeeID, cur.Version, next)
	if err != nil {
		return nil, s.conflict(ctx, task.ID, employeeID, err, want)
	}

	slog.InfoContext(ctx, "proof resubmitted",
		"task_id", task.ID, "proof_id", proofID, "employee_id", employeeID,
		"rework_attempts", stored.ReworkAttempts)
	s.metrics.transition(ctx, "resubmit")
	s.notifySubmitted(ctx, task, stored, true)

	return &SubmitResult{
		ProofID:     proofID,
		TaskID:      task.ID,
		Status:      stored.Status,
		SubmittedAt: stored.Proof.SubmittedAt,
	}, nil
}

func newProof(in ProofInput, now time.Time) *schema.ProofSubmission {
	var attachments []string
	if len(in.Attachments) > 0 {
		attachments = append([]string(nil), in.Attachments...)
	}
	return &schema.ProofSubmission{
		GithubLink:      in.GithubLink,
		DemoVideoLink:   in.DemoVideoLink,
		CompletionNotes: in.CompletionNotes,
		Attachments:     attachments,
		Status:          schema.SubmissionPendingReview,
		Decision:        schema.ReviewDecisionPending,
		SubmittedAt:     now,
	}
}

// loadByProof resolves a proof id to its task and assignment.
func (s *reviewService) loadByProof(ctx context.Context, proofID uuid.UUID) (*schema.Task, *schema.Assignment, error) {
	task, err := s.db.Tasks.FindByProofID(ctx, proofID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("load proof: %w", err)
	}
	a := task.AssignmentByProof(proofID)
	if a == nil {
		return nil, nil, ErrNotFound
	}
	return task, a, nil
}

// conflict turns a failed compare-and-swap into a StateError carrying the
// status that won the race.
func (s *reviewService) conflict(ctx context.Context, taskID, employeeID uuid.UUID, err error, want []schema.AssignmentStatus) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case !errors.Is(err, repo.ErrVersionConflict):
		return fmt.Errorf("update assignment: %w", err)
	}

	task, gerr := s.db.Tasks.GetTask(ctx, taskID)
	if gerr != nil {
		return fmt.Errorf("reload after conflict: %w", gerr)
	}
	cur := task.AssignmentFor(employeeID)
	if cur == nil {
		return ErrNotFound
	}
	slog.DebugContext(ctx, "assignment changed concurrently",
		"task_id", taskID, "employee_id", employeeID, "status", cur.Status)
	return &StateError{Current: cur.Status, Want: want}
}
