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
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/access"
)

var reviewable = []schema.AssignmentStatus{schema.AssignmentPendingReview}

func (s *reviewService) ReviewProof(ctx context.Context, proofID, reviewerID uuid.UUID, req ReviewRequest) (*ReviewResult, error) {
	if err := s.validateReview(&req); err != nil {
		return nil, err
	}
	decision, err := schema.ParseDecision(req.Decision)
	if err != nil {
		return nil, ValidationErrors{{Field: "decision", Rule: "oneof", Message: err.Error()}}
	}

	task, cur, err := s.loadByProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	reviewer, err := s.authorizeReviewer(ctx, reviewerID, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if reviewer.ID == cur.EmployeeID {
		return nil, ErrForbidden
	}
	if cur.Status != schema.AssignmentPendingReview {
		return nil, &StateError{Current: cur.Status, Want: reviewable}
	}

	if decision == schema.DecisionApproved {
		return s.approve(ctx, task, cur, reviewer, req)
	}
	return s.reject(ctx, task, cur, reviewer, req)
}

// authorizeReviewer loads the reviewer and checks they may decide on the
// project's work.
func (s *reviewService) authorizeReviewer(ctx context.Context, reviewerID, projectID uuid.UUID) (*schema.User, error) {
	reviewer, err := access.LoadActor(ctx, s.db.Directory, reviewerID)
	if err != nil {
		if errors.Is(err, access.ErrUnknownActor) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if reviewer.Role == schema.RoleAdmin {
		return reviewer, nil
	}

	project, err := s.db.Directory.GetProject(ctx, projectID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if !access.CanManageProject(reviewer, project) {
		return nil, ErrForbidden
	}
	return reviewer, nil
}

func (s *reviewService) approve(ctx context.Context, task *schema.Task, cur *schema.Assignment, reviewer *schema.User, req ReviewRequest) (*ReviewResult, error) {
	now := s.clock()
	next := cur.Clone()
	next.Status = schema.AssignmentApproved
	next.Progress = 100
	next.FinalApprovedAt = &now
	next.UpdatedAt = now
	if next.Proof != nil {
		reviewerID := reviewer.ID
		next.Proof.Status = schema.SubmissionApproved
		next.Proof.Decision = schema.ReviewDecisionApproved
		next.Proof.ReviewedBy = &reviewerID
		next.Proof.ReviewedAt = &now
	}
	next.ReviewCycle = &schema.ReviewCycle{
		ReviewerID:  reviewer.ID,
		Decision:    schema.DecisionApproved,
		Comments:    req.Comments,
		DefectCount: cur.DefectCount,
		ReviewedAt:  now,
	}

	stored, err := s.db.Tasks.UpdateAssignment(ctx, task.ID, cur.EmployeeID, cur.Version, next)
	if err != nil {
		return nil, s.conflict(ctx, task.ID, cur.EmployeeID, err, reviewable)
	}

	rv := s.record(ctx, task, cur, stored, reviewer, req, schema.DecisionApproved, now)
	slog.InfoContext(ctx, "proof approved",
		"task_id", task.ID, "proof_id", stored.ProofID, "employee_id", stored.EmployeeID,
		"reviewer_id", reviewer.ID, "rework_attempts", stored.ReworkAttempts)
	s.metrics.transition(ctx, "approve")
	s.notifyApproved(ctx, task, stored)

	res := resultFor(stored, rv)
	nt, err := s.assignNext(ctx, task, stored.EmployeeID)
	if err != nil {
		slog.ErrorContext(ctx, "next task assignment failed",
			"task_id", task.ID, "employee_id", stored.EmployeeID, "error", err)
		res.NextTaskError = err.Error()
		return res, nil
	}
	res.NextTask = nt
	s.notifyNextTask(ctx, stored.EmployeeID, task.ProjectID, nt)
	return res, nil
}

func (s *reviewService) reject(ctx context.Context, task *schema.Task, cur *schema.Assignment, reviewer *schema.User, req ReviewRequest) (*ReviewResult, error) {
	if cur.ReworkExhausted() {
		return nil, s.exhausted(ctx, task, cur)
	}
	severity, err := schema.ParseSeverity(req.DefectSeverity)
	if err != nil {
		return nil, ValidationErrors{{Field: "defect_severity", Rule: "oneof", Message: err.Error()}}
	}
	req.DefectSeverity = string(severity)

	now := s.clock()
	next := cur.Clone()
	next.Status = schema.AssignmentReworkRequired
	next.DefectCount++
	next.ReworkAttempts++
	next.Proof = nil
	next.UpdatedAt = now
	next.ReviewCycle = &schema.ReviewCycle{
		ReviewerID:        reviewer.ID,
		Decision:          schema.DecisionDefectFound,
		Comments:          req.Comments,
		DefectDescription: req.DefectDescription,
		DefectCount:       next.DefectCount,
		ReworkRequired:    true,
		ReviewedAt:        now,
	}

	stored, err := s.db.Tasks.UpdateAssignment(ctx, task.ID, cur.EmployeeID, cur.Version, next)
	if err != nil {
		return nil, s.conflict(ctx, task.ID, cur.EmployeeID, err, reviewable)
	}

	rv := s.record(ctx, task, cur, stored, reviewer, req, schema.DecisionDefectFound, now)
	slog.InfoContext(ctx, "defect reported",
		"task_id", task.ID, "proof_id", stored.ProofID, "employee_id", stored.EmployeeID,
		"reviewer_id", reviewer.ID, "severity", severity,
		"rework_attempts", stored.ReworkAttempts, "max_rework_attempts", stored.EffectiveMaxRework())
	s.metrics.transition(ctx, "defect")
	s.notifyRework(ctx, task, stored, req)

	return resultFor(stored, rv), nil
}

// exhausted flags the assignment for manual reassignment. The status stays
// pending_review so the reviewer can still approve.
func (s *reviewService) exhausted(ctx context.Context, task *schema.Task, cur *schema.Assignment) error {
	s.metrics.reworkExhausted(ctx)
	exErr := &ReworkExhaustedError{Attempts: cur.ReworkAttempts, Max: cur.EffectiveMaxRework()}
	if cur.ReassignmentRequired {
		return exErr
	}

	next := cur.Clone()
	next.ReassignmentRequired = true
	next.UpdatedAt = s.clock()
	stored, err := s.db.Tasks.UpdateAssignment(ctx, task.ID, cur.EmployeeID, cur.Version, next)
	if err != nil {
		return s.conflict(ctx, task.ID, cur.EmployeeID, err, reviewable)
	}

	slog.WarnContext(ctx, "rework attempts exhausted",
		"task_id", task.ID, "proof_id", stored.ProofID, "employee_id", stored.EmployeeID,
		"rework_attempts", stored.ReworkAttempts)
	s.notifyExhausted(ctx, task, stored)
	return exErr
}

// record appends the audit entry. The transition has already committed, so a
// failure here is logged rather than returned.
func (s *reviewService) record(ctx context.Context, task *schema.Task, before, after *schema.Assignment, reviewer *schema.User, req ReviewRequest, decision schema.Decision, now time.Time) *schema.Review {
	rv := &schema.Review{
		ID:                    schema.NewID(),
		ProofID:               after.ProofID,
		TaskID:                task.ID,
		EmployeeID:            after.EmployeeID,
		ProjectID:             task.ProjectID,
		ReviewerID:            reviewer.ID,
		ReviewerRole:          reviewer.Role,
		Decision:              decision,
		Comments:              req.Comments,
		RequiresRework:        decision == schema.DecisionDefectFound,
		TaskStatusAfterReview: after.Status,
		ReviewRound:           before.ReworkAttempts + 1,
		ReworkAttempts:        after.ReworkAttempts,
		CreatedAt:             now,
	}
	if decision == schema.DecisionDefectFound {
		rv.DefectDescription = req.DefectDescription
		rv.DefectSeverity = schema.DefectSeverity(req.DefectSeverity)
	}
	if before.Proof != nil {
		rv.SubmittedAt = before.Proof.SubmittedAt
	}

	if err := s.db.Reviews.Append(ctx, rv); err != nil {
		slog.ErrorContext(ctx, "append review record failed",
			"proof_id", rv.ProofID, "review_id", rv.ID, "error", err)
	}
	return rv
}

func resultFor(a *schema.Assignment, rv *schema.Review) *ReviewResult {
	return &ReviewResult{
		ProofID:           a.ProofID,
		ReviewID:          rv.ID,
		Status:            a.Status,
		DefectCount:       a.DefectCount,
		ReworkAttempts:    a.ReworkAttempts,
		MaxReworkAttempts: a.EffectiveMaxRework(),
	}
}
