package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/access"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/s3"
)

func (s *reviewService) ListPendingReviews(ctx context.Context, reviewerID uuid.UUID) ([]PendingReview, error) {
	reviewer, err := s.actor(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer.Role != schema.RoleAdmin && reviewer.Role != schema.RoleManager {
		return nil, ErrForbidden
	}
	projects, err := access.ManagedProjects(ctx, s.db.Directory, reviewer)
	if err != nil {
		return nil, err
	}

	views, err := s.db.Tasks.ListAssignments(ctx, repo.AssignmentFilter{
		Status:     schema.AssignmentPendingReview,
		ProjectIDs: projects,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending assignments: %w", err)
	}

	employees := make(map[uuid.UUID]EmployeeSummary)
	out := make([]PendingReview, 0, len(views))
	for _, v := range views {
		a := v.Assignment
		emp, ok := employees[a.EmployeeID]
		if !ok {
			emp = s.employeeSummary(ctx, a.EmployeeID)
			employees[a.EmployeeID] = emp
		}
		item := PendingReview{
			ProofID:              a.ProofID,
			TaskID:               v.TaskID,
			TaskTitle:            v.TaskTitle,
			ProjectID:            v.ProjectID,
			Employee:             emp,
			Proof:                a.Proof,
			DefectCount:          a.DefectCount,
			ReworkAttempts:       a.ReworkAttempts,
			MaxReworkAttempts:    a.EffectiveMaxRework(),
			Resubmission:         a.ReworkAttempts > 0,
			ReassignmentRequired: a.ReassignmentRequired,
		}
		if a.Proof != nil {
			item.SubmittedAt = a.Proof.SubmittedAt
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].TaskID.String() < out[j].TaskID.String()
	})
	return out, nil
}

func (s *reviewService) employeeSummary(ctx context.Context, id uuid.UUID) EmployeeSummary {
	u, err := s.db.Directory.GetUser(ctx, id)
	if err != nil {
		if !repo.IsNotFound(err) {
			slog.WarnContext(ctx, "employee lookup failed", "employee_id", id, "error", err)
		}
		return EmployeeSummary{ID: id}
	}
	return EmployeeSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *reviewService) GetProofStatus(ctx context.Context, proofID, actorID uuid.UUID) (*ProofStatus, error) {
	task, a, err := s.loadByProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actorID, task, a); err != nil {
		return nil, err
	}

	history, err := s.db.Reviews.ListByProof(ctx, proofID)
	if err != nil {
		return nil, fmt.Errorf("load review history: %w", err)
	}
	if history == nil {
		history = []*schema.Review{}
	}

	ceiling := a.EffectiveMaxRework()
	remaining := ceiling - a.ReworkAttempts
	if remaining < 0 {
		remaining = 0
	}
	st := &ProofStatus{
		ProofID:                 proofID,
		TaskID:                  task.ID,
		TaskTitle:               task.Title,
		ProjectID:               task.ProjectID,
		EmployeeID:              a.EmployeeID,
		Status:                  a.Status,
		Decision:                schema.ReviewDecisionPending,
		Progress:                a.Progress,
		Proof:                   a.Proof,
		ReviewCycle:             a.ReviewCycle,
		DefectCount:             a.DefectCount,
		ReworkAttempts:          a.ReworkAttempts,
		MaxReworkAttempts:       ceiling,
		RemainingReworkAttempts: remaining,
		ReassignmentRequired:    a.ReassignmentRequired,
		Deadline:                a.Deadline,
		FinalApprovedAt:         a.FinalApprovedAt,
		Version:                 a.Version,
		History:                 history,
	}
	switch {
	case a.Proof != nil:
		st.Decision = a.Proof.Decision
	case a.ReviewCycle != nil:
		st.Decision = schema.ReviewDecision(a.ReviewCycle.Decision)
	}
	return st, nil
}

func (s *reviewService) GetAttachmentURLs(ctx context.Context, proofID, actorID uuid.UUID) ([]AttachmentURL, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	task, a, err := s.loadByProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actorID, task, a); err != nil {
		return nil, err
	}
	if a.Proof == nil {
		return []AttachmentURL{}, nil
	}

	out := make([]AttachmentURL, 0, len(a.Proof.Attachments))
	for _, ref := range a.Proof.Attachments {
		if !s3.IsAttachmentKey(ref) {
			out = append(out, AttachmentURL{Reference: ref, URL: ref})
			continue
		}
		u, err := s.files.PresignDownload(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("presign attachment: %w", err)
		}
		out = append(out, AttachmentURL{Reference: ref, URL: u, Presigned: true})
	}
	return out, nil
}

func (s *reviewService) AttachmentUploadURL(ctx context.Context, actorID uuid.UUID, filename, contentType string) (*UploadURL, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, ValidationErrors{{Field: "filename", Rule: "required", Message: "filename is required"}}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.actor(ctx, actorID); err != nil {
		return nil, err
	}

	key := s3.AttachmentKey(actorID, filename)
	u, err := s.files.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadURL{Key: key, URL: u, ExpiresAt: s.clock().Add(s.files.TTL())}, nil
}

// actor loads the caller, mapping an unknown id to ErrForbidden.
func (s *reviewService) actor(ctx context.Context, id uuid.UUID) (*schema.User, error) {
	u, err := access.LoadActor(ctx, s.db.Directory, id)
	if err != nil {
		if errors.Is(err, access.ErrUnknownActor) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return u, nil
}

// canView allows the assignment owner, the project manager and admins.
func (s *reviewService) canView(ctx context.Context, actorID uuid.UUID, task *schema.Task, a *schema.Assignment) error {
	if actorID == a.EmployeeID {
		return nil
	}
	_, err := s.authorizeReviewer(ctx, actorID, task.ProjectID)
	return err
}
