package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
)

// notify hands an event to the sink. Failures are logged and dropped so they
// never fail the transition that produced them.
func (s *reviewService) notify(ctx context.Context, userID uuid.UUID, typ schema.NotificationType, title, body string, data map[string]any) {
	if s.sink == nil || userID == uuid.Nil {
		return
	}
	err := s.sink.Enqueue(ctx, notification.Event{
		UserID:     userID,
		Type:       typ,
		Title:      title,
		Body:       body,
		Data:       data,
		OccurredAt: s.clock(),
	})
	if err != nil {
		slog.WarnContext(ctx, "notification enqueue failed", "type", typ, "user_id", userID, "error", err)
	}
}

// projectManager returns the manager of projectID, or uuid.Nil when unknown.
func (s *reviewService) projectManager(ctx context.Context, projectID uuid.UUID) uuid.UUID {
	p, err := s.db.Directory.GetProject(ctx, projectID)
	if err != nil {
		slog.WarnContext(ctx, "project lookup for notification failed", "project_id", projectID, "error", err)
		return uuid.Nil
	}
	return p.ManagerID
}

func (s *reviewService) notifySubmitted(ctx context.Context, task *schema.Task, a *schema.Assignment, resubmission bool) {
	typ := schema.NotificationProofSubmitted
	title := "Proof submitted for review"
	recipient := uuid.Nil
	if resubmission {
		typ = schema.NotificationProofResubmitted
		title = "Proof resubmitted for review"
		if a.ReviewCycle != nil {
			recipient = a.ReviewCycle.ReviewerID
		}
	}
	if recipient == uuid.Nil {
		recipient = s.projectManager(ctx, task.ProjectID)
	}

	body := fmt.Sprintf("Task %q has a proof awaiting review.", task.Title)
	if resubmission {
		body = fmt.Sprintf("Task %q was resubmitted after rework (attempt %d of %d).", task.Title, a.ReworkAttempts, a.EffectiveMaxRework())
	}
	s.notify(ctx, recipient, typ, title, body, map[string]any{
		"task_id":     task.ID.String(),
		"proof_id":    a.ProofID.String(),
		"employee_id": a.EmployeeID.String(),
	})
}

func (s *reviewService) notifyApproved(ctx context.Context, task *schema.Task, a *schema.Assignment) {
	s.notify(ctx, a.EmployeeID, schema.NotificationProofApproved, "Proof approved",
		fmt.Sprintf("Your proof for task %q was approved.", task.Title),
		map[string]any{"task_id": task.ID.String(), "proof_id": a.ProofID.String()})
}

func (s *reviewService) notifyRework(ctx context.Context, task *schema.Task, a *schema.Assignment, req ReviewRequest) {
	remaining := a.EffectiveMaxRework() - a.ReworkAttempts
	s.notify(ctx, a.EmployeeID, schema.NotificationReworkRequired, "Rework required",
		fmt.Sprintf("Task %q needs rework: %s (%d attempt(s) left).", task.Title, req.DefectDescription, remaining),
		map[string]any{
			"task_id":         task.ID.String(),
			"proof_id":        a.ProofID.String(),
			"comments":        req.Comments,
			"rework_attempts": a.ReworkAttempts,
		})
}

func (s *reviewService) notifyExhausted(ctx context.Context, task *schema.Task, a *schema.Assignment) {
	s.notify(ctx, s.projectManager(ctx, task.ProjectID), schema.NotificationReworkExhausted, "Task needs manual reassignment",
		fmt.Sprintf("Task %q used all %d rework attempts and needs manual reassignment.", task.Title, a.EffectiveMaxRework()),
		map[string]any{
			"task_id":     task.ID.String(),
			"proof_id":    a.ProofID.String(),
			"employee_id": a.EmployeeID.String(),
		})
}

func (s *reviewService) notifyNextTask(ctx context.Context, employeeID, projectID uuid.UUID, next *NextTask) {
	if next == nil {
		return
	}
	if next.AllComplete {
		s.notify(ctx, employeeID, schema.NotificationAllTasksCompleted, "All tasks completed",
			"You have no remaining tasks in this project.",
			map[string]any{"project_id": projectID.String()})
		return
	}
	if !next.Assigned {
		return
	}
	body := fmt.Sprintf("Task %q is now in progress.", next.Title)
	if next.Deadline != nil {
		body = fmt.Sprintf("Task %q is now in progress, due %s.", next.Title, next.Deadline.Format("2006-01-02"))
	}
	s.notify(ctx, employeeID, schema.NotificationTaskAssigned, "New task assigned", body,
		map[string]any{"task_id": next.TaskID.String(), "project_id": projectID.String()})
}
