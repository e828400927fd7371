package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

// assignNext activates the employee's next task in the project, walking tasks
// in creation order. A task they have never held gets a fresh in_progress
// assignment; an assigned one is moved to in_progress. Lost races move on to
// the following candidate.
func (s *reviewService) assignNext(ctx context.Context, done *schema.Task, employeeID uuid.UUID) (*NextTask, error) {
	tasks, err := s.db.Tasks.ListProjectTasks(ctx, done.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}

	for _, t := range tasks {
		if t.ID == done.ID {
			continue
		}
		nt, err := s.activate(ctx, t, employeeID)
		if err != nil {
			return nil, err
		}
		if nt != nil {
			return nt, nil
		}
	}
	return &NextTask{AllComplete: true}, nil
}

// activate returns nil when t is not eligible for the employee.
func (s *reviewService) activate(ctx context.Context, t *schema.Task, employeeID uuid.UUID) (*NextTask, error) {
	now := s.clock()
	deadline := now.Add(s.cfg.NextTaskDeadline)

	cur := t.AssignmentFor(employeeID)
	if cur == nil {
		stored, err := s.db.Tasks.AddAssignment(ctx, t.ID, schema.Assignment{
			EmployeeID:        employeeID,
			Status:            schema.AssignmentInProgress,
			Deadline:          &deadline,
			MaxReworkAttempts: s.cfg.MaxReworkAttempts,
			AssignedAt:        now,
			UpdatedAt:         now,
		})
		switch {
		case errors.Is(err, repo.ErrDuplicate), repo.IsNotFound(err):
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("assign next task: %w", err)
		}
		return s.activated(ctx, t, stored), nil
	}

	if cur.Status != schema.AssignmentAssigned {
		return nil, nil
	}
	next := cur.Clone()
	next.Status = schema.AssignmentInProgress
	next.Progress = 0
	next.Deadline = &deadline
	next.UpdatedAt = now
	stored, err := s.db.Tasks.UpdateAssignment(ctx, t.ID, employeeID, cur.Version, next)
	switch {
	case errors.Is(err, repo.ErrVersionConflict), repo.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("start next task: %w", err)
	}
	return s.activated(ctx, t, stored), nil
}

func (s *reviewService) activated(ctx context.Context, t *schema.Task, a *schema.Assignment) *NextTask {
	slog.InfoContext(ctx, "next task activated",
		"task_id", t.ID, "employee_id", a.EmployeeID, "deadline", a.Deadline)
	s.metrics.transition(ctx, "start")
	return &NextTask{
		Assigned: true,
		TaskID:   t.ID,
		Title:    t.Title,
		Deadline: a.Deadline,
	}
}
