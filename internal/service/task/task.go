package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/access"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
)

type Config struct {
	MaxReworkAttempts int
}

func FromCentralConfig(c config.ReviewConfig) Config {
	cfg := Config{MaxReworkAttempts: c.MaxReworkAttempts}
	if cfg.MaxReworkAttempts <= 0 {
		cfg.MaxReworkAttempts = schema.DefaultMaxReworkAttempts
	}
	return cfg
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	ProjectID   uuid.UUID `json:"project_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
}

type AssignRequest struct {
	EmployeeID uuid.UUID  `json:"employee_id" validate:"required"`
	Status     string     `json:"status" validate:"omitempty,oneof=assigned in_progress"`
	Deadline   *time.Time `json:"deadline"`
}

type ProgressRequest struct {
	Progress int `json:"progress" validate:"gte=0,lte=100"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	CreateTask(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*schema.Task, error)
	GetTask(ctx context.Context, taskID, actorID uuid.UUID) (*schema.Task, error)
	AssignEmployee(ctx context.Context, taskID, actorID uuid.UUID, req AssignRequest) (*schema.Assignment, error)
	ListMyAssignments(ctx context.Context, employeeID uuid.UUID, status string) ([]repo.AssignmentView, error)
	UpdateProgress(ctx context.Context, taskID, employeeID uuid.UUID, req ProgressRequest) (*schema.Assignment, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type taskService struct {
	db       *repo.Client
	sink     notification.Sink
	cfg      Config
	validate *validator.Validate
	now      func() time.Time
}

func New(db *repo.Client, sink notification.Sink, cfg Config) Service {
	return &taskService{
		db:       db,
		sink:     sink,
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *taskService) CreateTask(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*schema.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.check(req); err != nil {
		return nil, err
	}
	if _, err := s.manager(ctx, actorID, req.ProjectID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &schema.Task{
		ID:          schema.NewID(),
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   actorID,
		Assignments: []schema.Assignment{},
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.db.Tasks.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	slog.InfoContext(ctx, "task created", "task_id", t.ID, "project_id", t.ProjectID, "created_by", actorID)
	return t, nil
}

func (s *taskService) GetTask(ctx context.Context, taskID, actorID uuid.UUID) (*schema.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.AssignmentFor(actorID) != nil {
		return t, nil
	}
	if _, err := s.manager(ctx, actorID, t.ProjectID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) AssignEmployee(ctx context.Context, taskID, actorID uuid.UUID, req AssignRequest) (*schema.Assignment, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.manager(ctx, actorID, t.ProjectID); err != nil {
		return nil, err
	}
	if _, err := s.db.Directory.GetUser(ctx, req.EmployeeID); err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: unknown employee %s", ErrValidation, req.EmployeeID)
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}

	status := schema.AssignmentAssigned
	if req.Status != "" {
		status = schema.AssignmentStatus(req.Status)
	}
	now := s.now().UTC()
	a, err := s.db.Tasks.AddAssignment(ctx, taskID, schema.Assignment{
		EmployeeID:        req.EmployeeID,
		Status:            status,
		Deadline:          req.Deadline,
		MaxReworkAttempts: s.cfg.MaxReworkAttempts,
		AssignedAt:        now,
		UpdatedAt:         now,
	})
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		return nil, ErrAlreadyAssigned
	case repo.IsNotFound(err):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("add assignment: %w", err)
	}

	slog.InfoContext(ctx, "employee assigned",
		"task_id", taskID, "employee_id", req.EmployeeID, "status", status, "assigned_by", actorID)
	s.notifyAssigned(ctx, t, a)
	return a, nil
}

func (s *taskService) ListMyAssignments(ctx context.Context, employeeID uuid.UUID, status string) ([]repo.AssignmentView, error) {
	f := repo.AssignmentFilter{EmployeeID: employeeID}
	if status != "" {
		st, err := schema.ParseAssignmentStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Status = st
	}
	views, err := s.db.Tasks.ListAssignments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	if views == nil {
		views = []repo.AssignmentView{}
	}
	return views, nil
}

// UpdateProgress records the owner's progress. The first update on an
// assigned task starts it.
func (s *taskService) UpdateProgress(ctx context.Context, taskID, employeeID uuid.UUID, req ProgressRequest) (*schema.Assignment, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	cur := t.AssignmentFor(employeeID)
	if cur == nil {
		return nil, ErrForbidden
	}

	next := cur.Clone()
	switch cur.Status {
	case schema.AssignmentAssigned:
		next.Status = schema.AssignmentInProgress
	case schema.AssignmentInProgress, schema.AssignmentReworkRequired:
	default:
		return nil, fmt.Errorf("%w: assignment is %s", ErrConflict, cur.Status)
	}
	next.Progress = req.Progress
	next.UpdatedAt = s.now().UTC()

	stored, err := s.db.Tasks.UpdateAssignment(ctx, taskID, employeeID, cur.Version, next)
	switch {
	case errors.Is(err, repo.ErrVersionConflict):
		return nil, fmt.Errorf("%w: assignment changed concurrently", ErrConflict)
	case repo.IsNotFound(err):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("update progress: %w", err)
	}

	slog.DebugContext(ctx, "progress updated", "task_id", taskID, "employee_id", employeeID, "progress", stored.Progress)
	return stored, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *taskService) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %s", ErrValidation, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (s *taskService) load(ctx context.Context, taskID uuid.UUID) (*schema.Task, error) {
	t, err := s.db.Tasks.GetTask(ctx, taskID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	return t, nil
}

// manager returns the actor when they are an admin or manage projectID.
func (s *taskService) manager(ctx context.Context, actorID, projectID uuid.UUID) (*schema.User, error) {
	u, err := access.LoadActor(ctx, s.db.Directory, actorID)
	if err != nil {
		if errors.Is(err, access.ErrUnknownActor) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	p, err := s.db.Directory.GetProject(ctx, projectID)
	if err != nil {
		if repo.IsNotFound(err) {
			if u.Role == schema.RoleAdmin {
				return nil, fmt.Errorf("%w: unknown project %s", ErrValidation, projectID)
			}
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if !access.CanManageProject(u, p) {
		return nil, ErrForbidden
	}
	return u, nil
}

func (s *taskService) notifyAssigned(ctx context.Context, t *schema.Task, a *schema.Assignment) {
	if s.sink == nil {
		return
	}
	body := fmt.Sprintf("You were assigned to task %q.", t.Title)
	if a.Deadline != nil {
		body = fmt.Sprintf("You were assigned to task %q, due %s.", t.Title, a.Deadline.Format("2006-01-02"))
	}
	err := s.sink.Enqueue(ctx, notification.Event{
		UserID:     a.EmployeeID,
		Type:       schema.NotificationTaskAssigned,
		Title:      "New task assigned",
		Body:       body,
		Data:       map[string]any{"task_id": t.ID.String(), "project_id": t.ProjectID.String()},
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "notification enqueue failed", "type", schema.NotificationTaskAssigned, "user_id", a.EmployeeID, "error", err)
	}
}
