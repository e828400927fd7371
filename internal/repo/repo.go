// Package repo declares the persistence ports used by the services. The
// memstore and mongostore subpackages provide implementations with identical
// semantics.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AssignmentFilter narrows ListAssignments. Zero-valued fields do not filter.
type AssignmentFilter struct {
	Status     schema.AssignmentStatus
	EmployeeID uuid.UUID
	// ProjectIDs restricts results to these projects when non-nil. An empty
	// non-nil slice matches nothing.
	ProjectIDs []uuid.UUID
}

// AssignmentView is an assignment together with the task fields read models
// need.
type AssignmentView struct {
	TaskID        uuid.UUID         `json:"task_id"`
	TaskTitle     string            `json:"task_title"`
	ProjectID     uuid.UUID         `json:"project_id"`
	TaskCreatedAt time.Time         `json:"task_created_at"`
	Assignment    schema.Assignment `json:"assignment"`
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *schema.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*schema.Task, error)
	// ListProjectTasks returns the project's tasks in creation order.
	ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]*schema.Task, error)
	FindByProofID(ctx context.Context, proofID uuid.UUID) (*schema.Task, error)

	// AddAssignment appends an assignment. It fails with ErrDuplicate when
	// the employee already holds one on the task.
	AddAssignment(ctx context.Context, taskID uuid.UUID, a schema.Assignment) (*schema.Assignment, error)

	// UpdateAssignment replaces the employee's assignment only if its stored
	// version equals expectedVersion, and returns the stored result with the
	// bumped version. A mismatch yields ErrVersionConflict.
	UpdateAssignment(ctx context.Context, taskID, employeeID uuid.UUID, expectedVersion int64, next schema.Assignment) (*schema.Assignment, error)

	ListAssignments(ctx context.Context, f AssignmentFilter) ([]AssignmentView, error)
}

type ReviewRepository interface {
	Append(ctx context.Context, r *schema.Review) error
	// ListByProof returns the proof's reviews oldest first.
	ListByProof(ctx context.Context, proofID uuid.UUID) ([]*schema.Review, error)
	// ListSince returns reviews created at or after since. A nil projectIDs
	// slice means all projects.
	ListSince(ctx context.Context, since time.Time, projectIDs []uuid.UUID) ([]*schema.Review, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *schema.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*schema.Notification, error)
	// MarkRead returns ErrNotFound unless the notification belongs to userID.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkEmailed(ctx context.Context, id uuid.UUID) error
	// GetPrefs returns ErrNotFound when the user never saved preferences.
	GetPrefs(ctx context.Context, userID uuid.UUID) (*schema.NotificationPref, error)
	UpsertPrefs(ctx context.Context, p *schema.NotificationPref) error
}

type DirectoryRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*schema.User, error)
	GetProject(ctx context.Context, id uuid.UUID) (*schema.Project, error)
	ListProjectsByManager(ctx context.Context, managerID uuid.UUID) ([]*schema.Project, error)
	UpsertUser(ctx context.Context, u *schema.User) error
	UpsertProject(ctx context.Context, p *schema.Project) error
}

// Client bundles the repositories behind one handle, the way services
// receive their storage dependency.
type Client struct {
	Tasks         TaskRepository
	Reviews       ReviewRepository
	Notifications NotificationRepository
	Directory     DirectoryRepository

	closeFn func(ctx context.Context) error
}

func NewClient(tasks TaskRepository, reviews ReviewRepository, notifs NotificationRepository, dir DirectoryRepository, closeFn func(ctx context.Context) error) *Client {
	return &Client{
		Tasks:         tasks,
		Reviews:       reviews,
		Notifications: notifs,
		Directory:     dir,
		closeFn:       closeFn,
	}
}

func (c *Client) Close(ctx context.Context) error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn(ctx)
}

// ContainsID reports whether ids contains id.
func ContainsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
