// Package memstore is an in-process implementation of the repo ports. All
// reads return copies, so callers never alias stored state.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

type Store struct {
	mu            sync.RWMutex
	tasks         map[uuid.UUID]*schema.Task
	reviews       []*schema.Review
	notifications []*schema.Notification
	prefs         map[uuid.UUID]*schema.NotificationPref
	users         map[uuid.UUID]*schema.User
	projects      map[uuid.UUID]*schema.Project
}

func New() *Store {
	return &Store{
		tasks:    make(map[uuid.UUID]*schema.Task),
		prefs:    make(map[uuid.UUID]*schema.NotificationPref),
		users:    make(map[uuid.UUID]*schema.User),
		projects: make(map[uuid.UUID]*schema.Project),
	}
}

// Client wraps the store in a repo.Client.
func (s *Store) Client() *repo.Client {
	return repo.NewClient(s, reviewRepo{s}, notificationRepo{s}, directoryRepo{s}, nil)
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func (s *Store) CreateTask(ctx context.Context, task *schema.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s: %w", task.ID, repo.ErrDuplicate)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*schema.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]*schema.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*schema.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *Store) FindByProofID(ctx context.Context, proofID uuid.UUID) (*schema.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.AssignmentByProof(proofID) != nil {
			return t.Clone(), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Store) AddAssignment(ctx context.Context, taskID uuid.UUID, a schema.Assignment) (*schema.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if t.AssignmentFor(a.EmployeeID) != nil {
		return nil, fmt.Errorf("assignment for %s on task %s: %w", a.EmployeeID, taskID, repo.ErrDuplicate)
	}

	stored := a.Clone()
	stored.Version = 1
	t.Assignments = append(t.Assignments, stored)
	t.UpdatedAt = time.Now()

	out := stored.Clone()
	return &out, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, taskID, employeeID uuid.UUID, expectedVersion int64, next schema.Assignment) (*schema.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cur := t.AssignmentFor(employeeID)
	if cur == nil {
		return nil, repo.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return nil, repo.ErrVersionConflict
	}

	stored := next.Clone()
	stored.EmployeeID = employeeID
	stored.Version = expectedVersion + 1
	*cur = stored
	t.UpdatedAt = time.Now()

	out := stored.Clone()
	return &out, nil
}

func (s *Store) ListAssignments(ctx context.Context, f repo.AssignmentFilter) ([]repo.AssignmentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*schema.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.ProjectIDs != nil && !repo.ContainsID(f.ProjectIDs, t.ProjectID) {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Before(tasks[j]) })

	var out []repo.AssignmentView
	for _, t := range tasks {
		for _, a := range t.Assignments {
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			if f.EmployeeID != uuid.Nil && a.EmployeeID != f.EmployeeID {
				continue
			}
			out = append(out, repo.AssignmentView{
				TaskID:        t.ID,
				TaskTitle:     t.Title,
				ProjectID:     t.ProjectID,
				TaskCreatedAt: t.CreatedAt,
				Assignment:    a.Clone(),
			})
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

type reviewRepo struct{ s *Store }

func (r reviewRepo) Append(ctx context.Context, rv *schema.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reviews {
		if existing.ID == rv.ID {
			return fmt.Errorf("review %s: %w", rv.ID, repo.ErrDuplicate)
		}
	}
	cp := *rv
	r.s.reviews = append(r.s.reviews, &cp)
	return nil
}

func (r reviewRepo) ListByProof(ctx context.Context, proofID uuid.UUID) ([]*schema.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*schema.Review
	for _, rv := range r.s.reviews {
		if rv.ProofID == proofID {
			cp := *rv
			out = append(out, &cp)
		}
	}
	sortReviews(out)
	return out, nil
}

func (r reviewRepo) ListSince(ctx context.Context, since time.Time, projectIDs []uuid.UUID) ([]*schema.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*schema.Review
	for _, rv := range r.s.reviews {
		if rv.CreatedAt.Before(since) {
			continue
		}
		if projectIDs != nil && !repo.ContainsID(projectIDs, rv.ProjectID) {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}
	sortReviews(out)
	return out, nil
}

func sortReviews(rs []*schema.Review) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ReviewRound < rs[j].ReviewRound
	})
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *schema.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *n
	r.s.notifications = append(r.s.notifications, &cp)
	return nil
}

func (r notificationRepo) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*schema.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*schema.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		matched = append(matched, &cp)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*schema.Notification{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range r.s.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, notif := range r.s.notifications {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r notificationRepo) MarkEmailed(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range r.s.notifications {
		if n.ID == id {
			n.IsEmailed = true
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r notificationRepo) GetPrefs(ctx context.Context, userID uuid.UUID) (*schema.NotificationPref, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.prefs[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r notificationRepo) UpsertPrefs(ctx context.Context, p *schema.NotificationPref) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *p
	r.s.prefs[p.UserID] = &cp
	return nil
}

// ---------------------------------------------------------------------------
// Directory
// ---------------------------------------------------------------------------

type directoryRepo struct{ s *Store }

func (r directoryRepo) GetUser(ctx context.Context, id uuid.UUID) (*schema.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r directoryRepo) GetProject(ctx context.Context, id uuid.UUID) (*schema.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r directoryRepo) ListProjectsByManager(ctx context.Context, managerID uuid.UUID) ([]*schema.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*schema.Project
	for _, p := range r.s.projects {
		if p.ManagerID == managerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r directoryRepo) UpsertUser(ctx context.Context, u *schema.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r directoryRepo) UpsertProject(ctx context.Context, p *schema.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *p
	r.s.projects[p.ID] = &cp
	return nil
}
