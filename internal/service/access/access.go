// Package access resolves directory-based permissions shared by the task and
// review services: who manages which project.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

// ErrUnknownActor means the caller has no directory record.
var ErrUnknownActor = errors.New("actor not found in directory")

// LoadActor fetches the acting user.
func LoadActor(ctx context.Context, dir repo.DirectoryRepository, id uuid.UUID) (*schema.User, error) {
	u, err := dir.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownActor, id)
		}
		return nil, fmt.Errorf("load actor: %w", err)
	}
	return u, nil
}

// CanManageProject reports whether u is an admin or the project's manager.
func CanManageProject(u *schema.User, p *schema.Project) bool {
	if u == nil || p == nil {
		return false
	}
	switch u.Role {
	case schema.RoleAdmin:
		return true
	case schema.RoleManager:
		return p.ManagerID == u.ID
	}
	return false
}

// ManagedProjects returns the project ids u may review. A nil slice means
// every project (admin); an empty non-nil slice means none.
func ManagedProjects(ctx context.Context, dir repo.DirectoryRepository, u *schema.User) ([]uuid.UUID, error) {
	switch u.Role {
	case schema.RoleAdmin:
		return nil, nil
	case schema.RoleManager:
		projects, err := dir.ListProjectsByManager(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("list managed projects: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}
	return []uuid.UUID{}, nil
}
