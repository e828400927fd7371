package authorize

import (
	"context"
	"errors"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/reqctx"
)

var (
	ErrNoSubjectInContext = errors.New("no subject found in context")
)

// RoleFromContext resolves the policy subject from the request claims.
func RoleFromContext(ctx context.Context) (Role, error) {
	claims := reqctx.ClaimsFromContext(ctx)
	if claims == nil {
		return "", ErrNoSubjectInContext
	}
	role := RoleFromUserRole(claims.GetRole())
	if role == "" {
		return "", ErrNoSubjectInContext
	}
	return role, nil
}

// MustRoleFromContext resolves the role or panics.
// Use only behind the auth middleware.
func MustRoleFromContext(ctx context.Context) Role {
	role, err := RoleFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return role
}
