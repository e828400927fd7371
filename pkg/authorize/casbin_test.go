package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestAuthorization(t *testing.T) IAuthorization {
	t.Helper()
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestDefaultPolicies(t *testing.T) {
	a := newTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		role   Role
		object Resource
		action Action
		want   bool
	}{
		{"employee submits proof", RoleEmployee, ResourceProof, ActionCreate, true},
		{"employee lists own assignments", RoleEmployee, ResourceAssignment, ActionList, true},
		{"employee cannot review", RoleEmployee, ResourceReview, ActionReview, false},
		{"employee cannot read analytics", RoleEmployee, ResourceAnalytics, ActionRead, false},
		{"manager reviews", RoleManager, ResourceReview, ActionReview, true},
		{"manager inherits proof read", RoleManager, ResourceProof, ActionRead, true},
		{"manager creates tasks", RoleManager, ResourceTask, ActionCreate, true},
		{"admin wildcard", RoleAdmin, ResourceAnalytics, ActionManage, true},
		{"admin inherits review", RoleAdmin, ResourceReview, ActionList, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Enforce(ctx, tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestDenyOverridesAllow(t *testing.T) {
	a := newTestAuthorization(t)
	ctx := context.Background()

	if _, err := a.AddPermission(ctx, RoleManager, ResourceAnalytics, ActionRead, EffectDeny); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if err := a.MustEnforce(ctx, RoleManager, ResourceAnalytics, ActionRead); !errors.Is(err, ErrForbidden) {
		t.Errorf("MustEnforce err = %v, want ErrForbidden", err)
	}
	if _, err := a.RemovePermission(ctx, RoleManager, ResourceAnalytics, ActionRead, EffectDeny); err != nil {
		t.Fatalf("RemovePermission: %v", err)
	}
	if err := a.MustEnforce(ctx, RoleManager, ResourceAnalytics, ActionRead); err != nil {
		t.Errorf("MustEnforce after removal = %v", err)
	}
}

func TestEnforceInvalidArgs(t *testing.T) {
	a := newTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		role   Role
		object Resource
		action Action
	}{
		{"empty role", "", ResourceProof, ActionRead},
		{"unknown resource", RoleEmployee, Resource("payroll"), ActionRead},
		{"unknown action", RoleEmployee, ResourceProof, Action("delete")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Enforce(ctx, tt.role, tt.object, tt.action); !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("Enforce err = %v, want ErrInvalidArgs", err)
			}
		})
	}
}

func TestPolicyFileLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, role:employee, analytics, read, allow\n"), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	a, err := New(Config{PolicyPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ok, err := a.Enforce(context.Background(), RoleEmployee, ResourceAnalytics, ActionRead)
	if err != nil || !ok {
		t.Errorf("Enforce = %v, %v; want allowed from policy file", ok, err)
	}
}

func TestRoleFromUserRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"employee", RoleEmployee},
		{"Manager", RoleManager},
		{" admin ", RoleAdmin},
		{"owner", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RoleFromUserRole(tt.in); got != tt.want {
				t.Errorf("RoleFromUserRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
