package authorize

import "strings"

type Action string
type Resource string
type Role string

// PolicyEffect is the eft column of a p rule.
type PolicyEffect string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionList   Action = "list"
	ActionReview Action = "review"
	ActionManage Action = "manage"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionList: {},
	ActionReview: {}, ActionManage: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceTask         Resource = "task"
	ResourceAssignment   Resource = "assignment"
	ResourceProof        Resource = "proof"
	ResourceReview       Resource = "review"
	ResourceAnalytics    Resource = "analytics"
	ResourceNotification Resource = "notification"
)

var KnownResources = map[Resource]struct{}{
	ResourceTask: {}, ResourceAssignment: {}, ResourceProof: {},
	ResourceReview: {}, ResourceAnalytics: {}, ResourceNotification: {},
}

// ----------------------------
// Roles
// ----------------------------

const (
	RoleEmployee Role = "role:employee"
	RoleManager  Role = "role:manager"
	RoleAdmin    Role = "role:admin"
)

var KnownRoles = map[Role]struct{}{
	RoleEmployee: {}, RoleManager: {}, RoleAdmin: {},
}

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// RoleFromUserRole maps a directory role ("employee", "manager", "admin")
// to its policy subject. Unknown roles map to "".
func RoleFromUserRole(r string) Role {
	role := Role("role:" + strings.ToLower(strings.TrimSpace(r)))
	if _, ok := KnownRoles[role]; !ok {
		return ""
	}
	return role
}

// PermissionPolicy is one p rule.
type PermissionPolicy struct {
	Role     Role
	Resource Resource
	Action   Action
	Effect   PolicyEffect
}

// DefaultPolicies is the baseline permission set. Managers inherit employee
// rules and admins inherit manager rules through g rules.
var DefaultPolicies = []PermissionPolicy{
	{RoleEmployee, ResourceAssignment, ActionList, EffectAllow},
	{RoleEmployee, ResourceAssignment, ActionUpdate, EffectAllow},
	{RoleEmployee, ResourceTask, ActionRead, EffectAllow},
	{RoleEmployee, ResourceProof, ActionCreate, EffectAllow},
	{RoleEmployee, ResourceProof, ActionUpdate, EffectAllow},
	{RoleEmployee, ResourceProof, ActionRead, EffectAllow},
	{RoleEmployee, ResourceNotification, ActionManage, EffectAllow},

	{RoleManager, ResourceTask, ActionCreate, EffectAllow},
	{RoleManager, ResourceAssignment, ActionCreate, EffectAllow},
	{RoleManager, ResourceReview, ActionReview, EffectAllow},
	{RoleManager, ResourceReview, ActionList, EffectAllow},
	{RoleManager, ResourceAnalytics, ActionRead, EffectAllow},

	{RoleAdmin, WildcardResource, WildcardAction, EffectAllow},
}

// RoleInheritance lists g rules as (member, parent).
var RoleInheritance = [][2]Role{
	{RoleManager, RoleEmployee},
	{RoleAdmin, RoleManager},
}
