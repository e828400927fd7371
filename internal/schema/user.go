package schema

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is a read-only directory record. Account management lives outside
// this service.
type User struct {
	ID    uuid.UUID `bson:"_id" json:"id" yaml:"id"`
	Name  string    `bson:"name" json:"name" yaml:"name"`
	Email string    `bson:"email" json:"email" yaml:"email"`
	Role  Role      `bson:"role" json:"role" yaml:"role"`
}

// Project groups tasks under one manager.
type Project struct {
	ID        uuid.UUID `bson:"_id" json:"id" yaml:"id"`
	Name      string    `bson:"name" json:"name" yaml:"name"`
	ManagerID uuid.UUID `bson:"manager_id" json:"manager_id" yaml:"manager_id"`
}
