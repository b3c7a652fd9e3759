package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the privilege level of an account.
type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

var roleRank = map[Role]int{
	RoleStaff:      1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Roles lists every role from least to most privileged.
func Roles() []Role {
	return []Role{RoleStaff, RoleAdmin, RoleSuperAdmin}
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Authority is the label matched by route policies, e.g. ROLE_ADMIN.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// User is an account allowed to administer assets.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
