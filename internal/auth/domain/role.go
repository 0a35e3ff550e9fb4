package domain

import "strings"

// Role closed set of account roles
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleSalesManager Role = "SALES_MANAGER"
	RoleSalesRep     Role = "SALES_REP"
	RoleDistributor  Role = "DISTRIBUTOR"
)

var allRoles = []Role{RoleAdmin, RoleManager, RoleSalesManager, RoleSalesRep, RoleDistributor}

// Roles returns every known role.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to internal staff rather than a distributor.
func (r Role) IsStaff() bool {
	return r.IsValid() && r != RoleDistributor
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsValid()
}
