package domain

// Operation a protected action
type Operation string

const (
	OpListApplications      Operation = "applications.list"
	OpViewApplication       Operation = "applications.view"
	OpViewApplicationStats  Operation = "applications.stats"
	OpTransitionApplication Operation = "applications.transition"
	OpCancelApplication     Operation = "applications.cancel"
	// OpViewAllApplications lifts the created-or-reviewed scoping on lists and reads.
	OpViewAllApplications Operation = "applications.view_all"

	OpViewDistributors   Operation = "distributors.view"
	OpManageCredentials  Operation = "distributors.credentials"
	OpToggleDistributors Operation = "distributors.toggle"

	OpViewCatalog   Operation = "catalog.view"
	OpManageCatalog Operation = "catalog.manage"
	OpViewPortal    Operation = "portal.view"

	OpViewNotifications Operation = "notifications.view"
)

// Policy maps each operation to the roles allowed to perform it.
type Policy map[Operation]map[Role]struct{}

func roles(rs ...Role) map[Role]struct{} {
	m := make(map[Role]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}

// DefaultPolicy is the authorization table of the service.
func DefaultPolicy() Policy {
	reviewers := []Role{RoleAdmin, RoleManager, RoleSalesManager}
	staff := []Role{RoleAdmin, RoleManager, RoleSalesManager, RoleSalesRep}

	return Policy{
		OpListApplications:      roles(staff...),
		OpViewApplication:       roles(staff...),
		OpViewApplicationStats:  roles(reviewers...),
		OpTransitionApplication: roles(reviewers...),
		OpCancelApplication:     roles(reviewers...),
		OpViewAllApplications:   roles(reviewers...),

		OpViewDistributors:   roles(reviewers...),
		OpManageCredentials:  roles(RoleAdmin, RoleManager),
		OpToggleDistributors: roles(RoleAdmin, RoleManager),

		OpViewCatalog:   roles(staff...),
		OpManageCatalog: roles(RoleAdmin, RoleManager),
		OpViewPortal:    roles(RoleDistributor),

		OpViewNotifications: roles(RoleAdmin, RoleManager),
	}
}

// Allows reports whether role may perform op. Unknown operations are denied.
func (p Policy) Allows(role Role, op Operation) bool {
	allowed, ok := p[op]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}
