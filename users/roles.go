package users

import "fmt"

// Role represents a user's functional role on a project team.
type Role string

const (
	// RoleStakeholder can view project state and artefacts it owns.
	RoleStakeholder Role = "stakeholder"
	// RoleProductManager can additionally manage backlog-level resources.
	RoleProductManager Role = "product-manager"
	// RoleDesigner can additionally modify design artefacts shared across the team.
	RoleDesigner Role = "designer"
	// RoleDeveloper has the widest access, including team-level administration.
	RoleDeveloper Role = "developer"
)

// roleRanks is the privilege order used by every authorization check,
// lowest rank first. The order is deliberate: each step up grants a strict
// superset of the access below it. Changing it changes the access policy
// for every consumer of this service.
var roleRanks = map[Role]int{
	RoleStakeholder:    1,
	RoleProductManager: 2,
	RoleDesigner:       3,
	RoleDeveloper:      4,
}

// ParseRole validates a raw role string against the known role set.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Valid reports whether the role is a member of the known role set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Meets reports whether the role carries at least the privilege of required.
// It is reflexive: every valid role meets itself. Unknown roles on either
// side never meet anything.
func (r Role) Meets(required Role) bool {
	actual, ok := roleRanks[r]
	if !ok {
		return false
	}
	wanted, ok := roleRanks[required]
	if !ok {
		return false
	}
	return actual >= wanted
}

// CanAccessResource decides ownership-based access: the owner of a resource
// is always permitted, anyone else needs a required role that their own role
// meets. An empty required role means no role grants access. Default deny.
func CanAccessResource(role Role, userID, resourceOwnerID string, requiredRole Role) bool {
	if userID != "" && userID == resourceOwnerID {
		return true
	}
	if requiredRole == "" {
		return false
	}
	return role.Meets(requiredRole)
}
