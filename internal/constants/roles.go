package constants

const (
	Superadmin = "superadmin"
	Admin      = "admin"
	Editor     = "editor"
	Viewer     = "viewer"
)

// ValidRoles is the set of allowed DB enum values for user role (must match enum_Users_role).
var ValidRoles = []string{Viewer, Editor, Admin, Superadmin}

// roleTiers orders roles by privilege. Higher number = more privilege.
var roleTiers = map[string]int{
	Viewer:     1,
	Editor:     2,
	Admin:      3,
	Superadmin: 4,
}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	_, ok := roleTiers[role]
	return ok
}

// RoleTier returns the privilege tier of a role, or 0 for unknown roles.
func RoleTier(role string) int {
	return roleTiers[role]
}

// TierAtOrBelow reports whether target's tier does not exceed actor's tier.
// This is the single role comparison used by invitation create/resend/cancel.
func TierAtOrBelow(actorRole, targetRole string) bool {
	at, ok := roleTiers[actorRole]
	if !ok {
		return false
	}
	tt, ok := roleTiers[targetRole]
	if !ok {
		return false
	}
	return tt <= at
}
