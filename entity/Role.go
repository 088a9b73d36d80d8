package entity

type Role string

const (
	RoleGuest      Role = "guest"
	RoleRegistered Role = "registered"
	RoleOwner      Role = "owner"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"

	// older sign-up flows wrote "user" instead of "registered"
	roleLegacyUser Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleRegistered, RoleOwner, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Assignable reports whether r may be granted through role assignment.
// guest is a sentinel for anonymous callers and is never stored.
func (r Role) Assignable() bool {
	return r.Valid() && r != RoleGuest
}

func NormalizeRole(r Role) Role {
	if r == roleLegacyUser || r == "" {
		return RoleRegistered
	}
	return r
}
