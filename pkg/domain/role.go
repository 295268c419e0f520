package domain

// Role is always derived from the authentication token's authorization claim.
// The stored profile document carries a copy for display only and is never
// trusted for access decisions.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// RoleFromClaim maps the boolean admin claim supplied by the auth layer.
func RoleFromClaim(admin bool) Role {
	if admin {
		return RoleAdmin
	}
	return RoleUser
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }
