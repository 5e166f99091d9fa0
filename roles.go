package auth

// Roles known to the service. Role strings are opaque and compared
// case-sensitively; any other non-empty value may be registered.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// HasRole reports whether claims carry exactly the required role.
// An empty requirement is satisfied by any role.
func HasRole(claims AuthClaims, required string) bool {
	if required == "" {
		return true
	}
	if claims == nil {
		return false
	}
	return claims.HasRole(required)
}
