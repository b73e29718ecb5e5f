package model

// Role is the station a PIN unlocks.
type Role string

// Roles. Customers are anonymous and have no role.
const (
	RoleCashier   Role = "cashier"
	RoleKitchen   Role = "kitchen"
	RoleAnalytics Role = "analytics"
	RoleAdmin     Role = "admin"
)

// Roles lists every PIN-gated role.
var Roles = []Role{RoleCashier, RoleKitchen, RoleAnalytics, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// RoleIn reports whether role is one of allowed. Unknown roles fail closed.
func RoleIn(role Role, allowed ...Role) bool {
	if !role.Valid() {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
