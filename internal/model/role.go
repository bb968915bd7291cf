package model

// Role scopes what a caller may see.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// ParseRole returns the role for s and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleTenant, RoleLandlord:
		return r, true
	}
	return "", false
}
