package enums

import "slices"

// UserRole gates access to admin-only routes.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// UserRoles lists every role.
var UserRoles = []UserRole{UserRoleUser, UserRoleAdmin}

func (r UserRole) String() string { return string(r) }

// IsValid reports whether r is one of UserRoles.
func (r UserRole) IsValid() bool { return slices.Contains(UserRoles, r) }

// ParseUserRole accepts any casing and surrounding whitespace.
func ParseUserRole(value string) (UserRole, error) {
	return parseFolded("user role", value, UserRoles)
}
