package models

// RoleType defines the role carried by an access token
type RoleType string

const (
	// RoleRegistrar may register and withdraw enrollments
	RoleRegistrar RoleType = "REGISTRAR"
	// RoleAuditor may only read student loads
	RoleAuditor RoleType = "AUDITOR"
)

// Valid reports whether r is a known role.
func (r RoleType) Valid() bool {
	return r == RoleRegistrar || r == RoleAuditor
}
