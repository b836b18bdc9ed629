package users

// Role is the closed set of account roles
type Role string

const (
	RoleInfluencer Role = "influencer"
	RoleBrand      Role = "brand"
	RoleAdmin      Role = "admin"
	RoleSuperUser  Role = "superuser"
)

// AllRoles lists every valid role
var AllRoles = []Role{RoleInfluencer, RoleBrand, RoleAdmin, RoleSuperUser}

// IsValid reports whether r is one of AllRoles
func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
