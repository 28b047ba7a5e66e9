package enums

import "fmt"

// ActorRole is the authorization role carried in access tokens.
type ActorRole string

const (
	ActorRoleCatalogEditor ActorRole = "catalog_editor"
	ActorRoleNetworkAdmin  ActorRole = "network_admin"
)

var validActorRoles = []ActorRole{
	ActorRoleCatalogEditor,
	ActorRoleNetworkAdmin,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical actor role enum.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts the raw string to ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
