package collision

import (
	"fmt"
	"strings"
)

// Role is the gameplay category of a whole model. It selects which layer
// table MapRoleAndMaskToLayer consults.
type Role int

const (
	RoleVehicle Role = iota
	RoleBuilding
	RoleSoldier
	RoleOrdnance
	RoleTerrain
)

var roleNames = [...]string{"Vehicle", "Building", "Soldier", "Ordnance", "Terrain"}

// String returns the role name.
func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole parses a role name (case-insensitive).
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if strings.EqualFold(n, name) {
			return Role(i), true
		}
	}
	return 0, false
}

// classLabelRoles maps ODF ClassLabel values to roles. Labels not listed here
// (props, command posts, regions) have no role.
var classLabelRoles = map[string]Role{
	"hover":                RoleVehicle,
	"walker":               RoleVehicle,
	"flyer":                RoleVehicle,
	"wingflyer":            RoleVehicle,
	"vehicle":              RoleVehicle,
	"armedbuilding":        RoleBuilding,
	"building":             RoleBuilding,
	"destructablebuilding": RoleBuilding,
	"soldier":              RoleSoldier,
	"droid":                RoleSoldier,
	"ordnance":             RoleOrdnance,
	"missile":              RoleOrdnance,
	"bolt":                 RoleOrdnance,
	"terrain":              RoleTerrain,
}

// RoleFromClassLabel derives a role from an entity class label.
func RoleFromClassLabel(label string) (Role, bool) {
	r, ok := classLabelRoles[strings.ToLower(strings.TrimSpace(label))]
	return r, ok
}
