package collision

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/internal/scene"
)

// Mapper resolves collision masks to physics layers registered in the host.
//
// Two independent resolution paths exist. MapRoleAndMaskToLayer picks a
// role-specific layer from a per-role precedence table; ApplyLayer picks a
// category layer from a fixed bit priority after name overrides. Their
// precedences differ and must stay separate.
type Mapper struct {
	layers *scene.Layers
}

// NewMapper creates a mapper over the host layer table.
func NewMapper(layers *scene.Layers) *Mapper {
	return &Mapper{layers: layers}
}

type roleEntry struct {
	bit   Mask
	layer string
}

// roleTables lists, per role, the mask bits tested in order and the layer
// chosen for the first match. The fallback is used when nothing matches.
var roleTables = map[Role]struct {
	entries  []roleEntry
	fallback string
}{
	RoleVehicle: {
		entries: []roleEntry{
			{All, "VehicleAll"},
			{Ordnance, "VehicleOrdnance"},
			{Building, "VehicleBuilding"},
			{Soldier, "VehicleSoldier"},
			{Terrain, "VehicleTerrain"},
			{Vehicle, "VehicleVehicle"},
		},
		fallback: "VehicleAll",
	},
	RoleBuilding: {
		entries: []roleEntry{
			{All, "BuildingAll"},
			{Ordnance, "BuildingOrdnance"},
			{Soldier, "BuildingSoldier"},
			{Vehicle, "BuildingVehicle"},
		},
		fallback: "BuildingAll",
	},
	RoleSoldier:  {fallback: "SoldierAll"},
	RoleTerrain:  {fallback: "TerrainAll"},
	RoleOrdnance: {fallback: "OrdnanceAll"},
}

// RoleLayerName returns the layer name the role table selects for mask.
func RoleLayerName(role Role, mask Mask) string {
	table, ok := roleTables[role]
	if !ok {
		return ""
	}
	for _, e := range table.entries {
		if mask&e.bit != 0 {
			return e.layer
		}
	}
	return table.fallback
}

// MapRoleAndMaskToLayer returns the layer index for a collider of the given
// mask on a model with the given role. ok is false when the selected layer
// is not registered.
func (m *Mapper) MapRoleAndMaskToLayer(role Role, mask Mask) (layer int, ok bool) {
	name := RoleLayerName(role, mask)
	if name == "" {
		return -1, false
	}
	return m.layers.Lookup(name)
}

// priorityOrder is the bit order ApplyLayer takes the first match from.
var priorityOrder = []Mask{All, Flag, Vehicle, Soldier, Building, Ordnance, Terrain}

// PriorityLayerName returns the category layer for the highest-priority bit
// in mask, or false for an empty mask.
func PriorityLayerName(mask Mask) (string, bool) {
	for _, bit := range priorityOrder {
		if mask&bit != 0 {
			return bit.String(), true
		}
	}
	return "", false
}

// NameOverride forces Mask on nodes whose name contains Substring.
type NameOverride struct {
	Substring string
	Mask      Mask
}

// NewNameOverride builds an override from category names.
func NewNameOverride(substring string, categories ...string) (NameOverride, error) {
	mask, err := ParseMask(categories...)
	if err != nil {
		return NameOverride{}, err
	}
	return NameOverride{Substring: substring, Mask: mask}, nil
}

// OverrideMask returns the mask of the first override whose substring occurs
// in name under Unicode case folding, or mask unchanged.
func OverrideMask(name string, mask Mask, overrides []NameOverride) Mask {
	folded := cases.Fold().String(name)
	for _, o := range overrides {
		if o.Substring == "" {
			continue
		}
		if strings.Contains(folded, cases.Fold().String(o.Substring)) {
			return o.Mask
		}
	}
	return mask
}

// ApplyLayer sets the node's layer from mask after applying name overrides.
// Exactly one layer is assigned even when several bits are set. It returns
// false, leaving the node untouched, for an empty mask or an unregistered
// layer.
func (m *Mapper) ApplyLayer(sc *scene.Scene, id scene.NodeID, mask Mask, overrides []NameOverride) bool {
	n := sc.Node(id)
	if n == nil {
		return false
	}

	mask = OverrideMask(n.Name, mask, overrides)
	name, ok := PriorityLayerName(mask)
	if !ok {
		return false
	}

	layer, ok := m.layers.Lookup(name)
	if !ok {
		logger.Named("collision").Error("physics layer not registered",
			zap.String("layer", name),
			zap.String("node", n.Name),
			zap.Stringer("mask", mask))
		return false
	}
	n.Layer = layer
	return true
}
