package importer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/swbf-import/internal/config"
	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
)

var identity = [4]float32{0, 0, 0, 1}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	layers, err := scene.NewLayers(config.DefaultLayers...)
	require.NoError(t, err)
	return NewSession(layers)
}

// noExport keeps texture references as names so tests touch no files.
func noExport() config.ImportConfig {
	cfg := config.Default().Import
	cfg.ExportTextures = false
	return cfg
}

func newTestLoader(t *testing.T, lvl *level.Level) (*Session, *ModelLoader) {
	t.Helper()
	s := newTestSession(t)
	textures := NewTextures(s, lvl, noExport())
	return s, NewModelLoader(s, lvl, NewMaterials(s, textures))
}

func triangle(bone, tag, texture string) level.Segment {
	return level.Segment{
		Bone:      bone,
		Tag:       tag,
		Material:  level.Material{Texture: texture},
		Positions: [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Normals:   [][3]float32{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}},
		UVs:       [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
}

func skinnedTriangle(pretransformed bool) level.Segment {
	seg := triangle("", "skin", "tank_tex")
	seg.Pretransformed = pretransformed
	seg.Weights = []level.Weight{
		{Bones: [3]int{0, 1, 2}, Values: [3]float32{0.5, 0.25, 0.25}},
		{Bones: [3]int{1, 0, 0}, Values: [3]float32{1, 0, 0}},
		{Bones: [3]int{2, 1, 0}, Values: [3]float32{2, 2, 0}},
	}
	return seg
}

// tankModel has three bones, rigid segments on two of them, one skinned
// segment, four valid primitives, one broken primitive and a collision mesh.
func tankModel() level.Model {
	return level.Model{
		Name: "tank",
		Bones: []level.Bone{
			{Name: "root_tank", Rotation: identity},
			{Name: "turret", Parent: "root_tank", Position: [3]float32{1, 2, 0}, Rotation: identity},
			{Name: "gun", Parent: "turret", Position: [3]float32{0, 0, 3}, Rotation: identity},
		},
		Segments: []level.Segment{
			triangle("turret", "", "tank_tex"),
			triangle("turret", "override_texture", "tank_tex"),
			triangle("gun", "wheel", "tank_tex"),
			skinnedTriangle(false),
		},
		Primitives: []level.Primitive{
			{Name: "p_hull", Parent: "root_tank", Shape: level.ShapeBox, Dimensions: [3]float32{1, 2, 3}, Rotation: identity},
			{Name: "p_gun", Parent: "gun", Shape: level.ShapeSphere, Dimensions: [3]float32{0.5}, Rotation: identity},
			{Name: "p_wheel", Shape: level.ShapeCylinder, Dimensions: [3]float32{2, 1}, Rotation: identity},
			{Name: "p_bad", Shape: "cone", Dimensions: [3]float32{1, 1, 1}},
		},
		CollisionMesh: &level.CollisionMesh{
			Positions: [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Indices:   []uint32{0, 1, 2},
		},
	}
}

func trooperModel() level.Model {
	return level.Model{
		Name:  "trooper",
		Bones: []level.Bone{{Name: "bone_root", Rotation: identity}},
		Primitives: []level.Primitive{
			{Name: "p_body", Parent: "bone_root", Shape: level.ShapeBox, Dimensions: [3]float32{0.5, 1, 0.5}, Rotation: identity},
			{Name: "p_head", Parent: "bone_root", Shape: level.ShapeSphere, Dimensions: [3]float32{0.3}, Rotation: identity},
		},
	}
}

func crateModel() level.Model {
	return level.Model{
		Name:     "crate",
		Bones:    []level.Bone{{Name: "crate_root", Rotation: identity}},
		Segments: []level.Segment{triangle("crate_root", "", "crate_tex")},
		Primitives: []level.Primitive{
			{Name: "p_vehicle_block", Shape: level.ShapeBox, Dimensions: [3]float32{1, 1, 1}, Rotation: identity},
			{Name: "p_crate", Shape: level.ShapeBox, Dimensions: [3]float32{1, 1, 1}, Rotation: identity},
		},
	}
}

func testTexture(name string, rgba ...byte) level.Texture {
	if len(rgba) == 0 {
		rgba = []byte{255, 0, 0, 255}
	}
	return level.Texture{Name: name, Width: 1, Height: 1, Pixels: rgba}
}

// testLevel places a vehicle, a soldier and a role-less prop, plus two
// instances that cannot be built.
func testLevel() *level.Level {
	lvl := &level.Level{
		Name:   "test",
		Models: []level.Model{tankModel(), trooperModel(), crateModel(), {Name: "hollow"}},
		Textures: []level.Texture{
			testTexture("tank_tex"),
			testTexture("crate_tex"),
			testTexture("camo", 0, 255, 0, 255),
		},
		Classes: []level.EntityClass{
			{Name: "hover_base", Label: "hover", Properties: []level.Property{
				{Key: "GeometryName", Value: "tank"},
				{Key: "VehicleCollision", Value: "p_hull"},
				{Key: "SoldierCollision", Value: "CollisionMesh"},
			}},
			{Name: "imp_hover_tank", Base: "hover_base", Properties: []level.Property{
				{Key: "OverrideTexture", Value: "camo"},
			}},
			{Name: "imp_inf_trooper", Label: "soldier", Properties: []level.Property{
				{Key: "GeometryName", Value: "trooper"},
				{Key: "SoldierCollision", Value: "p_body"},
			}},
			{Name: "com_prop_crate", Properties: []level.Property{
				{Key: "GeometryName", Value: "crate"},
				{Key: "SoldierCollision", Value: "p_crate"},
				{Key: "VehicleCollision", Value: "p_crate"},
			}},
			{Name: "com_prop_hollow", Properties: []level.Property{
				{Key: "GeometryName", Value: "hollow"},
			}},
		},
		Worlds: []level.World{{
			Name: "test_world",
			Instances: []level.Instance{
				{Name: "tank1", Class: "imp_hover_tank", Position: [3]float32{10, 0, 5}, Rotation: identity},
				{Name: "trooper1", Class: "imp_inf_trooper", Rotation: identity},
				{Name: "crate1", Class: "com_prop_crate", Rotation: identity},
				{Name: "ghost", Class: "missing_class", Rotation: identity},
				{Name: "hollow1", Class: "com_prop_hollow", Rotation: identity},
			},
		}},
	}
	lvl.Reindex()
	return lvl
}
