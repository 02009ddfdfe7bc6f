package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/mapping"
	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
	"github.com/Faultbox/swbf-import/pkg/math"
)

func assembleTank(t *testing.T) (*Session, *mapping.Model) {
	t.Helper()
	src := tankModel()
	lvl := &level.Level{Models: []level.Model{src}, Textures: []level.Texture{testTexture("tank_tex")}}
	s, loader := newTestLoader(t, lvl)
	m, err := loader.Assemble(&lvl.Models[0])
	require.NoError(t, err)
	return s, m
}

func child(t *testing.T, sc *scene.Scene, root scene.NodeID, name string) *scene.Node {
	t.Helper()
	id, ok := sc.FindChild(root, name)
	require.True(t, ok, "node %q", name)
	return sc.Node(id)
}

func TestAssembleSkeleton(t *testing.T) {
	s, m := assembleTank(t)
	sc := s.Scene

	assert.Equal(t, "tank", sc.Name(m.Root))
	rootBone := child(t, sc, m.Root, "root_tank")
	turret := child(t, sc, m.Root, "turret")
	gun := child(t, sc, m.Root, "gun")

	assert.Equal(t, m.Root, rootBone.Parent)
	assert.Equal(t, rootBone.ID, turret.Parent)
	assert.Equal(t, turret.ID, gun.Parent)
	assert.Equal(t, math.Vec3{X: -1, Y: 2, Z: 0}, turret.Local.Position, "X is mirrored")
}

func TestAssembleRigidSegments(t *testing.T) {
	s, m := assembleTank(t)
	sc := s.Scene

	turret := child(t, sc, m.Root, "turret")
	require.NotNil(t, turret.Renderer)
	mesh := turret.Renderer.Mesh
	assert.Equal(t, []scene.SubMesh{{StartIndex: 0, IndexCount: 3}, {StartIndex: 3, IndexCount: 3}}, mesh.SubMeshes)
	assert.Equal(t, []uint32{0, 2, 1, 3, 5, 4}, mesh.Indices, "winding reversed and offset per segment")
	assert.Equal(t, [3]float32{-1, 0, 0}, mesh.Positions[0])
	assert.Equal(t, [3]float32{-1, 0, 0}, mesh.Normals[0])
	assert.Len(t, turret.Renderer.Materials, 2)
	assert.Same(t, turret.Renderer.Materials[0], turret.Renderer.Materials[1], "same render state shares a material")
	assert.Equal(t, "tank_tex", turret.Renderer.Materials[0].Texture)

	gun := child(t, sc, m.Root, "gun")
	require.NotNil(t, gun.Renderer)
	assert.Len(t, gun.Renderer.Mesh.SubMeshes, 1)

	assert.Nil(t, child(t, sc, m.Root, "root_tank").Renderer, "bones without segments get no renderer")

	wheels := m.Segments.FilterByTag("WHEEL")
	require.Len(t, wheels, 1)
	assert.Equal(t, gun.ID, wheels[0].Node)

	over := m.Segments.FilterByTag("override_texture")
	require.Len(t, over, 1)
	assert.Equal(t, 1, over[0].Index)
	assert.Equal(t, turret.ID, over[0].Node)
}

func TestAssembleSkinnedSegment(t *testing.T) {
	s, m := assembleTank(t)
	sc := s.Scene

	skin := sc.Node(m.Root).Skin
	require.NotNil(t, skin)
	assert.Equal(t, 3, skin.Mesh.BonesPerVertex)
	require.Len(t, skin.Mesh.BoneWeights, 3)
	assert.Equal(t, [3]float32{0.5, 0.25, 0.25}, skin.Mesh.BoneWeights[0].Weights)
	assert.Equal(t, [3]float32{0.5, 0.5, 0}, skin.Mesh.BoneWeights[2].Weights, "weights are normalised")
	require.Len(t, skin.Bones, 3)
	require.Len(t, skin.Mesh.BindPoses, 3)

	for i, bone := range skin.Bones {
		got := skin.Mesh.BindPoses[i].Mul(sc.WorldMatrix(bone))
		assert.True(t, got.ApproxEqual(math.Identity(), 1e-4), "bind pose %d inverts the bone", i)
	}

	var skinned []mapping.SegmentRecord
	for _, r := range m.Segments.Records() {
		if r.Skinned {
			skinned = append(skinned, r)
		}
	}
	require.Len(t, skinned, 1)
	assert.Equal(t, m.Root, skinned[0].Node)
}

func TestSkinBindPosesOnPlacedRoot(t *testing.T) {
	refSession, ref := assembleTank(t)

	src := tankModel()
	lvl := &level.Level{Models: []level.Model{src}, Textures: []level.Texture{testTexture("tank_tex")}}
	s, loader := newTestLoader(t, lvl)
	sc := s.Scene

	root := sc.NewNode(src.Name, scene.NoNode)
	sc.Node(root).Local = scene.Transform{
		Position: math.Vec3{X: 5, Y: -2, Z: 7},
		Rotation: math.QuatFromAxisAngle(math.Vec3{Y: 1}, 0.7),
		Scale:    math.Vec3{X: 2, Y: 2, Z: 2},
	}
	m := mapping.NewModel(sc, root)
	loader.buildSkinned(m, &lvl.Models[0], loader.buildSkeleton(root, lvl.Models[0].Bones))

	skin := sc.Node(root).Skin
	require.NotNil(t, skin)
	refSkin := refSession.Scene.Node(ref.Root).Skin
	rootWorld := sc.WorldMatrix(root)
	require.False(t, rootWorld.ApproxEqual(math.Identity(), 1e-4))

	for i, bone := range skin.Bones {
		pose := skin.Mesh.BindPoses[i]
		got := pose.Mul(rootWorld.Inverse()).Mul(sc.WorldMatrix(bone))
		assert.True(t, got.ApproxEqual(math.Identity(), 1e-3), "bind pose %d maps root space to bone %d", i, i)
		assert.True(t, pose.ApproxEqual(refSkin.Mesh.BindPoses[i], 1e-3), "bind pose %d does not depend on root placement", i)
	}
}

func TestAssemblePretransformedSkin(t *testing.T) {
	src := level.Model{
		Name:     "pre",
		Bones:    []level.Bone{{Name: "a", Rotation: identity}, {Name: "b", Parent: "a", Position: [3]float32{0, 1, 0}, Rotation: identity}},
		Segments: []level.Segment{skinnedTriangle(true), skinnedTriangle(false)},
	}
	lvl := &level.Level{Models: []level.Model{src}}
	s, loader := newTestLoader(t, lvl)
	m, err := loader.Assemble(&lvl.Models[0])
	require.NoError(t, err)

	skin := s.Scene.Node(m.Root).Skin
	require.NotNil(t, skin)
	assert.Equal(t, 1, skin.Mesh.BonesPerVertex, "first skinned segment decides")
	assert.Len(t, skin.Mesh.BoneWeights, 6)
	for _, w := range skin.Mesh.BoneWeights {
		assert.Equal(t, [3]float32{1, 0, 0}, w.Weights)
	}
	for _, bp := range skin.Mesh.BindPoses {
		assert.Equal(t, math.Identity(), bp)
	}
}

func TestBoneWeight(t *testing.T) {
	w := boneWeight(level.Weight{Bones: [3]int{5, 1, -1}, Values: [3]float32{1, 1, 0}}, 2, false)
	assert.Equal(t, [3]int32{0, 1, 0}, w.Bones, "out of range bones fall back to the first bone")
	assert.Equal(t, [3]float32{0.5, 0.5, 0}, w.Weights)

	w = boneWeight(level.Weight{Bones: [3]int{1, 0, 0}}, 2, false)
	assert.Equal(t, [3]float32{1, 0, 0}, w.Weights, "zero weights bind fully to the first entry")

	w = boneWeight(level.Weight{Bones: [3]int{1, 0, 0}, Values: [3]float32{0.2, 0.8}}, 2, true)
	assert.Equal(t, [3]int32{1, 0, 0}, w.Bones)
	assert.Equal(t, [3]float32{1, 0, 0}, w.Weights)
}

func TestAssembleColliders(t *testing.T) {
	s, m := assembleTank(t)
	sc := s.Scene

	recs := m.Colliders.Records()
	require.Len(t, recs, 4, "the broken primitive is skipped")
	kinds := []mapping.Kind{mapping.KindCube, mapping.KindSphere, mapping.KindCylinder, mapping.KindMesh}
	for i, r := range recs {
		assert.Equal(t, kinds[i], r.Kind)
		assert.Equal(t, collision.All, r.Mask, "primitives start unrestricted")
	}

	hull := sc.Node(recs[0].Node)
	assert.Equal(t, "p_hull", hull.Name)
	assert.Equal(t, child(t, sc, m.Root, "root_tank").ID, hull.Parent)
	assert.Equal(t, scene.ShapeBox, hull.Collider.Shape)
	assert.Equal(t, math.Vec3{X: 2, Y: 4, Z: 6}, hull.Collider.Size, "half extents become full size")

	gun := sc.Node(recs[1].Node)
	assert.Equal(t, child(t, sc, m.Root, "gun").ID, gun.Parent)
	assert.Equal(t, float32(0.5), gun.Collider.Radius)

	wheel := sc.Node(recs[2].Node)
	assert.Equal(t, m.Root, wheel.Parent, "unparented primitives hang off the root")
	assert.Equal(t, math.Vec3{X: 2, Y: 1, Z: 2}, wheel.Local.Scale)
	assert.Equal(t, scene.ShapeMesh, wheel.Collider.Shape)
	assert.True(t, wheel.Collider.Convex)
	assert.Same(t, s.UnitCylinder(), wheel.Collider.Mesh)

	mesh := sc.Node(recs[3].Node)
	assert.Equal(t, mapping.CollisionMeshName, mesh.Name)
	assert.Equal(t, []uint32{0, 2, 1}, mesh.Collider.Mesh.Indices)
	assert.Equal(t, [3]float32{-1, 0, 0}, mesh.Collider.Mesh.Positions[0])
	assert.False(t, mesh.Collider.Convex)
}

func TestAssembleWithoutSkeleton(t *testing.T) {
	lvl := &level.Level{Models: []level.Model{{Name: "hollow", Segments: []level.Segment{triangle("", "", "")}}}}
	s, loader := newTestLoader(t, lvl)

	_, err := loader.Assemble(&lvl.Models[0])
	assert.True(t, errors.Is(err, ErrNoSkeleton))

	_, ok := loader.Load("hollow")
	assert.False(t, ok)
	_, ok = loader.Load("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Models.Len())
}

func TestAssembleSkipsBadSegments(t *testing.T) {
	bad := triangle("a", "", "")
	bad.Indices = []uint32{0, 1, 7}
	orphan := triangle("nobody", "", "")
	src := level.Model{
		Name:     "m",
		Bones:    []level.Bone{{Name: "a", Rotation: identity}},
		Segments: []level.Segment{bad, orphan, triangle("a", "", "")},
	}
	lvl := &level.Level{Models: []level.Model{src}}
	s, loader := newTestLoader(t, lvl)

	m, err := loader.Assemble(&lvl.Models[0])
	require.NoError(t, err)
	assert.Equal(t, 1, m.Segments.Len())
	a := child(t, s.Scene, m.Root, "a")
	assert.Len(t, a.Renderer.Mesh.SubMeshes, 1)
}

func countNodes(sc *scene.Scene, root scene.NodeID) int {
	n := 0
	sc.Walk(root, func(*scene.Node) bool { n++; return true })
	return n
}

func TestLoadReturnsIndependentClones(t *testing.T) {
	lvl := &level.Level{Models: []level.Model{tankModel()}, Textures: []level.Texture{testTexture("tank_tex")}}
	s, loader := newTestLoader(t, lvl)
	sc := s.Scene

	a, ok := loader.Load("tank")
	require.True(t, ok)
	b, ok := loader.Load("TANK")
	require.True(t, ok)

	assert.NotEqual(t, a.Root, b.Root)
	assert.True(t, sc.Node(a.Root).Active)
	assert.True(t, sc.Node(b.Root).Active)

	proto, ok := s.Models.Get("tank")
	require.True(t, ok)
	assert.False(t, sc.Node(proto.Root).Active, "the prototype stays hidden")

	assert.Equal(t, countNodes(sc, a.Root), countNodes(sc, b.Root))
	assert.Equal(t, len(sc.Node(a.Root).Skin.Bones), len(sc.Node(b.Root).Skin.Bones))
	assert.Len(t, sc.Node(a.Root).Skin.Mesh.SubMeshes, len(sc.Node(b.Root).Skin.Mesh.SubMeshes))
	assert.Equal(t, a.Colliders.Len(), b.Colliders.Len())
	assert.Equal(t, a.Segments.Len(), b.Segments.Len())

	sc.Node(a.Root).Local.Position = math.Vec3{X: 100}
	assert.Equal(t, math.Vec3{}, sc.Node(b.Root).Local.Position)

	// Registries point into their own instance.
	for i, r := range a.Colliders.Records() {
		assert.NotEqual(t, r.Node, b.Colliders.Records()[i].Node)
		_, under := sc.FindChild(a.Root, sc.Name(r.Node))
		assert.True(t, under)
	}
	for _, id := range sc.Node(a.Root).Skin.Bones {
		assert.True(t, isAncestor(sc, a.Root, id), "skin bones are remapped to the clone")
	}

	st := s.Stats()
	assert.Equal(t, 1, st.ModelMisses)
	assert.Equal(t, 1, st.ModelHits)
}

func TestSessionReset(t *testing.T) {
	lvl := &level.Level{Models: []level.Model{tankModel()}}
	s, loader := newTestLoader(t, lvl)
	_, ok := loader.Load("tank")
	require.True(t, ok)
	old := s.Scene

	s.Reset()

	assert.NotSame(t, old, s.Scene)
	assert.Equal(t, 0, s.Scene.Len())
	assert.Equal(t, 0, s.Models.Len())
	assert.Equal(t, 0, s.Materials.Len())
	assert.Equal(t, Stats{}, s.Stats())
	assert.Same(t, s.Scene.Layers, old.Layers)
}

func TestUnitCylinder(t *testing.T) {
	s := newTestSession(t)
	c := s.UnitCylinder()
	assert.Same(t, c, s.UnitCylinder())
	assert.Equal(t, 2*cylinderSides+2, len(c.Positions))
	assert.Equal(t, 4*cylinderSides, c.TriangleCount())
	assert.InDelta(t, -1, c.Bounds.Min[0], 1e-5)
	assert.InDelta(t, 0.5, c.Bounds.Max[1], 1e-5)
}
