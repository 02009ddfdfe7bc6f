package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/swbf-import/pkg/math"
)

func TestNewNodeHierarchy(t *testing.T) {
	s := New(nil)
	root := s.NewNode("root", NoNode)
	a := s.NewNode("a", root)
	b := s.NewNode("b", a)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []NodeID{root}, s.Roots())
	assert.Equal(t, a, s.Node(b).Parent)
	assert.Equal(t, []NodeID{a}, s.Node(root).Children)

	got, ok := s.FindChild(root, "b")
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = s.FindChild(root, "root")
	assert.False(t, ok, "root itself is not a child")
	_, ok = s.FindChild(root, "B")
	assert.False(t, ok)

	got, ok = s.FindChildFold(root, "B")
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestWorldMatrix(t *testing.T) {
	s := New(nil)
	root := s.NewNode("root", NoNode)
	child := s.NewNode("child", root)
	s.Node(root).Local.Position = math.Vec3{X: 10}
	s.Node(child).Local.Position = math.Vec3{Y: 2}

	got := s.WorldMatrix(child).Translation()
	assert.Equal(t, math.Vec3{X: 10, Y: 2}, got)
}

func TestDestroySubtree(t *testing.T) {
	s := New(nil)
	root := s.NewNode("root", NoNode)
	a := s.NewNode("a", root)
	b := s.NewNode("b", a)
	c := s.NewNode("c", root)

	s.Destroy(a)

	assert.False(t, s.Valid(a))
	assert.False(t, s.Valid(b))
	assert.True(t, s.Valid(c))
	assert.Equal(t, []NodeID{c}, s.Node(root).Children)
	assert.Equal(t, 2, s.Len())

	// Destroying twice is harmless.
	s.Destroy(a)
	assert.Equal(t, 2, s.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(nil)
	root := s.NewNode("model", NoNode)
	bone := s.NewNode("bone", root)
	mesh := &Mesh{Name: "m"}
	s.Node(root).Skin = &SkinnedMeshRenderer{Mesh: mesh, Bones: []NodeID{root, bone}, RootBone: bone}
	s.Node(bone).Collider = &Collider{Shape: ShapeBox, Size: math.One, Enabled: true}

	copyRoot, m := s.Clone(root, NoNode)
	require.Len(t, m, 2)
	copyBone := m[bone]

	assert.NotEqual(t, root, copyRoot)
	assert.Equal(t, "bone", s.Name(copyBone))

	skin := s.Node(copyRoot).Skin
	assert.Same(t, mesh, skin.Mesh, "meshes are shared between clones")
	assert.Equal(t, []NodeID{copyRoot, copyBone}, skin.Bones)
	assert.Equal(t, copyBone, skin.RootBone)
	assert.Equal(t, []NodeID{root, bone}, s.Node(root).Skin.Bones, "source bones untouched")

	s.Node(copyBone).Collider.Enabled = false
	s.Node(copyRoot).Local.Position = math.Vec3{X: 5}
	assert.True(t, s.Node(bone).Collider.Enabled)
	assert.Equal(t, math.Vec3{}, s.Node(root).Local.Position)
}

func TestSetParent(t *testing.T) {
	s := New(nil)
	a := s.NewNode("a", NoNode)
	b := s.NewNode("b", NoNode)
	c := s.NewNode("c", a)

	s.SetParent(c, b)
	assert.Empty(t, s.Node(a).Children)
	assert.Equal(t, []NodeID{c}, s.Node(b).Children)

	s.SetParent(c, NoNode)
	assert.ElementsMatch(t, []NodeID{a, b, c}, s.Roots())
}

func TestLayers(t *testing.T) {
	l, err := NewLayers("Default", "VehicleAll", "SoldierAll")
	require.NoError(t, err)

	i, ok := l.Lookup("SoldierAll")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "VehicleAll", l.Name(1))

	again, err := l.Register("VehicleAll")
	require.NoError(t, err)
	assert.Equal(t, 1, again)

	_, err = l.Register(" ")
	assert.ErrorIs(t, err, ErrEmptyLayer)

	_, ok = l.Lookup("soldierall")
	assert.False(t, ok, "layer names are case-sensitive")
}

func TestLayersFull(t *testing.T) {
	l := &Layers{}
	for i := 0; i < MaxLayers; i++ {
		_, err := l.Register(string(rune('A' + i)))
		require.NoError(t, err)
	}
	_, err := l.Register("overflow")
	assert.ErrorIs(t, err, ErrTooManyLayers)
}

func TestMeshBounds(t *testing.T) {
	m := &Mesh{Positions: [][3]float32{{1, -2, 3}, {-1, 5, 0}}}
	m.RecalculateBounds()
	assert.Equal(t, [3]float32{-1, -2, 0}, m.Bounds.Min)
	assert.Equal(t, [3]float32{1, 5, 3}, m.Bounds.Max)
}

func TestHeightFieldSample(t *testing.T) {
	h := &HeightField{
		Resolution: 2,
		Size:       math.Vec3{X: 10, Y: 4, Z: 10},
		Heights:    []float32{0, 1, 0, 1}, // rises along X
	}

	assert.InDelta(t, 0, h.Sample(0, 0), 1e-5)
	assert.InDelta(t, 2, h.Sample(5, 5), 1e-5)
	assert.InDelta(t, 4, h.Sample(10, 3), 1e-5)
	assert.InDelta(t, 4, h.Sample(50, -3), 1e-5, "outside positions clamp to the edge")
	assert.Equal(t, float32(4), h.Height(1, 1))
	assert.Equal(t, float32(0), h.Height(2, 0))

	empty := &HeightField{}
	assert.Equal(t, float32(0), empty.Sample(1, 1))
}
