package scene

import "github.com/Faultbox/swbf-import/pkg/math"

// SubMesh is a contiguous index range drawn with one material.
type SubMesh struct {
	StartIndex int32
	IndexCount int32
}

// BoneWeight holds up to three bone influences for one vertex. Bone indices
// refer to the owning SkinnedMeshRenderer's Bones list.
type BoneWeight struct {
	Bones   [3]int32
	Weights [3]float32
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh is shared geometry. Meshes are never copied when nodes are cloned.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32
	SubMeshes []SubMesh
	Bounds    Bounds

	// Skinning data; empty for static meshes.
	BonesPerVertex int
	BoneWeights    []BoneWeight
	BindPoses      []math.Mat4
}

// TriangleCount returns the number of triangles across all sub-meshes.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// RecalculateBounds recomputes Bounds from Positions.
func (m *Mesh) RecalculateBounds() {
	if len(m.Positions) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < b.Min[i] {
				b.Min[i] = p[i]
			}
			if p[i] > b.Max[i] {
				b.Max[i] = p[i]
			}
		}
	}
	m.Bounds = b
}

// Material is the engine-side material built from a segment's render state.
type Material struct {
	Name        string
	Texture     string
	Color       [4]float32
	Transparent bool
	DoubleSided bool
	Glow        bool
	Specular    bool
}

// MeshRenderer draws a static mesh, one material per sub-mesh.
type MeshRenderer struct {
	Mesh      *Mesh
	Materials []*Material
	Enabled   bool
}

func (r *MeshRenderer) clone() *MeshRenderer {
	if r == nil {
		return nil
	}
	c := *r
	c.Materials = append([]*Material(nil), r.Materials...)
	return &c
}

// SkinnedMeshRenderer draws a mesh deformed by a list of bone nodes.
type SkinnedMeshRenderer struct {
	Mesh      *Mesh
	Materials []*Material
	Bones     []NodeID
	RootBone  NodeID
	Enabled   bool
}

func (r *SkinnedMeshRenderer) clone() *SkinnedMeshRenderer {
	if r == nil {
		return nil
	}
	c := *r
	c.Materials = append([]*Material(nil), r.Materials...)
	c.Bones = append([]NodeID(nil), r.Bones...)
	return &c
}

// ShapeType is the physical shape a collider uses.
type ShapeType int

const (
	ShapeBox ShapeType = iota
	ShapeSphere
	ShapeMesh
	ShapeHeightField
)

// String returns the shape name.
func (s ShapeType) String() string {
	switch s {
	case ShapeBox:
		return "Box"
	case ShapeSphere:
		return "Sphere"
	case ShapeMesh:
		return "Mesh"
	case ShapeHeightField:
		return "HeightField"
	default:
		return "Unknown"
	}
}

// Collider is a physics shape attached to a node. Size is the full box size;
// Radius applies to spheres; Mesh and Convex apply to mesh colliders.
type Collider struct {
	Shape   ShapeType
	Center  math.Vec3
	Size    math.Vec3
	Radius  float32
	Mesh    *Mesh
	Convex  bool
	Enabled bool
}

func (c *Collider) clone() *Collider {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// HeightField is terrain sampled on a square grid. Heights are normalised to
// [0,1] and scaled by Size.Y; Alphamap holds Resolution*Resolution*len(Layers)
// blend weights.
type HeightField struct {
	Resolution int
	Size       math.Vec3
	Heights    []float32
	Layers     []string
	Alphamap   []float32
}

// Height returns the world-space height of grid sample (x, z).
func (h *HeightField) Height(x, z int) float32 {
	if x < 0 || z < 0 || x >= h.Resolution || z >= h.Resolution {
		return 0
	}
	return h.Heights[z*h.Resolution+x] * h.Size.Y
}

// Sample returns the height at a position in the field's local XZ plane
// using bilinear interpolation between the four surrounding samples.
// Positions outside the field are clamped to its edge.
func (h *HeightField) Sample(x, z float32) float32 {
	if h.Resolution < 2 || len(h.Heights) < h.Resolution*h.Resolution || h.Size.X <= 0 || h.Size.Z <= 0 {
		return 0
	}
	cells := float32(h.Resolution - 1)
	fx := clampf(x/h.Size.X, 0, 1) * cells
	fz := clampf(z/h.Size.Z, 0, 1) * cells

	cx, cz := int(fx), int(fz)
	if cx >= h.Resolution-1 {
		cx = h.Resolution - 2
	}
	if cz >= h.Resolution-1 {
		cz = h.Resolution - 2
	}
	tx, tz := clampf(fx-float32(cx), 0, 1), clampf(fz-float32(cz), 0, 1)

	// Near edge (lower Z) then far edge, then between them.
	near := h.Height(cx, cz)*(1-tx) + h.Height(cx+1, cz)*tx
	far := h.Height(cx, cz+1)*(1-tx) + h.Height(cx+1, cz+1)*tx
	return near*(1-tz) + far*tz
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
