package level

import (
	"errors"
	"fmt"
)

// Model validation errors.
var (
	ErrSegmentMismatch   = errors.New("segment buffer lengths differ")
	ErrSegmentIndices    = errors.New("segment index out of range")
	ErrSegmentTriangles  = errors.New("segment index count is not a multiple of 3")
	ErrSegmentWeights    = errors.New("segment weight count does not match vertex count")
	ErrPrimitiveShape    = errors.New("unknown collision primitive shape")
	ErrPrimitiveSize     = errors.New("collision primitive has non-positive size")
	ErrCollisionMeshData = errors.New("collision mesh index out of range")
)

// Primitive shapes.
const (
	ShapeBox      = "box"
	ShapeSphere   = "sphere"
	ShapeCylinder = "cylinder"
)

// Model is a skeleton with rendered segments and collision geometry.
type Model struct {
	Name          string         `yaml:"name"`
	Bones         []Bone         `yaml:"bones"`
	Segments      []Segment      `yaml:"segments"`
	Primitives    []Primitive    `yaml:"primitives,omitempty"`
	CollisionMesh *CollisionMesh `yaml:"collision_mesh,omitempty"`
}

// Bone is a skeleton node. Parent is the parent bone name, empty for roots.
type Bone struct {
	Name     string     `yaml:"name"`
	Parent   string     `yaml:"parent,omitempty"`
	Position [3]float32 `yaml:"position"`
	Rotation [4]float32 `yaml:"rotation"` // x, y, z, w
}

// Segment is one material's worth of triangles. An empty Bone marks a
// skinned segment whose vertices are blended through Weights.
type Segment struct {
	Bone           string       `yaml:"bone,omitempty"`
	Tag            string       `yaml:"tag,omitempty"`
	Pretransformed bool         `yaml:"pretransformed,omitempty"`
	Material       Material     `yaml:"material"`
	Positions      [][3]float32 `yaml:"positions"`
	Normals        [][3]float32 `yaml:"normals,omitempty"`
	UVs            [][2]float32 `yaml:"uvs,omitempty"`
	Indices        []uint32     `yaml:"indices"` // triangle list
	Weights        []Weight     `yaml:"weights,omitempty"`
}

// Weight holds up to three skeleton bone indices and their blend weights for
// one vertex. Pretransformed segments only use the first entry.
type Weight struct {
	Bones  [3]int     `yaml:"bones"`
	Values [3]float32 `yaml:"values"`
}

// Material is the per-segment render state.
type Material struct {
	Texture     string     `yaml:"texture,omitempty"`
	Color       [4]float32 `yaml:"color,omitempty"`
	Transparent bool       `yaml:"transparent,omitempty"`
	DoubleSided bool       `yaml:"double_sided,omitempty"`
	Glow        bool       `yaml:"glow,omitempty"`
	Specular    bool       `yaml:"specular,omitempty"`
}

// Primitive is a collision volume attached to a bone.
// Dimensions: box half-extents; sphere X = radius; cylinder X = radius, Y = height.
type Primitive struct {
	Name       string     `yaml:"name"`
	Parent     string     `yaml:"parent,omitempty"`
	Shape      string     `yaml:"shape"`
	Dimensions [3]float32 `yaml:"dimensions"`
	Position   [3]float32 `yaml:"position"`
	Rotation   [4]float32 `yaml:"rotation"`
}

// CollisionMesh is the model's triangle collision geometry.
type CollisionMesh struct {
	Positions [][3]float32 `yaml:"positions"`
	Indices   []uint32     `yaml:"indices"`
}

// Skinned reports whether the segment is blended rather than bone-attached.
func (s *Segment) Skinned() bool {
	return s.Bone == ""
}

// Validate checks that the vertex buffers line up and every index is in range.
func (s *Segment) Validate() error {
	n := len(s.Positions)
	if len(s.Normals) != 0 && len(s.Normals) != n {
		return fmt.Errorf("%w: %d positions, %d normals", ErrSegmentMismatch, n, len(s.Normals))
	}
	if len(s.UVs) != 0 && len(s.UVs) != n {
		return fmt.Errorf("%w: %d positions, %d uvs", ErrSegmentMismatch, n, len(s.UVs))
	}
	if len(s.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrSegmentTriangles, len(s.Indices))
	}
	for _, idx := range s.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: %d >= %d", ErrSegmentIndices, idx, n)
		}
	}
	if s.Skinned() && len(s.Weights) != n {
		return fmt.Errorf("%w: %d vertices, %d weights", ErrSegmentWeights, n, len(s.Weights))
	}
	return nil
}

// Validate checks the shape name and size.
func (p *Primitive) Validate() error {
	switch p.Shape {
	case ShapeBox:
		if p.Dimensions[0] <= 0 || p.Dimensions[1] <= 0 || p.Dimensions[2] <= 0 {
			return fmt.Errorf("%w: %s %v", ErrPrimitiveSize, p.Name, p.Dimensions)
		}
	case ShapeSphere:
		if p.Dimensions[0] <= 0 {
			return fmt.Errorf("%w: %s radius %v", ErrPrimitiveSize, p.Name, p.Dimensions[0])
		}
	case ShapeCylinder:
		if p.Dimensions[0] <= 0 || p.Dimensions[1] <= 0 {
			return fmt.Errorf("%w: %s %v", ErrPrimitiveSize, p.Name, p.Dimensions)
		}
	default:
		return fmt.Errorf("%w: %q", ErrPrimitiveShape, p.Shape)
	}
	return nil
}

// Validate checks the triangle list against the vertex count.
func (m *CollisionMesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrSegmentTriangles, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: %d >= %d", ErrCollisionMeshData, idx, len(m.Positions))
		}
	}
	return nil
}
