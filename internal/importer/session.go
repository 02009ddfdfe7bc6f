// Package importer turns decoded level data into scene hierarchies: models
// with their colliders and segments, materials, textures and terrain.
package importer

import (
	gomath "math"

	"github.com/Faultbox/swbf-import/internal/assets"
	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/mapping"
	"github.com/Faultbox/swbf-import/internal/scene"
)

// cylinderSides is the facet count of the shared unit cylinder.
const cylinderSides = 16

// Session owns everything built during one import run. Caches are keyed by
// name and are only ever cleared together. Not safe for concurrent use.
type Session struct {
	Scene  *scene.Scene
	Mapper *collision.Mapper

	// Models holds hidden prototypes; loads hand out clones.
	Models    *assets.Cache[*mapping.Model]
	Materials *assets.Cache[*scene.Material]
	// Textures maps a texture name to its exported reference.
	Textures *assets.Cache[string]

	layers   *scene.Layers
	hashes   map[uint64]string
	cylinder *scene.Mesh
}

// Stats summarises cache use for one session.
type Stats struct {
	ModelHits, ModelMisses       int
	MaterialHits, MaterialMisses int
	TextureHits, TextureMisses   int
}

// NewSession creates a session whose scene registers the given layers.
func NewSession(layers *scene.Layers) *Session {
	s := &Session{
		layers:    layers,
		Models:    assets.NewCache[*mapping.Model](),
		Materials: assets.NewCache[*scene.Material](),
		Textures:  assets.NewCache[string](),
	}
	s.Reset()
	return s
}

// Reset drops every cache and starts a new, empty scene.
func (s *Session) Reset() {
	s.Scene = scene.New(s.layers)
	s.Mapper = collision.NewMapper(s.Scene.Layers)
	s.Models.Clear()
	s.Materials.Clear()
	s.Textures.Clear()
	s.hashes = make(map[uint64]string)
	s.cylinder = nil
}

// Stats returns the cache hit and miss counts since the last Reset.
func (s *Session) Stats() Stats {
	var st Stats
	st.ModelHits, st.ModelMisses = s.Models.Stats()
	st.MaterialHits, st.MaterialMisses = s.Materials.Stats()
	st.TextureHits, st.TextureMisses = s.Textures.Stats()
	return st
}

// UnitCylinder returns the shared cylinder mesh used in place of cylinder
// primitives: radius 1, height 1, centred on the origin along Y.
func (s *Session) UnitCylinder() *scene.Mesh {
	if s.cylinder == nil {
		s.cylinder = buildUnitCylinder(cylinderSides)
	}
	return s.cylinder
}

func buildUnitCylinder(sides int) *scene.Mesh {
	m := &scene.Mesh{Name: "UnitCylinder"}
	top, bottom := float32(0.5), float32(-0.5)

	// Ring vertices alternate bottom/top, followed by the two cap centres.
	for i := 0; i < sides; i++ {
		a := 2 * gomath.Pi * float64(i) / float64(sides)
		x, z := float32(gomath.Cos(a)), float32(gomath.Sin(a))
		m.Positions = append(m.Positions, [3]float32{x, bottom, z}, [3]float32{x, top, z})
		n := [3]float32{x, 0, z}
		m.Normals = append(m.Normals, n, n)
	}
	cb := uint32(len(m.Positions))
	m.Positions = append(m.Positions, [3]float32{0, bottom, 0}, [3]float32{0, top, 0})
	m.Normals = append(m.Normals, [3]float32{0, -1, 0}, [3]float32{0, 1, 0})
	ct := cb + 1

	for i := 0; i < sides; i++ {
		b0, t0 := uint32(2*i), uint32(2*i+1)
		j := (i + 1) % sides
		b1, t1 := uint32(2*j), uint32(2*j+1)
		m.Indices = append(m.Indices,
			b0, t0, b1,
			b1, t0, t1,
			cb, b0, b1,
			ct, t1, t0,
		)
	}
	m.SubMeshes = []scene.SubMesh{{StartIndex: 0, IndexCount: int32(len(m.Indices))}}
	m.RecalculateBounds()
	return m
}
