package importer

import (
	"fmt"
	"strings"

	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
)

var white = [4]float32{1, 1, 1, 1}

// Materials builds scene materials from segment render state, sharing one
// material per distinct texture and flag combination.
type Materials struct {
	session  *Session
	textures *Textures
}

// NewMaterials creates a material table resolving textures through textures.
func NewMaterials(s *Session, textures *Textures) *Materials {
	return &Materials{session: s, textures: textures}
}

// Get returns the material for src.
func (m *Materials) Get(src level.Material) *scene.Material {
	key := materialKey(src)
	if mat, ok := m.session.Materials.Get(key); ok {
		return mat
	}

	mat := &scene.Material{
		Name:        key,
		Color:       src.Color,
		Transparent: src.Transparent,
		DoubleSided: src.DoubleSided,
		Glow:        src.Glow,
		Specular:    src.Specular,
	}
	if mat.Color == ([4]float32{}) {
		mat.Color = white
	}
	if ref, ok := m.textures.Import(src.Texture); ok {
		mat.Texture = ref
	}
	m.session.Materials.Set(key, mat)
	return mat
}

// WithTexture returns a copy of base that samples texture instead. Copies
// are shared like any other material.
func (m *Materials) WithTexture(base *scene.Material, texture string) *scene.Material {
	key := base.Name + "@" + strings.ToLower(texture)
	if mat, ok := m.session.Materials.Get(key); ok {
		return mat
	}
	mat := *base
	mat.Name = key
	if ref, ok := m.textures.Import(texture); ok {
		mat.Texture = ref
	}
	m.session.Materials.Set(key, &mat)
	return &mat
}

func materialKey(src level.Material) string {
	var b strings.Builder
	if src.Texture == "" {
		b.WriteString("untextured")
	} else {
		b.WriteString(strings.ToLower(src.Texture))
	}
	for _, f := range []struct {
		on     bool
		suffix string
	}{
		{src.Transparent, "_transparent"},
		{src.DoubleSided, "_doublesided"},
		{src.Glow, "_glow"},
		{src.Specular, "_specular"},
	} {
		if f.on {
			b.WriteString(f.suffix)
		}
	}
	if src.Color != ([4]float32{}) && src.Color != white {
		fmt.Fprintf(&b, "_%02x%02x%02x%02x", unit8(src.Color[0]), unit8(src.Color[1]), unit8(src.Color[2]), unit8(src.Color[3]))
	}
	return b.String()
}

func unit8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
