package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
	"github.com/Faultbox/swbf-import/pkg/math"
)

// ErrTerrainData is returned for a terrain whose height grid is malformed.
var ErrTerrainData = errors.New("terrain height data does not match grid size")

// TerrainImporter builds height field nodes from level terrain.
type TerrainImporter struct {
	session  *Session
	textures *Textures
	log      *zap.Logger
}

// NewTerrainImporter creates a terrain importer.
func NewTerrainImporter(s *Session, textures *Textures) *TerrainImporter {
	return &TerrainImporter{session: s, textures: textures, log: logger.Named("terrain")}
}

// Import creates a terrain node under parent. The height field is centred
// on the parent origin, mirrored on X like all other geometry, and carries a
// terrain collider on the terrain layer.
func (t *TerrainImporter) Import(src *level.Terrain, parent scene.NodeID) (scene.NodeID, error) {
	n := src.GridSize
	if n < 2 || len(src.Heights) != n*n {
		return scene.NoNode, fmt.Errorf("%w: %s grid %d with %d heights", ErrTerrainData, src.Name, n, len(src.Heights))
	}

	scale := src.HeightScale
	if scale == 0 {
		scale = 1
	}
	unit := src.GridUnitSize
	if unit <= 0 {
		unit = 1
	}

	lo, hi := src.Heights[0], src.Heights[0]
	for _, h := range src.Heights {
		lo, hi = min(lo, h), max(hi, h)
	}
	span := hi - lo

	field := &scene.HeightField{
		Resolution: n,
		Size:       math.Vec3{X: float32(n-1) * unit, Y: span * scale, Z: float32(n-1) * unit},
		Heights:    make([]float32, n*n),
	}
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			if span > 0 {
				field.Heights[z*n+x] = (src.Heights[z*n+(n-1-x)] - lo) / span
			}
		}
	}
	field.Layers, field.Alphamap = t.blend(src)

	sc := t.session.Scene
	name := src.Name
	if name == "" {
		name = "Terrain"
	}
	id := sc.NewNode(name, parent)
	node := sc.Node(id)
	node.Local.Position = math.Vec3{X: -field.Size.X / 2, Y: lo * scale, Z: -field.Size.Z / 2}
	node.HeightField = field
	node.Collider = &scene.Collider{Shape: scene.ShapeHeightField, Size: field.Size, Enabled: true}

	if layer, ok := t.session.Mapper.MapRoleAndMaskToLayer(collision.RoleTerrain, collision.Terrain); ok {
		node.Layer = layer
	} else {
		t.log.Error("no physics layer for terrain",
			zap.String("terrain", name),
			zap.String("layer", collision.RoleLayerName(collision.RoleTerrain, collision.Terrain)))
	}

	t.log.Debug("terrain imported",
		zap.String("terrain", name),
		zap.Int("grid", n),
		zap.Int("layers", len(field.Layers)))
	return id, nil
}

// blend resolves layer textures and normalises the blend map so each
// sample's weights sum to one. A missing or malformed blend map puts full
// weight on the first layer.
func (t *TerrainImporter) blend(src *level.Terrain) ([]string, []float32) {
	n, count := src.GridSize, len(src.Layers)
	if count == 0 {
		return nil, nil
	}

	layers := make([]string, count)
	for i, name := range src.Layers {
		layers[i] = name
		if ref, ok := t.textures.Import(name); ok {
			layers[i] = ref
		}
	}

	alpha := make([]float32, n*n*count)
	valid := len(src.Blend) == n*n*count
	if !valid && len(src.Blend) != 0 {
		t.log.Warn("terrain blend map ignored",
			zap.String("terrain", src.Name),
			zap.Int("want", n*n*count),
			zap.Int("got", len(src.Blend)))
	}

	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			dst := (z*n + x) * count
			srcIdx := (z*n + (n - 1 - x)) * count

			var sum float32
			if valid {
				for l := 0; l < count; l++ {
					sum += float32(src.Blend[srcIdx+l])
				}
			}
			if sum == 0 {
				alpha[dst] = 1
				continue
			}
			for l := 0; l < count; l++ {
				alpha[dst+l] = float32(src.Blend[srcIdx+l]) / sum
			}
		}
	}
	return layers, alpha
}
