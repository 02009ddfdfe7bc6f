package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/config"
	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/internal/mapping"
	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
)

// Entity class property keys read by the importer.
const (
	PropGeometryName    = "GeometryName"
	PropOverrideTexture = "OverrideTexture"

	// TagWheel marks wheel segments of vehicles.
	TagWheel = "wheel"
	// TagOverrideTexture marks segments retextured by OverrideTexture.
	TagOverrideTexture = "override_texture"
)

// collisionProps maps ODF collision keys to the category they assign.
// Each value names a primitive, or CollisionMesh.
var collisionProps = []struct {
	key  string
	mask collision.Mask
}{
	{"SoldierCollision", collision.Soldier},
	{"VehicleCollision", collision.Vehicle},
	{"BuildingCollision", collision.Building},
	{"OrdnanceCollision", collision.Ordnance},
	{"TerrainCollision", collision.Terrain},
}

// Placed is one imported entity instance.
type Placed struct {
	ID     uuid.UUID
	Name   string
	Class  string
	World  string
	Wheels int
	Model  *mapping.Model
}

// Result summarises an import.
type Result struct {
	Level     string
	Worlds    []scene.NodeID
	Terrains  []scene.NodeID
	Instances []Placed
	Skipped   int

	// Colliders counts colliders per category bit; CollidersTotal counts all.
	Colliders      map[collision.Mask]int
	CollidersTotal int

	Stats    Stats
	Duration time.Duration
}

// LevelImporter places every world of a level into the session scene.
type LevelImporter struct {
	session   *Session
	cfg       *config.Config
	overrides []collision.NameOverride
	log       *zap.Logger
}

// NewLevelImporter creates a level importer. Name overrides come from the
// physics config and are validated here.
func NewLevelImporter(s *Session, cfg *config.Config) (*LevelImporter, error) {
	overrides, err := NameOverrides(cfg.Physics.NameOverrides)
	if err != nil {
		return nil, err
	}
	return &LevelImporter{session: s, cfg: cfg, overrides: overrides, log: logger.Named("importer")}, nil
}

// NameOverrides converts configured overrides to mapper overrides.
func NameOverrides(src []config.NameOverride) ([]collision.NameOverride, error) {
	out := make([]collision.NameOverride, 0, len(src))
	for _, o := range src {
		no, err := collision.NewNameOverride(o.Substring, o.Mask...)
		if err != nil {
			return nil, fmt.Errorf("name override %q: %w", o.Substring, err)
		}
		out = append(out, no)
	}
	return out, nil
}

// levelRun holds the per-level collaborators of one Import call.
type levelRun struct {
	*LevelImporter
	level     *level.Level
	textures  *Textures
	materials *Materials
	models    *ModelLoader
	terrain   *TerrainImporter
	result    *Result
}

// Import builds every world of lvl. Missing classes, models and textures
// are logged and skipped; Import itself only fails on a nil level.
func (li *LevelImporter) Import(lvl *level.Level) (*Result, error) {
	if lvl == nil {
		return nil, fmt.Errorf("import: nil level")
	}
	start := time.Now()

	textures := NewTextures(li.session, lvl, li.cfg.Import)
	materials := NewMaterials(li.session, textures)
	run := &levelRun{
		LevelImporter: li,
		level:         lvl,
		textures:      textures,
		materials:     materials,
		models:        NewModelLoader(li.session, lvl, materials),
		terrain:       NewTerrainImporter(li.session, textures),
		result:        &Result{Level: lvl.Name, Colliders: make(map[collision.Mask]int)},
	}

	li.log.Info("importing level", zap.String("level", lvl.Name), zap.Int("worlds", len(lvl.Worlds)))
	for i := range lvl.Worlds {
		run.world(&lvl.Worlds[i])
	}

	res := run.result
	res.Stats = li.session.Stats()
	res.Duration = time.Since(start)
	li.log.Info("level imported",
		zap.String("level", lvl.Name),
		zap.Int("instances", len(res.Instances)),
		zap.Int("skipped", res.Skipped),
		zap.Int("colliders", res.CollidersTotal),
		zap.Duration("took", res.Duration))
	return res, nil
}

func (r *levelRun) world(w *level.World) {
	sc := r.session.Scene
	root := sc.NewNode(w.Name, scene.NoNode)
	r.result.Worlds = append(r.result.Worlds, root)

	if w.Terrain != nil && r.cfg.Import.ImportTerrain {
		id, err := r.terrain.Import(w.Terrain, root)
		if err != nil {
			r.log.Warn("terrain skipped", zap.String("world", w.Name), zap.Error(err))
		} else {
			r.result.Terrains = append(r.result.Terrains, id)
		}
	}

	for i := range w.Instances {
		placed, ok := r.instance(w, &w.Instances[i], root)
		if !ok {
			r.result.Skipped++
			continue
		}
		r.result.Instances = append(r.result.Instances, placed)
		r.count(placed.Model)
	}
}

func (r *levelRun) instance(w *level.World, inst *level.Instance, worldRoot scene.NodeID) (Placed, bool) {
	log := r.log.With(zap.String("world", w.Name), zap.String("instance", inst.Name), zap.String("class", inst.Class))

	class, ok := r.level.Class(inst.Class)
	if !ok {
		log.Warn("instance skipped: class not found")
		return Placed{}, false
	}
	geometry, ok := r.level.Property(class, PropGeometryName)
	if !ok || geometry == "" {
		log.Debug("instance skipped: class has no geometry")
		return Placed{}, false
	}
	m, ok := r.models.Load(geometry)
	if !ok {
		return Placed{}, false
	}

	sc := r.session.Scene
	sc.SetParent(m.Root, worldRoot)
	root := sc.Node(m.Root)
	if inst.Name != "" {
		root.Name = inst.Name
	}
	root.Local.Position = flipVec(inst.Position)
	root.Local.Rotation = flipRotation(inst.Rotation)

	for _, p := range collisionProps {
		for _, target := range r.level.Properties(class, p.key) {
			if !m.Colliders.SetMaskForNamed(target, p.mask) {
				log.Debug("collision property matched no collider", zap.String("key", p.key), zap.String("target", target))
			}
		}
	}
	m.Colliders.ExpandMultiMaskColliders()

	placed := Placed{ID: uuid.New(), Name: inst.Name, Class: class.Name, World: w.Name, Model: m}

	label := r.level.ClassLabel(class)
	role, hasRole := collision.RoleFromClassLabel(label)
	if hasRole {
		m.SetRole(role)
		m.SetLayerAll(r.session.Mapper)
	} else {
		for _, rec := range m.Colliders.Records() {
			r.session.Mapper.ApplyLayer(sc, rec.Node, rec.Mask, r.overrides)
		}
	}

	switch {
	case hasRole && role == collision.RoleVehicle:
		if m.Colliders.IsLayerOnlyPrimitive(collision.Vehicle) {
			m.Colliders.StripMeshColliders()
		} else {
			m.Colliders.ConvexifyMeshColliders()
		}
		placed.Wheels = len(m.Segments.FilterByTag(TagWheel))
	case hasRole && role == collision.RoleSoldier:
		m.Colliders.StripAllExcept(collision.Soldier)
	}

	if tex, ok := r.level.Property(class, PropOverrideTexture); ok && tex != "" {
		r.overrideTexture(m, tex)
	}
	if r.cfg.Import.DisableCollisionMesh && hasPrimitives(m.Colliders) {
		m.Colliders.SetMeshEnabled(false)
	}

	log.Debug("instance placed",
		zap.Stringer("id", placed.ID),
		zap.String("label", label),
		zap.Int("colliders", m.Colliders.Len()))
	return placed, true
}

// overrideTexture points every segment tagged override_texture at tex.
func (r *levelRun) overrideTexture(m *mapping.Model, tex string) {
	sc := r.session.Scene
	for _, seg := range m.Segments.FilterByTag(TagOverrideTexture) {
		n := sc.Node(seg.Node)
		if n == nil {
			continue
		}
		var mats []*scene.Material
		switch {
		case seg.Skinned && n.Skin != nil:
			mats = n.Skin.Materials
		case !seg.Skinned && n.Renderer != nil:
			mats = n.Renderer.Materials
		}
		if seg.Index < len(mats) {
			mats[seg.Index] = r.materials.WithTexture(mats[seg.Index], tex)
		}
	}
}

// count adds the model's colliders to the per-category summary.
func (r *levelRun) count(m *mapping.Model) {
	r.result.CollidersTotal += len(m.Colliders.GetByMask(collision.None))
	for _, bit := range collision.Every.Bits() {
		r.result.Colliders[bit] += len(m.Colliders.GetByMask(bit))
	}
}

func hasPrimitives(s *mapping.ColliderSet) bool {
	for _, rec := range s.Records() {
		if rec.Kind != mapping.KindMesh {
			return true
		}
	}
	return false
}
