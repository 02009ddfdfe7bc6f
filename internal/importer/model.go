package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/internal/mapping"
	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
	"github.com/Faultbox/swbf-import/pkg/math"
)

// Assembly errors.
var (
	ErrNoSkeleton    = errors.New("model has no skeleton")
	ErrModelNotFound = errors.New("model not found")
)

// ModelLoader builds scene hierarchies for level models. Each model is
// assembled once into a hidden prototype; every Load returns a new clone.
type ModelLoader struct {
	session   *Session
	level     *level.Level
	materials *Materials
	log       *zap.Logger
}

// NewModelLoader creates a loader for models of lvl.
func NewModelLoader(s *Session, lvl *level.Level, materials *Materials) *ModelLoader {
	return &ModelLoader{session: s, level: lvl, materials: materials, log: logger.Named("models")}
}

// Load returns a new instance of the named model, or false when the model is
// missing or could not be assembled. The instance is a scene root.
func (l *ModelLoader) Load(name string) (*mapping.Model, bool) {
	proto, ok := l.session.Models.Get(name)
	if !ok {
		src, found := l.level.Model(name)
		if !found {
			l.log.Warn("model skipped", zap.String("model", name), zap.Error(ErrModelNotFound))
			return nil, false
		}
		var err error
		proto, err = l.Assemble(src)
		if err != nil {
			l.log.Warn("model skipped", zap.String("model", name), zap.Error(err))
			return nil, false
		}
		l.session.Scene.Node(proto.Root).Active = false
		l.session.Models.Set(name, proto)
	}
	return l.instantiate(proto), true
}

func (l *ModelLoader) instantiate(proto *mapping.Model) *mapping.Model {
	sc := l.session.Scene
	root, nodes := sc.Clone(proto.Root, scene.NoNode)
	sc.Node(root).Active = true

	inst, err := proto.CloneTo(root, nodes)
	if err != nil {
		// A full subtree clone maps every node.
		l.log.Error("model clone lost records", zap.String("model", sc.Name(root)), zap.Error(err))
	}
	return inst
}

// Assemble builds the node hierarchy, renderers and colliders of src under a
// new scene root. Only a missing skeleton fails the model; broken segments
// and primitives are logged and skipped.
func (l *ModelLoader) Assemble(src *level.Model) (*mapping.Model, error) {
	if len(src.Bones) == 0 {
		return nil, fmt.Errorf("%s: %w", src.Name, ErrNoSkeleton)
	}

	sc := l.session.Scene
	root := sc.NewNode(src.Name, scene.NoNode)
	m := mapping.NewModel(sc, root)

	bones := l.buildSkeleton(root, src.Bones)
	l.buildRigid(m, src, bones)
	l.buildSkinned(m, src, bones)
	l.buildPrimitives(m, src, bones)
	l.buildCollisionMesh(m, src)

	l.log.Debug("model assembled",
		zap.String("model", src.Name),
		zap.Int("bones", len(bones.order)),
		zap.Int("segments", m.Segments.Len()),
		zap.Int("colliders", m.Colliders.Len()))
	return m, nil
}

// skeleton indexes bone nodes by source order and by name.
type skeleton struct {
	order  []scene.NodeID
	byName map[string]scene.NodeID
}

func (s skeleton) find(name string) (scene.NodeID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

func (l *ModelLoader) buildSkeleton(root scene.NodeID, src []level.Bone) skeleton {
	sc := l.session.Scene
	sk := skeleton{byName: make(map[string]scene.NodeID, len(src))}

	for _, b := range src {
		id := sc.NewNode(b.Name, root)
		n := sc.Node(id)
		n.Local.Position = flipVec(b.Position)
		n.Local.Rotation = flipRotation(b.Rotation)
		sk.order = append(sk.order, id)
		if _, dup := sk.byName[b.Name]; !dup {
			sk.byName[b.Name] = id
		}
	}
	// Parents may be listed after their children.
	for i, b := range src {
		if b.Parent == "" || b.Parent == b.Name {
			continue
		}
		parent, ok := sk.find(b.Parent)
		if !ok {
			l.log.Warn("bone parent not found", zap.String("bone", b.Name), zap.String("parent", b.Parent))
			continue
		}
		if isAncestor(sc, sk.order[i], parent) {
			l.log.Warn("bone parent cycle", zap.String("bone", b.Name), zap.String("parent", b.Parent))
			continue
		}
		sc.SetParent(sk.order[i], parent)
	}
	return sk
}

// isAncestor reports whether a is an ancestor of (or equal to) b.
func isAncestor(sc *scene.Scene, a, b scene.NodeID) bool {
	for id := b; id != scene.NoNode; {
		if id == a {
			return true
		}
		n := sc.Node(id)
		if n == nil {
			return false
		}
		id = n.Parent
	}
	return false
}

// meshBuilder concatenates segments into one mesh with a sub-mesh each.
type meshBuilder struct {
	mesh      *scene.Mesh
	materials []*scene.Material
}

func newMeshBuilder(name string) *meshBuilder {
	return &meshBuilder{mesh: &scene.Mesh{Name: name}}
}

// add appends seg and returns its sub-mesh index.
func (b *meshBuilder) add(seg *level.Segment, mat *scene.Material) int {
	offset := uint32(len(b.mesh.Positions))
	start := int32(len(b.mesh.Indices))

	b.mesh.Positions = append(b.mesh.Positions, flipPoints(seg.Positions)...)
	if len(seg.Normals) == len(seg.Positions) {
		b.mesh.Normals = append(b.mesh.Normals, flipPoints(seg.Normals)...)
	} else {
		b.mesh.Normals = append(b.mesh.Normals, make([][3]float32, len(seg.Positions))...)
	}
	if len(seg.UVs) == len(seg.Positions) {
		b.mesh.UVs = append(b.mesh.UVs, seg.UVs...)
	} else {
		b.mesh.UVs = append(b.mesh.UVs, make([][2]float32, len(seg.Positions))...)
	}
	b.mesh.Indices = flipWinding(b.mesh.Indices, seg.Indices, offset)

	b.mesh.SubMeshes = append(b.mesh.SubMeshes, scene.SubMesh{
		StartIndex: start,
		IndexCount: int32(len(b.mesh.Indices)) - start,
	})
	b.materials = append(b.materials, mat)
	return len(b.mesh.SubMeshes) - 1
}

func (b *meshBuilder) empty() bool {
	return len(b.mesh.SubMeshes) == 0
}

func (l *ModelLoader) validSegment(model string, i int, seg *level.Segment) bool {
	if err := seg.Validate(); err != nil {
		l.log.Warn("segment skipped", zap.String("model", model), zap.Int("segment", i), zap.Error(err))
		return false
	}
	return true
}

// buildRigid gives every bone owning segments one static mesh renderer.
func (l *ModelLoader) buildRigid(m *mapping.Model, src *level.Model, bones skeleton) {
	sc := l.session.Scene
	builders := make(map[scene.NodeID]*meshBuilder)
	var order []scene.NodeID

	for i := range src.Segments {
		seg := &src.Segments[i]
		if seg.Skinned() || !l.validSegment(src.Name, i, seg) {
			continue
		}
		bone, ok := bones.find(seg.Bone)
		if !ok {
			l.log.Warn("segment skipped", zap.String("model", src.Name), zap.Int("segment", i),
				zap.String("bone", seg.Bone), zap.String("reason", "bone not found"))
			continue
		}
		b, ok := builders[bone]
		if !ok {
			b = newMeshBuilder(src.Name + "_" + seg.Bone)
			builders[bone] = b
			order = append(order, bone)
		}
		sub := b.add(seg, l.materials.Get(seg.Material))
		m.Segments.Add(mapping.SegmentRecord{Index: sub, Node: bone, Tag: seg.Tag})
	}

	for _, bone := range order {
		b := builders[bone]
		b.mesh.RecalculateBounds()
		sc.Node(bone).Renderer = &scene.MeshRenderer{Mesh: b.mesh, Materials: b.materials, Enabled: true}
	}
}

// buildSkinned merges every skinned segment into one skinned mesh on the
// root. The first skinned segment decides whether vertices carry one bone
// (pretransformed) or three.
func (l *ModelLoader) buildSkinned(m *mapping.Model, src *level.Model, bones skeleton) {
	sc := l.session.Scene
	b := newMeshBuilder(src.Name + "_skin")
	pretransformed, decided := false, false

	for i := range src.Segments {
		seg := &src.Segments[i]
		if !seg.Skinned() || !l.validSegment(src.Name, i, seg) {
			continue
		}
		if !decided {
			pretransformed, decided = seg.Pretransformed, true
		}
		sub := b.add(seg, l.materials.Get(seg.Material))
		for _, w := range seg.Weights {
			b.mesh.BoneWeights = append(b.mesh.BoneWeights, boneWeight(w, len(bones.order), pretransformed))
		}
		m.Segments.Add(mapping.SegmentRecord{Index: sub, Node: m.Root, Tag: seg.Tag, Skinned: true})
	}
	if b.empty() {
		return
	}

	b.mesh.BonesPerVertex = 3
	if pretransformed {
		b.mesh.BonesPerVertex = 1
	}
	rootWorld := sc.WorldMatrix(m.Root)
	b.mesh.BindPoses = make([]math.Mat4, len(bones.order))
	for i, bone := range bones.order {
		if pretransformed {
			b.mesh.BindPoses[i] = math.Identity()
			continue
		}
		b.mesh.BindPoses[i] = sc.WorldMatrix(bone).Inverse().Mul(rootWorld)
	}
	b.mesh.RecalculateBounds()

	rootBone := scene.NoNode
	if len(bones.order) > 0 {
		rootBone = bones.order[0]
	}
	sc.Node(m.Root).Skin = &scene.SkinnedMeshRenderer{
		Mesh:      b.mesh,
		Materials: b.materials,
		Bones:     append([]scene.NodeID(nil), bones.order...),
		RootBone:  rootBone,
		Enabled:   true,
	}
}

// boneWeight converts a source weight. Out-of-range bones fall back to the
// first bone and the remaining weights are renormalised.
func boneWeight(w level.Weight, boneCount int, pretransformed bool) scene.BoneWeight {
	var out scene.BoneWeight
	clamp := func(i int) int32 {
		if i < 0 || i >= boneCount {
			return 0
		}
		return int32(i)
	}
	if pretransformed {
		out.Bones[0] = clamp(w.Bones[0])
		out.Weights[0] = 1
		return out
	}

	var sum float32
	for i := 0; i < 3; i++ {
		out.Bones[i] = clamp(w.Bones[i])
		if w.Values[i] > 0 {
			out.Weights[i] = w.Values[i]
			sum += w.Values[i]
		}
	}
	if sum == 0 {
		out.Weights = [3]float32{1, 0, 0}
		return out
	}
	for i := range out.Weights {
		out.Weights[i] /= sum
	}
	return out
}

// buildPrimitives creates one collider node per collision primitive.
// Every collider starts with the All mask.
func (l *ModelLoader) buildPrimitives(m *mapping.Model, src *level.Model, bones skeleton) {
	sc := l.session.Scene
	for i := range src.Primitives {
		p := &src.Primitives[i]
		if err := p.Validate(); err != nil {
			l.log.Warn("collision primitive skipped", zap.String("model", src.Name), zap.String("primitive", p.Name), zap.Error(err))
			continue
		}

		parent := m.Root
		if p.Parent != "" {
			if bone, ok := bones.find(p.Parent); ok {
				parent = bone
			} else {
				l.log.Warn("primitive parent not found, using root",
					zap.String("model", src.Name), zap.String("primitive", p.Name), zap.String("parent", p.Parent))
			}
		}

		id := sc.NewNode(p.Name, parent)
		n := sc.Node(id)
		n.Local.Position = flipVec(p.Position)
		n.Local.Rotation = flipRotation(p.Rotation)

		var kind mapping.Kind
		switch p.Shape {
		case level.ShapeBox:
			kind = mapping.KindCube
			n.Collider = &scene.Collider{
				Shape:   scene.ShapeBox,
				Size:    math.V3(p.Dimensions).Scale(2),
				Enabled: true,
			}
		case level.ShapeSphere:
			kind = mapping.KindSphere
			n.Collider = &scene.Collider{Shape: scene.ShapeSphere, Radius: p.Dimensions[0], Enabled: true}
		case level.ShapeCylinder:
			// No cylinder shape exists; a scaled convex unit cylinder stands in.
			kind = mapping.KindCylinder
			r, h := p.Dimensions[0], p.Dimensions[1]
			n.Local.Scale = math.Vec3{X: r, Y: h, Z: r}
			n.Collider = &scene.Collider{
				Shape:   scene.ShapeMesh,
				Mesh:    l.session.UnitCylinder(),
				Convex:  true,
				Enabled: true,
			}
		}
		m.Colliders.Add(mapping.ColliderRecord{Node: id, Kind: kind, Mask: collision.All})
	}
}

func (l *ModelLoader) buildCollisionMesh(m *mapping.Model, src *level.Model) {
	cm := src.CollisionMesh
	if cm == nil || len(cm.Indices) == 0 {
		return
	}
	if err := cm.Validate(); err != nil {
		l.log.Warn("collision mesh skipped", zap.String("model", src.Name), zap.Error(err))
		return
	}

	mesh := &scene.Mesh{
		Name:      src.Name + "_collision",
		Positions: flipPoints(cm.Positions),
		Indices:   flipWinding(nil, cm.Indices, 0),
	}
	mesh.SubMeshes = []scene.SubMesh{{IndexCount: int32(len(mesh.Indices))}}
	mesh.RecalculateBounds()

	sc := l.session.Scene
	id := sc.NewNode(mapping.CollisionMeshName, m.Root)
	sc.Node(id).Collider = &scene.Collider{Shape: scene.ShapeMesh, Mesh: mesh, Enabled: true}
	m.Colliders.Add(mapping.ColliderRecord{Node: id, Kind: mapping.KindMesh, Mask: collision.All})
}
