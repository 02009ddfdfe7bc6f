// Package mapping tracks which scene nodes of an imported model carry which
// colliders and render segments, so instances can be post-processed by
// collision category and by segment tag.
package mapping

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/internal/scene"
)

// CollisionMeshName is the node name given to a model's collision mesh.
// SetMaskForNamed treats it as "the first mesh collider".
const CollisionMeshName = "CollisionMesh"

// Kind is the source shape of a collider.
type Kind int

const (
	KindMesh Kind = iota
	KindSphere
	KindCylinder
	KindCube
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "Mesh"
	case KindSphere:
		return "Sphere"
	case KindCylinder:
		return "Cylinder"
	case KindCube:
		return "Cube"
	default:
		return "Unknown"
	}
}

// ColliderRecord ties one collider shape to its node. The shape itself is
// the node's scene.Collider component.
type ColliderRecord struct {
	Node scene.NodeID
	Kind Kind
	Mask collision.Mask
}

// ColliderSet is the ordered collider registry of one model instance.
type ColliderSet struct {
	sc      *scene.Scene
	root    scene.NodeID
	records []ColliderRecord
}

// NewColliderSet creates an empty registry for the model rooted at root.
func NewColliderSet(sc *scene.Scene, root scene.NodeID) *ColliderSet {
	return &ColliderSet{sc: sc, root: root}
}

// Add appends records in order. Duplicates are kept.
func (s *ColliderSet) Add(records ...ColliderRecord) {
	s.records = append(s.records, records...)
}

// AddAll appends every record of records.
func (s *ColliderSet) AddAll(records []ColliderRecord) {
	s.Add(records...)
}

// Len returns the number of records.
func (s *ColliderSet) Len() int {
	return len(s.records)
}

// Records returns a copy of the records in registry order.
func (s *ColliderSet) Records() []ColliderRecord {
	return append([]ColliderRecord(nil), s.records...)
}

// Shape returns the collider component of a record, or nil.
func (s *ColliderSet) Shape(r ColliderRecord) *scene.Collider {
	if n := s.sc.Node(r.Node); n != nil {
		return n.Collider
	}
	return nil
}

// IsLayerOnlyPrimitive reports whether every collider intersecting mask is a
// primitive. It is false iff some mesh collider's mask intersects mask.
func (s *ColliderSet) IsLayerOnlyPrimitive(mask collision.Mask) bool {
	for _, r := range s.records {
		if r.Mask.Intersects(mask) && r.Kind == KindMesh {
			return false
		}
	}
	return true
}

// ConvexifyMeshColliders marks every mesh collider convex.
func (s *ColliderSet) ConvexifyMeshColliders() {
	for _, r := range s.records {
		if r.Kind != KindMesh {
			continue
		}
		if c := s.Shape(r); c != nil {
			c.Convex = true
		}
	}
}

// StripMeshColliders removes every mesh collider and destroys its node.
func (s *ColliderSet) StripMeshColliders() {
	s.strip(func(r ColliderRecord) bool { return r.Kind == KindMesh })
}

// SetMeshEnabled toggles the first mesh collider in registry order and
// leaves any later ones alone.
func (s *ColliderSet) SetMeshEnabled(enabled bool) {
	for _, r := range s.records {
		if r.Kind != KindMesh {
			continue
		}
		if c := s.Shape(r); c != nil {
			c.Enabled = enabled
		}
		return
	}
}

// StripAllExcept removes every collider whose mask does not intersect mask
// and destroys its node. The model root is never destroyed; a collider on
// the root only loses its component.
func (s *ColliderSet) StripAllExcept(mask collision.Mask) {
	s.strip(func(r ColliderRecord) bool { return !r.Mask.Intersects(mask) })
}

// SetEnabledAllExcept toggles every collider whose mask does not intersect
// mask.
func (s *ColliderSet) SetEnabledAllExcept(mask collision.Mask, enabled bool) {
	for _, r := range s.records {
		if r.Mask.Intersects(mask) {
			continue
		}
		if c := s.Shape(r); c != nil {
			c.Enabled = enabled
		}
	}
}

// ExpandMultiMaskColliders splits colliders carrying several categories into
// one collider per category. The record keeps its lowest category bit and a
// copy is added for each further bit, in increasing bit order. The All
// sentinel is dropped from any mask that also names a category. Only records
// present at call time are considered.
//
// A copy is a sibling of the record's node. A collider on the model root, or
// on a node with children, is copied as a collider-only node so the rest of
// the hierarchy is never duplicated; root copies become children of the root.
func (s *ColliderSet) ExpandMultiMaskColliders() {
	n := len(s.records)
	for i := 0; i < n; i++ {
		r := s.records[i]
		cats := r.Mask.Categories()
		if cats == collision.None {
			continue
		}
		s.records[i].Mask = cats
		if cats.Count() < 2 {
			continue
		}
		node := s.sc.Node(r.Node)
		if node == nil {
			continue
		}

		split := cats.Bits()
		s.records[i].Mask = split[0]
		for _, bit := range split[1:] {
			s.records = append(s.records, ColliderRecord{Node: s.copyNode(r.Node, node), Kind: r.Kind, Mask: bit})
		}
	}
}

func (s *ColliderSet) copyNode(id scene.NodeID, node *scene.Node) scene.NodeID {
	switch {
	case id == s.root:
		return s.sc.CloneCollider(id, id, scene.IdentityTransform())
	case len(node.Children) > 0:
		return s.sc.CloneCollider(id, node.Parent, node.Local)
	default:
		clone, _ := s.sc.Clone(id, node.Parent)
		return clone
	}
}

// SetMaskForNamed assigns mask to the first collider whose node is named
// name (case-insensitive), or to the first mesh collider when name is
// CollisionMeshName. A collider still at the All sentinel has its mask
// replaced; otherwise the bits are added. It reports whether a collider
// matched.
func (s *ColliderSet) SetMaskForNamed(name string, mask collision.Mask) bool {
	for i := range s.records {
		r := &s.records[i]
		if !strings.EqualFold(s.sc.Name(r.Node), name) && !(name == CollisionMeshName && r.Kind == KindMesh) {
			continue
		}
		if r.Mask == collision.All {
			r.Mask = mask
		} else {
			r.Mask |= mask
		}
		return true
	}
	return false
}

// SetMaskAll overwrites every collider's mask.
func (s *ColliderSet) SetMaskAll(mask collision.Mask) {
	for i := range s.records {
		s.records[i].Mask = mask
	}
}

// SetLayerAll assigns each collider node the layer the role table selects
// for its mask. Unregistered layers are logged and skipped; the number of
// skipped colliders is returned.
func (s *ColliderSet) SetLayerAll(m *collision.Mapper, role collision.Role) int {
	missed := 0
	for _, r := range s.records {
		n := s.sc.Node(r.Node)
		if n == nil {
			continue
		}
		layer, ok := m.MapRoleAndMaskToLayer(role, r.Mask)
		if !ok {
			logger.Named("mapping").Error("no physics layer for collider",
				zap.String("node", n.Name),
				zap.Stringer("role", role),
				zap.Stringer("mask", r.Mask),
				zap.String("layer", collision.RoleLayerName(role, r.Mask)))
			missed++
			continue
		}
		n.Layer = layer
	}
	return missed
}

// GetByMask returns the shapes of colliders whose mask intersects mask.
// The empty mask is a wildcard and returns every shape; All only matches
// colliders that carry the All bit.
func (s *ColliderSet) GetByMask(mask collision.Mask) []*scene.Collider {
	var out []*scene.Collider
	for _, r := range s.records {
		if mask != collision.None && !r.Mask.Intersects(mask) {
			continue
		}
		if c := s.Shape(r); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// CloneTo rebuilds the registry against another root, resolving every node
// through res. Unresolved records are dropped and reported.
func (s *ColliderSet) CloneTo(root scene.NodeID, res Resolver) (*ColliderSet, error) {
	out := NewColliderSet(s.sc, root)
	var errs []error
	for i, r := range s.records {
		to, ok := res.Resolve(r.Node)
		if !ok {
			errs = append(errs, &RemapError{Record: "collider", Index: i, Name: s.sc.Name(r.Node)})
			continue
		}
		out.Add(ColliderRecord{Node: to, Kind: r.Kind, Mask: r.Mask})
	}
	return out, combine(errs)
}

func (s *ColliderSet) strip(remove func(ColliderRecord) bool) {
	kept := s.records[:0]
	var doomed []scene.NodeID
	for _, r := range s.records {
		if remove(r) {
			doomed = append(doomed, r.Node)
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept

	for _, id := range doomed {
		if id == s.root {
			if n := s.sc.Node(id); n != nil {
				n.Collider = nil
			}
			continue
		}
		s.sc.Destroy(id)
	}

	// Destroying a node takes its subtree with it.
	kept = s.records[:0]
	for _, r := range s.records {
		if s.sc.Valid(r.Node) {
			kept = append(kept, r)
		}
	}
	s.records = kept
}
