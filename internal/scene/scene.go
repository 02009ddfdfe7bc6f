// Package scene is the in-process scene graph the importer builds into: an
// arena of nodes addressed by integer handles, each carrying a local
// transform and optional mesh, skin, collider and height-field components.
package scene

import (
	"strings"

	"github.com/Faultbox/swbf-import/pkg/math"
)

// NodeID is a stable handle into a Scene. Handles are never reused.
type NodeID int32

// NoNode is the nil handle.
const NoNode NodeID = -1

// Transform is a node's position, rotation and scale relative to its parent.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// IdentityTransform returns a transform that leaves children in place.
func IdentityTransform() Transform {
	return Transform{Rotation: math.QuatIdentity(), Scale: math.One}
}

// Matrix returns the local-to-parent matrix.
func (t Transform) Matrix() math.Mat4 {
	return math.TRS(t.Position, t.Rotation, t.Scale)
}

// Node is a single scene object.
type Node struct {
	ID       NodeID
	Name     string
	Parent   NodeID
	Children []NodeID
	Local    Transform
	Layer    int
	Active   bool

	Renderer    *MeshRenderer
	Skin        *SkinnedMeshRenderer
	Collider    *Collider
	HeightField *HeightField

	destroyed bool
}

// NodeMap maps handles in a source subtree to their copies.
type NodeMap map[NodeID]NodeID

// Scene owns every node created during an import session.
type Scene struct {
	Layers *Layers

	nodes []*Node
	live  int
}

// New creates an empty scene using the given physics layer table.
// A nil table is replaced by an empty one.
func New(layers *Layers) *Scene {
	if layers == nil {
		layers = &Layers{}
	}
	return &Scene{Layers: layers}
}

// NewNode creates an active node with an identity transform under parent.
// Pass NoNode to create a scene root.
func (s *Scene) NewNode(name string, parent NodeID) NodeID {
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, &Node{
		ID:     id,
		Name:   name,
		Parent: NoNode,
		Local:  IdentityTransform(),
		Active: true,
	})
	s.live++
	if parent != NoNode {
		s.attach(id, parent)
	}
	return id
}

// Node returns the node for id, or nil when the handle is invalid or the node
// was destroyed.
func (s *Scene) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(s.nodes) {
		return nil
	}
	n := s.nodes[id]
	if n.destroyed {
		return nil
	}
	return n
}

// Valid reports whether id refers to a live node.
func (s *Scene) Valid(id NodeID) bool {
	return s.Node(id) != nil
}

// Len returns the number of live nodes.
func (s *Scene) Len() int {
	return s.live
}

// Name returns the node name, or "" for an invalid handle.
func (s *Scene) Name(id NodeID) string {
	if n := s.Node(id); n != nil {
		return n.Name
	}
	return ""
}

// SetParent re-parents id under parent, keeping its local transform.
func (s *Scene) SetParent(id, parent NodeID) {
	n := s.Node(id)
	if n == nil {
		return
	}
	s.detach(id)
	if parent != NoNode {
		s.attach(id, parent)
	}
}

// Roots returns every live node without a parent, in creation order.
func (s *Scene) Roots() []NodeID {
	var roots []NodeID
	for _, n := range s.nodes {
		if !n.destroyed && n.Parent == NoNode {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// FindChild searches the descendants of root depth-first for a node with
// exactly the given name. The root itself is not considered.
func (s *Scene) FindChild(root NodeID, name string) (NodeID, bool) {
	n := s.Node(root)
	if n == nil {
		return NoNode, false
	}
	for _, c := range n.Children {
		if s.nodes[c].Name == name {
			return c, true
		}
		if id, ok := s.FindChild(c, name); ok {
			return id, true
		}
	}
	return NoNode, false
}

// FindChildFold is FindChild with case-insensitive name comparison.
func (s *Scene) FindChildFold(root NodeID, name string) (NodeID, bool) {
	n := s.Node(root)
	if n == nil {
		return NoNode, false
	}
	for _, c := range n.Children {
		if strings.EqualFold(s.nodes[c].Name, name) {
			return c, true
		}
		if id, ok := s.FindChildFold(c, name); ok {
			return id, true
		}
	}
	return NoNode, false
}

// Walk visits root and its descendants depth-first. Returning false from fn
// skips the node's children.
func (s *Scene) Walk(root NodeID, fn func(n *Node) bool) {
	n := s.Node(root)
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range append([]NodeID(nil), n.Children...) {
		s.Walk(c, fn)
	}
}

// WorldMatrix returns the local-to-world matrix of id.
func (s *Scene) WorldMatrix(id NodeID) math.Mat4 {
	n := s.Node(id)
	if n == nil {
		return math.Identity()
	}
	m := n.Local.Matrix()
	for p := n.Parent; p != NoNode; p = s.nodes[p].Parent {
		m = s.nodes[p].Local.Matrix().Mul(m)
	}
	return m
}

// Destroy removes id and its whole subtree.
func (s *Scene) Destroy(id NodeID) {
	if s.Node(id) == nil {
		return
	}
	s.detach(id)
	s.destroy(id)
}

func (s *Scene) destroy(id NodeID) {
	n := s.nodes[id]
	for _, c := range n.Children {
		s.destroy(c)
	}
	n.Children = nil
	n.Renderer = nil
	n.Skin = nil
	n.Collider = nil
	n.HeightField = nil
	n.destroyed = true
	s.live--
}

// Clone deep-copies the subtree at id under parent and returns the new root
// along with the handle mapping for every copied node. Mesh and material
// assets are shared; components and bone references are copied and remapped.
func (s *Scene) Clone(id, parent NodeID) (NodeID, NodeMap) {
	if s.Node(id) == nil {
		return NoNode, nil
	}
	m := make(NodeMap)
	root := s.cloneTree(id, parent, m)

	// Bone lists can only be remapped once every copy exists.
	for _, copyID := range m {
		if skin := s.nodes[copyID].Skin; skin != nil {
			skin.Bones = remapAll(skin.Bones, m)
			skin.RootBone = remap(skin.RootBone, m)
		}
	}
	return root, m
}

// CloneCollider creates a node under parent carrying a copy of id's collider
// and nothing else. Children, renderers and skins are not copied.
func (s *Scene) CloneCollider(id, parent NodeID, local Transform) NodeID {
	src := s.Node(id)
	if src == nil {
		return NoNode
	}
	dst := s.NewNode(src.Name, parent)
	n := s.nodes[dst]
	n.Local = local
	n.Layer = src.Layer
	n.Active = src.Active
	n.Collider = src.Collider.clone()
	return dst
}

func (s *Scene) cloneTree(id, parent NodeID, m NodeMap) NodeID {
	src := s.nodes[id]
	dst := s.NewNode(src.Name, parent)
	n := s.nodes[dst]
	n.Local = src.Local
	n.Layer = src.Layer
	n.Active = src.Active
	n.Renderer = src.Renderer.clone()
	n.Skin = src.Skin.clone()
	n.Collider = src.Collider.clone()
	n.HeightField = src.HeightField
	m[id] = dst

	for _, c := range append([]NodeID(nil), src.Children...) {
		s.cloneTree(c, dst, m)
	}
	return dst
}

func (s *Scene) attach(id, parent NodeID) {
	p := s.Node(parent)
	if p == nil {
		return
	}
	s.nodes[id].Parent = parent
	p.Children = append(p.Children, id)
}

func (s *Scene) detach(id NodeID) {
	n := s.nodes[id]
	if n.Parent == NoNode {
		return
	}
	p := s.nodes[n.Parent]
	for i, c := range p.Children {
		if c == id {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = NoNode
}

func remap(id NodeID, m NodeMap) NodeID {
	if to, ok := m[id]; ok {
		return to
	}
	return id
}

func remapAll(ids []NodeID, m NodeMap) []NodeID {
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = remap(id, m)
	}
	return out
}

// Resolve returns the copy of id, if id was part of the cloned subtree.
func (m NodeMap) Resolve(id NodeID) (NodeID, bool) {
	to, ok := m[id]
	return to, ok
}
