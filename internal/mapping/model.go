package mapping

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/scene"
)

// ErrUnresolved is matched by every RemapError.
var ErrUnresolved = errors.New("node not found under new root")

// RemapError reports a record that could not be carried over to a new root.
type RemapError struct {
	Record string // "collider" or "segment"
	Index  int
	Name   string
}

func (e *RemapError) Error() string {
	return fmt.Sprintf("%s %d (%q): %v", e.Record, e.Index, e.Name, ErrUnresolved)
}

func (e *RemapError) Unwrap() error { return ErrUnresolved }

func combine(errs []error) error {
	return multierr.Combine(errs...)
}

// Resolver finds the counterpart of a node in another hierarchy.
// scene.NodeMap, as returned by Scene.Clone, is a Resolver.
type Resolver interface {
	Resolve(from scene.NodeID) (scene.NodeID, bool)
}

// ByName resolves nodes by name, searching the descendants of To. From
// itself maps to To. It is the fallback for hierarchies that were not built
// by Scene.Clone.
type ByName struct {
	Scene *scene.Scene
	From  scene.NodeID
	To    scene.NodeID
}

// Resolve implements Resolver.
func (b ByName) Resolve(from scene.NodeID) (scene.NodeID, bool) {
	if from == b.From {
		return b.To, true
	}
	name := b.Scene.Name(from)
	if name == "" {
		return scene.NoNode, false
	}
	return b.Scene.FindChild(b.To, name)
}

// Model is the mapping component attached to an imported model root.
type Model struct {
	Scene     *scene.Scene
	Root      scene.NodeID
	Colliders *ColliderSet
	Segments  *SegmentSet

	role    collision.Role
	hasRole bool
}

// NewModel creates a model mapping with empty registries.
func NewModel(sc *scene.Scene, root scene.NodeID) *Model {
	return &Model{
		Scene:     sc,
		Root:      root,
		Colliders: NewColliderSet(sc, root),
		Segments:  NewSegmentSet(),
	}
}

// SetRole attaches a gameplay role.
func (m *Model) SetRole(r collision.Role) {
	m.role, m.hasRole = r, true
}

// Role returns the gameplay role, if one was set.
func (m *Model) Role() (collision.Role, bool) {
	return m.role, m.hasRole
}

// SetLayerAll assigns collider layers from the model's role. Models without
// a role are left untouched and report zero misses.
func (m *Model) SetLayerAll(mapper *collision.Mapper) int {
	if !m.hasRole {
		return 0
	}
	return m.Colliders.SetLayerAll(mapper, m.role)
}

// CloneTo returns a mapping for a copy of the model rooted at newRoot. The
// returned model is always usable; the error lists every record that was
// dropped because res could not resolve it.
func (m *Model) CloneTo(newRoot scene.NodeID, res Resolver) (*Model, error) {
	out := NewModel(m.Scene, newRoot)
	out.role, out.hasRole = m.role, m.hasRole

	colliders, cerr := m.Colliders.CloneTo(newRoot, res)
	segments, serr := m.Segments.CloneTo(m.Scene, newRoot, res)
	out.Colliders = colliders
	out.Segments = segments
	return out, multierr.Append(cerr, serr)
}
