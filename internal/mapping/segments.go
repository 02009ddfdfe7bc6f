package mapping

import (
	"strings"

	"github.com/Faultbox/swbf-import/internal/scene"
)

// SegmentRecord maps one source segment to the node rendering it. Skinned
// segments all render through the model root.
type SegmentRecord struct {
	Index   int
	Node    scene.NodeID
	Tag     string
	Skinned bool
}

// SegmentSet is the ordered segment registry of one model instance.
type SegmentSet struct {
	records []SegmentRecord
}

// NewSegmentSet creates an empty registry.
func NewSegmentSet() *SegmentSet {
	return &SegmentSet{}
}

// Add appends records in order.
func (s *SegmentSet) Add(records ...SegmentRecord) {
	s.records = append(s.records, records...)
}

// Len returns the number of records.
func (s *SegmentSet) Len() int {
	return len(s.records)
}

// Records returns a copy of the records in registry order.
func (s *SegmentSet) Records() []SegmentRecord {
	return append([]SegmentRecord(nil), s.records...)
}

// FilterByTag returns the records whose tag equals tag, ignoring case.
func (s *SegmentSet) FilterByTag(tag string) []SegmentRecord {
	var out []SegmentRecord
	for _, r := range s.records {
		if strings.EqualFold(r.Tag, tag) {
			out = append(out, r)
		}
	}
	return out
}

// CloneTo rebuilds the registry against another root. Skinned records go to
// root; the rest are resolved through res and dropped with a report when
// they cannot be.
func (s *SegmentSet) CloneTo(sc *scene.Scene, root scene.NodeID, res Resolver) (*SegmentSet, error) {
	out := NewSegmentSet()
	var errs []error
	for i, r := range s.records {
		if r.Skinned {
			r.Node = root
			out.Add(r)
			continue
		}
		to, ok := res.Resolve(r.Node)
		if !ok {
			errs = append(errs, &RemapError{Record: "segment", Index: i, Name: sc.Name(r.Node)})
			continue
		}
		r.Node = to
		out.Add(r)
	}
	return out, combine(errs)
}
