package scene

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLayers is the number of physics layers the host supports.
const MaxLayers = 32

// Layer errors.
var (
	ErrTooManyLayers = errors.New("physics layer table is full")
	ErrEmptyLayer    = errors.New("physics layer name is empty")
)

// Layers is the host's physics layer table. A layer's index is its
// registration order.
type Layers struct {
	names []string
}

// NewLayers registers names in order.
func NewLayers(names ...string) (*Layers, error) {
	l := &Layers{}
	for _, name := range names {
		if _, err := l.Register(name); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register adds a layer and returns its index. Registering an existing name
// returns the existing index.
func (l *Layers) Register(name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return -1, ErrEmptyLayer
	}
	if i, ok := l.Lookup(name); ok {
		return i, nil
	}
	if len(l.names) >= MaxLayers {
		return -1, fmt.Errorf("%w: cannot add %q", ErrTooManyLayers, name)
	}
	l.names = append(l.names, name)
	return len(l.names) - 1, nil
}

// Lookup returns the index of a registered layer.
func (l *Layers) Lookup(name string) (int, bool) {
	for i, n := range l.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Name returns the layer name at index i.
func (l *Layers) Name(i int) string {
	if i < 0 || i >= len(l.names) {
		return ""
	}
	return l.names[i]
}

// Names returns every registered layer in index order.
func (l *Layers) Names() []string {
	return append([]string(nil), l.names...)
}
