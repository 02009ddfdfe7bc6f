// Package level describes a decoded SWBF2 level: the worlds, models, textures
// and entity classes read out of a .lvl archive by the native decoder.
//
// The importer only reads these structures. Dumps of them can be stored as
// YAML or CBOR so that levels can be imported without the decoder present.
package level

import "strings"

// Level is the decoded content of one level archive.
type Level struct {
	Name     string        `yaml:"name"`
	Worlds   []World       `yaml:"worlds"`
	Models   []Model       `yaml:"models"`
	Textures []Texture     `yaml:"textures"`
	Classes  []EntityClass `yaml:"classes"`

	models   map[string]int
	textures map[string]int
	classes  map[string]int
}

// World is a placed set of entity instances plus optional terrain.
type World struct {
	Name      string     `yaml:"name"`
	Instances []Instance `yaml:"instances"`
	Terrain   *Terrain   `yaml:"terrain,omitempty"`
}

// Instance is an entity class placed in a world.
type Instance struct {
	Name     string     `yaml:"name"`
	Class    string     `yaml:"class"`
	Position [3]float32 `yaml:"position"`
	Rotation [4]float32 `yaml:"rotation"` // x, y, z, w
}

// EntityClass is an ODF entity class. Properties are kept in file order.
type EntityClass struct {
	Name       string     `yaml:"name"`
	Base       string     `yaml:"base,omitempty"`
	Label      string     `yaml:"label,omitempty"` // ClassLabel, e.g. "hover", "soldier"
	Properties []Property `yaml:"properties"`
}

// Property is a single key/value line of an entity class.
type Property struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Terrain is a square height field with blended texture layers.
type Terrain struct {
	Name         string    `yaml:"name"`
	GridSize     int       `yaml:"grid_size"`
	GridUnitSize float32   `yaml:"grid_unit_size"`
	HeightScale  float32   `yaml:"height_scale"`
	Heights      []float32 `yaml:"heights"` // GridSize*GridSize, row-major
	Layers       []string  `yaml:"layers"`  // texture names
	Blend        []uint8   `yaml:"blend"`   // GridSize*GridSize*len(Layers), row-major, layer-minor
}

// Texture is a decoded texture in raw 8-bit-per-channel pixels.
type Texture struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"` // "rgba" (default) or "bgra"
	Pixels []byte `yaml:"pixels"`
}

// Model returns the model with the given name. Lookups are case-insensitive,
// matching how the game resolves names.
func (l *Level) Model(name string) (*Model, bool) {
	l.index()
	i, ok := l.models[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &l.Models[i], true
}

// Texture returns the texture with the given name.
func (l *Level) Texture(name string) (*Texture, bool) {
	l.index()
	i, ok := l.textures[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &l.Textures[i], true
}

// Class returns the entity class with the given name.
func (l *Level) Class(name string) (*EntityClass, bool) {
	l.index()
	i, ok := l.classes[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &l.Classes[i], true
}

// Property looks up key on the class and then along its base-class chain.
// The first definition found wins.
func (l *Level) Property(class *EntityClass, key string) (string, bool) {
	visited := make(map[string]bool)
	for c := class; c != nil; {
		name := strings.ToLower(c.Name)
		if visited[name] {
			break
		}
		visited[name] = true

		for _, p := range c.Properties {
			if strings.EqualFold(p.Key, key) {
				return p.Value, true
			}
		}

		if c.Base == "" {
			break
		}
		base, ok := l.Class(c.Base)
		if !ok {
			break
		}
		c = base
	}
	return "", false
}

// Properties returns every value of key on the class and its base classes,
// derived class first. ODF keys such as SoldierCollision may repeat.
func (l *Level) Properties(class *EntityClass, key string) []string {
	var out []string
	visited := make(map[string]bool)
	for c := class; c != nil; {
		name := strings.ToLower(c.Name)
		if visited[name] {
			break
		}
		visited[name] = true

		for _, p := range c.Properties {
			if strings.EqualFold(p.Key, key) {
				out = append(out, p.Value)
			}
		}

		if c.Base == "" {
			break
		}
		base, ok := l.Class(c.Base)
		if !ok {
			break
		}
		c = base
	}
	return out
}

// ClassLabel returns the class label, inheriting it from base classes when
// the class itself has none.
func (l *Level) ClassLabel(class *EntityClass) string {
	visited := make(map[string]bool)
	for c := class; c != nil; {
		if c.Label != "" {
			return c.Label
		}
		name := strings.ToLower(c.Name)
		if visited[name] || c.Base == "" {
			break
		}
		visited[name] = true
		base, ok := l.Class(c.Base)
		if !ok {
			break
		}
		c = base
	}
	return ""
}

// Reindex rebuilds the name lookup tables. Call it after modifying the
// Models, Textures or Classes slices of a level that was already queried.
func (l *Level) Reindex() {
	l.models = nil
	l.textures = nil
	l.classes = nil
	l.index()
}

func (l *Level) index() {
	if l.models != nil {
		return
	}
	l.models = make(map[string]int, len(l.Models))
	for i := range l.Models {
		l.models[strings.ToLower(l.Models[i].Name)] = i
	}
	l.textures = make(map[string]int, len(l.Textures))
	for i := range l.Textures {
		l.textures[strings.ToLower(l.Textures[i].Name)] = i
	}
	l.classes = make(map[string]int, len(l.Classes))
	for i := range l.Classes {
		l.classes[strings.ToLower(l.Classes[i].Name)] = i
	}
}
