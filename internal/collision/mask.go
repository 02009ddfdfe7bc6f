// Package collision maps SWBF2 collision categories onto host physics layers.
package collision

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Mask is a set of gameplay collision categories.
//
// All is a sentinel meaning "unset / collides with everything". It is its own
// bit and is not the same as a mask with every category bit set.
type Mask uint8

const (
	All Mask = 1 << iota
	Building
	Ordnance
	Soldier
	Terrain
	Vehicle
	Flag
)

// None is the empty mask.
const None Mask = 0

// Every has every bit set, the All sentinel included.
const Every = All | Building | Ordnance | Soldier | Terrain | Vehicle | Flag

// ErrUnknownCategory is returned by ParseMask for unrecognised names.
var ErrUnknownCategory = errors.New("unknown collision category")

var maskNames = []struct {
	bit  Mask
	name string
}{
	{All, "All"},
	{Building, "Building"},
	{Ordnance, "Ordnance"},
	{Soldier, "Soldier"},
	{Terrain, "Terrain"},
	{Vehicle, "Vehicle"},
	{Flag, "Flag"},
}

// ParseMask combines category names (case-insensitive) into a mask.
func ParseMask(names ...string) (Mask, error) {
	var m Mask
	for _, name := range names {
		bit, ok := categoryByName(name)
		if !ok {
			return None, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		m |= bit
	}
	return m, nil
}

func categoryByName(name string) (Mask, bool) {
	for _, n := range maskNames {
		if strings.EqualFold(n.name, strings.TrimSpace(name)) {
			return n.bit, true
		}
	}
	return None, false
}

// Has reports whether every bit of other is set in m.
func (m Mask) Has(other Mask) bool {
	return m&other == other
}

// Intersects reports whether m and other share any bit.
func (m Mask) Intersects(other Mask) bool {
	return m&other != 0
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	return bits.OnesCount8(uint8(m))
}

// Bits returns the set bits as singleton masks in increasing bit value.
func (m Mask) Bits() []Mask {
	out := make([]Mask, 0, m.Count())
	for b := Mask(1); b != 0 && b <= m; b <<= 1 {
		if m&b != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Categories returns the mask without the All sentinel.
func (m Mask) Categories() Mask {
	return m &^ All
}

// String returns the category names joined by "|".
func (m Mask) String() string {
	if m == None {
		return "None"
	}
	var parts []string
	for _, n := range maskNames {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
