package scene

import (
	"cogentcore.org/core/math32"

	"github.com/vanderheijden86/orrery/pkg/debug"
)

// Volume accumulates an axis-aligned bounding box over positions and
// derives the center and radius a camera needs to frame them.
//
// A fresh volume is empty (min at +Inf, max at -Inf). Querying Center or
// Radius before any Add is a caller error: both assert under ORRERY_DEBUG
// and otherwise return the degenerate values. Guard with IsEmpty.
type Volume struct {
	box math32.Box3
}

// NewVolume returns an empty volume.
func NewVolume() Volume {
	return Volume{box: math32.B3Empty()}
}

// Add widens the volume to include p.
func (v *Volume) Add(p math32.Vector3) {
	v.box.ExpandByPoint(p)
}

// AddNodes widens the volume to include every node's position.
func (v *Volume) AddNodes(nodes []*Node) {
	for _, n := range nodes {
		v.box.ExpandByPoint(n.Pos)
	}
}

// IsEmpty reports whether nothing has been added yet.
func (v Volume) IsEmpty() bool {
	return v.box.IsEmpty()
}

// Center returns the box midpoint, used as the view target.
func (v Volume) Center() math32.Vector3 {
	debug.Assert(!v.IsEmpty(), "Center queried on empty volume")
	return v.box.Center()
}

// Radius returns the half-diagonal magnitude of the box, used to choose a
// view distance from Center.
func (v Volume) Radius() float32 {
	debug.Assert(!v.IsEmpty(), "Radius queried on empty volume")
	return v.box.Size().Length() * 0.5
}

// Box exposes the accumulated bounds for renderers that want the raw box.
func (v Volume) Box() math32.Box3 {
	return v.box
}
