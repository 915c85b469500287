package math

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min r3.Vec
	Max r3.Vec
}

// EmptyBounds returns an inverted box that any Expand call will replace.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewBounds creates a box from two corners, handling swapped axes.
func NewBounds(a, b r3.Vec) Bounds {
	return Bounds{Min: MinElem(a, b), Max: MaxElem(a, b)}
}

// Empty reports whether the box contains no point.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Expand grows the box to include p.
func (b Bounds) Expand(p r3.Vec) Bounds {
	return Bounds{Min: MinElem(b.Min, p), Max: MaxElem(b.Max, p)}
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return Bounds{Min: MinElem(b.Min, o.Min), Max: MaxElem(b.Max, o.Max)}
}

// Intersect returns the overlap of both boxes; the result may be empty.
func (b Bounds) Intersect(o Bounds) Bounds {
	return Bounds{Min: MaxElem(b.Min, o.Min), Max: MinElem(b.Max, o.Max)}
}

// Center returns the center point.
func (b Bounds) Center() r3.Vec {
	return Mid(b.Min, b.Max)
}

// Size returns the extent along each axis.
func (b Bounds) Size() r3.Vec {
	if b.Empty() {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Volume returns the box volume, 0 for empty boxes.
func (b Bounds) Volume() float64 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Contains reports whether p lies inside or on the box.
func (b Bounds) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// LongestAxis returns the axis index of the widest extent.
func (b Bounds) LongestAxis() int {
	s := b.Size()
	if s.X >= s.Y && s.X >= s.Z {
		return 0
	}
	if s.Y >= s.Z {
		return 1
	}
	return 2
}

// DistSq returns the squared distance from p to the box, 0 when inside.
func (b Bounds) DistSq(p r3.Vec) float64 {
	q := MaxElem(b.Min, MinElem(p, b.Max))
	return DistSq(p, q)
}

// TouchesSphere reports whether the sphere intersects the box.
func (b Bounds) TouchesSphere(center r3.Vec, radiusSq float64) bool {
	return b.DistSq(center) <= radiusSq
}
