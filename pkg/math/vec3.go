// Package math provides geometry helpers for triangle meshes built on r3.Vec.
package math

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the tolerance used for degenerate length checks.
const Epsilon = 1e-12

// LenSq returns the squared length of v.
func LenSq(v r3.Vec) float64 {
	return r3.Dot(v, v)
}

// DistSq returns the squared distance between a and b.
func DistSq(a, b r3.Vec) float64 {
	return LenSq(r3.Sub(a, b))
}

// Normalize returns a unit vector, or the zero vector when v has no length.
func Normalize(v r3.Vec) r3.Vec {
	l := r3.Norm(v)
	if l < Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/l, v)
}

// Mid returns the midpoint of a and b.
func Mid(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// Lerp interpolates between a and b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Axis returns component i (0=X, 1=Y, 2=Z).
func Axis(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// SetAxis returns v with component i replaced by x.
func SetAxis(v r3.Vec, i int, x float64) r3.Vec {
	switch i {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
	return v
}

// Mirror flips component i of v.
func Mirror(v r3.Vec, i int) r3.Vec {
	switch i {
	case 0:
		v.X = -v.X
	case 1:
		v.Y = -v.Y
	case 2:
		v.Z = -v.Z
	}
	return v
}

// MinElem returns the element-wise minimum.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem returns the element-wise maximum.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// TriCross returns the unnormalized normal (b-a)x(c-a); its length is twice the area.
func TriCross(a, b, c r3.Vec) r3.Vec {
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

// TriNormal returns the unit normal of triangle abc.
func TriNormal(a, b, c r3.Vec) r3.Vec {
	return Normalize(TriCross(a, b, c))
}

// TriArea returns the area of triangle abc.
func TriArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(TriCross(a, b, c))
}

// TriCentroid returns the centroid of triangle abc.
func TriCentroid(a, b, c r3.Vec) r3.Vec {
	return r3.Scale(1.0/3.0, r3.Add(r3.Add(a, b), c))
}

// ProjectOnPlane removes the component of v along the unit normal n.
func ProjectOnPlane(v, n r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, n), n))
}

// ClosestOnTri returns the point of triangle abc closest to p.
func ClosestOnTri(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return r3.Add(a, r3.Scale(d1/(d1-d3), ab))
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return r3.Add(a, r3.Scale(d2/(d2-d6), ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

// SphereTouchesTri reports whether triangle abc has a point within radius of center.
func SphereTouchesTri(center r3.Vec, radiusSq float64, a, b, c r3.Vec) bool {
	return DistSq(ClosestOnTri(center, a, b, c), center) <= radiusSq
}

// CircleTouchesTri is SphereTouchesTri after projecting everything onto the
// plane orthogonal to the unit view normal.
func CircleTouchesTri(center r3.Vec, radiusSq float64, view r3.Vec, a, b, c r3.Vec) bool {
	pc := ProjectOnPlane(center, view)
	return SphereTouchesTri(pc, radiusSq,
		ProjectOnPlane(a, view), ProjectOnPlane(b, view), ProjectOnPlane(c, view))
}
