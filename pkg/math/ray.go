package math

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec // Normalized direction
}

// NewRay creates a ray, normalizing the direction.
func NewRay(origin, dir r3.Vec) Ray {
	return Ray{Origin: origin, Direction: Normalize(dir)}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// IntersectBounds tests ray intersection with an axis-aligned box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectBounds(box Bounds) (t float64, hit bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := Axis(r.Origin, axis)
		d := Axis(r.Direction, axis)
		lo := Axis(box.Min, axis)
		hi := Axis(box.Max, axis)

		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTri returns the distance along the ray to triangle abc
// (Moller-Trumbore, double sided).
func (r Ray) IntersectTri(a, b, c r3.Vec) (t float64, hit bool) {
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	p := r3.Cross(r.Direction, e2)
	det := r3.Dot(e1, p)
	if math.Abs(det) < Epsilon {
		return 0, false
	}
	inv := 1 / det

	s := r3.Sub(r.Origin, a)
	u := r3.Dot(s, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := r3.Cross(s, e1)
	v := r3.Dot(r.Direction, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = r3.Dot(e2, q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// DistSqToPoint returns the squared distance from p to the ray.
func (r Ray) DistSqToPoint(p r3.Vec) float64 {
	t := r3.Dot(r3.Sub(p, r.Origin), r.Direction)
	if t < 0 {
		t = 0
	}
	return DistSq(r.At(t), p)
}

// DistSqToSegment returns the squared distance between the ray and segment
// ab, and the ray parameter of the closest point.
func (r Ray) DistSqToSegment(a, b r3.Vec) (distSq, t float64) {
	d := r3.Sub(b, a)
	w := r3.Sub(r.Origin, a)
	dd := r3.Dot(d, d)
	if dd < Epsilon {
		t = math.Max(r3.Dot(r3.Sub(a, r.Origin), r.Direction), 0)
		return DistSq(r.At(t), a), t
	}

	rd := r3.Dot(r.Direction, d)
	rw := r3.Dot(r.Direction, w)
	dw := r3.Dot(d, w)
	denom := dd - rd*rd

	var s float64
	if denom > Epsilon {
		s = clamp01((dw - rd*rw) / denom)
	}
	t = math.Max(rd*s-rw, 0)
	s = clamp01((dw + t*rd) / dd)
	return DistSq(r.At(t), r3.Add(a, r3.Scale(s, d))), t
}

func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}
