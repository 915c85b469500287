package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
)

// CalcFaceNormal computes the normal of f with Newell's method.
func (m *Mesh) CalcFaceNormal(f FaceID) r3.Vec {
	var n r3.Vec
	for l := range m.LoopsOfFace(f) {
		lp := m.Loop(l)
		a := m.Vert(lp.V).Co
		b := m.Vert(m.Loop(lp.Next).V).Co
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return smath.Normalize(n)
}

// UpdateFaceNormal stores the computed normal on f.
func (m *Mesh) UpdateFaceNormal(f FaceID) {
	if fp := m.Face(f); fp != nil {
		fp.No = m.CalcFaceNormal(f)
	}
}

// UpdateVertNormal sets the normal of v to the normalized sum of its face
// normals. Loose vertices keep their normal.
func (m *Mesh) UpdateVertNormal(v VertID) {
	var sum r3.Vec
	n := 0
	for l := range m.LoopsOfVert(v) {
		sum = r3.Add(sum, m.Face(m.Loop(l).F).No)
		n++
	}
	if n == 0 {
		return
	}
	if no := smath.Normalize(sum); no != (r3.Vec{}) {
		m.Vert(v).No = no
	}
}

// UpdateNormals recomputes every face and vertex normal.
func (m *Mesh) UpdateNormals() {
	for f := range m.Faces() {
		m.UpdateFaceNormal(f)
	}
	for v := range m.Verts() {
		m.UpdateVertNormal(v)
	}
}

// FaceCentroid returns the average of the corner positions of f.
func (m *Mesh) FaceCentroid(f FaceID) r3.Vec {
	var c r3.Vec
	n := 0
	for l := range m.LoopsOfFace(f) {
		c = r3.Add(c, m.Vert(m.Loop(l).V).Co)
		n++
	}
	if n == 0 {
		return c
	}
	return r3.Scale(1/float64(n), c)
}

// FaceBounds returns the bounding box of the corners of f.
func (m *Mesh) FaceBounds(f FaceID) smath.Bounds {
	b := smath.EmptyBounds()
	for l := range m.LoopsOfFace(f) {
		b = b.Expand(m.Vert(m.Loop(l).V).Co)
	}
	return b
}
