package mesh

import "iter"

// EdgesOfVert iterates the disk cycle of v. The mesh must not change during
// iteration.
func (m *Mesh) EdgesOfVert(v VertID) iter.Seq[EdgeID] {
	return func(yield func(EdgeID) bool) {
		vp := m.Vert(v)
		if vp == nil || vp.e.IsNil() {
			return
		}
		e := vp.e
		for {
			next := m.DiskNext(e, v)
			if !yield(e) {
				return
			}
			e = next
			if e == vp.e || e.IsNil() {
				return
			}
		}
	}
}

// LoopsOfEdge iterates the radial cycle of e.
func (m *Mesh) LoopsOfEdge(e EdgeID) iter.Seq[LoopID] {
	return func(yield func(LoopID) bool) {
		ep := m.Edge(e)
		if ep == nil || ep.l.IsNil() {
			return
		}
		l := ep.l
		for {
			next := m.Loop(l).RadialNext
			if !yield(l) {
				return
			}
			l = next
			if l == ep.l || l.IsNil() {
				return
			}
		}
	}
}

// LoopsOfVert iterates every corner at v, once per face.
func (m *Mesh) LoopsOfVert(v VertID) iter.Seq[LoopID] {
	return func(yield func(LoopID) bool) {
		for e := range m.EdgesOfVert(v) {
			for l := range m.LoopsOfEdge(e) {
				if m.Loop(l).V != v {
					continue
				}
				if !yield(l) {
					return
				}
			}
		}
	}
}

// LoopsOfFace iterates the corners of f starting at the first.
func (m *Mesh) LoopsOfFace(f FaceID) iter.Seq[LoopID] {
	return func(yield func(LoopID) bool) {
		fp := m.Face(f)
		if fp == nil {
			return
		}
		l := fp.l
		for i := 0; i < fp.len; i++ {
			next := m.Loop(l).Next
			if !yield(l) {
				return
			}
			l = next
		}
	}
}

// VertLoops collects the corners at v.
func (m *Mesh) VertLoops(v VertID) []LoopID {
	var out []LoopID
	for l := range m.LoopsOfVert(v) {
		out = append(out, l)
	}
	return out
}

// VertFaces collects the faces using v.
func (m *Mesh) VertFaces(v VertID) []FaceID {
	var out []FaceID
	for l := range m.LoopsOfVert(v) {
		out = append(out, m.Loop(l).F)
	}
	return out
}

// VertEdges collects the edges around v.
func (m *Mesh) VertEdges(v VertID) []EdgeID {
	var out []EdgeID
	for e := range m.EdgesOfVert(v) {
		out = append(out, e)
	}
	return out
}

// EdgeLoops collects the radial corners of e.
func (m *Mesh) EdgeLoops(e EdgeID) []LoopID {
	var out []LoopID
	for l := range m.LoopsOfEdge(e) {
		out = append(out, l)
	}
	return out
}

// EdgeFaces collects the faces using e.
func (m *Mesh) EdgeFaces(e EdgeID) []FaceID {
	var out []FaceID
	for l := range m.LoopsOfEdge(e) {
		out = append(out, m.Loop(l).F)
	}
	return out
}

// FaceLoops collects the corners of f.
func (m *Mesh) FaceLoops(f FaceID) []LoopID {
	var out []LoopID
	for l := range m.LoopsOfFace(f) {
		out = append(out, l)
	}
	return out
}

// FaceVerts collects the vertices of f in winding order.
func (m *Mesh) FaceVerts(f FaceID) []VertID {
	var out []VertID
	for l := range m.LoopsOfFace(f) {
		out = append(out, m.Loop(l).V)
	}
	return out
}

// FaceEdges collects the edges of f in winding order.
func (m *Mesh) FaceEdges(f FaceID) []EdgeID {
	var out []EdgeID
	for l := range m.LoopsOfFace(f) {
		out = append(out, m.Loop(l).E)
	}
	return out
}

// FirstEdge returns an edge of v's disk cycle, nil for loose vertices.
func (m *Mesh) FirstEdge(v VertID) EdgeID {
	if vp := m.Vert(v); vp != nil {
		return vp.e
	}
	return EdgeID{}
}

// FirstLoop returns a radial corner of e, nil for wire edges.
func (m *Mesh) FirstLoop(e EdgeID) LoopID {
	if ep := m.Edge(e); ep != nil {
		return ep.l
	}
	return LoopID{}
}

// OtherVert returns the endpoint of e that is not v.
func (m *Mesh) OtherVert(e EdgeID, v VertID) VertID {
	ep := m.Edge(e)
	if ep.V1 == v {
		return ep.V2
	}
	return ep.V1
}

// FindEdge returns the edge joining a and b, or the nil handle.
func (m *Mesh) FindEdge(a, b VertID) EdgeID {
	for e := range m.EdgesOfVert(a) {
		ep := m.Edge(e)
		if (ep.V1 == a && ep.V2 == b) || (ep.V1 == b && ep.V2 == a) {
			return e
		}
	}
	return EdgeID{}
}

// FindFace returns a face using exactly the given vertices in any order.
func (m *Mesh) FindFace(verts []VertID) FaceID {
	if len(verts) == 0 {
		return FaceID{}
	}
	for l := range m.LoopsOfVert(verts[0]) {
		f := m.Loop(l).F
		if m.Face(f).len != len(verts) {
			continue
		}
		if m.faceUsesAll(f, verts) {
			return f
		}
	}
	return FaceID{}
}

func (m *Mesh) faceUsesAll(f FaceID, verts []VertID) bool {
	for _, v := range verts {
		if m.FaceLoopOfVert(f, v).IsNil() {
			return false
		}
	}
	return true
}

// FaceLoopOfVert returns the corner of f at v, or the nil handle.
func (m *Mesh) FaceLoopOfVert(f FaceID, v VertID) LoopID {
	for l := range m.LoopsOfFace(f) {
		if m.Loop(l).V == v {
			return l
		}
	}
	return LoopID{}
}

// Valence returns the number of edges around v.
func (m *Mesh) Valence(v VertID) int {
	n := 0
	for range m.EdgesOfVert(v) {
		n++
	}
	return n
}

// EdgeFaceCount returns the radial cycle length of e.
func (m *Mesh) EdgeFaceCount(e EdgeID) int {
	n := 0
	for range m.LoopsOfEdge(e) {
		n++
	}
	return n
}

// EdgeIsBoundary reports whether e has exactly one face.
func (m *Mesh) EdgeIsBoundary(e EdgeID) bool {
	ep := m.Edge(e)
	if ep == nil || ep.l.IsNil() {
		return false
	}
	return m.Loop(ep.l).RadialNext == ep.l
}

// EdgeIsManifold reports whether e has exactly two faces.
func (m *Mesh) EdgeIsManifold(e EdgeID) bool {
	ep := m.Edge(e)
	if ep == nil || ep.l.IsNil() {
		return false
	}
	next := m.Loop(ep.l).RadialNext
	return next != ep.l && m.Loop(next).RadialNext == ep.l
}

// EdgeIsWire reports whether e has no faces.
func (m *Mesh) EdgeIsWire(e EdgeID) bool {
	ep := m.Edge(e)
	return ep != nil && ep.l.IsNil()
}

// VertIsBoundary reports whether any edge of v is a boundary or wire edge.
func (m *Mesh) VertIsBoundary(v VertID) bool {
	for e := range m.EdgesOfVert(v) {
		if !m.EdgeIsManifold(e) {
			return true
		}
	}
	return false
}

// EdgeLenSq returns the squared length of e.
func (m *Mesh) EdgeLenSq(e EdgeID) float64 {
	ep := m.Edge(e)
	a := m.Vert(ep.V1).Co
	b := m.Vert(ep.V2).Co
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

// TriVerts returns the three vertices of a triangle.
func (m *Mesh) TriVerts(f FaceID) (a, b, c VertID) {
	l := m.Loop(m.Face(f).l)
	a = l.V
	l = m.Loop(l.Next)
	b = l.V
	c = m.Loop(l.Next).V
	return a, b, c
}
