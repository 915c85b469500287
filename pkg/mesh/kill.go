package mesh

// KillFace removes f and its corners. Edges and vertices are kept.
func (m *Mesh) KillFace(f FaceID) {
	fp := m.Face(f)
	if fp == nil {
		return
	}
	l := fp.l
	for i := 0; i < fp.len; i++ {
		lp := m.Loop(l)
		next := lp.Next
		m.radialRemove(lp.E, l)
		m.LData.Free(lp.Data)
		m.loops.release(l.idx)
		l = next
	}
	m.FData.Free(fp.Data)
	m.faces.release(f.idx)
}

// KillFaceLoose removes f, then any of its edges left without faces and
// any of its vertices left without edges.
func (m *Mesh) KillFaceLoose(f FaceID) {
	fp := m.Face(f)
	if fp == nil {
		return
	}
	verts := m.FaceVerts(f)
	edges := m.FaceEdges(f)
	m.KillFace(f)
	for _, e := range edges {
		if ep := m.Edge(e); ep != nil && ep.l.IsNil() {
			m.KillEdge(e)
		}
	}
	for _, v := range verts {
		if vp := m.Vert(v); vp != nil && vp.e.IsNil() {
			m.KillVert(v)
		}
	}
}

// KillEdge removes e and every face using it.
func (m *Mesh) KillEdge(e EdgeID) {
	ep := m.Edge(e)
	if ep == nil {
		return
	}
	for !ep.l.IsNil() {
		m.KillFace(m.Loop(ep.l).F)
	}
	m.diskRemove(e, ep.V1)
	m.diskRemove(e, ep.V2)
	m.EData.Free(ep.Data)
	m.edges.release(e.idx)
}

// KillVert removes v with every edge and face using it.
func (m *Mesh) KillVert(v VertID) {
	vp := m.Vert(v)
	if vp == nil {
		return
	}
	for !vp.e.IsNil() {
		m.KillEdge(vp.e)
	}
	m.VData.Free(vp.Data)
	m.verts.release(v.idx)
}
