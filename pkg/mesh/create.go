package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// AddVert creates a vertex at co. When example is live its attributes,
// normal and flags are copied.
func (m *Mesh) AddVert(co r3.Vec, example VertID) VertID {
	idx, gen, vp := m.verts.alloc()
	vp.Co = co
	vp.Leaf = NoLeaf
	vp.Data = m.VData.Alloc()
	vp.Sculpt.Flag = SculptNeedBoundary | SculptNeedValence
	if ex := m.Vert(example); ex != nil {
		m.VData.Copy(ex.Data, vp.Data)
		vp.No = ex.No
		vp.Flag = ex.Flag &^ FlagTag
	}
	return VertID{idx, gen}
}

// AddEdge connects a and b. With noDouble an existing edge is returned.
// It returns the nil handle when a == b or either vertex is stale.
func (m *Mesh) AddEdge(a, b VertID, example EdgeID, noDouble bool) EdgeID {
	if a == b || m.Vert(a) == nil || m.Vert(b) == nil {
		return EdgeID{}
	}
	if noDouble {
		if e := m.FindEdge(a, b); !e.IsNil() {
			return e
		}
	}
	idx, gen, ep := m.edges.alloc()
	ep.V1, ep.V2 = a, b
	ep.Data = m.EData.Alloc()
	if ex := m.Edge(example); ex != nil {
		m.EData.Copy(ex.Data, ep.Data)
		ep.Flag = ex.Flag &^ FlagTag
	}
	e := EdgeID{idx, gen}
	m.diskAppend(e, a)
	m.diskAppend(e, b)
	return e
}

// AddFace creates a face over verts, creating missing edges.
// When example is live its attributes, material and flags are copied.
// Corner data starts at layer defaults.
func (m *Mesh) AddFace(verts []VertID, example FaceID, noDouble bool) (FaceID, error) {
	n := len(verts)
	if n < 3 {
		return FaceID{}, fmt.Errorf("face with %d corners: %w", n, ErrDegenerateFace)
	}
	for i, v := range verts {
		if m.Vert(v) == nil {
			return FaceID{}, fmt.Errorf("corner %d (%v): %w", i, v, ErrInvalidHandle)
		}
		for _, w := range verts[i+1:] {
			if v == w {
				return FaceID{}, fmt.Errorf("repeated vertex %v: %w", v, ErrDegenerateFace)
			}
		}
	}
	if noDouble {
		if f := m.FindFace(verts); !f.IsNil() {
			return f, ErrFaceExists
		}
	}

	edges := make([]EdgeID, n)
	for i := range verts {
		edges[i] = m.AddEdge(verts[i], verts[(i+1)%n], EdgeID{}, true)
	}

	fidx, fgen, fp := m.faces.alloc()
	f := FaceID{fidx, fgen}
	fp.Leaf = NoLeaf
	fp.Data = m.FData.Alloc()
	fp.len = n
	if ex := m.Face(example); ex != nil {
		m.FData.Copy(ex.Data, fp.Data)
		fp.Mat = ex.Mat
		fp.Flag = ex.Flag &^ FlagTag
	}

	loops := make([]LoopID, n)
	for i, v := range verts {
		lidx, lgen, lp := m.loops.alloc()
		lp.V = v
		lp.E = edges[i]
		lp.F = f
		lp.Data = m.LData.Alloc()
		loops[i] = LoopID{lidx, lgen}
	}
	for i, l := range loops {
		lp := m.Loop(l)
		lp.Next = loops[(i+1)%n]
		lp.Prev = loops[(i+n-1)%n]
		m.radialAppend(edges[i], l)
	}
	fp.l = loops[0]
	m.UpdateFaceNormal(f)
	return f, nil
}
