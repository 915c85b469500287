package dyntopo

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

const cleanupRadiusScale = 1.25

// cleanupValence34 dissolves interior vertices of valence 3 and 4 in the
// flagged leaves and fills the hole with one or two triangles. It returns
// the number of dissolved vertices.
func (e *Engine) cleanupValence34(leaves []int, r Region) int {
	m := e.mesh
	radius := r.Radius * cleanupRadiusScale
	radiusSq := radius * radius

	var cands []mesh.VertID
	for _, i := range leaves {
		for _, v := range e.tree.Node(i).UniqueVerts.Items() {
			vp := m.Vert(v)
			if vp.Flag&mesh.FlagHidden != 0 || smath.DistSq(vp.Co, r.Center) > radiusSq {
				continue
			}
			if val := m.Valence(v); val != 3 && val != 4 {
				continue
			}
			if e.isBoundary(v) {
				continue
			}
			if r.Mask != nil && r.Mask(v) <= 0 {
				continue
			}
			cands = append(cands, v)
		}
	}
	e.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	dissolved := 0
	for _, v := range cands {
		if !m.VertAlive(v) || m.Vert(v).Leaf == mesh.NoLeaf {
			continue
		}
		val := m.Valence(v)
		if val != 3 && val != 4 {
			continue
		}
		if e.isBoundary(v) {
			continue
		}
		if e.dissolveVert(v, val) {
			dissolved++
		}
	}
	cleanupsTotal.Add(float64(dissolved))
	return dissolved
}

// fan is the closed ring of triangles around a vertex.
type fan struct {
	faces   []mesh.FaceID
	ring    []mesh.VertID
	corners []attr.Block
}

// walkFan returns the triangles around v in winding order with the ring of
// outer vertices, or false when they do not form a closed manifold fan of
// exactly val triangles.
func (e *Engine) walkFan(v mesh.VertID, val int) (fan, bool) {
	m := e.mesh
	for edge := range m.EdgesOfVert(v) {
		if !m.EdgeIsManifold(edge) {
			return fan{}, false
		}
	}
	faces := m.VertFaces(v)
	if len(faces) != val {
		return fan{}, false
	}

	out := fan{
		faces:   make([]mesh.FaceID, 0, val),
		ring:    make([]mesh.VertID, 0, val),
		corners: make([]attr.Block, 0, val),
	}
	cur := faces[0]
	for range val {
		fp := m.Face(cur)
		if fp.Len() != 3 {
			return fan{}, false
		}
		l := m.FaceLoopOfVert(cur, v)
		lp := m.Loop(l)
		next, prev := m.Loop(lp.Next), m.Loop(lp.Prev)
		out.faces = append(out.faces, cur)
		out.ring = append(out.ring, next.V)
		out.corners = append(out.corners, append(attr.Block(nil), next.Data...))
		cur = m.Loop(prev.RadialNext).F
	}
	if cur != faces[0] {
		return fan{}, false
	}
	for i, a := range out.ring {
		for _, b := range out.ring[i+1:] {
			if a == b {
				return fan{}, false
			}
		}
	}
	return out, true
}

// dissolveVert replaces the fan around v by a triangle (valence 3) or two
// triangles along the flatter diagonal (valence 4).
func (e *Engine) dissolveVert(v mesh.VertID, val int) bool {
	m, t := e.mesh, e.tree
	fn, ok := e.walkFan(v, val)
	if !ok {
		return false
	}

	ring, corners := fn.ring, fn.corners
	if val == 4 {
		co := func(i int) r3.Vec { return m.Vert(ring[i]).Co }
		th1 := r3.Dot(smath.TriNormal(co(0), co(1), co(2)), smath.TriNormal(co(0), co(2), co(3)))
		th2 := r3.Dot(smath.TriNormal(co(1), co(2), co(3)), smath.TriNormal(co(1), co(3), co(0)))
		if th1 < th2 {
			ring = append(ring[1:], ring[0])
			corners = append(corners[1:], corners[0])
		}
	}

	tris := [][3]int{{0, 1, 2}}
	if val == 4 {
		tris = append(tris, [3]int{0, 2, 3})
	}

	example := fn.faces[0]
	ni := int(m.Face(example).Leaf)
	for _, tri := range tris {
		verts := [3]mesh.VertID{ring[tri[0]], ring[tri[1]], ring[tri[2]]}
		if !m.FindFace(verts[:]).IsNil() {
			degenerateTotal.Inc()
			continue
		}
		f, err := t.CreateFace(ni, verts, example, []attr.Block{corners[tri[0]], corners[tri[1]], corners[tri[2]]})
		if err != nil {
			degenerateTotal.Inc()
			continue
		}
		for _, u := range verts {
			t.AttachVert(ni, u)
		}
		m.UpdateFaceNormal(f)
	}

	for _, f := range fn.faces {
		t.RemoveFace(f)
		m.KillFace(f)
	}
	t.RemoveVert(v)
	e.hist.VertRemoved(v, e.maskOffset)
	m.KillVert(v)

	for _, u := range fn.ring {
		m.Invalidate(u)
		t.VertMoved(u)
	}
	return true
}
