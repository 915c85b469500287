package dyntopo

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// chain maps a vertex removed during a collapse pass to the vertex that
// replaced it, or to the nil handle when nothing did.
type chain map[mesh.VertID]mesh.VertID

func (c chain) resolve(v mesh.VertID) mesh.VertID {
	for {
		next, ok := c[v]
		if !ok || next.IsNil() {
			if ok {
				return mesh.VertID{}
			}
			return v
		}
		v = next
	}
}

// collapse merges short edges of the flagged leaves, shortest first, and
// returns the number of collapses.
func (e *Engine) collapse(leaves []int, r Region, maxSteps int) int {
	eq := e.shortEdgeQueue(leaves, r)
	steps := e.collapseSteps(eq.stats, maxSteps)
	limitSq := e.minEdgeLen * e.minEdgeLen
	m := e.mesh
	removed := make(chain)

	collapses := 0
	for range steps {
		c, _, ok := eq.q.Pop()
		if !ok {
			break
		}
		v1, v2 := removed.resolve(c.v1), removed.resolve(c.v2)
		if v1.IsNil() || v2.IsNil() || v1 == v2 {
			continue
		}
		if !m.VertAlive(v1) || !m.VertAlive(v2) {
			continue
		}
		edge := m.FindEdge(v1, v2)
		if edge.IsNil() || !m.EdgeIsManifold(edge) || m.EdgeLenSq(edge) >= limitSq {
			continue
		}
		if m.Vert(v1).Leaf == mesh.NoLeaf || m.Vert(v2).Leaf == mesh.NoLeaf {
			continue
		}
		if e.collapseEdge(edge, removed) {
			collapses++
		}
	}
	collapsesTotal.Add(float64(collapses))
	return collapses
}

func (e *Engine) seamEdges(v mesh.VertID) int {
	n := 0
	for edge := range e.mesh.EdgesOfVert(v) {
		if e.mesh.Edge(edge).Flag&mesh.FlagSeam != 0 {
			n++
		}
	}
	return n
}

// collapseEdge merges the endpoints of a manifold edge. The surviving vertex
// takes over every face of the removed one and moves to the edge midpoint
// unless it is a corner. It reports whether the edge was collapsed.
func (e *Engine) collapseEdge(edge mesh.EdgeID, removed chain) bool {
	m, t := e.mesh, e.tree
	ep := m.Edge(edge)
	v1, v2 := ep.V1, ep.V2

	b1, b2 := e.isBoundary(v1), e.isBoundary(v2)
	var vdel, vconn mesh.VertID
	switch {
	case b1 && !b2:
		vconn, vdel = v1, v2
	case b2 && !b1:
		vconn, vdel = v2, v1
	case e.maskOf(v1) < e.maskOf(v2):
		vconn, vdel = v2, v1
	default:
		vconn, vdel = v1, v2
	}
	snap := e.mesh.EnsureBoundary(vconn, e.faceSetOffset)&mesh.SculptCorner == 0

	if ep.Flag&mesh.FlagSeam != 0 && (e.seamEdges(v1) < 2 || e.seamEdges(v2) < 2) {
		return false
	}

	adjacent := m.EdgeFaces(edge)
	e.averageCorners(adjacent, v1, v2)
	if snap {
		e.hist.VertBeforeModify(vconn, e.maskOffset, e.opts.TrackColor)
		m.VData.Interpolate([]attr.Block{m.Vert(vconn).Data, m.Vert(vdel).Data}, half, m.Vert(vconn).Data)
	}

	var adjEdges []mesh.EdgeID
	var adjVerts []mesh.VertID
	for _, f := range adjacent {
		adjEdges = append(adjEdges, m.FaceEdges(f)...)
		adjVerts = append(adjVerts, m.FaceVerts(f)...)
	}

	t.RemoveVert(vdel)

	// the side edge at vdel of each adjacent face folds onto the one at vconn
	for _, f := range adjacent {
		for _, fe := range m.FaceEdges(f) {
			if fe == edge {
				continue
			}
			fp := m.Edge(fe)
			if fp.V1 != vdel && fp.V2 != vdel {
				continue
			}
			opp := m.OtherVert(fe, vdel)
			if keep := m.FindEdge(vconn, opp); !keep.IsNil() {
				e.mergeEdgeData(keep, fe)
			}
		}
	}
	for _, f := range adjacent {
		t.RemoveFace(f)
		m.KillFace(f)
	}
	m.KillEdge(edge)

	deleted := m.VertFaces(vdel)
	for _, f := range deleted {
		l := m.FaceLoopOfVert(f, vdel)
		lp := m.Loop(l)
		next, prev := m.Loop(lp.Next), m.Loop(lp.Prev)
		tri := [3]mesh.VertID{vconn, next.V, prev.V}

		nextEdge, prevEdge := lp.E, prev.E
		hadNext := !m.FindEdge(vconn, next.V).IsNil()
		hadPrev := !m.FindEdge(vconn, prev.V).IsNil()
		if existing := m.FindFace(tri[:]); !existing.IsNil() {
			// both the old face and its twin would form a flap
			deleted = append(deleted, existing)
			degenerateTotal.Inc()
		} else {
			ni := int(m.Face(f).Leaf)
			nf, err := t.CreateFace(ni, tri, f, []attr.Block{lp.Data, next.Data, prev.Data})
			if err != nil {
				degenerateTotal.Inc()
				e.logger.Debug("collapse face rejected", zap.Stringer("face", f), zap.Error(err))
			} else {
				for _, v := range m.FaceVerts(nf) {
					t.AttachVert(ni, v)
				}
			}
		}
		e.foldEdge(vconn, next.V, nextEdge, hadNext)
		e.foldEdge(vconn, prev.V, prevEdge, hadPrev)
	}

	for _, f := range deleted {
		if !m.FaceAlive(f) {
			continue
		}
		edges := m.FaceEdges(f)
		verts := m.FaceVerts(f)
		t.RemoveFace(f)
		m.KillFace(f)
		vconn = e.killLoose(edges, verts, vdel, vconn, removed)
	}
	vconn = e.killLoose(adjEdges, adjVerts, vdel, vconn, removed)

	if vp := m.Vert(vconn); vp != nil {
		if snap {
			vp.Co = smath.Mid(vp.Co, m.Vert(vdel).Co)
			vp.No = smath.Normalize(r3.Add(vp.No, m.Vert(vdel).No))
		}
		t.VertMoved(vconn)
		m.Invalidate(vconn)
		for ce := range m.EdgesOfVert(vconn) {
			m.Invalidate(m.OtherVert(ce, vconn))
		}
	}

	e.hist.VertRemoved(vdel, e.maskOffset)
	removed[vdel] = vconn
	m.KillVert(vdel)
	return true
}

// killLoose kills wire edges and faceless vertices left by a face removal.
// It returns vconn, or the nil handle when vconn itself was removed.
func (e *Engine) killLoose(edges []mesh.EdgeID, verts []mesh.VertID, vdel, vconn mesh.VertID, removed chain) mesh.VertID {
	m, t := e.mesh, e.tree
	for _, edge := range edges {
		if m.EdgeIsWire(edge) {
			m.KillEdge(edge)
		}
	}
	for _, v := range verts {
		if v == vdel || !m.VertAlive(v) || m.Valence(v) > 0 {
			continue
		}
		t.RemoveVert(v)
		e.hist.VertRemoved(v, e.maskOffset)
		removed[v] = mesh.VertID{}
		if v == vconn {
			vconn = mesh.VertID{}
		}
		m.KillVert(v)
	}
	return vconn
}

// foldEdge carries the data of src, an edge of the removed vertex, over to
// the edge between vconn and other. A freshly created edge takes a copy.
func (e *Engine) foldEdge(vconn, other mesh.VertID, src mesh.EdgeID, existed bool) {
	m := e.mesh
	dst := m.FindEdge(vconn, other)
	sp := m.Edge(src)
	if dst.IsNil() || sp == nil {
		return
	}
	if existed {
		e.mergeEdgeData(dst, src)
		return
	}
	dp := m.Edge(dst)
	dp.Flag = sp.Flag &^ mesh.FlagTag
	m.EData.Copy(sp.Data, dp.Data)
}

// mergeEdgeData folds the flags and attributes of src into dst.
func (e *Engine) mergeEdgeData(dst, src mesh.EdgeID) {
	m := e.mesh
	dp, sp := m.Edge(dst), m.Edge(src)
	if dp == nil || sp == nil || dst == src {
		return
	}
	dp.Flag |= sp.Flag &^ mesh.FlagTag
	m.EData.Interpolate([]attr.Block{dp.Data, sp.Data}, half, dp.Data)
}

// averageCorners blends the corners at v1 and v2 of the faces along the
// edge with equal weights and writes the result to every corner of v1 and v2.
func (e *Engine) averageCorners(faces []mesh.FaceID, v1, v2 mesh.VertID) {
	m := e.mesh
	if m.LData.BlockSize() == 0 {
		return
	}
	var corners []attr.Block
	for _, f := range faces {
		for l := range m.LoopsOfFace(f) {
			if lp := m.Loop(l); lp.V == v1 || lp.V == v2 {
				corners = append(corners, lp.Data)
			}
		}
	}
	if len(corners) < 2 {
		return
	}
	weights := make([]float64, len(corners))
	for i := range weights {
		weights[i] = 1 / float64(len(corners))
	}
	avg := m.LData.Alloc()
	m.LData.Interpolate(corners, weights, avg)
	for _, v := range [2]mesh.VertID{v1, v2} {
		for _, l := range m.VertLoops(v) {
			m.LData.Copy(avg, m.Loop(l).Data)
		}
	}
	m.LData.Free(avg)
}
