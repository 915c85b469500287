package dyntopo

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// valenceRequeue is the valence above which the opposite vertex of a split
// has its edges queued again.
const valenceRequeue = 8

var half = []float64{0.5, 0.5}

// subdivide splits long edges of the flagged leaves, longest first, and
// returns the number of splits.
func (e *Engine) subdivide(leaves []int, r Region, maxSteps int) int {
	eq := e.longEdgeQueue(leaves, r)
	steps := e.splitSteps(r, eq.stats, maxSteps)
	limitSq := e.maxEdgeLen * e.maxEdgeLen
	m := e.mesh

	splits := 0
	for range steps {
		c, _, ok := eq.q.Pop()
		if !ok {
			break
		}
		if !m.VertAlive(c.v1) || !m.VertAlive(c.v2) {
			continue
		}
		edge := m.FindEdge(c.v1, c.v2)
		if edge.IsNil() || m.EdgeLenSq(edge) <= limitSq {
			continue
		}
		if m.Vert(c.v1).Leaf == mesh.NoLeaf || m.Vert(c.v2).Leaf == mesh.NoLeaf {
			continue
		}

		e.triangulateFan(c.v1)
		e.triangulateFan(c.v2)
		if edge = m.FindEdge(c.v1, c.v2); edge.IsNil() {
			continue
		}

		e.splitEdge(edge, r, eq)
		splits++
	}
	splitsTotal.Add(float64(splits))
	return splits
}

// splitEdge inserts a vertex at the midpoint of edge and replaces every face
// of the edge by two triangles sharing it.
func (e *Engine) splitEdge(edge mesh.EdgeID, r Region, eq *edgeQueue) mesh.VertID {
	m, t := e.mesh, e.tree
	ep := m.Edge(edge)
	v1, v2 := ep.V1, ep.V2
	p1, p2 := m.Vert(v1), m.Vert(v2)
	edgeFlag := ep.Flag &^ mesh.FlagHidden
	edgeData := append(attr.Block(nil), ep.Data...)

	node := int(p1.Leaf)
	co := smath.Mid(p1.Co, p2.Co)
	no := smath.Normalize(r3.Add(p1.No, p2.No))
	vnew := t.CreateVert(node, v1, v2, co, no)
	m.Vert(vnew).Flag = (p1.Flag | p2.Flag) &^ mesh.FlagHidden

	var created []mesh.FaceID
	var opposite []mesh.VertID
	for i, l := range m.EdgeLoops(edge) {
		lp := m.Loop(l)
		f := lp.F
		ni := int(m.Face(f).Leaf)
		next, prev := m.Loop(lp.Next), m.Loop(lp.Prev)
		a, b, opp := lp.V, next.V, prev.V

		if i == 0 && ni != node {
			t.TransferVert(vnew, ni)
			node = ni
		}

		mid := m.LData.Alloc()
		m.LData.Interpolate([]attr.Block{lp.Data, next.Data}, half, mid)

		tris := [2][3]mesh.VertID{{a, vnew, opp}, {vnew, b, opp}}
		corners := [2][]attr.Block{{lp.Data, mid, prev.Data}, {mid, next.Data, prev.Data}}
		for k, tri := range tris {
			nf, err := t.CreateFace(ni, tri, f, corners[k])
			if err != nil {
				degenerateTotal.Inc()
				e.logger.Debug("split face rejected", zap.Stringer("face", f), zap.Error(err))
				continue
			}
			created = append(created, nf)
		}
		m.LData.Free(mid)
		for _, v := range [...]mesh.VertID{a, b, opp, vnew} {
			t.AttachVert(ni, v)
		}
		opposite = append(opposite, opp)

		t.RemoveFace(f)
		m.KillFace(f)
	}

	for _, end := range [2]mesh.VertID{v1, v2} {
		if child := m.FindEdge(end, vnew); !child.IsNil() {
			cp := m.Edge(child)
			cp.Flag = edgeFlag
			m.EData.Copy(edgeData, cp.Data)
		}
	}
	m.KillEdge(edge)

	m.Invalidate(v1)
	m.Invalidate(v2)
	for _, opp := range opposite {
		m.Invalidate(opp)
		if m.Valence(opp) > valenceRequeue {
			for oe := range m.EdgesOfVert(opp) {
				e.requeueLong(eq, oe, r)
			}
		}
	}
	for _, f := range created {
		for _, fe := range m.FaceEdges(f) {
			e.requeueLong(eq, fe, r)
		}
	}
	return vnew
}

func (e *Engine) requeueLong(eq *edgeQueue, edge mesh.EdgeID, r Region) {
	if eq == nil {
		return
	}
	m := e.mesh
	ep := m.Edge(edge)
	if ep == nil || e.edgeHidden(ep) {
		return
	}
	lenSq := m.EdgeLenSq(edge)
	if lenSq <= e.maxEdgeLen*e.maxEdgeLen {
		return
	}
	w := weight(r, ep.V1, ep.V2)
	if w*w <= 0 {
		return
	}
	eq.q.Push(-lenSq*w*w, candidate{e: edge, v1: ep.V1, v2: ep.V2, prio: -lenSq * w * w})
}
