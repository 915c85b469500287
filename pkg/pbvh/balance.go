package pbvh

import (
	"go.uber.org/zap"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// overlapRatio is the share of the combined sibling volume their boxes may
// overlap before the pair is rebuilt.
const overlapRatio = 0.1

// Balance rebuilds sibling leaf pairs whose boxes overlap too much. The
// faces of both leaves are detached and reinserted by point location
// below their parent, whose box is cut at the widest-axis midpoint of the
// face centers. It returns the number of faces that changed leaf.
func (t *Tree) Balance() int {
	moved := 0
	pairs := 0
	for i, n := range t.nodes {
		if n.IsLeaf() || n.Flag&FlagDelete != 0 || n.Children == 0 {
			continue
		}
		c1, c2 := t.nodes[n.Children], t.nodes[n.Children+1]
		if !c1.IsLeaf() || !c2.IsLeaf() {
			continue
		}
		combined := c1.Bounds.Volume() + c2.Bounds.Volume()
		overlap := c1.Bounds.Intersect(c2.Bounds)
		if combined <= 0 || overlap.Empty() || overlap.Volume() <= overlapRatio*combined {
			continue
		}
		moved += t.rebalancePair(i)
		pairs++
	}

	if pairs > 0 {
		balanceMovesTotal.Add(float64(moved))
		t.logger.Info("tree balanced", zap.Int("pairs", pairs), zap.Int("faces_moved", moved))
	}
	return moved
}

func (t *Tree) rebalancePair(parent int) int {
	m := t.mesh
	p := t.nodes[parent]
	a, b := p.Children, p.Children+1
	prev := make(map[mesh.FaceID]int)

	var faces []mesh.FaceID
	cb := smath.EmptyBounds()
	for _, i := range []int{a, b} {
		n := t.nodes[i]
		for _, f := range n.Faces.Items() {
			prev[f] = i
			faces = append(faces, f)
			cb = cb.Expand(m.FaceCentroid(f))
			m.Face(f).Leaf = mesh.NoLeaf
		}
		for _, v := range n.UniqueVerts.Items() {
			m.Vert(v).Leaf = mesh.NoLeaf
		}
		n.clearSets()
		n.dropOrig()
	}

	axis := cb.LongestAxis()
	mid := boundsMid(cb, axis)
	low, high := p.Bounds, p.Bounds
	low.Max = smath.SetAxis(low.Max, axis, mid)
	high.Min = smath.SetAxis(high.Min, axis, mid)
	t.nodes[a].Bounds = low
	t.nodes[b].Bounds = high

	for _, f := range faces {
		idx := t.descendFrom(parent, m.FaceCentroid(f))
		if idx < 0 {
			idx = a
		}
		t.insertFace(idx, f)
	}

	// every leaf holds at least one face
	for _, pair := range [][2]int{{a, b}, {b, a}} {
		empty, full := t.nodes[pair[0]], t.nodes[pair[1]]
		if empty.Faces.Len() == 0 && full.Faces.Len() > 1 {
			f := full.Faces.Items()[full.Faces.Len()-1]
			t.detachFace(f)
			t.insertFace(pair[0], f)
		}
	}

	for _, i := range []int{a, b} {
		t.refreshLeafBounds(i)
		t.nodes[i].MarkRebuild()
	}

	moved := 0
	for f, i := range prev {
		if int(m.Face(f).Leaf) != i {
			moved++
		}
	}
	return moved
}
