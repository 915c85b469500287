package dyntopo

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/internal/pqueue"
	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
	"github.com/Faultbox/sculptmesh/pkg/pbvh"
)

const (
	// evenEdgeThreshold is the length ratio above which a neighbouring edge
	// is queued along with a long edge.
	evenEdgeThreshold = 1.2
	// evenGenerationScale grows the limit on every recursion level.
	evenGenerationScale = 1.6
	// frontFaceDepth is the recursion depth past which back faces stop the
	// walk.
	frontFaceDepth = 5

	boundaryCollapseScale = 1.5
	nearBoundaryScale     = 1.25
)

type candidate struct {
	e      mesh.EdgeID
	v1, v2 mesh.VertID
	prio   float64
}

// edgeStats accumulates edge lengths seen by a scan.
type edgeStats struct {
	sum      float64
	n        int
	min, max float64
}

func newEdgeStats() edgeStats {
	return edgeStats{min: math.Inf(1), max: math.Inf(-1)}
}

func (s *edgeStats) add(length float64) {
	s.sum += length
	s.n++
	s.min = min(s.min, length)
	s.max = max(s.max, length)
}

func (s *edgeStats) merge(o edgeStats) {
	s.sum += o.sum
	s.n += o.n
	s.min = min(s.min, o.min)
	s.max = max(s.max, o.max)
}

func (s edgeStats) avg() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}

// leafScan is the private buffer of one leaf.
type leafScan struct {
	out     []candidate
	visited map[mesh.EdgeID]struct{}
	stats   edgeStats
}

// edgeQueue is the merged candidate set of a pass.
type edgeQueue struct {
	q     *pqueue.Queue[float64, candidate]
	stats edgeStats
}

// topologyLeaves returns the leaves flagged for a topology update.
func (e *Engine) topologyLeaves() []int {
	var out []int
	for _, i := range e.tree.Leaves() {
		n := e.tree.Node(i)
		if n.Flag&pbvh.FlagUpdateTopology != 0 && n.Flag&pbvh.FlagFullyHidden == 0 {
			out = append(out, i)
		}
	}
	return out
}

// refreshVerts brings the boundary and valence caches of every vertex used
// by the flagged leaves up to date. Scans only read the caches.
func (e *Engine) refreshVerts(leaves []int) {
	for _, i := range leaves {
		n := e.tree.Node(i)
		for _, set := range []*pbvh.Set[mesh.VertID]{n.UniqueVerts, n.OtherVerts} {
			for _, v := range set.Items() {
				e.mesh.EnsureBoundary(v, e.faceSetOffset)
				e.mesh.EnsureValence(v)
			}
		}
	}
}

// scanLeaves runs fn on every leaf, across the pool when there is one, and
// merges the per-leaf buffers into a queue. Edges found by more than one
// leaf are queued once.
func (e *Engine) scanLeaves(leaves []int, fn func(idx int, s *leafScan)) *edgeQueue {
	bufs := make([]leafScan, len(leaves))
	run := func(k int) {
		bufs[k] = leafScan{visited: make(map[mesh.EdgeID]struct{}), stats: newEdgeStats()}
		fn(leaves[k], &bufs[k])
	}
	if e.opts.Pool != nil {
		e.opts.Pool.Range(len(leaves), run)
	} else {
		for k := range leaves {
			run(k)
		}
	}

	all := lo.UniqBy(lo.Flatten(lo.Map(bufs, func(s leafScan, _ int) []candidate { return s.out })),
		func(c candidate) mesh.EdgeID { return c.e })

	eq := &edgeQueue{q: pqueue.New[float64, candidate](len(all)), stats: newEdgeStats()}
	for _, s := range bufs {
		eq.stats.merge(s.stats)
	}
	for _, c := range all {
		eq.q.Push(c.prio, c)
	}
	queueSize.Set(float64(len(all)))
	return eq
}

// faceInRange reports whether triangle f touches the region.
func (e *Engine) faceInRange(f mesh.FaceID, r Region) bool {
	a, b, c := e.mesh.TriVerts(f)
	pa, pb, pc := e.mesh.Vert(a).Co, e.mesh.Vert(b).Co, e.mesh.Vert(c).Co
	rsq := r.Radius * r.Radius
	if r.Projected && r.ViewNormal != nil {
		return smath.CircleTouchesTri(r.Center, rsq, *r.ViewNormal, pa, pb, pc)
	}
	return smath.SphereTouchesTri(r.Center, rsq, pa, pb, pc)
}

func frontFacing(fp *mesh.Face, r Region) bool {
	if !r.FrontFace || r.ViewNormal == nil {
		return true
	}
	return r3.Dot(fp.No, *r.ViewNormal) > 0
}

// scanFaces calls fn on the visible in-range faces of leaf idx.
func (e *Engine) scanFaces(idx int, r Region, fn func(f mesh.FaceID)) {
	for _, f := range e.tree.Node(idx).Faces.Items() {
		fp := e.mesh.Face(f)
		if fp == nil || fp.Flag&mesh.FlagHidden != 0 || fp.Len() != 3 {
			continue
		}
		if !frontFacing(fp, r) || !e.faceInRange(f, r) {
			continue
		}
		fn(f)
	}
}

func (e *Engine) edgeHidden(ep *mesh.Edge) bool {
	return e.mesh.Vert(ep.V1).Flag&mesh.FlagHidden != 0 ||
		e.mesh.Vert(ep.V2).Flag&mesh.FlagHidden != 0
}

// weight returns the topology weight of an edge: the mean mask value of its
// endpoints, or 1 without a mask.
func weight(r Region, v1, v2 mesh.VertID) float64 {
	if r.Mask == nil {
		return 1
	}
	return r.Mask(v1)*0.5 + r.Mask(v2)*0.5
}

// longEdgeQueue collects edges longer than the maximum length. Short
// neighbours of a long edge are queued too when they are comparably long,
// which keeps subdivision even.
func (e *Engine) longEdgeQueue(leaves []int, r Region) *edgeQueue {
	limitSq := e.maxEdgeLen * e.maxEdgeLen
	m := e.mesh

	return e.scanLeaves(leaves, func(idx int, s *leafScan) {
		var walk func(l, end mesh.LoopID, lenSq, limit float64, depth int)
		walk = func(l, end mesh.LoopID, lenSq, limit float64, depth int) {
			lp := m.Loop(l)
			if _, ok := s.visited[lp.E]; ok {
				return
			}
			s.visited[lp.E] = struct{}{}
			ep := m.Edge(lp.E)
			if e.edgeHidden(ep) {
				return
			}
			s.stats.add(math.Sqrt(lenSq))
			if lenSq > limitSq {
				if w := weight(r, ep.V1, ep.V2); w*w > 0 {
					s.out = append(s.out, candidate{e: lp.E, v1: ep.V1, v2: ep.V2, prio: -lenSq * w * w})
				}
			}
			if lp.RadialNext == l {
				return
			}

			cmp := lenSq * evenEdgeThreshold
			limit *= evenGenerationScale
			bound := max(cmp, limit*limit)
			it := l
			for {
				ip := m.Loop(it)
				if depth < frontFaceDepth || frontFacing(m.Face(ip.F), r) {
					for _, adj := range [2]mesh.LoopID{ip.Next, ip.Prev} {
						ap := m.Loop(adj)
						other := m.EdgeLenSq(ap.E)
						if other > bound {
							walk(ap.RadialNext, adj, other, limit, depth+1)
						}
					}
				}
				it = ip.RadialNext
				if it == end {
					break
				}
			}
		}

		e.scanFaces(idx, r, func(f mesh.FaceID) {
			for l := range m.LoopsOfFace(f) {
				lp := m.Loop(l)
				walk(lp.RadialNext, l, m.EdgeLenSq(lp.E), e.maxEdgeLen, 0)
			}
		})
	})
}

// shortEdgeQueue collects manifold edges shorter than the minimum length
// whose endpoints share a boundary class. Short neighbours of an accepted
// edge are followed across its faces.
func (e *Engine) shortEdgeQueue(leaves []int, r Region) *edgeQueue {
	limitSq := e.minEdgeLen * e.minEdgeLen
	m := e.mesh

	return e.scanLeaves(leaves, func(idx int, s *leafScan) {
		var visit func(edge mesh.EdgeID)
		visit = func(edge mesh.EdgeID) {
			if _, ok := s.visited[edge]; ok {
				return
			}
			s.visited[edge] = struct{}{}
			ep := m.Edge(edge)
			if e.edgeHidden(ep) {
				return
			}
			lenSq := m.EdgeLenSq(edge)
			s.stats.add(math.Sqrt(lenSq))
			if lenSq >= limitSq || !m.EdgeIsManifold(edge) {
				return
			}
			s1, s2 := m.Vert(ep.V1).Sculpt.Flag, m.Vert(ep.V2).Sculpt.Flag
			// unrefreshed classification outside the flagged leaves
			if (s1|s2)&mesh.SculptNeedBoundary != 0 {
				return
			}
			f1, f2 := s1&mesh.SculptAnyBoundary, s2&mesh.SculptAnyBoundary
			if f1 != f2 {
				return
			}
			w := weight(r, ep.V1, ep.V2)
			if w <= 0 {
				return
			}
			prio := lenSq
			if ep.Flag&(mesh.FlagSeam|mesh.FlagSharp) != 0 {
				prio *= boundaryCollapseScale
			}
			if f1 != 0 {
				prio *= nearBoundaryScale
			}
			s.out = append(s.out, candidate{e: edge, v1: ep.V1, v2: ep.V2, prio: prio / w})

			for l := range m.LoopsOfEdge(edge) {
				lp := m.Loop(l)
				for _, adj := range [2]mesh.LoopID{lp.Next, lp.Prev} {
					if other := m.Loop(adj).E; m.EdgeLenSq(other) < limitSq {
						visit(other)
					}
				}
			}
		}

		e.scanFaces(idx, r, func(f mesh.FaceID) {
			for l := range m.LoopsOfFace(f) {
				visit(m.Loop(l).E)
			}
		})
	})
}

// splitSteps throttles subdivision by the area of the brush measured in
// target edges.
func (e *Engine) splitSteps(r Region, st edgeStats, override int) int {
	if n := e.stepOverride(override); n > 0 {
		return n
	}
	if math.IsInf(e.maxEdgeLen, 1) || st.n == 0 {
		return 0
	}
	ratio := 1.0
	if avg := st.avg(); avg > 0 {
		ratio = (e.maxEdgeLen*0.5 + st.min*0.5) / avg
	}
	ratio = min(max(ratio, 0.75), 1)
	k := r.Radius / e.maxEdgeLen
	steps := math.Pi * k * k * ratio * 2
	return int(min(steps, MaxIterations))
}

// collapseSteps throttles collapses by how far the average edge is from
// the minimum length.
func (e *Engine) collapseSteps(st edgeStats, override int) int {
	if n := e.stepOverride(override); n > 0 {
		return n
	}
	if st.n == 0 {
		return 0
	}
	ratio := 1.0
	if d := e.minEdgeLen*0.5 + st.max*0.5; d > 0 {
		ratio = st.avg() / d
	}
	ratio = min(max(ratio, 0.25), 5)
	return int(MaxIterations * ratio)
}

func (e *Engine) stepOverride(n int) int {
	if n > 0 {
		return n
	}
	return e.opts.MaxSteps
}
