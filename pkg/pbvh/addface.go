package pbvh

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// AddFace inserts an existing mesh face into the tree and returns its leaf.
// The leaf of a radially adjacent face is preferred. Otherwise the face
// descends from the root into the child whose box contains its centroid,
// and when no box does, it goes to the leaf whose box center is nearest to
// the centroid. Insertion is not logged.
func (t *Tree) AddFace(f mesh.FaceID) (int, error) {
	m := t.mesh
	fp := m.Face(f)
	if fp == nil {
		return -1, mesh.ErrInvalidHandle
	}
	if fp.Leaf != mesh.NoLeaf {
		if n := t.leaf(fp.Leaf); n != nil && n.Faces.Has(f) {
			return int(fp.Leaf), nil
		}
	}

	idx := t.neighborLeaf(f)
	if idx < 0 {
		idx = t.descendFrom(0, m.FaceCentroid(f))
	}
	if idx < 0 {
		var err error
		if idx, err = t.nearestLeaf(m.FaceCentroid(f)); err != nil {
			return -1, err
		}
	}
	t.insertFace(idx, f)
	return idx, nil
}

func (t *Tree) neighborLeaf(f mesh.FaceID) int {
	m := t.mesh
	for l := range m.LoopsOfFace(f) {
		for rl := range m.LoopsOfEdge(m.Loop(l).E) {
			if rl == l {
				continue
			}
			if n := t.leaf(m.Face(m.Loop(rl).F).Leaf); n != nil && n.IsLeaf() && n.Flag&FlagDelete == 0 {
				return int(m.Face(m.Loop(rl).F).Leaf)
			}
		}
	}
	return -1
}

// descendFrom walks from node start into children containing p and returns
// the reached leaf or -1.
func (t *Tree) descendFrom(start int, p r3.Vec) int {
	if start >= len(t.nodes) {
		return -1
	}
	i := start
	for {
		n := t.nodes[i]
		if n.IsLeaf() {
			if n.Faces.Len() == 0 || n.Bounds.Contains(p) {
				return i
			}
			return -1
		}
		next := -1
		for _, c := range []int{n.Children, n.Children + 1} {
			cn := t.nodes[c]
			if cn.Flag&FlagDelete == 0 && cn.Bounds.Contains(p) {
				next = c
				break
			}
		}
		if next < 0 {
			return -1
		}
		i = next
	}
}

func (t *Tree) insertFace(idx int, f mesh.FaceID) {
	m := t.mesh
	n := t.nodes[idx]
	fp := m.Face(f)
	n.Faces.Add(f)
	fp.Leaf = int32(idx)

	b := m.FaceBounds(f)
	for l := range m.LoopsOfFace(f) {
		t.AttachVert(idx, m.Loop(l).V)
	}
	n.Flag |= FlagUpdateDrawBuffers | FlagUpdateNormals | FlagTopologyUpdated | FlagUpdateTris | FlagUpdateBB
	if fp.Flag&mesh.FlagHidden == 0 {
		n.Flag &^= FlagFullyHidden
	}

	for i := idx; i >= 0; i = t.nodes[i].Parent {
		t.nodes[i].Bounds = t.nodes[i].Bounds.Union(b)
	}
}

// leafCenter is a live leaf keyed by the center of its box.
type leafCenter struct {
	c    r3.Vec
	leaf int
}

func (p leafCenter) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(leafCenter)
	return smath.Axis(p.c, int(d)) - smath.Axis(q.c, int(d))
}

func (leafCenter) Dims() int { return 3 }

func (p leafCenter) Distance(c kdtree.Comparable) float64 {
	return smath.DistSq(p.c, c.(leafCenter).c)
}

type leafCenters []leafCenter

func (p leafCenters) Index(i int) kdtree.Comparable { return p[i] }

func (p leafCenters) Len() int { return len(p) }

func (p leafCenters) Pivot(d kdtree.Dim) int {
	plane := leafPlane{dim: d, centers: p}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

func (p leafCenters) Slice(start, end int) kdtree.Interface { return p[start:end] }

type leafPlane struct {
	dim     kdtree.Dim
	centers leafCenters
}

func (p leafPlane) Less(i, j int) bool {
	return p.centers[i].Compare(p.centers[j], p.dim) < 0
}

func (p leafPlane) Swap(i, j int) {
	p.centers[i], p.centers[j] = p.centers[j], p.centers[i]
}

func (p leafPlane) Len() int { return len(p.centers) }

func (p leafPlane) Slice(start, end int) kdtree.SortSlicer {
	p.centers = p.centers[start:end]
	return p
}

// nearestLeaf returns the live leaf whose non-empty box center is closest
// to p. Empty leaves are used only when no leaf has a box.
func (t *Tree) nearestLeaf(p r3.Vec) (int, error) {
	var pts leafCenters
	empty := -1
	for _, i := range t.Leaves() {
		n := t.nodes[i]
		if n.Bounds.Empty() {
			if empty < 0 {
				empty = i
			}
			continue
		}
		pts = append(pts, leafCenter{c: n.Bounds.Center(), leaf: i})
	}
	if len(pts) == 0 {
		if empty < 0 {
			return -1, ErrNoLeaf
		}
		return empty, nil
	}
	tree := kdtree.New(pts, false)
	got, _ := tree.Nearest(leafCenter{c: p})
	return got.(leafCenter).leaf, nil
}
