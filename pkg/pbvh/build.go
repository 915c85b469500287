package pbvh

import (
	"errors"

	"go.uber.org/zap"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// buildRange is a contiguous run of the build arrays assigned to one node.
type buildRange struct {
	start, count   int
	child1, child2 *buildRange
}

// Build creates a tree over every face of m. A nil log discards events.
func Build(m *mesh.Mesh, log Log, opts Options) *Tree {
	opts = opts.withDefaults()
	if log == nil {
		log = NopLog{}
	}
	t := &Tree{
		mesh:   m,
		log:    log,
		opts:   opts,
		logger: opts.Logger,
	}
	t.Rebuild()
	return t
}

// Rebuild discards every node and rebuilds the tree from the current mesh.
func (t *Tree) Rebuild() {
	m := t.mesh
	t.maskOffset = maskOffsetOf(m)

	faces := make([]mesh.FaceID, 0, m.NumFaces())
	bounds := make([]smath.Bounds, 0, m.NumFaces())
	for f := range m.Faces() {
		faces = append(faces, f)
		bounds = append(bounds, m.FaceBounds(f))
		m.Face(f).Leaf = mesh.NoLeaf
	}
	for v := range m.Verts() {
		m.Vert(v).Leaf = mesh.NoLeaf
	}

	root := &buildRange{count: len(faces)}
	budget := t.opts.MaxNodes - 1
	t.partitionFast(faces, bounds, root, 0, &budget)

	t.nodes = []*Node{newNode(-1, 0)}
	t.createNodesFast(faces, root, 0)

	nodesGauge.Set(float64(len(t.nodes)))
	t.logger.Info("tree built",
		zap.Int("faces", len(faces)),
		zap.Int("nodes", len(t.nodes)),
		zap.Int("leaf_limit", t.opts.LeafLimit))
}

func boundsMid(b smath.Bounds, axis int) float64 {
	return (smath.Axis(b.Min, axis) + smath.Axis(b.Max, axis)) * 0.5
}

// partitionFast splits the range in place along the widest axis of the face
// centers until every range fits the leaf limit. Faces and their bounds are
// swapped in lockstep.
func (t *Tree) partitionFast(faces []mesh.FaceID, bounds []smath.Bounds, node *buildRange, depth int, budget *int) {
	if node.count <= t.opts.LeafLimit || depth >= t.opts.MaxDepth || *budget < 2 {
		return
	}

	cb := smath.EmptyBounds()
	for i := node.start; i < node.start+node.count; i++ {
		cb = cb.Expand(bounds[i].Center())
	}
	axis := cb.LongestAxis()
	mid := boundsMid(cb, axis)

	end := node.start + node.count
	n1, n2 := 0, 0
	for i := node.start; i < end-n2; i++ {
		if boundsMid(bounds[i], axis) <= mid {
			n1++
			continue
		}
		// find a face from the tail that belongs on the low side
		candidate := -1
		for j := end - n2 - 1; j > i; j-- {
			if boundsMid(bounds[j], axis) <= mid {
				candidate = j
				break
			}
			n2++
		}
		if candidate != -1 {
			faces[i], faces[candidate] = faces[candidate], faces[i]
			bounds[i], bounds[candidate] = bounds[candidate], bounds[i]
			n1++
		}
		n2++
	}

	if n2 == 0 {
		n2++
		n1--
	} else if n1 == 0 {
		n1++
		n2--
	}

	*budget -= 2
	node.child1 = &buildRange{start: node.start, count: n1}
	node.child2 = &buildRange{start: node.start + n1, count: n2}
	t.partitionFast(faces, bounds, node.child1, depth+1, budget)
	t.partitionFast(faces, bounds, node.child2, depth+1, budget)
}

func (t *Tree) createNodesFast(faces []mesh.FaceID, info *buildRange, idx int) {
	n := t.nodes[idx]
	if info.child1 != nil {
		c := len(t.nodes)
		n.Children = c
		t.nodes = append(t.nodes, newNode(idx, n.Depth+1), newNode(idx, n.Depth+1))
		t.createNodesFast(faces, info.child1, c)
		t.createNodesFast(faces, info.child2, c+1)
		n.Bounds = t.nodes[c].Bounds.Union(t.nodes[c+1].Bounds)
		n.OrigBounds = n.Bounds
		return
	}

	n.Flag = FlagLeaf
	for _, f := range faces[info.start : info.start+info.count] {
		n.Faces.Add(f)
	}
	t.finalizeLeaf(idx)
}

// finalizeLeaf stamps the faces of a leaf, claims unowned vertices as
// unique and records the rest as other, then recomputes the bounds.
func (t *Tree) finalizeLeaf(idx int) {
	m := t.mesh
	n := t.nodes[idx]
	leaf := int32(idx)

	b := smath.EmptyBounds()
	visible := false
	for _, f := range n.Faces.Items() {
		fp := m.Face(f)
		fp.Leaf = leaf
		for l := range m.LoopsOfFace(f) {
			v := m.Loop(l).V
			vp := m.Vert(v)
			switch vp.Leaf {
			case mesh.NoLeaf:
				n.UniqueVerts.Add(v)
				vp.Leaf = leaf
			case leaf:
			default:
				n.OtherVerts.Add(v)
			}
			b = b.Expand(vp.Co)
		}
		if fp.Flag&mesh.FlagHidden == 0 {
			visible = true
		}
	}

	n.Bounds = b
	n.OrigBounds = b
	n.MarkRebuild()
	n.setFullyHidden(!visible)
	n.Flag |= FlagUpdateNormals
}

func (n *Node) setFullyHidden(hidden bool) {
	if hidden {
		n.Flag |= FlagFullyHidden
	} else {
		n.Flag &^= FlagFullyHidden
	}
}

// EnsureLeafLimit splits leaf idx recursively while it holds more faces than
// the leaf limit. It reports whether a split happened. ErrTooManyNodes means
// the node array is full and some leaves stay oversized.
func (t *Tree) EnsureLeafLimit(idx int) (bool, error) {
	n := t.nodes[idx]
	if !n.IsLeaf() || n.Faces.Len() <= t.opts.LeafLimit || n.Depth >= t.opts.MaxDepth {
		return false, nil
	}
	if len(t.nodes)+2 > t.opts.MaxNodes {
		return false, ErrTooManyNodes
	}

	fb := make(map[mesh.FaceID]smath.Bounds, n.Faces.Len())
	for _, f := range n.Faces.Items() {
		fb[f] = t.mesh.FaceBounds(f)
	}
	err := t.split(idx, fb)
	return true, err
}

func (t *Tree) split(idx int, fb map[mesh.FaceID]smath.Bounds) error {
	m := t.mesh
	n := t.nodes[idx]
	if n.Faces.Len() <= t.opts.LeafLimit || n.Depth >= t.opts.MaxDepth {
		t.finalizeLeaf(idx)
		return nil
	}
	if len(t.nodes)+2 > t.opts.MaxNodes {
		t.finalizeLeaf(idx)
		return ErrTooManyNodes
	}

	cb := smath.EmptyBounds()
	for _, f := range n.Faces.Items() {
		cb = cb.Expand(fb[f].Center())
	}
	axis := cb.LongestAxis()
	mid := boundsMid(cb, axis)

	c := len(t.nodes)
	c1, c2 := newNode(idx, n.Depth+1), newNode(idx, n.Depth+1)
	c1.Flag |= FlagLeaf
	c2.Flag |= FlagLeaf
	t.nodes = append(t.nodes, c1, c2)

	for _, f := range n.Faces.Items() {
		if boundsMid(fb[f], axis) < mid {
			c1.Faces.Add(f)
		} else {
			c2.Faces.Add(f)
		}
	}

	// every child holds at least one face
	var empty, other *Set[mesh.FaceID]
	switch {
	case c1.Faces.Len() == 0:
		empty, other = c1.Faces, c2.Faces
	case c2.Faces.Len() == 0:
		empty, other = c2.Faces, c1.Faces
	}
	if empty != nil {
		f := other.Items()[0]
		other.Remove(f)
		empty.Add(f)
	}

	for _, v := range n.UniqueVerts.Items() {
		m.Vert(v).Leaf = mesh.NoLeaf
	}
	for _, f := range n.Faces.Items() {
		m.Face(f).Leaf = mesh.NoLeaf
	}
	n.clearSets()
	n.dropOrig()
	n.Flag &^= FlagLeaf | FlagUpdateTopology | FlagTopologyUpdated | FlagFullyHidden | FlagUpdateTris
	n.Children = c
	leafSplitsTotal.Inc()

	err := errors.Join(t.split(c, fb), t.split(c+1, fb))

	n.Bounds = c1.Bounds.Union(c2.Bounds)
	n.OrigBounds = n.Bounds
	return err
}
