// Package pbvh implements a bounding volume hierarchy over the faces of a
// dynamic mesh.
//
// Every face belongs to exactly one leaf. Every vertex used by a face is
// owned by exactly one leaf (its unique set) and may additionally appear in
// the other set of any leaf that holds one of its faces. Vertices and faces
// record their owning leaf in their Leaf field so ownership lookups are O(1).
//
// Thread safety: a Tree is not safe for concurrent mutation. Read-only
// traversals may run concurrently as long as nothing mutates the tree.
package pbvh

import (
	"errors"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/internal/parallel"
	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

const (
	// DefaultLeafLimit is the face count above which a leaf splits.
	DefaultLeafLimit = 400
	// DefaultMaxDepth caps recursive splitting.
	DefaultMaxDepth = 48
	// DefaultMaxNodes caps node array growth.
	DefaultMaxNodes = 1 << 20
)

var (
	ErrTooManyNodes = errors.New("pbvh: node limit reached")
	ErrNotLeaf      = errors.New("pbvh: node is not a leaf")
	ErrNoLeaf       = errors.New("pbvh: no leaf available")
)

// Log receives element creation, removal and modification events.
// *bmlog.Log implements it.
type Log interface {
	VertAdded(v mesh.VertID)
	VertRemoved(v mesh.VertID, maskOffset int)
	VertBeforeModify(v mesh.VertID, maskOffset int, trackColor bool)
	FaceAdded(f mesh.FaceID)
	FaceRemoved(f mesh.FaceID)
}

// OrigLookup returns the pre-stroke position of a vertex if one was logged.
type OrigLookup interface {
	OriginalCo(v mesh.VertID) (r3.Vec, bool)
}

// NopLog discards every event.
type NopLog struct{}

func (NopLog) VertAdded(mesh.VertID)                   {}
func (NopLog) VertRemoved(mesh.VertID, int)            {}
func (NopLog) VertBeforeModify(mesh.VertID, int, bool) {}
func (NopLog) FaceAdded(mesh.FaceID)                   {}
func (NopLog) FaceRemoved(mesh.FaceID)                 {}

// Options configures a Tree.
type Options struct {
	LeafLimit int
	MaxDepth  int
	MaxNodes  int
	Logger    *zap.Logger
	// Pool runs normal updates. Nil updates on the calling goroutine.
	Pool *parallel.Pool
}

func (o Options) withDefaults() Options {
	if o.LeafLimit <= 0 {
		o.LeafLimit = DefaultLeafLimit
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Tree is a face BVH over a mesh.
type Tree struct {
	mesh       *mesh.Mesh
	log        Log
	opts       Options
	logger     *zap.Logger
	nodes      []*Node
	maskOffset int
}

// Mesh returns the indexed mesh.
func (t *Tree) Mesh() *mesh.Mesh { return t.mesh }

// Log returns the event sink.
func (t *Tree) Log() Log { return t.log }

// SetLog replaces the event sink.
func (t *Tree) SetLog(l Log) {
	if l == nil {
		l = NopLog{}
	}
	t.log = l
}

// Options returns the effective options.
func (t *Tree) Options() Options { return t.opts }

// LeafLimit returns the face count above which a leaf splits.
func (t *Tree) LeafLimit() int { return t.opts.LeafLimit }

// MaskOffset returns the vertex mask layer offset, or -1.
func (t *Tree) MaskOffset() int { return t.maskOffset }

// Len returns the number of nodes, including nodes flagged for deletion.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns node i.
func (t *Tree) Node(i int) *Node { return t.nodes[i] }

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[0] }

// Leaves returns the indices of every live leaf.
func (t *Tree) Leaves() []int {
	out := make([]int, 0, len(t.nodes)/2+1)
	for i, n := range t.nodes {
		if n.IsLeaf() && n.Flag&FlagDelete == 0 {
			out = append(out, i)
		}
	}
	return out
}

// LeafOfVert returns the owning leaf of v or -1.
func (t *Tree) LeafOfVert(v mesh.VertID) int {
	vp := t.mesh.Vert(v)
	if vp == nil {
		return -1
	}
	return int(vp.Leaf)
}

// LeafOfFace returns the owning leaf of f or -1.
func (t *Tree) LeafOfFace(f mesh.FaceID) int {
	fp := t.mesh.Face(f)
	if fp == nil {
		return -1
	}
	return int(fp.Leaf)
}

// SearchLeaves returns the live leaves whose ancestors and themselves all
// satisfy visit. Subtrees failing visit are skipped.
func (t *Tree) SearchLeaves(visit func(n *Node) bool) []int {
	if len(t.nodes) == 0 {
		return nil
	}
	var out []int
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[i]
		if n.Flag&FlagDelete != 0 || !visit(n) {
			continue
		}
		if n.IsLeaf() {
			out = append(out, i)
			continue
		}
		stack = append(stack, n.Children+1, n.Children)
	}
	return out
}

// Stats summarizes the tree shape.
type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
	MaxFaces int
	Faces    int
}

// Stats returns node, leaf and depth counts.
func (t *Tree) Stats() Stats {
	var s Stats
	for _, n := range t.nodes {
		if n.Flag&FlagDelete != 0 {
			continue
		}
		s.Nodes++
		if !n.IsLeaf() {
			continue
		}
		s.Leaves++
		s.Faces += n.Faces.Len()
		s.MaxFaces = max(s.MaxFaces, n.Faces.Len())
		s.MaxDepth = max(s.MaxDepth, n.Depth)
	}
	return s
}

func (t *Tree) addNode(parent, depth int) (int, error) {
	if len(t.nodes) >= t.opts.MaxNodes {
		return -1, ErrTooManyNodes
	}
	t.nodes = append(t.nodes, newNode(parent, depth))
	return len(t.nodes) - 1, nil
}

func maskOffsetOf(m *mesh.Mesh) int {
	return m.VData.Offset(attr.LayerMask)
}
