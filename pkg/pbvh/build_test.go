package pbvh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

func requireConsistent(t *testing.T, tree *Tree) {
	t.Helper()
	errs := tree.Verify()
	for _, e := range errs {
		t.Log(e)
	}
	require.Empty(t, errs)
}

// faceOwners counts the leaves holding each face.
func faceOwners(tree *Tree) map[mesh.FaceID]int {
	out := make(map[mesh.FaceID]int)
	for _, i := range tree.Leaves() {
		for _, f := range tree.Node(i).Faces.Items() {
			out[f]++
		}
	}
	return out
}

func TestBuildPartitionsFaces(t *testing.T) {
	m := mesh.NewIcosphere(2, 1)
	tree := Build(m, nil, Options{LeafLimit: 16})
	requireConsistent(t, tree)

	stats := tree.Stats()
	assert.Greater(t, stats.Leaves, 1)
	assert.LessOrEqual(t, stats.MaxFaces, 16)
	assert.Equal(t, m.NumFaces(), stats.Faces)

	owners := faceOwners(tree)
	assert.Len(t, owners, m.NumFaces())
	for f, n := range owners {
		assert.Equal(t, 1, n, "face %s", f)
	}

	for f := range m.Faces() {
		leaf := tree.Node(tree.LeafOfFace(f))
		assert.True(t, leaf.Bounds.Contains(m.FaceCentroid(f)))
	}
}

func TestBuildEmptyMesh(t *testing.T) {
	m := mesh.New()
	tree := Build(m, nil, Options{})
	require.Equal(t, 1, tree.Len())
	assert.True(t, tree.Root().IsLeaf())
	assert.Equal(t, DefaultLeafLimit, tree.LeafLimit())

	a := m.AddVert(r3.Vec{}, mesh.VertID{})
	b := m.AddVert(r3.Vec{X: 1}, mesh.VertID{})
	c := m.AddVert(r3.Vec{Y: 1}, mesh.VertID{})
	f, err := m.AddFace([]mesh.VertID{a, b, c}, mesh.FaceID{}, true)
	require.NoError(t, err)

	leaf, err := tree.AddFace(f)
	require.NoError(t, err)
	assert.Equal(t, 0, leaf)
	requireConsistent(t, tree)
	assert.Equal(t, 3, tree.Root().UniqueVerts.Len())
}

func TestEnsureLeafLimitSplitsExactly(t *testing.T) {
	m := mesh.NewGrid(4, 4, 1, 1)
	require.Equal(t, 32, m.NumFaces())
	tree := Build(m, nil, Options{LeafLimit: 32})
	require.Equal(t, 1, tree.Len())

	before := tree.Root().Faces.Slice()
	tree.opts.LeafLimit = 31

	split, err := tree.EnsureLeafLimit(0)
	require.NoError(t, err)
	require.True(t, split)

	root := tree.Root()
	require.False(t, root.IsLeaf())
	c1, c2 := tree.Node(root.Children), tree.Node(root.Children+1)
	require.True(t, c1.IsLeaf())
	require.True(t, c2.IsLeaf())
	assert.NotZero(t, c1.Faces.Len())
	assert.NotZero(t, c2.Faces.Len())
	assert.Equal(t, len(before), c1.Faces.Len()+c2.Faces.Len())
	for _, f := range before {
		assert.True(t, c1.Faces.Has(f) != c2.Faces.Has(f), "face %s", f)
	}
	assert.Equal(t, c1.Bounds.Union(c2.Bounds), root.Bounds)
	requireConsistent(t, tree)

	split, err = tree.EnsureLeafLimit(root.Children)
	require.NoError(t, err)
	assert.False(t, split)
}

func TestEnsureLeafLimitNodeCap(t *testing.T) {
	m := mesh.NewGrid(4, 4, 1, 1)
	tree := Build(m, nil, Options{LeafLimit: 64, MaxNodes: 2})
	tree.opts.LeafLimit = 4

	_, err := tree.EnsureLeafLimit(0)
	assert.ErrorIs(t, err, ErrTooManyNodes)
	assert.True(t, tree.Root().IsLeaf())
	requireConsistent(t, tree)
}

func TestJoinCollapsesSmallSubtrees(t *testing.T) {
	m := mesh.NewIcosphere(1, 1)
	tree := Build(m, nil, Options{LeafLimit: 8})
	require.Greater(t, tree.Stats().Leaves, 4)

	tree.opts.LeafLimit = 1000
	assert.Equal(t, 1, tree.Join())
	assert.Positive(t, tree.Compact())

	require.Equal(t, 1, tree.Len())
	assert.True(t, tree.Root().IsLeaf())
	assert.Equal(t, m.NumFaces(), tree.Root().Faces.Len())
	assert.Equal(t, m.NumVerts(), tree.Root().UniqueVerts.Len())
	assert.Zero(t, tree.Root().OtherVerts.Len())
	requireConsistent(t, tree)
}

func TestJoinKeepsLargeSubtrees(t *testing.T) {
	m := mesh.NewIcosphere(2, 1)
	tree := Build(m, nil, Options{LeafLimit: 64})
	leaves := tree.Stats().Leaves

	assert.Zero(t, tree.Join())
	assert.Zero(t, tree.Compact())
	assert.Equal(t, leaves, tree.Stats().Leaves)
}

func overlapShare(tree *Tree, parent int) float64 {
	p := tree.Node(parent)
	a, b := tree.Node(p.Children).Bounds, tree.Node(p.Children+1).Bounds
	return a.Intersect(b).Volume() / (a.Volume() + b.Volume())
}

func TestBalanceSeparatesOverlappingSiblings(t *testing.T) {
	m := mesh.NewIcosphere(1, 1)
	tree := Build(m, nil, Options{LeafLimit: m.NumFaces() - 1})
	require.Equal(t, 3, tree.Len())

	// interleave the two leaves so both boxes span the whole sphere
	first := tree.Node(1).Faces.Slice()
	second := tree.Node(2).Faces.Slice()
	for k, f := range first {
		if k%2 == 0 {
			tree.detachFace(f)
			tree.insertFace(2, f)
		}
	}
	for k, f := range second {
		if k%2 == 0 {
			tree.detachFace(f)
			tree.insertFace(1, f)
		}
	}
	tree.UpdateBounds()
	requireConsistent(t, tree)
	mixed := overlapShare(tree, 0)
	require.Greater(t, mixed, overlapRatio)

	assert.Positive(t, tree.Balance())
	requireConsistent(t, tree)
	assert.Less(t, overlapShare(tree, 0), mixed)
	assert.NotZero(t, tree.Node(1).Faces.Len())
	assert.NotZero(t, tree.Node(2).Faces.Len())
}

func TestSearchLeaves(t *testing.T) {
	m := mesh.NewGrid(8, 8, 1, 1)
	tree := Build(m, nil, Options{LeafLimit: 8})

	corner := smath.NewBounds(r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 0.1, Y: 0.1, Z: 1})
	hits := tree.SearchLeaves(func(n *Node) bool {
		return !n.Bounds.Intersect(corner).Empty()
	})
	require.NotEmpty(t, hits)
	assert.Less(t, len(hits), len(tree.Leaves()))
	for _, i := range hits {
		assert.True(t, tree.Node(i).IsLeaf())
	}
}
