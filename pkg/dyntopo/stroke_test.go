package dyntopo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/mesh"
	"github.com/Faultbox/sculptmesh/pkg/pbvh"
)

func TestStrokeUndoRedo(t *testing.T) {
	e := newEngine(t, mesh.NewIcosphere(1, 1), Options{DetailSize: 0.2, Verify: true})
	m := e.Mesh()
	verts, edges, faces := m.NumVerts(), m.NumEdges(), m.NumFaces()
	ctx := context.Background()

	entry := e.BeginStroke()
	require.NotNil(t, entry)
	assert.True(t, e.InStroke())
	require.True(t, e.Subdivide(ctx, everywhere(r3.Vec{}), 0))
	require.NoError(t, e.EndStroke(ctx))
	assert.False(t, e.InStroke())

	refined := m.NumFaces()
	require.Greater(t, refined, faces)
	requireSound(t, e)

	require.NoError(t, e.Undo())
	assert.Equal(t, verts, m.NumVerts())
	assert.Equal(t, edges, m.NumEdges())
	assert.Equal(t, faces, m.NumFaces())
	requireSound(t, e)

	require.NoError(t, e.Redo())
	assert.Equal(t, refined, m.NumFaces())
	requireSound(t, e)
}

func TestStrokeRestoresPositionsOnUndo(t *testing.T) {
	e := newEngine(t, mesh.NewIcosphere(2, 1), Options{})
	m := e.Mesh()
	e.SetEdgeLimits(0.5, 100)
	before := make(map[uint32]r3.Vec)
	for v := range m.Verts() {
		id, ok := e.History().VertID(v)
		require.True(t, ok)
		before[id] = m.Vert(v).Co
	}

	ctx := context.Background()
	e.BeginStroke()
	require.True(t, e.Collapse(ctx, everywhere(r3.Vec{}), 20))
	require.NoError(t, e.EndStroke(ctx))
	assert.Less(t, m.NumVerts(), len(before))

	require.NoError(t, e.Undo())
	require.Equal(t, len(before), m.NumVerts())
	for id, co := range before {
		v, ok := e.History().VertByID(id)
		require.True(t, ok, "vert %d restored", id)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(co, m.Vert(v).Co)), 1e-9, "vert %d", id)
	}
	requireSound(t, e)
}

func TestEndStrokeMaintainsTree(t *testing.T) {
	e := newEngine(t, mesh.NewGrid(4, 4, 1, 1), Options{
		DetailSize:      0.05,
		BalanceInterval: 1,
		Verify:          true,
		Tree:            pbvh.Options{LeafLimit: 16},
	})
	ctx := context.Background()
	r := Region{Center: r3.Vec{X: 0.2, Y: 0.2}, Radius: 0.15, SymmetryAxis: NoSymmetry}

	for range 3 {
		e.BeginStroke()
		e.Subdivide(ctx, r, 0)
		require.NoError(t, e.EndStroke(ctx))
		requireSound(t, e)
	}
	for _, i := range e.Tree().Leaves() {
		assert.LessOrEqual(t, e.Tree().Node(i).Faces.Len(), 16, "leaf %d", i)
	}
}

func TestInsertFaceDead(t *testing.T) {
	m := mesh.NewGrid(1, 1, 1, 1)
	e := newEngine(t, m, Options{})
	var f mesh.FaceID
	for f = range m.Faces() {
		break
	}
	m.KillFace(f)
	_, err := e.InsertFace(f)
	assert.ErrorIs(t, err, mesh.ErrInvalidHandle)
}
