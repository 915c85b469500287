package bmlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "vert-added", VertAdded.String())
	assert.Equal(t, "face-removed", FaceRemoved.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestUndoRedoFaceSwap(t *testing.T) {
	m := mesh.NewGrid(1, 1, 1, 1)
	mask, err := m.AddLayer(mesh.DomainVert, attr.LayerMask, attr.TypeFloat)
	require.NoError(t, err)
	lg := New(m)

	// replace the two triangles of the quad by a fan around a new center vertex
	lg.BeginEntry()
	corners := make([]mesh.VertID, 0, 4)
	for v := range m.Verts() {
		corners = append(corners, v)
	}
	faces := make([]mesh.FaceID, 0, 2)
	for f := range m.Faces() {
		faces = append(faces, f)
	}
	for _, f := range faces {
		lg.FaceRemoved(f)
		m.KillFace(f)
	}
	c := m.AddVert(r3.Vec{X: 0.5, Y: 0.5}, mesh.VertID{})
	attr.SetFloat(m.Vert(c).Data, mask.Offset, 0.5)
	lg.VertAdded(c)
	ring := []mesh.VertID{corners[0], corners[1], corners[3], corners[2]}
	for i := range ring {
		f, err := m.AddFace([]mesh.VertID{c, ring[i], ring[(i+1)%4]}, mesh.FaceID{}, true)
		require.NoError(t, err)
		lg.FaceAdded(f)
	}
	require.Equal(t, 4, m.NumFaces())
	require.Len(t, lg.Current().Records, 7)

	require.NoError(t, lg.Undo())
	require.NoError(t, m.Validate())
	assert.Equal(t, 2, m.NumFaces())
	assert.Equal(t, 4, m.NumVerts())
	assert.Equal(t, 5, m.NumEdges())

	require.NoError(t, lg.Redo())
	require.NoError(t, m.Validate())
	assert.Equal(t, 4, m.NumFaces())
	assert.Equal(t, 5, m.NumVerts())

	assert.False(t, m.VertAlive(c), "redo recreates the center under a new handle")

	assert.ErrorIs(t, lg.Redo(), ErrNothingToRedo)
}

func TestVertModifiedKeepsFirstState(t *testing.T) {
	m := mesh.NewGrid(1, 1, 1, 1)
	lg := New(m)
	var v mesh.VertID
	for v = range m.Verts() {
		break
	}
	start := m.Vert(v).Co

	lg.BeginEntry()
	lg.VertBeforeModify(v, -1, false)
	m.Vert(v).Co = r3.Vec{Z: 1}
	lg.VertBeforeModify(v, -1, false)
	m.Vert(v).Co = r3.Vec{Z: 2}

	assert.Len(t, lg.Current().Records, 1)
	orig, ok := lg.OriginalCo(v)
	require.True(t, ok)
	assert.Equal(t, start, orig)

	require.NoError(t, lg.Undo())
	assert.Equal(t, start, m.Vert(v).Co)
	require.NoError(t, lg.Redo())
	assert.Equal(t, r3.Vec{Z: 2}, m.Vert(v).Co)

	assert.Len(t, lg.Entries(), 1)
	require.NoError(t, lg.Undo())
	assert.ErrorIs(t, lg.Undo(), ErrNothingToUndo)
}

func TestBeginEntryDropsRedo(t *testing.T) {
	m := mesh.NewGrid(1, 1, 1, 1)
	lg := New(m)
	first := lg.BeginEntry()
	require.NoError(t, lg.Undo())

	second := lg.BeginEntry()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, lg.Entries(), 1)
	assert.ErrorIs(t, lg.Redo(), ErrNothingToRedo)
}
