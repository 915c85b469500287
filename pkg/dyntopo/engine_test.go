package dyntopo

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/mesh"
	"github.com/Faultbox/sculptmesh/pkg/pbvh"
)

func newEngine(t *testing.T, m *mesh.Mesh, opts Options) *Engine {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	if opts.Tree.LeafLimit == 0 {
		opts.Tree.LeafLimit = 32
	}
	return New(m, nil, opts)
}

func everywhere(center r3.Vec) Region {
	return Region{Center: center, Radius: 10, SymmetryAxis: NoSymmetry}
}

// requireSound checks the mesh cycles, the tree ownership and that only
// triangles remain.
func requireSound(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Mesh().Validate())
	errs := e.Tree().Verify()
	for _, err := range errs {
		t.Log(err)
	}
	require.Empty(t, errs)
	for f := range e.Mesh().Faces() {
		require.Equal(t, 3, e.Mesh().Face(f).Len(), "face %v", f)
	}
}

func faceKeys(m *mesh.Mesh) [][3]int {
	var keys [][3]int
	for f := range m.Faces() {
		vs := m.FaceVerts(f)
		k := [3]int{vs[0].Index(), vs[1].Index(), vs[2].Index()}
		slices.Sort(k[:])
		keys = append(keys, k)
	}
	return keys
}

func TestNewTriangulatesInput(t *testing.T) {
	m := mesh.New()
	vs := []mesh.VertID{
		m.AddVert(r3.Vec{}, mesh.VertID{}),
		m.AddVert(r3.Vec{X: 1}, mesh.VertID{}),
		m.AddVert(r3.Vec{X: 1, Y: 1}, mesh.VertID{}),
		m.AddVert(r3.Vec{Y: 1}, mesh.VertID{}),
	}
	_, err := m.AddFace(vs, mesh.FaceID{}, false)
	require.NoError(t, err)
	m.UpdateNormals()

	e := newEngine(t, m, Options{})
	assert.Equal(t, 2, m.NumFaces())
	requireSound(t, e)

	lo, hi := e.EdgeLimits()
	assert.InDelta(t, DefaultDetailSize, hi, 1e-12)
	assert.InDelta(t, DefaultDetailSize*minEdgeFactor, lo, 1e-12)
}

func TestSetDetailSize(t *testing.T) {
	e := newEngine(t, mesh.NewGrid(2, 2, 1, 1), Options{})

	require.NoError(t, e.SetDetailSize(0.5))
	lo, hi := e.EdgeLimits()
	assert.InDelta(t, 0.5, hi, 1e-12)
	assert.InDelta(t, 0.2, lo, 1e-12)

	assert.ErrorIs(t, e.SetDetailSize(0), ErrBadDetailSize)
	assert.ErrorIs(t, e.SetDetailSize(-1), ErrBadDetailSize)
	assert.ErrorIs(t, e.SetDetailSize(math.NaN()), ErrBadDetailSize)

	require.NoError(t, e.SetDetailSize(math.Inf(1)))
	lo, hi = e.EdgeLimits()
	assert.True(t, math.IsInf(hi, 1))
	assert.Zero(t, lo)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "none", Mode(0).String())
	assert.Equal(t, "subdivide", ModeSubdivide.String())
	assert.Equal(t, "collapse|cleanup", (ModeCollapse | ModeCleanup).String())
	assert.Equal(t, "subdivide|collapse|cleanup", (ModeSubdivide | ModeCollapse | ModeCleanup).String())
}

func TestMirrorRegion(t *testing.T) {
	view := r3.Vec{X: 1}
	r := Region{Center: r3.Vec{X: 2, Y: 3, Z: 4}, Radius: 1, ViewNormal: &view, SymmetryAxis: 0}

	m := MirrorRegion(r, 0)
	assert.Equal(t, r3.Vec{X: -2, Y: 3, Z: 4}, m.Center)
	require.NotNil(t, m.ViewNormal)
	assert.Equal(t, r3.Vec{X: -1}, *m.ViewNormal)
	assert.Equal(t, NoSymmetry, m.SymmetryAxis)
	assert.Equal(t, r3.Vec{X: 1}, view, "source view normal untouched")
}

func TestMarkRegion(t *testing.T) {
	e := newEngine(t, mesh.NewGrid(8, 8, 8, 8), Options{Tree: pbvh.Options{LeafLimit: 8}})
	leaves := len(e.Tree().Leaves())
	require.Greater(t, leaves, 1)

	assert.Equal(t, leaves, e.MarkRegion(everywhere(r3.Vec{X: 4, Y: 4})))
	assert.Zero(t, e.MarkRegion(Region{Center: r3.Vec{Z: 50}, Radius: 1}))

	some := e.MarkRegion(Region{Center: r3.Vec{X: 0.5, Y: 0.5}, Radius: 0.25})
	assert.Positive(t, some)
	assert.Less(t, some, leaves)

	view := r3.Vec{Z: 1}
	far := Region{Center: r3.Vec{X: 0.5, Y: 0.5, Z: 50}, Radius: 0.25, ViewNormal: &view, Projected: true}
	assert.Positive(t, e.MarkRegion(far), "projection ignores depth")
}

func TestCancelledContext(t *testing.T) {
	e := newEngine(t, mesh.NewGrid(2, 2, 1, 1), Options{DetailSize: 0.1})
	faces := e.Mesh().NumFaces()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, e.Subdivide(ctx, everywhere(r3.Vec{X: 0.5, Y: 0.5}), 0))
	assert.Equal(t, faces, e.Mesh().NumFaces())
}
