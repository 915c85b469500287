package pbvh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

type recordingLog struct {
	NopLog
	vertsAdded, facesAdded, facesRemoved int
}

func (r *recordingLog) VertAdded(mesh.VertID)   { r.vertsAdded++ }
func (r *recordingLog) FaceAdded(mesh.FaceID)   { r.facesAdded++ }
func (r *recordingLog) FaceRemoved(mesh.FaceID) { r.facesRemoved++ }

func TestRemoveFaceTransfersOwnership(t *testing.T) {
	m := mesh.NewGrid(6, 6, 1, 1)
	tree := Build(m, nil, Options{LeafLimit: 8})
	require.Greater(t, tree.Stats().Leaves, 2)

	// find a vertex whose owner shares it with another leaf
	var v mesh.VertID
	owner := -1
	for _, i := range tree.Leaves() {
		for _, u := range tree.Node(i).UniqueVerts.Items() {
			faces := m.VertFaces(u)
			inside := 0
			for _, f := range faces {
				if tree.LeafOfFace(f) == i {
					inside++
				}
			}
			if inside > 0 && inside < len(faces) {
				v, owner = u, i
				break
			}
		}
		if owner >= 0 {
			break
		}
	}
	require.GreaterOrEqual(t, owner, 0)

	for _, f := range m.VertFaces(v) {
		if tree.LeafOfFace(f) == owner {
			tree.RemoveFace(f)
			m.KillFace(f)
		}
	}

	assert.NotEqual(t, owner, tree.LeafOfVert(v))
	assert.False(t, tree.Node(owner).UniqueVerts.Has(v))
	assert.True(t, tree.Node(tree.LeafOfVert(v)).UniqueVerts.Has(v))
	requireConsistent(t, tree)
}

func TestCreateVertAndFace(t *testing.T) {
	m := mesh.NewGrid(1, 1, 1, 1)
	mask, err := m.AddLayer(mesh.DomainVert, attr.LayerMask, attr.TypeFloat)
	require.NoError(t, err)
	lg := &recordingLog{}
	tree := Build(m, lg, Options{})
	assert.Equal(t, mask.Offset, tree.MaskOffset())

	var corners []mesh.VertID
	for v := range m.Verts() {
		corners = append(corners, v)
	}
	attr.SetFloat(m.Vert(corners[0]).Data, mask.Offset, 1)

	mid := tree.CreateVert(0, corners[0], corners[1], r3.Vec{X: 0.5, Y: -0.5}, r3.Vec{Z: 1})
	assert.Equal(t, 0, tree.LeafOfVert(mid))
	assert.InDelta(t, 0.5, m.VertMask(mid, mask.Offset), 1e-6)
	assert.Equal(t, 1, lg.vertsAdded)

	f, err := tree.CreateFace(0, [3]mesh.VertID{corners[1], corners[0], mid}, mesh.FaceID{}, nil)
	require.NoError(t, err)
	for _, v := range m.FaceVerts(f) {
		tree.AttachVert(0, v)
	}
	assert.Equal(t, 1, lg.facesAdded)
	assert.True(t, tree.Root().Faces.Has(f))
	assert.NotZero(t, tree.Root().Flag&FlagTopologyUpdated)
	requireConsistent(t, tree)

	tree.RemoveFace(f)
	tree.RemoveVert(mid)
	m.KillFace(f)
	m.KillVert(mid)
	assert.Equal(t, 1, lg.facesRemoved)
	requireConsistent(t, tree)
}

func TestTransferVertKeepsOtherUse(t *testing.T) {
	m := mesh.NewGrid(4, 4, 1, 1)
	tree := Build(m, nil, Options{LeafLimit: 8})

	var v mesh.VertID
	var from, to int
	found := false
	for _, i := range tree.Leaves() {
		for _, u := range tree.Node(i).OtherVerts.Items() {
			v, to, from = u, i, tree.LeafOfVert(u)
			found = true
			break
		}
		if found {
			break
		}
	}
	require.True(t, found)

	tree.TransferVert(v, to)
	assert.Equal(t, to, tree.LeafOfVert(v))
	assert.True(t, tree.Node(from).OtherVerts.Has(v))
	assert.False(t, tree.Node(to).OtherVerts.Has(v))
	requireConsistent(t, tree)
}

func TestAddFaceOutsideUsesNearestLeaf(t *testing.T) {
	m := mesh.NewGrid(4, 4, 1, 1)
	tree := Build(m, nil, Options{LeafLimit: 4})
	require.Greater(t, tree.Stats().Leaves, 4)

	a := m.AddVert(r3.Vec{X: 5, Y: 5}, mesh.VertID{})
	b := m.AddVert(r3.Vec{X: 6, Y: 5}, mesh.VertID{})
	c := m.AddVert(r3.Vec{X: 5, Y: 6}, mesh.VertID{})
	f, err := m.AddFace([]mesh.VertID{a, b, c}, mesh.FaceID{}, true)
	require.NoError(t, err)

	centroid := m.FaceCentroid(f)
	want, best := -1, 0.0
	for _, i := range tree.Leaves() {
		d := r3.Norm2(r3.Sub(tree.Node(i).Bounds.Center(), centroid))
		if want < 0 || d < best {
			want, best = i, d
		}
	}

	got, err := tree.AddFace(f)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, faceOwners(tree)[f])
	assert.True(t, tree.Root().Bounds.Contains(centroid))
	requireConsistent(t, tree)

	again, err := tree.AddFace(f)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestAddFacePrefersNeighborLeaf(t *testing.T) {
	m := mesh.NewGrid(4, 4, 1, 1)
	tree := Build(m, nil, Options{LeafLimit: 4})

	var edge mesh.EdgeID
	for e := range m.Edges() {
		if m.EdgeIsBoundary(e) {
			edge = e
			break
		}
	}
	ep := m.Edge(edge)
	neighbor := tree.LeafOfFace(m.EdgeFaces(edge)[0])

	mid := r3.Scale(0.5, r3.Add(m.Vert(ep.V1).Co, m.Vert(ep.V2).Co))
	out := m.AddVert(r3.Add(mid, r3.Scale(3, r3.Sub(mid, r3.Vec{X: 0.5, Y: 0.5}))), mesh.VertID{})
	f, err := m.AddFace([]mesh.VertID{ep.V2, ep.V1, out}, mesh.FaceID{}, true)
	require.NoError(t, err)

	got, err := tree.AddFace(f)
	require.NoError(t, err)
	assert.Equal(t, neighbor, got)
	requireConsistent(t, tree)
}
