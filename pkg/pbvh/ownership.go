package pbvh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

func (t *Tree) leaf(idx int32) *Node {
	if idx < 0 || int(idx) >= len(t.nodes) {
		return nil
	}
	return t.nodes[idx]
}

// CreateVert creates a vertex at co owned by leaf idx. Its attributes are
// the even blend of v1 and v2. The creation is logged.
func (t *Tree) CreateVert(idx int, v1, v2 mesh.VertID, co, no r3.Vec) mesh.VertID {
	m := t.mesh
	v := m.AddVert(co, v1)
	vp := m.Vert(v)
	m.VData.Interpolate([]attr.Block{m.Vert(v1).Data, m.Vert(v2).Data}, []float64{0.5, 0.5}, vp.Data)
	vp.No = no

	n := t.nodes[idx]
	n.UniqueVerts.Add(v)
	vp.Leaf = int32(idx)
	n.Flag |= FlagUpdateDrawBuffers | FlagUpdateBB | FlagTopologyUpdated

	t.log.VertAdded(v)
	return v
}

// CreateFace creates a triangle owned by leaf idx, copying the flags and
// attributes of example. corners, when given, holds the corner data in
// vertex order. Callers check that the triangle does not exist yet and
// attach its vertices. The creation is logged.
func (t *Tree) CreateFace(idx int, verts [3]mesh.VertID, example mesh.FaceID, corners []attr.Block) (mesh.FaceID, error) {
	m := t.mesh
	f, err := m.AddFace(verts[:], example, false)
	if err != nil {
		return mesh.FaceID{}, err
	}
	fp := m.Face(f)
	if ex := m.Face(example); ex != nil {
		fp.Flag = ex.Flag
	}
	if len(corners) == len(verts) {
		for i, l := range m.FaceLoops(f) {
			if corners[i] != nil {
				m.LData.Copy(corners[i], m.Loop(l).Data)
			}
		}
	}

	n := t.nodes[idx]
	n.Faces.Add(f)
	fp.Leaf = int32(idx)
	n.Flag |= FlagUpdateDrawBuffers | FlagUpdateNormals | FlagTopologyUpdated | FlagUpdateTris
	n.Flag &^= FlagFullyHidden

	t.log.FaceAdded(f)
	return f, nil
}

// AttachVert records that leaf idx uses v. An unowned vertex becomes unique
// to idx; an owned one joins the other set unless idx already owns it.
func (t *Tree) AttachVert(idx int, v mesh.VertID) {
	vp := t.mesh.Vert(v)
	n := t.nodes[idx]
	switch vp.Leaf {
	case int32(idx):
	case mesh.NoLeaf:
		n.UniqueVerts.Add(v)
		n.OtherVerts.Remove(v)
		vp.Leaf = int32(idx)
		n.Flag |= FlagUpdateBB | FlagTopologyUpdated
	default:
		if n.OtherVerts.Add(v) {
			n.Flag |= FlagUpdateBB | FlagTopologyUpdated
		}
	}
}

// VertUseCount counts the faces of v owned by leaf idx, stopping at limit.
func (t *Tree) VertUseCount(idx int, v mesh.VertID, limit int) int {
	m := t.mesh
	count := 0
	for l := range m.LoopsOfVert(v) {
		if int(m.Face(m.Loop(l).F).Leaf) == idx {
			count++
			if count == limit {
				break
			}
		}
	}
	return count
}

// vertOtherLeaf returns a leaf other than the owner of v that holds one of
// its faces, or -1.
func (t *Tree) vertOtherLeaf(v mesh.VertID) int {
	m := t.mesh
	cur := m.Vert(v).Leaf
	for l := range m.LoopsOfVert(v) {
		fl := m.Face(m.Loop(l).F).Leaf
		if fl != cur && fl != mesh.NoLeaf {
			return int(fl)
		}
	}
	return -1
}

// TransferVert makes leaf idx the owner of v. When the previous owner still
// holds faces of v it keeps v in its other set.
func (t *Tree) TransferVert(v mesh.VertID, idx int) {
	vp := t.mesh.Vert(v)
	prev := vp.Leaf
	if int(prev) == idx {
		return
	}
	t.transferOwnership(v, idx)
	if old := t.leaf(prev); old != nil && t.VertUseCount(int(prev), v, 1) > 0 {
		old.OtherVerts.Add(v)
	}
}

func (t *Tree) transferOwnership(v mesh.VertID, idx int) {
	vp := t.mesh.Vert(v)
	if cur := t.leaf(vp.Leaf); cur != nil {
		cur.UniqueVerts.Remove(v)
		cur.Flag |= FlagUpdateDrawBuffers | FlagUpdateBB | FlagTopologyUpdated
	}
	n := t.nodes[idx]
	vp.Leaf = int32(idx)
	n.UniqueVerts.Add(v)
	n.OtherVerts.Remove(v)
	n.Flag |= FlagUpdateDrawBuffers | FlagUpdateBB | FlagTopologyUpdated
}

// RemoveVert detaches v from its owner and from every leaf holding one of
// its faces. The vertex itself stays in the mesh.
func (t *Tree) RemoveVert(v mesh.VertID) {
	m := t.mesh
	vp := m.Vert(v)
	if vp == nil {
		return
	}
	if n := t.leaf(vp.Leaf); n != nil {
		n.UniqueVerts.Remove(v)
		n.Flag |= FlagUpdateDrawBuffers | FlagUpdateBB | FlagTopologyUpdated
	}
	vp.Leaf = mesh.NoLeaf

	prev := mesh.NoLeaf
	for l := range m.LoopsOfVert(v) {
		fl := m.Face(m.Loop(l).F).Leaf
		if fl == prev {
			continue
		}
		prev = fl
		if n := t.leaf(fl); n != nil {
			n.OtherVerts.Remove(v)
			n.Flag |= FlagUpdateDrawBuffers | FlagUpdateBB | FlagTopologyUpdated
		}
	}
}

// RemoveFace detaches f from its leaf and logs the removal. Vertices used
// only by f in that leaf leave it; unique ones move to another leaf that
// still holds one of their faces. The face itself stays in the mesh.
func (t *Tree) RemoveFace(f mesh.FaceID) {
	t.detachFace(f)
	t.log.FaceRemoved(f)
}

func (t *Tree) detachFace(f mesh.FaceID) int {
	m := t.mesh
	fp := m.Face(f)
	if fp == nil {
		return -1
	}
	idx := int(fp.Leaf)
	n := t.leaf(fp.Leaf)
	if n == nil {
		return -1
	}

	for l := range m.LoopsOfFace(f) {
		v := m.Loop(l).V
		if t.VertUseCount(idx, v, 2) != 1 {
			continue
		}
		if n.UniqueVerts.Has(v) {
			if other := t.vertOtherLeaf(v); other >= 0 {
				t.transferOwnership(v, other)
			}
		} else {
			n.OtherVerts.Remove(v)
		}
	}

	n.Faces.Remove(f)
	fp.Leaf = mesh.NoLeaf
	n.Flag |= FlagUpdateDrawBuffers | FlagUpdateNormals | FlagTopologyUpdated | FlagUpdateTris | FlagUpdateBB
	return idx
}

// VertMoved marks the owner of v and every leaf using it for bounds and
// normal updates after v was displaced.
func (t *Tree) VertMoved(v mesh.VertID) {
	m := t.mesh
	const dirty = FlagUpdateBB | FlagUpdateNormals | FlagUpdateDrawBuffers | FlagUpdateRedraw
	if n := t.leaf(m.Vert(v).Leaf); n != nil {
		n.Flag |= dirty
	}
	for l := range m.LoopsOfVert(v) {
		if n := t.leaf(m.Face(m.Loop(l).F).Leaf); n != nil {
			n.Flag |= dirty
		}
	}
}
