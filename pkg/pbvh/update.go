package pbvh

import (
	"github.com/samber/lo"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

func (t *Tree) each(n int, fn func(i int)) {
	if t.opts.Pool == nil {
		for i := range n {
			fn(i)
		}
		return
	}
	t.opts.Pool.Range(n, fn)
}

// UpdateNormals recomputes face and vertex normals of every leaf flagged
// with FlagUpdateNormals. Face normals are finished before any vertex
// normal is computed.
func (t *Tree) UpdateNormals() {
	m := t.mesh
	dirty := lo.Filter(t.Leaves(), func(i int, _ int) bool {
		return t.nodes[i].Flag&FlagUpdateNormals != 0
	})
	if len(dirty) == 0 {
		return
	}

	t.each(len(dirty), func(k int) {
		for _, f := range t.nodes[dirty[k]].Faces.Items() {
			m.UpdateFaceNormal(f)
		}
	})

	// unique vertices belong to one leaf each and are safe to update in
	// parallel; other vertices whose owner is clean are done afterwards
	isDirty := make(map[int32]bool, len(dirty))
	for _, i := range dirty {
		isDirty[int32(i)] = true
	}
	t.each(len(dirty), func(k int) {
		for _, v := range t.nodes[dirty[k]].UniqueVerts.Items() {
			m.UpdateVertNormal(v)
		}
	})
	var rest []mesh.VertID
	for _, i := range dirty {
		for _, v := range t.nodes[i].OtherVerts.Items() {
			if !isDirty[m.Vert(v).Leaf] {
				rest = append(rest, v)
			}
		}
	}
	for _, v := range lo.Uniq(rest) {
		m.UpdateVertNormal(v)
	}

	for _, i := range dirty {
		t.nodes[i].Flag &^= FlagUpdateNormals
	}
}

// refreshLeafBounds recomputes the box of a leaf from its vertices.
func (t *Tree) refreshLeafBounds(idx int) {
	m := t.mesh
	n := t.nodes[idx]
	b := smath.EmptyBounds()
	for _, v := range n.UniqueVerts.Items() {
		b = b.Expand(m.Vert(v).Co)
	}
	for _, v := range n.OtherVerts.Items() {
		b = b.Expand(m.Vert(v).Co)
	}
	n.Bounds = b
	n.Flag &^= FlagUpdateBB
}

// UpdateBounds recomputes the boxes of leaves flagged with FlagUpdateBB
// and refits every internal node. Leaves flagged with FlagUpdateOriginalBB
// also reset their original box.
func (t *Tree) UpdateBounds() {
	for i, n := range t.nodes {
		if !n.IsLeaf() || n.Flag&FlagDelete != 0 {
			continue
		}
		if n.Flag&FlagUpdateBB != 0 {
			t.refreshLeafBounds(i)
			n.Flag |= FlagUpdateRedraw
		}
		if n.Flag&FlagUpdateOriginalBB != 0 {
			n.OrigBounds = n.Bounds
			n.Flag &^= FlagUpdateOriginalBB
		}
	}
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		if n.IsLeaf() || n.Flag&FlagDelete != 0 {
			continue
		}
		c1, c2 := t.nodes[n.Children], t.nodes[n.Children+1]
		n.Bounds = c1.Bounds.Union(c2.Bounds)
		n.OrigBounds = c1.OrigBounds.Union(c2.OrigBounds)
	}
}

// UpdateTris rebuilds the cached visible triangles of leaves flagged with
// FlagUpdateTris.
func (t *Tree) UpdateTris() {
	m := t.mesh
	for _, i := range t.Leaves() {
		n := t.nodes[i]
		if n.Flag&FlagUpdateTris == 0 {
			continue
		}
		n.Tris = n.Tris[:0]
		for _, f := range n.Faces.Items() {
			if m.Face(f).Flag&mesh.FlagHidden != 0 {
				continue
			}
			a, b, c := m.TriVerts(f)
			n.Tris = append(n.Tris, Tri{Face: f, Verts: [3]mesh.VertID{a, b, c}})
		}
		n.Flag &^= FlagUpdateTris
	}
}

// Update runs every pending normal, bounds and triangle update.
func (t *Tree) Update() {
	t.UpdateNormals()
	t.UpdateBounds()
	t.UpdateTris()
}

// UpdateHidden refreshes FlagFullyHidden on every leaf.
func (t *Tree) UpdateHidden() {
	m := t.mesh
	for _, i := range t.Leaves() {
		n := t.nodes[i]
		visible := lo.ContainsBy(n.Faces.Items(), func(f mesh.FaceID) bool {
			return m.Face(f).Flag&mesh.FlagHidden == 0
		})
		n.setFullyHidden(!visible)
	}
}
