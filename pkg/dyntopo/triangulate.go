package dyntopo

import (
	"go.uber.org/zap"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// triangulateAll fan-triangulates every n-gon of a mesh that has no tree
// yet. Nothing is logged.
func (e *Engine) triangulateAll() {
	m := e.mesh
	var ngons []mesh.FaceID
	for f := range m.Faces() {
		if m.Face(f).Len() > 3 {
			ngons = append(ngons, f)
		}
	}
	for _, f := range ngons {
		if _, err := m.TriangulateFace(f); err != nil {
			e.logger.Warn("triangulation failed", zap.Stringer("face", f), zap.Error(err))
		}
	}
	if len(ngons) > 0 {
		e.logger.Debug("input triangulated", zap.Int("ngons", len(ngons)))
	}
}

// triangulateFan replaces every n-gon around v flagged NeedTriangulate by a
// logged triangle fan in the n-gon's leaf.
func (e *Engine) triangulateFan(v mesh.VertID) {
	m := e.mesh
	vp := m.Vert(v)
	if vp == nil || vp.Sculpt.Flag&mesh.SculptNeedTriangulate == 0 {
		return
	}
	vp.Sculpt.Flag &^= mesh.SculptNeedTriangulate
	for _, f := range m.VertFaces(v) {
		if m.Face(f).Len() > 3 {
			e.triangulateFace(f)
		}
	}
}

// triangulatePending triangulates the flagged n-gons around vertices of
// the given leaves.
func (e *Engine) triangulatePending(leaves []int) {
	var pending []mesh.VertID
	for _, i := range leaves {
		n := e.tree.Node(i)
		for _, v := range n.UniqueVerts.Items() {
			if e.mesh.Vert(v).Sculpt.Flag&mesh.SculptNeedTriangulate != 0 {
				pending = append(pending, v)
			}
		}
	}
	for _, v := range pending {
		e.triangulateFan(v)
	}
}

func (e *Engine) triangulateFace(f mesh.FaceID) {
	m, t := e.mesh, e.tree
	ni := int(m.Face(f).Leaf)
	if ni < 0 {
		idx, err := t.AddFace(f)
		if err != nil {
			e.logger.Warn("n-gon has no leaf", zap.Stringer("face", f), zap.Error(err))
			return
		}
		ni = idx
	}

	verts := m.FaceVerts(f)
	corners := make([]attr.Block, len(verts))
	for i, l := range m.FaceLoops(f) {
		corners[i] = m.Loop(l).Data
	}
	for i := 1; i+1 < len(verts); i++ {
		tri := [3]mesh.VertID{verts[0], verts[i], verts[i+1]}
		if !m.FindFace(tri[:]).IsNil() {
			degenerateTotal.Inc()
			continue
		}
		nf, err := t.CreateFace(ni, tri, f, []attr.Block{corners[0], corners[i], corners[i+1]})
		if err != nil {
			degenerateTotal.Inc()
			continue
		}
		for _, u := range m.FaceVerts(nf) {
			t.AttachVert(ni, u)
		}
	}
	t.RemoveFace(f)
	m.KillFace(f)
	for _, u := range verts {
		m.Invalidate(u)
	}
}
