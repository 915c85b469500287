package mesh

import (
	"fmt"

	"github.com/Faultbox/sculptmesh/pkg/attr"
)

// TriangulateFace replaces an n-gon by a triangle fan around its first
// corner, keeping corner and face data. Triangles are returned unchanged.
func (m *Mesh) TriangulateFace(f FaceID) ([]FaceID, error) {
	fp := m.Face(f)
	if fp == nil {
		return nil, fmt.Errorf("triangulate %v: %w", f, ErrInvalidHandle)
	}
	if fp.len == 3 {
		return []FaceID{f}, nil
	}
	if fp.len < 3 {
		return nil, fmt.Errorf("triangulate %v: %w", f, ErrDegenerateFace)
	}

	verts := m.FaceVerts(f)
	corners := make([]attr.Block, len(verts))
	for i, l := range m.FaceLoops(f) {
		corners[i] = append(attr.Block(nil), m.Loop(l).Data...)
	}
	faceData := append(attr.Block(nil), fp.Data...)
	mat, flag := fp.Mat, fp.Flag

	m.KillFace(f)

	out := make([]FaceID, 0, len(verts)-2)
	for i := 1; i+1 < len(verts); i++ {
		idx := [3]int{0, i, i + 1}
		nf, err := m.AddFace([]VertID{verts[idx[0]], verts[idx[1]], verts[idx[2]]}, FaceID{}, false)
		if err != nil {
			return out, fmt.Errorf("triangulate fan %d: %w", i, err)
		}
		nfp := m.Face(nf)
		m.FData.Copy(faceData, nfp.Data)
		nfp.Mat, nfp.Flag = mat, flag
		for j, l := range m.FaceLoops(nf) {
			m.LData.Copy(corners[idx[j]], m.Loop(l).Data)
		}
		out = append(out, nf)
	}
	return out, nil
}
