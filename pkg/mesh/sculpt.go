package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
)

// SculptFlag classifies a vertex for remeshing.
type SculptFlag uint16

const (
	SculptBoundary SculptFlag = 1 << iota
	SculptCorner
	SculptSeamBoundary
	SculptSharpBoundary
	SculptFaceSetBoundary
	SculptNeedBoundary
	SculptNeedValence
	SculptNeedTriangulate
)

// SculptAnyBoundary groups every boundary classification.
const SculptAnyBoundary = SculptBoundary | SculptSeamBoundary | SculptSharpBoundary | SculptFaceSetBoundary

// SculptVert is per-vertex scratch state kept by the remesher.
type SculptVert struct {
	OrigCo   r3.Vec
	OrigNo   r3.Vec
	OrigMask float64
	Flag     SculptFlag
	Valence  int
	StrokeID int
}

// Invalidate requests a boundary and valence refresh for v.
func (m *Mesh) Invalidate(v VertID) {
	if vp := m.Vert(v); vp != nil {
		vp.Sculpt.Flag |= SculptNeedBoundary | SculptNeedValence
	}
}

// EnsureValence refreshes the cached valence of v when flagged and returns it.
func (m *Mesh) EnsureValence(v VertID) int {
	vp := m.Vert(v)
	if vp.Sculpt.Flag&SculptNeedValence != 0 {
		vp.Sculpt.Valence = m.Valence(v)
		vp.Sculpt.Flag &^= SculptNeedValence
	}
	return vp.Sculpt.Valence
}

// EnsureBoundary refreshes the boundary classification of v when flagged.
// faceSetOffset is the face-set layer offset or -1.
func (m *Mesh) EnsureBoundary(v VertID, faceSetOffset int) SculptFlag {
	vp := m.Vert(v)
	if vp.Sculpt.Flag&SculptNeedBoundary == 0 {
		return vp.Sculpt.Flag & (SculptAnyBoundary | SculptCorner)
	}

	flag := SculptFlag(0)
	var sets []int32
	boundaryEdges := 0
	seamEdges := 0
	sharpEdges := 0

	for e := range m.EdgesOfVert(v) {
		ep := m.Edge(e)
		if !m.EdgeIsManifold(e) {
			flag |= SculptBoundary
			boundaryEdges++
		}
		if ep.Flag&FlagSeam != 0 {
			flag |= SculptSeamBoundary
			seamEdges++
		}
		if ep.Flag&FlagSharp != 0 {
			flag |= SculptSharpBoundary
			sharpEdges++
		}
		if faceSetOffset < 0 {
			continue
		}
		for l := range m.LoopsOfEdge(e) {
			fs := attr.Int32(m.Face(m.Loop(l).F).Data, faceSetOffset)
			found := false
			for _, s := range sets {
				if s == fs {
					found = true
					break
				}
			}
			if !found {
				sets = append(sets, fs)
			}
		}
	}
	if len(sets) > 1 {
		flag |= SculptFaceSetBoundary
	}

	// a boundary-like vertex is a corner when its boundary chain does not
	// pass straight through it
	if (boundaryEdges > 0 && boundaryEdges != 2) ||
		(seamEdges > 0 && seamEdges != 2) ||
		(sharpEdges > 0 && sharpEdges != 2) ||
		len(sets) > 2 {
		flag |= SculptCorner
	}

	vp.Sculpt.Flag = vp.Sculpt.Flag&^(SculptAnyBoundary|SculptCorner|SculptNeedBoundary) | flag
	return flag
}

// SnapshotOrig stores the current position, normal and mask of v as the
// original state for stroke strokeID.
func (m *Mesh) SnapshotOrig(v VertID, strokeID int, maskOffset int) {
	vp := m.Vert(v)
	if vp.Sculpt.StrokeID == strokeID {
		return
	}
	vp.Sculpt.OrigCo = vp.Co
	vp.Sculpt.OrigNo = vp.No
	if maskOffset >= 0 {
		vp.Sculpt.OrigMask = attr.Float(vp.Data, maskOffset)
	}
	vp.Sculpt.StrokeID = strokeID
}
