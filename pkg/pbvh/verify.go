package pbvh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// Kind classifies a structural inconsistency.
type Kind int

const (
	KindFaceUnowned Kind = iota
	KindFaceLeafMismatch
	KindFaceDead
	KindVertUnowned
	KindVertOwnerMismatch
	KindVertUniqueElsewhere
	KindVertBothSets
	KindVertMissing
	KindVertDead
	KindNodeStructure
)

var kindNames = [...]string{
	KindFaceUnowned:         "face-unowned",
	KindFaceLeafMismatch:    "face-leaf-mismatch",
	KindFaceDead:            "face-dead",
	KindVertUnowned:         "vert-unowned",
	KindVertOwnerMismatch:   "vert-owner-mismatch",
	KindVertUniqueElsewhere: "vert-unique-elsewhere",
	KindVertBothSets:        "vert-both-sets",
	KindVertMissing:         "vert-missing",
	KindVertDead:            "vert-dead",
	KindNodeStructure:       "node-structure",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// CorruptionError reports one broken ownership or structure rule.
type CorruptionError struct {
	Kind Kind
	Node int
	Vert mesh.VertID
	Face mesh.FaceID
}

func (e *CorruptionError) Error() string {
	switch {
	case !e.Vert.IsNil():
		return fmt.Sprintf("pbvh: %s: node %d vert %s", e.Kind, e.Node, e.Vert)
	case !e.Face.IsNil():
		return fmt.Sprintf("pbvh: %s: node %d face %s", e.Kind, e.Node, e.Face)
	default:
		return fmt.Sprintf("pbvh: %s: node %d", e.Kind, e.Node)
	}
}

// Verify checks the tree against the mesh and returns every inconsistency
// found. An empty result means every face is in exactly one leaf matching
// its Leaf field, and every vertex used by a face is unique in exactly the
// leaf its Leaf field names.
func (t *Tree) Verify() []*CorruptionError {
	m := t.mesh
	var errs []*CorruptionError
	report := func(k Kind, node int, v mesh.VertID, f mesh.FaceID) {
		errs = append(errs, &CorruptionError{Kind: k, Node: node, Vert: v, Face: f})
	}

	for i, n := range t.nodes {
		if n.Flag&FlagDelete != 0 {
			continue
		}
		if !n.IsLeaf() {
			if n.Children <= i || n.Children+1 >= len(t.nodes) {
				report(KindNodeStructure, i, mesh.VertID{}, mesh.FaceID{})
				continue
			}
			for _, c := range []int{n.Children, n.Children + 1} {
				if t.nodes[c].Parent != i || t.nodes[c].Flag&FlagDelete != 0 {
					report(KindNodeStructure, c, mesh.VertID{}, mesh.FaceID{})
				}
			}
			if n.Faces.Len()+n.UniqueVerts.Len()+n.OtherVerts.Len() > 0 {
				report(KindNodeStructure, i, mesh.VertID{}, mesh.FaceID{})
			}
			continue
		}

		for _, f := range n.Faces.Items() {
			fp := m.Face(f)
			if fp == nil {
				report(KindFaceDead, i, mesh.VertID{}, f)
				continue
			}
			if int(fp.Leaf) != i {
				report(KindFaceLeafMismatch, i, mesh.VertID{}, f)
			}
			for l := range m.LoopsOfFace(f) {
				v := m.Loop(l).V
				if !n.UniqueVerts.Has(v) && !n.OtherVerts.Has(v) {
					report(KindVertMissing, i, v, f)
				}
			}
		}
		for _, v := range n.UniqueVerts.Items() {
			vp := m.Vert(v)
			switch {
			case vp == nil:
				report(KindVertDead, i, v, mesh.FaceID{})
			case int(vp.Leaf) != i:
				report(KindVertUniqueElsewhere, i, v, mesh.FaceID{})
			case n.OtherVerts.Has(v):
				report(KindVertBothSets, i, v, mesh.FaceID{})
			}
		}
		for _, v := range n.OtherVerts.Items() {
			if m.Vert(v) == nil {
				report(KindVertDead, i, v, mesh.FaceID{})
			}
		}
	}

	for f := range m.Faces() {
		fp := m.Face(f)
		n := t.leaf(fp.Leaf)
		if n == nil || !n.IsLeaf() || n.Flag&FlagDelete != 0 {
			report(KindFaceUnowned, int(fp.Leaf), mesh.VertID{}, f)
			continue
		}
		if !n.Faces.Has(f) {
			report(KindFaceLeafMismatch, int(fp.Leaf), mesh.VertID{}, f)
		}
	}

	for v := range m.Verts() {
		if len(m.VertLoops(v)) == 0 {
			continue
		}
		vp := m.Vert(v)
		n := t.leaf(vp.Leaf)
		if n == nil || !n.IsLeaf() || n.Flag&FlagDelete != 0 {
			report(KindVertUnowned, int(vp.Leaf), v, mesh.FaceID{})
			continue
		}
		if !n.UniqueVerts.Has(v) {
			report(KindVertOwnerMismatch, int(vp.Leaf), v, mesh.FaceID{})
		}
	}

	for _, e := range errs {
		corruptionTotal.WithLabelValues(e.Kind.String()).Inc()
	}
	return errs
}

// Repair logs every inconsistency reported by Verify and derives leaf
// membership and vertex ownership again from the faces. Faces held by no
// leaf are inserted with AddFace. It returns the number of problems found.
func (t *Tree) Repair() int {
	errs := t.Verify()
	if len(errs) == 0 {
		return 0
	}
	for _, e := range errs {
		t.logger.Warn("tree corruption",
			zap.Stringer("kind", e.Kind),
			zap.Int("node", e.Node),
			zap.Stringer("vert", e.Vert),
			zap.Stringer("face", e.Face))
	}

	m := t.mesh
	for v := range m.Verts() {
		m.Vert(v).Leaf = mesh.NoLeaf
	}
	for f := range m.Faces() {
		m.Face(f).Leaf = mesh.NoLeaf
	}

	// first leaf to hold a live face keeps it
	leaves := t.Leaves()
	for _, i := range leaves {
		n := t.nodes[i]
		faces := n.Faces.Slice()
		n.clearSets()
		n.dropOrig()
		for _, f := range faces {
			if fp := m.Face(f); fp != nil && fp.Leaf == mesh.NoLeaf {
				fp.Leaf = int32(i)
				n.Faces.Add(f)
			}
		}
	}
	for _, i := range leaves {
		t.finalizeLeaf(i)
	}
	for f := range m.Faces() {
		if m.Face(f).Leaf == mesh.NoLeaf {
			if _, err := t.AddFace(f); err != nil {
				t.logger.Error("face reinsertion failed", zap.Stringer("face", f), zap.Error(err))
			}
		}
	}
	t.UpdateBounds()
	return len(errs)
}
