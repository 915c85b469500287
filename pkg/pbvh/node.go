package pbvh

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// NodeFlag holds node state and pending update bits.
type NodeFlag uint32

const (
	FlagLeaf NodeFlag = 1 << iota
	FlagUpdateTopology
	FlagTopologyUpdated
	FlagUpdateNormals
	FlagUpdateBB
	FlagUpdateOriginalBB
	FlagUpdateRedraw
	FlagUpdateDrawBuffers
	FlagUpdateTris
	FlagFullyHidden
	FlagDelete
	FlagRebuild
)

var flagNames = []string{
	"leaf", "update-topology", "topology-updated", "update-normals",
	"update-bb", "update-original-bb", "update-redraw", "update-draw-buffers",
	"update-tris", "fully-hidden", "delete", "rebuild",
}

func (f NodeFlag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Tri is one visible triangle of a leaf, cached for drawing and picking.
type Tri struct {
	Face  mesh.FaceID
	Verts [3]mesh.VertID
}

// Node is a tree node. Only leaves own faces and vertices.
type Node struct {
	Bounds     smath.Bounds
	OrigBounds smath.Bounds

	// Children is the index of the first child; the second child follows it.
	// Zero for leaves since the root can never be a child.
	Children int
	Parent   int
	Depth    int
	Flag     NodeFlag

	UniqueVerts *Set[mesh.VertID]
	OtherVerts  *Set[mesh.VertID]
	Faces       *Set[mesh.FaceID]

	Tris []Tri

	origCo    []r3.Vec
	origVerts []mesh.VertID
	origTris  [][3]int32
	origFaces []mesh.FaceID
}

func newNode(parent, depth int) *Node {
	return &Node{
		Bounds:      smath.EmptyBounds(),
		OrigBounds:  smath.EmptyBounds(),
		Parent:      parent,
		Depth:       depth,
		UniqueVerts: NewSet[mesh.VertID](0),
		OtherVerts:  NewSet[mesh.VertID](0),
		Faces:       NewSet[mesh.FaceID](0),
	}
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool { return n.Flag&FlagLeaf != 0 }

// HasOrig reports whether an original triangle snapshot is saved.
func (n *Node) HasOrig() bool { return n.origTris != nil }

// MarkTopologyUpdate requests a topology pass over n.
func (n *Node) MarkTopologyUpdate() { n.Flag |= FlagUpdateTopology }

// MarkRebuild flags n for a full redraw and triangle refresh.
func (n *Node) MarkRebuild() {
	n.Flag |= FlagRebuild | FlagUpdateDrawBuffers | FlagUpdateRedraw | FlagUpdateTris | FlagUpdateBB
}

func (n *Node) dropOrig() {
	n.origCo = nil
	n.origVerts = nil
	n.origTris = nil
	n.origFaces = nil
}

func (n *Node) clearSets() {
	n.UniqueVerts.Clear()
	n.OtherVerts.Clear()
	n.Faces.Clear()
	n.Tris = nil
}
