// Package mesh implements a boundary-representation triangle mesh with
// vertex disk cycles and edge radial cycles.
//
// Elements live in arenas and are addressed by generation-checked handles.
// Pointers returned by Vert, Edge, Loop and Face stay valid until the element
// is killed; a killed element's handle never resolves again.
package mesh

import (
	"errors"
	"iter"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
)

// NoLeaf marks an element that is not owned by any tree leaf.
const NoLeaf int32 = -1

var (
	ErrInvalidHandle  = errors.New("invalid element handle")
	ErrDegenerateFace = errors.New("degenerate face")
	ErrFaceExists     = errors.New("face already exists")
	ErrCorrupt        = errors.New("mesh adjacency corrupt")
)

// Flag holds per-element state bits.
type Flag uint16

const (
	FlagHidden Flag = 1 << iota
	FlagSelect
	FlagSeam
	FlagSharp
	FlagSmooth
	FlagTag
	FlagTagAlt
)

// Vert is a mesh vertex.
type Vert struct {
	Co     r3.Vec
	No     r3.Vec
	Flag   Flag
	Data   attr.Block
	Leaf   int32
	Sculpt SculptVert

	e EdgeID
}

// diskLink is one endpoint's position in a vertex disk cycle.
type diskLink struct {
	next, prev EdgeID
}

// Edge connects two vertices.
type Edge struct {
	V1, V2 VertID
	Flag   Flag
	Data   attr.Block

	l      LoopID
	d1, d2 diskLink
}

// Loop is one face corner. Link fields are maintained by Mesh.
type Loop struct {
	V          VertID
	E          EdgeID
	F          FaceID
	Next       LoopID
	Prev       LoopID
	RadialNext LoopID
	RadialPrev LoopID
	Data       attr.Block
}

// Face is a polygon; the remesher keeps every face a triangle.
type Face struct {
	No   r3.Vec
	Mat  int16
	Flag Flag
	Data attr.Block
	Leaf int32

	l   LoopID
	len int
}

// Len returns the number of corners.
func (f *Face) Len() int { return f.len }

// First returns the first corner.
func (f *Face) First() LoopID { return f.l }

// Domain selects an element kind for attribute layers.
type Domain int

const (
	DomainVert Domain = iota
	DomainEdge
	DomainLoop
	DomainFace
)

// Mesh stores vertices, edges, loops and faces with their attribute layouts.
type Mesh struct {
	VData *attr.Store
	EData *attr.Store
	LData *attr.Store
	FData *attr.Store

	verts pool[Vert]
	edges pool[Edge]
	loops pool[Loop]
	faces pool[Face]
}

// New creates an empty mesh with no attribute layers.
func New() *Mesh {
	return &Mesh{
		VData: attr.NewStore(),
		EData: attr.NewStore(),
		LData: attr.NewStore(),
		FData: attr.NewStore(),
	}
}

// Vert returns the vertex or nil when the handle is stale.
func (m *Mesh) Vert(v VertID) *Vert { return m.verts.get(v.idx, v.gen) }

// Edge returns the edge or nil when the handle is stale.
func (m *Mesh) Edge(e EdgeID) *Edge { return m.edges.get(e.idx, e.gen) }

// Loop returns the loop or nil when the handle is stale.
func (m *Mesh) Loop(l LoopID) *Loop { return m.loops.get(l.idx, l.gen) }

// Face returns the face or nil when the handle is stale.
func (m *Mesh) Face(f FaceID) *Face { return m.faces.get(f.idx, f.gen) }

// VertAlive reports whether v refers to a live vertex.
func (m *Mesh) VertAlive(v VertID) bool { return m.Vert(v) != nil }

// EdgeAlive reports whether e refers to a live edge.
func (m *Mesh) EdgeAlive(e EdgeID) bool { return m.Edge(e) != nil }

// FaceAlive reports whether f refers to a live face.
func (m *Mesh) FaceAlive(f FaceID) bool { return m.Face(f) != nil }

// NumVerts returns the live vertex count.
func (m *Mesh) NumVerts() int { return m.verts.count }

// NumEdges returns the live edge count.
func (m *Mesh) NumEdges() int { return m.edges.count }

// NumLoops returns the live loop count.
func (m *Mesh) NumLoops() int { return m.loops.count }

// NumFaces returns the live face count.
func (m *Mesh) NumFaces() int { return m.faces.count }

// VertCapacity returns one past the highest vertex slot ever used.
func (m *Mesh) VertCapacity() int { return len(m.verts.items) }

// Verts iterates live vertices in slot order.
func (m *Mesh) Verts() iter.Seq[VertID] {
	return func(yield func(VertID) bool) {
		m.verts.each(func(idx, gen uint32) bool { return yield(VertID{idx, gen}) })
	}
}

// Edges iterates live edges in slot order.
func (m *Mesh) Edges() iter.Seq[EdgeID] {
	return func(yield func(EdgeID) bool) {
		m.edges.each(func(idx, gen uint32) bool { return yield(EdgeID{idx, gen}) })
	}
}

// Faces iterates live faces in slot order.
func (m *Mesh) Faces() iter.Seq[FaceID] {
	return func(yield func(FaceID) bool) {
		m.faces.each(func(idx, gen uint32) bool { return yield(FaceID{idx, gen}) })
	}
}

// AddLayer adds an attribute layer to a domain and grows every existing block.
// On failure the mesh is left unchanged.
func (m *Mesh) AddLayer(d Domain, name string, typ attr.Type) (attr.Layer, error) {
	store := m.store(d)
	l, err := store.AddLayer(name, typ)
	if err != nil {
		return attr.Layer{}, err
	}
	switch d {
	case DomainVert:
		for _, v := range m.verts.items {
			if v != nil {
				v.Data = store.Grow(v.Data)
			}
		}
	case DomainEdge:
		for _, e := range m.edges.items {
			if e != nil {
				e.Data = store.Grow(e.Data)
			}
		}
	case DomainLoop:
		for _, lp := range m.loops.items {
			if lp != nil {
				lp.Data = store.Grow(lp.Data)
			}
		}
	case DomainFace:
		for _, f := range m.faces.items {
			if f != nil {
				f.Data = store.Grow(f.Data)
			}
		}
	}
	return l, nil
}

func (m *Mesh) store(d Domain) *attr.Store {
	switch d {
	case DomainEdge:
		return m.EData
	case DomainLoop:
		return m.LData
	case DomainFace:
		return m.FData
	default:
		return m.VData
	}
}

// VertMask returns the paint mask of v, or 0 without a mask layer.
func (m *Mesh) VertMask(v VertID, maskOffset int) float64 {
	vp := m.Vert(v)
	if vp == nil || maskOffset < 0 {
		return 0
	}
	return attr.Float(vp.Data, maskOffset)
}
