// Package bmlog records topology and vertex changes made to a mesh so they
// can be undone and redone.
//
// Vertices and faces are tracked by stable ids that survive being killed and
// recreated. Records are appended in the order mutations happen and grouped
// into entries; undo replays an entry backwards, redo forwards.
package bmlog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrUnknownID     = errors.New("unknown element id")
)

// Kind is the type of a record.
type Kind int

const (
	VertAdded Kind = iota
	VertRemoved
	VertModified
	FaceAdded
	FaceRemoved
)

// String returns the record kind name.
func (k Kind) String() string {
	switch k {
	case VertAdded:
		return "vert-added"
	case VertRemoved:
		return "vert-removed"
	case VertModified:
		return "vert-modified"
	case FaceAdded:
		return "face-added"
	case FaceRemoved:
		return "face-removed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// VertState is a snapshot of one vertex.
type VertState struct {
	Co       r3.Vec
	No       r3.Vec
	Mask     float64
	Hidden   bool
	Color    [4]float64
	HasColor bool
	Data     attr.Block
}

// FaceState is a snapshot of one face.
type FaceState struct {
	Verts   []uint32
	Mat     int16
	Flag    mesh.Flag
	Data    attr.Block
	Corners []attr.Block
}

// Record is one logged mutation.
type Record struct {
	Kind Kind
	ID   uint32
	Vert VertState
	Face FaceState
}

// Entry groups the records of one logical step.
type Entry struct {
	ID      uuid.UUID
	Records []Record

	modified map[uint32]int
}

// Log tracks element ids and the entry history of one mesh.
type Log struct {
	m *mesh.Mesh

	vertIDs map[mesh.VertID]uint32
	idVerts map[uint32]mesh.VertID
	faceIDs map[mesh.FaceID]uint32
	idFaces map[uint32]mesh.FaceID
	nextID  uint32

	entries []*Entry
	applied int
}

// New creates a log for m and assigns ids to every existing element.
func New(m *mesh.Mesh) *Log {
	lg := &Log{
		m:       m,
		vertIDs: make(map[mesh.VertID]uint32),
		idVerts: make(map[uint32]mesh.VertID),
		faceIDs: make(map[mesh.FaceID]uint32),
		idFaces: make(map[uint32]mesh.FaceID),
		nextID:  1,
	}
	for v := range m.Verts() {
		lg.assignVert(v)
	}
	for f := range m.Faces() {
		lg.assignFace(f)
	}
	return lg
}

func (lg *Log) assignVert(v mesh.VertID) uint32 {
	if id, ok := lg.vertIDs[v]; ok {
		return id
	}
	id := lg.nextID
	lg.nextID++
	lg.bindVert(id, v)
	return id
}

func (lg *Log) bindVert(id uint32, v mesh.VertID) {
	lg.vertIDs[v] = id
	lg.idVerts[id] = v
}

func (lg *Log) assignFace(f mesh.FaceID) uint32 {
	if id, ok := lg.faceIDs[f]; ok {
		return id
	}
	id := lg.nextID
	lg.nextID++
	lg.bindFace(id, f)
	return id
}

func (lg *Log) bindFace(id uint32, f mesh.FaceID) {
	lg.faceIDs[f] = id
	lg.idFaces[id] = f
}

// VertID returns the stable id of v.
func (lg *Log) VertID(v mesh.VertID) (uint32, bool) {
	id, ok := lg.vertIDs[v]
	return id, ok
}

// VertByID resolves a stable id to the current vertex handle.
func (lg *Log) VertByID(id uint32) (mesh.VertID, bool) {
	v, ok := lg.idVerts[id]
	return v, ok && lg.m.VertAlive(v)
}

// FaceByID resolves a stable id to the current face handle.
func (lg *Log) FaceByID(id uint32) (mesh.FaceID, bool) {
	f, ok := lg.idFaces[id]
	return f, ok && lg.m.FaceAlive(f)
}

// BeginEntry starts a new entry. Entries that were undone are discarded.
func (lg *Log) BeginEntry() *Entry {
	lg.entries = lg.entries[:lg.applied]
	e := &Entry{ID: uuid.New(), modified: make(map[uint32]int)}
	lg.entries = append(lg.entries, e)
	lg.applied++
	return e
}

// Current returns the entry receiving records, starting one if needed.
func (lg *Log) Current() *Entry {
	if lg.applied == 0 || lg.applied != len(lg.entries) {
		return lg.BeginEntry()
	}
	return lg.entries[lg.applied-1]
}

// Entries returns the applied entries, oldest first.
func (lg *Log) Entries() []*Entry {
	return lg.entries[:lg.applied]
}

func (lg *Log) push(r Record) {
	e := lg.Current()
	e.Records = append(e.Records, r)
}

func (lg *Log) snapshotVert(v mesh.VertID, maskOffset int, trackColor bool) VertState {
	vp := lg.m.Vert(v)
	s := VertState{
		Co:     vp.Co,
		No:     vp.No,
		Hidden: vp.Flag&mesh.FlagHidden != 0,
		Data:   append(attr.Block(nil), vp.Data...),
	}
	if maskOffset >= 0 {
		s.Mask = attr.Float(vp.Data, maskOffset)
	}
	if off := lg.m.VData.Offset(attr.LayerColor); trackColor && off >= 0 {
		s.Color = attr.Float4(vp.Data, off)
		s.HasColor = true
	}
	return s
}

func (lg *Log) snapshotFace(f mesh.FaceID) FaceState {
	fp := lg.m.Face(f)
	s := FaceState{
		Mat:  fp.Mat,
		Flag: fp.Flag,
		Data: append(attr.Block(nil), fp.Data...),
	}
	for l := range lg.m.LoopsOfFace(f) {
		lp := lg.m.Loop(l)
		s.Verts = append(s.Verts, lg.assignVert(lp.V))
		s.Corners = append(s.Corners, append(attr.Block(nil), lp.Data...))
	}
	return s
}

// VertAdded records the creation of v.
func (lg *Log) VertAdded(v mesh.VertID) {
	id := lg.assignVert(v)
	lg.push(Record{Kind: VertAdded, ID: id, Vert: lg.snapshotVert(v, lg.m.VData.Offset(attr.LayerMask), true)})
}

// VertRemoved records v just before it is killed.
func (lg *Log) VertRemoved(v mesh.VertID, maskOffset int) {
	id := lg.assignVert(v)
	lg.push(Record{Kind: VertRemoved, ID: id, Vert: lg.snapshotVert(v, maskOffset, true)})
	delete(lg.vertIDs, v)
}

// VertBeforeModify records the state of v before it changes. Only the first
// modification per entry is kept.
func (lg *Log) VertBeforeModify(v mesh.VertID, maskOffset int, trackColor bool) {
	id := lg.assignVert(v)
	e := lg.Current()
	if _, ok := e.modified[id]; ok {
		return
	}
	e.modified[id] = len(e.Records)
	e.Records = append(e.Records, Record{Kind: VertModified, ID: id, Vert: lg.snapshotVert(v, maskOffset, trackColor)})
}

// FaceAdded records the creation of f.
func (lg *Log) FaceAdded(f mesh.FaceID) {
	id := lg.assignFace(f)
	lg.push(Record{Kind: FaceAdded, ID: id, Face: lg.snapshotFace(f)})
}

// FaceRemoved records f just before it is killed.
func (lg *Log) FaceRemoved(f mesh.FaceID) {
	id := lg.assignFace(f)
	lg.push(Record{Kind: FaceRemoved, ID: id, Face: lg.snapshotFace(f)})
	delete(lg.faceIDs, f)
}

// OriginalCo returns the position v had before the current entry modified
// it. ok is false when v was not modified in the current entry.
func (lg *Log) OriginalCo(v mesh.VertID) (co r3.Vec, ok bool) {
	id, known := lg.vertIDs[v]
	if !known || lg.applied == 0 {
		return r3.Vec{}, false
	}
	e := lg.entries[lg.applied-1]
	i, ok := e.modified[id]
	if !ok {
		return r3.Vec{}, false
	}
	return e.Records[i].Vert.Co, true
}
