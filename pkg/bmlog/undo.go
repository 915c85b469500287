package bmlog

import (
	"fmt"

	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// Undo reverts the latest applied entry. Spatial structures built over the
// mesh must be rebuilt afterwards.
func (lg *Log) Undo() error {
	if lg.applied == 0 {
		return ErrNothingToUndo
	}
	e := lg.entries[lg.applied-1]
	for i := len(e.Records) - 1; i >= 0; i-- {
		r := &e.Records[i]
		var err error
		switch r.Kind {
		case VertAdded:
			err = lg.killVert(r.ID)
		case VertRemoved:
			lg.createVert(r.ID, r.Vert)
		case VertModified:
			err = lg.swapVert(r)
		case FaceAdded:
			err = lg.killFace(r.ID)
		case FaceRemoved:
			err = lg.createFace(r.ID, r.Face)
		}
		if err != nil {
			return fmt.Errorf("undo %s %d: %w", r.Kind, r.ID, err)
		}
	}
	lg.applied--
	return nil
}

// Redo reapplies the entry after the latest applied one.
func (lg *Log) Redo() error {
	if lg.applied == len(lg.entries) {
		return ErrNothingToRedo
	}
	e := lg.entries[lg.applied]
	for i := range e.Records {
		r := &e.Records[i]
		var err error
		switch r.Kind {
		case VertAdded:
			lg.createVert(r.ID, r.Vert)
		case VertRemoved:
			err = lg.killVert(r.ID)
		case VertModified:
			err = lg.swapVert(r)
		case FaceAdded:
			err = lg.createFace(r.ID, r.Face)
		case FaceRemoved:
			err = lg.killFace(r.ID)
		}
		if err != nil {
			return fmt.Errorf("redo %s %d: %w", r.Kind, r.ID, err)
		}
	}
	lg.applied++
	return nil
}

func (lg *Log) createVert(id uint32, s VertState) {
	v := lg.m.AddVert(s.Co, mesh.VertID{})
	vp := lg.m.Vert(v)
	vp.No = s.No
	if len(s.Data) == lg.m.VData.BlockSize() {
		lg.m.VData.Copy(s.Data, vp.Data)
	}
	if s.Hidden {
		vp.Flag |= mesh.FlagHidden
	}
	lg.bindVert(id, v)
}

func (lg *Log) killVert(id uint32) error {
	v, ok := lg.VertByID(id)
	if !ok {
		return ErrUnknownID
	}
	lg.m.KillVert(v)
	delete(lg.vertIDs, v)
	return nil
}

// swapVert exchanges the live vertex state with the recorded one so the same
// record serves undo and redo.
func (lg *Log) swapVert(r *Record) error {
	v, ok := lg.VertByID(r.ID)
	if !ok {
		return ErrUnknownID
	}
	cur := lg.snapshotVert(v, -1, false)
	cur.Mask = r.Vert.Mask
	vp := lg.m.Vert(v)
	vp.Co = r.Vert.Co
	vp.No = r.Vert.No
	if len(r.Vert.Data) == lg.m.VData.BlockSize() {
		lg.m.VData.Copy(r.Vert.Data, vp.Data)
	}
	if r.Vert.Hidden {
		vp.Flag |= mesh.FlagHidden
	} else {
		vp.Flag &^= mesh.FlagHidden
	}
	r.Vert = cur
	return nil
}

func (lg *Log) createFace(id uint32, s FaceState) error {
	verts := make([]mesh.VertID, len(s.Verts))
	for i, vid := range s.Verts {
		v, ok := lg.VertByID(vid)
		if !ok {
			return fmt.Errorf("corner %d vertex %d: %w", i, vid, ErrUnknownID)
		}
		verts[i] = v
	}
	f, err := lg.m.AddFace(verts, mesh.FaceID{}, false)
	if err != nil {
		return err
	}
	fp := lg.m.Face(f)
	fp.Mat, fp.Flag = s.Mat, s.Flag
	if len(s.Data) == lg.m.FData.BlockSize() {
		lg.m.FData.Copy(s.Data, fp.Data)
	}
	for i, l := range lg.m.FaceLoops(f) {
		if i < len(s.Corners) && len(s.Corners[i]) == lg.m.LData.BlockSize() {
			lg.m.LData.Copy(s.Corners[i], lg.m.Loop(l).Data)
		}
	}
	lg.bindFace(id, f)
	return nil
}

func (lg *Log) killFace(id uint32) error {
	f, ok := lg.FaceByID(id)
	if !ok {
		return ErrUnknownID
	}
	edges := lg.m.FaceEdges(f)
	lg.m.KillFace(f)
	delete(lg.faceIDs, f)
	for _, e := range edges {
		if lg.m.EdgeIsWire(e) {
			lg.m.KillEdge(e)
		}
	}
	return nil
}
