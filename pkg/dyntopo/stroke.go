package dyntopo

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Faultbox/sculptmesh/pkg/bmlog"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// BeginStroke opens a log entry for one interaction and snapshots the
// current geometry for raycasting against the pre-stroke state.
func (e *Engine) BeginStroke() *bmlog.Entry {
	entry := e.hist.BeginEntry()
	e.strokeID++
	e.inStroke = true
	for v := range e.mesh.Verts() {
		e.mesh.SnapshotOrig(v, e.strokeID, e.maskOffset)
	}
	for _, i := range e.tree.Leaves() {
		e.tree.SaveOrig(i, e.hist, false)
	}
	e.logger.Debug("stroke started", zap.Int("stroke", e.strokeID), zap.Stringer("entry", entry.ID))
	return entry
}

// InStroke reports whether a stroke is open.
func (e *Engine) InStroke() bool { return e.inStroke }

// EndStroke drops the original snapshots and restores tree quality: leaves
// are split to the limit, small subtrees joined, siblings rebalanced every
// BalanceInterval strokes and the node array compacted. With Options.Verify
// the tree is checked and repaired. A leaf that could not be split is
// reported through the returned error; the tree stays consistent.
func (e *Engine) EndStroke(ctx context.Context) error {
	_, span := tracer.Start(ctx, "dyntopo.EndStroke",
		trace.WithAttributes(attribute.Int("stroke", e.strokeID)))
	defer span.End()

	e.inStroke = false
	e.strokes++
	e.tree.DropOrig()

	splitErr := e.enforceLeafLimit()
	joined := e.tree.Join()
	moved := 0
	if e.strokes%e.opts.BalanceInterval == 0 {
		moved = e.tree.Balance()
	}
	removed := e.tree.Compact()

	repaired := 0
	if e.opts.Verify {
		repaired = e.tree.Repair()
		if repaired > 0 {
			span.SetStatus(codes.Error, "tree repaired")
		}
	}
	e.tree.Update()

	span.SetAttributes(
		attribute.Int("joined", joined),
		attribute.Int("balanced_faces", moved),
		attribute.Int("compacted_nodes", removed),
		attribute.Int("repaired", repaired),
	)
	e.logger.Info("stroke finished",
		zap.Int("stroke", e.strokeID),
		zap.Int("faces", e.mesh.NumFaces()),
		zap.Int("nodes", e.tree.Len()),
		zap.Int("joined", joined),
		zap.Int("balanced_faces", moved),
		zap.Int("repaired", repaired))

	if splitErr != nil {
		span.RecordError(splitErr)
		return fmt.Errorf("end stroke %d: %w", e.strokeID, splitErr)
	}
	return nil
}

// InsertFace adds a face created outside the engine to the tree. N-gons are
// flagged so the next split touching them triangulates them first. It
// returns the owning leaf.
func (e *Engine) InsertFace(f mesh.FaceID) (int, error) {
	fp := e.mesh.Face(f)
	if fp == nil {
		return -1, fmt.Errorf("insert face %v: %w", f, mesh.ErrInvalidHandle)
	}
	idx, err := e.tree.AddFace(f)
	if err != nil {
		return -1, fmt.Errorf("insert face %v: %w", f, err)
	}
	e.hist.FaceAdded(f)
	for _, v := range e.mesh.FaceVerts(f) {
		e.mesh.Invalidate(v)
		if fp.Len() > 3 {
			e.mesh.Vert(v).Sculpt.Flag |= mesh.SculptNeedTriangulate
		}
	}
	e.tree.Node(idx).MarkTopologyUpdate()
	return idx, nil
}
