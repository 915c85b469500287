package dyntopo

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("dyntopo")

// Subdivide splits edges longer than the maximum edge length inside r.
// maxSteps > 0 overrides the throttled step count. It reports whether the
// mesh changed.
func (e *Engine) Subdivide(ctx context.Context, r Region, maxSteps int) bool {
	return e.UpdateTopology(ctx, ModeSubdivide, r, maxSteps)
}

// Collapse merges edges shorter than the minimum edge length inside r.
func (e *Engine) Collapse(ctx context.Context, r Region, maxSteps int) bool {
	return e.UpdateTopology(ctx, ModeCollapse, r, maxSteps)
}

// CleanupValence34 dissolves interior vertices of valence 3 and 4 near r.
func (e *Engine) CleanupValence34(ctx context.Context, r Region) bool {
	return e.UpdateTopology(ctx, ModeCleanup, r, 0)
}

// UpdateTopology runs the passes selected by mode over the leaves touching
// r, and over the mirrored region when r names a symmetry axis. Cleanup runs
// before subdivision, after collapse when both are requested. Leaves grown
// past the leaf limit are split afterwards and dirty normals and bounds are
// refreshed. A context cancelled before the call returns false; a started
// pass always runs to completion.
func (e *Engine) UpdateTopology(ctx context.Context, mode Mode, r Region, maxSteps int) bool {
	if ctx.Err() != nil {
		return false
	}
	ctx, span := tracer.Start(ctx, "dyntopo.UpdateTopology",
		trace.WithAttributes(
			attribute.String("mode", mode.String()),
			attribute.Float64("radius", r.Radius),
			attribute.Int("symmetry_axis", r.SymmetryAxis),
		),
	)
	defer span.End()

	regions := []Region{r}
	if r.SymmetryAxis >= 0 && r.SymmetryAxis <= 2 {
		regions = append(regions, MirrorRegion(r, r.SymmetryAxis))
	}

	modified := false
	for _, reg := range regions {
		if e.MarkRegion(reg) == 0 {
			continue
		}
		if mode&ModeCleanup != 0 && mode&ModeCollapse == 0 {
			modified = e.runPass(ctx, "cleanup", reg, e.cleanupValence34) || modified
		}
		if mode&ModeCollapse != 0 {
			modified = e.runPass(ctx, "collapse", reg, func(leaves []int, r Region) int {
				return e.collapse(leaves, r, maxSteps)
			}) || modified
			if mode&ModeCleanup != 0 {
				modified = e.runPass(ctx, "cleanup", reg, e.cleanupValence34) || modified
			}
		}
		if mode&ModeSubdivide != 0 {
			modified = e.runPass(ctx, "subdivide", reg, func(leaves []int, r Region) int {
				return e.subdivide(leaves, r, maxSteps)
			}) || modified
		}
	}

	if modified {
		if err := e.enforceLeafLimit(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "leaf split abandoned")
		}
	}
	e.tree.FinishTopologyPass(e.hist)
	e.tree.Update()

	span.SetAttributes(
		attribute.Bool("modified", modified),
		attribute.Int("faces", e.mesh.NumFaces()),
		attribute.Int("verts", e.mesh.NumVerts()),
	)
	return modified
}

// runPass refreshes the vertex caches of the flagged leaves and runs one
// pass over them.
func (e *Engine) runPass(ctx context.Context, op string, r Region, fn func(leaves []int, r Region) int) bool {
	_, span := tracer.Start(ctx, "dyntopo."+op)
	defer span.End()

	leaves := e.topologyLeaves()
	if len(leaves) == 0 {
		return false
	}
	e.triangulatePending(leaves)
	e.refreshVerts(leaves)

	start := time.Now()
	n := fn(leaves, r)
	elapsed := time.Since(start)
	passDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	span.SetAttributes(attribute.Int("leaves", len(leaves)), attribute.Int("changes", n))
	e.logger.Debug("topology pass",
		zap.String("op", op),
		zap.Int("leaves", len(leaves)),
		zap.Int("changes", n),
		zap.Int("faces", e.mesh.NumFaces()),
		zap.Duration("elapsed", elapsed))
	return n > 0
}

// enforceLeafLimit splits every leaf holding more faces than the limit.
func (e *Engine) enforceLeafLimit() error {
	var first error
	for _, i := range e.tree.Leaves() {
		if _, err := e.tree.EnsureLeafLimit(i); err != nil {
			e.logger.Warn("leaf split abandoned", zap.Int("node", i), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
