// Package dyntopo refines a triangle mesh in place while it is being
// sculpted: long edges are subdivided, short edges collapsed and low valence
// vertices dissolved, all restricted to a brush region.
//
// Candidate edges are gathered from the leaves of a pbvh.Tree flagged for a
// topology update. The scan runs in parallel, one buffer per leaf, and the
// buffers are merged into a single priority queue that is drained on the
// calling goroutine. Every mutation is recorded in a bmlog.Log so a stroke
// can be undone.
//
// Thread safety: an Engine is not safe for concurrent use.
package dyntopo

import (
	"errors"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/internal/parallel"
	"github.com/Faultbox/sculptmesh/pkg/attr"
	"github.com/Faultbox/sculptmesh/pkg/bmlog"
	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
	"github.com/Faultbox/sculptmesh/pkg/pbvh"
)

const (
	// MaxIterations caps the steps of one queue drain.
	MaxIterations = 4096

	// DefaultDetailSize is the initial maximum edge length.
	DefaultDetailSize = 0.1

	// DefaultBalanceInterval is the number of strokes between rebalances.
	DefaultBalanceInterval = 5

	minEdgeFactor = 0.4
)

// NoSymmetry disables mirrored updates in Region.SymmetryAxis.
const NoSymmetry = -1

var ErrBadDetailSize = errors.New("dyntopo: detail size must be positive")

// Mode selects the operations of a topology update.
type Mode uint8

const (
	ModeSubdivide Mode = 1 << iota
	ModeCollapse
	ModeCleanup
)

// String returns the mode names joined by "|".
func (m Mode) String() string {
	if m == 0 {
		return "none"
	}
	s := ""
	for _, p := range []struct {
		bit  Mode
		name string
	}{{ModeSubdivide, "subdivide"}, {ModeCollapse, "collapse"}, {ModeCleanup, "cleanup"}} {
		if m&p.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += p.name
	}
	return s
}

// MaskFunc returns the topology weight of a vertex in [0, 1]. Zero freezes
// the vertex.
type MaskFunc func(v mesh.VertID) float64

// Region is the part of the mesh a topology update may touch.
type Region struct {
	Center r3.Vec
	Radius float64
	// ViewNormal is the unit vector pointing toward the viewer; nil
	// disables projection and front-face culling.
	ViewNormal *r3.Vec
	FrontFace  bool
	// Projected tests triangles against the circle seen along ViewNormal
	// instead of the sphere.
	Projected bool
	// SymmetryAxis mirrors the update across the plane x, y or z = 0.
	// NoSymmetry disables it.
	SymmetryAxis int
	Mask         MaskFunc
}

// MirrorRegion returns r reflected across the symmetry plane of axis.
func MirrorRegion(r Region, axis int) Region {
	out := r
	out.Center = smath.Mirror(r.Center, axis)
	if r.ViewNormal != nil {
		n := smath.Mirror(*r.ViewNormal, axis)
		out.ViewNormal = &n
	}
	out.SymmetryAxis = NoSymmetry
	return out
}

// Options configures an Engine.
type Options struct {
	// DetailSize is the maximum edge length; the minimum is 0.4 of it.
	DetailSize float64
	// MaxSteps overrides the throttled step count of every pass when > 0.
	MaxSteps int
	// BalanceInterval is the number of strokes between tree rebalances.
	BalanceInterval int
	// Verify checks and repairs the tree at the end of every stroke.
	Verify bool
	// TrackColor logs vertex colors along with positions.
	TrackColor bool
	Seed       uint64
	Tree       pbvh.Options
	Logger     *zap.Logger
	// Pool runs the parallel scans. Nil scans on the calling goroutine.
	Pool *parallel.Pool
}

func (o Options) withDefaults() Options {
	if o.DetailSize <= 0 {
		o.DetailSize = DefaultDetailSize
	}
	if o.BalanceInterval <= 0 {
		o.BalanceInterval = DefaultBalanceInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Tree.Logger == nil {
		o.Tree.Logger = o.Logger.Named("pbvh")
	}
	if o.Tree.Pool == nil {
		o.Tree.Pool = o.Pool
	}
	return o
}

// Engine ties a mesh to its tree and operation log.
type Engine struct {
	mesh *mesh.Mesh
	tree *pbvh.Tree
	hist *bmlog.Log
	rng  *rand.Rand

	opts   Options
	logger *zap.Logger

	maxEdgeLen float64
	minEdgeLen float64

	maskOffset    int
	faceSetOffset int

	strokes  int
	strokeID int
	inStroke bool
}

// New triangulates m, builds its tree and returns an engine over it. A nil
// log is replaced by a fresh one.
func New(m *mesh.Mesh, hist *bmlog.Log, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		mesh:   m,
		opts:   opts,
		logger: opts.Logger,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
	e.triangulateAll()
	if hist == nil {
		hist = bmlog.New(m)
	}
	e.hist = hist
	e.tree = pbvh.Build(m, hist, opts.Tree)
	e.refreshOffsets()
	e.maxEdgeLen = opts.DetailSize
	e.minEdgeLen = opts.DetailSize * minEdgeFactor
	return e
}

func (e *Engine) refreshOffsets() {
	e.maskOffset = e.mesh.VData.Offset(attr.LayerMask)
	e.faceSetOffset = e.mesh.FData.Offset(attr.LayerFaceSet)
}

// Mesh returns the remeshed mesh.
func (e *Engine) Mesh() *mesh.Mesh { return e.mesh }

// Tree returns the face tree.
func (e *Engine) Tree() *pbvh.Tree { return e.tree }

// History returns the operation log.
func (e *Engine) History() *bmlog.Log { return e.hist }

// EdgeLimits returns the minimum and maximum edge lengths.
func (e *Engine) EdgeLimits() (minLen, maxLen float64) { return e.minEdgeLen, e.maxEdgeLen }

// SetDetailSize sets the maximum edge length to size and the minimum to 0.4
// of it. +Inf disables subdivision.
func (e *Engine) SetDetailSize(size float64) error {
	if !(size > 0) {
		return ErrBadDetailSize
	}
	e.maxEdgeLen = size
	e.minEdgeLen = size * minEdgeFactor
	if math.IsInf(size, 1) {
		e.minEdgeLen = 0
	}
	return nil
}

// SetEdgeLimits sets both edge lengths directly.
func (e *Engine) SetEdgeLimits(minLen, maxLen float64) {
	e.minEdgeLen, e.maxEdgeLen = minLen, maxLen
}

// Rebuild discards the tree and builds it again from the mesh, typically
// after undo or redo changed the topology.
func (e *Engine) Rebuild() {
	e.refreshOffsets()
	e.tree.Rebuild()
}

// Undo reverts the latest log entry and rebuilds the tree.
func (e *Engine) Undo() error {
	if err := e.hist.Undo(); err != nil {
		return err
	}
	e.Rebuild()
	return nil
}

// Redo reapplies the next log entry and rebuilds the tree.
func (e *Engine) Redo() error {
	if err := e.hist.Redo(); err != nil {
		return err
	}
	e.Rebuild()
	return nil
}

// MarkRegion flags every leaf whose box touches r for a topology update and
// returns how many were flagged.
func (e *Engine) MarkRegion(r Region) int {
	radiusSq := r.Radius * r.Radius
	leaves := e.tree.SearchLeaves(func(n *pbvh.Node) bool {
		if n.Bounds.Empty() {
			return false
		}
		if r.Projected && r.ViewNormal != nil {
			return projectedBoxTouches(n.Bounds, r.Center, radiusSq, *r.ViewNormal)
		}
		return n.Bounds.TouchesSphere(r.Center, radiusSq)
	})
	for _, i := range leaves {
		e.tree.Node(i).MarkTopologyUpdate()
	}
	return len(leaves)
}

// projectedBoxTouches tests the box against an infinite cylinder around the
// view axis through center.
func projectedBoxTouches(b smath.Bounds, center r3.Vec, radiusSq float64, view r3.Vec) bool {
	c := b.Center()
	half := r3.Scale(0.5, b.Size())
	reach := math.Sqrt(smath.LenSq(half))
	d := smath.ProjectOnPlane(r3.Sub(c, center), view)
	r := math.Sqrt(radiusSq) + reach
	return smath.LenSq(d) <= r*r
}

func (e *Engine) isBoundary(v mesh.VertID) bool {
	return e.mesh.EnsureBoundary(v, e.faceSetOffset)&mesh.SculptAnyBoundary != 0
}

func (e *Engine) maskOf(v mesh.VertID) float64 {
	return e.mesh.VertMask(v, e.maskOffset)
}
