package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/sculptmesh/internal/config"
	"github.com/Faultbox/sculptmesh/internal/logger"
	"github.com/Faultbox/sculptmesh/internal/parallel"
	"github.com/Faultbox/sculptmesh/pkg/dyntopo"
	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
	"github.com/Faultbox/sculptmesh/pkg/pbvh"
)

type strokeOptions struct {
	strokes  int
	dabs     int
	brush    float64
	symmetry int
}

func strokeFlags(fs *flag.FlagSet) *strokeOptions {
	so := &strokeOptions{}
	fs.IntVar(&so.strokes, "strokes", 3, "Number of strokes")
	fs.IntVar(&so.dabs, "dabs", 8, "Topology updates per stroke")
	fs.Float64Var(&so.brush, "brush", 0.25, "Brush radius relative to the mesh size")
	fs.IntVar(&so.symmetry, "symmetry", dyntopo.NoSymmetry, "Mirror axis 0, 1 or 2")
	return so
}

func modeOf(cfg *config.Config) dyntopo.Mode {
	var mode dyntopo.Mode
	if cfg.Remesh.Subdivide {
		mode |= dyntopo.ModeSubdivide
	}
	if cfg.Remesh.Collapse {
		mode |= dyntopo.ModeCollapse
	}
	if cfg.Remesh.Cleanup {
		mode |= dyntopo.ModeCleanup
	}
	return mode
}

// run drags so.strokes strokes across m, each a line of dabs snapped to the
// surface by raycasting, and prints the report.
func run(cfg *config.Config, name string, m *mesh.Mesh, so strokeOptions) {
	pool := parallel.NewPool(cfg.Remesh.Workers)
	defer pool.Close()

	e := dyntopo.New(m, nil, dyntopo.Options{
		DetailSize:      cfg.Remesh.DetailSize,
		MaxSteps:        cfg.Remesh.MaxSteps,
		BalanceInterval: cfg.Tree.BalanceInterval,
		Verify:          cfg.Tree.Verify,
		Seed:            cfg.Remesh.Seed,
		Tree: pbvh.Options{
			LeafLimit: cfg.Tree.LeafLimit,
			MaxDepth:  cfg.Tree.MaxDepth,
			Logger:    logger.Named("pbvh"),
		},
		Logger: logger.Named("dyntopo"),
		Pool:   pool,
	})

	before := collect(e)
	bounds := e.Tree().Node(0).Bounds
	size := math.Sqrt(smath.LenSq(bounds.Size()))
	center := bounds.Center()
	mode := modeOf(cfg)

	logger.Info("remesh started",
		zap.String("mesh", name),
		zap.Int("faces", m.NumFaces()),
		zap.Stringer("mode", mode),
		zap.Float64("detail", cfg.Remesh.DetailSize),
		zap.Int("workers", pool.Workers()))

	ctx := context.Background()
	start := time.Now()
	updates := 0
	for s := range so.strokes {
		e.BeginStroke()
		for d := range so.dabs {
			hit, view, ok := dab(e.Tree(), center, size, s, d, so)
			if !ok {
				continue
			}
			r := dyntopo.Region{
				Center:       hit,
				Radius:       so.brush * size,
				ViewNormal:   &view,
				SymmetryAxis: so.symmetry,
			}
			if e.UpdateTopology(ctx, mode, r, 0) {
				updates++
			}
		}
		if err := e.EndStroke(ctx); err != nil {
			logger.Warn("stroke finished with oversized leaves", zap.Int("stroke", s), zap.Error(err))
		}
	}
	elapsed := time.Since(start)

	after := collect(e)
	printReport(os.Stdout, name, before, after, updates, elapsed)

	if errs := e.Tree().Verify(); len(errs) > 0 {
		for _, err := range errs {
			logger.Error("tree inconsistent", zap.Error(err))
		}
		os.Exit(1)
	}
	if err := m.Validate(); err != nil {
		logger.Error("mesh inconsistent", zap.Error(err))
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		if err := printMetrics(os.Stdout, cfg.Metrics.Namespace); err != nil {
			logger.Error("failed to gather metrics", zap.Error(err))
		}
	}
}

// dab returns the surface point under dab d of stroke s. Strokes sweep
// across the mesh from a camera circling its center, looking inward.
func dab(t *pbvh.Tree, center r3.Vec, size float64, s, d int, so strokeOptions) (r3.Vec, r3.Vec, bool) {
	angle := float64(s) * math.Pi / float64(max(so.strokes, 1))
	u := (float64(d)/float64(max(so.dabs-1, 1)) - 0.5) * size * 0.8

	view := r3.Vec{X: 0.3 * math.Cos(angle), Y: 0.3 * math.Sin(angle), Z: 1}
	view = smath.Normalize(view)
	across := r3.Vec{X: -math.Sin(angle), Y: math.Cos(angle)}
	origin := r3.Add(r3.Add(center, r3.Scale(u, across)), r3.Scale(size*2, view))

	hit, ok := t.Raycast(smath.NewRay(origin, r3.Scale(-1, view)), true)
	if !ok {
		return r3.Vec{}, view, false
	}
	return r3.Add(origin, r3.Scale(-hit.Depth, view)), view, true
}

// snapshot holds the numbers compared before and after the strokes.
type snapshot struct {
	verts, edges, faces int
	nodes, leaves       int
	maxLeafFaces        int
	minEdge, maxEdge    float64
	avgEdge             float64
	lowValence          int
}

func collect(e *dyntopo.Engine) snapshot {
	m := e.Mesh()
	st := e.Tree().Stats()
	s := snapshot{
		verts:        m.NumVerts(),
		edges:        m.NumEdges(),
		faces:        m.NumFaces(),
		nodes:        st.Nodes,
		leaves:       st.Leaves,
		maxLeafFaces: st.MaxFaces,
		minEdge:      math.Inf(1),
	}
	sum := 0.0
	for ed := range m.Edges() {
		l := math.Sqrt(m.EdgeLenSq(ed))
		s.minEdge = min(s.minEdge, l)
		s.maxEdge = max(s.maxEdge, l)
		sum += l
	}
	if s.edges > 0 {
		s.avgEdge = sum / float64(s.edges)
	} else {
		s.minEdge = 0
	}
	for v := range m.Verts() {
		if val := m.Valence(v); val > 0 && val <= 4 && !m.VertIsBoundary(v) {
			s.lowValence++
		}
	}
	return s
}

func printReport(w io.Writer, name string, before, after snapshot, updates int, elapsed time.Duration) {
	fmt.Fprintf(w, "Mesh:     %s\n", name)
	fmt.Fprintf(w, "Updates:  %d in %v\n", updates, elapsed.Round(time.Microsecond))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-22s %10s %10s\n", "", "before", "after")
	row := func(label string, a, b any) {
		fmt.Fprintf(w, "  %-22s %10v %10v\n", label, a, b)
	}
	row("vertices", before.verts, after.verts)
	row("edges", before.edges, after.edges)
	row("faces", before.faces, after.faces)
	row("tree nodes", before.nodes, after.nodes)
	row("tree leaves", before.leaves, after.leaves)
	row("largest leaf", before.maxLeafFaces, after.maxLeafFaces)
	row("shortest edge", fmt.Sprintf("%.4f", before.minEdge), fmt.Sprintf("%.4f", after.minEdge))
	row("average edge", fmt.Sprintf("%.4f", before.avgEdge), fmt.Sprintf("%.4f", after.avgEdge))
	row("longest edge", fmt.Sprintf("%.4f", before.maxEdge), fmt.Sprintf("%.4f", after.maxEdge))
	row("interior valence <= 4", before.lowValence, after.lowValence)
}
