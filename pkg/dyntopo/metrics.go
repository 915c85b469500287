package dyntopo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	splitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_dyntopo_splits_total",
		Help: "Total number of edges split",
	})

	collapsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_dyntopo_collapses_total",
		Help: "Total number of edges collapsed",
	})

	cleanupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_dyntopo_cleanups_total",
		Help: "Total number of valence 3 and 4 vertices dissolved",
	})

	degenerateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_dyntopo_degenerate_skips_total",
		Help: "Triangles not created because an equivalent face existed or the corners were degenerate",
	})

	passDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sculptmesh_dyntopo_pass_duration_seconds",
		Help:    "Duration of a single topology pass",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"op"})

	queueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sculptmesh_dyntopo_queue_size",
		Help: "Candidate edges queued by the most recent scan",
	})
)
