package pbvh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	leafSplitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_pbvh_leaf_splits_total",
		Help: "Total number of leaves split for exceeding the leaf limit",
	})

	leafJoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_pbvh_leaf_joins_total",
		Help: "Total number of subtrees collapsed into a single leaf",
	})

	balanceMovesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sculptmesh_pbvh_balance_faces_moved_total",
		Help: "Total number of faces reinserted by tree balancing",
	})

	nodesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sculptmesh_pbvh_nodes",
		Help: "Number of nodes after the most recent build or compaction",
	})

	corruptionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sculptmesh_pbvh_corruption_total",
		Help: "Structural inconsistencies found by verification",
	}, []string{"kind"})
)
