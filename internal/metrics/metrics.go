// Package metrics exposes the worker's Prometheus instrumentation.
// promauto registers everything on the default registry; the serve command
// mounts promhttp to export it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksProcessed counts leased tasks by outcome: "expanded" (children
	// enqueued), "completed" (result committed), "dead_end" (no output),
	// "dropped" (malformed, acked without output).
	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motiq_tasks_processed_total",
			Help: "Total number of queue tasks processed, by outcome",
		},
		[]string{"outcome"},
	)

	// ChildrenEnqueued counts partial candidates fanned back out.
	ChildrenEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "motiq_children_enqueued_total",
			Help: "Total number of partial child candidates re-enqueued",
		},
	)

	// ResultsCommitted counts completed mappings written, by whether the
	// write inserted a new record or hit the dedup key.
	ResultsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motiq_results_committed_total",
			Help: "Total number of completed mappings committed",
		},
		[]string{"dedup"},
	)

	// ExpandDuration measures the pure expansion step, excluding queue and
	// store I/O.
	ExpandDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "motiq_expand_duration_seconds",
			Help:    "Duration of single candidate expansion steps",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// QueueDepth tracks outstanding tasks as last observed by a worker.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motiq_queue_depth",
			Help: "Outstanding tasks in the work queue",
		},
	)
)
