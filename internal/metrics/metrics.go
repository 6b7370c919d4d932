// Package metrics exports solver events as Prometheus metrics.
//
// [Hooks] implements both observability hook interfaces. Register it once at
// startup, then write the collected series to a node-exporter textfile when
// the solve is over:
//
//	reg := prometheus.NewRegistry()
//	h := metrics.NewHooks(reg)
//	observability.SetSolverHooks(h)
//	observability.SetSearchHooks(h)
//	// ... solve
//	prometheus.WriteToTextfile("ddsolve.prom", reg)
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/ddsolve/pkg/observability"
)

const namespace = "ddsolve"

// Hooks records solver events in a Prometheus registry. It is safe for
// concurrent use.
type Hooks struct {
	solves      *prometheus.CounterVec
	incumbent   prometheus.Gauge
	improvement prometheus.Counter
	upperBound  prometheus.Gauge
	duration    prometheus.Histogram
	subproblems *prometheus.CounterVec
	depth       prometheus.Histogram
	compiles    *prometheus.HistogramVec
	nodes       *prometheus.CounterVec
}

var (
	_ observability.SolverHooks = (*Hooks)(nil)
	_ observability.SearchHooks = (*Hooks)(nil)
)

// NewHooks registers the solver metrics in reg.
func NewHooks(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Finished solves by status (proved, interrupted, failed)",
		}, []string{"status"}),
		incumbent: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "incumbent_value",
			Help:      "Objective value of the best known solution",
		}),
		improvement: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incumbent_improvements_total",
			Help:      "Number of times the best known solution improved",
		}),
		upperBound: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upper_bound",
			Help:      "Best proven upper bound of the last solve",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of solves",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		subproblems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subproblems_total",
			Help:      "Subproblems taken from the fringe by outcome",
		}, []string{"outcome"}),
		depth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subproblem_depth",
			Help:      "Depth of the explored subproblems",
			Buckets:   prometheus.LinearBuckets(0, 5, 20),
		}),
		compiles: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of diagram compilations by mode",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"mode"}),
		nodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Diagram nodes created by compilation mode",
		}, []string{"mode"}),
	}
}

func (h *Hooks) OnSolveStart(context.Context, observability.SolveInfo) {}

func (h *Hooks) OnIncumbent(_ context.Context, value int, _ time.Duration) {
	h.incumbent.Set(float64(value))
	h.improvement.Inc()
}

func (h *Hooks) OnSolveComplete(_ context.Context, s observability.SolveSummary) {
	status := "proved"
	switch {
	case s.Err != nil:
		status = "failed"
	case !s.Proved:
		status = "interrupted"
	}
	h.solves.WithLabelValues(status).Inc()
	h.duration.Observe(s.Elapsed.Seconds())
	if s.HasSolution {
		h.incumbent.Set(float64(s.Value))
	}
	h.upperBound.Set(float64(s.UpperBound))
}

func (h *Hooks) OnSubproblem(_ context.Context, _ int, depth int, outcome observability.Outcome) {
	h.subproblems.WithLabelValues(string(outcome)).Inc()
	if outcome == observability.OutcomeExplored {
		h.depth.Observe(float64(depth))
	}
}

func (h *Hooks) OnCompile(_ context.Context, mode string, nodes int, d time.Duration) {
	h.compiles.WithLabelValues(mode).Observe(d.Seconds())
	h.nodes.WithLabelValues(mode).Add(float64(nodes))
}

// WriteFile writes every metric of g to path in the text exposition format.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
