// SPDX-License-Identifier: MIT

package match

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/katalvlaran/dagmatch/assign"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of a Matcher. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Runs           *prometheus.CounterVec
	Duration       prometheus.Histogram
	SolutionSets   prometheus.Counter
	Expansions     prometheus.Counter
	Pruned         prometheus.Counter
	BPNonConverged prometheus.Counter
	BPIterations   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagmatch_runs_total",
				Help: "Total number of match runs, labeled by final status",
			},
			[]string{"status"},
		),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dagmatch_run_duration_seconds",
			Help:    "Duration of match runs in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		SolutionSets: f.NewCounter(prometheus.CounterOpts{
			Name: "dagmatch_solution_sets_total",
			Help: "Solution sets created by the search, roots excluded",
		}),
		Expansions: f.NewCounter(prometheus.CounterOpts{
			Name: "dagmatch_expansions_total",
			Help: "Solution sets expanded by the search",
		}),
		Pruned: f.NewCounter(prometheus.CounterOpts{
			Name: "dagmatch_pruned_total",
			Help: "Solution sets discarded because their estimate could not beat the incumbent",
		}),
		BPNonConverged: f.NewCounter(prometheus.CounterOpts{
			Name: "dagmatch_bp_nonconverged_total",
			Help: "Belief-propagation solves that hit the iteration cap",
		}),
		BPIterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dagmatch_bp_iterations",
			Help:    "Iterations per belief-propagation solve",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// runHooks carries the logger and metrics of one run. Methods are safe on
// a nil receiver and from concurrent goroutines.
type runHooks struct {
	log     *log.Logger
	metrics *Metrics
}

func (h *runHooks) setsCreated(n int) {
	if h == nil || h.metrics == nil || n == 0 {
		return
	}
	h.metrics.SolutionSets.Add(float64(n))
}

func (h *runHooks) expanded() {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.Expansions.Inc()
}

func (h *runHooks) pruned() {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.Pruned.Inc()
}

func (h *runHooks) beliefPropagation(res assign.BMatching) {
	if h == nil {
		return
	}
	if !res.Converged && h.log != nil {
		h.log.Warn("belief propagation did not converge", "iterations", res.Iterations, "pairs", len(res.Pairs))
	}
	if h.metrics == nil {
		return
	}
	h.metrics.BPIterations.Observe(float64(res.Iterations))
	if !res.Converged {
		h.metrics.BPNonConverged.Inc()
	}
}

func (h *runHooks) finished(st Status, elapsed time.Duration) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.Runs.WithLabelValues(st.String()).Inc()
	h.metrics.Duration.Observe(elapsed.Seconds())
}
