// SPDX-License-Identifier: MIT

// Package match — the public matcher.
package match

import (
	"context"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/similarity"
)

// Correspondence is one committed (query node → model node) pair.
type Correspondence struct {
	Query      string  `json:"query"`
	Model      string  `json:"model"`
	QueryIndex int     `json:"query_index"`
	ModelIndex int     `json:"model_index"`
	Similarity float64 `json:"similarity"` // penalized similarity at commit time
	Param      int     `json:"param"`
}

// Stats describes the work done by one run.
type Stats struct {
	RunID        string        `json:"run_id"`
	SolutionSets int           `json:"solution_sets"`
	Expansions   int           `json:"expansions"`
	Pruned       int           `json:"pruned"`
	MaxDepth     int           `json:"max_depth"`
	Duration     time.Duration `json:"duration"`
}

// Result is the outcome of Match.
type Result struct {
	// Similarity is Raw / Normalization, in [0,1] for the default settings.
	Similarity float64 `json:"similarity"`

	// Raw is the sum of the committed penalized similarities.
	Raw float64 `json:"raw"`

	// Normalization is the divisor applied to Raw.
	Normalization float64 `json:"normalization"`

	// NodeMap lists the correspondences in commit order.
	NodeMap []Correspondence `json:"node_map"`

	Status Status `json:"status"`
	Stats  Stats  `json:"stats"`
}

// MatcherOption customises a Matcher.
type MatcherOption func(*Matcher)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *log.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMetrics sets the Prometheus collectors updated by every run.
func WithMetrics(mt *Metrics) MatcherOption {
	return func(m *Matcher) { m.metrics = mt }
}

// Matcher compares rooted DAGs. It is safe for concurrent use; every Match
// works on its own snapshot of the options.
type Matcher struct {
	meas    similarity.Measurer
	log     *log.Logger
	metrics *Metrics

	mu   sync.Mutex
	opts Options
	last []Correspondence
}

// New returns a Matcher using meas for attribute similarity.
func New(meas similarity.Measurer, opts Options, options ...MatcherOption) (*Matcher, error) {
	if meas == nil {
		return nil, ErrNilMeasurer
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{meas: meas, opts: opts, log: log.New(io.Discard)}
	for _, o := range options {
		o(m)
	}

	return m, nil
}

// Options returns the current options.
func (m *Matcher) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// SetOptions replaces the options used by subsequent runs.
func (m *Matcher) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()
	return nil
}

// NodeMap returns the correspondences of the most recent completed run.
func (m *Matcher) NodeMap() []Correspondence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Correspondence(nil), m.last...)
}

// Match compares query q against model g.
//
// Budget exhaustion is not an error: the Result carries
// StatusBudgetExhausted. On cancellation the Result holds the best complete
// solution found so far and the error is ctx.Err(). Contract violations of
// the measurer yield an *InvariantError (a panic with Options.Strict).
func (m *Matcher) Match(ctx context.Context, q, g *dag.Graph) (Result, error) {
	if q == nil || g == nil {
		return Result{}, ErrNilGraph
	}
	opts := m.Options()
	start := time.Now()
	runID := uuid.NewString()
	hooks := &runHooks{log: m.log.With("run", runID), metrics: m.metrics}
	hooks.log.Debug("match started",
		"query", q.Name(), "model", g.Name(),
		"query_nodes", q.NumNodes(), "model_nodes", g.NumNodes(),
		"algorithm", opts.Algorithm, "solver", opts.Solver)

	res, err := run(ctx, q, g, m.meas, &opts, hooks)
	res.Stats.RunID = runID
	res.Stats.Duration = time.Since(start)
	hooks.finished(res.Status, res.Stats.Duration)
	if err != nil && res.Status != StatusCancelled {
		hooks.log.Error("match failed", "err", err)
		return res, err
	}

	m.mu.Lock()
	m.last = append([]Correspondence(nil), res.NodeMap...)
	m.mu.Unlock()

	hooks.log.Debug("match finished",
		"status", res.Status, "similarity", res.Similarity,
		"pairs", len(res.NodeMap), "sets", res.Stats.SolutionSets, "elapsed", res.Stats.Duration)

	return res, err
}

// run performs one match with a fixed options snapshot.
func run(ctx context.Context, q, g *dag.Graph, meas similarity.Measurer, opts *Options, hooks *runHooks) (Result, error) {
	sc, err := newScorer(q, g, meas, opts)
	if err != nil {
		return Result{}, err
	}
	root, err := buildBipartite(sc, hooks, opts.IncludeRoots)
	if err != nil {
		return Result{}, err
	}
	norm := normalization(opts, root)
	res := Result{Normalization: norm, Status: StatusComplete}
	if root.NumEdges() == 0 {
		res.Status = StatusEmpty
		return res, nil
	}

	if opts.Algorithm == AlgorithmAssignment {
		total, chosen, err := root.SolveMaxWeightAssignment()
		if err != nil {
			return Result{}, err
		}
		infos := make([]*NodeMatchInfo, len(chosen))
		weights := make([]float64, len(chosen))
		for i, e := range chosen {
			infos[i], weights[i] = root.Info(e), root.Weight(e)
		}
		sort.Sort(byQuery{infos, weights})
		res.NodeMap = correspondences(q, g, infos, weights)
		res.Raw = total
		res.Similarity = total / norm
		return res, nil
	}

	e, err := newSearchEngine(ctx, opts, hooks, root)
	if err != nil {
		return Result{}, err
	}
	var runErr error
	if opts.Algorithm == AlgorithmGreedy {
		var leaf int
		if leaf, runErr = e.dive(0); runErr == nil {
			e.offer(leaf)
		}
	} else {
		runErr = e.run()
	}

	res.Stats = Stats{
		SolutionSets: e.stats.created,
		Expansions:   e.stats.expansions,
		Pruned:       e.stats.pruned,
		MaxDepth:     e.stats.maxDepth,
	}
	switch {
	case runErr != nil && ctx.Err() != nil:
		res.Status = StatusCancelled
	case runErr != nil:
		return res, runErr
	case e.truncated:
		res.Status = StatusBudgetExhausted
	}

	if e.best >= 0 {
		ids := e.chain(e.best)
		infos := make([]*NodeMatchInfo, len(ids))
		weights := make([]float64, len(ids))
		for i, id := range ids {
			infos[i], weights[i] = e.sets[id].info, e.sets[id].own
		}
		res.NodeMap = correspondences(q, g, infos, weights)
		res.Raw = e.sets[e.best].partial
		res.Similarity = res.Raw / norm
	}

	return res, runErr
}

// normalization returns the divisor for the raw similarity.
func normalization(opts *Options, root *BipartiteNodeGraph) float64 {
	if opts.RelativeMass {
		return 1
	}
	nq, nm := float64(root.NumNodes(SideQuery)), float64(root.NumNodes(SideModel))
	var d float64
	switch opts.Normalization {
	case NormalizeMaxNodes:
		d = math.Max(nq, nm)
	case NormalizeMeanNodes:
		d = (nq + nm) / 2
	case NormalizeQueryNodes:
		d = nq
	default:
		d = 1
	}
	if d <= 0 {
		return 1
	}
	return d
}

func correspondences(q, g *dag.Graph, infos []*NodeMatchInfo, weights []float64) []Correspondence {
	out := make([]Correspondence, len(infos))
	for i, mi := range infos {
		p, _ := mi.Param()
		out[i] = Correspondence{
			Query:      q.ID(mi.q),
			Model:      g.ID(mi.m),
			QueryIndex: mi.q,
			ModelIndex: mi.m,
			Similarity: weights[i],
			Param:      p,
		}
	}
	return out
}

// byQuery sorts parallel info/weight slices by query node index.
type byQuery struct {
	infos   []*NodeMatchInfo
	weights []float64
}

func (b byQuery) Len() int           { return len(b.infos) }
func (b byQuery) Less(i, j int) bool { return b.infos[i].q < b.infos[j].q }
func (b byQuery) Swap(i, j int) {
	b.infos[i], b.infos[j] = b.infos[j], b.infos[i]
	b.weights[i], b.weights[j] = b.weights[j], b.weights[i]
}
