package match_test

import (
	"context"
	"math"
	"testing"

	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/match"
	"github.com/katalvlaran/dagmatch/similarity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeAttrs struct {
	id    string
	attrs []float64
}

func build(t testing.TB, name string, nodes []nodeAttrs, edges ...[2]string) *dag.Graph {
	t.Helper()
	b := dag.NewBuilder(name)
	for _, n := range nodes {
		require.NoError(t, b.AddNode(dag.Node{ID: n.id, Mass: 1, Cost: 1, Attrs: n.attrs}))
	}
	for _, e := range edges {
		require.NoError(t, b.AddEdge(dag.Edge{From: e[0], To: e[1], Weight: 1}))
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// hand is a small shape graph whose attribute vectors point in distinct
// directions, so only identical nodes are fully similar.
func hand(t testing.TB) *dag.Graph {
	return build(t, "hand",
		[]nodeAttrs{
			{"palm", []float64{1, 0}},
			{"thumb", []float64{0, 1}},
			{"index", []float64{1, 1}},
			{"tip", []float64{2, 1}},
			{"nail", []float64{1, 3}},
			{"pinky", []float64{3, 1}},
		},
		[2]string{"palm", "thumb"}, [2]string{"palm", "index"}, [2]string{"palm", "pinky"},
		[2]string{"index", "tip"}, [2]string{"tip", "nail"},
	)
}

// paw differs from hand in attributes and shape.
func paw(t testing.TB) *dag.Graph {
	return build(t, "paw",
		[]nodeAttrs{
			{"pad", []float64{1.1, 0.1}},
			{"toe1", []float64{0.2, 1}},
			{"toe2", []float64{1, 1.3}},
			{"claw", []float64{2, 1.4}},
			{"toe3", []float64{2.8, 1}},
			{"dew", []float64{0.5, 2.5}},
			{"web", []float64{1.5, 1.5}},
		},
		[2]string{"pad", "toe1"}, [2]string{"pad", "toe2"}, [2]string{"pad", "toe3"},
		[2]string{"toe2", "claw"}, [2]string{"toe1", "dew"}, [2]string{"toe2", "web"},
		[2]string{"toe3", "web"},
	)
}

func newMatcher(t *testing.T, meas similarity.Measurer, mod func(*match.Options), opts ...match.MatcherOption) *match.Matcher {
	t.Helper()
	o := match.DefaultOptions()
	if mod != nil {
		mod(&o)
	}
	m, err := match.New(meas, o, opts...)
	require.NoError(t, err)
	return m
}

func TestMatch_IdentityIsOne(t *testing.T) {
	variants := map[string]func(*match.Options){
		"default":     nil,
		"best-first":  func(o *match.Options) { o.Frontier = match.FrontierBestFirst },
		"bp":          func(o *match.Options) { o.Solver = match.SolverBeliefPropagation },
		"greedy":      func(o *match.Options) { o.Algorithm = match.AlgorithmGreedy },
		"assignment":  func(o *match.Options) { o.Algorithm = match.AlgorithmAssignment },
		"no-roots":    func(o *match.Options) { o.IncludeRoots = false },
		"mean-params": func(o *match.Options) { o.NodeSimilarity = match.NodeSimilarityMean },
	}
	for name, mod := range variants {
		t.Run(name, func(t *testing.T) {
			g := hand(t)
			m := newMatcher(t, similarity.Attribute{}, mod)
			res, err := m.Match(context.Background(), g, g)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, res.Similarity, 1e-9)

			want := g.NumNodes()
			if !m.Options().IncludeRoots {
				want--
			}
			require.Len(t, res.NodeMap, want)
			for _, c := range res.NodeMap {
				assert.Equal(t, c.Query, c.Model)
				assert.Equal(t, c.QueryIndex, c.ModelIndex)
				assert.InDelta(t, 1.0, c.Similarity, 1e-9)
			}
			assert.Equal(t, res.NodeMap, m.NodeMap())
		})
	}
}

func TestMatch_RelativeMassIdentity(t *testing.T) {
	g := hand(t)
	m := newMatcher(t, similarity.Attribute{}, func(o *match.Options) { o.RelativeMass = true })
	res, err := m.Match(context.Background(), g, g)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Normalization)
	assert.InDelta(t, 1.0, res.Similarity, 1e-9, "relative masses sum to one")
}

func TestMatch_SingleNode(t *testing.T) {
	q := build(t, "q", []nodeAttrs{{"rootQ", []float64{0.4, 2}}})
	g := build(t, "m", []nodeAttrs{{"rootM", []float64{0.4, 2}}})
	m := newMatcher(t, similarity.Attribute{}, nil)

	res, err := m.Match(context.Background(), q, g)
	require.NoError(t, err)
	assert.Equal(t, match.StatusComplete, res.Status)
	assert.InDelta(t, 1.0, res.Similarity, 1e-12)
	require.Len(t, res.NodeMap, 1)
	assert.Equal(t, "rootQ", res.NodeMap[0].Query)
	assert.Equal(t, "rootM", res.NodeMap[0].Model)
}

func TestMatch_PrefersStraightPairing(t *testing.T) {
	q := build(t, "q",
		[]nodeAttrs{{"R", []float64{0}}, {"A", []float64{1}}, {"B", []float64{5}}},
		[2]string{"R", "A"}, [2]string{"R", "B"})
	g := build(t, "m",
		[]nodeAttrs{{"R'", []float64{0}}, {"A'", []float64{1.5}}, {"B'", []float64{5}}},
		[2]string{"R'", "A'"}, [2]string{"R'", "B'"})

	meas := similarity.Attribute{Models: 1}
	m := newMatcher(t, meas, func(o *match.Options) {
		o.TSVWeight = 0
		o.EdgeWeight = 0
	})
	res, err := m.Match(context.Background(), q, g)
	require.NoError(t, err)
	assert.Equal(t, match.StatusComplete, res.Status)

	pairs := map[string]string{}
	for _, c := range res.NodeMap {
		pairs[c.Query] = c.Model
	}
	assert.Equal(t, map[string]string{"R": "R'", "A": "A'", "B": "B'"}, pairs)

	var sum float64
	for _, id := range [][2]string{{"R", "R'"}, {"A", "A'"}, {"B", "B'"}} {
		u, _ := q.Index(id[0])
		v, _ := g.Index(id[1])
		sum += meas.NodeSimilarity(q, u, g, v, 0)
	}
	assert.InDelta(t, 3.0, res.Normalization, 0)
	assert.InDelta(t, sum/3, res.Similarity, 1e-12)
	assert.InDelta(t, sum, res.Raw, 1e-12)
}

func TestMatch_AllZeroIsEmpty(t *testing.T) {
	m := newMatcher(t, zeroMeasurer{}, func(o *match.Options) {
		o.TSVWeight = 0
		o.EdgeWeight = 0
	})
	res, err := m.Match(context.Background(), hand(t), paw(t))
	require.NoError(t, err)
	assert.Equal(t, match.StatusEmpty, res.Status)
	assert.Zero(t, res.Similarity)
	assert.Empty(t, res.NodeMap)
}

func TestMatch_CapOneIsGreedy(t *testing.T) {
	q, g := hand(t), paw(t)

	capped := newMatcher(t, similarity.Attribute{}, func(o *match.Options) { o.MaxSolutionSets = 1 })
	got, err := capped.Match(context.Background(), q, g)
	require.NoError(t, err)
	assert.Equal(t, match.StatusBudgetExhausted, got.Status)
	assert.Equal(t, 1, got.Stats.SolutionSets)

	greedy := newMatcher(t, similarity.Attribute{}, func(o *match.Options) { o.Algorithm = match.AlgorithmGreedy })
	want, err := greedy.Match(context.Background(), q, g)
	require.NoError(t, err)

	assert.Equal(t, want.NodeMap, got.NodeMap)
	assert.InDelta(t, want.Similarity, got.Similarity, 1e-12)
}

func TestMatch_SearchBeatsGreedy(t *testing.T) {
	q, g := hand(t), paw(t)
	search := newMatcher(t, similarity.Attribute{}, nil)
	greedy := newMatcher(t, similarity.Attribute{}, func(o *match.Options) { o.Algorithm = match.AlgorithmGreedy })

	s, err := search.Match(context.Background(), q, g)
	require.NoError(t, err)
	gr, err := greedy.Match(context.Background(), q, g)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Raw, gr.Raw-1e-9)
	assert.Positive(t, s.Stats.Expansions)
	assert.NotEmpty(t, s.Stats.RunID)
}

func TestMatch_WorkersAgree(t *testing.T) {
	q, g := hand(t), paw(t)
	seq := newMatcher(t, similarity.Attribute{}, nil)
	par := newMatcher(t, similarity.Attribute{}, func(o *match.Options) { o.Workers = 4 })

	a, err := seq.Match(context.Background(), q, g)
	require.NoError(t, err)
	b, err := par.Match(context.Background(), q, g)
	require.NoError(t, err)
	assert.Equal(t, a.NodeMap, b.NodeMap)
	assert.Equal(t, a.Similarity, b.Similarity)
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.Stats.SolutionSets, b.Stats.SolutionSets)
}

func TestMatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newMatcher(t, similarity.Attribute{}, nil)
	res, err := m.Match(ctx, hand(t), paw(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, match.StatusCancelled, res.Status)
	assert.Empty(t, res.NodeMap)
}

func TestMatch_InvariantViolation(t *testing.T) {
	m := newMatcher(t, brokenMeasurer{}, nil)
	_, err := m.Match(context.Background(), hand(t), paw(t))
	require.ErrorIs(t, err, match.ErrInvariant)

	strict := newMatcher(t, brokenMeasurer{}, func(o *match.Options) { o.Strict = true })
	assert.Panics(t, func() { _, _ = strict.Match(context.Background(), hand(t), paw(t)) })
}

func TestMatch_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := match.NewMetrics(reg)
	m := newMatcher(t, similarity.Attribute{}, nil, match.WithMetrics(mt))

	_, err := m.Match(context.Background(), hand(t), paw(t))
	require.NoError(t, err)
	_, err = m.Match(context.Background(), hand(t), hand(t))
	require.NoError(t, err)

	runs := testutil.ToFloat64(mt.Runs.WithLabelValues("complete")) +
		testutil.ToFloat64(mt.Runs.WithLabelValues("budget_exhausted"))
	assert.Equal(t, 2.0, runs)
	assert.Positive(t, testutil.ToFloat64(mt.SolutionSets))
	assert.Positive(t, testutil.ToFloat64(mt.Expansions))
	assert.Equal(t, 1, testutil.CollectAndCount(mt.Duration))
}

func TestMatcher_API(t *testing.T) {
	_, err := match.New(nil, match.DefaultOptions())
	require.ErrorIs(t, err, match.ErrNilMeasurer)

	bad := match.DefaultOptions()
	bad.MaxChildren = 0
	_, err = match.New(similarity.Attribute{}, bad)
	require.ErrorIs(t, err, match.ErrInvalidOptions)

	m := newMatcher(t, similarity.Attribute{}, nil)
	_, err = m.Match(context.Background(), nil, hand(t))
	require.ErrorIs(t, err, match.ErrNilGraph)
	assert.Empty(t, m.NodeMap())

	o := m.Options()
	o.MaxSolutionSets = 7
	require.NoError(t, m.SetOptions(o))
	assert.Equal(t, 7, m.Options().MaxSolutionSets)
	require.ErrorIs(t, m.SetOptions(bad), match.ErrInvalidOptions)
	assert.Equal(t, 7, m.Options().MaxSolutionSets, "rejected options are not applied")
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*match.Options)
	}{
		{"tsv weight", func(o *match.Options) { o.TSVWeight = 1.5 }},
		{"edge weight", func(o *match.Options) { o.EdgeWeight = -0.1 }},
		{"floor nan", func(o *match.Options) { o.SiblingPenalty = math.NaN() }},
		{"sigma", func(o *match.Options) { o.AncestorSigma = -1 }},
		{"decay inf", func(o *match.Options) { o.CertaintyDecay = math.Inf(1) }},
		{"sets", func(o *match.Options) { o.MaxSolutionSets = 0 }},
		{"workers", func(o *match.Options) { o.Workers = 0 }},
		{"bp iter", func(o *match.Options) { o.BPMaxIter = 0 }},
		{"bp insurance", func(o *match.Options) { o.BPInsurance = -1 }},
		{"algorithm", func(o *match.Options) { o.Algorithm = 9 }},
		{"frontier", func(o *match.Options) { o.Frontier = -1 }},
	}
	require.NoError(t, match.DefaultOptions().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := match.DefaultOptions()
			tc.mod(&o)
			require.ErrorIs(t, o.Validate(), match.ErrInvalidOptions)
		})
	}
}

func TestOptions_ParseEnums(t *testing.T) {
	a, err := match.ParseAlgorithm(" Greedy ")
	require.NoError(t, err)
	assert.Equal(t, match.AlgorithmGreedy, a)
	assert.Equal(t, "greedy", a.String())

	s, err := match.ParseSolver("bp")
	require.NoError(t, err)
	assert.Equal(t, match.SolverBeliefPropagation, s)

	f, err := match.ParseFrontierPolicy("best-first")
	require.NoError(t, err)
	assert.Equal(t, match.FrontierBestFirst, f)

	_, err = match.ParseNormalization("median")
	require.ErrorIs(t, err, match.ErrInvalidOptions)
	assert.Equal(t, "unknown(9)", match.Algorithm(9).String())
}

type zeroMeasurer struct{}

func (zeroMeasurer) NumParams() int { return 1 }

func (zeroMeasurer) NodeDistance(*dag.Graph, int, *dag.Graph, int, int) float64 { return 1 }

func (zeroMeasurer) NodeSimilarity(*dag.Graph, int, *dag.Graph, int, int) float64 { return 0 }

func (zeroMeasurer) EdgeSimilarity(*dag.Graph, int, *dag.Graph, int, int) float64 { return 0 }

// brokenMeasurer reports a negative distance.
type brokenMeasurer struct{ zeroMeasurer }

func (brokenMeasurer) NodeDistance(*dag.Graph, int, *dag.Graph, int, int) float64 { return -1 }
