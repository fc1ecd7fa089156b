package match

import (
	"context"
	"testing"

	"github.com/katalvlaran/dagmatch/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts *Options) *searchEngine {
	t.Helper()
	root := rootGraph(t, chainTree(t), skewTree(t), similarity.Attribute{}, opts)
	e, err := newSearchEngine(context.Background(), opts, nil, root)
	require.NoError(t, err)
	return e
}

func TestSearch_SolutionSetInvariants(t *testing.T) {
	for _, solver := range []Solver{SolverExact, SolverBeliefPropagation} {
		opts := DefaultOptions()
		opts.Solver = solver
		opts.MaxSolutionSets = 60
		e := newEngine(t, &opts)
		require.NoError(t, e.run())

		assert.Zero(t, e.sets[0].partial)
		assert.LessOrEqual(t, e.stats.created, opts.MaxSolutionSets)
		for id := 1; id < len(e.sets); id++ {
			s, p := e.sets[id], e.sets[e.sets[id].parent]
			require.InDelta(t, p.partial+s.own, s.partial, 1e-12)
			require.InDelta(t, s.info.PenalizedSimilarity(), s.own, 1e-12)
			require.GreaterOrEqual(t, s.estimate, 0.0)
			require.Equal(t, p.depth+1, s.depth)
		}
		require.GreaterOrEqual(t, e.best, 0, "solver %v", solver)
		assert.True(t, e.sets[e.best].complete)
		assert.Len(t, e.chain(e.best), 5)
	}
}

func TestSearch_CapStopsExpansion(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSolutionSets = 4
	opts.GreedyCompletion = false
	e := newEngine(t, &opts)
	require.NoError(t, e.run())

	assert.True(t, e.truncated)
	assert.Equal(t, 4, e.stats.created)
	assert.Equal(t, 2, e.stats.expansions)
	assert.Equal(t, -1, e.best, "no complete solution within four sets")
}

func TestSearch_GreedyCompletion(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSolutionSets = 4
	e := newEngine(t, &opts)
	require.NoError(t, e.run())

	require.GreaterOrEqual(t, e.best, 0)
	assert.Len(t, e.chain(e.best), 5)
}

func TestSearch_Cancelled(t *testing.T) {
	opts := DefaultOptions()
	root := rootGraph(t, chainTree(t), skewTree(t), similarity.Attribute{}, &opts)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, err := newSearchEngine(ctx, &opts, nil, root)
	require.NoError(t, err)
	require.ErrorIs(t, e.run(), context.Canceled)
	assert.Zero(t, e.stats.expansions)
}

func TestFrontier_FIFO(t *testing.T) {
	f := newFrontier(FrontierFIFO)
	for i := 0; i < 100; i++ {
		f.push(i, float64(i%7))
	}
	best, ok := f.best()
	require.True(t, ok)
	assert.Equal(t, 6, best, "first entry with the largest score")
	for i := 0; i < 100; i++ {
		id, ok := f.pop()
		require.True(t, ok)
		require.Equal(t, i, id)
	}
	_, ok = f.pop()
	assert.False(t, ok)
	assert.Zero(t, f.size())
}

func TestFrontier_BestFirst(t *testing.T) {
	f := newFrontier(FrontierBestFirst)
	f.push(0, 1.5)
	f.push(1, 3)
	f.push(2, 3)
	f.push(3, 0.5)
	assert.Equal(t, 4, f.size())

	best, ok := f.best()
	require.True(t, ok)
	assert.Equal(t, 1, best)

	var got []int
	for f.size() > 0 {
		id, _ := f.pop()
		got = append(got, id)
	}
	assert.Equal(t, []int{1, 2, 0, 3}, got)
}
