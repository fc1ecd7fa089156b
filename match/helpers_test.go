package match

import (
	"testing"

	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/similarity"
	"github.com/stretchr/testify/require"
)

// attrOne compares raw attribute vectors only.
var attrOne = similarity.Attribute{Models: 1}

type tnode struct {
	id    string
	attrs []float64
}

// graphOf builds a graph from nodes (root first) and parent→child pairs.
func graphOf(t testing.TB, name string, nodes []tnode, edges ...[2]string) *dag.Graph {
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

// chainTree is r→{a,b}, a→c, c→d with distinct attribute directions.
func chainTree(t testing.TB) *dag.Graph {
	return graphOf(t, "chain",
		[]tnode{
			{"r", []float64{1, 0}},
			{"a", []float64{0, 1}},
			{"b", []float64{1, 1}},
			{"c", []float64{2, 1}},
			{"d", []float64{1, 3}},
		},
		[2]string{"r", "a"}, [2]string{"r", "b"}, [2]string{"a", "c"}, [2]string{"c", "d"},
	)
}

func node(t testing.TB, g *dag.Graph, id string) int {
	t.Helper()
	v, ok := g.Index(id)
	require.True(t, ok, id)
	return v
}

// constMeasurer returns the same similarity for every pair.
type constMeasurer struct{ sim float64 }

func (c constMeasurer) NumParams() int { return 1 }

func (c constMeasurer) NodeDistance(*dag.Graph, int, *dag.Graph, int, int) float64 { return 0 }

func (c constMeasurer) NodeSimilarity(*dag.Graph, int, *dag.Graph, int, int) float64 { return c.sim }

func (c constMeasurer) EdgeSimilarity(*dag.Graph, int, *dag.Graph, int, int) float64 { return 1 }
