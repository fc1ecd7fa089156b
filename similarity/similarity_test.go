package similarity_test

import (
	"testing"

	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree builds r→{a,b}, b→c with the given attribute vectors.
func tree(t *testing.T, attrs map[string][]float64) *dag.Graph {
	t.Helper()
	b := dag.NewBuilder("t")
	for _, id := range []string{"r", "a", "b", "c"} {
		require.NoError(t, b.AddNode(dag.Node{ID: id, Label: "x", Mass: 1, Attrs: attrs[id]}))
	}
	require.NoError(t, b.AddEdge(dag.Edge{From: "r", To: "a", Weight: 1}))
	require.NoError(t, b.AddEdge(dag.Edge{From: "r", To: "b", Weight: 2}))
	require.NoError(t, b.AddEdge(dag.Edge{From: "b", To: "c", Weight: 1}))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestAttribute_NodeSimilarity(t *testing.T) {
	g := tree(t, map[string][]float64{
		"r": {3, 4},
		"a": {6, 8},
		"b": {3},
		"c": {0, 0},
	})
	m := similarity.Attribute{}
	r, _ := g.Index("r")
	a, _ := g.Index("a")
	bb, _ := g.Index("b")

	assert.Equal(t, 2, m.NumParams())
	assert.Equal(t, 1.0, m.NodeSimilarity(g, r, g, r, similarity.ParamRaw))
	// |(3,4)-(6,8)| = 5 → 1/(1+5).
	assert.InDelta(t, 5.0, m.NodeDistance(g, r, g, a, similarity.ParamRaw), 1e-12)
	assert.InDelta(t, 1.0/6, m.NodeSimilarity(g, r, g, a, similarity.ParamRaw), 1e-12)
	// Scale free: both normalise to (0.6, 0.8).
	assert.InDelta(t, 1.0, m.NodeSimilarity(g, r, g, a, similarity.ParamScaleFree), 1e-12)
	// Padding: (3,0) vs (3,4).
	assert.InDelta(t, 4.0, m.NodeDistance(g, bb, g, r, similarity.ParamRaw), 1e-12)

	scaled := similarity.Attribute{Scale: 5}
	assert.InDelta(t, 0.5, scaled.NodeSimilarity(g, r, g, a, similarity.ParamRaw), 1e-12)
	assert.Equal(t, 1, similarity.Attribute{Models: 1}.NumParams())
}

func TestAttribute_StrictLabels(t *testing.T) {
	b := dag.NewBuilder("l")
	require.NoError(t, b.AddNode(dag.Node{ID: "r", Label: "x"}))
	require.NoError(t, b.AddNode(dag.Node{ID: "s", Label: "y"}))
	require.NoError(t, b.AddEdge(dag.Edge{From: "r", To: "s"}))
	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 0.0, similarity.Attribute{StrictLabels: true}.NodeSimilarity(g, 0, g, 1, 0))
	assert.Equal(t, 1.0, similarity.Attribute{}.NodeSimilarity(g, 0, g, 1, 0))
}

func TestAttribute_EdgeSimilarity(t *testing.T) {
	g := tree(t, nil)
	m := similarity.Attribute{}
	// weights 1 and 2 → 1/(1+1).
	assert.InDelta(t, 0.5, m.EdgeSimilarity(g, 0, g, 1, 0), 1e-12)
	assert.Equal(t, 1.0, m.EdgeSimilarity(g, 0, g, 0, 1))
}

func TestSignatures(t *testing.T) {
	g := tree(t, nil)
	s, err := similarity.NewSignatures(g, g.MaxOutDegree())
	require.NoError(t, err)
	require.Equal(t, 2, s.Dim())

	r, _ := g.Index("r")
	b, _ := g.Index("b")
	c, _ := g.Index("c")
	// Sub-DAG under b is one edge: eigenvalues ±1, sum 2. a is a leaf: 0.
	assert.InDeltaSlice(t, []float64{2, 0}, s.Vector(r), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0}, s.Vector(b), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0}, s.Vector(c), 1e-9)
}

func TestTSVSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity.TSVSimilarity(nil, nil))
	assert.Equal(t, 1.0, similarity.TSVSimilarity([]float64{0, 0}, []float64{0, 0}))
	assert.Equal(t, 1.0, similarity.TSVSimilarity([]float64{2, 1}, []float64{2, 1}))
	assert.InDelta(t, 0.0, similarity.TSVSimilarity([]float64{2, 0}, []float64{0, 0}), 1e-12)
	v := similarity.TSVSimilarity([]float64{2, 0}, []float64{1, 0})
	assert.InDelta(t, 1-1.0/3, v, 1e-12)
}
