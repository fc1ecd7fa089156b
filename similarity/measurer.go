// SPDX-License-Identifier: MIT

// Package similarity — pluggable attribute comparison.
//
// A Measurer compares node attributes and edge attributes of two graphs.
// It is parameterised by a small integer "parameter index" that selects one
// of NumParams alternative comparison models; the matcher evaluates every
// model and keeps the one its node-similarity policy asks for.
//
// Contracts (checked by the matcher, which treats violations as invariant
// failures):
//   - NodeSimilarity and EdgeSimilarity return values in [0,1].
//   - NodeDistance returns a value >= 0.
//   - Results depend only on the arguments (no hidden state).
package similarity

import (
	"math"

	"github.com/katalvlaran/dagmatch/dag"
	"gonum.org/v1/gonum/floats"
)

// MaxParams is the largest number of comparison models a Measurer may expose.
const MaxParams = 2

// Measurer computes attribute similarity between nodes and edges of two graphs.
type Measurer interface {
	// NumParams returns the number of comparison models, in [1, MaxParams].
	NumParams() int

	// NodeDistance returns the attribute distance between q's node u and m's node v.
	NodeDistance(q *dag.Graph, u int, m *dag.Graph, v int, param int) float64

	// NodeSimilarity returns the attribute similarity in [0,1] of u and v.
	NodeSimilarity(q *dag.Graph, u int, m *dag.Graph, v int, param int) float64

	// EdgeSimilarity returns the similarity in [0,1] of q's edge e1 and m's edge e2.
	EdgeSimilarity(q *dag.Graph, e1 int, m *dag.Graph, e2 int, param int) float64
}

// Parameter indices of the Attribute measurer.
const (
	// ParamRaw compares the attribute vectors as they are.
	ParamRaw = 0
	// ParamScaleFree compares L2-normalised attribute vectors.
	ParamScaleFree = 1
)

// Attribute is the default Measurer. It maps the Euclidean distance d between
// attribute vectors to the similarity 1/(1 + d/Scale). Vectors of different
// length are compared after zero-padding the shorter one.
type Attribute struct {
	// Scale is the distance at which similarity drops to 1/2. Zero means 1.
	Scale float64

	// StrictLabels forces similarity 0 between nodes whose non-empty labels differ.
	StrictLabels bool

	// Models limits the number of parameter indices exposed (1 or 2). Zero means 2.
	Models int
}

var _ Measurer = Attribute{}

// NumParams implements Measurer.
func (a Attribute) NumParams() int {
	if a.Models == 1 {
		return 1
	}
	return MaxParams
}

// NodeDistance implements Measurer.
func (a Attribute) NodeDistance(q *dag.Graph, u int, m *dag.Graph, v int, param int) float64 {
	x, y := padPair(q.Attrs(u), m.Attrs(v))
	if param == ParamScaleFree {
		normalize(x)
		normalize(y)
	}
	if len(x) == 0 {
		return 0
	}
	return floats.Distance(x, y, 2)
}

// NodeSimilarity implements Measurer.
func (a Attribute) NodeSimilarity(q *dag.Graph, u int, m *dag.Graph, v int, param int) float64 {
	if a.StrictLabels {
		lq, lm := q.Label(u), m.Label(v)
		if lq != "" && lm != "" && lq != lm {
			return 0
		}
	}
	return a.fromDistance(a.NodeDistance(q, u, m, v, param))
}

// EdgeSimilarity implements Measurer. Both models compare edge weights.
func (a Attribute) EdgeSimilarity(q *dag.Graph, e1 int, m *dag.Graph, e2 int, _ int) float64 {
	return a.fromDistance(math.Abs(q.EdgeWeight(e1) - m.EdgeWeight(e2)))
}

func (a Attribute) fromDistance(d float64) float64 {
	s := a.Scale
	if s <= 0 {
		s = 1
	}
	return 1 / (1 + d/s)
}

// padPair returns copies of x and y zero-padded to a common length.
func padPair(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) > n {
		n = len(y)
	}
	px := make([]float64, n)
	py := make([]float64, n)
	copy(px, x)
	copy(py, y)

	return px, py
}

// normalize scales x to unit L2 norm in place; the zero vector is left alone.
func normalize(x []float64) {
	if len(x) == 0 {
		return
	}
	if n := floats.Norm(x, 2); n > 0 {
		floats.Scale(1/n, x)
	}
}
