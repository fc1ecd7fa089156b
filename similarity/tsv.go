// SPDX-License-Identifier: MIT

// Package similarity — topological signature vectors (TSV).
//
// The signature of a node v summarises the shape of the structure hanging
// below it: for every child c of v we take the sub-DAG rooted at c, build its
// symmetric 0/1 adjacency matrix A_c and compute
//
//	σ(c) = Σ |λ_i(A_c)|
//
// The TSV of v is {σ(c) : c ∈ children(v)} sorted in descending order and
// zero-padded to a common dimension. Spectra are invariant to node order, so
// two isomorphic substructures yield identical signatures.
//
// Complexity: O(V·k³) where k is the largest sub-DAG size; every child's sum
// is computed once and shared by all of its parents.
package similarity

import (
	"errors"
	"math"
	"sort"

	"github.com/katalvlaran/dagmatch/dag"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEigenFailed indicates that the symmetric eigen-decomposition did not converge.
var ErrEigenFailed = errors.New("similarity: eigen decomposition failed")

// Signatures holds the TSV of every node of one graph.
type Signatures struct {
	dim  int
	vecs [][]float64
}

// NewSignatures computes the TSVs of g padded (or truncated) to dim entries.
// Use the largest MaxOutDegree of the graphs being compared so that vectors
// line up.
func NewSignatures(g *dag.Graph, dim int) (*Signatures, error) {
	if dim < 0 {
		dim = 0
	}
	n := g.NumNodes()
	sums := make([]float64, n)
	done := make([]bool, n)

	s := &Signatures{dim: dim, vecs: make([][]float64, n)}
	for v := 0; v < n; v++ {
		kids := g.Children(v)
		vals := make([]float64, 0, len(kids))
		for _, c := range kids {
			if !done[c] {
				sum, err := spectralSum(g, c)
				if err != nil {
					return nil, err
				}
				sums[c], done[c] = sum, true
			}
			vals = append(vals, sums[c])
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
		vec := make([]float64, dim)
		copy(vec, vals)
		s.vecs[v] = vec
	}

	return s, nil
}

// Dim returns the common vector length.
func (s *Signatures) Dim() int { return s.dim }

// Vector returns the TSV of node v. The slice must not be modified.
func (s *Signatures) Vector(v int) []float64 { return s.vecs[v] }

// TSVSimilarity maps two signatures to [0,1]:
//
//	1 - |a-b| / (|a| + |b|),  and 1 when both vectors vanish.
//
// a and b must have the same length.
func TSVSimilarity(a, b []float64) float64 {
	if len(a) == 0 {
		return 1
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na+nb == 0 {
		return 1
	}
	sim := 1 - floats.Distance(a, b, 2)/(na+nb)

	return math.Max(0, math.Min(1, sim))
}

// spectralSum returns Σ|λ| of the undirected adjacency matrix of the sub-DAG
// rooted at c.
func spectralSum(g *dag.Graph, c int) (float64, error) {
	members := append([]int{c}, g.Descendants(c)...)
	k := len(members)
	if k == 1 {
		return 0, nil
	}
	pos := make(map[int]int, k)
	for i, v := range members {
		pos[v] = i
	}

	a := mat.NewSymDense(k, nil)
	for i, v := range members {
		for _, w := range g.Children(v) {
			if j, ok := pos[w]; ok {
				a.SetSym(i, j, 1)
			}
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(a, false); !ok {
		return 0, ErrEigenFailed
	}
	var sum float64
	for _, l := range eig.Values(nil) {
		sum += math.Abs(l)
	}

	return sum, nil
}
