// SPDX-License-Identifier: MIT

// Package assign — exact maximum-weight assignment.
//
// MaxWeight solves the classical assignment problem with the Hungarian
// method in its shortest-augmenting-path form (Kuhn–Munkres with row/column
// potentials):
//  1. Pad the rows×cols weight matrix to n×n with zeros, n = max(rows, cols).
//     Zero cells stand for "leave this node unmatched", so the optimum of the
//     padded perfect-matching problem equals the maximum-weight matching.
//  2. Convert to costs c = maxW - w and minimise.
//  3. Insert rows one at a time, growing a Dijkstra-like alternating tree over
//     reduced costs and flipping the augmenting path once a free column is hit.
//  4. Report only real cells with positive weight.
//
// Complexity: O(n³) time, O(n²) memory for the dense copy.
package assign

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxWeight returns a one-to-one assignment of rows to columns maximising the
// total weight. Weights must be finite and non-negative; cells with weight 0
// are never reported. An empty or all-zero matrix yields an empty Assignment.
func MaxWeight(w mat.Matrix) (Assignment, error) {
	if w == nil {
		return Assignment{}, nil
	}
	if r, c := w.Dims(); r == 0 || c == 0 {
		return Assignment{}, nil
	}
	buf, n, rows, cols, maxW, err := dense(w)
	if err != nil {
		return Assignment{}, err
	}
	if maxW == 0 {
		return Assignment{}, nil
	}

	cost := func(i, j int) float64 { return maxW - buf[i*n+j] }

	// 1-indexed potentials; p[j] is the row matched to column j, way[j] the
	// previous column on the alternating path.
	var (
		inf  = math.Inf(1)
		u    = make([]float64, n+1)
		v    = make([]float64, n+1)
		p    = make([]int, n+1)
		way  = make([]int, n+1)
		minv = make([]float64, n+1)
		used = make([]bool, n+1)
	)
	var i, j, j0, j1, i0 int
	var delta, cur float64
	for i = 1; i <= n; i++ {
		p[0] = i
		j0 = 0
		for j = 0; j <= n; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 = p[j0]
			delta = inf
			j1 = 0
			for j = 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur = cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j = 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		// Flip the augmenting path back to the root column.
		for j0 != 0 {
			j1 = way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowOf := make([]int, n)
	for i = 0; i < n; i++ {
		rowOf[i] = -1
	}
	for j = 1; j <= n; j++ {
		if p[j] > 0 {
			rowOf[p[j]-1] = j - 1
		}
	}
	var out Assignment
	for i = 0; i < rows; i++ {
		j = rowOf[i]
		if j < 0 || j >= cols {
			continue
		}
		if x := buf[i*n+j]; x > 0 {
			out.Pairs = append(out.Pairs, Pair{Row: i, Col: j})
			out.Total += x
		}
	}

	return out, nil
}
