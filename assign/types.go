// SPDX-License-Identifier: MIT

// Package assign — shared types and sentinel errors.
package assign

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidWeight indicates a NaN, infinite or negative weight.
	ErrInvalidWeight = errors.New("assign: weights must be finite and non-negative")

	// ErrBadB indicates a b-matching degree outside [1, max(rows, cols)].
	ErrBadB = errors.New("assign: invalid b")

	// ErrBadIterations indicates a non-positive iteration cap or a negative insurance count.
	ErrBadIterations = errors.New("assign: invalid iteration limits")
)

// Pair is one chosen (row, column) cell.
type Pair struct {
	Row int
	Col int
}

// Assignment is the result of MaxWeight.
type Assignment struct {
	// Pairs lists the chosen cells with positive weight, ordered by Row.
	Pairs []Pair

	// Total is the sum of the weights of Pairs.
	Total float64
}

// dense copies w into a square n×n row-major slice, n = max(rows, cols),
// padding with zeros, and validates every entry.
func dense(w mat.Matrix) (buf []float64, n, rows, cols int, maxW float64, err error) {
	rows, cols = w.Dims()
	n = rows
	if cols > n {
		n = cols
	}
	buf = make([]float64, n*n)
	var (
		i, j int
		x    float64
	)
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			x = w.At(i, j)
			if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
				return nil, 0, 0, 0, 0, ErrInvalidWeight
			}
			buf[i*n+j] = x
			if x > maxW {
				maxW = x
			}
		}
	}

	return buf, n, rows, cols, maxW, nil
}
