// SPDX-License-Identifier: MIT

// Package assign — belief-propagation b-matching.
//
// BMatch approximates the maximum-weight bipartite b-matching with loopy
// max-product belief propagation in the log domain. Every node x keeps one
// outgoing message per neighbour y. With
//
//	val(y) = W(x,y) + in(y→x)
//
// and β_b, β_{b+1} the b-th and (b+1)-th largest values among all neighbours,
//
//	out(x→y) = W(x,y) - β_{b+1}   if y is among x's top b,
//	out(x→y) = W(x,y) - β_b       otherwise.
//
// A node's belief is its current top-b list. One iteration updates all rows,
// then all columns. After each iteration the beliefs are checked for a valid
// b-matching (mutual membership, exactly b partners). The run stops after
// Insurance+1 consecutive valid checks or at MaxIter; reaching MaxIter is
// reported through Converged=false, never as an error.
//
// Rectangular input is padded square with zero-weight dummies, and a tiny
// seeded jitter makes the optimum unique so that messages can settle.
//
// Complexity: O(MaxIter · n² log n) time, O(n²) memory.
package assign

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// BMatchOptions configures BMatch.
type BMatchOptions struct {
	// B is the number of partners per node, in [1, max(rows, cols)].
	B int

	// MaxIter caps the number of full passes; must be >= 1.
	MaxIter int

	// Insurance is the number of extra consecutive valid passes required
	// before declaring convergence; must be >= 0.
	Insurance int

	// Jitter is the relative magnitude of tie-breaking noise (0 disables it).
	Jitter float64

	// Seed and Stream select the deterministic noise sequence.
	Seed   int64
	Stream uint64
}

// DefaultBMatchOptions returns b=1 with 1000 iterations and insurance 3.
func DefaultBMatchOptions() BMatchOptions {
	return BMatchOptions{
		B:         1,
		MaxIter:   1000,
		Insurance: 3,
		Jitter:    1e-9,
	}
}

// BMatching is the result of BMatch.
type BMatching struct {
	// Pairs lists mutually believed real cells with positive weight, ordered by (Row, Col).
	Pairs []Pair

	// Total is the sum of the original weights of Pairs.
	Total float64

	// Converged reports whether a stable valid b-matching was reached.
	Converged bool

	// Iterations is the number of full passes performed.
	Iterations int
}

// bpState holds the dense message tables of one run.
type bpState struct {
	n, b   int
	w      []float64 // jittered n×n potentials, row-major
	rowMsg []float64 // rowMsg[i*n+j]: row i → column j
	colMsg []float64 // colMsg[j*n+i]: column j → row i
	rowTop [][]int   // current top-b columns of each row
	colTop [][]int   // current top-b rows of each column
	vals   []float64
	order  []int
	member []bool
}

// BMatch runs max-product belief propagation for b-matching on w.
func BMatch(w mat.Matrix, opts BMatchOptions) (BMatching, error) {
	if opts.MaxIter < 1 || opts.Insurance < 0 {
		return BMatching{}, fmt.Errorf("%w: max_iter=%d insurance=%d", ErrBadIterations, opts.MaxIter, opts.Insurance)
	}
	if w == nil {
		return BMatching{Converged: true}, nil
	}
	if r, c := w.Dims(); r == 0 || c == 0 {
		return BMatching{Converged: true}, nil
	}
	buf, n, rows, cols, maxW, err := dense(w)
	if err != nil {
		return BMatching{}, err
	}
	if opts.B < 1 || opts.B > n {
		return BMatching{}, fmt.Errorf("%w: b=%d n=%d", ErrBadB, opts.B, n)
	}

	// Every node takes all n partners: the whole matrix is the matching.
	if opts.B == n {
		out := BMatching{Converged: true}
		collect(&out, buf, n, rows, cols, func(int, int) bool { return true })
		return out, nil
	}

	st := newBPState(buf, n, opts, maxW)

	var (
		stable int
		it     int
	)
	for it = 1; it <= opts.MaxIter; it++ {
		st.pass(st.w, st.colMsg, st.rowMsg, st.rowTop, false)
		st.pass(st.w, st.rowMsg, st.colMsg, st.colTop, true)
		if st.valid() {
			stable++
			if stable > opts.Insurance {
				out := BMatching{Converged: true, Iterations: it}
				collect(&out, buf, n, rows, cols, st.mutual)
				return out, nil
			}
		} else {
			stable = 0
		}
	}

	out := BMatching{Converged: false, Iterations: opts.MaxIter}
	collect(&out, buf, n, rows, cols, st.mutual)

	return out, nil
}

func newBPState(buf []float64, n int, opts BMatchOptions, maxW float64) *bpState {
	st := &bpState{
		n:      n,
		b:      opts.B,
		w:      make([]float64, n*n),
		rowMsg: make([]float64, n*n),
		colMsg: make([]float64, n*n),
		rowTop: make([][]int, n),
		colTop: make([][]int, n),
		vals:   make([]float64, n),
		order:  make([]int, n),
		member: make([]bool, n),
	}
	copy(st.w, buf)
	if opts.Jitter > 0 {
		scale := maxW
		if scale < 1 {
			scale = 1
		}
		rng := jitterRNG(opts.Seed, opts.Stream)
		for k := range st.w {
			st.w[k] += opts.Jitter * scale * rng.Float64()
		}
	}
	for k := 0; k < n; k++ {
		st.rowTop[k] = make([]int, opts.B)
		st.colTop[k] = make([]int, opts.B)
	}

	return st
}

// jitterRNG returns the tie-breaking RNG for (seed, stream). Seed 0 means 1.
// Stream 0 uses the seed as is; other streams mix it with a SplitMix64
// finalizer so neighbouring streams are uncorrelated.
func jitterRNG(seed int64, stream uint64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	if stream != 0 {
		x := uint64(seed) ^ (stream + 0x9e3779b97f4a7c15)
		x += 0x9e3779b97f4a7c15
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		seed = int64(x ^ (x >> 31))
	}
	return rand.New(rand.NewSource(seed))
}

// pass recomputes the outgoing messages and beliefs of one side. in holds
// the messages arriving from the other side, out receives the new ones.
// When transposed is set, x indexes columns and the potential of (x, y) is
// w[y*n+x].
func (st *bpState) pass(w, in, out []float64, top [][]int, transposed bool) {
	n, b := st.n, st.b
	var x, y int
	for x = 0; x < n; x++ {
		for y = 0; y < n; y++ {
			st.vals[y] = pot(w, n, x, y, transposed) + in[y*n+x]
			st.order[y] = y
			st.member[y] = false
		}
		sort.SliceStable(st.order, func(i, j int) bool {
			return st.vals[st.order[i]] > st.vals[st.order[j]]
		})
		bthVal := st.vals[st.order[b-1]]
		b1Val := st.vals[st.order[b]]
		for y = 0; y < b; y++ {
			st.member[st.order[y]] = true
			top[x][y] = st.order[y]
		}
		for y = 0; y < n; y++ {
			if st.member[y] {
				out[x*n+y] = pot(w, n, x, y, transposed) - b1Val
			} else {
				out[x*n+y] = pot(w, n, x, y, transposed) - bthVal
			}
		}
	}
}

func pot(w []float64, n, x, y int, transposed bool) float64 {
	if transposed {
		return w[y*n+x]
	}
	return w[x*n+y]
}

// valid reports whether every row's belief is confirmed by the column it
// names. Both sides hold exactly b entries, so this makes the relation
// symmetric.
func (st *bpState) valid() bool {
	for i := 0; i < st.n; i++ {
		for _, j := range st.rowTop[i] {
			if !contains(st.colTop[j], i) {
				return false
			}
		}
	}
	return true
}

func (st *bpState) mutual(i, j int) bool {
	return contains(st.rowTop[i], j) && contains(st.colTop[j], i)
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// collect appends every real positive cell accepted by keep, in row-major order.
func collect(out *BMatching, buf []float64, n, rows, cols int, keep func(i, j int) bool) {
	var i, j int
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			x := buf[i*n+j]
			if x > 0 && keep(i, j) {
				out.Pairs = append(out.Pairs, Pair{Row: i, Col: j})
				out.Total += x
			}
		}
	}
}
