// SPDX-License-Identifier: MIT

// Package match — run configuration.
//
// Options is an immutable value snapshot: the Matcher copies it at the start
// of every run and passes it explicitly to every component, so concurrent
// runs with different options never observe each other.
package match

import (
	"fmt"
	"math"
	"strings"
)

// Algorithm selects the overall matching strategy.
//
//   - AlgorithmSearch:     bounded solution-set search (default).
//   - AlgorithmGreedy:     repeatedly commit the best remaining candidate.
//   - AlgorithmAssignment: one global assignment on the initial candidate graph,
//     without relation penalties.
type Algorithm int

const (
	AlgorithmSearch Algorithm = iota
	AlgorithmGreedy
	AlgorithmAssignment
)

// NodeSimilarity selects how per-parameter node similarities are combined.
//
//   - NodeSimilarityBest:  the largest value over all parameter indices (default).
//   - NodeSimilarityFirst: parameter index 0 only.
//   - NodeSimilarityMean:  the mean over all parameter indices; the recorded
//     parameter is the best one.
type NodeSimilarity int

const (
	NodeSimilarityBest NodeSimilarity = iota
	NodeSimilarityFirst
	NodeSimilarityMean
)

// SortPolicy orders the candidates of one expansion.
type SortPolicy int

const (
	// SortBySimilarity orders by penalized similarity, descending (default).
	SortBySimilarity SortPolicy = iota
	// SortByCertainty orders by certainty × penalized similarity, descending.
	SortByCertainty
)

// Solver selects the assignment solver used for estimates.
type Solver int

const (
	// SolverExact uses the Hungarian method; estimates are admissible and
	// enable pruning (default).
	SolverExact Solver = iota
	// SolverBeliefPropagation uses max-product b-matching with b=1.
	// Estimates are approximate, so no pruning is performed.
	SolverBeliefPropagation
)

// Normalization selects the divisor applied to the raw similarity.
type Normalization int

const (
	// NormalizeMaxNodes divides by max(|Q|, |M|) (default).
	NormalizeMaxNodes Normalization = iota
	// NormalizeMeanNodes divides by (|Q| + |M|) / 2.
	NormalizeMeanNodes
	// NormalizeQueryNodes divides by |Q|.
	NormalizeQueryNodes
	// NormalizeNone reports the raw sum.
	NormalizeNone
)

// FrontierPolicy selects the order in which solution sets are expanded.
type FrontierPolicy int

const (
	// FrontierFIFO expands in creation order (default).
	FrontierFIFO FrontierPolicy = iota
	// FrontierBestFirst expands the largest partial + estimate first.
	FrontierBestFirst
)

// Options configures one match run.
type Options struct {
	Algorithm      Algorithm
	NodeSimilarity NodeSimilarity

	// TSVWeight blends topological signature similarity into the node
	// similarity, in [0,1]. Zero skips signature computation.
	TSVWeight float64

	// EdgeWeight blends edge similarity into attribute similarity once edge
	// correspondences are fixed, in [0,1].
	EdgeWeight float64

	// RelativeMass scales each pair's similarity by the mean relative mass of
	// its nodes; the normalization divisor becomes 1.
	RelativeMass bool

	// Break-relation penalty floors, in [0,1].
	AncestorPenalty   float64
	DescendantPenalty float64
	SiblingPenalty    float64

	// Gaussian decay widths for level misalignment, >= 0. Zero disables the
	// level penalty for that relation.
	AncestorSigma   float64
	DescendantSigma float64
	SiblingSigma    float64

	// CertaintyDecay is the decay length of certainty with the distance to
	// the closest committed ancestor, >= 0. Zero means certainty 1.
	CertaintyDecay float64

	Sort SortPolicy

	// NodeSkipping allows ancestor/descendant correspondences across
	// different level offsets. When false such candidates are dropped.
	NodeSkipping bool

	// MaxSolutionSets caps the number of solution sets created after the
	// root; MaxChildren caps the children of one expansion. Both >= 1.
	MaxSolutionSets int
	MaxChildren     int

	Solver Solver

	// IncludeRoots adds the two roots to the candidate graph.
	IncludeRoots bool

	Normalization Normalization
	Frontier      FrontierPolicy

	// GreedyCompletion completes the most promising open solution set
	// greedily when the budget runs out.
	GreedyCompletion bool

	// Workers > 1 builds the children of one expansion concurrently.
	Workers int

	// Belief-propagation limits (SolverBeliefPropagation only).
	BPMaxIter   int
	BPInsurance int

	// Strict turns invariant violations into panics.
	Strict bool

	// Eps is the tolerance used for pruning and completeness checks.
	Eps float64
}

// DefaultOptions returns the recommended configuration.
func DefaultOptions() Options {
	return Options{
		Algorithm:         AlgorithmSearch,
		NodeSimilarity:    NodeSimilarityBest,
		TSVWeight:         0.3,
		EdgeWeight:        0.2,
		AncestorPenalty:   0.1,
		DescendantPenalty: 0.1,
		SiblingPenalty:    0.5,
		AncestorSigma:     1,
		DescendantSigma:   1,
		SiblingSigma:      1,
		CertaintyDecay:    0,
		Sort:              SortBySimilarity,
		NodeSkipping:      true,
		MaxSolutionSets:   500,
		MaxChildren:       3,
		Solver:            SolverExact,
		IncludeRoots:      true,
		Normalization:     NormalizeMaxNodes,
		Frontier:          FrontierFIFO,
		GreedyCompletion:  true,
		Workers:           1,
		BPMaxIter:         1000,
		BPInsurance:       3,
		Eps:               1e-9,
	}
}

// Validate checks ranges and enum values. The returned error wraps
// ErrInvalidOptions and names the offending field.
func (o Options) Validate() error {
	unit := []struct {
		name string
		v    float64
	}{
		{"tsv_weight", o.TSVWeight},
		{"edge_weight", o.EdgeWeight},
		{"ancestor_penalty", o.AncestorPenalty},
		{"descendant_penalty", o.DescendantPenalty},
		{"sibling_penalty", o.SiblingPenalty},
	}
	for _, f := range unit {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s=%v not in [0,1]", ErrInvalidOptions, f.name, f.v)
		}
	}
	nonNeg := []struct {
		name string
		v    float64
	}{
		{"ancestor_sigma", o.AncestorSigma},
		{"descendant_sigma", o.DescendantSigma},
		{"sibling_sigma", o.SiblingSigma},
		{"certainty_decay", o.CertaintyDecay},
		{"eps", o.Eps},
	}
	for _, f := range nonNeg {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: %s=%v must be finite and >= 0", ErrInvalidOptions, f.name, f.v)
		}
	}
	switch {
	case o.MaxSolutionSets < 1:
		return fmt.Errorf("%w: max_solution_sets=%d must be >= 1", ErrInvalidOptions, o.MaxSolutionSets)
	case o.MaxChildren < 1:
		return fmt.Errorf("%w: max_children=%d must be >= 1", ErrInvalidOptions, o.MaxChildren)
	case o.Workers < 1:
		return fmt.Errorf("%w: workers=%d must be >= 1", ErrInvalidOptions, o.Workers)
	case o.BPMaxIter < 1:
		return fmt.Errorf("%w: bp_max_iter=%d must be >= 1", ErrInvalidOptions, o.BPMaxIter)
	case o.BPInsurance < 0:
		return fmt.Errorf("%w: bp_insurance=%d must be >= 0", ErrInvalidOptions, o.BPInsurance)
	case o.Algorithm < AlgorithmSearch || o.Algorithm > AlgorithmAssignment:
		return fmt.Errorf("%w: algorithm=%d", ErrInvalidOptions, o.Algorithm)
	case o.NodeSimilarity < NodeSimilarityBest || o.NodeSimilarity > NodeSimilarityMean:
		return fmt.Errorf("%w: node_similarity=%d", ErrInvalidOptions, o.NodeSimilarity)
	case o.Sort < SortBySimilarity || o.Sort > SortByCertainty:
		return fmt.Errorf("%w: sort=%d", ErrInvalidOptions, o.Sort)
	case o.Solver < SolverExact || o.Solver > SolverBeliefPropagation:
		return fmt.Errorf("%w: solver=%d", ErrInvalidOptions, o.Solver)
	case o.Normalization < NormalizeMaxNodes || o.Normalization > NormalizeNone:
		return fmt.Errorf("%w: normalization=%d", ErrInvalidOptions, o.Normalization)
	case o.Frontier < FrontierFIFO || o.Frontier > FrontierBestFirst:
		return fmt.Errorf("%w: frontier=%d", ErrInvalidOptions, o.Frontier)
	}

	return nil
}

// Enum names, shared by String and the Parse functions.
var (
	algorithmNames      = []string{"search", "greedy", "assignment"}
	nodeSimilarityNames = []string{"best", "first", "mean"}
	sortNames           = []string{"similarity", "certainty"}
	solverNames         = []string{"exact", "bp"}
	normalizationNames  = []string{"max-nodes", "mean-nodes", "query-nodes", "none"}
	frontierNames       = []string{"fifo", "best-first"}
)

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func parseEnum(kind string, names []string, s string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q (want one of %s)", ErrInvalidOptions, kind, s, strings.Join(names, ", "))
}

func (a Algorithm) String() string { return enumName(algorithmNames, int(a)) }
func (n NodeSimilarity) String() string { return enumName(nodeSimilarityNames, int(n)) }
func (s SortPolicy) String() string { return enumName(sortNames, int(s)) }
func (s Solver) String() string { return enumName(solverNames, int(s)) }
func (n Normalization) String() string { return enumName(normalizationNames, int(n)) }
func (f FrontierPolicy) String() string { return enumName(frontierNames, int(f)) }

// ParseAlgorithm parses "search", "greedy" or "assignment".
func ParseAlgorithm(s string) (Algorithm, error) {
	v, err := parseEnum("algorithm", algorithmNames, s)
	return Algorithm(v), err
}

// ParseNodeSimilarity parses "best", "first" or "mean".
func ParseNodeSimilarity(s string) (NodeSimilarity, error) {
	v, err := parseEnum("node similarity", nodeSimilarityNames, s)
	return NodeSimilarity(v), err
}

// ParseSortPolicy parses "similarity" or "certainty".
func ParseSortPolicy(s string) (SortPolicy, error) {
	v, err := parseEnum("sort policy", sortNames, s)
	return SortPolicy(v), err
}

// ParseSolver parses "exact" or "bp".
func ParseSolver(s string) (Solver, error) {
	v, err := parseEnum("solver", solverNames, s)
	return Solver(v), err
}

// ParseNormalization parses "max-nodes", "mean-nodes", "query-nodes" or "none".
func ParseNormalization(s string) (Normalization, error) {
	v, err := parseEnum("normalization", normalizationNames, s)
	return Normalization(v), err
}

// ParseFrontierPolicy parses "fifo" or "best-first".
func ParseFrontierPolicy(s string) (FrontierPolicy, error) {
	v, err := parseEnum("frontier", frontierNames, s)
	return FrontierPolicy(v), err
}
