// Package assign solves the bipartite assignment sub-problems of DAG
// matching.
//
// Two solvers share one input shape, a non-negative weight matrix whose rows
// are query nodes and whose columns are model nodes:
//
//   - MaxWeight: exact maximum-weight one-to-one assignment (Hungarian
//     method with potentials, O(n³)).
//   - BMatch: max-product belief propagation for b-matching, an approximate
//     alternative whose cost per iteration is O(n² log n).
//
// Rectangular matrices are padded square internally with zero-weight
// dummies; only real cells with positive weight are ever reported. Zero
// weight means "no candidate edge".
//
// Errors (sentinels, match with errors.Is):
//   - ErrInvalidWeight  NaN, ±Inf or negative entries.
//   - ErrBadB           b outside [1, max(rows, cols)].
//   - ErrBadIterations  MaxIter < 1 or Insurance < 0.
//
// Non-convergence of BMatch is not an error: BMatching.Converged is false and
// the pairs believed by both endpoints are returned.
//
// The package does not log and never panics on user input.
package assign
