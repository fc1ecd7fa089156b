// Package match finds the best node correspondence between two rooted DAGs.
//
// The engine scores every (query node, model node) pair with a pluggable
// similarity.Measurer, then searches for the set of one-to-one commitments
// with the largest total similarity, penalizing candidates whose structural
// relations (ancestor, descendant, sibling) to already committed pairs are
// broken or shifted in level.
//
// Building blocks, leaves first:
//
//   - NodePairInfo: relation queries and penalties anchored at one committed pair.
//   - NodeMatchInfo: similarity state of one candidate pair, with a penalty
//     multiplier and fixable inward/outward edge correspondences.
//   - BipartiteNodeGraph: candidate graph between the unmatched nodes; reduced
//     after every commitment and solved as a maximum-weight assignment.
//   - solution sets: search-tree nodes in an index arena, expanded from a
//     bounded frontier until a complete correspondence is found or the
//     budget runs out.
//
// Usage:
//
//	m, err := match.New(similarity.Attribute{}, match.DefaultOptions())
//	if err != nil { ... }
//	res, err := m.Match(ctx, query, model)
//	fmt.Println(res.Similarity, res.Status)
//	for _, c := range res.NodeMap { fmt.Println(c.Query, "->", c.Model) }
//
// Errors:
//   - ErrInvalidOptions  bad option values (from Validate, New, SetOptions).
//   - ErrNilGraph, ErrNilMeasurer  missing inputs.
//   - *InvariantError (errors.Is(err, ErrInvariant))  a measurer broke its
//     contract; with Options.Strict this panics instead.
//
// Budget exhaustion is reported through Result.Status, not as an error.
// Cancellation returns the best complete solution found so far together
// with ctx.Err().
//
// Concurrency: a Matcher may be shared; each Match call snapshots the
// options. Options.Workers > 1 builds the children of an expansion in
// parallel; results are identical to the sequential run.
package match
