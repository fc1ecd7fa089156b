// Package dagmatch compares rooted, attributed directed acyclic graphs, such
// as shock graphs and skeleton graphs of 2-D and 3-D shapes, and returns a
// similarity score together with the node correspondence behind it.
//
// 🚀 What is inside?
//
//	dag/        immutable rooted DAG: preorder indexing, levels, reachability closure
//	similarity/ attribute measurers and topological signature vectors
//	assign/     maximum-weight assignment: Hungarian and belief-propagation b-matching
//	match/      candidate bipartite graphs, relation penalties, bounded solution-set search
//	config/     match.Options from TOML, YAML or JSON with environment overrides
//	cmd/        the dagmatch command (match, rank, version)
//
// ✨ How a match works
//
//  1. Every (query node, model node) pair is scored by attribute similarity,
//     edge similarity and topological signature similarity.
//  2. The candidates form a weighted bipartite graph whose maximum-weight
//     assignment bounds what is still achievable.
//  3. Committing a pair reduces the graph: candidates that break the
//     ancestor, descendant or sibling relation of the committed pair are
//     penalized, and the committed nodes leave the graph.
//  4. A bounded search over committed pairs keeps the best complete
//     solution; when the budget runs out, the most promising open branch is
//     completed greedily.
//
// Quick example:
//
//	m, _ := match.New(similarity.Attribute{}, match.DefaultOptions())
//	res, _ := m.Match(ctx, query, model)
//	fmt.Printf("%.3f %v\n", res.Similarity, res.Status)
//
// Algorithm packages never log and never panic on user input; contract
// violations of a Measurer surface as *match.InvariantError.
package dagmatch
