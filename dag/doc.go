// Package dag provides the rooted, node-labelled directed acyclic graphs that
// the matcher compares.
//
// Graphs are staged in a Builder and frozen by Build. Freezing renumbers the
// nodes in depth-first preorder from the root, so a node's index doubles as
// its depth-first index and as a dense array index for every per-node table.
// Build also precomputes:
//
//   - Level(v): shortest depth below the root.
//   - SubtreeCost(v): own cost plus the cost of every descendant, once.
//   - The boolean transitive closure used by IsAncestor / IsDescendant in O(1).
//
// A frozen Graph is immutable for the duration of a match and may be shared
// between goroutines.
//
// Documents:
//
//	name: hand
//	nodes:
//	  - {id: r, label: root, mass: 4, attrs: [1.0, 0.5]}
//	  - {id: a, mass: 2, attrs: [0.7, 0.1]}
//	edges:
//	  - {from: r, to: a, weight: 1}
//
// Decode and ReadFile accept the document above in YAML or JSON form.
//
// Complexity: Build is O(V·(V+E)) time and O(V²) memory, dominated by the
// closure. Shape graphs are small (tens to a few hundred nodes).
package dag
