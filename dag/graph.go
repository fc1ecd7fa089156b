// SPDX-License-Identifier: MIT

// Package dag — read-only accessors.
//
// Every accessor takes a depth-first index v in [0, NumNodes) and is O(1)
// unless stated otherwise. Out-of-range indices are programmer errors and
// panic with the usual slice bounds message; callers that hold user input
// should translate IDs with Index first.
//
// Slices returned by Parents, Children, InEdges, OutEdges and Attrs are
// shared with the graph and must not be modified.
package dag

// Name returns the graph name given to NewBuilder.
func (g *Graph) Name() string { return g.name }

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Root returns the DFS index of the root, which is always 0.
func (g *Graph) Root() int { return g.root }

// IsRoot reports whether v is the root.
func (g *Graph) IsRoot(v int) bool { return v == g.root }

// Node returns a copy of node v. Attrs is shared.
func (g *Graph) Node(v int) Node { return g.nodes[v] }

// ID returns the identifier of node v.
func (g *Graph) ID(v int) string { return g.nodes[v].ID }

// Index translates a node ID into its DFS index.
func (g *Graph) Index(id string) (int, bool) {
	v, ok := g.index[id]
	return v, ok
}

// DepthFirstIndex returns v itself; nodes are stored in preorder. It exists so
// callers can state intent when a dense index is required.
func (g *Graph) DepthFirstIndex(v int) int { return v }

// Label returns the attribute label of node v.
func (g *Graph) Label(v int) string { return g.nodes[v].Label }

// Level returns the shortest depth of v below the root (root = 0).
func (g *Graph) Level(v int) int { return g.level[v] }

// Mass returns the mass of v.
func (g *Graph) Mass(v int) float64 { return g.nodes[v].Mass }

// Cost returns the deletion cost of v.
func (g *Graph) Cost(v int) float64 { return g.nodes[v].Cost }

// SubtreeCost returns Cost(v) plus the cost of every descendant, each counted once.
func (g *Graph) SubtreeCost(v int) float64 { return g.subtreeCost[v] }

// TotalMass returns the sum of all node masses.
func (g *Graph) TotalMass() float64 { return g.totalMass }

// TotalCost returns the sum of all node costs.
func (g *Graph) TotalCost() float64 { return g.totalCost }

// Attrs returns the attribute vector of v.
func (g *Graph) Attrs(v int) []float64 { return g.nodes[v].Attrs }

// Parents returns the parents of v in insertion order.
func (g *Graph) Parents(v int) []int { return g.parents[v] }

// Children returns the children of v in insertion order.
func (g *Graph) Children(v int) []int { return g.children[v] }

// InEdges returns the indices of edges entering v.
func (g *Graph) InEdges(v int) []int { return g.in[v] }

// OutEdges returns the indices of edges leaving v.
func (g *Graph) OutEdges(v int) []int { return g.out[v] }

// MaxOutDegree returns the largest number of children of any node.
func (g *Graph) MaxOutDegree() int { return g.maxOutDegree }

// Edge returns edge e in its string form.
func (g *Graph) Edge(e int) Edge {
	r := g.edges[e]
	return Edge{From: g.nodes[r.from].ID, To: g.nodes[r.to].ID, Weight: r.weight}
}

// EdgeEnds returns the parent and child indices of edge e.
func (g *Graph) EdgeEnds(e int) (from, to int) {
	r := g.edges[e]
	return r.from, r.to
}

// EdgeWeight returns the weight of edge e.
func (g *Graph) EdgeWeight(e int) float64 { return g.edges[e].weight }

// EdgeBetween returns the index of the edge p→c.
// Complexity: O(out-degree(p)).
func (g *Graph) EdgeBetween(p, c int) (int, bool) {
	for _, e := range g.out[p] {
		if g.edges[e].to == c {
			return e, true
		}
	}
	return -1, false
}

// IsAncestor reports whether a is a proper ancestor of b.
func (g *Graph) IsAncestor(a, b int) bool { return g.reach[a][b] }

// IsDescendant reports whether a is a proper descendant of b.
func (g *Graph) IsDescendant(a, b int) bool { return g.reach[b][a] }

// Descendants returns every proper descendant of v in DFS order.
// Complexity: O(V).
func (g *Graph) Descendants(v int) []int {
	var out []int
	for w, r := range g.reach[v] {
		if r {
			out = append(out, w)
		}
	}
	return out
}

// Ancestors returns every proper ancestor of v in DFS order.
// Complexity: O(V).
func (g *Graph) Ancestors(v int) []int {
	var out []int
	for a := range g.nodes {
		if g.reach[a][v] {
			out = append(out, a)
		}
	}
	return out
}
