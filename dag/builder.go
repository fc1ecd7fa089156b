// SPDX-License-Identifier: MIT

// Package dag — staging builder and freeze step.
//
// Build performs, in order:
//  1. Structural validation (non-empty, single root).
//  2. Cycle detection with white/gray/black colouring over every node, so
//     cycles in components unreachable from the root are reported too.
//  3. Depth-first renumbering from the root (children in insertion order).
//  4. Levels by breadth-first search (shortest depth from the root).
//  5. Transitive closure in reverse preorder and subtree costs.
//
// Complexity: O(V·(V+E)) time for the closure, O(V²) memory.
package dag

import (
	"fmt"
	"math"
)

// Colour states of the cycle detector.
const (
	white = iota // not visited
	gray         // on the recursion stack
	black        // fully explored
)

// Builder accumulates nodes and edges before they are frozen into a Graph.
// The zero value is not usable; call NewBuilder.
type Builder struct {
	name    string
	nodes   []Node
	index   map[string]int
	edges   []Edge
	edgeSet map[[2]int]struct{}
}

// NewBuilder returns an empty builder for a graph called name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:    name,
		index:   make(map[string]int),
		edgeSet: make(map[[2]int]struct{}),
	}
}

// AddNode stages n. The Attrs slice is copied.
func (b *Builder) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	if _, ok := b.index[n.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	if !validValue(n.Mass) || !validValue(n.Cost) {
		return fmt.Errorf("%w: node %q", ErrBadValue, n.ID)
	}
	for _, a := range n.Attrs {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("%w: node %q attribute", ErrBadValue, n.ID)
		}
	}
	n.Attrs = append([]float64(nil), n.Attrs...)
	b.index[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)

	return nil
}

// AddEdge stages the parent→child edge e. Both endpoints must already exist.
func (b *Builder) AddEdge(e Edge) error {
	from, ok := b.index[e.From]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, e.From)
	}
	to, ok := b.index[e.To]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, e.To)
	}
	if from == to {
		return fmt.Errorf("%w: %q", ErrSelfLoop, e.From)
	}
	key := [2]int{from, to}
	if _, dup := b.edgeSet[key]; dup {
		return fmt.Errorf("%w: %q→%q", ErrDuplicateEdge, e.From, e.To)
	}
	if !validValue(e.Weight) {
		return fmt.Errorf("%w: edge %q→%q", ErrBadValue, e.From, e.To)
	}
	b.edgeSet[key] = struct{}{}
	b.edges = append(b.edges, e)

	return nil
}

// Build validates the staged graph and freezes it.
// The builder may be reused afterwards; the Graph does not alias its storage.
func (b *Builder) Build() (*Graph, error) {
	n := len(b.nodes)
	if n == 0 {
		return nil, ErrEmptyGraph
	}

	// Stage 1: staging adjacency in insertion order.
	kids := make([][]int, n)
	indeg := make([]int, n)
	for _, e := range b.edges {
		u, v := b.index[e.From], b.index[e.To]
		kids[u] = append(kids[u], v)
		indeg[v]++
	}
	root := -1
	for v := 0; v < n; v++ {
		if indeg[v] != 0 {
			continue
		}
		if root >= 0 {
			return nil, fmt.Errorf("%w: %q and %q", ErrMultipleRoots, b.nodes[root].ID, b.nodes[v].ID)
		}
		root = v
	}
	if root < 0 {
		return nil, ErrNoRoot
	}

	// Stage 2: cycle detection over every staged node.
	state := make([]int, n)
	for v := 0; v < n; v++ {
		if state[v] == white {
			if err := b.detectCycle(v, kids, state); err != nil {
				return nil, err
			}
		}
	}

	// Stage 3: preorder renumbering. With one root and no cycles every node is
	// reachable, so order covers all of them.
	order := make([]int, 0, n)
	seen := make([]bool, n)
	var visit func(v int)
	visit = func(v int) {
		seen[v] = true
		order = append(order, v)
		for _, c := range kids[v] {
			if !seen[c] {
				visit(c)
			}
		}
	}
	visit(root)
	remap := make([]int, n)
	for dfs, old := range order {
		remap[old] = dfs
	}

	g := &Graph{
		name:     b.name,
		nodes:    make([]Node, n),
		index:    make(map[string]int, n),
		out:      make([][]int, n),
		in:       make([][]int, n),
		children: make([][]int, n),
		parents:  make([][]int, n),
		root:     0,
	}
	for old, nd := range b.nodes {
		nd.Attrs = append([]float64(nil), nd.Attrs...)
		g.nodes[remap[old]] = nd
		g.index[nd.ID] = remap[old]
		g.totalMass += nd.Mass
		g.totalCost += nd.Cost
	}
	g.edges = make([]edgeRec, len(b.edges))
	for i, e := range b.edges {
		u, v := remap[b.index[e.From]], remap[b.index[e.To]]
		g.edges[i] = edgeRec{from: u, to: v, weight: e.Weight}
		g.out[u] = append(g.out[u], i)
		g.in[v] = append(g.in[v], i)
		g.children[u] = append(g.children[u], v)
		g.parents[v] = append(g.parents[v], u)
	}
	for v := 0; v < n; v++ {
		if d := len(g.children[v]); d > g.maxOutDegree {
			g.maxOutDegree = d
		}
	}

	// Stage 4: levels.
	g.level = make([]int, n)
	for v := range g.level {
		g.level[v] = -1
	}
	g.level[g.root] = 0
	queue := []int{g.root}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, c := range g.children[u] {
			if g.level[c] < 0 {
				g.level[c] = g.level[u] + 1
				queue = append(queue, c)
			}
		}
	}

	// Stage 5: closure and subtree costs, children before parents.
	// Preorder is not enough here: a shared child may be numbered after a
	// later parent, so walk a reversed topological order.
	topo := g.topologicalOrder()
	g.reach = make([][]bool, n)
	for i := len(topo) - 1; i >= 0; i-- {
		v := topo[i]
		row := make([]bool, n)
		for _, c := range g.children[v] {
			row[c] = true
			for w, r := range g.reach[c] {
				if r {
					row[w] = true
				}
			}
		}
		g.reach[v] = row
	}
	g.subtreeCost = make([]float64, n)
	for v := 0; v < n; v++ {
		sum := g.nodes[v].Cost
		for w, r := range g.reach[v] {
			if r {
				sum += g.nodes[w].Cost
			}
		}
		g.subtreeCost[v] = sum
	}

	return g, nil
}

// detectCycle runs the colouring DFS from v.
func (b *Builder) detectCycle(v int, kids [][]int, state []int) error {
	state[v] = gray
	for _, c := range kids[v] {
		switch state[c] {
		case gray:
			return fmt.Errorf("%w: through %q", ErrCycle, b.nodes[c].ID)
		case white:
			if err := b.detectCycle(c, kids, state); err != nil {
				return err
			}
		}
	}
	state[v] = black

	return nil
}

// topologicalOrder returns a parents-before-children order (Kahn).
func (g *Graph) topologicalOrder() []int {
	n := len(g.nodes)
	indeg := make([]int, n)
	for v := 0; v < n; v++ {
		indeg[v] = len(g.parents[v])
	}
	order := make([]int, 0, n)
	queue := []int{g.root}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		for _, c := range g.children[u] {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	return order
}

// validValue reports whether x is finite and non-negative.
func validValue(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}
