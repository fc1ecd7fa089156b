// SPDX-License-Identifier: MIT

// Package match — the bipartite candidate graph.
//
// Partition A holds the still-unmatched query nodes, partition B the
// still-unmatched model nodes. An edge (u, v) exists while the penalized
// similarity of (u, v) is positive; it carries the candidate's
// NodeMatchInfo and, in a parallel slice, the penalized weight that the
// assignment solver consumes.
//
// reduce derives the graph that remains after committing one edge:
//  1. Copy every node except the two committed ones, and every edge whose
//     endpoints both survive. NodeMatchInfo pointers are shared.
//  2. For each side, walk the committed node's ancestors, descendants and
//     sibling subtrees among the surviving nodes. Every incident edge not
//     processed yet gets the matching penalty from a NodePairInfo anchored
//     at the committed pair.
//  3. A zero penalty drops the edge. Otherwise the NodeMatchInfo is cloned
//     unless this graph already owns it, direct parent/child edge
//     correspondences are fixed (rescoring the candidate), and the penalty
//     is applied.
//
// Complexity: build O(|Q|·|M|) measurer calls; reduce O(E + R·deg) where R
// is the number of related nodes; solve O(n³) (exact) or
// O(iter·n² log n) (belief propagation).
package match

import (
	"sort"

	"github.com/katalvlaran/dagmatch/assign"
	"github.com/katalvlaran/dagmatch/dag"
	"gonum.org/v1/gonum/mat"
)

type bipEdge struct {
	q, m int
	info *NodeMatchInfo
}

// BipartiteNodeGraph is the candidate graph between unmatched nodes.
type BipartiteNodeGraph struct {
	sc      *scorer
	hooks   *runHooks
	present [2][]bool
	nodes   [2][]int
	edges   []bipEdge
	weight  []float64
}

// buildBipartite creates the initial candidate graph of a run.
func buildBipartite(sc *scorer, hooks *runHooks, includeRoots bool) (*BipartiteNodeGraph, error) {
	g := &BipartiteNodeGraph{sc: sc, hooks: hooks}
	graphs := [2]int{sc.q.NumNodes(), sc.m.NumNodes()}
	roots := [2]int{sc.q.Root(), sc.m.Root()}
	for side := 0; side < 2; side++ {
		g.present[side] = make([]bool, graphs[side])
		for v := 0; v < graphs[side]; v++ {
			if !includeRoots && v == roots[side] {
				continue
			}
			g.present[side][v] = true
			g.nodes[side] = append(g.nodes[side], v)
		}
	}

	for _, u := range g.nodes[SideQuery] {
		for _, v := range g.nodes[SideModel] {
			info, err := sc.newInfo(u, v)
			if err != nil {
				return nil, err
			}
			if info.Similarity() <= 0 {
				continue
			}
			info.owner = g
			g.edges = append(g.edges, bipEdge{q: u, m: v, info: info})
			g.weight = append(g.weight, info.PenalizedSimilarity())
		}
	}

	return g, nil
}

// NumNodes returns the number of unmatched nodes on side.
func (g *BipartiteNodeGraph) NumNodes(side int) int { return len(g.nodes[side]) }

// Nodes returns the unmatched nodes of side in graph index order.
func (g *BipartiteNodeGraph) Nodes(side int) []int { return g.nodes[side] }

// NumEdges returns the number of candidate edges.
func (g *BipartiteNodeGraph) NumEdges() int { return len(g.edges) }

// Edge returns the (query, model) nodes of edge e.
func (g *BipartiteNodeGraph) Edge(e int) (q, m int) { return g.edges[e].q, g.edges[e].m }

// Weight returns the penalized similarity of edge e.
func (g *BipartiteNodeGraph) Weight(e int) float64 { return g.weight[e] }

// Info returns the NodeMatchInfo of edge e. It must not be modified.
func (g *BipartiteNodeGraph) Info(e int) *NodeMatchInfo { return g.edges[e].info }

// TotalWeight returns the sum of all edge weights.
func (g *BipartiteNodeGraph) TotalWeight() float64 {
	var sum float64
	for _, w := range g.weight {
		sum += w
	}
	return sum
}

// Find returns the edge between query node q and model node m.
func (g *BipartiteNodeGraph) Find(q, m int) (int, bool) {
	for e, be := range g.edges {
		if be.q == q && be.m == m {
			return e, true
		}
	}
	return -1, false
}

// mutableInfo returns the NodeMatchInfo of edge e, cloning it first when it
// is owned by another graph.
func (g *BipartiteNodeGraph) mutableInfo(e int) *NodeMatchInfo {
	info := g.edges[e].info
	if info.owner != g {
		info = info.Clone()
		info.owner = g
		g.edges[e].info = info
	}
	return info
}

// graphView adds the sibling walk used by reduce.
type graphView struct{ *dag.Graph }

// siblingSubtrees returns every node that is a sibling of c or lies below
// one, excluding c itself, each once.
func (g graphView) siblingSubtrees(c int) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(v int) {
		if v != c && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, p := range g.Parents(c) {
		for _, s := range g.Children(p) {
			if s == c {
				continue
			}
			add(s)
			for _, d := range g.Descendants(s) {
				add(d)
			}
		}
	}
	return out
}

// relation kinds walked by reduce.
type relation int

const (
	relAncestor relation = iota
	relDescendant
	relSibling
)

// reduce returns the candidate graph left after committing edge e of src.
func (src *BipartiteNodeGraph) reduce(e int) (*BipartiteNodeGraph, error) {
	cq, cm := src.edges[e].q, src.edges[e].m
	sc := src.sc
	dst := &BipartiteNodeGraph{sc: sc, hooks: src.hooks}

	// Stage 1: surviving nodes and edges.
	committed := [2]int{cq, cm}
	for side := 0; side < 2; side++ {
		dst.present[side] = append([]bool(nil), src.present[side]...)
		dst.present[side][committed[side]] = false
		dst.nodes[side] = make([]int, 0, len(src.nodes[side]))
		for _, v := range src.nodes[side] {
			if v != committed[side] {
				dst.nodes[side] = append(dst.nodes[side], v)
			}
		}
	}
	dst.edges = make([]bipEdge, 0, len(src.edges))
	dst.weight = make([]float64, 0, len(src.edges))
	for i, be := range src.edges {
		if be.q == cq || be.m == cm {
			continue
		}
		dst.edges = append(dst.edges, be)
		dst.weight = append(dst.weight, src.weight[i])
	}

	// Incidence per node, both sides.
	inc := [2][][]int{
		make([][]int, len(dst.present[SideQuery])),
		make([][]int, len(dst.present[SideModel])),
	}
	for i, be := range dst.edges {
		inc[SideQuery][be.q] = append(inc[SideQuery][be.q], i)
		inc[SideModel][be.m] = append(inc[SideModel][be.m], i)
	}

	// Stage 2: penalties around the committed pair.
	npi := NewNodePairInfo(sc.q, cq, sc.m, cm, sc.opts)
	processed := make([]bool, len(dst.edges))
	removed := make([]bool, len(dst.edges))
	graphs := [2]graphView{{sc.q}, {sc.m}}

	visit := func(side, v int, rel relation) error {
		if !dst.present[side][v] {
			return nil
		}
		for _, i := range inc[side][v] {
			if processed[i] {
				continue
			}
			processed[i] = true
			if err := dst.penalize(i, npi, rel, &removed[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for side := 0; side < 2; side++ {
		g, c := graphs[side], committed[side]
		for _, a := range g.Ancestors(c) {
			if err := visit(side, a, relAncestor); err != nil {
				return nil, err
			}
		}
		for _, d := range g.Descendants(c) {
			if err := visit(side, d, relDescendant); err != nil {
				return nil, err
			}
		}
		for _, s := range g.siblingSubtrees(c) {
			if err := visit(side, s, relSibling); err != nil {
				return nil, err
			}
		}
	}

	// Stage 3: drop removed or worthless edges.
	k := 0
	for i := range dst.edges {
		if removed[i] || dst.weight[i] <= 0 {
			continue
		}
		dst.edges[k] = dst.edges[i]
		dst.weight[k] = dst.weight[i]
		k++
	}
	dst.edges = dst.edges[:k]
	dst.weight = dst.weight[:k]

	return dst, nil
}

// penalize applies the penalty of relation rel to edge i.
func (g *BipartiteNodeGraph) penalize(i int, npi NodePairInfo, rel relation, removed *bool) error {
	be := g.edges[i]
	var c float64
	switch rel {
	case relAncestor:
		c = npi.AncestorPenalty(be.q, be.m)
	case relDescendant:
		c = npi.DescendantPenalty(be.q, be.m)
	default:
		c = npi.SiblingPenalty(be.q, be.m)
	}
	if !inUnit(c) {
		return invariant(g.sc.opts.Strict, "reduce", "penalty %v for (%d,%d)", c, be.q, be.m)
	}
	if c == 0 {
		*removed = true
		return nil
	}

	info := g.mutableInfo(i)
	if rel != relSibling && g.fixEdges(info, npi) {
		if err := g.sc.rescore(info); err != nil {
			return err
		}
	}
	if err := info.ApplyPenalty(c); err != nil {
		return invariant(g.sc.opts.Strict, "reduce", "%v", err)
	}
	info.SetClosestKnownAncestor(npi)
	g.weight[i] = info.PenalizedSimilarity()

	return nil
}

// fixEdges fixes the edge correspondence implied by a direct parent/child
// relation between info's nodes and the anchor pair on both sides.
func (g *BipartiteNodeGraph) fixEdges(info *NodeMatchInfo, npi NodePairInfo) bool {
	q, m := g.sc.q, g.sc.m
	aq, am := npi.Anchor(SideQuery), npi.Anchor(SideModel)

	// info's nodes are parents of the anchors: outward edges of info.
	if eq, ok := q.EdgeBetween(info.q, aq); ok {
		if em, ok := m.EdgeBetween(info.m, am); ok {
			return info.FixOutwardEdgeMatch(eq, em)
		}
	}
	// info's nodes are children of the anchors: inward edges of info.
	if eq, ok := q.EdgeBetween(aq, info.q); ok {
		if em, ok := m.EdgeBetween(am, info.m); ok {
			return info.FixInwardEdgeMatch(eq, em)
		}
	}
	return false
}

// SolveMaxWeightAssignment solves the assignment problem on the current
// penalized weights and returns the total and the chosen edges. A graph
// without edges yields 0 and no edges.
func (g *BipartiteNodeGraph) SolveMaxWeightAssignment() (float64, []int, error) {
	if len(g.edges) == 0 {
		return 0, nil, nil
	}

	// Only nodes that still carry edges take part.
	var (
		pos  [2]map[int]int
		dims [2]int
	)
	for side := 0; side < 2; side++ {
		pos[side] = make(map[int]int)
	}
	for _, be := range g.edges {
		if _, ok := pos[SideQuery][be.q]; !ok {
			pos[SideQuery][be.q] = dims[SideQuery]
			dims[SideQuery]++
		}
		if _, ok := pos[SideModel][be.m]; !ok {
			pos[SideModel][be.m] = dims[SideModel]
			dims[SideModel]++
		}
	}
	w := mat.NewDense(dims[SideQuery], dims[SideModel], nil)
	cell := make(map[[2]int]int, len(g.edges))
	for i, be := range g.edges {
		r, c := pos[SideQuery][be.q], pos[SideModel][be.m]
		w.Set(r, c, g.weight[i])
		cell[[2]int{r, c}] = i
	}

	var pairs []assign.Pair
	if g.sc.opts.Solver == SolverBeliefPropagation {
		opts := assign.DefaultBMatchOptions()
		opts.MaxIter = g.sc.opts.BPMaxIter
		opts.Insurance = g.sc.opts.BPInsurance
		res, err := assign.BMatch(w, opts)
		if err != nil {
			return 0, nil, err
		}
		g.hooks.beliefPropagation(res)
		pairs = res.Pairs
	} else {
		res, err := assign.MaxWeight(w)
		if err != nil {
			return 0, nil, err
		}
		pairs = res.Pairs
	}

	return g.chosenEdges(pairs, cell)
}

// chosenEdges maps solver cells back to edge indices, sorted, with their
// total weight. A cell that is not an edge is a solver fault.
func (g *BipartiteNodeGraph) chosenEdges(pairs []assign.Pair, cell map[[2]int]int) (float64, []int, error) {
	chosen := make([]int, 0, len(pairs))
	var total float64
	for _, p := range pairs {
		i, ok := cell[[2]int{p.Row, p.Col}]
		if !ok {
			return 0, nil, invariant(g.sc.opts.Strict, "SolveMaxWeightAssignment", "solver chose cell (%d,%d) without an edge", p.Row, p.Col)
		}
		chosen = append(chosen, i)
		total += g.weight[i]
	}
	sort.Ints(chosen)

	return total, chosen, nil
}

// NonZeroAssignments returns every edge with positive weight, best first
// under policy. Ties are broken by query node, then model node.
func (g *BipartiteNodeGraph) NonZeroAssignments(policy SortPolicy) []int {
	decay := g.sc.opts.CertaintyDecay
	out := make([]int, 0, len(g.edges))
	for i, w := range g.weight {
		if w > 0 {
			out = append(out, i)
		}
	}
	key := func(i int) float64 {
		if policy == SortByCertainty {
			return g.edges[i].info.Certainty(decay) * g.weight[i]
		}
		return g.weight[i]
	}
	sort.SliceStable(out, func(a, b int) bool {
		ka, kb := key(out[a]), key(out[b])
		if ka != kb {
			return ka > kb
		}
		ea, eb := g.edges[out[a]], g.edges[out[b]]
		if ea.q != eb.q {
			return ea.q < eb.q
		}
		return ea.m < eb.m
	})

	return out
}
