// SPDX-License-Identifier: MIT

// Package match — solution-set search.
//
// A solution set is one node of the search tree: a committed candidate pair
// plus the reduced candidate graph of everything still unmatched. Sets live
// in an arena and refer to their parent by index, so a complete solution is
// recovered by walking parent links from its last set.
//
//	partial(s)  = partial(parent) + penalized(s.own)      partial(root) = 0
//	estimate(s) = max-weight assignment of s.graph         (upper bound, exact solver)
//	total(s)    = partial(s) + estimate(s)
//
// The driver:
//  1. Seeds the frontier with the root set.
//  2. Pops a set (checking ctx), skips it when its total cannot beat the
//     incumbent (exact solver only), and creates up to MaxChildren children
//     from its best candidates, never more than MaxSolutionSets in total.
//  3. Complete children (no candidates left) compete for the incumbent;
//     the others enter the frontier.
//  4. When the cap stops the search early and GreedyCompletion is set, the
//     frontier entry with the largest total is completed greedily.
//
// Children of one expansion are independent given the parent's graph, so
// with Workers > 1 they are built concurrently; merging and incumbent
// updates stay on the driver goroutine, in candidate order.
//
// Complexity: worst case exponential; bounded by MaxSolutionSets reductions
// and assignment solves, plus at most |Q| steps of greedy completion.
package match

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type solutionSet struct {
	parent   int
	info     *NodeMatchInfo
	graph    *BipartiteNodeGraph
	own      float64
	partial  float64
	estimate float64
	depth    int
	complete bool
}

func (s *solutionSet) total() float64 { return s.partial + s.estimate }

// searchStats counts the work of one run.
type searchStats struct {
	created    int
	expansions int
	pruned     int
	maxDepth   int
}

type searchEngine struct {
	ctx   context.Context
	opts  *Options
	hooks *runHooks

	sets  []solutionSet
	front frontier

	best      int
	bestScore float64
	truncated bool
	stats     searchStats
}

func newSearchEngine(ctx context.Context, opts *Options, hooks *runHooks, root *BipartiteNodeGraph) (*searchEngine, error) {
	e := &searchEngine{ctx: ctx, opts: opts, hooks: hooks, best: -1}
	est, _, err := root.SolveMaxWeightAssignment()
	if err != nil {
		return nil, err
	}
	e.sets = append(e.sets, solutionSet{
		parent:   -1,
		graph:    root,
		estimate: est,
		complete: root.NumEdges() == 0,
	})

	return e, nil
}

// canPrune reports whether estimates are admissible upper bounds.
func (e *searchEngine) canPrune() bool { return e.opts.Solver == SolverExact }

// makeChild commits edge edge of parent's graph. It does not touch the
// arena and is safe to call concurrently for one parent.
func (e *searchEngine) makeChild(parent solutionSet, parentID, edge int) (solutionSet, error) {
	pg := parent.graph
	g, err := pg.reduce(edge)
	if err != nil {
		return solutionSet{}, err
	}
	est, _, err := g.SolveMaxWeightAssignment()
	if err != nil {
		return solutionSet{}, err
	}
	if est < 0 || est > g.TotalWeight()+e.opts.Eps {
		return solutionSet{}, invariant(e.opts.Strict, "estimate", "estimate %v outside [0, %v]", est, g.TotalWeight())
	}

	return solutionSet{
		parent:   parentID,
		info:     pg.Info(edge),
		graph:    g,
		own:      pg.Weight(edge),
		partial:  parent.partial + pg.Weight(edge),
		estimate: est,
		depth:    parent.depth + 1,
		complete: g.NumEdges() == 0,
	}, nil
}

// makeChildren builds the children for the first k candidates of parentID.
func (e *searchEngine) makeChildren(parentID int, cands []int) ([]solutionSet, error) {
	parent := e.sets[parentID]
	out := make([]solutionSet, len(cands))
	if e.opts.Workers <= 1 || len(cands) == 1 {
		for i, c := range cands {
			child, err := e.makeChild(parent, parentID, c)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	}

	g, _ := errgroup.WithContext(e.ctx)
	g.SetLimit(e.opts.Workers)
	for i, c := range cands {
		i, c := i, c
		g.Go(func() error {
			child, err := e.makeChild(parent, parentID, c)
			if err != nil {
				return err
			}
			out[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// add appends s to the arena and returns its id.
func (e *searchEngine) add(s solutionSet) int {
	e.sets = append(e.sets, s)
	if s.depth > e.stats.maxDepth {
		e.stats.maxDepth = s.depth
	}
	return len(e.sets) - 1
}

// offer makes id the incumbent when it is complete and better.
func (e *searchEngine) offer(id int) {
	s := &e.sets[id]
	if !s.complete {
		return
	}
	if e.best < 0 || s.partial > e.bestScore+e.opts.Eps {
		e.best, e.bestScore = id, s.partial
	}
}

// hopeless reports whether s cannot beat the incumbent.
func (e *searchEngine) hopeless(s *solutionSet) bool {
	return e.canPrune() && e.best >= 0 && s.total() <= e.bestScore+e.opts.Eps
}

// run executes the bounded search. The returned error is ctx.Err() on
// cancellation or an invariant failure.
func (e *searchEngine) run() error {
	if e.sets[0].complete {
		e.offer(0)
		return nil
	}
	e.front = newFrontier(e.opts.Frontier)
	e.front.push(0, e.sets[0].total())

	for e.front.size() > 0 {
		if err := e.ctx.Err(); err != nil {
			return err
		}
		if e.stats.created >= e.opts.MaxSolutionSets {
			e.truncated = true
			break
		}
		id, _ := e.front.pop()
		if e.hopeless(&e.sets[id]) {
			e.stats.pruned++
			e.hooks.pruned()
			e.sets[id].graph = nil
			continue
		}

		cands := e.sets[id].graph.NonZeroAssignments(e.opts.Sort)
		k := min(e.opts.MaxChildren, len(cands))
		if room := e.opts.MaxSolutionSets - e.stats.created; k > room {
			k = room
			e.truncated = true
		}
		children, err := e.makeChildren(id, cands[:k])
		if err != nil {
			return err
		}
		e.stats.expansions++
		e.stats.created += k
		e.hooks.expanded()
		e.hooks.setsCreated(k)
		e.sets[id].graph = nil

		for _, c := range children {
			cid := e.add(c)
			switch s := &e.sets[cid]; {
			case s.complete:
				e.offer(cid)
				s.graph = nil
			case e.hopeless(s):
				e.stats.pruned++
				e.hooks.pruned()
				s.graph = nil
			default:
				e.front.push(cid, s.total())
			}
		}
	}

	if e.truncated && e.opts.GreedyCompletion {
		if id, ok := e.front.best(); ok {
			leaf, err := e.dive(id)
			if err != nil {
				return err
			}
			e.offer(leaf)
		}
	}

	return nil
}

// dive commits the best candidate repeatedly, starting at id, until the
// set is complete, and returns the final set.
func (e *searchEngine) dive(id int) (int, error) {
	for !e.sets[id].complete {
		if err := e.ctx.Err(); err != nil {
			return -1, err
		}
		cands := e.sets[id].graph.NonZeroAssignments(e.opts.Sort)
		child, err := e.makeChild(e.sets[id], id, cands[0])
		if err != nil {
			return -1, err
		}
		e.sets[id].graph = nil
		id = e.add(child)
	}
	e.sets[id].graph = nil

	return id, nil
}

// chain returns the set ids from the first commit down to id.
func (e *searchEngine) chain(id int) []int {
	var out []int
	for ; id > 0; id = e.sets[id].parent {
		out = append(out, id)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
