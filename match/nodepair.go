// SPDX-License-Identifier: MIT

// Package match — relation queries and penalties around one committed pair.
//
// A NodePairInfo is anchored at a committed (query node, model node) pair.
// For a candidate (qq, mm) standing in some relation to the anchor on at
// least one side, the penalty is:
//
//	relation broken on one side          → floor
//	preserved, level diff 0 or sigma 0   → 1
//	preserved, level diff d              → floor + (1-floor)·exp(-d²/2σ²)
//
// where d = relLevel(qq) - relLevel(mm). With node skipping disabled a
// preserved ancestor/descendant relation with d ≠ 0 yields 0, which removes
// the candidate.
package match

import (
	"math"

	"github.com/katalvlaran/dagmatch/dag"
)

// Graph sides.
const (
	SideQuery = 0
	SideModel = 1
)

// NodePairInfo answers relation queries relative to one anchor pair.
// It is a small value; create one per committed match.
type NodePairInfo struct {
	g    [2]*dag.Graph
	node [2]int
	opts *Options
}

// NewNodePairInfo anchors relation queries at (qn, mn).
func NewNodePairInfo(q *dag.Graph, qn int, m *dag.Graph, mn int, opts *Options) NodePairInfo {
	return NodePairInfo{g: [2]*dag.Graph{q, m}, node: [2]int{qn, mn}, opts: opts}
}

// Anchor returns the anchor node of side.
func (p NodePairInfo) Anchor(side int) int { return p.node[side] }

// IsAncestor reports whether v is a proper ancestor of the anchor on side.
func (p NodePairInfo) IsAncestor(side, v int) bool {
	return p.g[side].IsAncestor(v, p.node[side])
}

// IsDescendant reports whether v is a proper descendant of the anchor on side.
func (p NodePairInfo) IsDescendant(side, v int) bool {
	return p.g[side].IsDescendant(v, p.node[side])
}

// IsSibling reports whether v shares a parent with the anchor on side.
func (p NodePairInfo) IsSibling(side, v int) bool {
	g, a := p.g[side], p.node[side]
	if v == a {
		return false
	}
	for _, par := range g.Parents(a) {
		if _, ok := g.EdgeBetween(par, v); ok {
			return true
		}
	}
	return false
}

// IsSiblingOrSiblingDescendant reports whether v is a sibling of the anchor
// or lies below one.
func (p NodePairInfo) IsSiblingOrSiblingDescendant(side, v int) bool {
	g, a := p.g[side], p.node[side]
	if v == a {
		return false
	}
	for _, par := range g.Parents(a) {
		for _, s := range g.Children(par) {
			if s == a {
				continue
			}
			if v == s || g.IsDescendant(v, s) {
				return true
			}
		}
	}
	return false
}

// RelativeLevel returns level(v) - level(anchor) on side.
func (p NodePairInfo) RelativeLevel(side, v int) int {
	return p.g[side].Level(v) - p.g[side].Level(p.node[side])
}

// AncestorPenalty returns the penalty in [0,1] for candidate (qq, mm) where
// at least one of them is an ancestor of its anchor.
func (p NodePairInfo) AncestorPenalty(qq, mm int) float64 {
	return p.relationPenalty(
		p.IsAncestor(SideQuery, qq), p.IsAncestor(SideModel, mm),
		p.RelativeLevel(SideQuery, qq), p.RelativeLevel(SideModel, mm),
		p.opts.AncestorPenalty, p.opts.AncestorSigma, true,
	)
}

// DescendantPenalty returns the penalty in [0,1] for candidate (qq, mm)
// where at least one of them is a descendant of its anchor.
func (p NodePairInfo) DescendantPenalty(qq, mm int) float64 {
	return p.relationPenalty(
		p.IsDescendant(SideQuery, qq), p.IsDescendant(SideModel, mm),
		p.RelativeLevel(SideQuery, qq), p.RelativeLevel(SideModel, mm),
		p.opts.DescendantPenalty, p.opts.DescendantSigma, true,
	)
}

// SiblingPenalty returns the penalty in [0,1] for candidate (qq, mm) where
// at least one of them is a sibling (or below a sibling) of its anchor.
// A negative relative level counts as missing and takes the other side's
// value.
func (p NodePairInfo) SiblingPenalty(qq, mm int) float64 {
	lq, lm := p.RelativeLevel(SideQuery, qq), p.RelativeLevel(SideModel, mm)
	switch {
	case lq < 0 && lm < 0:
		lq, lm = 0, 0
	case lq < 0:
		lq = lm
	case lm < 0:
		lm = lq
	}
	return p.relationPenalty(
		p.IsSiblingOrSiblingDescendant(SideQuery, qq), p.IsSiblingOrSiblingDescendant(SideModel, mm),
		lq, lm,
		p.opts.SiblingPenalty, p.opts.SiblingSigma, false,
	)
}

func (p NodePairInfo) relationPenalty(rq, rm bool, lq, lm int, floor, sigma float64, skippable bool) float64 {
	if rq != rm {
		return floor
	}
	diff := float64(lq - lm)
	if diff == 0 || sigma == 0 {
		return 1
	}
	if skippable && !p.opts.NodeSkipping {
		return 0
	}

	return floor + (1-floor)*math.Exp(-diff*diff/(2*sigma*sigma))
}
