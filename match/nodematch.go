// SPDX-License-Identifier: MIT

// Package match — per-candidate similarity state.
//
// A NodeMatchInfo describes one (query node, model node) candidate pair.
// Node, topological and distance values are computed once and then frozen;
// edge similarity and the overall similarity are recomputed whenever an
// edge correspondence gets fixed. The penalty multiplier starts at 1 and is
// only ever multiplied by values in [0,1].
//
// Instances are shared between a bipartite graph and the graphs reduced
// from it. The owner field records which graph may mutate an instance; any
// other graph must Clone it first (see BipartiteNodeGraph.mutableInfo).
package match

import (
	"math"

	"github.com/katalvlaran/dagmatch/similarity"
)

// optFloat is a float64 that may be unset.
type optFloat struct {
	v  float64
	ok bool
}

func someFloat(v float64) optFloat { return optFloat{v: v, ok: true} }

// get returns the value, or def when unset.
func (o optFloat) get(def float64) float64 {
	if o.ok {
		return o.v
	}
	return def
}

// optInt is an int that may be unset.
type optInt struct {
	v  int
	ok bool
}

// EdgePair is a forced correspondence between a query edge and a model edge.
type EdgePair struct {
	Query int
	Model int
}

// edgeMap is the bipartite correspondence between the inward (or outward)
// edges of the two nodes of a candidate. It starts fully connected; every
// fixed pair removes all other options of its two edges.
type edgeMap struct {
	fixed []EdgePair
}

// fix forces eq ↔ em, dropping every fixed pair that shares one of the two
// edges, and reports whether the map changed.
func (e *edgeMap) fix(eq, em int) bool {
	kept := e.fixed[:0]
	present, changed := false, false
	for _, f := range e.fixed {
		switch {
		case f.Query == eq && f.Model == em:
			present = true
			kept = append(kept, f)
		case f.Query == eq || f.Model == em:
			changed = true
		default:
			kept = append(kept, f)
		}
	}
	e.fixed = kept
	if !present {
		e.fixed = append(e.fixed, EdgePair{Query: eq, Model: em})
		changed = true
	}
	return changed
}

// allowed reports whether eq ↔ em is still possible.
func (e *edgeMap) allowed(eq, em int) bool {
	for _, f := range e.fixed {
		if f.Query == eq || f.Model == em {
			return f.Query == eq && f.Model == em
		}
	}
	return true
}

func (e edgeMap) clone() edgeMap {
	if len(e.fixed) == 0 {
		return edgeMap{}
	}
	return edgeMap{fixed: append([]EdgePair(nil), e.fixed...)}
}

// NodeMatchInfo is the similarity state of one candidate pair.
type NodeMatchInfo struct {
	q, m  int
	level [2]int

	nodeSim  [similarity.MaxParams]optFloat
	nodeDist [similarity.MaxParams]optFloat
	edgeSim  optFloat
	tsvSim   optFloat
	sim      optFloat
	param    optInt

	// Distance in levels to the closest committed ancestor, per side.
	dist [2]optFloat

	penalty float64

	inward  edgeMap
	outward edgeMap

	owner *BipartiteNodeGraph
}

func newNodeMatchInfo(q, m, levelQ, levelM int) *NodeMatchInfo {
	return &NodeMatchInfo{q: q, m: m, level: [2]int{levelQ, levelM}, penalty: 1}
}

// Query returns the query node index.
func (mi *NodeMatchInfo) Query() int { return mi.q }

// Model returns the model node index.
func (mi *NodeMatchInfo) Model() int { return mi.m }

// Similarity returns the unpenalized similarity, 0 if not computed yet.
func (mi *NodeMatchInfo) Similarity() float64 { return mi.sim.get(0) }

// HasSimilarity reports whether the similarity has been computed.
func (mi *NodeMatchInfo) HasSimilarity() bool { return mi.sim.ok }

// NodeSimilarity returns the attribute similarity under param.
func (mi *NodeMatchInfo) NodeSimilarity(param int) (float64, bool) {
	if param < 0 || param >= similarity.MaxParams {
		return 0, false
	}
	return mi.nodeSim[param].v, mi.nodeSim[param].ok
}

// NodeDistance returns the attribute distance under param.
func (mi *NodeMatchInfo) NodeDistance(param int) (float64, bool) {
	if param < 0 || param >= similarity.MaxParams {
		return 0, false
	}
	return mi.nodeDist[param].v, mi.nodeDist[param].ok
}

// EdgeSimilarity returns the mean similarity of the fixed edge pairs.
func (mi *NodeMatchInfo) EdgeSimilarity() (float64, bool) { return mi.edgeSim.v, mi.edgeSim.ok }

// TopologicalSimilarity returns the signature similarity.
func (mi *NodeMatchInfo) TopologicalSimilarity() (float64, bool) { return mi.tsvSim.v, mi.tsvSim.ok }

// Param returns the selected parameter index.
func (mi *NodeMatchInfo) Param() (int, bool) { return mi.param.v, mi.param.ok }

// PenaltyMultiplier returns the accumulated penalty in [0,1].
func (mi *NodeMatchInfo) PenaltyMultiplier() float64 { return mi.penalty }

// PenalizedSimilarity returns similarity × penalty multiplier.
func (mi *NodeMatchInfo) PenalizedSimilarity() float64 { return mi.Similarity() * mi.penalty }

// DistToAncestor returns the level distance to the closest committed
// ancestor on side. Without one it is the node's level + 1, the distance to
// a virtual node above the root.
func (mi *NodeMatchInfo) DistToAncestor(side int) float64 {
	return mi.dist[side].get(float64(mi.level[side] + 1))
}

// Certainty returns exp(-max(dist)/decay), or 1 when decay is 0.
func (mi *NodeMatchInfo) Certainty(decay float64) float64 {
	if decay == 0 {
		return 1
	}
	d := math.Max(mi.DistToAncestor(SideQuery), mi.DistToAncestor(SideModel))
	return math.Exp(-d / decay)
}

// CertaintyAndSimilarity returns Certainty(decay) × PenalizedSimilarity.
func (mi *NodeMatchInfo) CertaintyAndSimilarity(decay float64) float64 {
	return mi.Certainty(decay) * mi.PenalizedSimilarity()
}

// ApplyPenalty multiplies the penalty multiplier by c, which must lie in [0,1].
func (mi *NodeMatchInfo) ApplyPenalty(c float64) error {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return &InvariantError{Op: "ApplyPenalty", Msg: "coefficient outside [0,1]"}
	}
	mi.penalty *= c
	return nil
}

// SetClosestKnownAncestor tightens the ancestor distance of every side on
// which the anchor of npi is an ancestor of this candidate's node.
func (mi *NodeMatchInfo) SetClosestKnownAncestor(npi NodePairInfo) {
	nodes := [2]int{mi.q, mi.m}
	for side, v := range nodes {
		if !npi.IsDescendant(side, v) {
			continue
		}
		d := float64(npi.RelativeLevel(side, v))
		if !mi.dist[side].ok || d < mi.dist[side].v {
			mi.dist[side] = someFloat(d)
		}
	}
}

// FixInwardEdgeMatch forces the inward query edge eq to correspond to the
// inward model edge em. It reports whether anything changed.
func (mi *NodeMatchInfo) FixInwardEdgeMatch(eq, em int) bool { return mi.inward.fix(eq, em) }

// FixOutwardEdgeMatch forces the outward query edge eq to correspond to the
// outward model edge em. It reports whether anything changed.
func (mi *NodeMatchInfo) FixOutwardEdgeMatch(eq, em int) bool { return mi.outward.fix(eq, em) }

// InwardAllowed reports whether inward edges eq and em may still correspond.
func (mi *NodeMatchInfo) InwardAllowed(eq, em int) bool { return mi.inward.allowed(eq, em) }

// OutwardAllowed reports whether outward edges eq and em may still correspond.
func (mi *NodeMatchInfo) OutwardAllowed(eq, em int) bool { return mi.outward.allowed(eq, em) }

// FixedEdges returns the forced inward and outward edge pairs.
func (mi *NodeMatchInfo) FixedEdges() (inward, outward []EdgePair) {
	return append([]EdgePair(nil), mi.inward.fixed...), append([]EdgePair(nil), mi.outward.fixed...)
}

// Clone returns an unowned deep copy.
func (mi *NodeMatchInfo) Clone() *NodeMatchInfo {
	c := *mi
	c.inward = mi.inward.clone()
	c.outward = mi.outward.clone()
	c.owner = nil
	return &c
}
