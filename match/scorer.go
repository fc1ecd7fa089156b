// SPDX-License-Identifier: MIT

// Package match — similarity scoring of candidate pairs.
//
// For a candidate (u, v) under the selected parameter p:
//
//	attr = (1-EdgeWeight)·nodeSim(p) + EdgeWeight·edge
//	sim  = (1-TSVWeight)·attr + TSVWeight·tsv(u, v)
//	sim *= (relMass(u) + relMass(v)) / 2     with RelativeMass
//
// edge averages the similarity of the fixed edge pairs over all edge slots
// of the candidate (min(in_u, in_v) + min(out_u, out_v)); slots that are not
// fixed yet count as 1. Fixing an edge pair therefore never raises a
// candidate's similarity, which keeps assignment estimates admissible.
//
// Every value coming from the measurer is checked against its contract.
package match

import (
	"math"

	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/similarity"
)

// scorer computes candidate similarities for one run.
type scorer struct {
	q, m    *dag.Graph
	meas    similarity.Measurer
	opts    *Options
	nparams int
	sig     [2]*similarity.Signatures
}

func newScorer(q, m *dag.Graph, meas similarity.Measurer, opts *Options) (*scorer, error) {
	s := &scorer{q: q, m: m, meas: meas, opts: opts, nparams: meas.NumParams()}
	if s.nparams < 1 || s.nparams > similarity.MaxParams {
		return nil, invariant(opts.Strict, "newScorer", "measurer exposes %d parameters", s.nparams)
	}
	if opts.TSVWeight > 0 {
		dim := q.MaxOutDegree()
		if d := m.MaxOutDegree(); d > dim {
			dim = d
		}
		var err error
		if s.sig[SideQuery], err = similarity.NewSignatures(q, dim); err != nil {
			return nil, err
		}
		if s.sig[SideModel], err = similarity.NewSignatures(m, dim); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// newInfo evaluates the candidate (u, v) from scratch.
func (s *scorer) newInfo(u, v int) (*NodeMatchInfo, error) {
	mi := newNodeMatchInfo(u, v, s.q.Level(u), s.m.Level(v))

	var p int
	for p = 0; p < s.nparams; p++ {
		d := s.meas.NodeDistance(s.q, u, s.m, v, p)
		if math.IsNaN(d) || d < 0 {
			return nil, invariant(s.opts.Strict, "NodeDistance", "distance %v for (%d,%d) param %d", d, u, v, p)
		}
		x := s.meas.NodeSimilarity(s.q, u, s.m, v, p)
		if !inUnit(x) {
			return nil, invariant(s.opts.Strict, "NodeSimilarity", "similarity %v for (%d,%d) param %d", x, u, v, p)
		}
		mi.nodeDist[p] = someFloat(d)
		mi.nodeSim[p] = someFloat(x)
	}

	best := 0
	for p = 1; p < s.nparams; p++ {
		if mi.nodeSim[p].v > mi.nodeSim[best].v {
			best = p
		}
	}
	if s.opts.NodeSimilarity == NodeSimilarityFirst {
		best = 0
	}
	mi.param = optInt{v: best, ok: true}

	if s.sig[SideQuery] != nil {
		mi.tsvSim = someFloat(similarity.TSVSimilarity(s.sig[SideQuery].Vector(u), s.sig[SideModel].Vector(v)))
	}

	if err := s.rescore(mi); err != nil {
		return nil, err
	}

	return mi, nil
}

// nodeValue is the attribute similarity selected by the node-similarity policy.
func (s *scorer) nodeValue(mi *NodeMatchInfo) float64 {
	if s.opts.NodeSimilarity == NodeSimilarityMean {
		var sum float64
		for p := 0; p < s.nparams; p++ {
			sum += mi.nodeSim[p].v
		}
		return sum / float64(s.nparams)
	}
	return mi.nodeSim[mi.param.v].v
}

// rescore recomputes edge similarity and overall similarity of mi.
func (s *scorer) rescore(mi *NodeMatchInfo) error {
	param := mi.param.v
	var (
		sum float64
		cnt int
	)
	for _, set := range [2][]EdgePair{mi.inward.fixed, mi.outward.fixed} {
		for _, f := range set {
			x := s.meas.EdgeSimilarity(s.q, f.Query, s.m, f.Model, param)
			if !inUnit(x) {
				return invariant(s.opts.Strict, "EdgeSimilarity", "similarity %v for edges (%d,%d)", x, f.Query, f.Model)
			}
			sum += x
			cnt++
		}
	}
	if cnt > 0 {
		mi.edgeSim = someFloat(sum / float64(cnt))
	}
	edge := 1.0
	if slots := s.edgeSlots(mi.q, mi.m); slots > 0 {
		edge = (sum + float64(slots-cnt)) / float64(slots)
	}
	attr := (1-s.opts.EdgeWeight)*s.nodeValue(mi) + s.opts.EdgeWeight*edge

	sim := attr
	if mi.tsvSim.ok {
		sim = (1-s.opts.TSVWeight)*attr + s.opts.TSVWeight*mi.tsvSim.v
	}
	if s.opts.RelativeMass {
		sim *= (relMass(s.q, mi.q) + relMass(s.m, mi.m)) / 2
	}
	if sim > 1 && sim <= 1+roundoff {
		sim = 1
	}
	if !inUnit(sim) {
		return invariant(s.opts.Strict, "rescore", "similarity %v for (%d,%d)", sim, mi.q, mi.m)
	}
	mi.sim = someFloat(sim)

	return nil
}

// edgeSlots is the number of edge pairs u and v can have fixed at most.
func (s *scorer) edgeSlots(u, v int) int {
	return min(len(s.q.InEdges(u)), len(s.m.InEdges(v))) + min(len(s.q.OutEdges(u)), len(s.m.OutEdges(v)))
}

// relMass is the share of the graph's mass carried by v.
func relMass(g *dag.Graph, v int) float64 {
	if t := g.TotalMass(); t > 0 {
		return g.Mass(v) / t
	}
	return 1 / float64(g.NumNodes())
}

// roundoff absorbs blending error in convex combinations of values in [0,1].
const roundoff = 1e-12

func inUnit(x float64) bool { return !math.IsNaN(x) && x >= 0 && x <= 1 }
