// SPDX-License-Identifier: MIT

// Package dag defines the rooted, node-labelled directed acyclic graph consumed
// by the matcher. This file declares Node, Edge, the sentinel error set and the
// immutable Graph type; construction lives in builder.go, read-only accessors
// in graph.go.
//
// Errors:
//
//	ErrEmptyGraph     - Build called without nodes.
//	ErrEmptyNodeID    - node ID is the empty string.
//	ErrDuplicateNode  - node ID already present.
//	ErrUnknownNode    - edge endpoint or lookup references a missing node.
//	ErrSelfLoop       - edge from a node to itself.
//	ErrDuplicateEdge  - second edge between the same ordered pair.
//	ErrNoRoot         - every node has a parent.
//	ErrMultipleRoots  - more than one node without parents.
//	ErrCycle          - a directed cycle was detected.
//	ErrBadValue       - negative, NaN or infinite mass/cost/weight/attribute.
package dag

import "errors"

var (
	// ErrEmptyGraph indicates that Build was called on a builder without nodes.
	ErrEmptyGraph = errors.New("dag: graph has no nodes")

	// ErrEmptyNodeID indicates that a Node with an empty ID was added.
	ErrEmptyNodeID = errors.New("dag: node ID is empty")

	// ErrDuplicateNode indicates that a node ID was added twice.
	ErrDuplicateNode = errors.New("dag: duplicate node ID")

	// ErrUnknownNode indicates that an edge or lookup referenced a missing node.
	ErrUnknownNode = errors.New("dag: unknown node")

	// ErrSelfLoop indicates an edge whose endpoints coincide.
	ErrSelfLoop = errors.New("dag: self-loop not allowed")

	// ErrDuplicateEdge indicates a parallel edge between the same ordered pair.
	ErrDuplicateEdge = errors.New("dag: duplicate edge")

	// ErrNoRoot indicates that no node is free of parents.
	ErrNoRoot = errors.New("dag: graph has no root")

	// ErrMultipleRoots indicates that more than one node is free of parents.
	ErrMultipleRoots = errors.New("dag: graph has more than one root")

	// ErrCycle indicates that the edges close a directed cycle.
	ErrCycle = errors.New("dag: cycle detected")

	// ErrBadValue indicates a negative, NaN or infinite numeric field.
	ErrBadValue = errors.New("dag: invalid numeric value")
)

// Node is one vertex of a shape graph.
//
// Attrs carries the geometric attributes (radius profile, flow direction,
// curvature samples, ...) that a similarity.Measurer compares. The package
// never interprets them beyond validating that they are finite.
type Node struct {
	// ID uniquely identifies the node within its graph.
	ID string

	// Label is a free-form attribute label (e.g. the shock type).
	Label string

	// Mass is the relative importance of the node (area, length, ...).
	Mass float64

	// Cost is the cost of deleting the node; SubtreeCost aggregates it.
	Cost float64

	// Attrs is the attribute vector compared by measurers.
	Attrs []float64
}

// Edge is a directed parent→child connection with a non-negative weight.
type Edge struct {
	From   string
	To     string
	Weight float64
}

// edgeRec is the frozen, index-based form of an Edge.
type edgeRec struct {
	from   int
	to     int
	weight float64
}

// Graph is an immutable rooted DAG.
//
// Nodes are stored and addressed by their depth-first (preorder) index, so
// every per-node slice below is dense in [0, NumNodes). The reachability
// closure reach[a][b] reports whether a is a proper ancestor of b and makes
// ancestor/descendant tests O(1).
//
// A Graph is safe for concurrent readers; it has no mutators.
type Graph struct {
	name  string
	nodes []Node         // by DFS index
	index map[string]int // node ID → DFS index

	edges    []edgeRec
	out      [][]int // node → outgoing edge indices
	in       [][]int // node → incoming edge indices
	children [][]int // node → child node indices (insertion order)
	parents  [][]int // node → parent node indices (insertion order)

	level       []int
	subtreeCost []float64
	reach       [][]bool

	root         int
	totalMass    float64
	totalCost    float64
	maxOutDegree int
}
