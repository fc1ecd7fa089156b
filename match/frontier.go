// SPDX-License-Identifier: MIT

// Package match — frontier containers for the solution-set search.
//
// fifoFrontier expands solution sets in creation order, the bounded anytime
// behaviour. bestFirstFrontier orders by partial + estimate (largest first)
// on a B-tree, creation order breaking ties.
package match

import "github.com/tidwall/btree"

type frontier interface {
	push(id int, score float64)
	pop() (int, bool)
	// best returns the entry with the largest score without removing it.
	best() (int, bool)
	size() int
}

func newFrontier(p FrontierPolicy) frontier {
	if p == FrontierBestFirst {
		return newBestFirstFrontier()
	}
	return &fifoFrontier{}
}

type fifoEntry struct {
	id    int
	score float64
}

type fifoFrontier struct {
	q    []fifoEntry
	head int
}

func (f *fifoFrontier) push(id int, score float64) {
	f.q = append(f.q, fifoEntry{id: id, score: score})
}

func (f *fifoFrontier) pop() (int, bool) {
	if f.head == len(f.q) {
		return 0, false
	}
	e := f.q[f.head]
	f.head++
	// Reclaim the consumed prefix once it dominates the buffer.
	if f.head > 64 && f.head*2 > len(f.q) {
		f.q = append(f.q[:0], f.q[f.head:]...)
		f.head = 0
	}
	return e.id, true
}

func (f *fifoFrontier) best() (int, bool) {
	if f.head == len(f.q) {
		return 0, false
	}
	b := f.q[f.head]
	for _, e := range f.q[f.head+1:] {
		if e.score > b.score {
			b = e
		}
	}
	return b.id, true
}

func (f *fifoFrontier) size() int { return len(f.q) - f.head }

type frontierItem struct {
	score float64
	seq   int
	id    int
}

// frontierLess puts larger scores first and older entries first among equals.
func frontierLess(a, b frontierItem) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.seq < b.seq
}

type bestFirstFrontier struct {
	tree *btree.BTreeG[frontierItem]
	seq  int
}

func newBestFirstFrontier() *bestFirstFrontier {
	return &bestFirstFrontier{tree: btree.NewBTreeG[frontierItem](frontierLess)}
}

func (f *bestFirstFrontier) push(id int, score float64) {
	f.tree.Set(frontierItem{score: score, seq: f.seq, id: id})
	f.seq++
}

func (f *bestFirstFrontier) pop() (int, bool) {
	it, ok := f.tree.PopMin()
	return it.id, ok
}

func (f *bestFirstFrontier) best() (int, bool) {
	it, ok := f.tree.Min()
	return it.id, ok
}

func (f *bestFirstFrontier) size() int { return f.tree.Len() }
