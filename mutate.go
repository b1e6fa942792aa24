package flatdoc

import (
	"fmt"
)

// insert adds a node as the last child of parent and returns its position,
// or -1 if parent cannot take children or is removed.
//
// When parent's children (if any) are at the very end of the array, which is
// always the case when building a document front to back, the node is simply
// appended. Otherwise it is inserted in the middle and every node whose
// parent moved gets its parent index bumped.
func (t *Tree) insert(parent int, name string, v Value) int {
	nodes := t.store.nodes
	if parent < 0 || parent >= len(nodes) {
		panic(fmt.Errorf("flatdoc: parent position %d out of range [0, %d)", parent, len(nodes)))
	}
	if nodes[parent].removed {
		return -1
	}
	switch nodes[parent].Value.kind {
	case KindObject:
	case KindArray:
		name = ""
	case KindRoot:
		if len(nodes) > 1 {
			return -1 // one document per tree
		}
		name = ""
	default:
		return -1
	}
	n := Node{Name: name, Value: t.conform(v), Parent: parent}
	if parent >= nodes[len(nodes)-1].Parent {
		return t.store.append(n)
	}
	pos := t.store.insertSorted(parent, n)
	t.gen++
	return pos
}

// conform re-encodes numeric values built for a different width.
func (t *Tree) conform(v Value) Value {
	switch v.kind {
	case KindInt:
		if len(v.buf) != t.opt.Widths.Int.bytes() {
			return t.opt.Widths.IntValue(v.Int())
		}
	case KindFloat:
		if len(v.buf) != t.opt.Widths.Float.bytes() {
			return t.opt.Widths.FloatValue(v.Float())
		}
	case KindRoot:
		panic("flatdoc: root marker cannot be stored below the synthetic root")
	}
	return v
}

// replace sets the value of the node at pos, optionally dropping its subtree
// first, and returns the node's position afterwards, or -1 if the node is
// removed. Dropping the subtree compacts the whole tree, so pos moves down by
// the number of removed nodes in front of it.
func (t *Tree) replace(pos int, v Value, dropChildren bool) int {
	if t.store.at(pos).removed {
		return -1
	}
	if dropChildren {
		b, e := t.store.childRange(pos)
		if b < e {
			for i := b; i < e; i++ {
				t.markRemoved(i)
			}
			pos -= t.removedBefore(pos)
			t.Compact()
		}
	}
	t.store.at(pos).Value = t.conform(v)
	return pos
}

func (t *Tree) removedBefore(pos int) int {
	if t.pending == 0 {
		return 0
	}
	var n int
	for i := 1; i < pos; i++ {
		if t.store.nodes[i].removed {
			n++
		}
	}
	return n
}

// markRemoved tombstones pos and all of its descendants. Descendants at each
// depth form one contiguous run, so the subtree is walked level by level.
func (t *Tree) markRemoved(pos int) {
	s := &t.store
	lo, hi := pos, pos+1
	for lo < hi {
		for i := lo; i < hi; i++ {
			if !s.nodes[i].removed {
				s.nodes[i].removed = true
				t.pending++
			}
		}
		nlo := s.upperBound(hi, lo-1)
		nhi := s.upperBound(nlo, hi-1)
		lo, hi = nlo, nhi
	}
}

// Pending returns the number of removed nodes awaiting compaction.
func (t *Tree) Pending() int { return t.pending }

// Compact physically erases removed nodes and returns how many were erased.
// Every erase shifts the parent indices of later nodes down by one.
func (t *Tree) Compact() int {
	if t.pending == 0 {
		return 0
	}
	s := &t.store
	var erased int
	for i := 1; i < s.Len(); {
		if s.nodes[i].removed {
			s.erase(i)
			erased++
			continue // the slot now holds the next node
		}
		i++
	}
	t.pending = 0
	t.gen++
	return erased
}
