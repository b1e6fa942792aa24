package flatdoc

import (
	"slices"
	"sort"
)

// Node is a single slot of the flat node array. Parent is the absolute
// position of the parent node, or -1 for the synthetic root.
type Node struct {
	Name    string
	Value   Value
	Parent  int
	removed bool
}

// Removed reports whether the node is tombstoned and awaits compaction.
func (n *Node) Removed() bool { return n.removed }

// nodeStore keeps nodes in breadth-first order: reading left to right, the
// parent indices never decrease, so the children of any node form one
// contiguous run located after the node itself.
type nodeStore struct {
	nodes []Node
}

func (s *nodeStore) Len() int { return len(s.nodes) }

func (s *nodeStore) at(i int) *Node { return &s.nodes[i] }

func (s *nodeStore) append(n Node) int {
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

// upperBound returns the first position in [from, len) whose parent index is
// greater than p.
func (s *nodeStore) upperBound(from, p int) int {
	nodes := s.nodes[from:]
	return from + sort.Search(len(nodes), func(i int) bool {
		return nodes[i].Parent > p
	})
}

// childRange returns the run [begin, end) of children of the node at parent.
// A childless node yields the empty range (Len, Len).
func (s *nodeStore) childRange(parent int) (begin, end int) {
	n := len(s.nodes)
	if parent+1 >= n {
		return n, n
	}
	begin = s.upperBound(parent+1, parent-1)
	if begin == n || s.nodes[begin].Parent != parent {
		return n, n
	}
	end = s.upperBound(begin, parent)
	return begin, end
}

// lastLive returns the last position in [b, e) that is not removed, or -1.
func (s *nodeStore) lastLive(b, e int) int {
	for i := e - 1; i >= b; i-- {
		if !s.nodes[i].removed {
			return i
		}
	}
	return -1
}

// nthLive returns the position of the i-th node in [b, e) that is not
// removed, or -1.
func (s *nodeStore) nthLive(b, e, i int) int {
	for p := b; p < e; p++ {
		if s.nodes[p].removed {
			continue
		}
		if i == 0 {
			return p
		}
		i--
	}
	return -1
}

// insertPos is the position a new last child of parent must occupy.
func (s *nodeStore) insertPos(parent int) int {
	return s.upperBound(parent+1, parent)
}

// insertSorted places n after the existing children of parent, shifting the
// stored parent index of every node whose parent moves along with it.
func (s *nodeStore) insertSorted(parent int, n Node) int {
	pos := s.insertPos(parent)
	shift := s.upperBound(pos, pos-1)
	for i := shift; i < len(s.nodes); i++ {
		s.nodes[i].Parent++
	}
	n.Parent = parent
	s.nodes = slices.Insert(s.nodes, pos, n)
	return pos
}

// erase removes the node at pos, renumbering parents that followed it.
func (s *nodeStore) erase(pos int) {
	shift := s.upperBound(pos, pos-1)
	for i := shift; i < len(s.nodes); i++ {
		s.nodes[i].Parent--
	}
	s.nodes = slices.Delete(s.nodes, pos, pos+1)
}

func (s *nodeStore) reset(capacity int) {
	if cap(s.nodes) < capacity {
		s.nodes = make([]Node, 0, capacity)
	} else {
		clear(s.nodes)
		s.nodes = s.nodes[:0]
	}
}
