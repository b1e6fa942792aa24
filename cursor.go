package flatdoc

import (
	"fmt"
	"iter"
)

// Cursor is a position in a tree's node array. A cursor stays usable until
// the tree moves nodes around (sorted inserts, compaction, reloading); using
// it afterwards panics with ErrStaleCursor. Appending to the last container
// in the array does not move anything and keeps cursors valid.
type Cursor struct {
	t   *Tree
	pos int
	gen uint64
}

func (c Cursor) check() {
	if c.t == nil {
		panic("flatdoc: zero Cursor")
	}
	if c.gen != c.t.gen {
		panic(ErrStaleCursor)
	}
}

// Stale reports whether the tree has moved nodes since c was obtained.
func (c Cursor) Stale() bool {
	return c.t != nil && c.gen != c.t.gen
}

func (c Cursor) Tree() *Tree { return c.t }

// Pos returns the position in the node array. The end sentinel reports the
// current length of the array.
func (c Cursor) Pos() int {
	if c.pos == endPos && c.t != nil {
		return c.t.store.Len()
	}
	return c.pos
}

// IsEnd reports whether c is the end sentinel (or the zero Cursor). A cursor
// returned for a missing node stays at the end even after nodes are appended.
func (c Cursor) IsEnd() bool {
	if c.t == nil {
		return true
	}
	c.check()
	return c.pos == endPos
}

// Valid reports whether c points at a node.
func (c Cursor) Valid() bool {
	return !c.IsEnd()
}

func (c Cursor) Node() *Node {
	c.check()
	return c.t.store.at(c.pos)
}

func (c Cursor) Name() string  { return c.Node().Name }
func (c Cursor) Value() Value  { return c.Node().Value }
func (c Cursor) Kind() Kind    { return c.Node().Value.kind }
func (c Cursor) Removed() bool { return c.Node().removed }

// Parent returns the parent node. The synthetic root is its own parent.
func (c Cursor) Parent() Cursor {
	p := c.Node().Parent
	if p < 0 {
		return c
	}
	return c.t.cursor(p)
}

func (c Cursor) childRange() (int, int) {
	c.check()
	if c.pos == endPos {
		n := c.t.store.Len()
		return n, n
	}
	return c.t.store.childRange(c.pos)
}

// Begin returns the first child, or the end sentinel for a childless node.
func (c Cursor) Begin() Cursor {
	b, _ := c.childRange()
	return c.t.cursor(b)
}

// End returns the position one past the last child.
func (c Cursor) End() Cursor {
	_, e := c.childRange()
	return c.t.cursor(e)
}

// Len returns the number of children that are not removed. Use
// End().Sub(Begin()) for the number of slots.
func (c Cursor) Len() int {
	b, e := c.childRange()
	if c.t.pending == 0 {
		return e - b
	}
	var n int
	for i := b; i < e; i++ {
		if !c.t.store.at(i).removed {
			n++
		}
	}
	return n
}

// Children iterates over children that are not removed.
func (c Cursor) Children() iter.Seq[Cursor] {
	b, e := c.childRange()
	t, gen := c.t, c.gen
	return func(yield func(Cursor) bool) {
		for i := b; i < e; i++ {
			if t.gen != gen {
				panic(ErrStaleCursor)
			}
			if t.store.at(i).removed {
				continue
			}
			if !yield(t.cursor(i)) {
				return
			}
		}
	}
}

// Find returns the first child with the given name, or the end sentinel.
func (c Cursor) Find(name string) Cursor {
	b, e := c.childRange()
	if i := c.t.findChild(b, e, name); i >= 0 {
		return c.t.cursor(i)
	}
	return c.t.end()
}

// At returns the i-th child that is not removed, or the end sentinel if
// there is none.
func (c Cursor) At(i int) Cursor {
	b, e := c.childRange()
	if i < 0 || i >= e-b {
		return c.t.end()
	}
	if c.t.pending == 0 {
		return c.t.cursor(b + i)
	}
	return c.t.cursorOrEnd(c.t.store.nthLive(b, e, i))
}

// Offset moves k slots through the node array, removed nodes included.
// Moving past the last node yields the end sentinel.
func (c Cursor) Offset(k int) Cursor {
	c.check()
	p := c.Pos() + k
	if p < 0 {
		panic(fmt.Errorf("flatdoc: cursor offset %d out of range", p))
	}
	return c.t.cursor(p)
}

func (c Cursor) Next() Cursor { return c.Offset(1) }
func (c Cursor) Prev() Cursor { return c.Offset(-1) }

// Sub returns the distance between two cursors of the same tree.
func (c Cursor) Sub(o Cursor) int {
	if c.t != o.t {
		panic("flatdoc: cursors of different trees")
	}
	c.check()
	o.check()
	return c.Pos() - o.Pos()
}

// IsLastSibling reports whether no sibling that is not removed follows c,
// which is when the text form puts no comma after it.
func (c Cursor) IsLastSibling() bool {
	n := c.Node()
	if n.Parent < 0 {
		return true
	}
	_, e := c.t.store.childRange(n.Parent)
	return c.t.store.lastLive(c.pos+1, e) < 0
}

// Get returns the child with the given name, adding a null member if there
// is none. On arrays it always appends a new unnamed element.
func (c Cursor) Get(name string) Cursor {
	c.check()
	switch c.Kind() {
	case KindObject, KindRoot:
		b, e := c.childRange()
		if i := c.t.findChild(b, e, name); i >= 0 {
			return c.t.cursor(i)
		}
		return c.t.cursorOrEnd(c.t.insert(c.pos, name, Null()))
	case KindArray:
		return c.t.cursorOrEnd(c.t.insert(c.pos, "", Null()))
	default:
		return c.t.end()
	}
}

// Index returns the i-th child that is not removed, first padding the
// container with null children if it has fewer than i+1.
func (c Cursor) Index(i int) Cursor {
	c.check()
	if i < 0 || !c.Kind().IsContainer() {
		return c.t.end()
	}
	t, parent := c.t, c.pos
	for n := c.Len(); n <= i; n++ {
		if t.insert(parent, "", Null()) < 0 {
			return t.end()
		}
	}
	return t.cursor(parent).At(i)
}

// Add inserts a child after the existing ones. Array children are always
// unnamed. On objects the tree's DuplicatePolicy applies to existing names.
func (c Cursor) Add(name string, v Value) Cursor {
	c.check()
	if k := c.Kind(); k == KindObject && c.t.opt.DuplicateKeys != KeepFirst {
		b, e := c.childRange()
		if i := c.t.findChild(b, e, name); i >= 0 {
			if c.t.opt.DuplicateKeys == Reject {
				return c.t.end()
			}
			return c.t.cursorOrEnd(c.t.replace(i, v, true))
		}
	}
	return c.t.cursorOrEnd(c.t.insert(c.pos, name, v))
}

// Append adds an element to an array. Returns the end sentinel for other kinds.
func (c Cursor) Append(v Value) Cursor {
	if c.Kind() != KindArray {
		return c.t.end()
	}
	return c.Add("", v)
}

// Set replaces the node's value. Children are dropped when the kind changes.
// A removed node is left alone and the end sentinel is returned.
func (c Cursor) Set(v Value) Cursor {
	c.check()
	if c.pos == 0 {
		panic("flatdoc: cannot set the synthetic root")
	}
	return c.t.cursorOrEnd(c.t.replace(c.pos, v, c.Kind() != v.kind))
}

// Remove tombstones the node and its subtree. Nothing moves until Compact.
func (c Cursor) Remove() {
	c.check()
	if c.pos == 0 {
		panic("flatdoc: cannot remove the synthetic root")
	}
	c.t.markRemoved(c.pos)
}

// Delete removes the node and its subtree and compacts the tree. Returns
// the number of nodes physically removed.
func (c Cursor) Delete() int {
	c.Remove()
	return c.t.Compact()
}

func (t *Tree) cursorOrEnd(pos int) Cursor {
	if pos < 0 {
		return t.end()
	}
	return t.cursor(pos)
}

func (t *Tree) findChild(b, e int, name string) int {
	nodes := t.store.nodes
	for i := b; i < e; i++ {
		if !nodes[i].removed && nodes[i].Name == name {
			return i
		}
	}
	return -1
}
