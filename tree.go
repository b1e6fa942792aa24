package flatdoc

import (
	"fmt"
	"slices"
)

// DuplicatePolicy decides what happens when an object receives a second
// member with a name it already has.
type DuplicatePolicy uint8

const (
	// KeepFirst stores both members; lookups by name find the first one.
	KeepFirst DuplicatePolicy = iota
	// Overwrite replaces the earlier member's value and drops its subtree.
	Overwrite
	// Reject refuses the second member.
	Reject
)

func (p DuplicatePolicy) String() string {
	switch p {
	case KeepFirst:
		return "keep-first"
	case Overwrite:
		return "overwrite"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseDuplicatePolicy accepts the names returned by DuplicatePolicy.String.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "keep-first":
		return KeepFirst, nil
	case "overwrite":
		return Overwrite, nil
	case "reject":
		return Reject, nil
	default:
		return 0, fmt.Errorf("unknown duplicate key policy %q", s)
	}
}

const defaultCapacity = 1024

type Options struct {
	// Capacity is the initial size of the node array.
	Capacity int

	Widths        Widths
	DuplicateKeys DuplicatePolicy

	// RootKind is the kind of the document root created by New. Must be
	// KindObject (the default) or KindArray.
	RootKind Kind
}

// Tree is a document stored as a single breadth-first array of nodes.
// Position 0 holds the synthetic root; the document itself starts at 1.
//
// A Tree must not be mutated concurrently with any other access.
type Tree struct {
	store   nodeStore
	opt     Options
	gen     uint64
	pending int // removed nodes awaiting compaction
}

func New(opt Options) *Tree {
	t := newEmpty(opt)
	rootKind := opt.RootKind
	switch rootKind {
	case KindNull, KindObject:
		t.store.append(Node{Value: Object(), Parent: 0})
	case KindArray:
		t.store.append(Node{Value: Array(), Parent: 0})
	default:
		panic(fmt.Errorf("invalid root kind %v", rootKind))
	}
	return t
}

func newEmpty(opt Options) *Tree {
	opt.Widths = opt.Widths.normalize()
	if opt.Capacity <= 0 {
		opt.Capacity = defaultCapacity
	}
	t := &Tree{opt: opt}
	t.reset()
	return t
}

func (t *Tree) reset() {
	t.store.reset(t.opt.Capacity)
	t.store.append(Node{Value: rootMarker(), Parent: -1})
	t.pending = 0
	t.gen++
}

// Reset removes every node, leaving a tree without a document root.
func (t *Tree) Reset() {
	t.reset()
}

// Clone returns an independent copy of t, including removed nodes that have
// not been compacted. Payload buffers are shared since values are never
// modified in place.
func (t *Tree) Clone() *Tree {
	c := &Tree{opt: t.opt, gen: t.gen, pending: t.pending}
	c.store.nodes = slices.Grow(slices.Clone(t.store.nodes), max(0, t.opt.Capacity-len(t.store.nodes)))
	return c
}

func (t *Tree) Options() Options { return t.opt }

func (t *Tree) Widths() Widths { return t.opt.Widths }

// Len returns the number of slots in the node array, including the synthetic
// root and nodes that are removed but not yet compacted.
func (t *Tree) Len() int { return t.store.Len() }

// Generation changes whenever nodes move within the array. Cursors obtained
// under an older generation are stale.
func (t *Tree) Generation() uint64 { return t.gen }

// endPos marks the end sentinel. It is not tied to the array length, so a
// cursor returned for a missing node stays at the end when nodes are
// appended later.
const endPos = -1

func (t *Tree) cursor(pos int) Cursor {
	if pos >= t.store.Len() {
		pos = endPos
	}
	return Cursor{t, pos, t.gen}
}

func (t *Tree) end() Cursor {
	return Cursor{t, endPos, t.gen}
}

// Sentinel returns a cursor at the synthetic root.
func (t *Tree) Sentinel() Cursor { return t.cursor(0) }

// Root returns a cursor at the document root, or the end cursor if the tree
// holds no document.
func (t *Tree) Root() Cursor {
	if t.store.Len() < 2 {
		return t.end()
	}
	return t.cursor(1)
}

// End returns the end sentinel. Its Pos is the current length of the array.
func (t *Tree) End() Cursor { return t.end() }

// Node returns the node at pos. Panics if pos is out of range.
func (t *Tree) Node(pos int) *Node { return t.store.at(pos) }

func (t *Tree) Get(name string) Cursor  { return t.Root().Get(name) }
func (t *Tree) Index(i int) Cursor      { return t.Root().Index(i) }
func (t *Tree) Find(name string) Cursor { return t.Root().Find(name) }
func (t *Tree) At(i int) Cursor         { return t.Root().At(i) }

// Check verifies the layout invariants of the node array.
func (t *Tree) Check() error {
	nodes := t.store.nodes
	if len(nodes) == 0 {
		return &LayoutError{0, 0, "missing synthetic root"}
	}
	if nodes[0].Parent != -1 || nodes[0].Value.kind != KindRoot {
		return &LayoutError{0, nodes[0].Parent, "invalid synthetic root"}
	}
	prev := -1
	for i := 1; i < len(nodes); i++ {
		n := &nodes[i]
		if n.Value.kind == KindRoot {
			return &LayoutError{i, n.Parent, "root marker outside position 0"}
		}
		if n.Parent < 0 || n.Parent >= i {
			return &LayoutError{i, n.Parent, "parent must precede its child"}
		}
		if n.Parent < prev {
			return &LayoutError{i, n.Parent, fmt.Sprintf("parent index decreases from %d", prev)}
		}
		if !nodes[n.Parent].Value.kind.IsContainer() {
			return &LayoutError{i, n.Parent, fmt.Sprintf("parent is a %v", nodes[n.Parent].Value.kind)}
		}
		if n.Parent == 0 && i != 1 {
			return &LayoutError{i, n.Parent, "more than one document root"}
		}
		prev = n.Parent
	}
	return nil
}
