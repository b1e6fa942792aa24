package flatdoc

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
)

// Builder stages nodes in the order a depth-first scanner discovers them and
// then lays them out breadth-first in a Tree (see Materialize). Staging is
// O(1) per node regardless of nesting; the final layout costs one pass per
// depth level over pre-bucketed entries.
//
// Builder implements Handler.
type Builder struct {
	widths Widths
	dup    DuplicatePolicy

	// entries[0] is the pool root at depth 0; everything else is in
	// discovery order.
	entries []stagedNode
	byDepth [][]int32
	stack   []openContainer

	name    string
	hasName bool
	values  int
}

type stagedNode struct {
	depth   int32
	parent  int32
	pos     int32
	dropped bool
	name    string
	value   Value
}

type openContainer struct {
	entry int32
	kind  Kind
	names map[string]int32 // only tracked when duplicates are not kept
}

func NewBuilder(opt Options) *Builder {
	b := &Builder{
		widths: opt.Widths.normalize(),
		dup:    opt.DuplicateKeys,
	}
	b.Reset()
	return b
}

func (b *Builder) Reset() {
	clear(b.entries)
	b.entries = append(b.entries[:0], stagedNode{parent: -1})
	for i := range b.byDepth {
		b.byDepth[i] = b.byDepth[i][:0]
	}
	b.stack = b.stack[:0]
	b.name, b.hasName = "", false
	b.values = 0
}

// Len returns the number of staged nodes.
func (b *Builder) Len() int { return len(b.entries) - 1 }

// Depth returns the maximum nesting depth staged so far.
func (b *Builder) Depth() int {
	for d := len(b.byDepth) - 1; d > 0; d-- {
		if len(b.byDepth[d]) > 0 {
			return d
		}
	}
	return 0
}

// Done reports whether a complete document has been staged.
func (b *Builder) Done() bool {
	return b.values == 1 && len(b.stack) == 0 && !b.hasName
}

// Finish checks that the staged event stream was complete.
func (b *Builder) Finish() error {
	switch {
	case b.hasName:
		return ErrDanglingName
	case len(b.stack) > 0:
		return ErrUnclosed
	case b.values == 0:
		return ErrNoValue
	default:
		return nil
	}
}

func (b *Builder) stage(v Value) (int32, error) {
	parent := int32(0)
	var name string
	if n := len(b.stack); n == 0 {
		if b.values > 0 {
			return 0, ErrTrailingData
		}
		b.values++
	} else {
		top := &b.stack[n-1]
		parent = top.entry
		if top.kind == KindObject {
			if !b.hasName {
				return 0, ErrMissingName
			}
			name = b.name
			b.name, b.hasName = "", false
			if top.names != nil {
				if prev, found := top.names[name]; found {
					if b.dup == Reject {
						return 0, fmt.Errorf("%w %q", ErrDuplicateKey, name)
					}
					b.entries[prev].dropped = true
				}
			}
		}
	}

	idx := int32(len(b.entries))
	depth := b.entries[parent].depth + 1
	b.entries = append(b.entries, stagedNode{
		depth:  depth,
		parent: parent,
		name:   name,
		value:  v,
	})
	for int(depth) >= len(b.byDepth) {
		b.byDepth = append(b.byDepth, nil)
	}
	b.byDepth[depth] = append(b.byDepth[depth], idx)

	if n := len(b.stack); n > 0 && b.stack[n-1].names != nil {
		b.stack[n-1].names[name] = idx
	}
	return idx, nil
}

func (b *Builder) begin(v Value) error {
	idx, err := b.stage(v)
	if err != nil {
		return err
	}
	c := openContainer{entry: idx, kind: v.kind}
	if v.kind == KindObject && b.dup != KeepFirst {
		c.names = make(map[string]int32)
	}
	b.stack = append(b.stack, c)
	return nil
}

func (b *Builder) scalar(v Value) error {
	_, err := b.stage(v)
	return err
}

func (b *Builder) BeginObject() error { return b.begin(Object()) }
func (b *Builder) BeginArray() error  { return b.begin(Array()) }

func (b *Builder) End() error {
	n := len(b.stack)
	if n == 0 {
		return ErrUnmatchedEnd
	}
	if b.hasName {
		return ErrDanglingName
	}
	b.stack = b.stack[:n-1]
	return nil
}

func (b *Builder) Name(text string) error {
	n := len(b.stack)
	if n == 0 || b.stack[n-1].kind != KindObject {
		return ErrUnexpectedName
	}
	if b.hasName {
		return ErrDanglingName
	}
	b.name, b.hasName = text, true
	return nil
}

func (b *Builder) Null() error              { return b.scalar(Null()) }
func (b *Builder) Bool(v bool) error        { return b.scalar(Bool(v)) }
func (b *Builder) String(text string) error { return b.scalar(String(text)) }

// Feed delivers a single event.
func (b *Builder) Feed(e Event) error {
	return Dispatch(b, e)
}

func (b *Builder) Int(text string) error {
	v, err := strconv.ParseInt(text, 10, int(b.widths.Int))
	if err != nil {
		return numberErr(text, err)
	}
	return b.scalar(b.widths.IntValue(v))
}

func (b *Builder) Float(text string) error {
	v, err := strconv.ParseFloat(text, int(b.widths.Float))
	if err != nil {
		return numberErr(text, err)
	}
	return b.scalar(b.widths.FloatValue(v))
}

func numberErr(text string, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: %s", ErrNumberRange, text)
	}
	return fmt.Errorf("invalid number %q", text)
}

// Materialize replaces the contents of t with the staged nodes. Nodes are
// placed one depth level at a time, so every parent gets its position before
// its children and siblings end up adjacent. Entries dropped by the
// Overwrite policy are skipped together with their subtrees.
func (b *Builder) Materialize(t *Tree) {
	t.reset()
	t.store.nodes = slices.Grow(t.store.nodes, len(b.entries)-1)
	b.entries[0].pos = 0
	for d := 1; d < len(b.byDepth); d++ {
		for _, i := range b.byDepth[d] {
			e := &b.entries[i]
			p := &b.entries[e.parent]
			if e.dropped || p.dropped {
				e.dropped = true
				continue
			}
			e.pos = int32(t.store.append(Node{
				Name:   e.name,
				Value:  t.conform(e.value),
				Parent: int(p.pos),
			}))
		}
	}
}

// Load replaces the contents of t with the document described by events.
// Loading stops at the first event that breaks the event contract; the nodes
// staged before it are still materialized and the returned *SyntaxError
// carries the ordinal of the offending event.
func (t *Tree) Load(events iter.Seq[Event]) error {
	b := NewBuilder(t.opt)
	var off int64
	var err error
	for e := range events {
		if err = Dispatch(b, e); err != nil {
			err = syntaxErrf(off, err, "event %v", e)
			break
		}
		off++
	}
	if err == nil {
		if ferr := b.Finish(); ferr != nil {
			err = syntaxErrf(off, ferr, "end of events")
		}
	}
	b.Materialize(t)
	return err
}
