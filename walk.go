package flatdoc

import (
	"errors"
	"iter"
	"strconv"
)

// Walk reports the subtree at c to h in document order, the same way Scan
// reports text. A cursor at the synthetic root walks the whole document.
// Removed nodes are skipped.
func Walk(c Cursor, h Handler) error {
	if c.IsEnd() {
		return nil
	}
	pos := c.pos
	if pos == 0 {
		if c.t.store.Len() < 2 {
			return nil
		}
		pos = 1
	}
	return walkNode(c.t, pos, false, h)
}

func walkNode(t *Tree, pos int, named bool, h Handler) error {
	nodes := t.store.nodes
	n := &nodes[pos]
	if n.removed {
		return nil
	}
	if named {
		if err := h.Name(n.Name); err != nil {
			return err
		}
	}
	v := n.Value
	switch v.kind {
	case KindNull:
		return h.Null()
	case KindBool:
		return h.Bool(v.Bool())
	case KindInt:
		return h.Int(strconv.FormatInt(v.Int(), 10))
	case KindFloat:
		return h.Float(strconv.FormatFloat(v.Float(), 'g', -1, v.floatBits()))
	case KindString:
		return h.String(v.Str())
	}

	var err error
	if v.kind == KindObject {
		err = h.BeginObject()
	} else {
		err = h.BeginArray()
	}
	if err != nil {
		return err
	}
	b, e := t.store.childRange(pos)
	for i := b; i < e; i++ {
		if err := walkNode(t, i, v.kind == KindObject, h); err != nil {
			return err
		}
	}
	return h.End()
}

var errStopWalk = errors.New("stop")

// Events returns the document as a sequence of ingestion events. Loading the
// sequence into another tree reproduces the document.
func (t *Tree) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		y := yieldHandler(yield)
		Walk(t.Sentinel(), y)
	}
}

type yieldHandler func(Event) bool

func (y yieldHandler) emit(e Event) error {
	if !y(e) {
		return errStopWalk
	}
	return nil
}

func (y yieldHandler) BeginObject() error    { return y.emit(Event{Type: EventBeginObject}) }
func (y yieldHandler) BeginArray() error     { return y.emit(Event{Type: EventBeginArray}) }
func (y yieldHandler) End() error            { return y.emit(Event{Type: EventEnd}) }
func (y yieldHandler) Name(s string) error   { return y.emit(Event{Type: EventName, Text: s}) }
func (y yieldHandler) Null() error           { return y.emit(Event{Type: EventNull}) }
func (y yieldHandler) Bool(v bool) error     { return y.emit(Event{Type: EventBool, Bool: v}) }
func (y yieldHandler) Int(s string) error    { return y.emit(Event{Type: EventInt, Text: s}) }
func (y yieldHandler) Float(s string) error  { return y.emit(Event{Type: EventFloat, Text: s}) }
func (y yieldHandler) String(s string) error { return y.emit(Event{Type: EventString, Text: s}) }
