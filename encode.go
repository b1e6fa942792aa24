package flatdoc

import (
	"bytes"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Colors holds the highlighting applied by Encode. A nil func leaves the
// token uncolored.
type Colors struct {
	Name    func(string, ...any) string
	String  func(string, ...any) string
	Number  func(string, ...any) string
	Literal func(string, ...any) string
	Punct   func(string, ...any) string
}

func NewColors() *Colors {
	return &Colors{
		Name:    color.RGB(128, 168, 196).SprintfFunc(),
		String:  color.RGB(8, 196, 16).SprintfFunc(),
		Number:  color.RGB(128, 216, 236).SprintfFunc(),
		Literal: color.CyanString,
		Punct:   color.RGB(196, 128, 128).SprintfFunc(),
	}
}

type EncodeOptions struct {
	// Indent is repeated once per nesting level. Defaults to two spaces.
	Indent string
	Colors *Colors
}

// Encode writes the subtree at c to w, one node per line. A cursor at the
// synthetic root writes the whole document. The name of the node at c itself
// is not written, so the output is always a standalone document. Removed
// nodes are skipped.
//
// Output is accumulated in a buffer that is flushed to w whenever it fills
// up, so arbitrarily large trees are written in bounded memory.
func Encode(w io.Writer, c Cursor, opt EncodeOptions) (int64, error) {
	if c.IsEnd() {
		return 0, nil
	}
	t := c.t
	pos := c.pos
	if pos == 0 {
		if t.store.Len() < 2 {
			return 0, nil
		}
		pos = 1
	}
	if t.store.at(pos).removed {
		return 0, nil
	}
	if opt.Indent == "" {
		opt.Indent = "  "
	}
	e := &encoder{
		w:      w,
		t:      t,
		buf:    encodeBytesPool.Get().([]byte),
		indent: opt.Indent,
		colors: opt.Colors,
	}
	defer func() {
		releaseEncodeBytes(e.buf)
	}()
	e.node(0, pos, true)
	e.flush()
	return e.n, e.err
}

type encoder struct {
	w      io.Writer
	t      *Tree
	buf    []byte
	n      int64
	err    error
	indent string
	colors *Colors
}

func (e *encoder) flush() {
	if e.err != nil || len(e.buf) == 0 {
		e.buf = e.buf[:0]
		return
	}
	n, err := e.w.Write(e.buf)
	e.n += int64(n)
	e.err = err
	e.buf = e.buf[:0]
}

func (e *encoder) pad(depth int) {
	for range depth {
		e.buf = append(e.buf, e.indent...)
	}
}

func (e *encoder) paint(fn func(string, ...any) string, off int) {
	if fn == nil {
		return
	}
	tok := string(e.buf[off:])
	e.buf = append(e.buf[:off], fn("%s", tok)...)
}

func (e *encoder) punct(c byte) {
	off := len(e.buf)
	e.buf = append(e.buf, c)
	if e.colors != nil {
		e.paint(e.colors.Punct, off)
	}
}

func (e *encoder) node(depth, pos int, last bool) {
	if e.err != nil {
		return
	}
	nodes := e.t.store.nodes
	n := &nodes[pos]
	e.pad(depth)
	if depth > 0 && nodes[n.Parent].Value.kind == KindObject {
		off := len(e.buf)
		e.buf = append(e.buf, '"')
		e.buf = append(e.buf, n.Name...)
		e.buf = append(e.buf, '"')
		if e.colors != nil {
			e.paint(e.colors.Name, off)
		}
		e.punct(':')
	}

	v := n.Value
	off := len(e.buf)
	e.buf = v.AppendText(e.buf)
	if e.colors != nil {
		e.paint(e.colors.forKind(v.kind), off)
	}

	if !v.kind.IsContainer() {
		if !last {
			e.punct(',')
		}
		e.buf = append(e.buf, '\n')
		if len(e.buf) >= encodeFlushAt {
			e.flush()
		}
		return
	}

	e.buf = append(e.buf, '\n')
	b, end := e.t.store.childRange(pos)
	lastLive := e.t.store.lastLive(b, end)
	for i := b; i < end; i++ {
		if nodes[i].removed {
			continue
		}
		e.node(depth+1, i, i == lastLive)
	}

	e.pad(depth)
	off = len(e.buf)
	e.buf = v.appendClose(e.buf)
	if e.colors != nil {
		e.paint(e.colors.Punct, off)
	}
	if !last {
		e.punct(',')
	}
	e.buf = append(e.buf, '\n')
	if len(e.buf) >= encodeFlushAt {
		e.flush()
	}
}

func (cs *Colors) forKind(k Kind) func(string, ...any) string {
	switch k {
	case KindString:
		return cs.String
	case KindInt, KindFloat:
		return cs.Number
	case KindNull, KindBool:
		return cs.Literal
	default:
		return cs.Punct
	}
}

// WriteTo writes the document in text form.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	return Encode(w, t.Sentinel(), EncodeOptions{})
}

func (t *Tree) String() string {
	var buf strings.Builder
	t.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes the subtree rooted at c in text form.
func (c Cursor) WriteTo(w io.Writer) (int64, error) {
	return Encode(w, c, EncodeOptions{})
}

func (c Cursor) String() string {
	if c.t == nil {
		return "<nil>"
	}
	if c.Stale() {
		return "<stale>"
	}
	var buf bytes.Buffer
	c.WriteTo(&buf)
	return buf.String()
}
