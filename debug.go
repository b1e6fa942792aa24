package flatdoc

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpRemoved
	DumpRanges

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var dumpSep = strings.Repeat("-", 60)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the node array one slot per line: position, parent position,
// kind, name and value. It shows the physical layout rather than the
// document and is meant for debugging and tests.
func (t *Tree) Dump(f DumpFlags) string {
	var buf strings.Builder
	nodes := t.store.nodes
	if f.Contains(DumpHeader) {
		fmt.Fprintf(&buf, "%d slots, %d removed, gen %d, widths %d/%d\n", len(nodes), t.Pending(), t.gen, t.opt.Widths.Int, t.opt.Widths.Float)
		fmt.Fprintln(&buf, dumpSep)
	}
	for i := range nodes {
		n := &nodes[i]
		if n.removed && !f.Contains(DumpRemoved) {
			continue
		}
		fmt.Fprintf(&buf, "%4d %4d %s", i, n.Parent, rpad(n.Value.kind.String(), 6, ' '))
		if n.Name != "" {
			fmt.Fprintf(&buf, " %q", n.Name)
		}
		if n.Value.kind.IsScalar() {
			buf.WriteByte(' ')
			buf.Write(n.Value.AppendText(nil))
		}
		if f.Contains(DumpRanges) && n.Value.kind.IsContainer() {
			b, e := t.store.childRange(i)
			fmt.Fprintf(&buf, " [%d, %d)", b, e)
		}
		if n.removed {
			buf.WriteString(" (removed)")
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
