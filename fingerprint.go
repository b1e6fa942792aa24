package flatdoc

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the live content of the tree: every node's name, kind,
// payload and parent, with removed nodes excluded and parents renumbered as
// compaction would. Two trees with the same fingerprint serialize the same
// way (barring hash collisions), and a tree's fingerprint does not change
// when it is compacted.
func (t *Tree) Fingerprint() uint64 {
	nodes := t.store.nodes
	remap := make([]int, len(nodes))
	live := 0

	h := xxhash.New()
	var scratch [binary.MaxVarintLen64 * 2]byte
	b := appendUvarint(scratch[:0], uint64(t.opt.Widths.Int))
	b = appendUvarint(b, uint64(t.opt.Widths.Float))
	h.Write(b)

	for i := 1; i < len(nodes); i++ {
		n := &nodes[i]
		if n.removed {
			continue
		}
		live++
		remap[i] = live

		b = appendUvarint(scratch[:0], uint64(remap[n.Parent]))
		b = append(b, byte(n.Value.kind))
		h.Write(b)
		b = appendUvarint(scratch[:0], uint64(len(n.Name)))
		h.Write(b)
		h.WriteString(n.Name)
		b = appendUvarint(scratch[:0], uint64(len(n.Value.buf)))
		h.Write(b)
		h.Write(n.Value.buf)
	}
	return h.Sum64()
}
