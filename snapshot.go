package flatdoc

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	snapshotFormatVer1      = 1
	snapshotFormatVerLatest = snapshotFormatVer1

	maxSnapshotNodes = 1 << 31
)

// MarshalBinary encodes the node array in msgpack. Removed nodes are left
// out and the remaining parent indices renumbered, so the snapshot of a tree
// equals the snapshot of its compacted form.
//
// Layout: format version, int width, float width, node count, then per node
// name, kind, payload and parent position. The synthetic root is implied.
func (t *Tree) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(nil)
}

func (t *Tree) AppendBinary(buf []byte) ([]byte, error) {
	nodes := t.store.nodes
	remap := make([]int, len(nodes))
	live := 0
	for i := 1; i < len(nodes); i++ {
		if nodes[i].removed {
			remap[i] = -1
			continue
		}
		live++
		remap[i] = live
	}

	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&bb)

	ensure(enc.EncodeUint(snapshotFormatVerLatest))
	ensure(enc.EncodeUint(uint64(t.opt.Widths.Int)))
	ensure(enc.EncodeUint(uint64(t.opt.Widths.Float)))
	ensure(enc.EncodeInt(int64(live)))
	for i := 1; i < len(nodes); i++ {
		n := &nodes[i]
		if n.removed {
			continue
		}
		ensure(enc.EncodeString(n.Name))
		ensure(enc.EncodeUint(uint64(n.Value.kind)))
		ensure(enc.EncodeBytes(n.Value.buf))
		ensure(enc.EncodeInt(int64(remap[n.Parent])))
	}
	return bb.Buf, nil
}

// UnmarshalBinary replaces the contents of t with a snapshot. The tree adopts
// the widths recorded in the snapshot. Malformed input yields a *DataError
// and leaves t without a document.
func (t *Tree) UnmarshalBinary(data []byte) error {
	err := t.decodeSnapshot(data)
	if err != nil {
		t.reset()
	}
	return err
}

func (t *Tree) decodeSnapshot(data []byte) error {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(&r)
	off := func() int { return len(data) - r.Len() }

	ver, err := dec.DecodeUint()
	if err != nil {
		return dataErrf(data, off(), err, "invalid snapshot: bad version")
	}
	if ver != snapshotFormatVer1 {
		return dataErrf(data, off(), nil, "invalid snapshot: unsupported version %d", ver)
	}
	var ws Widths
	for _, w := range []*Width{&ws.Int, &ws.Float} {
		v, err := dec.DecodeUint()
		if err != nil {
			return dataErrf(data, off(), err, "invalid snapshot: bad width")
		}
		if v != uint(Width32) && v != uint(Width64) {
			return dataErrf(data, off(), nil, "invalid snapshot: unsupported width %d", v)
		}
		*w = Width(v)
	}
	count, err := dec.DecodeInt64()
	if err != nil {
		return dataErrf(data, off(), err, "invalid snapshot: bad node count")
	}
	if count < 0 || count >= maxSnapshotNodes || count > int64(len(data)) {
		return dataErrf(data, off(), nil, "invalid snapshot: node count %d", count)
	}

	t.opt.Widths = ws
	t.reset()
	t.store.nodes = append(t.store.nodes, make([]Node, count)...)
	for i := 1; i <= int(count); i++ {
		n := &t.store.nodes[i]
		n.Name, err = dec.DecodeString()
		if err != nil {
			return dataErrf(data, off(), err, "invalid snapshot: node %d name", i)
		}
		k, err := dec.DecodeUint8()
		if err != nil {
			return dataErrf(data, off(), err, "invalid snapshot: node %d kind", i)
		}
		payload, err := dec.DecodeBytes()
		if err != nil {
			return dataErrf(data, off(), err, "invalid snapshot: node %d payload", i)
		}
		n.Value, err = decodeValue(Kind(k), payload, ws)
		if err != nil {
			return dataErrf(data, off(), err, "invalid snapshot: node %d", i)
		}
		parent, err := dec.DecodeInt64()
		if err != nil {
			return dataErrf(data, off(), err, "invalid snapshot: node %d parent", i)
		}
		if parent < 0 || parent >= int64(i) {
			return dataErrf(data, off(), nil, "invalid snapshot: node %d has parent %d", i, parent)
		}
		n.Parent = int(parent)
	}
	if r.Len() != 0 {
		return dataErrf(data, off(), nil, "invalid snapshot: %d trailing bytes", r.Len())
	}
	if err := t.Check(); err != nil {
		return dataErrf(data, off(), err, "invalid snapshot")
	}
	return nil
}

func decodeValue(k Kind, payload []byte, ws Widths) (Value, error) {
	var want int
	switch k {
	case KindNull, KindArray, KindObject:
		want = 0
	case KindBool:
		want = 1
	case KindInt:
		want = ws.Int.bytes()
	case KindFloat:
		want = ws.Float.bytes()
	case KindString:
		return Value{k, payload}, nil
	default:
		return Value{}, fmt.Errorf("unknown kind %v", k)
	}
	if len(payload) != want {
		return Value{}, fmt.Errorf("%v payload is %d bytes, wanted %d", k, len(payload), want)
	}
	if want == 0 {
		payload = nil
	}
	return Value{k, payload}, nil
}
