package flatdoc

import (
	"github.com/goccy/go-yaml"
)

// ToAny converts the subtree at c into plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any. When an object holds the same
// name twice the first member wins, matching Find. Strings have their escape
// sequences decoded. A cursor at the synthetic root converts the document.
func (c Cursor) ToAny() any {
	pos, ok := c.docPos()
	if !ok {
		return nil
	}
	return toAny(c.t, pos, false)
}

// MarshalYAML implements yaml.InterfaceMarshaler. Object members keep their
// document order.
func (c Cursor) MarshalYAML() (any, error) {
	pos, ok := c.docPos()
	if !ok {
		return nil, nil
	}
	return toAny(c.t, pos, true), nil
}

func (t *Tree) MarshalYAML() (any, error) {
	return t.Sentinel().MarshalYAML()
}

// YAML renders the document as YAML.
func (t *Tree) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}

// docPos resolves c to a live node, mapping the synthetic root to the
// document root.
func (c Cursor) docPos() (int, bool) {
	if c.IsEnd() {
		return 0, false
	}
	pos := c.pos
	if pos == 0 {
		if c.t.store.Len() < 2 {
			return 0, false
		}
		pos = 1
	}
	if c.t.store.at(pos).removed {
		return 0, false
	}
	return pos, true
}

func toAny(t *Tree, pos int, ordered bool) any {
	nodes := t.store.nodes
	v := nodes[pos].Value
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.Int()
	case KindFloat:
		return v.Float()
	case KindString:
		return v.Text()
	}

	b, e := t.store.childRange(pos)
	switch {
	case v.kind == KindArray:
		arr := make([]any, 0, e-b)
		for i := b; i < e; i++ {
			if !nodes[i].removed {
				arr = append(arr, toAny(t, i, ordered))
			}
		}
		return arr
	case ordered:
		ms := make(yaml.MapSlice, 0, e-b)
		seen := make(map[string]bool, e-b)
		for i := b; i < e; i++ {
			n := &nodes[i]
			if n.removed || seen[n.Name] {
				continue
			}
			seen[n.Name] = true
			ms = append(ms, yaml.MapItem{Key: n.Name, Value: toAny(t, i, ordered)})
		}
		return ms
	default:
		m := make(map[string]any, e-b)
		for i := b; i < e; i++ {
			n := &nodes[i]
			if n.removed {
				continue
			}
			if _, found := m[n.Name]; !found {
				m[n.Name] = toAny(t, i, ordered)
			}
		}
		return m
	}
}
