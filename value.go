package flatdoc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindRoot
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
	KindRoot:   "root",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsContainer reports whether nodes of this kind can have children.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindObject || k == KindRoot
}

func (k Kind) IsScalar() bool {
	return k <= KindString
}

// Width is the number of bits used to store an integer or a float payload.
type Width uint8

const (
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) bytes() int {
	if w == Width32 {
		return 4
	}
	return 8
}

func (w Width) orDefault() Width {
	if w == 0 {
		return Width64
	}
	if w != Width32 && w != Width64 {
		panic(fmt.Errorf("invalid width %d", w))
	}
	return w
}

// Widths fixes the encoding width of numeric payloads. All values of one tree
// share the same Widths.
type Widths struct {
	Int   Width
	Float Width
}

var DefaultWidths = Widths{Width64, Width64}

func (ws Widths) normalize() Widths {
	return Widths{ws.Int.orDefault(), ws.Float.orDefault()}
}

// IntValue encodes v at the configured integer width. Panics if v does not
// fit.
func (ws Widths) IntValue(v int64) Value {
	switch ws.Int.orDefault() {
	case Width32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			panic(fmt.Errorf("integer %d does not fit into 32 bits", v))
		}
		return Value{KindInt, binary.LittleEndian.AppendUint32(make([]byte, 0, 4), uint32(int32(v)))}
	default:
		return Value{KindInt, binary.LittleEndian.AppendUint64(make([]byte, 0, 8), uint64(v))}
	}
}

// FloatValue encodes v at the configured float width. At 32 bits the value
// is rounded to the nearest float32.
func (ws Widths) FloatValue(v float64) Value {
	switch ws.Float.orDefault() {
	case Width32:
		return Value{KindFloat, binary.LittleEndian.AppendUint32(make([]byte, 0, 4), math.Float32bits(float32(v)))}
	default:
		return Value{KindFloat, binary.LittleEndian.AppendUint64(make([]byte, 0, 8), math.Float64bits(v))}
	}
}

// Value is a tagged node value. Scalars are stored in a single byte buffer
// whose length and meaning are determined by the kind; containers carry no
// payload.
type Value struct {
	kind Kind
	buf  []byte
}

func Null() Value { return Value{} }

func Bool(b bool) Value {
	if b {
		return Value{KindBool, []byte{1}}
	}
	return Value{KindBool, []byte{0}}
}

func Int(v int64) Value     { return DefaultWidths.IntValue(v) }
func Float(v float64) Value { return DefaultWidths.FloatValue(v) }
func String(s string) Value { return Value{KindString, []byte(s)} }
func Array() Value          { return Value{kind: KindArray} }
func Object() Value         { return Value{kind: KindObject} }

func rootMarker() Value { return Value{kind: KindRoot} }

func (v Value) Kind() Kind { return v.kind }

// Bytes returns the raw payload. The slice must not be modified.
func (v Value) Bytes() []byte { return v.buf }

func (v Value) Len() int { return len(v.buf) }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && string(v.buf) == string(o.buf)
}

func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.buf[0] != 0
}

func (v Value) Int() int64 {
	v.mustBe(KindInt)
	switch len(v.buf) {
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(v.buf)))
	case 8:
		return int64(binary.LittleEndian.Uint64(v.buf))
	default:
		panic(&KindError{Want: KindInt, Got: KindInt, Msg: fmt.Sprintf("invalid payload size %d", len(v.buf))})
	}
}

func (v Value) Float() float64 {
	v.mustBe(KindFloat)
	switch len(v.buf) {
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(v.buf)))
	case 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(v.buf))
	default:
		panic(&KindError{Want: KindFloat, Got: KindFloat, Msg: fmt.Sprintf("invalid payload size %d", len(v.buf))})
	}
}

// Str returns the text of a string value.
func (v Value) Str() string {
	v.mustBe(KindString)
	return string(v.buf)
}

// Text returns the text of a string value with escape sequences decoded.
// Invalid escapes are left as written.
func (v Value) Text() string {
	v.mustBe(KindString)
	if bytes.IndexByte(v.buf, '\\') < 0 {
		return string(v.buf)
	}
	var s string
	quoted := make([]byte, 0, len(v.buf)+2)
	quoted = append(append(append(quoted, '"'), v.buf...), '"')
	if err := json.Unmarshal(quoted, &s); err != nil {
		return string(v.buf)
	}
	return s
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(&KindError{Want: k, Got: v.kind})
	}
}

func (v Value) floatBits() int {
	if len(v.buf) == 4 {
		return 32
	}
	return 64
}

// AppendText appends the opening token of v: the literal for scalars, or the
// opening bracket for containers. Root values produce nothing.
func (v Value) AppendText(buf []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(buf, "null"...)
	case KindBool:
		if v.Bool() {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case KindInt:
		return strconv.AppendInt(buf, v.Int(), 10)
	case KindFloat:
		return appendFixedFloat(buf, v.Float(), v.floatBits())
	case KindString:
		buf = append(buf, '"')
		buf = append(buf, v.buf...)
		return append(buf, '"')
	case KindObject:
		return append(buf, '{')
	case KindArray:
		return append(buf, '[')
	default:
		return buf
	}
}

func (v Value) appendClose(buf []byte) []byte {
	switch v.kind {
	case KindObject:
		return append(buf, '}')
	case KindArray:
		return append(buf, ']')
	default:
		return buf
	}
}

func (v Value) String() string {
	if v.kind == KindRoot {
		return "<root>"
	}
	return string(v.appendClose(v.AppendText(nil)))
}

// appendFixedFloat writes f in plain decimal notation with the fewest digits
// that round-trip. The result always contains a decimal point so that the
// value is read back as a float.
func appendFixedFloat(buf []byte, f float64, bits int) []byte {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		// not representable in the text format
		return append(buf, "null"...)
	}
	off := len(buf)
	buf = strconv.AppendFloat(buf, f, 'f', -1, bits)
	if bytes.IndexByte(buf[off:], '.') < 0 {
		buf = append(buf, '.', '0')
	}
	return buf
}
