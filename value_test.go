package flatdoc

import (
	"errors"
	"math"
	"testing"
)

func TestValue_Scalars(t *testing.T) {
	deepEqual(t, Null().IsNull(), true)
	deepEqual(t, Bool(true).Bool(), true)
	deepEqual(t, Bool(false).Bool(), false)
	deepEqual(t, Int(-5).Int(), int64(-5))
	deepEqual(t, Int(-5).Len(), 8)
	deepEqual(t, Float(0.25).Float(), 0.25)
	deepEqual(t, String("abc").Str(), "abc")
	deepEqual(t, String("").Len(), 0)
	deepEqual(t, Array().Len(), 0)
	deepEqual(t, Object().Kind(), KindObject)

	deepEqual(t, Int(7).Equal(Int(7)), true)
	deepEqual(t, Int(7).Equal(Int(8)), false)
	deepEqual(t, String("7").Equal(Int(7)), false)
}

func TestValue_NarrowWidths(t *testing.T) {
	ws := Widths{Int: Width32, Float: Width32}
	i := ws.IntValue(-7)
	deepEqual(t, i.Len(), 4)
	deepEqual(t, i.Int(), int64(-7))
	f := ws.FloatValue(1.5)
	deepEqual(t, f.Len(), 4)
	deepEqual(t, f.Float(), 1.5)
	deepEqual(t, ws.IntValue(math.MaxInt32).Int(), int64(math.MaxInt32))
	assertPanics(t, func() { ws.IntValue(1 << 40) })
	assertPanics(t, func() { Widths{Int: 16}.normalize() })

	deepEqual(t, Widths{}.normalize(), DefaultWidths)
}

func TestValue_WrongKindPanics(t *testing.T) {
	defer func() {
		r := recover()
		var ke *KindError
		err, _ := r.(error)
		if !errors.As(err, &ke) {
			t.Fatalf("** panicked with %v, wanted *KindError", r)
		}
		deepEqual(t, ke.Want, KindInt)
		deepEqual(t, ke.Got, KindString)
		deepEqual(t, ke.Error(), "string value used as int")
	}()
	String("1").Int()
}

func TestValue_AccessorsCheckKind(t *testing.T) {
	assertPanics(t, func() { Null().Bool() })
	assertPanics(t, func() { Int(1).Float() })
	assertPanics(t, func() { Float(1).Int() })
	assertPanics(t, func() { Bool(true).Str() })
	assertPanics(t, func() { Object().Text() })
	assertPanics(t, func() { Value{KindInt, []byte{1, 2, 3}}.Int() })
}

func TestValue_AppendText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(-12), "-12"},
		{Int(0), "0"},
		{Float(1), "1.0"},
		{Float(0.25), "0.25"},
		{Float(-3), "-3.0"},
		{Float(1e21), "1000000000000000000000.0"},
		{Float(1e-7), "0.0000001"},
		{Float(math.NaN()), "null"},
		{Float(math.Inf(-1)), "null"},
		{Widths{Float: Width32}.FloatValue(0.1), "0.1"},
		{String(`a\"b`), `"a\"b"`},
		{Object(), "{"},
		{Array(), "["},
		{rootMarker(), ""},
	}
	for _, tt := range tests {
		if got := string(tt.v.AppendText(nil)); got != tt.want {
			t.Errorf("** AppendText(%v %x) = %q, wanted %q", tt.v.Kind(), tt.v.Bytes(), got, tt.want)
		}
	}
	deepEqual(t, Object().String(), "{}")
	deepEqual(t, Array().String(), "[]")
	deepEqual(t, rootMarker().String(), "<root>")
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`plain`, "plain"},
		{`a\"b`, `a"b`},
		{`tab\there`, "tab\there"},
		{`A\u00e9`, "A\u00e9"},
		{`back\\slash`, `back\slash`},
		{`bad\x`, `bad\x`},
	}
	for _, tt := range tests {
		v := String(tt.raw)
		deepEqual(t, v.Text(), tt.want)
		deepEqual(t, v.Str(), tt.raw)
	}
}

func TestKind_Predicates(t *testing.T) {
	deepEqual(t, KindArray.IsContainer(), true)
	deepEqual(t, KindRoot.IsContainer(), true)
	deepEqual(t, KindString.IsContainer(), false)
	deepEqual(t, KindString.IsScalar(), true)
	deepEqual(t, KindObject.IsScalar(), false)
	deepEqual(t, KindFloat.String(), "float")
	deepEqual(t, Kind(42).String(), "kind(42)")
}
