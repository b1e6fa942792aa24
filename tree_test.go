package flatdoc

import (
	"errors"
	"log/slog"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

const sample = `{"a":1,"b":[2,3],"c":{"d":4}}`

const sampleText = `{
  "a":1,
  "b":[
    2,
    3
  ],
  "c":{
    "d":4
  }
}
`

func parse(t testing.TB, text string, opt Options) *Tree {
	t.Helper()
	tr, err := Parse([]byte(text), opt)
	if err != nil {
		t.Fatalf("Parse(%s): %v", text, err)
	}
	if err := tr.Check(); err != nil {
		t.Fatalf("Parse(%s): %v\n%s", text, err, tr.Dump(DumpAll))
	}
	return tr
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func textEqual(t testing.TB, a, e string) {
	if diff := cmp.Diff(e, a); diff != "" {
		t.Helper()
		t.Errorf("** text mismatch (-wanted +got):\n%s", diff)
	}
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}

func assertPanicsWith(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, _ := r.(error)
		if !errors.Is(err, want) {
			t.Fatalf("** panicked with %v, wanted %v", r, want)
		}
	}()
	fn()
}

func parents(tr *Tree) []int {
	var out []int
	for i := range tr.Len() {
		out = append(out, tr.Node(i).Parent)
	}
	return out
}

func names(c Cursor) []string {
	var out []string
	for ch := range c.Children() {
		out = append(out, ch.Name())
	}
	return out
}

func TestTree_SampleLayout(t *testing.T) {
	tr := parse(t, sample, Options{})
	deepEqual(t, parents(tr), []int{-1, 0, 1, 1, 1, 3, 3, 4})
	deepEqual(t, names(tr.Root()), []string{"a", "b", "c"})

	deepEqual(t, tr.Find("a").Value().Int(), int64(1))
	b := tr.Find("b")
	deepEqual(t, b.Kind(), KindArray)
	deepEqual(t, b.Len(), 2)
	deepEqual(t, b.At(0).Value().Int(), int64(2))
	deepEqual(t, b.At(1).Value().Int(), int64(3))
	deepEqual(t, tr.Find("c").Find("d").Value().Int(), int64(4))
	textEqual(t, tr.String(), sampleText)
}

func TestTree_ChildRanges(t *testing.T) {
	tr := parse(t, sample, Options{})
	root := tr.Root()
	deepEqual(t, root.Begin().Pos(), 2)
	deepEqual(t, root.End().Pos(), 5)
	deepEqual(t, tr.Sentinel().Begin().Pos(), 1)
	deepEqual(t, tr.Sentinel().End().Pos(), 2)

	b := tr.Find("b")
	deepEqual(t, b.Begin().Pos(), 5)
	deepEqual(t, b.End().Sub(b.Begin()), 2)
	deepEqual(t, b.Begin().Next().Value().Int(), int64(3))
	deepEqual(t, b.End().Prev().Value().Int(), int64(3))

	c := tr.Find("c")
	deepEqual(t, c.Begin().Pos(), 7)
	deepEqual(t, c.End().Pos(), 8)
	deepEqual(t, c.End().IsEnd(), true)

	// childless nodes yield (Len, Len)
	for _, name := range []string{"a"} {
		n := tr.Find(name)
		deepEqual(t, n.Begin().Pos(), tr.Len())
		deepEqual(t, n.End().Pos(), tr.Len())
		deepEqual(t, n.Len(), 0)
	}
	d := c.Find("d")
	deepEqual(t, d.Begin().IsEnd(), true)
	deepEqual(t, d.Len(), 0)
	deepEqual(t, tr.End().Len(), 0)
}

func TestTree_Lookups(t *testing.T) {
	tr := parse(t, sample, Options{})
	deepEqual(t, tr.Find("zz").IsEnd(), true)
	deepEqual(t, tr.At(3).IsEnd(), true)
	deepEqual(t, tr.At(-1).IsEnd(), true)
	deepEqual(t, tr.At(2).Name(), "c")
	deepEqual(t, tr.Find("b").Find("x").IsEnd(), true)

	d := tr.Find("c").Find("d")
	deepEqual(t, d.Parent().Name(), "c")
	deepEqual(t, d.Parent().Parent().Pos(), 1)
	deepEqual(t, tr.Sentinel().Parent().Pos(), 0)

	deepEqual(t, tr.Find("a").IsLastSibling(), false)
	deepEqual(t, tr.Find("c").IsLastSibling(), true)
	deepEqual(t, tr.Root().IsLastSibling(), true)

	var zero Cursor
	deepEqual(t, zero.IsEnd(), true)
	deepEqual(t, zero.String(), "<nil>")
}

func TestTree_New(t *testing.T) {
	tr := New(Options{})
	deepEqual(t, tr.Root().Kind(), KindObject)
	deepEqual(t, tr.Len(), 2)
	textEqual(t, tr.String(), "{\n}\n")

	arr := New(Options{RootKind: KindArray})
	deepEqual(t, arr.Root().Kind(), KindArray)

	assertPanics(t, func() { New(Options{RootKind: KindString}) })
}

func TestTree_GetAddsMissingMembers(t *testing.T) {
	tr := New(Options{})
	x := tr.Get("x")
	deepEqual(t, x.Kind(), KindNull)
	x.Set(String("y"))
	deepEqual(t, tr.Get("x").Value().Str(), "y")
	deepEqual(t, tr.Root().Len(), 1)

	// arrays always get a new element
	l := tr.Root().Add("l", Array())
	l.Get("ignored")
	l.Get("ignored")
	deepEqual(t, tr.Find("l").Len(), 2)
	deepEqual(t, tr.Find("l").At(0).Name(), "")

	deepEqual(t, tr.Find("x").Get("y").IsEnd(), true)
	textEqual(t, tr.String(), "{\n  \"x\":\"y\",\n  \"l\":[\n    null,\n    null\n  ]\n}\n")
}

func TestTree_IndexPadsWithNulls(t *testing.T) {
	tr := New(Options{RootKind: KindArray})
	tr.Index(2).Set(Int(7))
	textEqual(t, tr.String(), "[\n  null,\n  null,\n  7\n]\n")
	deepEqual(t, tr.Index(0).Kind(), KindNull)
	deepEqual(t, tr.Root().Len(), 3)
	deepEqual(t, tr.Index(-1).IsEnd(), true)
	deepEqual(t, tr.Index(1).Index(0).IsEnd(), true)
}

func TestTree_SortedInsertRenumbersParents(t *testing.T) {
	tr := parse(t, `{"a":[[1]],"b":1}`, Options{})
	deepEqual(t, parents(tr), []int{-1, 0, 1, 1, 2, 4})

	gen := tr.Generation()
	c := tr.Root().Add("c", Null())
	if tr.Generation() == gen {
		t.Fatalf("Generation unchanged after a sorted insert")
	}
	deepEqual(t, c.Pos(), 4)
	deepEqual(t, parents(tr), []int{-1, 0, 1, 1, 1, 2, 5})
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	deepEqual(t, tr.Find("a").At(0).At(0).Value().Int(), int64(1))
	textEqual(t, tr.String(), `{
  "a":[
    [
      1
    ]
  ],
  "b":1,
  "c":null
}
`)
}

func TestTree_InsertIntoMiddleContainer(t *testing.T) {
	tr := parse(t, sample, Options{})
	tr.Find("b").Append(Int(5))
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	deepEqual(t, parents(tr), []int{-1, 0, 1, 1, 1, 3, 3, 3, 4})
	deepEqual(t, tr.Find("b").Len(), 3)
	deepEqual(t, tr.Find("b").At(2).Value().Int(), int64(5))
	deepEqual(t, tr.Find("c").Find("d").Value().Int(), int64(4))
}

func TestTree_StaleCursors(t *testing.T) {
	tr := parse(t, sample, Options{})

	a := tr.Find("a")
	tr.Find("c").Add("e", Int(5)) // appends at the end, nothing moves
	deepEqual(t, a.Stale(), false)
	deepEqual(t, a.Value().Int(), int64(1))

	tr.Find("b").Append(Int(9))
	deepEqual(t, a.Stale(), true)
	deepEqual(t, a.String(), "<stale>")
	assertPanicsWith(t, ErrStaleCursor, func() { a.Value() })
	assertPanicsWith(t, ErrStaleCursor, func() { a.Begin() })

	b := tr.Find("b")
	tr.Find("a").Remove()
	deepEqual(t, b.Stale(), false)
	tr.Compact()
	assertPanicsWith(t, ErrStaleCursor, func() { b.Len() })

	root := tr.Root()
	assertPanicsWith(t, ErrStaleCursor, func() {
		for range root.Children() {
			tr.Find("b").Append(Int(1))
		}
	})
}

func TestTree_CascadingRemove(t *testing.T) {
	tr := parse(t, sample, Options{})
	tr.Find("b").Remove()
	deepEqual(t, tr.Pending(), 3)
	deepEqual(t, tr.Find("b").IsEnd(), true)
	deepEqual(t, names(tr.Root()), []string{"a", "c"})
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}

	const want = `{
  "a":1,
  "c":{
    "d":4
  }
}
`
	textEqual(t, tr.String(), want)

	deepEqual(t, tr.Compact(), 3)
	deepEqual(t, tr.Compact(), 0)
	deepEqual(t, tr.Pending(), 0)
	deepEqual(t, parents(tr), []int{-1, 0, 1, 1, 3})
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	textEqual(t, tr.String(), want)
	deepEqual(t, tr.Find("c").Find("d").Value().Int(), int64(4))
}

func TestTree_RemoveDeepSubtree(t *testing.T) {
	tr := parse(t, `{"x":{"y":{"z":[1,{"w":2}]}},"k":[3,[4]]}`, Options{})
	deepEqual(t, tr.Find("x").Delete(), 6)
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	textEqual(t, tr.String(), "{\n  \"k\":[\n    3,\n    [\n      4\n    ]\n  ]\n}\n")
	deepEqual(t, tr.Find("k").At(1).At(0).Value().Int(), int64(4))
}

func TestTree_RemoveDocumentRoot(t *testing.T) {
	tr := parse(t, sample, Options{})
	tr.Root().Remove()
	deepEqual(t, tr.Pending(), 7)
	deepEqual(t, tr.String(), "")
	deepEqual(t, tr.Compact(), 7)
	deepEqual(t, tr.Root().IsEnd(), true)
	deepEqual(t, tr.Len(), 1)

	assertPanics(t, func() { tr.Sentinel().Remove() })
	assertPanics(t, func() { tr.Sentinel().Set(Null()) })
}

func TestTree_AddToRemovedContainer(t *testing.T) {
	tr := parse(t, sample, Options{})
	c := tr.Find("c")
	c.Remove()
	deepEqual(t, c.Add("e", Int(1)).IsEnd(), true)
	tr.Compact()
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestTree_SetDropsChildrenOnKindChange(t *testing.T) {
	tr := parse(t, sample, Options{})
	tr.Find("b").Set(String("x"))
	deepEqual(t, tr.Len(), 6)
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	deepEqual(t, tr.Find("b").Value().Str(), "x")
	deepEqual(t, tr.Find("c").Find("d").Value().Int(), int64(4))

	// same kind keeps children
	tr.Find("c").Set(Object())
	deepEqual(t, tr.Find("c").Len(), 1)
}

func TestTree_ReplaceAfterPendingRemove(t *testing.T) {
	const doc = `{"a":1,"b":{"c":1},"x":2,"y":3}`

	tr := parse(t, doc, Options{})
	tr.Find("a").Remove()
	c := tr.Find("b").Set(Int(5))
	deepEqual(t, c.Name(), "b")
	deepEqual(t, c.Value().Int(), int64(5))
	deepEqual(t, tr.Pending(), 0)
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	textEqual(t, tr.String(), "{\n  \"b\":5,\n  \"x\":2,\n  \"y\":3\n}\n")

	tr = parse(t, doc, Options{DuplicateKeys: Overwrite})
	tr.Find("a").Remove()
	c = tr.Root().Add("b", String("new"))
	deepEqual(t, c.Name(), "b")
	deepEqual(t, c.Value().Str(), "new")
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
	textEqual(t, tr.String(), "{\n  \"b\":\"new\",\n  \"x\":2,\n  \"y\":3\n}\n")

	// removed nodes cannot be set
	tr = parse(t, doc, Options{})
	b := tr.Find("b")
	b.Remove()
	deepEqual(t, b.Set(Int(1)).IsEnd(), true)
	deepEqual(t, b.Kind(), KindObject)
	deepEqual(t, tr.Pending(), 2)
	if err := tr.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestTree_EndCursorSurvivesAppends(t *testing.T) {
	tr := parse(t, sample, Options{})
	miss := tr.Find("zzz")
	past := tr.Find("b").At(5)
	childless := tr.Find("a").Begin()

	tr.Find("c").Add("y", Int(1)) // fast path append, nothing moves
	for _, c := range []Cursor{miss, past, childless} {
		deepEqual(t, c.Stale(), false)
		deepEqual(t, c.IsEnd(), true)
		deepEqual(t, c.Pos(), tr.Len())
		deepEqual(t, c.Len(), 0)
	}
	deepEqual(t, tr.Find("c").End().IsEnd(), true)
	deepEqual(t, tr.Find("c").Find("y").Next().IsEnd(), true)
	deepEqual(t, tr.End().Prev().Name(), "y")
}

func TestTree_PositionalAccessSkipsRemoved(t *testing.T) {
	tr := parse(t, `[0,1,2,3]`, Options{})
	tr.At(1).Remove()
	root := tr.Root()
	deepEqual(t, root.Len(), 3)
	deepEqual(t, root.End().Sub(root.Begin()), 4)
	deepEqual(t, tr.At(1).Value().Int(), int64(2))
	deepEqual(t, tr.At(2).Value().Int(), int64(3))
	deepEqual(t, tr.At(3).IsEnd(), true)

	tr.Index(3).Set(Int(4))
	textEqual(t, tr.String(), "[\n  0,\n  2,\n  3,\n  4\n]\n")
	deepEqual(t, tr.Root().Len(), 4)
	deepEqual(t, tr.Pending(), 1)
}

func TestTree_IsLastSiblingMatchesCommas(t *testing.T) {
	tr := parse(t, `{"a":1,"b":2,"c":[3]}`, Options{})
	tr.Find("c").Remove()
	deepEqual(t, tr.Find("a").IsLastSibling(), false)
	deepEqual(t, tr.Find("b").IsLastSibling(), true)
	textEqual(t, tr.String(), "{\n  \"a\":1,\n  \"b\":2\n}\n")

	tr.Find("b").Remove()
	deepEqual(t, tr.Find("a").IsLastSibling(), true)
}

func TestTree_DuplicatePolicies(t *testing.T) {
	t.Run("keep-first", func(t *testing.T) {
		tr := New(Options{})
		tr.Root().Add("a", Int(1))
		tr.Root().Add("a", Int(2))
		deepEqual(t, tr.Root().Len(), 2)
		deepEqual(t, tr.Find("a").Value().Int(), int64(1))
		deepEqual(t, tr.Get("a").Value().Int(), int64(1))
	})
	t.Run("overwrite", func(t *testing.T) {
		tr := New(Options{DuplicateKeys: Overwrite})
		tr.Root().Add("a", Object()).Add("x", Int(1))
		tr.Root().Add("b", Null())
		c := tr.Root().Add("a", Int(2))
		deepEqual(t, c.Name(), "a")
		deepEqual(t, c.Value().Int(), int64(2))
		deepEqual(t, tr.Root().Len(), 2)
		deepEqual(t, tr.Len(), 4)
		if err := tr.Check(); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("reject", func(t *testing.T) {
		tr := New(Options{DuplicateKeys: Reject})
		tr.Root().Add("a", Int(1))
		deepEqual(t, tr.Root().Add("a", Int(3)).IsEnd(), true)
		deepEqual(t, tr.Find("a").Value().Int(), int64(1))
		// arrays have no names to clash
		l := tr.Root().Add("l", Array())
		l.Append(Int(1))
		l.Append(Int(1))
		deepEqual(t, tr.Find("l").Len(), 2)
	})

	p, err := ParseDuplicatePolicy("overwrite")
	deepEqual(t, p, Overwrite)
	deepEqual(t, err, nil)
	deepEqual(t, Reject.String(), "reject")
	if _, err := ParseDuplicatePolicy("bogus"); err == nil {
		t.Errorf("ParseDuplicatePolicy(bogus) succeeded")
	}
}

func TestTree_Clone(t *testing.T) {
	tr := parse(t, sample, Options{})
	cl := tr.Clone()
	cl.Find("a").Set(Int(10))
	cl.Find("b").Remove()
	deepEqual(t, tr.Find("a").Value().Int(), int64(1))
	deepEqual(t, tr.Pending(), 0)
	textEqual(t, tr.String(), sampleText)
	textEqual(t, cl.String(), "{\n  \"a\":10,\n  \"c\":{\n    \"d\":4\n  }\n}\n")
}

func TestTree_Reset(t *testing.T) {
	tr := parse(t, sample, Options{})
	r := tr.Root()
	tr.Reset()
	deepEqual(t, tr.Len(), 1)
	deepEqual(t, tr.Root().IsEnd(), true)
	deepEqual(t, r.Stale(), true)
}

func TestTree_CheckDetectsBrokenLayout(t *testing.T) {
	tr := parse(t, sample, Options{})
	tr.store.nodes[5].Parent = 4

	var le *LayoutError
	if err := tr.Check(); !errors.As(err, &le) {
		t.Fatalf("Check = %v, wanted *LayoutError", err)
	}
	deepEqual(t, le.Pos, 6)

	tr = parse(t, sample, Options{})
	tr.store.nodes[7].Parent = 2 // under the scalar "a", out of order too
	if tr.Check() == nil {
		t.Fatalf("Check accepted a broken layout")
	}
}

func TestTree_Dump(t *testing.T) {
	tr := parse(t, `{"a":[1]}`, Options{})
	tr.Find("a").At(0).Remove()
	out := tr.Dump(DumpAll)
	for _, s := range []string{"4 slots, 1 removed", `"a"`, "[3, 4)", "(removed)"} {
		if !strings.Contains(out, s) {
			t.Errorf("** Dump output lacks %q:\n%s", s, out)
		}
	}
	if strings.Contains(tr.Dump(0), "(removed)") {
		t.Errorf("** Dump(0) shows removed nodes")
	}
}

func TestTree_RandomMutationsKeepLayout(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	tr := New(Options{})

	randomValue := func() Value {
		switch rnd.Intn(7) {
		case 0:
			return Null()
		case 1:
			return Bool(rnd.Intn(2) == 0)
		case 2:
			return Int(rnd.Int63n(2000) - 1000)
		case 3:
			return Float(rnd.Float64() * 100)
		case 4:
			return String(string(rune('p' + rnd.Intn(4))))
		case 5:
			return Array()
		default:
			return Object()
		}
	}

	for step := range 3000 {
		var live []int
		for i := 1; i < tr.Len(); i++ {
			if !tr.Node(i).Removed() {
				live = append(live, i)
			}
		}
		pos := live[rnd.Intn(len(live))]
		c := tr.Sentinel().Offset(pos)

		switch op := rnd.Intn(10); {
		case op < 6:
			c.Add(string(rune('a'+rnd.Intn(4))), randomValue())
		case op == 6:
			if pos != 1 {
				c.Remove()
			}
		case op == 7:
			if rnd.Intn(4) == 0 {
				tr.Compact()
			}
		case op == 8:
			if pos != 1 {
				c.Set(randomValue())
			}
		default:
			c.Index(rnd.Intn(3))
		}

		if err := tr.Check(); err != nil {
			t.Fatalf("step %d: %v\n%s", step, err, tr.Dump(DumpAll))
		}
		if step%100 == 99 {
			text := tr.String()
			re := parse(t, text, Options{})
			textEqual(t, re.String(), text)
			if re.Fingerprint() != tr.Fingerprint() {
				t.Fatalf("step %d: fingerprint changed after re-parse\n%s", step, text)
			}
		}
	}
}
