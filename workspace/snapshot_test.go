package workspace

import (
	"testing"

	"github.com/tortugalang/tortuga/mem"
)

func newTestMemory(t *testing.T) *mem.Memory {
	t.Helper()
	m, err := mem.NewMemory(mem.Config{ArenaWords: 256, HeapNodes: 128})
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return m
}

// populate fills m with a representative workspace: numbers, words,
// nested lists, an empty property entry, and globals.
func populate(t *testing.T, m *mem.Memory) {
	t.Helper()

	inner, err := m.List(mem.FromNumber(2), mem.FromNumber(3))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	nested, err := m.List(mem.FromNumber(1), inner, m.Word("end"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	m.Properties.Put("turtle", "color", mem.FromNumber(4))
	m.Properties.Put("turtle", "trail", nested)
	m.Properties.Put("door", "state", m.Word("open"))
	m.Properties.Put("ghost", "x", mem.Nothing)
	m.Properties.Remove("ghost", "x") // exists-but-empty entry

	m.Globals.Set("heading", mem.FromNumber(90))
	empty, _ := m.List()
	m.Globals.Set("route", empty)
}

func TestCaptureMarshalRestoreRoundTrip(t *testing.T) {
	src := newTestMemory(t)
	populate(t, src)

	snap, err := Capture(src)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	data, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	dst := newTestMemory(t)
	if err := back.Restore(dst); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// Scalar property survives.
	v, found := dst.Properties.Get("turtle", "color")
	if !found || v.Number() != 4 {
		t.Errorf("turtle.color = %v, %v; want 4, true", v, found)
	}

	// Word property survives with its identity in the new symbol table.
	v, found = dst.Properties.Get("door", "state")
	if !found || !v.IsWord() || dst.Symbols.Name(v.WordID()) != "OPEN" {
		t.Error("door.state did not survive the round trip")
	}

	// Nested list structure survives: [1 [2 3] END].
	v, found = dst.Properties.Get("turtle", "trail")
	if !found || !v.IsListNode() {
		t.Fatal("turtle.trail missing after restore")
	}
	off := v.ListOffset()
	if dst.Heap.Car(off).Number() != 1 {
		t.Error("trail[0] wrong")
	}
	off = dst.Heap.Cdr(off)
	inner := dst.Heap.Car(off)
	if !inner.IsListNode() {
		t.Fatal("trail[1] is not a list")
	}
	if dst.Heap.Car(inner.ListOffset()).Number() != 2 {
		t.Error("trail[1][0] wrong")
	}
	off = dst.Heap.Cdr(off)
	if dst.Symbols.Name(dst.Heap.Car(off).WordID()) != "END" {
		t.Error("trail[2] wrong")
	}
	if dst.Heap.Cdr(off) != mem.NoOffset {
		t.Error("trail has trailing nodes")
	}

	// The exists-but-empty entry is still an entry.
	if !dst.Properties.Has("ghost") {
		t.Error("empty property entry lost")
	}
	if dst.Properties.PairCount("ghost") != 0 {
		t.Error("empty property entry grew pairs")
	}

	// Globals survive, including the empty list.
	g, ok := dst.Globals.Get("heading")
	if !ok || g.Number() != 90 {
		t.Error("global heading lost")
	}
	g, ok = dst.Globals.Get("route")
	if !ok || !g.IsEmptyList() {
		t.Error("global route should restore as the empty list")
	}
}

func TestRestoreReplacesExistingWorkspace(t *testing.T) {
	src := newTestMemory(t)
	src.Globals.Set("kept", mem.FromNumber(1))
	snap, err := Capture(src)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	dst := newTestMemory(t)
	dst.Globals.Set("stale", mem.FromNumber(2))
	dst.Properties.Put("stale", "p", mem.Nothing)

	if err := snap.Restore(dst); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := dst.Globals.Get("stale"); ok {
		t.Error("stale global survived restore")
	}
	if dst.Properties.Has("stale") {
		t.Error("stale property entry survived restore")
	}
	if _, ok := dst.Globals.Get("kept"); !ok {
		t.Error("restored global missing")
	}
}

func TestCaptureRejectsCyclicLists(t *testing.T) {
	m := newTestMemory(t)

	a, _ := m.Heap.Cons(mem.FromNumber(1), mem.NoOffset)
	b, _ := m.Heap.Cons(mem.FromNumber(2), a)
	m.Heap.SetCdr(a, b)
	m.Globals.Set("loop", mem.FromListOffset(a))

	if _, err := Capture(m); err == nil {
		t.Error("Capture should fail on cyclic structure")
	}
}

func TestCaptureAllowsSharedStructure(t *testing.T) {
	m := newTestMemory(t)

	shared, err := m.List(mem.FromNumber(5))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	both, err := m.List(shared, shared)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	m.Globals.Set("twice", both)

	snap, err := Capture(m)
	if err != nil {
		t.Fatalf("Capture on shared (acyclic) structure: %v", err)
	}
	if len(snap.Globals) != 1 || len(snap.Globals[0].Value.List) != 2 {
		t.Error("shared structure externalized wrong")
	}
}

func TestRestoreFailsOnTooSmallHeap(t *testing.T) {
	src := newTestMemory(t)
	big := make([]mem.Value, 64)
	for i := range big {
		big[i] = mem.FromNumber(float64(i))
	}
	v, err := src.List(big...)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	src.Globals.Set("big", v)

	snap, err := Capture(src)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	tiny, err := mem.NewMemory(mem.Config{ArenaWords: 64, HeapNodes: 8})
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	if err := snap.Restore(tiny); err == nil {
		t.Error("Restore into an undersized heap should fail")
	}
	if tiny.Globals.Count() != 0 {
		t.Error("failed restore left a half-restored workspace")
	}
}

func TestUnmarshalRejectsForeignData(t *testing.T) {
	if _, err := Unmarshal([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Error("Unmarshal should reject malformed bytes")
	}

	other, err := cborMarshalForTest(map[int]any{1: "something-else", 2: uint32(1)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Unmarshal(other); err == nil {
		t.Error("Unmarshal should reject a foreign format tag")
	}
}

func cborMarshalForTest(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func TestMarshalIsDeterministic(t *testing.T) {
	m := newTestMemory(t)
	populate(t, m)

	snap, err := Capture(m)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	a, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("canonical encoding should be byte-stable for the same snapshot")
	}
}
