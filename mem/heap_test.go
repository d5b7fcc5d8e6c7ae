package mem

import "testing"

func newTestHeap(t *testing.T, nodes int) *NodeHeap {
	t.Helper()
	h, err := NewNodeHeap(nodes)
	if err != nil {
		t.Fatalf("NewNodeHeap: %v", err)
	}
	return h
}

func TestNewNodeHeapRejectsZeroCapacity(t *testing.T) {
	if _, err := NewNodeHeap(0); err != ErrNoHeap {
		t.Errorf("NewNodeHeap(0) err = %v, want ErrNoHeap", err)
	}
}

func TestConsAndAccessors(t *testing.T) {
	h := newTestHeap(t, 8)

	tail, ok := h.Cons(FromNumber(2), NoOffset)
	if !ok {
		t.Fatal("Cons failed on a fresh heap")
	}
	head, ok := h.Cons(FromNumber(1), tail)
	if !ok {
		t.Fatal("Cons failed")
	}

	if h.Car(head).Number() != 1 {
		t.Error("head car wrong")
	}
	if h.Cdr(head) != tail {
		t.Error("head cdr wrong")
	}
	if h.Cdr(tail) != NoOffset {
		t.Error("tail cdr should be NoOffset")
	}
	if h.Live() != 2 {
		t.Errorf("Live() = %d, want 2", h.Live())
	}

	h.SetCar(tail, FromNumber(99))
	if h.Car(tail).Number() != 99 {
		t.Error("SetCar lost the value")
	}
	h.SetCdr(tail, head)
	if h.Cdr(tail) != head {
		t.Error("SetCdr lost the link")
	}
}

func TestConsExhaustion(t *testing.T) {
	h := newTestHeap(t, 3)
	for i := 0; i < 3; i++ {
		if _, ok := h.Cons(Nothing, NoOffset); !ok {
			t.Fatalf("Cons %d failed before exhaustion", i)
		}
	}
	if _, ok := h.Cons(Nothing, NoOffset); ok {
		t.Error("Cons should fail on an exhausted heap")
	}
	if h.FreeCount() != 0 || h.Live() != 3 {
		t.Error("heap counts wrong at exhaustion")
	}
}

func TestSweepReturnsNodesToFreelist(t *testing.T) {
	h := newTestHeap(t, 4)
	a, _ := h.Cons(FromNumber(1), NoOffset)
	b, _ := h.Cons(FromNumber(2), NoOffset)

	// Mark only a; b must be reclaimed.
	h.clearMarks()
	h.markFrom(a)
	freed := h.sweep()

	if freed != 1 {
		t.Errorf("sweep freed %d, want 1", freed)
	}
	if h.Live() != 1 {
		t.Errorf("Live() = %d, want 1", h.Live())
	}

	// The freed node is allocatable again.
	c, ok := h.Cons(FromNumber(3), NoOffset)
	if !ok {
		t.Fatal("Cons after sweep failed")
	}
	if c != b {
		t.Errorf("recycled node offset = %d, want %d", c, b)
	}
}

func TestMarkFromFollowsCarAndCdr(t *testing.T) {
	h := newTestHeap(t, 8)

	// Build [1 [2 3]], a nested list through car.
	inner2, _ := h.Cons(FromNumber(3), NoOffset)
	inner1, _ := h.Cons(FromNumber(2), inner2)
	outer2, _ := h.Cons(FromListOffset(inner1), NoOffset)
	outer1, _ := h.Cons(FromNumber(1), outer2)

	h.clearMarks()
	h.markFrom(outer1)
	if freed := h.sweep(); freed != 0 {
		t.Errorf("sweep freed %d reachable nodes", freed)
	}
	if h.Live() != 4 {
		t.Errorf("Live() = %d, want 4", h.Live())
	}
}

func TestMarkFromTerminatesOnCycles(t *testing.T) {
	h := newTestHeap(t, 4)
	a, _ := h.Cons(Nothing, NoOffset)
	b, _ := h.Cons(Nothing, a)
	h.SetCdr(a, b) // a -> b -> a

	h.clearMarks()
	h.markFrom(a) // must not loop forever
	if freed := h.sweep(); freed != 0 {
		t.Errorf("cycle members swept: %d", freed)
	}
}
