package mem

import "testing"

// countingMarker records every value reported to it, for verifying the
// root contract without running a real collection.
type countingMarker struct {
	values []Value
}

func (cm *countingMarker) MarkValue(v Value) {
	cm.values = append(cm.values, v)
}

// valueRoot is a trivial root holding a fixed set of values.
type valueRoot []Value

func (r valueRoot) MarkRoots(m Marker) {
	for _, v := range r {
		m.MarkValue(v)
	}
}

func TestCollectReclaimsUnreachable(t *testing.T) {
	h := newTestHeap(t, 8)
	c := NewCollector(h)

	kept, _ := h.Cons(FromNumber(1), NoOffset)
	h.Cons(FromNumber(2), NoOffset) // garbage
	h.Cons(FromNumber(3), NoOffset) // garbage

	c.AddRoot(valueRoot{FromListOffset(kept)})
	stats := c.Collect()

	if stats.Freed != 2 {
		t.Errorf("Freed = %d, want 2", stats.Freed)
	}
	if stats.Live != 1 {
		t.Errorf("Live = %d, want 1", stats.Live)
	}
	if h.Car(kept).Number() != 1 {
		t.Error("rooted node corrupted by collection")
	}
}

func TestCollectTracesAllRoots(t *testing.T) {
	h := newTestHeap(t, 8)
	c := NewCollector(h)

	a, _ := h.Cons(FromNumber(1), NoOffset)
	b, _ := h.Cons(FromNumber(2), NoOffset)

	c.AddRoot(valueRoot{FromListOffset(a)})
	c.AddRoot(valueRoot{FromListOffset(b)})

	if stats := c.Collect(); stats.Freed != 0 {
		t.Errorf("Freed = %d, want 0", stats.Freed)
	}
}

func TestCollectIgnoresNonHeapValues(t *testing.T) {
	h := newTestHeap(t, 4)
	c := NewCollector(h)
	c.AddRoot(valueRoot{FromNumber(5), FromWordID(3), Nothing, EmptyList})

	h.Cons(Nothing, NoOffset) // garbage
	if stats := c.Collect(); stats.Freed != 1 {
		t.Errorf("Freed = %d, want 1", stats.Freed)
	}
}

func TestCollectPinningKeepsUnrootedValues(t *testing.T) {
	h := newTestHeap(t, 4)
	c := NewCollector(h)

	pinned, _ := h.Cons(FromNumber(1), NoOffset)
	h.Cons(FromNumber(2), NoOffset) // garbage

	stats := c.CollectPinning(FromListOffset(pinned))
	if stats.Freed != 1 {
		t.Errorf("Freed = %d, want 1", stats.Freed)
	}
	if h.Car(pinned).Number() != 1 {
		t.Error("pinned node was swept")
	}
}

func TestCollectStatsBookkeeping(t *testing.T) {
	h := newTestHeap(t, 4)
	c := NewCollector(h)

	if c.CollectionCount() != 0 || c.LastStats() != nil {
		t.Fatal("fresh collector should report no collections")
	}

	c.Collect()
	c.Collect()
	if c.CollectionCount() != 2 {
		t.Errorf("CollectionCount() = %d, want 2", c.CollectionCount())
	}
	if c.LastStats() == nil {
		t.Error("LastStats() should be set after a collection")
	}
}

func TestSharedStructureMarkedOnce(t *testing.T) {
	h := newTestHeap(t, 8)
	c := NewCollector(h)

	shared, _ := h.Cons(FromNumber(7), NoOffset)
	x, _ := h.Cons(FromListOffset(shared), NoOffset)
	y, _ := h.Cons(FromListOffset(shared), NoOffset)

	c.AddRoot(valueRoot{FromListOffset(x), FromListOffset(y)})
	stats := c.Collect()
	if stats.Freed != 0 || stats.Live != 3 {
		t.Errorf("shared structure: Freed = %d, Live = %d; want 0, 3", stats.Freed, stats.Live)
	}
}
