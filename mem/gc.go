package mem

import "time"

// ---------------------------------------------------------------------------
// Collector: mark-sweep collection over the node heap
// ---------------------------------------------------------------------------

// Marker receives live value references during the mark phase. The
// Collector itself is the production Marker; tests substitute counting
// stubs to verify root enumeration.
type Marker interface {
	// MarkValue reports a value as reachable. Non-heap values (numbers,
	// words, specials) are accepted and ignored, so roots can report
	// every value they hold without filtering.
	MarkValue(v Value)
}

// Root is any structure the collector must scan to find live heap
// references before reclaiming the rest: the frame stack, the property
// store, the global variable table. MarkRoots must visit every value the
// root currently holds, in bounded time, without mutating the root's own
// structure.
type Root interface {
	MarkRoots(m Marker)
}

// CollectStats holds statistics from a single collection.
type CollectStats struct {
	Live      int
	Freed     int
	Duration  time.Duration
	Timestamp time.Time
}

// Collector drives mark-sweep collection of a NodeHeap. Collection timing
// is the caller's business; the collector only guarantees that a single
// Collect call traces every registered root and reclaims everything
// unreachable from them.
type Collector struct {
	heap  *NodeHeap
	roots []Root

	collections uint64
	lastStats   *CollectStats
}

// NewCollector creates a collector for the given heap with no roots.
func NewCollector(heap *NodeHeap) *Collector {
	return &Collector{heap: heap}
}

// AddRoot registers a root to be traced on every collection.
func (c *Collector) AddRoot(r Root) {
	c.roots = append(c.roots, r)
}

// RemoveRoot unregisters a previously added root. Used by collaborators
// whose lifetime is shorter than the memory's, e.g. a workspace restore
// holding half-built structure.
func (c *Collector) RemoveRoot(r Root) {
	for i, have := range c.roots {
		if have == r {
			c.roots = append(c.roots[:i], c.roots[i+1:]...)
			return
		}
	}
}

// MarkValue implements Marker. Only list values reference heap nodes;
// everything else is self-contained and ignored.
func (c *Collector) MarkValue(v Value) {
	if !v.IsListNode() {
		return
	}
	c.heap.markFrom(v.ListOffset())
}

// Collect runs one full mark-sweep cycle: clear marks, trace every
// registered root, sweep unmarked nodes to the freelist.
func (c *Collector) Collect() *CollectStats {
	return c.CollectPinning()
}

// CollectPinning collects while treating pins as live. Allocation sites
// whose operands are not yet reachable from any root (a cons being built,
// a value in flight between two stores) pin them for the duration of the
// cycle.
func (c *Collector) CollectPinning(pins ...Value) *CollectStats {
	start := time.Now()

	c.heap.clearMarks()
	for _, r := range c.roots {
		r.MarkRoots(c)
	}
	for _, v := range pins {
		c.MarkValue(v)
	}
	freed := c.heap.sweep()

	stats := &CollectStats{
		Live:      c.heap.Live(),
		Freed:     freed,
		Duration:  time.Since(start),
		Timestamp: start,
	}

	c.collections++
	c.lastStats = stats
	return stats
}

// CollectionCount returns the total number of collections performed.
func (c *Collector) CollectionCount() uint64 {
	return c.collections
}

// LastStats returns statistics from the most recent collection, or nil if
// none has been performed yet.
func (c *Collector) LastStats() *CollectStats {
	return c.lastStats
}
