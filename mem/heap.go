package mem

import "errors"

// ---------------------------------------------------------------------------
// NodeHeap: fixed pool of cons cells for list structure
// ---------------------------------------------------------------------------

// ErrNoHeap is returned when a NodeHeap is constructed without capacity.
var ErrNoHeap = errors.New("mem: node heap requires at least one node")

// node is one cons cell. Car holds any Value; Cdr links to the next node
// or is NoOffset at the end of a list. While a node sits on the freelist,
// Cdr threads the freelist instead.
type node struct {
	car    Value
	cdr    Offset
	live   bool
	marked bool
}

// NodeHeap is the value heap: a fixed, offset-addressed pool of cons cells
// with arbitrary lifetimes. It is deliberately a separate allocator from
// the WordArena (frames die in LIFO order, list structure escapes), and
// the two share only the offset addressing scheme and the root-marking
// contract.
//
// The heap never frees anything on its own; reclamation happens only when
// a Collector sweeps it.
type NodeHeap struct {
	nodes []node
	free  Offset // freelist head, threaded through cdr
	live  int
}

// NewNodeHeap creates a heap of nodeCount cons cells, clamped so every
// node stays addressable by a 16-bit offset.
func NewNodeHeap(nodeCount int) (*NodeHeap, error) {
	if nodeCount <= 0 {
		return nil, ErrNoHeap
	}
	if nodeCount > MaxArenaWords {
		nodeCount = MaxArenaWords
	}

	h := &NodeHeap{
		nodes: make([]node, nodeCount),
		free:  0,
	}

	// Thread the freelist through cdr in address order.
	for i := range h.nodes {
		h.nodes[i].cdr = Offset(i + 1)
	}
	h.nodes[nodeCount-1].cdr = NoOffset

	return h, nil
}

// Cons allocates a node with the given car and cdr. Returns NoOffset and
// false when the heap is exhausted; the caller decides whether to collect
// and retry or surface an out-of-memory condition.
func (h *NodeHeap) Cons(car Value, cdr Offset) (Offset, bool) {
	if h.free == NoOffset {
		return NoOffset, false
	}

	off := h.free
	n := &h.nodes[off]
	h.free = n.cdr

	n.car = car
	n.cdr = cdr
	n.live = true
	n.marked = false
	h.live++

	return off, true
}

// Car returns the car of the node at off.
func (h *NodeHeap) Car(off Offset) Value {
	return h.nodes[off].car
}

// Cdr returns the cdr of the node at off.
func (h *NodeHeap) Cdr(off Offset) Offset {
	return h.nodes[off].cdr
}

// SetCar replaces the car of the node at off.
func (h *NodeHeap) SetCar(off Offset, v Value) {
	h.nodes[off].car = v
}

// SetCdr replaces the cdr of the node at off.
func (h *NodeHeap) SetCdr(off Offset, cdr Offset) {
	h.nodes[off].cdr = cdr
}

// Live returns the number of allocated nodes.
func (h *NodeHeap) Live() int { return h.live }

// FreeCount returns the number of nodes on the freelist.
func (h *NodeHeap) FreeCount() int { return len(h.nodes) - h.live }

// Capacity returns the total number of nodes.
func (h *NodeHeap) Capacity() int { return len(h.nodes) }

// ---------------------------------------------------------------------------
// Mark/sweep support (driven by Collector)
// ---------------------------------------------------------------------------

// clearMarks resets every mark bit ahead of a collection.
func (h *NodeHeap) clearMarks() {
	for i := range h.nodes {
		h.nodes[i].marked = false
	}
}

// markFrom marks the node at off and everything reachable from it. The
// walk is iterative with an explicit worklist, so deep lists cannot
// overflow the Go stack, and mark bits make it terminate on shared or
// cyclic structure.
func (h *NodeHeap) markFrom(off Offset) {
	if off == NoOffset {
		return
	}

	work := []Offset{off}
	for len(work) > 0 {
		o := work[len(work)-1]
		work = work[:len(work)-1]

		n := &h.nodes[o]
		if !n.live || n.marked {
			continue
		}
		n.marked = true

		if n.cdr != NoOffset {
			work = append(work, n.cdr)
		}
		if n.car.IsListNode() {
			work = append(work, n.car.ListOffset())
		}
	}
}

// sweep returns every live, unmarked node to the freelist and reports how
// many were reclaimed.
func (h *NodeHeap) sweep() int {
	freed := 0
	for i := range h.nodes {
		n := &h.nodes[i]
		if !n.live || n.marked {
			continue
		}
		n.live = false
		n.car = Nothing
		n.cdr = h.free
		h.free = Offset(i)
		h.live--
		freed++
	}
	return freed
}
