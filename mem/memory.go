package mem

// ---------------------------------------------------------------------------
// Memory: the interpreter's complete memory context
// ---------------------------------------------------------------------------

// Default sizes for a Memory built with a zero Config. Deliberately small:
// the target class of machine measures RAM in tens of kilobytes.
const (
	DefaultArenaWords = 16384
	DefaultHeapNodes  = 8192
)

// Config sizes a Memory. Zero fields take the defaults.
type Config struct {
	// ArenaWords is the frame arena capacity in 4-byte words.
	ArenaWords int

	// HeapNodes is the value heap capacity in cons cells.
	HeapNodes int

	// StrictMarks turns the arena's stale-mark leniency into a panic.
	// Debug aid only; leave off in release builds.
	StrictMarks bool
}

// Memory ties the whole substrate together: the frame arena, the value
// heap and its collector, the symbol table, and the two workspace-scoped
// root stores. It is an explicitly constructed context object (the
// evaluator holds one, tests build throwaway ones) rather than ambient
// package state.
type Memory struct {
	Arena      *WordArena
	Heap       *NodeHeap
	Symbols    *SymbolTable
	Frames     *FrameStack
	Properties *PropertyStore
	Globals    *Globals

	collector *Collector
	block     []byte // owned backing block for the arena
}

// MemoryStats is a point-in-time snapshot of memory occupancy.
type MemoryStats struct {
	ArenaUsed     int
	ArenaCapacity int
	HeapLive      int
	HeapCapacity  int
	Symbols       int
	Collections   uint64
}

// NewMemory builds a complete memory context from cfg. The arena's
// backing block is allocated here; callers that bring their own block
// use NewWordArena directly.
func NewMemory(cfg Config) (*Memory, error) {
	arenaWords := cfg.ArenaWords
	if arenaWords <= 0 {
		arenaWords = DefaultArenaWords
	}
	heapNodes := cfg.HeapNodes
	if heapNodes <= 0 {
		heapNodes = DefaultHeapNodes
	}

	block := make([]byte, arenaWords*WordSize)
	arena, err := NewWordArena(block)
	if err != nil {
		return nil, err
	}
	arena.SetStrictMarks(cfg.StrictMarks)

	heap, err := NewNodeHeap(heapNodes)
	if err != nil {
		return nil, err
	}

	m := &Memory{
		Arena:      arena,
		Heap:       heap,
		Symbols:    NewSymbolTable(),
		Frames:     NewFrameStack(arena),
		Properties: NewPropertyStore(),
		Globals:    NewGlobals(),
		collector:  NewCollector(heap),
		block:      block,
	}

	m.collector.AddRoot(m.Frames)
	m.collector.AddRoot(m.Properties)
	m.collector.AddRoot(m.Globals)

	return m, nil
}

// AddRoot registers an additional collection root, for collaborators
// outside this package that hold heap references.
func (m *Memory) AddRoot(r Root) {
	m.collector.AddRoot(r)
}

// RemoveRoot unregisters a root added with AddRoot.
func (m *Memory) RemoveRoot(r Root) {
	m.collector.RemoveRoot(r)
}

// Collect runs one mark-sweep cycle over the value heap.
func (m *Memory) Collect() *CollectStats {
	return m.collector.Collect()
}

// Stats returns current occupancy numbers.
func (m *Memory) Stats() MemoryStats {
	return MemoryStats{
		ArenaUsed:     m.Arena.Used(),
		ArenaCapacity: m.Arena.Capacity(),
		HeapLive:      m.Heap.Live(),
		HeapCapacity:  m.Heap.Capacity(),
		Symbols:       m.Symbols.Len(),
		Collections:   m.collector.CollectionCount(),
	}
}

// ---------------------------------------------------------------------------
// Allocation helpers with collect-and-retry
// ---------------------------------------------------------------------------

// Cons allocates a heap node, collecting once and retrying before giving
// up with ErrNoMemory. The operands are pinned across the collection:
// they may not be reachable from any root yet.
func (m *Memory) Cons(car Value, cdr Offset) (Offset, error) {
	off, ok := m.Heap.Cons(car, cdr)
	if !ok {
		m.collector.CollectPinning(car, FromListOffset(cdr))
		off, ok = m.Heap.Cons(car, cdr)
		if !ok {
			return NoOffset, ErrNoMemory
		}
	}
	return off, nil
}

// List builds a heap list of the given values, in order.
//
// The node count is known up front, so any collection happens before the
// first Cons. A collection partway through would sweep the half-built
// tail, which no root can reach until the head is stored somewhere.
func (m *Memory) List(values ...Value) (Value, error) {
	if m.Heap.FreeCount() < len(values) {
		m.collector.CollectPinning(values...)
		if m.Heap.FreeCount() < len(values) {
			return Nothing, ErrNoMemory
		}
	}

	tail := NoOffset
	for i := len(values) - 1; i >= 0; i-- {
		off, _ := m.Heap.Cons(values[i], tail)
		tail = off
	}
	return FromListOffset(tail), nil
}

// Word interns name and returns it as a word value.
func (m *Memory) Word(name string) Value {
	return m.Symbols.WordValue(name)
}

// PropertyList answers PLIST: the flattened [prop1 value1 prop2 value2 …]
// external-list representation of name's property list, in stored order.
// The empty list when name has no pairs.
func (m *Memory) PropertyList(name string) (Value, error) {
	pairs := m.Properties.Pairs(name)
	if len(pairs) == 0 {
		return EmptyList, nil
	}

	flat := make([]Value, 0, len(pairs)*2)
	for _, p := range pairs {
		flat = append(flat, m.Word(p.Prop), p.Value)
	}
	return m.List(flat...)
}

// EraseWorkspace implements the erase-all command's view of this core:
// every property entry and global binding goes away, and a collection
// reclaims whatever only they kept alive. The frame arena needs no reset
// of its own; top returns to zero once no calls are active.
func (m *Memory) EraseWorkspace() {
	m.Properties.EraseAll()
	m.Globals.EraseAll()
	m.Collect()
}
