package mem

import "errors"

// ErrNoMemory is the recoverable exhaustion condition: the arena or heap
// cannot satisfy a request. The evaluator surfaces it as the language's
// "out of memory" / "too deeply recursive" error and unwinds the current
// statement; the interpreter itself keeps running.
var ErrNoMemory = errors.New("mem: out of memory")

// ---------------------------------------------------------------------------
// FrameStack: procedure activation records in the word arena
// ---------------------------------------------------------------------------

// Frame is the arena-resident storage for one active procedure call: a
// contiguous run of value slots holding arguments and locals. A frame is
// only ever grown while it is the newest frame; a nested call pushes its
// own frame above and freezes everything below.
type Frame struct {
	stack *FrameStack
	off   Offset
	slots int
	mark  Mark
	depth int // position in the frame stack at push time
}

// FrameStack manages frames over a WordArena following the evaluator's
// call discipline: push on call entry, pop exactly once on return or
// error unwind. Frame lifetimes are perfectly LIFO-nested by construction
// of that discipline, which is what makes O(1) bulk free sound.
//
// The stack is a collection root: every slot of every live frame may hold
// heap references.
type FrameStack struct {
	arena  *WordArena
	frames []*Frame
}

// NewFrameStack creates an empty frame stack over the given arena.
func NewFrameStack(arena *WordArena) *FrameStack {
	return &FrameStack{arena: arena}
}

// Push allocates a frame with the given number of value slots, saving the
// arena mark first so Pop can free the frame and everything allocated
// after it in O(1). A zero-slot frame is valid: procedures with no
// arguments still get an activation record and may grow it with AddLocal.
// Returns ErrNoMemory when the arena is exhausted, with the arena
// unchanged.
func (s *FrameStack) Push(slots int) (*Frame, error) {
	if slots < 0 {
		slots = 0
	}

	mark := s.arena.Mark()
	off := NoOffset
	if slots > 0 {
		off = s.arena.Allocate(slots * ValueWords)
		if off == NoOffset {
			return nil, ErrNoMemory
		}
	}

	f := &Frame{
		stack: s,
		off:   off,
		slots: slots,
		mark:  mark,
		depth: len(s.frames),
	}
	for i := 0; i < slots; i++ {
		f.SetSlot(i, Nothing)
	}

	s.frames = append(s.frames, f)
	return f, nil
}

// Pop frees the newest frame back to its saved mark. Popping an empty
// stack is a no-op, matching the arena's tolerance of stale marks.
func (s *FrameStack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	s.arena.FreeTo(f.mark)
}

// Depth returns the number of live frames.
func (s *FrameStack) Depth() int {
	return len(s.frames)
}

// Current returns the newest frame, or nil when no call is active.
func (s *FrameStack) Current() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// UnwindTo pops frames until at most depth remain. This is the error
// path: a failing statement unwinds every call it entered with a single
// sweep of FreeTo calls.
func (s *FrameStack) UnwindTo(depth int) {
	for len(s.frames) > depth {
		s.Pop()
	}
}

// MarkRoots implements Root: every slot of every live frame is a
// potential heap reference.
func (s *FrameStack) MarkRoots(m Marker) {
	for _, f := range s.frames {
		for i := 0; i < f.slots; i++ {
			m.MarkValue(f.Slot(i))
		}
	}
}

// ---------------------------------------------------------------------------
// Frame slot access
// ---------------------------------------------------------------------------

// Slots returns the current number of value slots in the frame.
func (f *Frame) Slots() int {
	return f.slots
}

// Slot returns the value in slot i.
func (f *Frame) Slot(i int) Value {
	if i < 0 || i >= f.slots {
		panic("mem: frame slot index out of range")
	}
	return f.stack.arena.ValueAt(f.off + Offset(i*ValueWords))
}

// SetSlot stores a value in slot i.
func (f *Frame) SetSlot(i int, v Value) {
	if i < 0 || i >= f.slots {
		panic("mem: frame slot index out of range")
	}
	f.stack.arena.PutValue(f.off+Offset(i*ValueWords), v)
}

// AddLocal grows the frame by one slot, initialized to v, and returns the
// new slot's index. Growth goes through ExtendTop, so it is legal only
// while this frame is the newest one: the caller should only ever extend
// the frame it most recently pushed and has not returned from. Returns
// ErrNoMemory when the arena has no room for another local, which is a
// different condition from extending a stale frame (a caller bug).
func (f *Frame) AddLocal(v Value) (int, error) {
	if f.stack.Current() != f {
		panic("mem: AddLocal on a frame that is not the newest")
	}

	if f.off == NoOffset {
		// Zero-slot frame: nothing allocated yet. The arena top still
		// equals the saved mark, so a fresh allocation is contiguous
		// with the frame start.
		off := f.stack.arena.Allocate(ValueWords)
		if off == NoOffset {
			return 0, ErrNoMemory
		}
		f.off = off
	} else if !f.stack.arena.ExtendTop(f.off, f.slots*ValueWords, ValueWords) {
		return 0, ErrNoMemory
	}

	i := f.slots
	f.slots++
	f.SetSlot(i, v)
	return i, nil
}
