package mem

import (
	"errors"
	"unsafe"
)

// ---------------------------------------------------------------------------
// WordArena: word-addressed LIFO allocator for procedure call frames
// ---------------------------------------------------------------------------

// MaxArenaWords is the largest addressable arena capacity. It is one word
// short of NoOffset so that every valid offset stays distinguishable from
// the null sentinel.
const MaxArenaWords = int(NoOffset) - 1

// Arena construction errors.
var (
	ErrNoArena    = errors.New("mem: arena memory is nil or smaller than one word")
	ErrMisaligned = errors.New("mem: arena memory is not word-aligned")
)

// Mark is a saved copy of the arena top. Freeing to a mark reclaims every
// allocation made after the mark was taken in O(1). Marks nest implicitly
// with procedure calls: the evaluator saves one on call entry and frees to
// it exactly once on return or error unwind.
type Mark uint16

// WordArena is a bump allocator over a single caller-provided region,
// addressed in 4-byte words. Space below top is never reused except by
// freeing to a mark, so allocation is O(1) and fragmentation-free.
//
// The arena is single-threaded by contract: only the currently executing
// call path mutates top.
type WordArena struct {
	words []uint32
	top   int

	// strict upgrades the stale-mark leniency in FreeTo to a panic.
	// Release builds leave it off; the silent no-op tolerates nested
	// unwinds racing a mark against an already-smaller top.
	strict bool
}

// NewWordArena wraps a caller-provided memory block. The block must be
// non-empty and aligned to a 4-byte word boundary. Capacity is computed in
// words and clamped to MaxArenaWords if the block is larger than the
// offset space can address.
func NewWordArena(buf []byte) (*WordArena, error) {
	if len(buf) < WordSize {
		return nil, ErrNoArena
	}
	if uintptr(unsafe.Pointer(&buf[0]))%WordSize != 0 {
		return nil, ErrMisaligned
	}

	capacity := len(buf) / WordSize
	if capacity > MaxArenaWords {
		capacity = MaxArenaWords
	}

	return &WordArena{
		words: unsafe.Slice((*uint32)(unsafe.Pointer(&buf[0])), capacity),
	}, nil
}

// SetStrictMarks enables or disables the debug assertion on stale FreeTo
// marks. See FreeTo.
func (a *WordArena) SetStrictMarks(strict bool) {
	a.strict = strict
}

// Allocate reserves wordCount words and returns their offset, or NoOffset
// if the arena cannot satisfy the request. A zero-length request returns
// NoOffset as a deliberate no-op, not an error. On failure top is
// unchanged.
func (a *WordArena) Allocate(wordCount int) Offset {
	if wordCount <= 0 {
		return NoOffset
	}
	if wordCount > len(a.words)-a.top {
		return NoOffset
	}
	off := Offset(a.top)
	a.top += wordCount
	return off
}

// Mark returns the current top for a later FreeTo.
func (a *WordArena) Mark() Mark {
	return Mark(a.top)
}

// FreeTo restores top to a previously saved mark, reclaiming every word
// allocated since the mark was taken regardless of how many discrete
// allocations that represents. A mark above the current top is silently
// ignored so a double unwind cannot corrupt the arena; with strict marks
// enabled the same situation panics instead, to flush out caller bugs.
func (a *WordArena) FreeTo(m Mark) {
	if int(m) > a.top {
		if a.strict {
			panic("mem: FreeTo mark is above the current arena top")
		}
		return
	}
	a.top = int(m)
}

// IsTopAllocation reports whether the allocation at off spanning wordCount
// words is the single most recent live allocation, i.e. extends exactly to
// the current top.
func (a *WordArena) IsTopAllocation(off Offset, wordCount int) bool {
	if off == NoOffset || wordCount < 0 {
		return false
	}
	return int(off)+wordCount == a.top
}

// ExtendTop grows the allocation at off by additional words, in place.
// Extension is legal only for the top allocation; anything older has live
// allocations above it. Returns false, with top unchanged, if the target
// is not the top allocation or the arena is out of room. This is what
// lets a procedure frame grow as LOCAL declarations appear mid-body
// without copying the frame.
func (a *WordArena) ExtendTop(off Offset, wordCount, additional int) bool {
	if !a.IsTopAllocation(off, wordCount) {
		return false
	}
	if additional < 0 {
		return false
	}
	if additional > len(a.words)-a.top {
		return false
	}
	a.top += additional
	return true
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Used returns the number of allocated words.
func (a *WordArena) Used() int { return a.top }

// Available returns the number of free words.
func (a *WordArena) Available() int { return len(a.words) - a.top }

// Capacity returns the arena size in words.
func (a *WordArena) Capacity() int { return len(a.words) }

// UsedBytes returns the number of allocated bytes.
func (a *WordArena) UsedBytes() int { return a.top * WordSize }

// AvailableBytes returns the number of free bytes.
func (a *WordArena) AvailableBytes() int { return a.Available() * WordSize }

// CapacityBytes returns the arena size in bytes.
func (a *WordArena) CapacityBytes() int { return len(a.words) * WordSize }

// Empty reports whether nothing is currently allocated.
func (a *WordArena) Empty() bool { return a.top == 0 }

// ---------------------------------------------------------------------------
// Word and value access
// ---------------------------------------------------------------------------

// WordAt returns the word stored at off.
func (a *WordArena) WordAt(off Offset) uint32 {
	return a.words[off]
}

// SetWordAt stores a word at off.
func (a *WordArena) SetWordAt(off Offset, w uint32) {
	a.words[off] = w
}

// ValueAt loads the two-word Value stored at off. The low word is stored
// first.
func (a *WordArena) ValueAt(off Offset) Value {
	return Value(uint64(a.words[off]) | uint64(a.words[off+1])<<32)
}

// PutValue stores a two-word Value at off.
func (a *WordArena) PutValue(off Offset, v Value) {
	a.words[off] = uint32(v)
	a.words[off+1] = uint32(uint64(v) >> 32)
}

// Pointer converts an offset to a word pointer. NoOffset converts to nil.
// The result is only valid until the next operation that may change arena
// contents.
func (a *WordArena) Pointer(off Offset) *uint32 {
	if off == NoOffset || int(off) >= len(a.words) {
		return nil
	}
	return &a.words[off]
}

// OffsetOf converts a word pointer previously produced by Pointer back to
// its offset. Nil converts to NoOffset. Pointers that do not lie inside
// the arena are the caller's bug; the conversion is undefined for them.
func (a *WordArena) OffsetOf(p *uint32) Offset {
	if p == nil {
		return NoOffset
	}
	base := uintptr(unsafe.Pointer(&a.words[0]))
	return Offset((uintptr(unsafe.Pointer(p)) - base) / WordSize)
}
