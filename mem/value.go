package mem

import "math"

// Value represents a Tortuga datum using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-number values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Number: Native IEEE 754 double (if not a NaN, it's a number)
//   - Word: Quiet NaN + tagWord + interned symbol ID
//   - List: Quiet NaN + tagList + node heap offset
//   - Special: Quiet NaN + tagSpecial + special value ID (nothing, empty list)
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for offset/id
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagWord    uint64 = 0x0001000000000000 // Interned symbol ID
	tagList    uint64 = 0x0002000000000000 // Node heap offset
	tagSpecial uint64 = 0x0003000000000000 // nothing, empty list
)

// Special value payloads
const (
	specialNothing   uint64 = 0
	specialEmptyList uint64 = 1
)

// Pre-defined special values
const (
	// Nothing is the absent value: an unbound variable slot, a missing
	// property.
	Nothing Value = Value(nanBits | tagSpecial | specialNothing)

	// EmptyList is the empty list datum. It has no heap node, so marking
	// it is a no-op.
	EmptyList Value = Value(nanBits | tagSpecial | specialEmptyList)
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsNumber returns true if v represents a float64 number.
// A value is a number if it is not one of our tagged NaN values. This
// includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsNumber() bool {
	bits := uint64(v)

	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		// Exponent is not all 1s, so it's a regular number
		return true
	}

	// Exponent is all 1s. Could be Infinity or NaN.
	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		// +Inf or -Inf, which are valid numbers
		return true
	}

	if (bits & nanBits) != nanBits {
		// Signaling NaN: treat as number
		return true
	}

	if (bits & tagMask) == 0 {
		// A "real" quiet NaN, treat as number
		return true
	}

	return false
}

// IsWord returns true if v represents an interned word (symbol).
func (v Value) IsWord() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagWord)
}

// IsListNode returns true if v references a node in the value heap.
func (v Value) IsListNode() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagList)
}

// IsList returns true if v is a list, including the empty list.
func (v Value) IsList() bool {
	return v.IsListNode() || v == EmptyList
}

// IsNothing returns true if v is the absent value.
func (v Value) IsNothing() bool {
	return v == Nothing
}

// IsEmptyList returns true if v is the empty list.
func (v Value) IsEmptyList() bool {
	return v == EmptyList
}

// ---------------------------------------------------------------------------
// Number operations
// ---------------------------------------------------------------------------

// Number returns v as a float64.
// Panics if v is not a number.
func (v Value) Number() float64 {
	if !v.IsNumber() {
		panic("Value.Number: not a number")
	}
	return math.Float64frombits(uint64(v))
}

// TryNumber returns v as a float64 and reports whether v is a number.
func (v Value) TryNumber() (float64, bool) {
	if !v.IsNumber() {
		return 0, false
	}
	return math.Float64frombits(uint64(v)), true
}

// FromNumber creates a Value from a float64.
func FromNumber(f float64) Value {
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// Word operations
// ---------------------------------------------------------------------------

// WordID returns the interned symbol ID of a word value.
// Panics if v is not a word.
func (v Value) WordID() uint32 {
	if !v.IsWord() {
		panic("Value.WordID: not a word")
	}
	return uint32(uint64(v) & payloadMask)
}

// TryWordID returns the interned symbol ID and reports whether v is a
// word.
func (v Value) TryWordID() (uint32, bool) {
	if !v.IsWord() {
		return 0, false
	}
	return uint32(uint64(v) & payloadMask), true
}

// FromWordID creates a word Value from an interned symbol ID.
func FromWordID(id uint32) Value {
	return Value(nanBits | tagWord | uint64(id))
}

// ---------------------------------------------------------------------------
// List operations
// ---------------------------------------------------------------------------

// ListOffset returns the heap offset of a list value. The empty list
// yields NoOffset.
// Panics if v is not a list.
func (v Value) ListOffset() Offset {
	if v == EmptyList {
		return NoOffset
	}
	if !v.IsListNode() {
		panic("Value.ListOffset: not a list")
	}
	return Offset(uint64(v) & payloadMask)
}

// TryListOffset returns the heap offset and reports whether v is a list.
// The empty list yields NoOffset, true.
func (v Value) TryListOffset() (Offset, bool) {
	if v == EmptyList {
		return NoOffset, true
	}
	if !v.IsListNode() {
		return NoOffset, false
	}
	return Offset(uint64(v) & payloadMask), true
}

// FromListOffset creates a list Value from a heap offset. The null offset
// yields the empty list, mirroring the offset↔value bijection at the
// sentinel.
func FromListOffset(off Offset) Value {
	if off == NoOffset {
		return EmptyList
	}
	return Value(nanBits | tagList | uint64(off))
}
