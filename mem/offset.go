// Package mem implements the memory substrate of the Tortuga interpreter:
// a word-addressed LIFO frame arena for procedure activation records, a
// cons-cell value heap with a mark-sweep collector, and the symbol,
// property-list, and global-variable stores that act as collection roots.
//
// All cross-structure links are 16-bit word offsets rather than native
// pointers. Offsets are dense (2 bytes to persist instead of 8), stable
// for the lifetime of the arena, and keep the whole region relocatable
// as a single block.
package mem

// WordSize is the size of one arena word in bytes.
const WordSize = 4

// ValueWords is the number of arena words one Value occupies.
const ValueWords = 2

// Offset is a 16-bit index into a word arena or node heap, counted in
// 4-byte words. It is the only form in which cross-structure references
// are stored; conversion to a usable pointer happens at the point of
// dereference and the result must never be kept across an operation that
// can change arena contents.
type Offset uint16

// NoOffset is the reserved null offset. It denotes "no object" wherever
// an Offset is stored.
const NoOffset Offset = 0xFFFF

// IsNone reports whether o is the null offset.
func (o Offset) IsNone() bool { return o == NoOffset }
