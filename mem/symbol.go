package mem

import (
	"strings"
	"sync"
)

// Normalize case-folds a word the way the reader does: Tortuga, like every
// Logo, is case-insensitive, and the canonical spelling is upper case.
func Normalize(name string) string {
	return strings.ToUpper(name)
}

// ---------------------------------------------------------------------------
// SymbolTable: Interned words
// ---------------------------------------------------------------------------

// SymbolTable interns word strings to unique IDs. Words are interned in
// normalized form, so MYPROP, MyProp and myprop are the same symbol.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]uint32 // normalized name -> ID
	byID   []string          // ID -> normalized name
}

// NewSymbolTable creates a new empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]uint32),
		byID:   make([]string, 0, 256),
	}
}

// Intern returns the ID for a word, creating a new one if needed.
func (st *SymbolTable) Intern(name string) uint32 {
	name = Normalize(name)

	// Fast path: read-only lookup
	st.mu.RLock()
	if id, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	// Slow path: need to add a new symbol
	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := st.byName[name]; ok {
		return id
	}

	id := uint32(len(st.byID))
	st.byName[name] = id
	st.byID = append(st.byID, name)
	return id
}

// Lookup returns the ID for a word, or 0 and false if not interned.
func (st *SymbolTable) Lookup(name string) (uint32, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byName[Normalize(name)]
	return id, ok
}

// Name returns the normalized word for an ID, or "" if invalid.
func (st *SymbolTable) Name(id uint32) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if int(id) >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Len returns the number of interned words.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}

// All returns all interned words in ID order.
func (st *SymbolTable) All() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make([]string, len(st.byID))
	copy(result, st.byID)
	return result
}

// WordValue creates a word Value from a name, interning it if needed.
func (st *SymbolTable) WordValue(name string) Value {
	return FromWordID(st.Intern(name))
}
