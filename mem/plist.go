package mem

// ---------------------------------------------------------------------------
// PropertyStore: named property lists (PPROP / GPROP / REMPROP / PLIST)
// ---------------------------------------------------------------------------

// PropertyPair is one (property, value) binding in a property list.
// The property name is normalized; the value is shared with the value
// heap and traced through the root contract.
type PropertyPair struct {
	Prop  string
	Value Value
}

// plistEntry owns the ordered pair sequence for one name. Pairs keep
// insertion order, which is the order PLIST exposes to the language.
type plistEntry struct {
	pairs []PropertyPair
}

// PropertyStore maps a word to an ordered list of (property, value)
// pairs. It lives independently of call frames: a property value set deep
// inside a procedure outlives the call that set it. The store exclusively
// owns the entry and pair structure; the values inside pairs belong to
// the value heap and are kept alive only by root marking.
//
// Lifecycle is tied to the workspace: entries appear on first Put for a
// name and vanish only on EraseAll. An entry whose last pair was removed
// stays in place, so "exists but empty" remains distinguishable from
// "never created".
type PropertyStore struct {
	entries map[string]*plistEntry
	names   []string // insertion order, for stable enumeration
}

// NewPropertyStore creates an empty property store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{
		entries: make(map[string]*plistEntry),
	}
}

// Put binds prop to v on name's property list. If the property is already
// bound its value is overwritten in place, keeping its position in the
// list; otherwise the pair is appended.
func (ps *PropertyStore) Put(name, prop string, v Value) {
	name = Normalize(name)
	prop = Normalize(prop)

	e, ok := ps.entries[name]
	if !ok {
		e = &plistEntry{}
		ps.entries[name] = e
		ps.names = append(ps.names, name)
	}

	for i := range e.pairs {
		if e.pairs[i].Prop == prop {
			e.pairs[i].Value = v
			return
		}
	}
	e.pairs = append(e.pairs, PropertyPair{Prop: prop, Value: v})
}

// Get returns the value bound to prop on name's property list. A miss is
// not an error: found is false and the caller supplies its own default
// (GPROP answers the empty list).
func (ps *PropertyStore) Get(name, prop string) (Value, bool) {
	e, ok := ps.entries[Normalize(name)]
	if !ok {
		return Nothing, false
	}
	prop = Normalize(prop)
	for i := range e.pairs {
		if e.pairs[i].Prop == prop {
			return e.pairs[i].Value, true
		}
	}
	return Nothing, false
}

// Remove deletes the pair for prop from name's property list, preserving
// the relative order of the remaining pairs. Removing the last pair does
// not delete the entry.
func (ps *PropertyStore) Remove(name, prop string) {
	e, ok := ps.entries[Normalize(name)]
	if !ok {
		return
	}
	prop = Normalize(prop)
	for i := range e.pairs {
		if e.pairs[i].Prop == prop {
			e.pairs = append(e.pairs[:i], e.pairs[i+1:]...)
			return
		}
	}
}

// Has reports whether name has an entry, whether or not any pairs remain
// on it.
func (ps *PropertyStore) Has(name string) bool {
	_, ok := ps.entries[Normalize(name)]
	return ok
}

// Pairs returns a copy of name's pairs in stored order, or nil if name
// has no entry. The copy keeps the store's internal structure private;
// the values inside are still shared heap references.
func (ps *PropertyStore) Pairs(name string) []PropertyPair {
	e, ok := ps.entries[Normalize(name)]
	if !ok {
		return nil
	}
	out := make([]PropertyPair, len(e.pairs))
	copy(out, e.pairs)
	return out
}

// PairCount returns the number of pairs on name's property list.
func (ps *PropertyStore) PairCount(name string) int {
	e, ok := ps.entries[Normalize(name)]
	if !ok {
		return 0
	}
	return len(e.pairs)
}

// EraseAll drops every entry. Used only on workspace reset.
func (ps *PropertyStore) EraseAll() {
	ps.entries = make(map[string]*plistEntry)
	ps.names = nil
}

// NameCount returns the number of names holding entries.
func (ps *PropertyStore) NameCount() int {
	return len(ps.names)
}

// NameByIndex returns the i-th name in creation order. The enumeration is
// stable between mutations; diagnostics that interleave mutation with
// iteration get no ordering guarantee.
func (ps *PropertyStore) NameByIndex(i int) string {
	if i < 0 || i >= len(ps.names) {
		return ""
	}
	return ps.names[i]
}

// MarkRoots implements Root: every value in every pair of every entry is
// reported live, exactly once per collection, without touching the
// store's own structure.
func (ps *PropertyStore) MarkRoots(m Marker) {
	for _, name := range ps.names {
		e := ps.entries[name]
		for i := range e.pairs {
			m.MarkValue(e.pairs[i].Value)
		}
	}
}
