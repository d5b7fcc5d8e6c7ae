package mem

// ---------------------------------------------------------------------------
// Globals: the global variable table (MAKE at top level)
// ---------------------------------------------------------------------------

// Globals holds top-level variable bindings. Like the property store it
// is workspace-scoped and a collection root; unlike frame slots its
// bindings never die with a call.
type Globals struct {
	values map[string]Value
	names  []string // insertion order, for stable enumeration
}

// NewGlobals creates an empty global variable table.
func NewGlobals() *Globals {
	return &Globals{values: make(map[string]Value)}
}

// Set binds name to v, creating the binding if needed.
func (g *Globals) Set(name string, v Value) {
	name = Normalize(name)
	if _, ok := g.values[name]; !ok {
		g.names = append(g.names, name)
	}
	g.values[name] = v
}

// Get returns the binding for name, or found=false if unbound.
func (g *Globals) Get(name string) (Value, bool) {
	v, ok := g.values[Normalize(name)]
	if !ok {
		return Nothing, false
	}
	return v, true
}

// Unset removes the binding for name, if any.
func (g *Globals) Unset(name string) {
	name = Normalize(name)
	if _, ok := g.values[name]; !ok {
		return
	}
	delete(g.values, name)
	for i, n := range g.names {
		if n == name {
			g.names = append(g.names[:i], g.names[i+1:]...)
			break
		}
	}
}

// Count returns the number of bindings.
func (g *Globals) Count() int {
	return len(g.names)
}

// NameByIndex returns the i-th bound name in creation order.
func (g *Globals) NameByIndex(i int) string {
	if i < 0 || i >= len(g.names) {
		return ""
	}
	return g.names[i]
}

// EraseAll drops every binding. Used only on workspace reset.
func (g *Globals) EraseAll() {
	g.values = make(map[string]Value)
	g.names = nil
}

// MarkRoots implements Root.
func (g *Globals) MarkRoots(m Marker) {
	for _, name := range g.names {
		m.MarkValue(g.values[name])
	}
}
