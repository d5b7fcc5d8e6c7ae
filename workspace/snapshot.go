// Package workspace persists and restores the interpreter's workspace:
// property lists and global variable bindings. Snapshots externalize heap
// values symbolically (numbers, word text, nested list trees), so they
// are independent of arena layout and survive any resize of the memory
// region. The memory structures themselves are never persisted; a
// snapshot is rebuilt state, not a memory image.
package workspace

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tortugalang/tortuga/mem"
)

// Snapshot envelope identification.
const (
	SnapshotFormat          = "tortuga-workspace"
	SnapshotVersion  uint32 = 1
)

// ErrCyclicValue is returned when a workspace value contains a cycle.
// Cyclic list structure has no finite external form.
var ErrCyclicValue = errors.New("workspace: cannot snapshot cyclic list structure")

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("workspace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// DatumKind identifies the external form of a value.
type DatumKind uint8

const (
	DatumNothing DatumKind = 0
	DatumNumber  DatumKind = 1
	DatumWord    DatumKind = 2
	DatumList    DatumKind = 3
)

// Datum is the arena-independent external form of one mem.Value. Exactly
// one payload field is meaningful, selected by Kind; the empty list is a
// DatumList with no elements.
type Datum struct {
	Kind   DatumKind `cbor:"1,keyasint"`
	Number float64   `cbor:"2,keyasint,omitempty"`
	Word   string    `cbor:"3,keyasint,omitempty"`
	List   []Datum   `cbor:"4,keyasint,omitempty"`
}

// PairSnapshot is one (property, value) binding.
type PairSnapshot struct {
	Prop  string `cbor:"1,keyasint"`
	Value Datum  `cbor:"2,keyasint"`
}

// PropertySnapshot is one name's property list. An entry with no pairs is
// preserved: "exists but empty" is workspace state too.
type PropertySnapshot struct {
	Name  string         `cbor:"1,keyasint"`
	Pairs []PairSnapshot `cbor:"2,keyasint,omitempty"`
}

// GlobalSnapshot is one global variable binding.
type GlobalSnapshot struct {
	Name  string `cbor:"1,keyasint"`
	Value Datum  `cbor:"2,keyasint"`
}

// Snapshot is the complete persisted workspace.
type Snapshot struct {
	Format     string             `cbor:"1,keyasint"`
	Version    uint32             `cbor:"2,keyasint"`
	SavedAt    time.Time          `cbor:"3,keyasint"`
	Properties []PropertySnapshot `cbor:"4,keyasint,omitempty"`
	Globals    []GlobalSnapshot   `cbor:"5,keyasint,omitempty"`
}

// ---------------------------------------------------------------------------
// Capture: Memory -> Snapshot
// ---------------------------------------------------------------------------

// Capture externalizes the workspace state of m: every property entry
// (in creation order, empty ones included) and every global binding.
func Capture(m *mem.Memory) (*Snapshot, error) {
	s := &Snapshot{
		Format:  SnapshotFormat,
		Version: SnapshotVersion,
		SavedAt: time.Now().UTC(),
	}

	for i := 0; i < m.Properties.NameCount(); i++ {
		name := m.Properties.NameByIndex(i)
		ent := PropertySnapshot{Name: name}
		for _, p := range m.Properties.Pairs(name) {
			d, err := externalize(m, p.Value, map[mem.Offset]bool{})
			if err != nil {
				return nil, fmt.Errorf("property %s of %s: %w", p.Prop, name, err)
			}
			ent.Pairs = append(ent.Pairs, PairSnapshot{Prop: p.Prop, Value: d})
		}
		s.Properties = append(s.Properties, ent)
	}

	for i := 0; i < m.Globals.Count(); i++ {
		name := m.Globals.NameByIndex(i)
		v, _ := m.Globals.Get(name)
		d, err := externalize(m, v, map[mem.Offset]bool{})
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
		s.Globals = append(s.Globals, GlobalSnapshot{Name: name, Value: d})
	}

	return s, nil
}

// externalize converts one value to its external form. path holds the
// list nodes on the current descent so a cycle is caught rather than
// recursed into; shared acyclic structure is simply duplicated.
func externalize(m *mem.Memory, v mem.Value, path map[mem.Offset]bool) (Datum, error) {
	switch {
	case v.IsNumber():
		return Datum{Kind: DatumNumber, Number: v.Number()}, nil

	case v.IsWord():
		return Datum{Kind: DatumWord, Word: m.Symbols.Name(v.WordID())}, nil

	case v.IsList():
		d := Datum{Kind: DatumList}
		var spine []mem.Offset
		for off := v.ListOffset(); off != mem.NoOffset; off = m.Heap.Cdr(off) {
			if path[off] {
				return Datum{}, ErrCyclicValue
			}
			path[off] = true
			spine = append(spine, off)

			elem, err := externalize(m, m.Heap.Car(off), path)
			if err != nil {
				return Datum{}, err
			}
			d.List = append(d.List, elem)
		}
		for _, off := range spine {
			delete(path, off)
		}
		return d, nil

	default:
		return Datum{Kind: DatumNothing}, nil
	}
}

// ---------------------------------------------------------------------------
// Restore: Snapshot -> Memory
// ---------------------------------------------------------------------------

// Restore rebuilds the snapshot's workspace inside m, replacing whatever
// property lists and globals m currently holds. Heap exhaustion surfaces
// as mem.ErrNoMemory; the workspace is left erased in that case rather
// than half-restored.
func (s *Snapshot) Restore(m *mem.Memory) error {
	if s.Format != SnapshotFormat {
		return fmt.Errorf("workspace: not a workspace snapshot (format %q)", s.Format)
	}
	if s.Version > SnapshotVersion {
		return fmt.Errorf("workspace: snapshot version %d is newer than supported %d", s.Version, SnapshotVersion)
	}

	m.EraseWorkspace()

	// Half-built structure is not reachable from any store yet; a
	// transient root keeps a collection triggered mid-restore from
	// sweeping it.
	hold := &holdRoot{}
	m.AddRoot(hold)
	defer m.RemoveRoot(hold)

	for _, ent := range s.Properties {
		if len(ent.Pairs) == 0 {
			// Recreate the empty entry: put-then-remove is the only way
			// in, since entries are never created without a pair.
			m.Properties.Put(ent.Name, "", mem.Nothing)
			m.Properties.Remove(ent.Name, "")
			continue
		}
		for _, p := range ent.Pairs {
			v, err := internalize(m, p.Value, hold)
			if err != nil {
				m.EraseWorkspace()
				return err
			}
			m.Properties.Put(ent.Name, p.Prop, v)
		}
	}

	for _, g := range s.Globals {
		v, err := internalize(m, g.Value, hold)
		if err != nil {
			m.EraseWorkspace()
			return err
		}
		m.Globals.Set(g.Name, v)
	}

	return nil
}

// holdRoot is the transient root for values in flight during a restore.
type holdRoot struct {
	values []mem.Value
}

func (h *holdRoot) MarkRoots(m mem.Marker) {
	for _, v := range h.values {
		m.MarkValue(v)
	}
}

// internalize rebuilds one value inside m. Every built sublist is parked
// on hold until the whole restore finishes, since siblings built later
// can trigger a collection.
func internalize(m *mem.Memory, d Datum, hold *holdRoot) (mem.Value, error) {
	switch d.Kind {
	case DatumNumber:
		return mem.FromNumber(d.Number), nil

	case DatumWord:
		return m.Word(d.Word), nil

	case DatumList:
		elems := make([]mem.Value, len(d.List))
		for i, child := range d.List {
			v, err := internalize(m, child, hold)
			if err != nil {
				return mem.Nothing, err
			}
			elems[i] = v
		}
		v, err := m.List(elems...)
		if err != nil {
			return mem.Nothing, err
		}
		hold.values = append(hold.values, v)
		return v, nil

	default:
		return mem.Nothing, nil
	}
}

// ---------------------------------------------------------------------------
// Wire encoding
// ---------------------------------------------------------------------------

// Marshal serializes a Snapshot to CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes and validates the
// envelope.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("workspace: unmarshal snapshot: %w", err)
	}
	if s.Format != SnapshotFormat {
		return nil, fmt.Errorf("workspace: not a workspace snapshot (format %q)", s.Format)
	}
	return &s, nil
}
