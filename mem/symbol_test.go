package mem

import "testing"

func TestInternIsIdempotent(t *testing.T) {
	st := NewSymbolTable()
	a := st.Intern("forward")
	b := st.Intern("forward")
	if a != b {
		t.Errorf("Intern returned %d then %d for the same word", a, b)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}

func TestInternNormalizesCase(t *testing.T) {
	st := NewSymbolTable()
	a := st.Intern("Forward")
	b := st.Intern("FORWARD")
	c := st.Intern("forward")
	if a != b || b != c {
		t.Error("case variants interned as different symbols")
	}
	if st.Name(a) != "FORWARD" {
		t.Errorf("Name = %q, want canonical %q", st.Name(a), "FORWARD")
	}
}

func TestLookupDoesNotIntern(t *testing.T) {
	st := NewSymbolTable()
	if _, ok := st.Lookup("absent"); ok {
		t.Error("Lookup found a word that was never interned")
	}
	if st.Len() != 0 {
		t.Error("Lookup interned a word")
	}

	id := st.Intern("present")
	got, ok := st.Lookup("PRESENT")
	if !ok || got != id {
		t.Errorf("Lookup = %d, %v; want %d, true", got, ok, id)
	}
}

func TestNameOfInvalidID(t *testing.T) {
	st := NewSymbolTable()
	if st.Name(99) != "" {
		t.Error("Name of an invalid ID should be empty")
	}
}

func TestAllReturnsIDOrder(t *testing.T) {
	st := NewSymbolTable()
	words := []string{"repeat", "forward", "right"}
	for _, w := range words {
		st.Intern(w)
	}

	all := st.All()
	want := []string{"REPEAT", "FORWARD", "RIGHT"}
	if len(all) != len(want) {
		t.Fatalf("All() length = %d, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, all[i], want[i])
		}
	}
}

func TestWordValue(t *testing.T) {
	st := NewSymbolTable()
	v := st.WordValue("home")
	if !v.IsWord() {
		t.Fatal("WordValue did not produce a word")
	}
	if st.Name(v.WordID()) != "HOME" {
		t.Errorf("round trip = %q, want HOME", st.Name(v.WordID()))
	}
}
