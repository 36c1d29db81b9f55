package atom

import "testing"

func assertTrue(t *testing.T, see bool) {
	t.Helper()
	if !see {
		t.Fatalf("expected true, saw false")
	}
}

func assertEqual(t *testing.T, a, b int) {
	t.Helper()
	if a != b {
		t.Fatalf("expected %d == %d", a, b)
	}
}

func TestInternPointerEquality(t *testing.T) {
	in := NewInterner()
	a1 := in.Intern("foo.c,v")
	a2 := in.Intern("foo.c,v")
	assertTrue(t, a1 == a2)
	assertEqual(t, in.Len(), 1)

	b := in.Intern("bar.c,v")
	assertTrue(t, a1 != b)
	assertEqual(t, in.Len(), 2)
}

func TestLookupDoesNotCreate(t *testing.T) {
	in := NewInterner()
	_, ok := in.Lookup("nope")
	assertTrue(t, !ok)
	assertEqual(t, in.Len(), 0)
}

func TestBloomSelfOverlap(t *testing.T) {
	in := NewInterner()
	a := in.Intern("src/foo.c,v")
	assertTrue(t, a.Bloom().Overlaps(a.Bloom()))
}

func TestBloomUnionSubsumes(t *testing.T) {
	in := NewInterner()
	a := in.Intern("a,v")
	b := in.Intern("b,v")
	u := a.Bloom().Union(b.Bloom())
	assertTrue(t, u.Overlaps(a.Bloom()))
	assertTrue(t, u.Overlaps(b.Bloom()))
}

func TestNilAtomIsSafe(t *testing.T) {
	var a *Atom
	assertEqual(t, len(a.String()), 0)
	assertTrue(t, a.Bloom() == Bloom{})
}
