package dfa

import "testing"

func TestNewPosition(t *testing.T) {
	if _, err := newPosition(0, false); err == nil {
		t.Fatal("an error didn't occur for 0")
	}
	if _, err := newPosition(positionMax+1, true); err == nil {
		t.Fatal("an error didn't occur for a too-large value")
	}
	p, err := newPosition(positionMin, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.isEndMark() {
		t.Fatalf("a symbol position must not be an end mark: %v", p)
	}
	e, err := newPosition(positionMin, true)
	if err != nil {
		t.Fatal(err)
	}
	if !e.isEndMark() {
		t.Fatalf("an end-mark position must be an end mark: %v", e)
	}
	if p == e {
		t.Fatalf("positions with the same number must still differ by the end mark: %v, %v", p, e)
	}
}

func TestPositionSet_Normalize(t *testing.T) {
	p1, _ := newPosition(1, false)
	p2, _ := newPosition(2, false)
	p3, _ := newPosition(3, true)

	s := newPositionSet().add(p2).add(p1).add(p2).add(p3)
	ps := s.set()
	if len(ps) != 3 || ps[0] != p1 || ps[1] != p2 || ps[2] != p3 {
		t.Fatalf("unexpected normalized set: %v", s)
	}

	// The hash must not depend on insertion order.
	u := newPositionSet().add(p3).add(p2).merge(newPositionSet().add(p1).add(p1))
	if s.hash() != u.hash() {
		t.Fatalf("sets with the same elements must hash equally: %v, %v", s, u)
	}
	if s.hash() == newPositionSet().add(p1).add(p2).hash() {
		t.Fatal("sets with different elements must hash differently")
	}
}
