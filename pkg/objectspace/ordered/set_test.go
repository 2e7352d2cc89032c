package ordered

import "testing"

func TestSetAddPreservesInsertionOrder(t *testing.T) {
	s := NewSet[int]()
	s.Add(3)
	s.Add(1)
	s.Add(2)
	s.Add(1) // duplicate, no-op

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	first, ok := s.First()
	if !ok || first != 3 {
		t.Fatalf("First() = (%d, %v), want (3, true)", first, ok)
	}
	want := []int{3, 1, 2}
	got := s.All()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("All() = %v, want %v", got, want)
		}
	}
}

func TestSetRemove(t *testing.T) {
	s := NewSet[int]()
	s.Add(1)
	s.Add(2)
	s.Add(3)

	s.Remove(2)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got := s.All()
	want := []int{1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("All() = %v, want %v", got, want)
		}
	}

	s.Remove(99) // no-op
	if s.Len() != 2 {
		t.Fatalf("Len() after removing absent member = %d, want 2", s.Len())
	}
}

func TestSetFirstEmpty(t *testing.T) {
	s := NewSet[int]()
	if _, ok := s.First(); ok {
		t.Fatalf("First() on empty set ok = true, want false")
	}
}
