package ordered

import "testing"

func lessInt(a, b int) bool { return a < b }

func TestMapUpsertAscendingOrder(t *testing.T) {
	m := NewMap[int, string](lessInt)
	m.Upsert(5, "five")
	m.Upsert(1, "one")
	m.Upsert(3, "three")

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	k, v, ok := m.First()
	if !ok || k != 1 || v != "one" {
		t.Fatalf("First() = (%d, %q, %v), want (1, one, true)", k, v, ok)
	}

	var order []int
	m.Ascend(0, func(int) bool { return true }, func(k int, _ string) { order = append(order, k) })
	want := []int{1, 3, 5}
	for i, k := range want {
		if order[i] != k {
			t.Fatalf("Ascend order = %v, want %v", order, want)
		}
	}
}

func TestMapUpsertOverwrite(t *testing.T) {
	m := NewMap[int, string](lessInt)
	m.Upsert(1, "one")
	m.Upsert(1, "uno")

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	v, ok := m.Get(1)
	if !ok || v != "uno" {
		t.Fatalf("Get(1) = (%q, %v), want (uno, true)", v, ok)
	}
}

func TestMapDelete(t *testing.T) {
	m := NewMap[int, string](lessInt)
	m.Upsert(1, "one")
	m.Upsert(2, "two")
	m.Upsert(3, "three")

	m.Delete(2)
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if _, ok := m.Get(2); ok {
		t.Fatalf("Get(2) ok after delete, want false")
	}
	v, ok := m.Get(3)
	if !ok || v != "three" {
		t.Fatalf("Get(3) = (%q, %v) after deleting 2, want (three, true)", v, ok)
	}

	m.Delete(42) // no-op on absent key
	if m.Len() != 2 {
		t.Fatalf("Len() after deleting absent key = %d, want 2", m.Len())
	}
}

func TestMapLowerBoundIndexAndAscend(t *testing.T) {
	m := NewMap[int, string](lessInt)
	for _, k := range []int{10, 20, 30, 40, 50} {
		m.Upsert(k, "")
	}

	from := m.LowerBoundIndex(func(k int) bool { return k >= 25 })
	var got []int
	m.Ascend(from, func(k int) bool { return k < 45 }, func(k int, _ string) { got = append(got, k) })

	want := []int{30, 40}
	if len(got) != len(want) {
		t.Fatalf("Ascend = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ascend = %v, want %v", got, want)
		}
	}
}
