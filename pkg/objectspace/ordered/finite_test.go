package ordered

import (
	"math"
	"testing"
)

func TestNewFiniteRejectsNaN(t *testing.T) {
	if _, err := NewFinite(math.NaN()); err != ErrNotFinite {
		t.Fatalf("NewFinite(NaN) err = %v, want ErrNotFinite", err)
	}
	if _, err := NewFinite(math.Inf(1)); err != ErrNotFinite {
		t.Fatalf("NewFinite(+Inf) err = %v, want ErrNotFinite", err)
	}
}

func TestFiniteLess(t *testing.T) {
	a, _ := NewFinite(1.5)
	b, _ := NewFinite(2.5)
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("Less ordering broken for %v, %v", a, b)
	}
}
