package idset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSet_AddIsIdempotent(t *testing.T) {
	s := New[string](2)
	if !s.Add("a") {
		t.Fatal("first Add should report a new element")
	}
	if s.Add("a") {
		t.Fatal("second Add should report an existing element")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestSet_SortedAndEqual(t *testing.T) {
	s := Of(3, 1, 2)
	if diff := cmp.Diff([]int{1, 2, 3}, s.Sorted()); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
	c := s.Clone()
	c.Remove(2)
	if s.Equal(c) {
		t.Error("clone should be independent of the original")
	}
	if !s.Has(2) {
		t.Error("original lost an element after clone mutation")
	}
	if !Of(1, 3).Equal(c) {
		t.Errorf("clone = %v, want {1, 3}", c.Sorted())
	}
}
