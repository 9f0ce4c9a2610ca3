// Package idset provides a small ordered-key set used for genome IDs, tags
// and taxonomic grouping IDs.
package idset

import (
	"cmp"
	"maps"
	"slices"
)

// Set is an unordered collection of unique values. The zero value is not
// usable; create sets with New or Of.
type Set[T cmp.Ordered] map[T]struct{}

// New returns an empty set with room for n elements.
func New[T cmp.Ordered](n int) Set[T] {
	return make(Set[T], n)
}

// Of returns a set holding the given values.
func Of[T cmp.Ordered](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was new.
func (s Set[T]) Add(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Remove deletes v from the set.
func (s Set[T]) Remove(v T) {
	delete(s, v)
}

// Len returns the number of elements.
func (s Set[T]) Len() int {
	return len(s)
}

// Sorted returns the elements in ascending order.
func (s Set[T]) Sorted() []T {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy of the set.
func (s Set[T]) Clone() Set[T] {
	return maps.Clone(s)
}

// Equal reports whether both sets hold exactly the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}
