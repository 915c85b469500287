package pbvh

import "iter"

// Set is an insertion-ordered set with O(1) add, remove and lookup.
// Removal moves the last item into the freed position, so iteration order
// is deterministic for a given sequence of operations.
type Set[K comparable] struct {
	items []K
	index map[K]int
}

// NewSet creates a set with room for size items.
func NewSet[K comparable](size int) *Set[K] {
	return &Set[K]{
		items: make([]K, 0, size),
		index: make(map[K]int, size),
	}
}

// Len returns the number of items.
func (s *Set[K]) Len() int { return len(s.items) }

// Has reports whether k is in the set.
func (s *Set[K]) Has(k K) bool {
	_, ok := s.index[k]
	return ok
}

// Add inserts k and reports whether it was absent.
func (s *Set[K]) Add(k K) bool {
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, k)
	return true
}

// Remove deletes k and reports whether it was present.
func (s *Set[K]) Remove(k K) bool {
	i, ok := s.index[k]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if i != last {
		moved := s.items[last]
		s.items[i] = moved
		s.index[moved] = i
	}
	var zero K
	s.items[last] = zero
	s.items = s.items[:last]
	delete(s.index, k)
	return true
}

// Clear removes every item.
func (s *Set[K]) Clear() {
	clear(s.index)
	clear(s.items)
	s.items = s.items[:0]
}

// Items returns the backing slice. It must not be modified and is only
// valid until the next Add or Remove.
func (s *Set[K]) Items() []K { return s.items }

// Slice returns a copy of the items.
func (s *Set[K]) Slice() []K {
	out := make([]K, len(s.items))
	copy(out, s.items)
	return out
}

// All iterates a snapshot of the items, so the set may be modified while
// iterating.
func (s *Set[K]) All() iter.Seq[K] {
	snap := s.Slice()
	return func(yield func(K) bool) {
		for _, k := range snap {
			if !yield(k) {
				return
			}
		}
	}
}
