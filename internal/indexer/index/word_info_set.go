package index

import (
	"iter"
	"slices"
)

// SortedBasicWordInfoSet keeps unique BasicWordInfo values in ascending
// order.
type SortedBasicWordInfoSet struct {
	items []BasicWordInfo
}

func NewSortedBasicWordInfoSet(capacity int) *SortedBasicWordInfoSet {
	return &SortedBasicWordInfoSet{items: make([]BasicWordInfo, 0, capacity)}
}

func (s *SortedBasicWordInfoSet) search(info BasicWordInfo) (int, bool) {
	return slices.BinarySearchFunc(s.items, info, BasicWordInfo.Compare)
}

// Add inserts info and reports whether it was not already present.
func (s *SortedBasicWordInfoSet) Add(info BasicWordInfo) bool {
	pos, found := s.search(info)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, pos, info)
	return true
}

// Remove deletes info and reports whether it was present.
func (s *SortedBasicWordInfoSet) Remove(info BasicWordInfo) bool {
	pos, found := s.search(info)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, pos, pos+1)
	return true
}

func (s *SortedBasicWordInfoSet) Contains(info BasicWordInfo) bool {
	_, found := s.search(info)
	return found
}

// At returns the i-th element in sort order. It panics when i is out of
// range, like slice indexing.
func (s *SortedBasicWordInfoSet) At(i int) BasicWordInfo {
	return s.items[i]
}

func (s *SortedBasicWordInfoSet) Len() int {
	return len(s.items)
}

func (s *SortedBasicWordInfoSet) Clear() {
	s.items = s.items[:0]
}

// All iterates the set in ascending order.
func (s *SortedBasicWordInfoSet) All() iter.Seq[BasicWordInfo] {
	return slices.Values(s.items)
}

// Items returns a copy of the elements in ascending order.
func (s *SortedBasicWordInfoSet) Items() []BasicWordInfo {
	return slices.Clone(s.items)
}
