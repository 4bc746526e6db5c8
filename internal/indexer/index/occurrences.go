package index

import (
	"maps"
	"slices"
)

// OccurrenceDictionary maps a document ID to the positions a word occupies
// in that document.
type OccurrenceDictionary struct {
	sets map[int]*SortedBasicWordInfoSet
}

func NewOccurrenceDictionary() *OccurrenceDictionary {
	return &OccurrenceDictionary{sets: make(map[int]*SortedBasicWordInfoSet)}
}

// Len returns the number of documents with at least one entry.
func (d *OccurrenceDictionary) Len() int {
	return len(d.sets)
}

// Add registers docID with an empty set. It returns false and leaves the
// existing set untouched when docID is already present.
func (d *OccurrenceDictionary) Add(docID int) bool {
	if _, ok := d.sets[docID]; ok {
		return false
	}
	d.sets[docID] = NewSortedBasicWordInfoSet(4)
	return true
}

// Set replaces the positions stored for docID.
func (d *OccurrenceDictionary) Set(docID int, set *SortedBasicWordInfoSet) {
	d.sets[docID] = set
}

// Get returns the positions stored for docID.
func (d *OccurrenceDictionary) Get(docID int) (*SortedBasicWordInfoSet, bool) {
	set, ok := d.sets[docID]
	return set, ok
}

func (d *OccurrenceDictionary) Contains(docID int) bool {
	_, ok := d.sets[docID]
	return ok
}

// Remove drops docID and reports whether it was present.
func (d *OccurrenceDictionary) Remove(docID int) bool {
	if _, ok := d.sets[docID]; !ok {
		return false
	}
	delete(d.sets, docID)
	return true
}

// RemoveExtended drops docID and returns one mapping per removed position,
// attributed to wordID.
func (d *OccurrenceDictionary) RemoveExtended(docID, wordID int) []DumpedWordMapping {
	set, ok := d.sets[docID]
	if !ok {
		return nil
	}
	delete(d.sets, docID)
	mappings := make([]DumpedWordMapping, 0, set.Len())
	for info := range set.All() {
		mappings = append(mappings, NewDumpedWordMapping(wordID, docID, info))
	}
	return mappings
}

// DocumentIDs returns the keys in ascending order.
func (d *OccurrenceDictionary) DocumentIDs() []int {
	return slices.Sorted(maps.Keys(d.sets))
}

// Count returns the total number of positions over all documents.
func (d *OccurrenceDictionary) Count() int {
	total := 0
	for _, set := range d.sets {
		total += set.Len()
	}
	return total
}

// Clone returns a deep copy.
func (d *OccurrenceDictionary) Clone() *OccurrenceDictionary {
	out := &OccurrenceDictionary{sets: make(map[int]*SortedBasicWordInfoSet, len(d.sets))}
	for docID, set := range d.sets {
		out.sets[docID] = &SortedBasicWordInfoSet{items: set.Items()}
	}
	return out
}
