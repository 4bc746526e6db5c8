package index

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// Word is a catalog entry: a normalised word and every position it occupies
// across the indexed documents.
type Word struct {
	ID          int
	Text        string
	occurrences *OccurrenceDictionary
	total       int
}

// NewWord creates an empty entry. The text is lower-cased.
func NewWord(id int, text string) (*Word, error) {
	if text == "" {
		return nil, apperrors.InvalidArgument("word text must not be empty")
	}
	return &Word{
		ID:          id,
		Text:        strings.ToLower(text),
		occurrences: NewOccurrenceDictionary(),
	}, nil
}

// Occurrences exposes the per-document positions. Callers must not mutate
// the returned dictionary.
func (w *Word) Occurrences() *OccurrenceDictionary {
	return w.occurrences
}

// TotalOccurrences is the sum of all per-document set sizes.
func (w *Word) TotalOccurrences() int {
	return w.total
}

// AddOccurrence records a single position for docID and reports whether it
// was new.
func (w *Word) AddOccurrence(docID int, info BasicWordInfo) bool {
	w.occurrences.Add(docID)
	set, _ := w.occurrences.Get(docID)
	if !set.Add(info) {
		return false
	}
	w.total++
	return true
}

// BulkAddOccurrences merges positions into the set stored for docID and
// returns how many of them were new.
func (w *Word) BulkAddOccurrences(docID int, positions *SortedBasicWordInfoSet) int {
	if positions == nil || positions.Len() == 0 {
		return 0
	}
	existing, ok := w.occurrences.Get(docID)
	if !ok {
		w.occurrences.Set(docID, &SortedBasicWordInfoSet{items: positions.Items()})
		w.total += positions.Len()
		return positions.Len()
	}
	added := 0
	for info := range positions.All() {
		if existing.Add(info) {
			added++
		}
	}
	w.total += added
	return added
}

// RemoveOccurrences drops every position stored for docID and returns the
// removed positions as dump mappings.
func (w *Word) RemoveOccurrences(docID int) []DumpedWordMapping {
	removed := w.occurrences.RemoveExtended(docID, w.ID)
	w.total -= len(removed)
	return removed
}
