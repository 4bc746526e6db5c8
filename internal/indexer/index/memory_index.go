package index

import (
	"cmp"
	"maps"
	"slices"
)

type documentEntry struct {
	doc    Document
	dumpID int
	words  []string
}

// MemoryIndex is the word and document catalog of an inverted index. It is
// not safe for concurrent use; the indexer engine serialises access.
//
// New words get negative temporary IDs until a store assigns them a
// permanent one or AssignLocalIDs numbers them locally. Positive IDs are
// unique across the catalog.
type MemoryIndex struct {
	words       map[string]*Word
	wordsByID   map[int]*Word
	documents   map[int]*documentEntry
	occurrences int
	nextWordID  int
	nextTempID  int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		words:      make(map[string]*Word),
		wordsByID:  make(map[int]*Word),
		documents:  make(map[int]*documentEntry),
		nextWordID: 1,
		nextTempID: -1,
	}
}

// AddDocument merges the positions of every word of doc into the catalog.
// positions is keyed by normalised word text. It returns the delta for
// change listeners and the number of distinct words inserted or updated.
// The delta's words are the new ones plus any referenced word that still
// has a temporary ID.
func (m *MemoryIndex) AddDocument(doc Document, positions map[string]*SortedBasicWordInfoSet) (DumpedChange, int) {
	entry, ok := m.documents[doc.ID()]
	if !ok {
		entry = &documentEntry{doc: doc, dumpID: doc.ID()}
		m.documents[doc.ID()] = entry
	}
	entry.doc = doc

	dumped := NewDumpedDocument(doc)
	dumped.ID = entry.dumpID
	change := DumpedChange{Document: dumped}

	updated := 0
	for _, text := range slices.Sorted(maps.Keys(positions)) {
		set := positions[text]
		if set == nil || set.Len() == 0 {
			continue
		}
		word, exists := m.words[text]
		if !exists {
			word = &Word{ID: m.nextTempID, Text: text, occurrences: NewOccurrenceDictionary()}
			m.nextTempID--
			m.words[text] = word
		}
		if word.ID < 0 {
			change.Words = append(change.Words, NewDumpedWord(word))
		}
		if !word.occurrences.Contains(doc.ID()) {
			entry.words = append(entry.words, text)
		}
		added := word.BulkAddOccurrences(doc.ID(), set)
		if added == 0 {
			continue
		}
		m.occurrences += added
		updated++
		for info := range set.All() {
			change.Mappings = append(change.Mappings, NewDumpedWordMapping(word.ID, entry.dumpID, info))
		}
	}
	return change, updated
}

// RemoveDocument drops every occurrence of the document with the given ID,
// pruning words left without occurrences. ok is false when the document is
// not indexed.
func (m *MemoryIndex) RemoveDocument(docID int) (doc Document, change DumpedChange, ok bool) {
	entry, found := m.documents[docID]
	if !found {
		return nil, DumpedChange{}, false
	}
	delete(m.documents, docID)

	dumped := NewDumpedDocument(entry.doc)
	dumped.ID = entry.dumpID
	change.Document = dumped
	for _, text := range entry.words {
		word, exists := m.words[text]
		if !exists {
			continue
		}
		removed := word.RemoveOccurrences(docID)
		m.occurrences -= len(removed)
		for i := range removed {
			removed[i].DocumentID = entry.dumpID
		}
		change.Mappings = append(change.Mappings, removed...)
		if word.TotalOccurrences() == 0 {
			delete(m.words, text)
			delete(m.wordsByID, word.ID)
			change.Words = append(change.Words, NewDumpedWord(word))
		}
	}
	return entry.doc, change, true
}

// Reset empties the catalog.
func (m *MemoryIndex) Reset() {
	m.words = make(map[string]*Word)
	m.wordsByID = make(map[int]*Word)
	m.documents = make(map[int]*documentEntry)
	m.occurrences = 0
	m.nextWordID = 1
	m.nextTempID = -1
}

// LoadStats reports what Load kept and dropped.
type LoadStats struct {
	Documents       int
	Words           int
	Mappings        int
	SkippedMappings int
}

// Load replaces the catalog with a dump. docs maps each dumped document ID
// to its resolved live document; mappings that reference unresolved
// documents, unknown words or invalid positions are skipped.
func (m *MemoryIndex) Load(docs map[int]Document, words []DumpedWord, mappings []DumpedWordMapping) LoadStats {
	m.Reset()
	var stats LoadStats

	for _, dumpID := range slices.Sorted(maps.Keys(docs)) {
		doc := docs[dumpID]
		m.documents[doc.ID()] = &documentEntry{doc: doc, dumpID: dumpID}
	}

	byID := make(map[int]*Word, len(words))
	byText := make(map[string]*Word, len(words))
	for _, dw := range words {
		if dw.Validate() != nil {
			continue
		}
		w, ok := byText[dw.Text]
		if !ok {
			w = &Word{ID: dw.ID, Text: dw.Text, occurrences: NewOccurrenceDictionary()}
			byText[dw.Text] = w
		}
		byID[dw.ID] = w
		if dw.ID >= m.nextWordID {
			m.nextWordID = dw.ID + 1
		}
		if dw.ID <= m.nextTempID {
			m.nextTempID = dw.ID - 1
		}
	}

	for _, mapping := range mappings {
		doc, ok := docs[mapping.DocumentID]
		if !ok {
			stats.SkippedMappings++
			continue
		}
		word, ok := byID[mapping.WordID]
		if !ok {
			stats.SkippedMappings++
			continue
		}
		info, err := mapping.BasicWordInfo()
		if err != nil {
			stats.SkippedMappings++
			continue
		}
		entry := m.documents[doc.ID()]
		if !word.occurrences.Contains(doc.ID()) {
			entry.words = append(entry.words, word.Text)
		}
		if word.AddOccurrence(doc.ID(), info) {
			m.occurrences++
			stats.Mappings++
		}
	}

	for text, w := range byText {
		if w.TotalOccurrences() > 0 {
			m.words[text] = w
			if w.ID > 0 {
				m.wordsByID[w.ID] = w
			}
		}
	}
	stats.Documents = len(m.documents)
	stats.Words = len(m.words)
	return stats
}

// Word returns the catalog entry for an already normalised text.
func (m *MemoryIndex) Word(text string) (*Word, bool) {
	w, ok := m.words[text]
	return w, ok
}

// Document returns the indexed document with the given ID.
func (m *MemoryIndex) Document(docID int) (Document, bool) {
	entry, ok := m.documents[docID]
	if !ok {
		return nil, false
	}
	return entry.doc, true
}

// DumpID returns the ID used for the document in dump records.
func (m *MemoryIndex) DumpID(docID int) (int, bool) {
	entry, ok := m.documents[docID]
	if !ok {
		return 0, false
	}
	return entry.dumpID, true
}

// AssignDocumentDumpID records the ID an external store gave the document.
func (m *MemoryIndex) AssignDocumentDumpID(docID, dumpID int) bool {
	entry, ok := m.documents[docID]
	if !ok {
		return false
	}
	entry.dumpID = dumpID
	return true
}

// MarkUnstored gives the document a negative dump ID, -docID, so that
// records of a document no store has accepted never match a stored row.
func (m *MemoryIndex) MarkUnstored(docID int) bool {
	entry, ok := m.documents[docID]
	if !ok {
		return false
	}
	entry.dumpID = -docID
	return true
}

// AssignWordID records the permanent ID an external store gave a word. It
// fails when id is not positive or already belongs to another word.
func (m *MemoryIndex) AssignWordID(text string, id int) bool {
	w, ok := m.words[text]
	if !ok || id <= 0 {
		return false
	}
	if owner, taken := m.wordsByID[id]; taken && owner != w {
		return false
	}
	if w.ID > 0 {
		delete(m.wordsByID, w.ID)
	}
	w.ID = id
	m.wordsByID[id] = w
	if id >= m.nextWordID {
		m.nextWordID = id + 1
	}
	return true
}

// AssignLocalIDs numbers every temporary word of the document from the
// local sequence. It is used when no store assigns IDs.
func (m *MemoryIndex) AssignLocalIDs(docID int) {
	entry, ok := m.documents[docID]
	if !ok {
		return
	}
	for _, text := range entry.words {
		w, ok := m.words[text]
		if !ok || w.ID > 0 {
			continue
		}
		for m.wordsByID[m.nextWordID] != nil {
			m.nextWordID++
		}
		w.ID = m.nextWordID
		m.wordsByID[w.ID] = w
		m.nextWordID++
	}
}

func (m *MemoryIndex) TotalDocuments() int {
	return len(m.documents)
}

func (m *MemoryIndex) TotalWords() int {
	return len(m.words)
}

func (m *MemoryIndex) TotalOccurrences() int {
	return m.occurrences
}

// Dump returns a flat image of the catalog sorted by IDs.
func (m *MemoryIndex) Dump() Dump {
	out := Dump{
		Documents: make([]DumpedDocument, 0, len(m.documents)),
		Words:     make([]DumpedWord, 0, len(m.words)),
		Mappings:  make([]DumpedWordMapping, 0, m.occurrences),
	}
	for _, entry := range m.documents {
		d := NewDumpedDocument(entry.doc)
		d.ID = entry.dumpID
		out.Documents = append(out.Documents, d)
	}
	for _, w := range m.words {
		out.Words = append(out.Words, NewDumpedWord(w))
		for _, docID := range w.occurrences.DocumentIDs() {
			set, _ := w.occurrences.Get(docID)
			dumpID := m.documents[docID].dumpID
			for info := range set.All() {
				out.Mappings = append(out.Mappings, NewDumpedWordMapping(w.ID, dumpID, info))
			}
		}
	}
	slices.SortFunc(out.Documents, func(a, b DumpedDocument) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Words, func(a, b DumpedWord) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Mappings, compareMappings)
	return out
}

func compareMappings(a, b DumpedWordMapping) int {
	if c := cmp.Compare(a.WordID, b.WordID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DocumentID, b.DocumentID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.FirstCharIndex, b.FirstCharIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(a.WordIndex, b.WordIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.Location, b.Location)
}
