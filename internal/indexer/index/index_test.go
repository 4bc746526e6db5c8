package index

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

type stubDocument struct {
	id    int
	name  string
	title string
}

func (d *stubDocument) ID() int             { return d.id }
func (d *stubDocument) Name() string        { return d.name }
func (d *stubDocument) Title() string       { return d.title }
func (d *stubDocument) TypeTag() string     { return "page" }
func (d *stubDocument) DateTime() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func (d *stubDocument) Tokenize(text string, location WordLocation) []WordInfo {
	var out []WordInfo
	pos := 0
	for i, f := range strings.Fields(text) {
		idx := strings.Index(text[pos:], f) + pos
		out = append(out, WordInfo{Text: f, BasicWordInfo: BasicWordInfo{FirstCharIndex: idx, WordIndex: i, Location: location}})
		pos = idx + len(f)
	}
	return out
}

func mustInfo(t *testing.T, first, word int, loc WordLocation) BasicWordInfo {
	t.Helper()
	info, err := NewBasicWordInfo(first, word, loc)
	require.NoError(t, err)
	return info
}

func setOf(t *testing.T, infos ...BasicWordInfo) *SortedBasicWordInfoSet {
	t.Helper()
	s := NewSortedBasicWordInfoSet(len(infos))
	for _, info := range infos {
		s.Add(info)
	}
	return s
}

func TestWordLocationOrderingAndWeights(t *testing.T) {
	assert.Less(t, LocationTitle, LocationKeywords)
	assert.Less(t, LocationKeywords, LocationContent)
	assert.Greater(t, LocationTitle.RelativeRelevance(), LocationKeywords.RelativeRelevance())
	assert.Greater(t, LocationKeywords.RelativeRelevance(), LocationContent.RelativeRelevance())

	for code, want := range map[byte]WordLocation{1: LocationTitle, 2: LocationKeywords, 3: LocationContent} {
		loc, err := LocationFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, want, loc)
		assert.Equal(t, code, loc.Code())
	}
	for _, code := range []byte{0, 4, 255} {
		_, err := LocationFromCode(code)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	}
}

func TestBasicWordInfoValidation(t *testing.T) {
	_, err := NewBasicWordInfo(-1, 0, LocationContent)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = NewBasicWordInfo(0, -1, LocationContent)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = NewBasicWordInfo(0, 0, WordLocation(9))
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestBasicWordInfoEqualityAndOrdering(t *testing.T) {
	a := mustInfo(t, 2, 1, LocationContent)
	b := mustInfo(t, 2, 1, LocationContent)
	assert.True(t, a.Equal(b))
	assert.Zero(t, a.Compare(b))

	assert.False(t, a.Equal(mustInfo(t, 2, 1, LocationTitle)))
	assert.Negative(t, mustInfo(t, 1, 9, LocationContent).Compare(a))
	assert.Negative(t, mustInfo(t, 2, 0, LocationContent).Compare(a))
	assert.Negative(t, mustInfo(t, 2, 1, LocationTitle).Compare(a))
	assert.Positive(t, a.Compare(mustInfo(t, 2, 1, LocationKeywords)))
}

func TestWordInfoComparesTextFirst(t *testing.T) {
	_, err := NewWordInfo("", 0, 0, LocationTitle)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	a, err := NewWordInfo("alpha", 10, 3, LocationContent)
	require.NoError(t, err)
	b, err := NewWordInfo("beta", 0, 0, LocationTitle)
	require.NoError(t, err)
	upper, err := NewWordInfo("Alpha", 10, 3, LocationContent)
	require.NoError(t, err)

	assert.Negative(t, a.Compare(b))
	assert.False(t, a.Equal(upper))
	assert.NotZero(t, a.Compare(upper))
	same, _ := NewWordInfo("alpha", 10, 3, LocationContent)
	assert.True(t, a.Equal(same))
}

func TestSortedBasicWordInfoSet(t *testing.T) {
	s := NewSortedBasicWordInfoSet(0)
	assert.True(t, s.Add(mustInfo(t, 10, 2, LocationContent)))
	assert.True(t, s.Add(mustInfo(t, 0, 0, LocationContent)))
	assert.True(t, s.Add(mustInfo(t, 5, 1, LocationContent)))
	assert.False(t, s.Add(mustInfo(t, 5, 1, LocationContent)))
	assert.Equal(t, 3, s.Len())

	var prev *BasicWordInfo
	for info := range s.All() {
		if prev != nil {
			assert.Negative(t, prev.Compare(info))
		}
		cur := info
		prev = &cur
	}
	assert.Equal(t, 0, s.At(0).FirstCharIndex)
	assert.True(t, s.Contains(mustInfo(t, 10, 2, LocationContent)))
	assert.True(t, s.Remove(mustInfo(t, 10, 2, LocationContent)))
	assert.False(t, s.Remove(mustInfo(t, 10, 2, LocationContent)))
	assert.Equal(t, 2, s.Len())

	items := s.Items()
	items[0] = mustInfo(t, 99, 99, LocationTitle)
	assert.Equal(t, 0, s.At(0).FirstCharIndex, "Items must return a copy")
}

func TestOccurrenceDictionaryRemoveExtended(t *testing.T) {
	d := NewOccurrenceDictionary()
	assert.True(t, d.Add(7))
	assert.False(t, d.Add(7))
	d.Set(9, setOf(t, mustInfo(t, 0, 0, LocationTitle), mustInfo(t, 4, 1, LocationContent)))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []int{7, 9}, d.DocumentIDs())
	assert.Equal(t, 2, d.Count())

	removed := d.RemoveExtended(9, 42)
	require.Len(t, removed, 2)
	assert.Equal(t, DumpedWordMapping{WordID: 42, DocumentID: 9, FirstCharIndex: 0, WordIndex: 0, Location: 1}, removed[0])
	assert.Equal(t, DumpedWordMapping{WordID: 42, DocumentID: 9, FirstCharIndex: 4, WordIndex: 1, Location: 3}, removed[1])
	assert.False(t, d.Contains(9))
	assert.Nil(t, d.RemoveExtended(9, 42))
	assert.True(t, d.Remove(7))
	assert.False(t, d.Remove(7))
}

func TestWordOccurrences(t *testing.T) {
	w, err := NewWord(1, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", w.Text)
	_, err = NewWord(1, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	assert.True(t, w.AddOccurrence(1, mustInfo(t, 0, 0, LocationContent)))
	assert.False(t, w.AddOccurrence(1, mustInfo(t, 0, 0, LocationContent)))
	assert.Equal(t, 1, w.TotalOccurrences())

	added := w.BulkAddOccurrences(1, setOf(t, mustInfo(t, 0, 0, LocationContent), mustInfo(t, 8, 2, LocationContent)))
	assert.Equal(t, 1, added)
	added = w.BulkAddOccurrences(2, setOf(t, mustInfo(t, 3, 1, LocationTitle)))
	assert.Equal(t, 1, added)
	assert.Equal(t, 3, w.TotalOccurrences())

	removed := w.RemoveOccurrences(1)
	assert.Len(t, removed, 2)
	assert.Equal(t, 1, w.TotalOccurrences())
	assert.False(t, w.Occurrences().Contains(1))
	assert.Empty(t, w.RemoveOccurrences(1))
}

func TestMemoryIndexAddRemove(t *testing.T) {
	m := NewMemoryIndex()
	doc1 := &stubDocument{id: 1, name: "one", title: "One"}
	doc2 := &stubDocument{id: 2, name: "two", title: "Two"}

	change, updated := m.AddDocument(doc1, map[string]*SortedBasicWordInfoSet{
		"shared": setOf(t, mustInfo(t, 0, 0, LocationContent)),
		"only":   setOf(t, mustInfo(t, 7, 1, LocationContent), mustInfo(t, 20, 3, LocationContent)),
	})
	assert.Equal(t, 2, updated)
	assert.Len(t, change.Words, 2)
	assert.Len(t, change.Mappings, 3)
	assert.Equal(t, "one", change.Document.Name)

	change, updated = m.AddDocument(doc2, map[string]*SortedBasicWordInfoSet{
		"shared": setOf(t, mustInfo(t, 0, 0, LocationTitle)),
	})
	assert.Equal(t, 1, updated)
	assert.Empty(t, change.Words, "shared already exists")
	assert.Equal(t, 2, m.TotalDocuments())
	assert.Equal(t, 2, m.TotalWords())
	assert.Equal(t, 4, m.TotalOccurrences())

	doc, removal, ok := m.RemoveDocument(1)
	require.True(t, ok)
	assert.Same(t, doc1, doc)
	assert.Len(t, removal.Mappings, 3)
	require.Len(t, removal.Words, 1)
	assert.Equal(t, "only", removal.Words[0].Text)
	assert.Equal(t, 1, m.TotalDocuments())
	assert.Equal(t, 1, m.TotalWords())
	assert.Equal(t, 1, m.TotalOccurrences())

	shared, ok := m.Word("shared")
	require.True(t, ok)
	assert.False(t, shared.Occurrences().Contains(1))
	assert.True(t, shared.Occurrences().Contains(2))

	_, _, ok = m.RemoveDocument(1)
	assert.False(t, ok)
}

func TestMemoryIndexDumpAndLoad(t *testing.T) {
	m := NewMemoryIndex()
	doc := &stubDocument{id: 5, name: "five", title: "Five"}
	m.AddDocument(doc, map[string]*SortedBasicWordInfoSet{
		"alpha": setOf(t, mustInfo(t, 0, 0, LocationTitle)),
		"beta":  setOf(t, mustInfo(t, 6, 1, LocationContent)),
	})
	require.True(t, m.AssignDocumentDumpID(5, 100))
	require.True(t, m.AssignWordID("alpha", 40))

	dump := m.Dump()
	require.Len(t, dump.Documents, 1)
	assert.Equal(t, 100, dump.Documents[0].ID)
	require.Len(t, dump.Mappings, 2)
	for _, mapping := range dump.Mappings {
		assert.Equal(t, 100, mapping.DocumentID)
	}

	restored := NewMemoryIndex()
	stats := restored.Load(map[int]Document{100: doc}, dump.Words, append(dump.Mappings,
		DumpedWordMapping{WordID: 40, DocumentID: 999, Location: 1},
		DumpedWordMapping{WordID: 77, DocumentID: 100, Location: 1},
		DumpedWordMapping{WordID: 40, DocumentID: 100, Location: 9},
	))
	assert.Equal(t, 3, stats.SkippedMappings)
	assert.Equal(t, 2, stats.Mappings)
	assert.Equal(t, dump, restored.Dump())

	w, ok := restored.Word("alpha")
	require.True(t, ok)
	assert.Equal(t, 40, w.ID)

	change, _ := restored.AddDocument(&stubDocument{id: 6, name: "six", title: "Six"}, map[string]*SortedBasicWordInfoSet{
		"gamma": setOf(t, mustInfo(t, 0, 0, LocationContent)),
	})
	require.Len(t, change.Words, 1)
	assert.Negative(t, change.Words[0].ID, "new words start with a temporary id")
	restored.AssignLocalIDs(6)
	w, ok = restored.Word("gamma")
	require.True(t, ok)
	assert.Equal(t, 41, w.ID, "local IDs continue after the loaded maximum")
}

func TestMemoryIndexTemporaryWordIDs(t *testing.T) {
	m := NewMemoryIndex()
	first := &stubDocument{id: 1, name: "one", title: "One"}
	change, _ := m.AddDocument(first, map[string]*SortedBasicWordInfoSet{
		"foo": setOf(t, mustInfo(t, 0, 0, LocationTitle)),
	})
	require.Len(t, change.Words, 1)
	tempID := change.Words[0].ID
	assert.Negative(t, tempID)
	require.True(t, m.MarkUnstored(1))
	assert.Equal(t, -1, m.Dump().Documents[0].ID)

	change, _ = m.AddDocument(&stubDocument{id: 2, name: "two", title: "Two"}, map[string]*SortedBasicWordInfoSet{
		"bar": setOf(t, mustInfo(t, 0, 0, LocationTitle)),
	})
	require.Len(t, change.Words, 1)
	assert.NotEqual(t, tempID, change.Words[0].ID)
	require.True(t, m.AssignWordID("bar", 1))

	change, _ = m.AddDocument(&stubDocument{id: 3, name: "three", title: "Three"}, map[string]*SortedBasicWordInfoSet{
		"foo": setOf(t, mustInfo(t, 0, 0, LocationTitle)),
		"bar": setOf(t, mustInfo(t, 4, 1, LocationTitle)),
	})
	require.Len(t, change.Words, 1, "unstored words are sent again")
	assert.Equal(t, DumpedWord{ID: tempID, Text: "foo"}, change.Words[0])

	assert.False(t, m.AssignWordID("foo", 1), "ids stay unique")
	assert.False(t, m.AssignWordID("foo", 0))
	require.True(t, m.AssignWordID("foo", 2))
	w, _ := m.Word("foo")
	assert.Equal(t, 2, w.ID)

	_, removal, ok := m.RemoveDocument(1)
	require.True(t, ok)
	assert.Equal(t, -1, removal.Document.ID)
	for _, mapping := range removal.Mappings {
		assert.Equal(t, -1, mapping.DocumentID)
	}
}

func TestMemoryIndexLoadDropsWordsWithoutOccurrences(t *testing.T) {
	m := NewMemoryIndex()
	stats := m.Load(map[int]Document{}, []DumpedWord{{ID: 1, Text: "orphan"}, {ID: 2, Text: ""}}, nil)
	assert.Zero(t, stats.Words)
	assert.Zero(t, m.TotalWords())
}
