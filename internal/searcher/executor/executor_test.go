package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

type page struct {
	id    int
	title string
	tag   string
}

func (p *page) ID() int             { return p.id }
func (p *page) Name() string        { return p.title }
func (p *page) Title() string       { return p.title }
func (p *page) TypeTag() string     { return p.tag }
func (p *page) DateTime() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
func (p *page) Tokenize(text string, location index.WordLocation) []index.WordInfo {
	return tokenizer.Tokenize(text, location)
}

func newEngine(t *testing.T) *indexer.Engine {
	t.Helper()
	return indexer.NewEngine(config.IndexerConfig{})
}

func store(t *testing.T, e *indexer.Engine, doc *page, content string) {
	t.Helper()
	_, err := e.StoreDocument(context.Background(), doc, nil, content)
	require.NoError(t, err)
}

func search(t *testing.T, e *indexer.Engine, query string, option parser.SearchOption) *SearchResultCollection {
	t.Helper()
	results, err := New(e).Search(context.Background(), parser.SearchParameters{Query: query, Option: option})
	require.NoError(t, err)
	return results
}

func TestSearchOptions(t *testing.T) {
	e := newEngine(t)
	store(t, e, &page{id: 1, title: "Page", tag: "page"}, "this is some content")

	assert.Equal(t, 1, search(t, e, "this content", parser.AllWords).Len())
	assert.Equal(t, 0, search(t, e, "this stuff", parser.AllWords).Len())
	assert.Equal(t, 1, search(t, e, "this stuff", parser.AtLeastOneWord).Len())
	assert.Equal(t, 0, search(t, e, "stuff", parser.AtLeastOneWord).Len())
}

func TestSearchExactPhrase(t *testing.T) {
	e := newEngine(t)
	store(t, e, &page{id: 1, title: "Page", tag: "page"}, "content repeated content")

	results := search(t, e, "repeated content", parser.ExactPhrase)
	require.Equal(t, 1, results.Len())
	matches := results.At(0).Matches
	require.Equal(t, 2, matches.Len())
	assert.Equal(t, "repeated", matches.At(0).Text)
	assert.Equal(t, 1, matches.At(0).WordIndex)
	assert.Equal(t, "content", matches.At(1).Text)
	assert.Equal(t, 2, matches.At(1).WordIndex)

	assert.Equal(t, 0, search(t, e, "content repeated content blah blah", parser.ExactPhrase).Len())
	assert.Equal(t, 0, search(t, e, "content content", parser.ExactPhrase).Len())
}

func TestSearchExactPhraseStaysInOneLocation(t *testing.T) {
	e := newEngine(t)
	store(t, e, &page{id: 1, title: "Alpha", tag: "page"}, "beta gamma")

	assert.Equal(t, 0, search(t, e, "alpha beta", parser.ExactPhrase).Len())
	assert.Equal(t, 1, search(t, e, "beta gamma", parser.ExactPhrase).Len())
}

func TestSearchExactPhraseStaysInOneKeywordTag(t *testing.T) {
	e := newEngine(t)
	_, err := e.StoreDocument(context.Background(), &page{id: 1, title: "Tags", tag: "page"}, []string{"foo", "bar baz"}, "")
	require.NoError(t, err)

	assert.Equal(t, 0, search(t, e, "foo bar", parser.ExactPhrase).Len())
	assert.Equal(t, 1, search(t, e, "bar baz", parser.ExactPhrase).Len())
	assert.Equal(t, 1, search(t, e, "foo bar", parser.AllWords).Len())
}

func TestSearchCaseAndDiacriticsInsensitive(t *testing.T) {
	e := newEngine(t)
	store(t, e, &page{id: 1, title: "Page", tag: "page"}, "Crème brûlée recipe")

	assert.Equal(t, 1, search(t, e, "CREME brulee", parser.AllWords).Len())
}

func TestSearchRelevanceOrdering(t *testing.T) {
	e := newEngine(t)
	titleDoc := &page{id: 1, title: "Alpha", tag: "page"}
	contentDoc := &page{id: 2, title: "Other", tag: "page"}
	store(t, e, titleDoc, "unrelated words")
	store(t, e, contentDoc, "beta appears here")

	results := search(t, e, "alpha beta", parser.AtLeastOneWord)
	require.Equal(t, 2, results.Len())

	first := results.At(0)
	second := results.At(1)
	assert.Equal(t, titleDoc.ID(), first.Document.ID())
	assert.Equal(t, contentDoc.ID(), second.Document.ID())
	assert.True(t, first.Relevance.IsFinalized())
	assert.Greater(t, first.Relevance.Value(), second.Relevance.Value())
	assert.InDelta(t, 100.0, first.Relevance.Value(), 1e-9)
}

func TestSearchTypeFilter(t *testing.T) {
	e := newEngine(t)
	store(t, e, &page{id: 1, title: "Page", tag: "page"}, "shared text")
	store(t, e, &page{id: 2, title: "Message", tag: "message"}, "shared text")

	s := New(e)
	results, err := s.Search(context.Background(), parser.SearchParameters{
		Query:            "shared",
		DocumentTypeTags: []string{"message"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, results.Len())
	assert.Equal(t, 2, results.At(0).Document.ID())

	_, err = s.Search(context.Background(), parser.SearchParameters{Query: "shared", DocumentTypeTags: []string{}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	_, err := New(newEngine(t)).Search(context.Background(), parser.SearchParameters{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestSearchOnlyStopWords(t *testing.T) {
	e := newEngine(t)
	e.SetStopWords([]string{"the"})
	store(t, e, &page{id: 1, title: "Page", tag: "page"}, "the sky")

	assert.Equal(t, 0, search(t, e, "the", parser.AtLeastOneWord).Len())
}

func TestSearchAfterRemoveAndClear(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	first := &page{id: 1, title: "First", tag: "page"}
	second := &page{id: 2, title: "Second", tag: "page"}
	store(t, e, first, "common words")
	store(t, e, second, "common words")

	require.NoError(t, e.RemoveDocument(ctx, first))
	results := search(t, e, "common", parser.AtLeastOneWord)
	require.Equal(t, 1, results.Len())
	assert.Equal(t, 2, results.At(0).Document.ID())
	assert.Equal(t, 1, results.At(0).Matches.Len())

	require.NoError(t, e.Clear(ctx))
	assert.Equal(t, 0, search(t, e, "common", parser.AtLeastOneWord).Len())
}

func TestSearchSameResultsAfterRestore(t *testing.T) {
	doc := &page{id: 1, title: "Document", tag: "page"}
	live := newEngine(t)
	store(t, live, doc, "some document content for the test")
	before := search(t, live, "document content", parser.AllWords)
	require.Equal(t, 1, before.Len())

	dump := live.Dump()
	restored := newEngine(t)
	restored.SetBuildDocumentDelegate(func(d index.DumpedDocument) index.Document {
		if d.ID == doc.ID() {
			return doc
		}
		return nil
	})
	_, err := restored.InitializeData(dump.Documents, dump.Words, dump.Mappings)
	require.NoError(t, err)

	after := search(t, restored, "document content", parser.AllWords)
	require.Equal(t, 1, after.Len())
	assert.Equal(t, before.At(0).Matches.Items(), after.At(0).Matches.Items())
	assert.Equal(t, before.At(0).Relevance.Value(), after.At(0).Relevance.Value())
}

func TestSearchFromListener(t *testing.T) {
	e := newEngine(t)
	var seen int
	e.AddListener(index.ChangeListenerFunc(func(ctx context.Context, change *index.Change) error {
		results, err := New(e).Search(ctx, parser.SearchParameters{Query: "listener"})
		if err != nil {
			return err
		}
		seen = results.Len()
		return nil
	}))
	store(t, e, &page{id: 1, title: "Page", tag: "page"}, "listener visible")
	assert.Equal(t, 1, seen)
}

func BenchmarkSearch(b *testing.B) {
	e := indexer.NewEngine(config.IndexerConfig{})
	for i := 1; i <= 200; i++ {
		_, _ = e.StoreDocument(context.Background(), &page{id: i, title: "Benchmark page", tag: "page"}, nil,
			"the quick brown fox jumps over the lazy dog in a wiki search engine benchmark")
	}
	s := New(e)
	params := parser.SearchParameters{Query: "quick fox", Option: parser.AllWords}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Search(context.Background(), params)
	}
}
