package executor

import (
	"iter"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// WordInfoCollection is an ordered, duplicate-free list of matches.
type WordInfoCollection struct {
	items []index.WordInfo
}

func NewWordInfoCollection() *WordInfoCollection {
	return &WordInfoCollection{}
}

// Add appends w. Words without text and duplicates are rejected.
func (c *WordInfoCollection) Add(w index.WordInfo) error {
	if w.Text == "" {
		return apperrors.InvalidArgument("word info text must not be empty")
	}
	if c.Contains(w) {
		return apperrors.InvalidArgument("word info %q at %d already in collection", w.Text, w.FirstCharIndex)
	}
	c.items = append(c.items, w)
	return nil
}

func (c *WordInfoCollection) Remove(w index.WordInfo) bool {
	i := c.indexOf(w)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

func (c *WordInfoCollection) Contains(w index.WordInfo) bool {
	return c.indexOf(w) >= 0
}

func (c *WordInfoCollection) indexOf(w index.WordInfo) int {
	return slices.IndexFunc(c.items, w.Equal)
}

// At returns the i-th match; it panics when i is out of range.
func (c *WordInfoCollection) At(i int) index.WordInfo {
	return c.items[i]
}

func (c *WordInfoCollection) Len() int {
	return len(c.items)
}

func (c *WordInfoCollection) Clear() {
	c.items = c.items[:0]
}

// Items returns a copy of the matches.
func (c *WordInfoCollection) Items() []index.WordInfo {
	return slices.Clone(c.items)
}

func (c *WordInfoCollection) All() iter.Seq[index.WordInfo] {
	return slices.Values(c.items)
}

// SearchResult is a matching document with its matches and relevance.
type SearchResult struct {
	Document  index.Document
	Matches   *WordInfoCollection
	Relevance *ranker.Relevance
}

// NewSearchResult returns a result for doc with no matches and zero
// relevance.
func NewSearchResult(doc index.Document) (*SearchResult, error) {
	if doc == nil {
		return nil, apperrors.InvalidArgument("search result document must not be nil")
	}
	rel, err := ranker.NewRelevance(0)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Document: doc, Matches: NewWordInfoCollection(), Relevance: rel}, nil
}

// SearchResultCollection is an ordered list of results holding at most
// one result per document.
type SearchResultCollection struct {
	items []*SearchResult
}

func NewSearchResultCollection() *SearchResultCollection {
	return &SearchResultCollection{}
}

// Add appends r. Nil results and a second result for the same document
// are rejected.
func (c *SearchResultCollection) Add(r *SearchResult) error {
	if r == nil || r.Document == nil {
		return apperrors.InvalidArgument("search result must not be nil")
	}
	if _, ok := c.Find(r.Document); ok {
		return apperrors.InvalidArgument("document %d already in results", r.Document.ID())
	}
	c.items = append(c.items, r)
	return nil
}

func (c *SearchResultCollection) Remove(r *SearchResult) bool {
	if r == nil || r.Document == nil {
		return false
	}
	i := c.indexOf(r.Document)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

func (c *SearchResultCollection) Contains(r *SearchResult) bool {
	if r == nil || r.Document == nil {
		return false
	}
	return c.indexOf(r.Document) >= 0
}

// Find returns the result for doc.
func (c *SearchResultCollection) Find(doc index.Document) (*SearchResult, bool) {
	if doc == nil {
		return nil, false
	}
	i := c.indexOf(doc)
	if i < 0 {
		return nil, false
	}
	return c.items[i], true
}

func (c *SearchResultCollection) indexOf(doc index.Document) int {
	id := doc.ID()
	return slices.IndexFunc(c.items, func(r *SearchResult) bool { return r.Document.ID() == id })
}

// At returns the i-th result; it panics when i is out of range.
func (c *SearchResultCollection) At(i int) *SearchResult {
	return c.items[i]
}

func (c *SearchResultCollection) Len() int {
	return len(c.items)
}

func (c *SearchResultCollection) Clear() {
	c.items = c.items[:0]
}

// Items returns a copy of the result list.
func (c *SearchResultCollection) Items() []*SearchResult {
	return slices.Clone(c.items)
}

func (c *SearchResultCollection) All() iter.Seq[*SearchResult] {
	return slices.Values(c.items)
}
