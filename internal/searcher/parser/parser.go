// Package parser validates search parameters and turns a query string into
// a plan of normalised terms the executor can match against the index.
package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// SearchOption selects how the words of a query combine.
type SearchOption int

const (
	// AtLeastOneWord matches documents containing any query word.
	AtLeastOneWord SearchOption = iota
	// AllWords matches documents containing every query word.
	AllWords
	// ExactPhrase matches documents containing the query words
	// consecutively, in order, within one location.
	ExactPhrase
)

func (o SearchOption) String() string {
	switch o {
	case AtLeastOneWord:
		return "any"
	case AllWords:
		return "all"
	case ExactPhrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// ParseOption maps the textual form used by the HTTP API to an option. The
// empty string selects AtLeastOneWord.
func ParseOption(s string) (SearchOption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "or", "atleastoneword":
		return AtLeastOneWord, nil
	case "all", "and", "allwords":
		return AllWords, nil
	case "phrase", "exact", "exactphrase":
		return ExactPhrase, nil
	}
	return 0, apperrors.InvalidArgument("unknown search option %q", s)
}

// SearchParameters describe one search. A nil DocumentTypeTags disables
// type filtering.
type SearchParameters struct {
	Query            string
	DocumentTypeTags []string
	Option           SearchOption
}

// NewSearchParameters builds validated parameters.
func NewSearchParameters(query string, typeTags []string, option SearchOption) (SearchParameters, error) {
	p := SearchParameters{Query: query, DocumentTypeTags: typeTags, Option: option}
	if err := p.Validate(); err != nil {
		return SearchParameters{}, err
	}
	return p, nil
}

func (p SearchParameters) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return apperrors.InvalidArgument("query must not be empty")
	}
	if p.DocumentTypeTags != nil {
		if len(p.DocumentTypeTags) == 0 {
			return apperrors.InvalidArgument("document type tag filter must not be empty")
		}
		for i, tag := range p.DocumentTypeTags {
			if tag == "" {
				return apperrors.InvalidArgument("document type tag %d must not be empty", i)
			}
		}
	}
	switch p.Option {
	case AtLeastOneWord, AllWords, ExactPhrase:
	default:
		return apperrors.InvalidArgument("unknown search option %d", int(p.Option))
	}
	return nil
}

// QueryPlan is a parsed query. For ExactPhrase, Terms keeps query order
// and duplicates and Offsets holds each term's word index relative to the
// first term; otherwise Terms is de-duplicated and Offsets is nil.
type QueryPlan struct {
	Terms    []string
	Offsets  []int
	Option   SearchOption
	TypeTags map[string]struct{}
	RawQuery string
}

// Parse validates p and tokenizes its query with the same rules used for
// indexing. A query made only of stop-words yields a plan with no terms.
func Parse(p SearchParameters, stopWords []string) (*QueryPlan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		Option:   p.Option,
		RawQuery: p.Query,
	}
	if p.DocumentTypeTags != nil {
		plan.TypeTags = make(map[string]struct{}, len(p.DocumentTypeTags))
		for _, tag := range p.DocumentTypeTags {
			plan.TypeTags[tag] = struct{}{}
		}
	}

	words := tokenizer.RemoveStopWords(tokenizer.Tokenize(p.Query, index.LocationContent), stopWords)
	first := -1
	for _, w := range words {
		term := tokenizer.NormalizeWord(w.Text)
		if term == "" {
			continue
		}
		if p.Option == ExactPhrase {
			if first < 0 {
				first = w.WordIndex
			}
			plan.Terms = append(plan.Terms, term)
			plan.Offsets = append(plan.Offsets, w.WordIndex-first)
			continue
		}
		if !slices.Contains(plan.Terms, term) {
			plan.Terms = append(plan.Terms, term)
		}
	}
	return plan, nil
}

// AllowsType reports whether documents with the given type tag pass the
// plan's filter.
func (p *QueryPlan) AllowsType(tag string) bool {
	if p.TypeTags == nil {
		return true
	}
	_, ok := p.TypeTags[tag]
	return ok
}

// Empty reports whether the plan has no terms to match.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
