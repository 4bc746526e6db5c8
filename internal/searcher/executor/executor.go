package executor

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/tracing"
)

type Executor struct {
	engine *indexer.Engine
	logger *slog.Logger
}

func New(engine *indexer.Engine) *Executor {
	return &Executor{
		engine: engine,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Search runs params against the index. Results are ordered by descending
// relevance, then by document ID.
func (e *Executor) Search(ctx context.Context, params parser.SearchParameters) (*SearchResultCollection, error) {
	_, span := tracing.StartChild(ctx, "parse")
	plan, err := parser.Parse(params, e.engine.StopWords())
	span.End()
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, plan)
}

// Execute runs an already parsed plan.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan) (*SearchResultCollection, error) {
	_, span := tracing.StartChild(ctx, "execute")
	defer span.End()
	span.SetAttr("terms", len(plan.Terms))

	results := NewSearchResultCollection()
	if plan.Empty() {
		return results, nil
	}

	var matches map[int]*docMatches
	e.engine.View(func(catalog *index.MemoryIndex) {
		words, ok := lookupWords(catalog, plan)
		if !ok {
			return
		}
		switch plan.Option {
		case parser.ExactPhrase:
			matches = matchPhrase(catalog, plan, words)
		case parser.AllWords:
			matches = matchWords(catalog, plan, words)
			for docID, m := range matches {
				if m.distinct != len(words) {
					delete(matches, docID)
				}
			}
		default:
			matches = matchWords(catalog, plan, words)
		}
	})

	span.SetAttr("candidates", len(matches))
	ordered := slices.Sorted(maps.Keys(matches))
	relevances := make([]*ranker.Relevance, 0, len(ordered))
	built := make([]*SearchResult, 0, len(ordered))
	for _, docID := range ordered {
		m := matches[docID]
		result, err := NewSearchResult(m.doc)
		if err != nil {
			return nil, err
		}
		infos := make([]index.BasicWordInfo, 0, len(m.infos))
		for _, info := range m.infos {
			if err := result.Matches.Add(info); err != nil {
				continue
			}
			infos = append(infos, info.BasicWordInfo)
		}
		if err := result.Relevance.SetValue(ranker.Score(infos)); err != nil {
			return nil, fmt.Errorf("scoring document %d: %w", docID, err)
		}
		relevances = append(relevances, result.Relevance)
		built = append(built, result)
	}
	if err := ranker.Normalize(relevances); err != nil {
		return nil, fmt.Errorf("normalizing relevance: %w", err)
	}

	slices.SortStableFunc(built, func(a, b *SearchResult) int {
		if c := cmp.Compare(b.Relevance.Value(), a.Relevance.Value()); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID(), b.Document.ID())
	})
	for _, r := range built {
		if err := results.Add(r); err != nil {
			return nil, err
		}
	}

	span.SetAttr("results", results.Len())
	e.logger.Info("query executed",
		"query", plan.RawQuery,
		"option", plan.Option.String(),
		"terms", plan.Terms,
		"results", results.Len(),
	)
	return results, nil
}

type docMatches struct {
	doc      index.Document
	infos    []index.WordInfo
	distinct int
}

// lookupWords resolves the distinct plan terms to catalog words. ok is
// false when a missing word rules out every document.
func lookupWords(catalog *index.MemoryIndex, plan *parser.QueryPlan) (map[string]*index.Word, bool) {
	words := make(map[string]*index.Word, len(plan.Terms))
	for _, term := range plan.Terms {
		w, found := catalog.Word(term)
		if !found {
			if plan.Option == parser.AtLeastOneWord {
				continue
			}
			return nil, false
		}
		words[term] = w
	}
	return words, len(words) > 0
}

func allowed(catalog *index.MemoryIndex, plan *parser.QueryPlan, docID int) (index.Document, bool) {
	doc, ok := catalog.Document(docID)
	if !ok || !plan.AllowsType(doc.TypeTag()) {
		return nil, false
	}
	return doc, true
}

// matchWords collects every occurrence of every word per document.
func matchWords(catalog *index.MemoryIndex, plan *parser.QueryPlan, words map[string]*index.Word) map[int]*docMatches {
	matches := make(map[int]*docMatches)
	for _, term := range slices.Sorted(maps.Keys(words)) {
		occ := words[term].Occurrences()
		for _, docID := range occ.DocumentIDs() {
			m, ok := matches[docID]
			if !ok {
				doc, pass := allowed(catalog, plan, docID)
				if !pass {
					continue
				}
				m = &docMatches{doc: doc}
				matches[docID] = m
			}
			set, _ := occ.Get(docID)
			for info := range set.All() {
				m.infos = append(m.infos, index.WordInfo{Text: term, BasicWordInfo: info})
			}
			m.distinct++
		}
	}
	return matches
}

// matchPhrase keeps documents holding the plan terms at their relative
// offsets within a single location and reports only the matched runs.
func matchPhrase(catalog *index.MemoryIndex, plan *parser.QueryPlan, words map[string]*index.Word) map[int]*docMatches {
	matches := make(map[int]*docMatches)
	firstOcc := words[plan.Terms[0]].Occurrences()
	for _, docID := range firstOcc.DocumentIDs() {
		doc, pass := allowed(catalog, plan, docID)
		if !pass {
			continue
		}
		positions := make([]map[position]bool, len(plan.Terms))
		complete := true
		for i, term := range plan.Terms {
			set, ok := words[term].Occurrences().Get(docID)
			if !ok {
				complete = false
				break
			}
			positions[i] = make(map[position]bool, set.Len())
			for info := range set.All() {
				positions[i][position{info.Location, info.WordIndex}] = true
			}
		}
		if !complete {
			continue
		}

		var infos []index.WordInfo
		startSet, _ := firstOcc.Get(docID)
		for start := range startSet.All() {
			run, ok := phraseRun(plan, words, docID, positions, start)
			if ok {
				infos = append(infos, run...)
			}
		}
		if len(infos) > 0 {
			matches[docID] = &docMatches{doc: doc, infos: infos, distinct: len(words)}
		}
	}
	return matches
}

type position struct {
	location  index.WordLocation
	wordIndex int
}

func phraseRun(plan *parser.QueryPlan, words map[string]*index.Word, docID int, positions []map[position]bool, start index.BasicWordInfo) ([]index.WordInfo, bool) {
	run := make([]index.WordInfo, 0, len(plan.Terms))
	for i, term := range plan.Terms {
		want := position{start.Location, start.WordIndex + plan.Offsets[i]}
		if !positions[i][want] {
			return nil, false
		}
		set, _ := words[term].Occurrences().Get(docID)
		for info := range set.All() {
			if info.Location == want.location && info.WordIndex == want.wordIndex {
				run = append(run, index.WordInfo{Text: term, BasicWordInfo: info})
				break
			}
		}
	}
	return run, true
}
