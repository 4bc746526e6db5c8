// Package indexer owns the in-memory full-text index: it tokenizes
// documents, keeps the word catalog consistent under store/remove/clear,
// rehydrates from dumps and notifies listeners of every mutation.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// SnapshotWriter persists a full dump of the index.
type SnapshotWriter interface {
	Write(dump index.Dump) (string, error)
}

// Engine is a thread-safe inverted index. Mutations are serialised by
// writeMu for their whole duration, listener notification included; mu
// guards the catalog and stop-words so reads can run while a listener is
// being notified.
type Engine struct {
	writeMu       sync.Mutex
	mu            sync.RWMutex
	memIndex      *index.MemoryIndex
	stopWords     []string
	buildDocument index.BuildDocumentFunc
	listeners     []index.ChangeListener
	dirty         atomic.Bool
	logger        *slog.Logger
}

func NewEngine(cfg config.IndexerConfig) *Engine {
	stopWords := append([]string(nil), cfg.StopWords...)
	if cfg.EnglishStopWords {
		stopWords = append(stopWords, tokenizer.EnglishStopWords()...)
	}
	return &Engine{
		memIndex:  index.NewMemoryIndex(),
		stopWords: stopWords,
		logger:    slog.Default().With("component", "indexer"),
	}
}

// AddListener registers a change listener. Listeners are notified in
// registration order.
func (e *Engine) AddListener(l index.ChangeListener) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// SetBuildDocumentDelegate registers the callback InitializeData uses to
// resolve dumped documents.
func (e *Engine) SetBuildDocumentDelegate(fn index.BuildDocumentFunc) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.buildDocument = fn
}

// StopWords returns a copy of the current stop-words.
func (e *Engine) StopWords() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.stopWords...)
}

// SetStopWords replaces the stop-words. Already indexed documents are not
// re-tokenized.
func (e *Engine) SetStopWords(words []string) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopWords = append([]string(nil), words...)
}

// StoreDocument indexes the title, keywords and content of doc, replacing
// any previous version of it. It returns the number of distinct words
// inserted or updated.
func (e *Engine) StoreDocument(ctx context.Context, doc index.Document, keywords []string, content string) (int, error) {
	if doc == nil {
		return 0, apperrors.InvalidArgument("document must not be nil")
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	positions := e.collect(doc, keywords, content)

	e.mu.Lock()
	_, removal, existed := e.memIndex.RemoveDocument(doc.ID())
	addition, updated := e.memIndex.AddDocument(doc, positions)
	e.mu.Unlock()
	e.dirty.Store(true)

	e.logger.Debug("document stored",
		"doc_id", doc.ID(),
		"name", doc.Name(),
		"words", updated,
		"reindexed", existed,
	)

	var errs []error
	if existed {
		if err := e.notify(ctx, &index.Change{Document: doc, Kind: index.DocumentRemoved, Data: &removal}); err != nil {
			errs = append(errs, err)
		}
	}
	change := &index.Change{Document: doc, Kind: index.DocumentAdded, Data: &addition}
	addErr := e.notify(ctx, change)
	if addErr != nil {
		errs = append(errs, addErr)
	}
	e.settleIDs(doc, change.Result, addErr)
	if len(errs) > 0 {
		return updated, fmt.Errorf("notifying index listeners for document %d: %w", doc.ID(), errors.Join(errs...))
	}
	return updated, nil
}

// RemoveDocument drops every occurrence of doc. Removing a document that
// is not indexed is a no-op.
func (e *Engine) RemoveDocument(ctx context.Context, doc index.Document) error {
	if doc == nil {
		return apperrors.InvalidArgument("document must not be nil")
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	indexed, removal, ok := e.memIndex.RemoveDocument(doc.ID())
	e.mu.Unlock()
	if !ok {
		return nil
	}
	e.dirty.Store(true)
	e.logger.Debug("document removed",
		"doc_id", doc.ID(),
		"mappings", len(removal.Mappings),
		"pruned_words", len(removal.Words),
	)
	if err := e.notify(ctx, &index.Change{Document: indexed, Kind: index.DocumentRemoved, Data: &removal}); err != nil {
		return fmt.Errorf("notifying index listeners for document %d: %w", doc.ID(), err)
	}
	return nil
}

// Clear empties the index.
func (e *Engine) Clear(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	e.memIndex.Reset()
	e.mu.Unlock()
	e.dirty.Store(true)
	e.logger.Info("index cleared")
	if err := e.notify(ctx, &index.Change{Kind: index.IndexCleared}); err != nil {
		return fmt.Errorf("notifying index listeners of clear: %w", err)
	}
	return nil
}

// InitializeData replaces the index with a previously dumped one without
// notifying listeners. Invalid dumped documents and those the build
// callback cannot resolve are skipped along with their mappings.
func (e *Engine) InitializeData(documents []index.DumpedDocument, words []index.DumpedWord, mappings []index.DumpedWordMapping) (index.LoadStats, error) {
	if documents == nil || words == nil || mappings == nil {
		return index.LoadStats{}, apperrors.InvalidArgument("documents, words and mappings must not be nil")
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.buildDocument == nil {
		return index.LoadStats{}, apperrors.InvalidState("no build document delegate registered")
	}

	resolved := make(map[int]index.Document, len(documents))
	skipped := 0
	for _, dumped := range documents {
		if err := dumped.Validate(); err != nil {
			e.logger.Warn("skipping invalid dumped document", "error", err)
			skipped++
			continue
		}
		doc := e.buildDocument(dumped)
		if doc == nil {
			skipped++
			continue
		}
		resolved[dumped.ID] = doc
	}

	e.mu.Lock()
	stats := e.memIndex.Load(resolved, words, mappings)
	e.mu.Unlock()
	e.dirty.Store(false)

	e.logger.Info("index data initialized",
		"documents", stats.Documents,
		"skipped_documents", skipped,
		"words", stats.Words,
		"mappings", stats.Mappings,
		"skipped_mappings", stats.SkippedMappings,
	)
	return stats, nil
}

// TotalDocuments returns the number of indexed documents.
func (e *Engine) TotalDocuments() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.TotalDocuments()
}

// TotalWords returns the number of distinct words.
func (e *Engine) TotalWords() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.TotalWords()
}

// TotalOccurrences returns the number of occurrences over all words.
func (e *Engine) TotalOccurrences() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.TotalOccurrences()
}

// Dump returns a flat image of the index.
func (e *Engine) Dump() index.Dump {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.Dump()
}

// Lookup returns a copy of the occurrences of word, normalised the same
// way indexed words are.
func (e *Engine) Lookup(word string) (*index.OccurrenceDictionary, bool) {
	key := tokenizer.NormalizeWord(word)
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.memIndex.Word(key)
	if !ok {
		return nil, false
	}
	return w.Occurrences().Clone(), true
}

// View runs fn with shared access to the catalog. fn must not retain the
// catalog or anything reachable from it after returning.
func (e *Engine) View(fn func(catalog *index.MemoryIndex)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.memIndex)
}

// Snapshot writes the index through w when it changed since the last
// snapshot.
func (e *Engine) Snapshot(w SnapshotWriter) error {
	if !e.dirty.Swap(false) {
		return nil
	}
	dump := e.Dump()
	name, err := w.Write(dump)
	if err != nil {
		e.dirty.Store(true)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	e.logger.Info("index snapshot written",
		"snapshot", name,
		"documents", len(dump.Documents),
		"words", len(dump.Words),
		"mappings", len(dump.Mappings),
	)
	return nil
}

// StartSnapshotLoop snapshots the index every interval until ctx is
// cancelled, then takes a final snapshot.
func (e *Engine) StartSnapshotLoop(ctx context.Context, w SnapshotWriter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("snapshot loop stopping, writing final snapshot")
				if err := e.Snapshot(w); err != nil {
					e.logger.Error("final snapshot failed", "error", err)
				}
				return
			case <-ticker.C:
				if err := e.Snapshot(w); err != nil {
					e.logger.Error("periodic snapshot failed", "error", err)
				}
			}
		}
	}()
}

// collect tokenizes every location of doc and groups the surviving
// positions by normalised word.
func (e *Engine) collect(doc index.Document, keywords []string, content string) map[string]*index.SortedBasicWordInfoSet {
	words := doc.Tokenize(doc.Title(), index.LocationTitle)
	words = append(words, tokenizeKeywords(doc, keywords)...)
	words = append(words, doc.Tokenize(content, index.LocationContent)...)
	words = tokenizer.RemoveStopWords(words, e.stopWords)

	positions := make(map[string]*index.SortedBasicWordInfoSet)
	for _, w := range words {
		key := tokenizer.NormalizeWord(w.Text)
		if key == "" {
			continue
		}
		set, ok := positions[key]
		if !ok {
			set = index.NewSortedBasicWordInfoSet(2)
			positions[key] = set
		}
		set.Add(w.BasicWordInfo)
	}
	return positions
}

// tokenizeKeywords tokenizes each tag on its own. Offsets continue as if
// the tags were separated by one space, and a word index is skipped
// between tags so no phrase spans two of them.
func tokenizeKeywords(doc index.Document, keywords []string) []index.WordInfo {
	var words []index.WordInfo
	charBase, wordBase := 0, 0
	for _, tag := range keywords {
		next := wordBase
		for _, w := range doc.Tokenize(tag, index.LocationKeywords) {
			w.FirstCharIndex += charBase
			w.WordIndex += wordBase
			words = append(words, w)
			next = w.WordIndex + 2
		}
		charBase += utf8.RuneCountInString(tag) + 1
		wordBase = next
	}
	return words
}

func (e *Engine) notify(ctx context.Context, change *index.Change) error {
	var errs []error
	var result *index.IndexStorerResult
	defer func() { change.Result = result }()
	for _, l := range e.listeners {
		change.Result = result
		err := l.IndexChanged(ctx, change)
		if result == nil {
			result = change.Result
		}
		if err != nil {
			e.logger.Error("index listener failed",
				"kind", change.Kind.String(),
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// settleIDs applies the IDs a store assigned to doc and its words. Without
// a result, a failed notification leaves the words temporary and the
// document unstored, so a later store resolves them by text; a successful
// one means no listener assigns IDs and local ones are used.
func (e *Engine) settleIDs(doc index.Document, result *index.IndexStorerResult, notifyErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case result != nil:
		e.memIndex.AssignDocumentDumpID(doc.ID(), result.DocumentID)
		for _, assigned := range result.WordIDs {
			if !e.memIndex.AssignWordID(assigned.Text, assigned.ID) {
				e.logger.Warn("store assigned an unusable word id",
					"word", assigned.Text,
					"id", assigned.ID,
				)
			}
		}
	case notifyErr != nil:
		e.memIndex.MarkUnstored(doc.ID())
	default:
		e.memIndex.AssignLocalIDs(doc.ID())
	}
}
