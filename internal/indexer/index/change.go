package index

import "context"

// ChangeKind tags the mutation a Change describes.
type ChangeKind int

const (
	DocumentAdded ChangeKind = iota + 1
	DocumentRemoved
	IndexCleared
)

func (k ChangeKind) String() string {
	switch k {
	case DocumentAdded:
		return "document_added"
	case DocumentRemoved:
		return "document_removed"
	case IndexCleared:
		return "index_cleared"
	default:
		return "unknown"
	}
}

// WordIDAssignment maps a word text to the ID an external store gave it.
type WordIDAssignment struct {
	Text string `json:"text"`
	ID   int    `json:"id"`
}

// IndexStorerResult carries the IDs an external store assigned while
// persisting a DocumentAdded change.
type IndexStorerResult struct {
	DocumentID int
	WordIDs    []WordIDAssignment
}

// Change is delivered to listeners after a mutation is applied. Document
// and Data are nil for IndexCleared. A listener that persists the change
// may fill Result; the first non-nil Result is applied to the index.
type Change struct {
	Document Document
	Kind     ChangeKind
	Data     *DumpedChange
	Result   *IndexStorerResult
}

// ChangeListener observes index mutations. It runs synchronously on the
// mutating goroutine and must not mutate the index; reads are allowed.
type ChangeListener interface {
	IndexChanged(ctx context.Context, change *Change) error
}

// ChangeListenerFunc adapts a function to ChangeListener.
type ChangeListenerFunc func(ctx context.Context, change *Change) error

func (f ChangeListenerFunc) IndexChanged(ctx context.Context, change *Change) error {
	return f(ctx, change)
}
