package index

import "time"

// Document is an indexable unit owned by the surrounding application. ID is
// stable for the lifetime of the document and identifies it in the index.
type Document interface {
	ID() int
	Name() string
	Title() string
	TypeTag() string
	DateTime() time.Time
	// Tokenize turns arbitrary document text into positioned words,
	// stripping whatever markup the document uses.
	Tokenize(text string, location WordLocation) []WordInfo
}

// BuildDocumentFunc resolves a dump record back into a live document. It
// returns nil when the document no longer exists.
type BuildDocumentFunc func(dumped DumpedDocument) Document
