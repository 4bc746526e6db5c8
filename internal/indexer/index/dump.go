package index

import (
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// DumpedDocument is the flat record of an indexed document.
type DumpedDocument struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	TypeTag  string    `json:"type_tag"`
	DateTime time.Time `json:"date_time"`
}

func NewDumpedDocument(doc Document) DumpedDocument {
	return DumpedDocument{
		ID:       doc.ID(),
		Name:     doc.Name(),
		Title:    doc.Title(),
		TypeTag:  doc.TypeTag(),
		DateTime: doc.DateTime(),
	}
}

func (d DumpedDocument) Validate() error {
	switch {
	case d.Name == "":
		return apperrors.InvalidArgument("dumped document %d: name must not be empty", d.ID)
	case d.Title == "":
		return apperrors.InvalidArgument("dumped document %d: title must not be empty", d.ID)
	case d.TypeTag == "":
		return apperrors.InvalidArgument("dumped document %d: type tag must not be empty", d.ID)
	}
	return nil
}

// DumpedWord is the flat record of a catalog word.
type DumpedWord struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func NewDumpedWord(w *Word) DumpedWord {
	return DumpedWord{ID: w.ID, Text: w.Text}
}

func (d DumpedWord) Validate() error {
	if d.Text == "" {
		return apperrors.InvalidArgument("dumped word %d: text must not be empty", d.ID)
	}
	return nil
}

// DumpedWordMapping is the flat record of one occurrence.
type DumpedWordMapping struct {
	WordID         int  `json:"word_id"`
	DocumentID     int  `json:"document_id"`
	FirstCharIndex int  `json:"first_char_index"`
	WordIndex      int  `json:"word_index"`
	Location       byte `json:"location"`
}

func NewDumpedWordMapping(wordID, documentID int, info BasicWordInfo) DumpedWordMapping {
	return DumpedWordMapping{
		WordID:         wordID,
		DocumentID:     documentID,
		FirstCharIndex: info.FirstCharIndex,
		WordIndex:      info.WordIndex,
		Location:       info.Location.Code(),
	}
}

// BasicWordInfo converts the mapping back into a position.
func (m DumpedWordMapping) BasicWordInfo() (BasicWordInfo, error) {
	loc, err := LocationFromCode(m.Location)
	if err != nil {
		return BasicWordInfo{}, err
	}
	return NewBasicWordInfo(m.FirstCharIndex, m.WordIndex, loc)
}

// DumpedChange is the delta produced by a single index mutation.
type DumpedChange struct {
	Document DumpedDocument      `json:"document"`
	Words    []DumpedWord        `json:"words"`
	Mappings []DumpedWordMapping `json:"mappings"`
}

// Dump is a complete flat image of an index.
type Dump struct {
	Documents []DumpedDocument    `json:"documents"`
	Words     []DumpedWord        `json:"words"`
	Mappings  []DumpedWordMapping `json:"mappings"`
}
