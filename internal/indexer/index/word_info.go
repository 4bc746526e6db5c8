package index

import (
	"cmp"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// BasicWordInfo is the position of one occurrence: the index of its first
// character, its ordinal among the tokens of its location, and the location.
type BasicWordInfo struct {
	FirstCharIndex int          `json:"first_char_index"`
	WordIndex      int          `json:"word_index"`
	Location       WordLocation `json:"location"`
}

// NewBasicWordInfo validates and builds a BasicWordInfo.
func NewBasicWordInfo(firstCharIndex, wordIndex int, location WordLocation) (BasicWordInfo, error) {
	if firstCharIndex < 0 {
		return BasicWordInfo{}, apperrors.InvalidArgument("first char index must be non-negative, got %d", firstCharIndex)
	}
	if wordIndex < 0 {
		return BasicWordInfo{}, apperrors.InvalidArgument("word index must be non-negative, got %d", wordIndex)
	}
	if !location.Valid() {
		return BasicWordInfo{}, apperrors.InvalidArgument("invalid word location %d", location)
	}
	return BasicWordInfo{FirstCharIndex: firstCharIndex, WordIndex: wordIndex, Location: location}, nil
}

// Compare orders by first char index, then word index, then location code.
func (b BasicWordInfo) Compare(other BasicWordInfo) int {
	if c := cmp.Compare(b.FirstCharIndex, other.FirstCharIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(b.WordIndex, other.WordIndex); c != 0 {
		return c
	}
	return cmp.Compare(b.Location, other.Location)
}

func (b BasicWordInfo) Equal(other BasicWordInfo) bool {
	return b == other
}

// WordInfo is an occurrence together with the matched text.
type WordInfo struct {
	Text string `json:"text"`
	BasicWordInfo
}

// NewWordInfo validates and builds a WordInfo. Text must not be empty.
func NewWordInfo(text string, firstCharIndex, wordIndex int, location WordLocation) (WordInfo, error) {
	if text == "" {
		return WordInfo{}, apperrors.InvalidArgument("word text must not be empty")
	}
	basic, err := NewBasicWordInfo(firstCharIndex, wordIndex, location)
	if err != nil {
		return WordInfo{}, err
	}
	return WordInfo{Text: text, BasicWordInfo: basic}, nil
}

// Compare orders by text (case-sensitive) and then by position.
func (w WordInfo) Compare(other WordInfo) int {
	if c := strings.Compare(w.Text, other.Text); c != 0 {
		return c
	}
	return w.BasicWordInfo.Compare(other.BasicWordInfo)
}

func (w WordInfo) Equal(other WordInfo) bool {
	return w == other
}
