// Package tokenizer turns raw text into positioned words. It splits on a
// fixed set of punctuation and symbol characters, strips diacritics when
// normalising words, and filters stop-words. Character indexes are counted
// in runes.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
)

const splitChars = " \t\n\r\v\f\u00a0" +
	".,;:!?'\"`()[]{}<>|\\/=+-*&%#@^~_" +
	"«»“”‘’„…–—·•¡¿"

var splitSet = func() map[rune]struct{} {
	set := make(map[rune]struct{}, len(splitChars))
	for _, r := range splitChars {
		set[r] = struct{}{}
	}
	return set
}()

var englishStopWords = []string{
	"a", "an", "and", "are", "as", "at",
	"be", "by", "for", "from", "has", "he",
	"in", "is", "it", "its", "of", "on",
	"or", "that", "the", "to", "was", "were",
	"will", "with", "this", "but", "they",
	"have", "had", "what", "when", "where",
	"who", "which", "their", "if", "each",
	"do", "not", "no", "so", "can",
}

// EnglishStopWords returns a copy of the built-in English stop-word list.
func EnglishStopWords() []string {
	out := make([]string, len(englishStopWords))
	copy(out, englishStopWords)
	return out
}

// IsSplitChar reports whether r separates words.
func IsSplitChar(r rune) bool {
	_, ok := splitSet[r]
	return ok
}

// SkipSplitChars returns the index of the first non-split character at or
// after start, or the length of text in runes when there is none.
func SkipSplitChars(start int, text string) int {
	return skipSplitRunes(start, []rune(text))
}

func skipSplitRunes(start int, rs []rune) int {
	if start < 0 {
		start = 0
	}
	for start < len(rs) && IsSplitChar(rs[start]) {
		start++
	}
	if start > len(rs) {
		return len(rs)
	}
	return start
}

// RemoveDiacriticsAndPunctuation strips combining marks from text. For a
// single word split characters are dropped as well and the result is
// lower-cased.
func RemoveDiacriticsAndPunctuation(text string, isSingleWord bool) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	if !isSingleWord {
		return stripped
	}
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if IsSplitChar(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NormalizeWord returns the catalog key of a single word.
func NormalizeWord(word string) string {
	return RemoveDiacriticsAndPunctuation(word, true)
}

// Tokenize splits text into words tagged with location. Words keep their
// original spelling; FirstCharIndex is the rune offset of the first
// character and WordIndex the zero-based ordinal of the word.
func Tokenize(text string, location index.WordLocation) []index.WordInfo {
	rs := []rune(text)
	words := make([]index.WordInfo, 0, len(rs)/6+1)
	wordIndex := 0
	pos := skipSplitRunes(0, rs)
	for pos < len(rs) {
		end := pos
		for end < len(rs) && !IsSplitChar(rs[end]) {
			end++
		}
		words = append(words, index.WordInfo{
			Text: string(rs[pos:end]),
			BasicWordInfo: index.BasicWordInfo{
				FirstCharIndex: pos,
				WordIndex:      wordIndex,
				Location:       location,
			},
		})
		wordIndex++
		pos = skipSplitRunes(end, rs)
	}
	return words
}

// RemoveStopWords drops every word whose text matches a stop-word, ignoring
// case. Surviving words keep their order and positions.
func RemoveStopWords(words []index.WordInfo, stopWords []string) []index.WordInfo {
	if len(stopWords) == 0 {
		out := make([]index.WordInfo, len(words))
		copy(out, words)
		return out
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, sw := range stopWords {
		set[strings.ToLower(sw)] = struct{}{}
	}
	out := make([]index.WordInfo, 0, len(words))
	for _, w := range words {
		if _, isStop := set[strings.ToLower(w.Text)]; isStop {
			continue
		}
		out = append(out, w)
	}
	return out
}
