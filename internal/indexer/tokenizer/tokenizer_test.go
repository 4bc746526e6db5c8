package tokenizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
)

func word(text string, first, idx int, loc index.WordLocation) index.WordInfo {
	return index.WordInfo{Text: text, BasicWordInfo: index.BasicWordInfo{FirstCharIndex: first, WordIndex: idx, Location: loc}}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, there!", index.LocationContent)
	assert.Equal(t, []index.WordInfo{
		word("Hello", 0, 0, index.LocationContent),
		word("there", 7, 1, index.LocationContent),
	}, got)
}

func TestTokenizeEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []index.WordInfo
	}{
		{"empty", "", []index.WordInfo{}},
		{"only separators", " ,.;!? ", []index.WordInfo{}},
		{"leading separators", "...word", []index.WordInfo{word("word", 3, 0, index.LocationTitle)}},
		{"accented", "café über", []index.WordInfo{word("café", 0, 0, index.LocationTitle), word("über", 5, 1, index.LocationTitle)}},
		{"currency and digits", "$100 €5", []index.WordInfo{word("$100", 0, 0, index.LocationTitle), word("€5", 5, 1, index.LocationTitle)}},
		{"runs of separators", "a -- b", []index.WordInfo{word("a", 0, 0, index.LocationTitle), word("b", 5, 1, index.LocationTitle)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.text, index.LocationTitle))
		})
	}
}

func TestTokenizeIsDense(t *testing.T) {
	text := "The quick, brown fox; jumps over (the) lazy dog."
	words := Tokenize(text, index.LocationContent)
	rs := []rune(text)
	for i, w := range words {
		assert.Equal(t, i, w.WordIndex)
		assert.NotEmpty(t, w.Text)
		assert.Equal(t, w.Text, string(rs[w.FirstCharIndex:w.FirstCharIndex+len([]rune(w.Text))]))
	}
	assert.Len(t, words, 9)
}

func TestIsSplitChar(t *testing.T) {
	for _, r := range splitChars {
		assert.True(t, IsSplitChar(r), "expected %q to be a split char", r)
	}
	for _, r := range "abcXYZ0189àéîõüçñßøæ$€£¥" {
		assert.False(t, IsSplitChar(r), "expected %q to be a word char", r)
	}
}

func TestSkipSplitChars(t *testing.T) {
	assert.Equal(t, 0, SkipSplitChars(0, "word"))
	assert.Equal(t, 3, SkipSplitChars(0, " ,.word"))
	assert.Equal(t, 6, SkipSplitChars(4, "abc ; x"))
	assert.Equal(t, 4, SkipSplitChars(0, " .,;"))
	assert.Equal(t, 2, SkipSplitChars(5, "ab"))
}

func TestRemoveDiacriticsAndPunctuation(t *testing.T) {
	assert.Equal(t, "Creme Brulee, s'il vous plait", RemoveDiacriticsAndPunctuation("Crème Brûlée, s'il vous plaît", false))
	assert.Equal(t, "sil", RemoveDiacriticsAndPunctuation("S'il", true))
	assert.Equal(t, "naive", NormalizeWord("Naïve"))
	assert.Equal(t, "uber", NormalizeWord("ÜBER"))
	assert.Equal(t, "$100", NormalizeWord("$100"))
}

func TestRemoveStopWords(t *testing.T) {
	words := Tokenize("This is some content", index.LocationContent)
	filtered := RemoveStopWords(words, []string{"THIS", "is"})
	require.Len(t, filtered, 2)
	assert.Equal(t, word("some", 8, 2, index.LocationContent), filtered[0])
	assert.Equal(t, word("content", 13, 3, index.LocationContent), filtered[1])

	unchanged := RemoveStopWords(words, nil)
	assert.Equal(t, words, unchanged)
	assert.Empty(t, RemoveStopWords(nil, []string{"a"}))
}

func TestEnglishStopWordsIsACopy(t *testing.T) {
	list := EnglishStopWords()
	require.NotEmpty(t, list)
	list[0] = strings.ToUpper(list[0])
	assert.NotEqual(t, list[0], EnglishStopWords()[0])
}

func BenchmarkTokenize(b *testing.B) {
	base := "Wiki pages, namespaces & revisions: créer une page, naïve café! "
	for _, size := range []int{64, 1024, 16384} {
		text := strings.Repeat(base, size/len(base)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Tokenize(text, index.LocationContent)
			}
		})
	}
}

func BenchmarkNormalizeWordParallel(b *testing.B) {
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = NormalizeWord("Crème-Brûlée")
		}
	})
}
