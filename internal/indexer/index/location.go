package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// WordLocation is the structural zone of a document a word was found in.
// Locations are ordered Title < Keywords < Content by their numeric code.
type WordLocation uint8

const (
	LocationTitle    WordLocation = 1
	LocationKeywords WordLocation = 2
	LocationContent  WordLocation = 3
)

var relativeRelevance = map[WordLocation]float64{
	LocationTitle:    4,
	LocationKeywords: 2,
	LocationContent:  1,
}

// LocationFromCode resolves a dump location code (1, 2 or 3).
func LocationFromCode(code byte) (WordLocation, error) {
	loc := WordLocation(code)
	if !loc.Valid() {
		return 0, apperrors.InvalidArgument("unknown word location code %d", code)
	}
	return loc, nil
}

// Valid reports whether l is one of the three known locations.
func (l WordLocation) Valid() bool {
	return l >= LocationTitle && l <= LocationContent
}

// Code returns the numeric code used in dump records.
func (l WordLocation) Code() byte {
	return byte(l)
}

// RelativeRelevance returns the weight a match in this location carries.
func (l WordLocation) RelativeRelevance() float64 {
	return relativeRelevance[l]
}

func (l WordLocation) String() string {
	switch l {
	case LocationTitle:
		return "title"
	case LocationKeywords:
		return "keywords"
	case LocationContent:
		return "content"
	default:
		return fmt.Sprintf("location(%d)", uint8(l))
	}
}
