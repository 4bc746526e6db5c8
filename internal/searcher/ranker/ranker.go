// Package ranker scores search matches. A document's raw score is the sum
// of the location weights of its matches; scores are then expressed as a
// share of all qualifying documents and rescaled so the best scores 100.
package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

// MaxRelevance is the value the best result of a search is scaled to.
const MaxRelevance = 100.0

// Relevance is the score of a search result. It accumulates while unset,
// becomes a percentage once finalized and may then only be rescaled.
type Relevance struct {
	value     float64
	finalized bool
}

// NewRelevance returns a relevance with the given starting value.
func NewRelevance(value float64) (*Relevance, error) {
	if err := checkNonNegative("relevance", value); err != nil {
		return nil, err
	}
	return &Relevance{value: value}, nil
}

// SetValue replaces the raw value.
func (r *Relevance) SetValue(value float64) error {
	if r.finalized {
		return apperrors.InvalidState("relevance already finalized")
	}
	if err := checkNonNegative("relevance", value); err != nil {
		return err
	}
	r.value = value
	return nil
}

// Finalize converts the raw value into its percentage of total. A zero
// total yields zero.
func (r *Relevance) Finalize(total float64) error {
	if r.finalized {
		return apperrors.InvalidState("relevance already finalized")
	}
	if err := checkNonNegative("total", total); err != nil {
		return err
	}
	if total == 0 {
		r.value = 0
	} else {
		r.value = r.value / total * 100
	}
	r.finalized = true
	return nil
}

// NormalizeAfterFinalization multiplies the finalized value by factor.
func (r *Relevance) NormalizeAfterFinalization(factor float64) error {
	if !r.finalized {
		return apperrors.InvalidState("relevance not finalized")
	}
	if err := checkNonNegative("factor", factor); err != nil {
		return err
	}
	r.value *= factor
	return nil
}

func (r *Relevance) Value() float64 {
	return r.value
}

func (r *Relevance) IsFinalized() bool {
	return r.finalized
}

func checkNonNegative(name string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.InvalidArgument("%s must be a finite non-negative number, got %v", name, v)
	}
	return nil
}

// Score returns the raw relevance of a set of matches: the sum of the
// relative weight of each match's location.
func Score(matches []index.BasicWordInfo) float64 {
	total := 0.0
	for _, m := range matches {
		total += m.Location.RelativeRelevance()
	}
	return total
}

// Normalize finalizes every relevance against the sum of their raw values
// and rescales them so the highest equals MaxRelevance.
func Normalize(relevances []*Relevance) error {
	total := 0.0
	for _, r := range relevances {
		total += r.Value()
	}
	best := 0.0
	for _, r := range relevances {
		if err := r.Finalize(total); err != nil {
			return err
		}
		best = math.Max(best, r.Value())
	}
	if best == 0 {
		return nil
	}
	factor := MaxRelevance / best
	for _, r := range relevances {
		if err := r.NormalizeAfterFinalization(factor); err != nil {
			return err
		}
	}
	return nil
}
