// Package relevance normalizes classifier scores before ranking.
package relevance

import (
	"errors"
	"fmt"
	"math"

	"BlogCurator/internal/domain"
)

// ErrInvalidScores reports score maps that do not fit the taxonomy.
var ErrInvalidScores = errors.New("invalid category scores")

// Normalizer clamps scores into [0,100] and optionally rescales them so their sum
// stays within SumCap. Categories are independent by default (SumCap 0).
type Normalizer struct {
	taxonomy *domain.Taxonomy
	sumCap   float64
}

func NewNormalizer(taxonomy *domain.Taxonomy, sumCap float64) (*Normalizer, error) {
	if taxonomy == nil {
		return nil, &domain.ConfigurationError{Field: "categories", Reason: "taxonomy is required"}
	}
	if sumCap < 0 || math.IsNaN(sumCap) {
		return nil, &domain.ConfigurationError{Field: "ranking.sumCap", Reason: "must be >= 0"}
	}
	return &Normalizer{taxonomy: taxonomy, sumCap: sumCap}, nil
}

// Normalize returns a new map; the input is left untouched.
func (n *Normalizer) Normalize(scores domain.CategoryScores) (domain.CategoryScores, error) {
	out := make(domain.CategoryScores, len(scores))
	sum := 0.0
	for id, v := range scores {
		if !n.taxonomy.Contains(id) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidScores, id)
		}
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: NaN score for %q", ErrInvalidScores, id)
		}
		v = domain.ClampScore(v)
		out[id] = v
		sum += v
	}

	if n.sumCap > 0 && sum > n.sumCap {
		factor := n.sumCap / sum
		for id, v := range out {
			out[id] = v * factor
		}
	}
	return out, nil
}
