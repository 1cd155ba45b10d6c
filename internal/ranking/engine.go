// Package ranking computes per-category FinalScores from relevance, recency,
// feed authority and engagement.
package ranking

import (
	"fmt"
	"math"
	"time"

	"BlogCurator/internal/domain"
)

// Weights is the linear combination applied to the four [0,100] signals.
type Weights struct {
	Relevance  float64
	Recency    float64
	Authority  float64
	Engagement float64
}

// DefaultWeights returns 0.4/0.3/0.2/0.1.
func DefaultWeights() Weights {
	return Weights{Relevance: 0.4, Recency: 0.3, Authority: 0.2, Engagement: 0.1}
}

// Validate requires finite non-negative weights with a positive sum.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"relevance", w.Relevance},
		{"recency", w.Recency},
		{"authority", w.Authority},
		{"engagement", w.Engagement},
	}
	for _, n := range named {
		if n.value < 0 || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return &domain.ConfigurationError{Field: "ranking.weights." + n.name, Reason: fmt.Sprintf("invalid weight %v", n.value)}
		}
	}
	if w.Relevance+w.Recency+w.Authority+w.Engagement <= 0 {
		return &domain.ConfigurationError{Field: "ranking.weights", Reason: "weights must sum to a positive value"}
	}
	return nil
}

// RecencyConfig shapes the exponential decay. Articles younger than Grace keep 100.
type RecencyConfig struct {
	HalfLife time.Duration
	Grace    time.Duration
}

// Signals are the per-article inputs that do not come from the classifier.
// A nil Feed means the feed is unknown; a nil Engagement means no data.
type Signals struct {
	Feed       *domain.Feed
	Engagement *float64
}

// Engine is pure: scores depend only on the article, its signals and asOf.
type Engine struct {
	taxonomy *domain.Taxonomy
	weights  Weights
	recency  RecencyConfig
}

func NewEngine(taxonomy *domain.Taxonomy, weights Weights, recency RecencyConfig) (*Engine, error) {
	if taxonomy == nil {
		return nil, &domain.ConfigurationError{Field: "categories", Reason: "taxonomy is required"}
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if recency.HalfLife <= 0 {
		return nil, &domain.ConfigurationError{Field: "ranking.recencyHalfLife", Reason: "must be positive"}
	}
	if recency.Grace < 0 {
		return nil, &domain.ConfigurationError{Field: "ranking.recencyGrace", Reason: "must not be negative"}
	}
	return &Engine{taxonomy: taxonomy, weights: weights, recency: recency}, nil
}

// Recency is 100 at age zero (or within the grace period) and halves every HalfLife.
// Publish times after asOf count as age zero.
func (e *Engine) Recency(published, asOf time.Time) float64 {
	age := asOf.Sub(published) - e.recency.Grace
	if age <= 0 {
		return 100
	}
	return domain.ClampScore(100 * math.Pow(0.5, float64(age)/float64(e.recency.HalfLife)))
}

// Score returns a FinalScore for every taxonomy category, including those with
// zero relevance.
func (e *Engine) Score(article domain.Article, scores domain.CategoryScores, signals Signals, asOf time.Time) domain.FinalScores {
	recency := e.Recency(article.PublishedAt, asOf)

	authority := 0.0
	if signals.Feed != nil {
		authority = domain.ClampScore(signals.Feed.AuthorityScore)
	}
	engagement := 0.0
	if signals.Engagement != nil {
		engagement = domain.ClampScore(*signals.Engagement)
	}

	shared := recency*e.weights.Recency + authority*e.weights.Authority + engagement*e.weights.Engagement

	final := make(domain.FinalScores, len(e.taxonomy.IDs()))
	for _, id := range e.taxonomy.IDs() {
		relevance := domain.ClampScore(scores.Get(id))
		final[id] = domain.ClampScore(relevance*e.weights.Relevance + shared)
	}
	return final
}

// Rank scores every article independently and keeps input order.
func (e *Engine) Rank(articles []domain.ClassifiedArticle, feeds domain.FeedDirectory, engagement map[string]float64, asOf time.Time) []domain.RankedArticle {
	ranked := make([]domain.RankedArticle, 0, len(articles))
	for _, ca := range articles {
		signals := Signals{Feed: feeds.Lookup(ca.Article.FeedID)}
		if v, ok := engagement[ca.Article.ID]; ok {
			signals.Engagement = &v
		}

		scores := ca.Classification.Scores.Clone()
		ranked = append(ranked, domain.RankedArticle{
			Article:    ca.Article,
			Scores:     scores,
			Final:      e.Score(ca.Article, scores, signals, asOf),
			Provenance: ca.Classification.Provenance,
			ComputedAt: asOf.UTC(),
		})
	}
	return ranked
}
