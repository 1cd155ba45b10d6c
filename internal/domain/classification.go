package domain

import (
	"math"
	"time"
)

// Fingerprint is the content hash used as the classification cache key.
type Fingerprint string

// CategoryScores maps categories to relevance in [0,100]. An empty map is valid.
type CategoryScores map[CategoryID]float64

// Clone returns an independent copy.
func (s CategoryScores) Clone() CategoryScores {
	out := make(CategoryScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Get returns the score for id, 0 when absent.
func (s CategoryScores) Get(id CategoryID) float64 {
	return s[id]
}

// Above returns the entries strictly greater than threshold.
func (s CategoryScores) Above(threshold float64) CategoryScores {
	out := make(CategoryScores, len(s))
	for k, v := range s {
		if v > threshold {
			out[k] = v
		}
	}
	return out
}

// Provenance records which tier produced a classification.
type Provenance string

const (
	ProvenanceAI      Provenance = "ai"
	ProvenanceKeyword Provenance = "fallback-keyword"
	ProvenanceDefault Provenance = "fallback-default"
)

// Degraded reports whether the classification came from a fallback tier.
func (p Provenance) Degraded() bool {
	return p == ProvenanceKeyword || p == ProvenanceDefault
}

// ClassificationResult is the immutable outcome of classifying one article.
type ClassificationResult struct {
	ArticleID      string         `json:"article_id"`
	Fingerprint    Fingerprint    `json:"fingerprint"`
	Scores         CategoryScores `json:"scores"`
	Provenance     Provenance     `json:"provenance"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
	ClassifiedAt   time.Time      `json:"classified_at"`
}

// ClassifiedArticle pairs an article with its classification for storage and curation.
type ClassifiedArticle struct {
	Article        Article              `json:"article"`
	Classification ClassificationResult `json:"classification"`
}

// FinalScores maps every taxonomy category to its FinalScore in [0,100].
type FinalScores map[CategoryID]float64

// RankedArticle is the Ranking Engine output for one article at a fixed evaluation time.
type RankedArticle struct {
	Article    Article        `json:"article"`
	Scores     CategoryScores `json:"scores"`
	Final      FinalScores    `json:"final"`
	Provenance Provenance     `json:"provenance"`
	ComputedAt time.Time      `json:"computed_at"`
}

// ListEntry is one article placed in a reading list.
type ListEntry struct {
	ArticleID   string     `json:"article_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Author      string     `json:"author,omitempty"`
	FeedID      string     `json:"feed_id"`
	PublishedAt time.Time  `json:"published_at"`
	Category    CategoryID `json:"category"`
	Relevance   float64    `json:"relevance"`
	FinalScore  float64    `json:"final_score"`
}

// ReadingList is the immutable result of one curation run for a period.
type ReadingList struct {
	Period        string                     `json:"period"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	Categories    map[CategoryID][]ListEntry `json:"categories"`
	EditorsChoice []ListEntry                `json:"editors_choice"`
}

// Clamp bounds v into [lo, hi]; NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds v into the [0,100] score range.
func ClampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}
