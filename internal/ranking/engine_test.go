package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/domain/domaintest"
)

var asOf = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(domaintest.Taxonomy(), DefaultWeights(), RecencyConfig{HalfLife: 7 * 24 * time.Hour})
	require.NoError(t, err)
	return e
}

func TestScoreWorkedExample(t *testing.T) {
	e := newEngine(t)
	article := domaintest.Article("a", "blog", "t", "c", asOf)
	feed := &domain.Feed{ID: "blog", AuthorityScore: 80}
	zero := 0.0

	final := e.Score(article, domain.CategoryScores{domaintest.TechnicalExcellence: 90}, Signals{Feed: feed, Engagement: &zero}, asOf)

	assert.InDelta(t, 82.0, final[domaintest.TechnicalExcellence], 1e-9)
	// zero relevance still gets a score from the shared signals
	assert.InDelta(t, 46.0, final[domaintest.Security], 1e-9)
	assert.Len(t, final, domain.TaxonomySize)
}

func TestScoreMissingSignalsDefaultToZero(t *testing.T) {
	e := newEngine(t)
	article := domaintest.Article("a", "unknown", "t", "c", asOf)

	final := e.Score(article, domain.CategoryScores{domaintest.AIML: 50}, Signals{}, asOf)
	assert.InDelta(t, 50*0.4+100*0.3, final[domaintest.AIML], 1e-9)
}

func TestRecencyCurve(t *testing.T) {
	e := newEngine(t)
	week := 7 * 24 * time.Hour

	assert.Equal(t, 100.0, e.Recency(asOf, asOf))
	assert.Equal(t, 100.0, e.Recency(asOf.Add(time.Hour), asOf), "future publish dates count as fresh")
	assert.InDelta(t, 50.0, e.Recency(asOf.Add(-week), asOf), 1e-9)
	assert.InDelta(t, 25.0, e.Recency(asOf.Add(-2*week), asOf), 1e-9)

	prev := 100.0
	for h := 0; h < 24*60; h += 7 {
		r := e.Recency(asOf.Add(-time.Duration(h)*time.Hour), asOf)
		assert.LessOrEqual(t, r, prev)
		assert.GreaterOrEqual(t, r, 0.0)
		prev = r
	}
}

func TestRecencyGrace(t *testing.T) {
	e, err := NewEngine(domaintest.Taxonomy(), DefaultWeights(), RecencyConfig{HalfLife: 24 * time.Hour, Grace: 48 * time.Hour})
	require.NoError(t, err)

	assert.Equal(t, 100.0, e.Recency(asOf.Add(-47*time.Hour), asOf))
	assert.InDelta(t, 50.0, e.Recency(asOf.Add(-72*time.Hour), asOf), 1e-9)
}

func TestScoreIsMonotonic(t *testing.T) {
	e := newEngine(t)
	id := domaintest.Security
	base := func(rel float64, age time.Duration, auth, eng float64) float64 {
		a := domaintest.Article("a", "f", "t", "c", asOf.Add(-age))
		return e.Score(a, domain.CategoryScores{id: rel}, Signals{Feed: &domain.Feed{AuthorityScore: auth}, Engagement: &eng}, asOf)[id]
	}

	for step := 0.0; step < 100; step += 10 {
		assert.LessOrEqual(t, base(step, time.Hour, 50, 50), base(step+10, time.Hour, 50, 50), "relevance")
		assert.LessOrEqual(t, base(50, time.Hour, step, 50), base(50, time.Hour, step+10, 50), "authority")
		assert.LessOrEqual(t, base(50, time.Hour, 50, step), base(50, time.Hour, 50, step+10), "engagement")
	}
	assert.LessOrEqual(t, base(50, 48*time.Hour, 50, 50), base(50, time.Hour, 50, 50), "recency")
}

func TestScoreClampsToRange(t *testing.T) {
	e, err := NewEngine(domaintest.Taxonomy(), Weights{Relevance: 1, Recency: 1, Authority: 1, Engagement: 1}, RecencyConfig{HalfLife: time.Hour})
	require.NoError(t, err)

	eng := 500.0
	final := e.Score(domaintest.Article("a", "f", "t", "c", asOf),
		domain.CategoryScores{domaintest.AIML: 100},
		Signals{Feed: &domain.Feed{AuthorityScore: 100}, Engagement: &eng}, asOf)
	assert.Equal(t, 100.0, final[domaintest.AIML])
}

func TestRankIsOrderIndependent(t *testing.T) {
	e := newEngine(t)
	feeds := domain.NewFeedDirectory([]domain.Feed{{ID: "f1", AuthorityScore: 70}, {ID: "f2", AuthorityScore: 30}})
	items := []domain.ClassifiedArticle{
		{Article: domaintest.Article("a", "f1", "t", "c", asOf.Add(-time.Hour)), Classification: domain.ClassificationResult{Scores: domain.CategoryScores{domaintest.AIML: 40}, Provenance: domain.ProvenanceAI}},
		{Article: domaintest.Article("b", "f2", "t", "c", asOf.Add(-72*time.Hour)), Classification: domain.ClassificationResult{Scores: domain.CategoryScores{domaintest.Security: 90}, Provenance: domain.ProvenanceKeyword}},
	}
	engagement := map[string]float64{"b": 20}

	forward := e.Rank(items, feeds, engagement, asOf)
	reversed := e.Rank([]domain.ClassifiedArticle{items[1], items[0]}, feeds, engagement, asOf)

	require.Len(t, forward, 2)
	assert.Equal(t, forward[0], reversed[1])
	assert.Equal(t, forward[1], reversed[0])
	assert.Equal(t, domain.ProvenanceKeyword, forward[1].Provenance)
	assert.Equal(t, asOf, forward[0].ComputedAt)
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.ErrorIs(t, Weights{Relevance: -0.1, Recency: 1}.Validate(), domain.ErrConfiguration)
	assert.ErrorIs(t, Weights{}.Validate(), domain.ErrConfiguration)

	_, err := NewEngine(domaintest.Taxonomy(), DefaultWeights(), RecencyConfig{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
