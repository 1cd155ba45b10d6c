package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"BlogCurator/internal/domain/domaintest"
)

func TestKeywordScores(t *testing.T) {
	tax := domaintest.Taxonomy()
	a := domaintest.Article("a", "f", "Architecture notes",
		"Our architecture review focused on performance. Also: hiring.", fixedNow)

	scores := KeywordScores(a, tax, 6)

	// architecture: title 2 + body 1, performance: body 1
	assert.InDelta(t, 4*100.0/6, scores[domaintest.TechnicalExcellence], 1e-9)
	assert.InDelta(t, 100.0/6, scores[domaintest.Leadership], 1e-9)
	assert.NotContains(t, scores, domaintest.Security)
}

func TestKeywordScoresSaturates(t *testing.T) {
	a := domaintest.Article("a", "f", "Architecture performance refactoring",
		"architecture performance refactoring", fixedNow)

	scores := KeywordScores(a, domaintest.Taxonomy(), 6)
	assert.Equal(t, 100.0, scores[domaintest.TechnicalExcellence])
}

func TestKeywordScoresMatchesWholeWords(t *testing.T) {
	a := domaintest.Article("a", "f", "", "The careerist llms talk about securityish things", fixedNow)

	scores := KeywordScores(a, domaintest.Taxonomy(), 6)
	assert.Empty(t, scores)
}

func TestContainsTerm(t *testing.T) {
	assert.True(t, containsTerm("we use ci/cd daily", "ci/cd"))
	assert.True(t, containsTerm("machine learning.", "machine learning"))
	assert.False(t, containsTerm("preperformance", "performance"))
	assert.True(t, containsTerm("preperformance performance", "performance"))
	assert.False(t, containsTerm("", "x"))
}
