package curation

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/domain/domaintest"
)

var asOf = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

func defaultConfig() Config {
	return Config{MaxPerCategory: 10, EditorsChoiceSize: 10, PerFeedCap: 2, Threshold: 10}
}

func newGenerator(t *testing.T, cfg Config) *Generator {
	t.Helper()
	g, err := NewGenerator(domaintest.Taxonomy(), cfg)
	require.NoError(t, err)
	return g
}

func ranked(id, feed string, published time.Time, cat domain.CategoryID, relevance, final float64) domain.RankedArticle {
	return domain.RankedArticle{
		Article: domaintest.Article(id, feed, "Title "+id, "", published),
		Scores:  domain.CategoryScores{cat: relevance},
		Final:   domain.FinalScores{cat: final},
	}
}

func ids(entries []domain.ListEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ArticleID
	}
	return out
}

func TestGenerateTieBreaks(t *testing.T) {
	g := newGenerator(t, defaultConfig())
	older := asOf.Add(-48 * time.Hour)
	newer := asOf.Add(-time.Hour)

	list, err := g.Generate("2026-W11", []domain.RankedArticle{
		ranked("b", "f1", older, domaintest.Security, 50, 70),
		ranked("c", "f2", older, domaintest.Security, 50, 70),
		ranked("a", "f3", newer, domaintest.Security, 50, 70),
		ranked("z", "f4", older, domaintest.Security, 50, 90),
	}, asOf)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "b", "c"}, ids(list.Categories[domaintest.Security]))
}

func TestGenerateExcludesBelowThreshold(t *testing.T) {
	g := newGenerator(t, defaultConfig())

	list, err := g.Generate("2026-W11", []domain.RankedArticle{
		ranked("low", "f1", asOf, domaintest.AIML, 10, 99),
		ranked("ok", "f2", asOf, domaintest.AIML, 10.5, 40),
		{
			Article: domaintest.Article("none", "f3", "t", "", asOf),
			Scores:  domain.CategoryScores{},
			Final:   domain.FinalScores{domaintest.AIML: 100},
		},
	}, asOf)
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, ids(list.Categories[domaintest.AIML]))
	assert.Equal(t, []string{"ok"}, ids(list.EditorsChoice))
	assert.Len(t, list.Categories, domain.TaxonomySize)
	assert.NotNil(t, list.Categories[domaintest.Leadership])
	assert.Empty(t, list.Categories[domaintest.Leadership])
}

func TestGenerateCapsCategoryLength(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPerCategory = 3
	g := newGenerator(t, cfg)

	var in []domain.RankedArticle
	for i := 0; i < 6; i++ {
		in = append(in, ranked(fmt.Sprintf("a%d", i), fmt.Sprintf("f%d", i), asOf, domaintest.CareerGrowth, 50, float64(50+i)))
	}
	list, err := g.Generate("2026-W11", in, asOf)
	require.NoError(t, err)

	assert.Equal(t, []string{"a5", "a4", "a3"}, ids(list.Categories[domaintest.CareerGrowth]))
}

func TestEditorsChoiceDiversityCap(t *testing.T) {
	cfg := defaultConfig()
	cfg.EditorsChoiceSize = 4
	g := newGenerator(t, cfg)

	list, err := g.Generate("2026-W11", []domain.RankedArticle{
		ranked("big1", "big", asOf, domaintest.AIML, 80, 95),
		ranked("big2", "big", asOf, domaintest.AIML, 80, 94),
		ranked("big3", "big", asOf, domaintest.AIML, 80, 93),
		ranked("big4", "big", asOf, domaintest.AIML, 80, 92),
		ranked("small1", "small", asOf, domaintest.Security, 40, 60),
		ranked("other1", "other", asOf, domaintest.Leadership, 30, 50),
	}, asOf)
	require.NoError(t, err)

	assert.Equal(t, []string{"big1", "big2", "small1", "other1"}, ids(list.EditorsChoice))
	perFeed := map[string]int{}
	for _, e := range list.EditorsChoice {
		perFeed[e.FeedID]++
	}
	for feed, n := range perFeed {
		assert.LessOrEqual(t, n, cfg.PerFeedCap, feed)
	}
}

func TestEditorsChoiceMayRunShortUnderCap(t *testing.T) {
	g := newGenerator(t, defaultConfig())

	list, err := g.Generate("2026-W11", []domain.RankedArticle{
		ranked("a", "solo", asOf, domaintest.AIML, 80, 95),
		ranked("b", "solo", asOf, domaintest.AIML, 80, 94),
		ranked("c", "solo", asOf, domaintest.AIML, 80, 93),
	}, asOf)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids(list.EditorsChoice))
	assert.Len(t, list.Categories[domaintest.AIML], 3, "the cap only applies to editor's choice")
}

func TestEditorsChoiceUsesBestQualifyingCategory(t *testing.T) {
	g := newGenerator(t, defaultConfig())
	a := domain.RankedArticle{
		Article: domaintest.Article("multi", "f", "t", "", asOf),
		Scores:  domain.CategoryScores{domaintest.AIML: 60, domaintest.Security: 5, domaintest.Leadership: 40},
		Final:   domain.FinalScores{domaintest.AIML: 70, domaintest.Security: 99, domaintest.Leadership: 75},
	}

	list, err := g.Generate("2026-W11", []domain.RankedArticle{a}, asOf)
	require.NoError(t, err)

	require.Len(t, list.EditorsChoice, 1)
	assert.Equal(t, domaintest.Leadership, list.EditorsChoice[0].Category)
	assert.Equal(t, 75.0, list.EditorsChoice[0].FinalScore)
	assert.Equal(t, 40.0, list.EditorsChoice[0].Relevance)
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newGenerator(t, defaultConfig())
	cats := domaintest.Taxonomy().IDs()

	var in []domain.RankedArticle
	for i := 0; i < 40; i++ {
		cat := cats[i%len(cats)]
		in = append(in, ranked(
			fmt.Sprintf("art-%02d", i),
			fmt.Sprintf("feed-%d", i%5),
			asOf.Add(-time.Duration(i%3)*time.Hour),
			cat,
			float64(20+i%4*10),
			float64(50+i%7),
		))
	}

	first, err := g.Generate("2026-W11", in, asOf)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 5; run++ {
		shuffled := append([]domain.RankedArticle(nil), in...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		list, err := g.Generate("2026-W11", shuffled, asOf)
		require.NoError(t, err)
		got, err := json.Marshal(list)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := newGenerator(t, defaultConfig())

	_, err := g.Generate("", nil, asOf)
	assert.Error(t, err)

	dup := ranked("x", "f", asOf, domaintest.AIML, 50, 50)
	_, err = g.Generate("2026-W11", []domain.RankedArticle{dup, dup}, asOf)
	assert.Error(t, err)
}

func TestNewGeneratorValidatesConfig(t *testing.T) {
	_, err := NewGenerator(domaintest.Taxonomy(), Config{MaxPerCategory: 0, EditorsChoiceSize: 1, PerFeedCap: 1})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
