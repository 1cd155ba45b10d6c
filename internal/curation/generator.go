// Package curation turns ranked articles into per-period reading lists.
package curation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"BlogCurator/internal/domain"
)

// Config shapes the generated lists.
type Config struct {
	MaxPerCategory    int
	EditorsChoiceSize int
	PerFeedCap        int
	Threshold         float64
}

// Validate requires positive list sizes and a threshold within the score range.
func (c Config) Validate() error {
	switch {
	case c.MaxPerCategory < 1:
		return &domain.ConfigurationError{Field: "lists.maxPerCategory", Reason: "must be at least 1"}
	case c.EditorsChoiceSize < 1:
		return &domain.ConfigurationError{Field: "lists.editorsChoiceSize", Reason: "must be at least 1"}
	case c.PerFeedCap < 1:
		return &domain.ConfigurationError{Field: "lists.perFeedCap", Reason: "must be at least 1"}
	case c.Threshold < 0 || c.Threshold > 100:
		return &domain.ConfigurationError{Field: "classifier.threshold", Reason: "must be within [0,100]"}
	}
	return nil
}

// Generator builds ReadingLists. Output depends only on its arguments.
type Generator struct {
	taxonomy *domain.Taxonomy
	cfg      Config
}

func NewGenerator(taxonomy *domain.Taxonomy, cfg Config) (*Generator, error) {
	if taxonomy == nil {
		return nil, &domain.ConfigurationError{Field: "categories", Reason: "taxonomy is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{taxonomy: taxonomy, cfg: cfg}, nil
}

// candidate is one article competing for a slot with a given score.
type candidate struct {
	article  *domain.RankedArticle
	category domain.CategoryID
	final    float64
}

// Generate builds the per-category lists and the editor's choice for period.
// Every taxonomy category is present in the result, possibly with no entries.
func (g *Generator) Generate(period string, ranked []domain.RankedArticle, asOf time.Time) (domain.ReadingList, error) {
	if strings.TrimSpace(period) == "" {
		return domain.ReadingList{}, fmt.Errorf("generate reading list: empty period")
	}

	seen := make(map[string]struct{}, len(ranked))
	for i := range ranked {
		id := ranked[i].Article.ID
		if _, dup := seen[id]; dup {
			return domain.ReadingList{}, fmt.Errorf("generate reading list: duplicate article %q", id)
		}
		seen[id] = struct{}{}
	}

	list := domain.ReadingList{
		Period:        period,
		GeneratedAt:   asOf.UTC(),
		Categories:    make(map[domain.CategoryID][]domain.ListEntry, domain.TaxonomySize),
		EditorsChoice: []domain.ListEntry{},
	}

	for _, id := range g.taxonomy.IDs() {
		list.Categories[id] = g.categoryList(id, ranked)
	}
	list.EditorsChoice = g.editorsChoice(ranked)

	return list, nil
}

func (g *Generator) categoryList(id domain.CategoryID, ranked []domain.RankedArticle) []domain.ListEntry {
	var pool []candidate
	for i := range ranked {
		ra := &ranked[i]
		if ra.Scores.Get(id) > g.cfg.Threshold {
			pool = append(pool, candidate{article: ra, category: id, final: ra.Final[id]})
		}
	}
	slices.SortFunc(pool, compareCandidates)

	entries := make([]domain.ListEntry, 0, min(len(pool), g.cfg.MaxPerCategory))
	for _, c := range pool {
		if len(entries) == g.cfg.MaxPerCategory {
			break
		}
		entries = append(entries, toEntry(c))
	}
	return entries
}

// editorsChoice ranks each article by its best qualifying category and fills slots
// in order, skipping candidates whose feed already reached PerFeedCap.
func (g *Generator) editorsChoice(ranked []domain.RankedArticle) []domain.ListEntry {
	var pool []candidate
	for i := range ranked {
		if best, ok := g.bestCategory(&ranked[i]); ok {
			pool = append(pool, best)
		}
	}
	slices.SortFunc(pool, compareCandidates)

	perFeed := make(map[string]int)
	entries := make([]domain.ListEntry, 0, min(len(pool), g.cfg.EditorsChoiceSize))
	for _, c := range pool {
		if len(entries) == g.cfg.EditorsChoiceSize {
			break
		}
		feed := c.article.Article.FeedID
		if perFeed[feed] >= g.cfg.PerFeedCap {
			continue
		}
		perFeed[feed]++
		entries = append(entries, toEntry(c))
	}
	return entries
}

// bestCategory picks the highest FinalScore among categories above the threshold;
// ties go to the earlier taxonomy category.
func (g *Generator) bestCategory(ra *domain.RankedArticle) (candidate, bool) {
	var best candidate
	found := false
	for _, id := range g.taxonomy.IDs() {
		if ra.Scores.Get(id) <= g.cfg.Threshold {
			continue
		}
		if !found || ra.Final[id] > best.final {
			best = candidate{article: ra, category: id, final: ra.Final[id]}
			found = true
		}
	}
	return best, found
}

// compareCandidates orders by FinalScore desc, PublishedAt desc, then article id asc.
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(b.final, a.final); c != 0 {
		return c
	}
	if c := b.article.Article.PublishedAt.Compare(a.article.Article.PublishedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.article.Article.ID, b.article.Article.ID)
}

func toEntry(c candidate) domain.ListEntry {
	a := c.article.Article
	return domain.ListEntry{
		ArticleID:   a.ID,
		Title:       a.Title,
		URL:         a.URL,
		Author:      a.Author,
		FeedID:      a.FeedID,
		PublishedAt: a.PublishedAt.UTC(),
		Category:    c.category,
		Relevance:   c.article.Scores.Get(c.category),
		FinalScore:  c.final,
	}
}
