// Package domaintest holds shared fixtures for tests across the curator packages.
package domaintest

import (
	"time"

	"BlogCurator/internal/domain"
)

// Category ids used by the fixture taxonomy.
const (
	TechnicalExcellence domain.CategoryID = "technical_excellence"
	CareerGrowth        domain.CategoryID = "career_growth"
	Leadership          domain.CategoryID = "leadership"
	DeveloperExperience domain.CategoryID = "developer_experience"
	AIML                domain.CategoryID = "ai_ml"
	Security            domain.CategoryID = "security"
	InfrastructureOps   domain.CategoryID = "infrastructure_ops"
	IndustryTrends      domain.CategoryID = "industry_trends"
)

// Categories returns the eight fixture categories in taxonomy order.
func Categories() []domain.Category {
	return []domain.Category{
		{ID: TechnicalExcellence, Name: "Technical Excellence", Description: "Architecture and performance", Keywords: []string{"architecture", "performance", "refactoring"}},
		{ID: CareerGrowth, Name: "Career Growth", Description: "Careers", Keywords: []string{"career", "interview", "mentorship"}},
		{ID: Leadership, Name: "Leadership", Description: "Managing teams", Keywords: []string{"leadership", "management", "hiring"}},
		{ID: DeveloperExperience, Name: "Developer Experience", Description: "Tooling", Keywords: []string{"tooling", "productivity", "ci/cd"}},
		{ID: AIML, Name: "AI & ML", Description: "Machine learning", Keywords: []string{"machine learning", "llm", "inference"}},
		{ID: Security, Name: "Security", Description: "Security practices", Keywords: []string{"security", "vulnerability", "oauth"}},
		{ID: InfrastructureOps, Name: "Infrastructure", Description: "Ops", Keywords: []string{"kubernetes", "observability", "incident"}},
		{ID: IndustryTrends, Name: "Industry Trends", Description: "Ecosystem news", Keywords: []string{"open source", "startup", "roadmap"}},
	}
}

// Taxonomy returns the validated fixture taxonomy. It panics on error since the
// fixture is static.
func Taxonomy() *domain.Taxonomy {
	tax, err := domain.NewTaxonomy(Categories())
	if err != nil {
		panic(err)
	}
	return tax
}

// Article builds a minimal article published at the given time.
func Article(id, feedID, title, content string, published time.Time) domain.Article {
	return domain.Article{
		ID:          id,
		Title:       title,
		URL:         "https://" + feedID + ".example.org/" + id,
		Content:     content,
		FeedID:      feedID,
		PublishedAt: published,
	}
}
