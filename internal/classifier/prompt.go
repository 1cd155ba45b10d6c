package classifier

import (
	"fmt"
	"strings"

	"BlogCurator/internal/domain"
)

// PromptOptions controls prompt construction. MaxContentChars is a fixed cut so
// prompts stay deterministic for a given fingerprint.
type PromptOptions struct {
	System          string
	MaxContentChars int
	Threshold       float64
}

// BuildPrompt renders the classification request for one article.
func BuildPrompt(article domain.Article, taxonomy *domain.Taxonomy, opts PromptOptions) domain.Prompt {
	var sb strings.Builder
	sb.WriteString("Analyze this developer blog article and score its relevance to each category (0-100).\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", normalizeText(article.Title))
	fmt.Fprintf(&sb, "Content: %s\n\n", truncateRunes(normalizeText(article.Content), opts.MaxContentChars))

	sb.WriteString("Categories:\n")
	for i, cat := range taxonomy.Categories() {
		fmt.Fprintf(&sb, "%d. %s (%s) - %s\n", i+1, cat.Name, cat.ID, cat.Description)
	}

	sb.WriteString("\nRespond with a single JSON object {\"category_id\": score, ...} using only the ids above.\n")
	fmt.Fprintf(&sb, "Only include categories with scores above %g.\n", opts.Threshold)

	return domain.Prompt{
		System:     opts.System,
		User:       sb.String(),
		Categories: taxonomy.IDs(),
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
