package usecase

import (
	"fmt"
	"strings"

	"BlogCurator/internal/domain"
)

// digestHeads is how many entries of each category list make it into the digest.
const digestHeads = 3

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")

// BuildDigest renders a reading list as a Telegram Markdown message: the editor's
// choice in full, then the head of every non-empty category list in taxonomy order.
func BuildDigest(list domain.ReadingList, taxonomy *domain.Taxonomy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Weekly reading list %s*\n", list.Period)

	if len(list.EditorsChoice) > 0 {
		b.WriteString("\n*Editor's choice*\n")
		writeEntries(&b, list.EditorsChoice, taxonomy)
	}

	var order []domain.CategoryID
	if taxonomy != nil {
		order = taxonomy.IDs()
	}
	for _, id := range order {
		entries := list.Categories[id]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n*%s*\n", markdownEscaper.Replace(categoryName(taxonomy, id)))
		if len(entries) > digestHeads {
			entries = entries[:digestHeads]
		}
		writeEntries(&b, entries, nil)
	}

	return b.String()
}

// writeEntries appends a numbered list; a non-nil taxonomy adds each entry's category.
func writeEntries(b *strings.Builder, entries []domain.ListEntry, taxonomy *domain.Taxonomy) {
	for i, e := range entries {
		title := markdownEscaper.Replace(strings.TrimSpace(e.Title))
		if title == "" {
			title = "untitled"
		}
		fmt.Fprintf(b, "%d. [%s](%s) (%.1f)", i+1, title, e.URL, e.FinalScore)
		if taxonomy != nil {
			fmt.Fprintf(b, " _%s_", markdownEscaper.Replace(categoryName(taxonomy, e.Category)))
		}
		b.WriteString("\n")
	}
}

func categoryName(taxonomy *domain.Taxonomy, id domain.CategoryID) string {
	if taxonomy != nil {
		if cat, ok := taxonomy.Lookup(id); ok && cat.Name != "" {
			return cat.Name
		}
	}
	return string(id)
}
