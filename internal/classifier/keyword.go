package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"BlogCurator/internal/domain"
)

const titleWeight = 2

// KeywordScores scores every category by its distinct keyword matches. A title
// match counts titleWeight, a body match counts one; saturation weighted matches
// map to 100. Categories with no match are omitted.
func KeywordScores(article domain.Article, taxonomy *domain.Taxonomy, saturation float64) domain.CategoryScores {
	if saturation <= 0 {
		saturation = 1
	}

	title := strings.ToLower(normalizeText(article.Title))
	body := strings.ToLower(normalizeText(article.Content))

	scores := make(domain.CategoryScores)
	for _, cat := range taxonomy.Categories() {
		weighted := 0
		seen := make(map[string]struct{}, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}

			if containsTerm(title, kw) {
				weighted += titleWeight
			}
			if containsTerm(body, kw) {
				weighted++
			}
		}
		if weighted > 0 {
			scores[cat.ID] = domain.ClampScore(float64(weighted) * 100 / saturation)
		}
	}
	return scores
}

// containsTerm reports whether term occurs in text on word boundaries.
func containsTerm(text, term string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
