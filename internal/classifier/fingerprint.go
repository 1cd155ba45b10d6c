// Package classifier turns article text into validated category scores, with
// caching, bounded retries against the AI service and keyword/default fallback.
package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"

	"BlogCurator/internal/domain"
)

// Fingerprint hashes the normalized title and content. Articles that differ only in
// Unicode composition or whitespace share a fingerprint.
func Fingerprint(article domain.Article) domain.Fingerprint {
	h := sha256.New()
	h.Write([]byte(normalizeText(article.Title)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeText(article.Content)))
	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
