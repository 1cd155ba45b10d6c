package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/domain/domaintest"
)

func TestParseScoresAccepts(t *testing.T) {
	tax := domaintest.Taxonomy()
	cases := map[string]string{
		"plain":   `{"technical_excellence": 80, "security": 12.5}`,
		"fenced":  "```json\n{\"technical_excellence\": 80, \"security\": 12.5}\n```",
		"prose":   "Here are the scores:\n{\"technical_excellence\": 80, \"security\": 12.5}\nThanks!",
		"wrapped": `{"scores": {"technical_excellence": 80, "security": 12.5}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			scores, err := ParseScores(raw, tax)
			require.NoError(t, err)
			assert.Equal(t, domain.CategoryScores{
				domaintest.TechnicalExcellence: 80,
				domaintest.Security:            12.5,
			}, scores)
		})
	}
}

func TestParseScoresEmptyObjectIsValid(t *testing.T) {
	scores, err := ParseScores(`{}`, domaintest.Taxonomy())
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestParseScoresRejects(t *testing.T) {
	tax := domaintest.Taxonomy()
	cases := map[string]string{
		"not json":         "I cannot classify this article.",
		"truncated":        `{"technical_excellence": 80`,
		"unknown category": `{"cooking": 50}`,
		"string value":     `{"security": "high"}`,
		"null value":       `{"security": null}`,
		"negative":         `{"security": -1}`,
		"above range":      `{"security": 101}`,
		"nested object":    `{"security": {"value": 50}}`,
		"second object":    `{"technical_excellence": 50} {"bogus": "x"}`,
		"trailing garbage": `{"security": 40} }`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScores(raw, tax)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}
