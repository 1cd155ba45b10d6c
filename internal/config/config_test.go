package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.AI.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.Classifier.MaxAttempts)
	assert.Equal(t, 2000, cfg.Classifier.MaxContentChars)
	assert.InDelta(t, 10.0, cfg.Classifier.Threshold, 1e-9)
	assert.Len(t, cfg.Categories, domain.TaxonomySize)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())

	w := cfg.Ranking.Weights
	assert.InDelta(t, 1.0, w.Relevance+w.Recency+w.Authority+w.Engagement, 1e-9)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
ai:
  requestsPerMinute: 20
  timeout: 5s
classifier:
  threshold: 15
  defaultScores:
    technical_excellence: 50
lists:
  perFeedCap: 3
scheduler:
  timezone: Europe/Berlin
feeds:
  - id: a
    url: https://a.example.org/rss
    authorityScore: 70
  - id: b
    url: https://b.example.org/rss
    status: inactive
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.AI.RequestsPerMinute)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 4, cfg.AI.MaxInFlight, "untouched fields keep defaults")
	assert.InDelta(t, 15.0, cfg.Classifier.Threshold, 1e-9)
	assert.Equal(t, 3, cfg.Lists.PerFeedCap)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Timezone)
	assert.NotNil(t, cfg.Scheduler.Location())
	require.Len(t, cfg.Feeds, 2)

	feeds := cfg.FeedList()
	assert.True(t, feeds[0].Active())
	assert.False(t, feeds[1].Active())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_RATE_LIMIT", "12")
	t.Setenv("AI_TIMEOUT", "45")
	t.Setenv("DATABASE_DSN", "file:other.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, 12, cfg.AI.RequestsPerMinute)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "file:other.db", cfg.Database.DSN)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")

	cases := map[string]string{
		"wrong category count": `
categories:
  - id: only_one
`,
		"duplicate category": `
categories:
  - {id: a}
  - {id: b}
  - {id: c}
  - {id: d}
  - {id: e}
  - {id: f}
  - {id: g}
  - {id: a}
`,
		"negative weight": `
ranking:
  weights: {relevance: -1, recency: 0.3, authority: 0.2, engagement: 0.1}
`,
		"zero weights": `
ranking:
  weights: {relevance: 0, recency: 0, authority: 0, engagement: 0}
`,
		"authority out of range": `
feeds:
  - id: a
    url: https://a.example.org/rss
    authorityScore: 120
`,
		"unknown default category": `
classifier:
  defaultScores:
    cooking: 40
`,
		"openai without key": `
ai:
  provider: openai
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
