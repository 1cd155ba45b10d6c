package relevance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/domain/domaintest"
)

func TestNormalizeClamps(t *testing.T) {
	n, err := NewNormalizer(domaintest.Taxonomy(), 0)
	require.NoError(t, err)

	in := domain.CategoryScores{domaintest.Security: 140, domaintest.AIML: -5, domaintest.Leadership: 55}
	out, err := n.Normalize(in)
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryScores{domaintest.Security: 100, domaintest.AIML: 0, domaintest.Leadership: 55}, out)
	assert.Equal(t, 140.0, in[domaintest.Security], "input is not mutated")
}

func TestNormalizeIndependentByDefault(t *testing.T) {
	n, err := NewNormalizer(domaintest.Taxonomy(), 0)
	require.NoError(t, err)

	out, err := n.Normalize(domain.CategoryScores{domaintest.Security: 90, domaintest.AIML: 90})
	require.NoError(t, err)
	assert.Equal(t, 180.0, out[domaintest.Security]+out[domaintest.AIML])
}

func TestNormalizeAppliesSumCap(t *testing.T) {
	n, err := NewNormalizer(domaintest.Taxonomy(), 100)
	require.NoError(t, err)

	out, err := n.Normalize(domain.CategoryScores{domaintest.Security: 75, domaintest.AIML: 25, domaintest.Leadership: 100})
	require.NoError(t, err)
	assert.InDelta(t, 37.5, out[domaintest.Security], 1e-9)
	assert.InDelta(t, 12.5, out[domaintest.AIML], 1e-9)
	assert.InDelta(t, 50, out[domaintest.Leadership], 1e-9)

	under, err := n.Normalize(domain.CategoryScores{domaintest.Security: 60})
	require.NoError(t, err)
	assert.Equal(t, 60.0, under[domaintest.Security])
}

func TestNormalizeEmptyMap(t *testing.T) {
	n, err := NewNormalizer(domaintest.Taxonomy(), 0)
	require.NoError(t, err)

	out, err := n.Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	n, err := NewNormalizer(domaintest.Taxonomy(), 0)
	require.NoError(t, err)

	_, err = n.Normalize(domain.CategoryScores{"cooking": 10})
	assert.ErrorIs(t, err, ErrInvalidScores)

	_, err = n.Normalize(domain.CategoryScores{domaintest.AIML: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidScores)
}

func TestNewNormalizerRejectsNegativeCap(t *testing.T) {
	_, err := NewNormalizer(domaintest.Taxonomy(), -1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
