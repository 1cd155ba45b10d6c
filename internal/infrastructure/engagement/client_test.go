package engagement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engagement", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			IDs []string `json:"article_ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body.IDs)

		_, _ = w.Write([]byte(`{"scores": {"a": 42.5}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", srv.Client())
	scores, err := client.Engagement(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 42.5}, scores)
}

func TestEngagementDisabled(t *testing.T) {
	scores, err := NewClient("", "", nil).Engagement(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestEngagementHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", srv.Client()).Engagement(context.Background(), []string{"a"})
	assert.Error(t, err)
}
