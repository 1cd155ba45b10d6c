package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/config"
	"BlogCurator/internal/domain"
)

func TestChatGPTClientComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"security\": 91}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.OpenAIConfig{Endpoint: srv.URL, Model: "gpt-test", APIKey: "sk-test"}, srv.Client())
	text, err := client.Complete(context.Background(), domain.Prompt{System: "sys", User: "classify this"})
	require.NoError(t, err)

	assert.Equal(t, `{"security": 91}`, text)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "classify this", got.Messages[1].Content)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
}

func TestChatGPTClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.OpenAIConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"}, srv.Client())
	_, err := client.Complete(context.Background(), domain.Prompt{User: "x"})

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusTooManyRequests, svcErr.StatusCode)
}

func TestChatGPTClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.OpenAIConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"}, srv.Client())
	_, err := client.Complete(context.Background(), domain.Prompt{User: "x"})
	assert.Error(t, err)
}

func TestChatGPTClientMisconfigured(t *testing.T) {
	client := NewChatGPTClient(config.OpenAIConfig{}, nil)
	_, err := client.Complete(context.Background(), domain.Prompt{User: "x"})
	assert.Error(t, err)
}
