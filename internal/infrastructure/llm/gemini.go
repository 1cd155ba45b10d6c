package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"BlogCurator/internal/config"
	"BlogCurator/internal/domain"
	"BlogCurator/internal/ports"
)

// GeminiClient implements ports.Completer on the Gemini API with a structured
// JSON response schema derived from the prompt's categories.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ ports.Completer = (*GeminiClient)(nil)

// NewGeminiClient builds a Gemini backend. baseURL and httpClient are optional and
// mostly useful for pointing the SDK at a test server.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, baseURL string, httpClient *http.Client) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Field: "ai.gemini.apiKey", Reason: "required"}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Name identifies the backend in logs and metrics.
func (g *GeminiClient) Name() string {
	return "gemini"
}

// Complete sends a single generateContent call and returns the concatenated text parts.
func (g *GeminiClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	temperature := float32(0)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(safePrompt(prompt.System), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    scoreSchema(prompt.Categories),
		Temperature:       &temperature,
	}

	content := genai.NewContentFromText(prompt.User, genai.RoleUser)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, genCfg)
	if err != nil {
		return "", &domain.ServiceError{Err: fmt.Errorf("gemini generate content: %w", err)}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// scoreSchema describes {"<category>": number} with every category optional.
func scoreSchema(categories []domain.CategoryID) *genai.Schema {
	if len(categories) == 0 {
		return nil
	}

	props := make(map[string]*genai.Schema, len(categories))
	for _, id := range categories {
		props[string(id)] = &genai.Schema{
			Type:        genai.TypeNumber,
			Description: "relevance 0-100",
		}
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
	}
}
