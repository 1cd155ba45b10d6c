package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BlogCurator/internal/ports"
)

// Client talks to an external engagement service (backlinks, social shares).
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.EngagementSource = (*Client)(nil)

// NewClient creates a reusable HTTP client. An empty endpoint disables lookups.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     httpClient,
	}
}

// Engagement returns scores in [0,100] keyed by article id. Ids the service does
// not know are simply absent.
func (c *Client) Engagement(ctx context.Context, articleIDs []string) (map[string]float64, error) {
	if c.endpoint == "" || len(articleIDs) == 0 {
		return map[string]float64{}, nil
	}

	payload := map[string]any{"article_ids": articleIDs}

	var resp struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := c.post(ctx, "/engagement", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Scores == nil {
		resp.Scores = map[string]float64{}
	}
	return resp.Scores, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
