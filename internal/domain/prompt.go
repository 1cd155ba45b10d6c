package domain

import "time"

// Prompt is a structured request to the classification service.
type Prompt struct {
	System string
	User   string
	// Categories lets schema-aware backends constrain the response shape.
	Categories []CategoryID
}

// RawResponse is a complete, unparsed payload returned by the AI service.
type RawResponse struct {
	Text    string
	Backend string
	Latency time.Duration
}
