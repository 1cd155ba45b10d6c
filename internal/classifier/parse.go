package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"BlogCurator/internal/domain"
)

const maxRawInError = 256

// ParseScores validates an AI payload into category scores. The payload must hold a
// JSON object mapping known category ids to numbers in [0,100], optionally wrapped
// in {"scores": {...}} and surrounded by prose or a code fence.
func ParseScores(raw string, taxonomy *domain.Taxonomy) (domain.CategoryScores, error) {
	body, ok := extractObject(raw)
	if !ok {
		return nil, malformed("no JSON object in response", raw)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var decoded map[string]any
	if err := dec.Decode(&decoded); err != nil {
		return nil, malformed(fmt.Sprintf("invalid JSON: %v", err), raw)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after JSON object", raw)
	}

	if inner, ok := decoded["scores"].(map[string]any); ok && len(decoded) == 1 {
		decoded = inner
	}

	scores := make(domain.CategoryScores, len(decoded))
	for key, value := range decoded {
		id := domain.CategoryID(strings.TrimSpace(key))
		if !taxonomy.Contains(id) {
			return nil, malformed(fmt.Sprintf("unknown category %q", key), raw)
		}

		num, ok := value.(json.Number)
		if !ok {
			return nil, malformed(fmt.Sprintf("non-numeric score for %q", key), raw)
		}
		v, err := num.Float64()
		if err != nil {
			return nil, malformed(fmt.Sprintf("bad number for %q: %v", key, err), raw)
		}
		if v < 0 || v > 100 {
			return nil, malformed(fmt.Sprintf("score %g for %q outside [0,100]", v, key), raw)
		}
		scores[id] = v
	}
	return scores, nil
}

// extractObject strips code fences and returns the outermost {...} span.
func extractObject(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func malformed(reason, raw string) error {
	if len(raw) > maxRawInError {
		raw = raw[:maxRawInError]
	}
	return &domain.MalformedResponseError{Reason: reason, Raw: raw}
}
