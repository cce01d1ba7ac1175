package prioritization

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseResults decodes and validates a result array from raw model output.
// Markdown code fences and any prose around the outermost JSON array are
// ignored. A top-level object with a single array field (for models that
// wrap their answer, e.g. {"tasks": [...]}) is accepted as well.
func ParseResults(content string) ([]Result, error) {
	body := extractJSON(content)
	if body == "" {
		return nil, fmt.Errorf("no JSON found in response: %w", ErrInvalidResponse)
	}

	var raw []rawResult
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		unwrapped, ok := unwrapObject(body)
		if !ok {
			return nil, fmt.Errorf("decode results: %v: %w", err, ErrInvalidResponse)
		}
		if err := json.Unmarshal(unwrapped, &raw); err != nil {
			return nil, fmt.Errorf("decode results: %v: %w", err, ErrInvalidResponse)
		}
	}
	return validateRaw(raw)
}

// extractJSON strips code fences and returns the outermost JSON array or
// object found in s.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start, end := strings.Index(s, "["), strings.LastIndex(s, "]"); start >= 0 && end > start {
		if obj := strings.Index(s, "{"); obj < 0 || start < obj {
			return s[start : end+1]
		}
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		return s[start : end+1]
	}
	return ""
}

// unwrapObject returns the sole array value of a JSON object.
func unwrapObject(body string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, false
	}
	var found json.RawMessage
	for _, v := range obj {
		trimmed := strings.TrimSpace(string(v))
		if !strings.HasPrefix(trimmed, "[") {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = v
	}
	return found, found != nil
}
