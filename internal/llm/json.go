package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ParseJSONResponse extracts and parses the JSON object in an LLM
// response, tolerating markdown code fences and prose around the object.
// Returns nil when no parseable object is found.
func ParseJSONResponse(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	// Models sometimes wrap the object in commentary; take the outermost
	// braces.
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON: %v", err)
		return nil
	}

	return result
}

// StringField returns the string value for key, or fallback when the
// map is nil, the key is absent, or the value is not a string.
func StringField(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
