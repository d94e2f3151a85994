package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CoerceJSON robustly recovers one JSON object from loosely structured model
// output: code fences are stripped, and when direct parsing fails the
// outermost matching brace pair is retried.
func CoerceJSON(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.Trim(text, "`")
		text = strings.TrimSpace(strings.TrimPrefix(text, "json"))
	}

	// Fast path.
	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return []byte(text), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}

	return nil, fmt.Errorf("no parsable JSON object in model output (%d bytes)", len(raw))
}

// ContentToString normalizes a chat message content value, which providers
// return either as a string or as a list of text blocks.
func ContentToString(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var b strings.Builder
		for _, block := range c {
			switch t := block.(type) {
			case string:
				b.WriteString(t)
			case map[string]any:
				if txt, ok := t["text"].(string); ok {
					b.WriteString(txt)
				}
			}
		}
		return b.String()
	default:
		return fmt.Sprint(content)
	}
}
