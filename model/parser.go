package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")

// ExtractJSON extracts a JSON object from model response text. It handles the
// common output patterns: plain JSON, JSON wrapped in markdown code fences,
// and JSON embedded in surrounding prose (located via brace matching).
func ExtractJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}

	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
	}

	if obj := findJSONObject(text); obj != nil {
		return obj, nil
	}

	return nil, fmt.Errorf("could not extract JSON object from model response: %s", truncate(text, 200))
}

// findJSONObject finds the first valid JSON object in text by brace matching,
// skipping braces inside string literals.
func findJSONObject(text string) map[string]any {
	start := strings.IndexByte(text, '{')
	for start != -1 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = !inString
			case '{':
				if !inString {
					depth++
				}
			case '}':
				if inString {
					continue
				}
				depth--
				if depth == 0 {
					var obj map[string]any
					if err := json.Unmarshal([]byte(text[start:i+1]), &obj); err == nil {
						return obj
					}
					i = len(text) // abandon this start, try the next brace
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next == -1 {
			return nil
		}
		start = start + 1 + next
	}
	return nil
}

// StringField returns obj[key] as a string, or fallback when absent or of a
// different type.
func StringField(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// SliceField returns obj[key] as a []any, or nil.
func SliceField(obj map[string]any, key string) []any {
	v, _ := obj[key].([]any)
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
