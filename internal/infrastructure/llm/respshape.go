package llm

import (
	"encoding/json"
	"strings"
)

// shapeProbe inspects a decoded response and either returns its text payload
// or reports "not applicable". Probes are tried in fixed priority order so
// new response shapes extend the chain without touching callers.
type shapeProbe func(v any) (string, bool)

var probes = []shapeProbe{
	probePlainString,
	probeContent,
	probeTextField,
	probeChoices,
}

// ExtractText pulls a text payload out of a completion response of any of
// the supported shapes: a plain string, an object with content (optionally
// content.parts[].text), an object with a text field, or an OpenAI-style
// choices/message/content structure. Empty string means no probe applied.
func ExtractText(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// Not JSON at all: treat the body as the text itself.
		return strings.TrimSpace(string(raw))
	}
	for _, probe := range probes {
		if text, ok := probe(v); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}

func probePlainString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func probeContent(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	switch content := m["content"].(type) {
	case string:
		return content, true
	case map[string]any:
		parts, ok := content["parts"].([]any)
		if !ok || len(parts) == 0 {
			return "", false
		}
		if part, ok := parts[0].(map[string]any); ok {
			if text, ok := part["text"].(string); ok {
				return text, true
			}
		}
		if text, ok := parts[0].(string); ok {
			return text, true
		}
	}
	return "", false
}

func probeTextField(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := m["text"].(string)
	return text, ok
}

func probeChoices(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	if msg, ok := first["message"].(map[string]any); ok {
		if content, ok := msg["content"].(string); ok {
			return content, true
		}
	}
	if text, ok := first["text"].(string); ok {
		return text, true
	}
	return "", false
}
