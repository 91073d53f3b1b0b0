package textnorm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFence     = regexp.MustCompile("(?m)^```(?:json)?[ \t]*|[ \t]*```$")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseLooseJSON recovers a JSON object from model output that may be
// wrapped in code fences, prose, or commentary. It keeps the span between
// the outermost braces, repairs trailing commas, and returns an empty map
// on any failure.
func ParseLooseJSON(raw string) map[string]any {
	text := strings.TrimSpace(codeFence.ReplaceAllString(strings.TrimSpace(raw), ""))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return map[string]any{}
	}
	text = trailingComma.ReplaceAllString(text[start:end+1], "$1")

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
