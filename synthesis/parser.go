// Package synthesis turns fused entities into an intelligence product:
// findings, insights and recommendations, each carrying source links. The
// text-generation collaborator returns free text which may be fenced in
// markdown or embedded in prose; parsing is tolerant, and a locally-generated
// schema-valid placeholder stands in when the primary path fails.
package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of model free text: markdown code
// fences are stripped, then everything from the first '{' through the last
// '}' is unmarshalled. Text with no braces or invalid content in between is
// an error; callers decide whether to fall back.
func ExtractJSON(text string) (map[string]any, error) {
	cleaned := stripFences(text)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in text")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("parse extracted JSON: %w", err)
	}
	return doc, nil
}

// stripFences removes markdown code fence lines (``` or ```json) so fenced
// blocks parse the same as bare JSON.
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
