package synthesis

import (
	"strings"
	"sync"
)

// FallbackGenerator serves locally-generated, schema-valid placeholder JSON
// when the primary generation path fails. Templates are keyed by role
// keyword; a role matches when it contains the keyword (case-insensitive).
// The fallback is never the primary path: callers consult it only after the
// model call or its output parsing has failed.
type FallbackGenerator struct {
	mu        sync.RWMutex
	templates map[string]string
}

const defaultTemplate = `{
  "executive_summary": "Automated synthesis was unavailable; this placeholder summarizes collected data without model-generated analysis.",
  "key_findings": [
    {
      "description": "Collected records are available but automated analysis could not be generated",
      "significance": "low",
      "confidence": 0.3,
      "source_links": []
    }
  ],
  "insights": [],
  "recommendations": [
    {
      "description": "Rerun synthesis when the text-generation provider is available",
      "significance": "medium",
      "confidence": 0.5,
      "source_links": []
    }
  ]
}`

var builtinTemplates = map[string]string{
	"analyst": `{
  "executive_summary": "Analyst synthesis degraded to placeholder output; entity data was fused but not interpreted.",
  "key_findings": [
    {
      "description": "Fused entities await analyst review; automated interpretation failed",
      "significance": "low",
      "confidence": 0.3,
      "source_links": []
    }
  ],
  "insights": [],
  "recommendations": []
}`,
	"report": `{
  "executive_summary": "Report generation degraded to placeholder output.",
  "key_findings": [],
  "insights": [],
  "recommendations": [
    {
      "description": "Regenerate the report once the text-generation provider recovers",
      "significance": "medium",
      "confidence": 0.5,
      "source_links": []
    }
  ]
}`,
}

// NewFallbackGenerator creates a registry seeded with the built-in templates.
func NewFallbackGenerator() *FallbackGenerator {
	templates := make(map[string]string, len(builtinTemplates))
	for k, v := range builtinTemplates {
		templates[k] = v
	}
	return &FallbackGenerator{templates: templates}
}

// Register adds or replaces the template for a role keyword.
func (f *FallbackGenerator) Register(roleKeyword, template string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[strings.ToLower(roleKeyword)] = template
}

// Generate returns the placeholder JSON for the given role. Keyword matching
// is substring-based so "intelligence_analyst" matches the "analyst"
// template; unmatched roles get the generic placeholder.
func (f *FallbackGenerator) Generate(role string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	lower := strings.ToLower(role)
	for keyword, template := range f.templates {
		if strings.Contains(lower, keyword) {
			return template
		}
	}
	return defaultTemplate
}
