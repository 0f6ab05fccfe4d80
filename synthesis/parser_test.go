package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBare(t *testing.T) {
	doc, err := ExtractJSON(`{"executive_summary": "all clear"}`)
	require.NoError(t, err)
	assert.Equal(t, "all clear", doc["executive_summary"])
}

func TestExtractJSONFenced(t *testing.T) {
	text := "```json\n{\"executive_summary\": \"fenced\", \"key_findings\": []}\n```"
	doc, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "fenced", doc["executive_summary"])
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	text := `Here is the analysis you requested:

{"executive_summary": "embedded", "insights": [{"description": "x"}]}

Let me know if you need anything else.`
	doc, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "embedded", doc["executive_summary"])
}

func TestExtractJSONNestedBraces(t *testing.T) {
	text := `prefix {"outer": {"inner": "value"}} suffix`
	doc, err := ExtractJSON(text)
	require.NoError(t, err)
	inner, ok := doc["outer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", inner["inner"])
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("the model refused to answer")
	assert.ErrorContains(t, err, "no JSON object found")
}

func TestExtractJSONMalformed(t *testing.T) {
	_, err := ExtractJSON(`{"unterminated": `)
	assert.Error(t, err)
}

func TestFallbackTemplatesAreValidJSON(t *testing.T) {
	f := NewFallbackGenerator()
	for _, role := range []string{"intelligence_analyst", "report_writer", "totally_unknown_role"} {
		doc, err := ExtractJSON(f.Generate(role))
		require.NoError(t, err, "role %s", role)
		assert.Contains(t, doc, "executive_summary")
		assert.Contains(t, doc, "key_findings")
	}
}

func TestFallbackKeywordMatching(t *testing.T) {
	f := NewFallbackGenerator()
	assert.Contains(t, f.Generate("Intelligence_Analyst"), "Analyst synthesis degraded")
	assert.Contains(t, f.Generate("report_writer"), "Report generation degraded")
	assert.Contains(t, f.Generate("collector"), "Automated synthesis was unavailable")
}

func TestFallbackRegisterCustomTemplate(t *testing.T) {
	f := NewFallbackGenerator()
	f.Register("triage", `{"executive_summary": "triage placeholder", "key_findings": []}`)
	assert.Contains(t, f.Generate("triage_agent"), "triage placeholder")
}
