package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/intelmesh/intelmesh/agent"
	"github.com/intelmesh/intelmesh/core"
	"github.com/intelmesh/intelmesh/fusion"
	"github.com/intelmesh/intelmesh/logging"
	"github.com/intelmesh/intelmesh/model"
	"github.com/intelmesh/intelmesh/quality"
)

// Product is the synthesized intelligence output: an executive summary plus
// claims grouped by kind. Degraded marks products built from the fallback
// placeholder instead of model output.
type Product struct {
	ExecutiveSummary string          `json:"executiveSummary"`
	KeyFindings      []quality.Claim `json:"keyFindings"`
	Insights         []quality.Claim `json:"insights"`
	Recommendations  []quality.Claim `json:"recommendations"`
	Degraded         bool            `json:"degraded"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// Claims returns every claim in the product, findings first, for compliance
// validation.
func (p *Product) Claims() []quality.Claim {
	claims := make([]quality.Claim, 0, len(p.KeyFindings)+len(p.Insights)+len(p.Recommendations))
	claims = append(claims, p.KeyFindings...)
	claims = append(claims, p.Insights...)
	claims = append(claims, p.Recommendations...)
	return claims
}

// Options configures a Synthesizer.
type Options struct {
	// Role keys the fallback template and identifies the agent in logs.
	Role string

	// Timeout and RetryAttempts configure the underlying execution lifecycle.
	Timeout       time.Duration
	RetryAttempts int

	// Fallback serves placeholder output when generation or parsing fails.
	// Defaults to the built-in registry.
	Fallback *FallbackGenerator

	// MaxEntityLinks caps how many pooled entity links attach to a claim
	// that arrived without its own. Default 3.
	MaxEntityLinks int

	// Logger for synthesis diagnostics.
	Logger logging.Logger
}

// Synthesizer turns fused entities into a Product through the
// text-generation collaborator. It runs inside the standard agent lifecycle,
// so generation failures surface as structured results rather than errors.
type Synthesizer struct {
	generator model.Generator
	fallback  *FallbackGenerator
	opts      Options
	exec      *agent.Executor
	logger    logging.Logger
}

// New creates a Synthesizer around the given generator.
func New(generator model.Generator, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		Role:           "intelligence_analyst",
		Timeout:        60 * time.Second,
		RetryAttempts:  2,
		MaxEntityLinks: 3,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Fallback == nil {
		opts.Fallback = NewFallbackGenerator()
	}

	s := &Synthesizer{
		generator: generator,
		fallback:  opts.Fallback,
		opts:      opts,
		logger:    opts.Logger,
	}
	s.exec = agent.New(s.unit, func(o *agent.Options) {
		o.Name = opts.Role
		o.Timeout = opts.Timeout
		o.RetryAttempts = opts.RetryAttempts
		o.RequiredFields = []string{"executive_summary", "key_findings"}
		o.Validate = validateInput
		o.Logger = opts.Logger
	})
	return s
}

// Synthesize produces a Product from the fusion output. The returned result
// carries the lifecycle outcome; the product is non-nil only on success.
func (s *Synthesizer) Synthesize(ctx context.Context, fused *fusion.Result, objective string) (*Product, core.AgentResult) {
	input := map[string]any{
		"task":      "synthesize intelligence product",
		"objective": objective,
		"fused":     fused,
	}
	result := s.exec.Execute(ctx, input)
	if !result.Success {
		return nil, result
	}
	product, _ := result.Data["product"].(*Product)
	return product, result
}

// Status exposes the underlying executor snapshot.
func (s *Synthesizer) Status() agent.Status { return s.exec.Status() }

func validateInput(input map[string]any) error {
	fused, ok := input["fused"].(*fusion.Result)
	if ok && fused != nil && fused.CollectionSuccess {
		return nil
	}
	return &core.ValidationError{Reason: "fusion output missing or failed"}
}

// unit is the synthesis unit of work: prompt the generator, extract the JSON
// product, and fall back to the placeholder registry when either step fails.
// A placeholder that itself cannot be parsed is unrecoverable.
func (s *Synthesizer) unit(ctx context.Context, input map[string]any) (map[string]any, error) {
	fused := input["fused"].(*fusion.Result)
	objective, _ := input["objective"].(string)

	degraded := false
	text, err := s.generator.Generate(ctx, buildPrompt(objective, fused))
	var doc map[string]any
	if err == nil {
		doc, err = ExtractJSON(text)
	}
	if err != nil {
		s.logger.Warn("primary generation failed, using fallback",
			"role", s.opts.Role, "error", err.Error())
		degraded = true
		doc, err = ExtractJSON(s.fallback.Generate(s.opts.Role))
		if err != nil {
			return nil, &core.FatalError{Cause: fmt.Errorf("fallback output unparseable: %w", err)}
		}
	}

	product := s.buildProduct(doc, fused, degraded)

	output := map[string]any{
		"executive_summary": product.ExecutiveSummary,
		"key_findings":      doc["key_findings"],
		"insights":          doc["insights"],
		"recommendations":   doc["recommendations"],
		"product":           product,
		"degraded":          degraded,
	}
	if links := claimLinks(product); len(links) > 0 {
		output["sources"] = links
	}
	return output, nil
}

// buildProduct converts the parsed document into a Product and attaches
// pooled entity links to claims that arrived without their own.
func (s *Synthesizer) buildProduct(doc map[string]any, fused *fusion.Result, degraded bool) *Product {
	product := &Product{
		KeyFindings:     parseClaims(doc["key_findings"]),
		Insights:        parseClaims(doc["insights"]),
		Recommendations: parseClaims(doc["recommendations"]),
		Degraded:        degraded,
		GeneratedAt:     time.Now().UTC(),
	}
	if summary, ok := doc["executive_summary"].(string); ok {
		product.ExecutiveSummary = summary
	}

	pool := entityLinks(fused.Entities)
	if len(pool) > s.opts.MaxEntityLinks {
		pool = pool[:s.opts.MaxEntityLinks]
	}
	if len(pool) > 0 {
		backfillLinks(product.KeyFindings, pool)
		backfillLinks(product.Insights, pool)
		backfillLinks(product.Recommendations, pool)
	}
	return product
}

func backfillLinks(claims []quality.Claim, pool []string) {
	for i := range claims {
		if len(claims[i].SourceLinks) == 0 {
			claims[i].SourceLinks = append([]string{}, pool...)
		}
	}
}

// parseClaims converts a raw JSON array into claims, tolerating partial
// documents: missing arrays yield nil, malformed elements are skipped.
func parseClaims(v any) []quality.Claim {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var claims []quality.Claim
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		claim := quality.Claim{Significance: quality.SignificanceMedium, Confidence: 0.5}
		if d, ok := m["description"].(string); ok {
			claim.Description = d
		}
		if sig, ok := m["significance"].(string); ok && sig != "" {
			claim.Significance = quality.Significance(strings.ToLower(sig))
		}
		if c, ok := m["confidence"].(float64); ok {
			claim.Confidence = core.ClampConfidence(c)
		}
		if links, ok := m["source_links"].([]any); ok {
			for _, l := range links {
				if s, ok := l.(string); ok && s != "" {
					claim.SourceLinks = append(claim.SourceLinks, s)
				}
			}
		}
		if sd, ok := m["supporting_data"].(string); ok {
			claim.SupportingData = sd
		}
		if claim.Description != "" {
			claims = append(claims, claim)
		}
	}
	return claims
}

// entityLinks pools https URLs found anywhere in the fused entities' data,
// deduplicated in first-seen order.
func entityLinks(entities []*fusion.Entity) []string {
	seen := map[string]bool{}
	var links []string
	for _, e := range entities {
		for _, section := range e.Data {
			for _, v := range section {
				s, ok := v.(string)
				if !ok || !strings.HasPrefix(s, "https://") || seen[s] {
					continue
				}
				seen[s] = true
				links = append(links, s)
			}
		}
	}
	return links
}

func claimLinks(product *Product) []string {
	seen := map[string]bool{}
	var links []string
	for _, claim := range product.Claims() {
		for _, l := range claim.SourceLinks {
			if !seen[l] {
				seen[l] = true
				links = append(links, l)
			}
		}
	}
	return links
}

// buildPrompt renders the fused entities and objective into the synthesis
// prompt. Entity data is embedded as JSON so the model sees exact field
// values rather than prose paraphrase.
func buildPrompt(objective string, fused *fusion.Result) string {
	var sb strings.Builder
	sb.WriteString("You are an intelligence analyst. Synthesize the fused entity data below into an intelligence product.\n")
	if objective != "" {
		sb.WriteString("Investigation objective: ")
		sb.WriteString(objective)
		sb.WriteString("\n")
	}
	sb.WriteString("\nFused entities:\n")
	if data, err := json.Marshal(fused.Entities); err == nil {
		sb.Write(data)
	}
	if len(fused.Relationships) > 0 {
		sb.WriteString("\n\nDetected relationships:\n")
		if data, err := json.Marshal(fused.Relationships); err == nil {
			sb.Write(data)
		}
	}
	sb.WriteString("\n\nRespond with a single JSON object with keys ")
	sb.WriteString(`"executive_summary" (string), "key_findings", "insights" and "recommendations" `)
	sb.WriteString(`(arrays of objects with "description", "significance", "confidence", "source_links", "supporting_data"). `)
	sb.WriteString("Every finding, insight and recommendation must cite at least one source link.")
	return sb.String()
}
