// Package quality implements the mandatory source-citation compliance gate:
// every claim emitted into an intelligence product must carry at least one
// verifiable source link, links must pass the citation policy, and the batch
// as a whole must clear configurable coverage and validity thresholds before
// a report may be finished.
package quality

import (
	"fmt"
	"time"

	"github.com/intelmesh/intelmesh/logging"
)

// Significance ranks how much a claim matters to the product.
type Significance string

const (
	// SignificanceHigh marks claims central to the product.
	SignificanceHigh Significance = "high"
	// SignificanceMedium is the default.
	SignificanceMedium Significance = "medium"
	// SignificanceLow marks supporting detail.
	SignificanceLow Significance = "low"
)

// Claim is any assertion requiring substantiation: key findings, insights,
// recommendations and executive-summary content. A claim is compliant when
// it carries at least one source link.
type Claim struct {
	Description    string       `json:"description"`
	Significance   Significance `json:"significance"`
	Confidence     float64      `json:"confidence"`
	SourceLinks    []string     `json:"source_links"`
	SupportingData string       `json:"supporting_data,omitempty"`
}

// ComplianceStatus is the gate verdict. Non-compliance is a status, not an
// error: downstream report generation must refuse to proceed or mark the
// report provisional.
type ComplianceStatus string

const (
	// Compliant means both thresholds were met.
	Compliant ComplianceStatus = "COMPLIANT"
	// NonCompliant means at least one threshold was missed.
	NonCompliant ComplianceStatus = "NON_COMPLIANT"
)

// Report is the gate output. CoverageRate and ValidityRate are always in
// [0,1]; with zero total claims the coverage rate is 0, treated as
// non-compliant rather than vacuously true.
type Report struct {
	TotalClaims        int              `json:"totalClaims"`
	ClaimsWithLinks    int              `json:"claimsWithLinks"`
	ClaimsWithoutLinks int              `json:"claimsWithoutLinks"`
	ValidLinks         int              `json:"validLinks"`
	InvalidLinks       int              `json:"invalidLinks"`
	CoverageRate       float64          `json:"coverageRate"`
	ValidityRate       float64          `json:"validityRate"`
	ItemCompliance     []bool           `json:"itemCompliance"`
	ComplianceStatus   ComplianceStatus `json:"complianceStatus"`
	Recommendations    []string         `json:"recommendations"`
	QualityScore       float64          `json:"qualityScore"`
	QualityGrade       string           `json:"qualityGrade"`
}

// Options configures a Gate.
type Options struct {
	// CoverageThreshold is the minimum fraction of claims carrying links.
	// The boundary is inclusive. Default 0.9.
	CoverageThreshold float64

	// ValidityThreshold is the minimum fraction of links passing validation.
	// The boundary is inclusive. Default 0.8.
	ValidityThreshold float64

	// ReputableOutlets replaces the default outlet allowlist when non-nil.
	ReputableOutlets []string

	// LinkCacheTTL bounds how long a link verdict is reused. Default 5m.
	LinkCacheTTL time.Duration

	// Metrics feed the overall quality score alongside coverage and
	// validity. Zero values are allowed; citation still dominates.
	Metrics Metrics

	// Logger for gate verdicts.
	Logger logging.Logger
}

// Gate validates claim batches against the citation policy.
type Gate struct {
	opts      Options
	validator *LinkValidator
	logger    logging.Logger
}

// NewGate creates a Gate with default thresholds (coverage 0.9, validity
// 0.8) unless overridden.
func NewGate(optFns ...func(o *Options)) *Gate {
	opts := Options{
		CoverageThreshold: 0.9,
		ValidityThreshold: 0.8,
		LinkCacheTTL:      5 * time.Minute,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gate{
		opts:      opts,
		validator: NewLinkValidator(opts.ReputableOutlets, opts.LinkCacheTTL),
		logger:    opts.Logger,
	}
}

// Validate checks every claim for source links, validates every present
// link, computes the coverage and validity rates and the overall quality
// score, and renders the compliance verdict with prioritized remediation
// recommendations when the batch falls short.
func (g *Gate) Validate(claims []Claim) *Report {
	report := &Report{
		TotalClaims:    len(claims),
		ItemCompliance: make([]bool, len(claims)),
	}

	var invalidLinks []string
	var uncitedClaims []string

	for i, claim := range claims {
		if len(claim.SourceLinks) == 0 {
			report.ClaimsWithoutLinks++
			uncitedClaims = append(uncitedClaims, claim.Description)
			continue
		}
		report.ClaimsWithLinks++
		report.ItemCompliance[i] = true
		for _, link := range claim.SourceLinks {
			if g.validator.Valid(link) {
				report.ValidLinks++
			} else {
				report.InvalidLinks++
				invalidLinks = append(invalidLinks, link)
			}
		}
	}

	if report.TotalClaims > 0 {
		report.CoverageRate = float64(report.ClaimsWithLinks) / float64(report.TotalClaims)
	}
	if total := report.ValidLinks + report.InvalidLinks; total > 0 {
		report.ValidityRate = float64(report.ValidLinks) / float64(total)
	}

	compliant := report.TotalClaims > 0 &&
		report.CoverageRate >= g.opts.CoverageThreshold &&
		report.ValidityRate >= g.opts.ValidityThreshold

	if compliant {
		report.ComplianceStatus = Compliant
	} else {
		report.ComplianceStatus = NonCompliant
		report.Recommendations = g.recommend(report, uncitedClaims, invalidLinks)
	}

	report.QualityScore = OverallScore(g.opts.Metrics, report.CoverageRate, report.ValidityRate)
	report.QualityGrade = Grade(report.QualityScore)

	if ml, ok := g.logger.(*logging.MeshLogger); ok {
		ml.LogComplianceCheck(string(report.ComplianceStatus), report.CoverageRate, report.ValidityRate)
	} else {
		g.logger.Info("compliance check completed",
			"status", string(report.ComplianceStatus),
			"coverage", report.CoverageRate, "validity", report.ValidityRate)
	}

	return report
}

// recommend builds the prioritized remediation list: missing citations
// first (they break the mandatory requirement outright), then invalid links.
func (g *Gate) recommend(report *Report, uncitedClaims, invalidLinks []string) []string {
	var recs []string

	if report.TotalClaims == 0 {
		return []string{"no claims were produced; rerun synthesis before requesting a report"}
	}

	if report.CoverageRate < g.opts.CoverageThreshold {
		recs = append(recs, fmt.Sprintf(
			"coverage %.2f is below the required %.2f: every claim must cite at least one source",
			report.CoverageRate, g.opts.CoverageThreshold))
	}
	for _, desc := range uncitedClaims {
		recs = append(recs, fmt.Sprintf("add source links to claim %q", truncate(desc, 80)))
	}

	if report.ValidityRate < g.opts.ValidityThreshold {
		recs = append(recs, fmt.Sprintf(
			"validity %.2f is below the required %.2f: replace links that fail the citation policy",
			report.ValidityRate, g.opts.ValidityThreshold))
	}
	for _, link := range invalidLinks {
		recs = append(recs, fmt.Sprintf("replace invalid link %q", link))
	}

	return recs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
