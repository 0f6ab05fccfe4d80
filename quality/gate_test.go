package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func cited(desc string, links ...string) Claim {
	return Claim{Description: desc, Significance: SignificanceHigh, Confidence: 0.9, SourceLinks: links}
}

func TestValidateAllCompliant(t *testing.T) {
	g := NewGate()
	claims := []Claim{
		cited("breach disclosed", "https://www.cisa.gov/alerts/aa26-001a"),
		cited("filing confirms acquisition", "https://www.sec.gov/filing/123", "https://reuters.com/article/xyz"),
	}

	report := g.Validate(claims)
	assert.Equal(t, Compliant, report.ComplianceStatus)
	assert.Equal(t, 1.0, report.CoverageRate)
	assert.Equal(t, 1.0, report.ValidityRate)
	assert.Equal(t, 3, report.ValidLinks)
	assert.Empty(t, report.Recommendations)
	assert.Equal(t, []bool{true, true}, report.ItemCompliance)
}

func TestValidateZeroClaimsIsNonCompliant(t *testing.T) {
	report := NewGate().Validate(nil)
	assert.Equal(t, 0.0, report.CoverageRate)
	assert.Equal(t, 0.0, report.ValidityRate)
	assert.Equal(t, NonCompliant, report.ComplianceStatus)
	assert.NotEmpty(t, report.Recommendations)
}

func TestValidateHTTPLinkCountsPresentButInvalid(t *testing.T) {
	report := NewGate().Validate([]Claim{
		cited("claim one", "http://www.example.gov/report"),
		cited("claim two", "https://www.example.gov/report"),
	})

	assert.Equal(t, 2, report.ClaimsWithLinks)
	assert.Equal(t, 1.0, report.CoverageRate)
	assert.Equal(t, 1, report.ValidLinks)
	assert.Equal(t, 1, report.InvalidLinks)
	assert.Equal(t, 0.5, report.ValidityRate)
	assert.Equal(t, NonCompliant, report.ComplianceStatus)

	found := false
	for _, rec := range report.Recommendations {
		if rec == fmt.Sprintf("replace invalid link %q", "http://www.example.gov/report") {
			found = true
		}
	}
	assert.True(t, found, "expected a replace-invalid-link recommendation")
}

func TestValidateCoverageBoundaryInclusive(t *testing.T) {
	claims := make([]Claim, 0, 10)
	for i := 0; i < 9; i++ {
		claims = append(claims, cited(fmt.Sprintf("claim %d", i), "https://www.nist.gov/publication"))
	}
	claims = append(claims, Claim{Description: "uncited claim"})

	report := NewGate().Validate(claims)
	assert.InDelta(t, 0.9, report.CoverageRate, 1e-9)
	assert.Equal(t, Compliant, report.ComplianceStatus)
}

func TestValidateBelowCoverageThreshold(t *testing.T) {
	claims := []Claim{
		cited("cited", "https://www.nist.gov/pub"),
		{Description: "first uncited"},
		{Description: "second uncited"},
	}

	report := NewGate().Validate(claims)
	assert.Equal(t, NonCompliant, report.ComplianceStatus)

	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "coverage")
	assert.Contains(t, report.Recommendations[1], `add source links to claim "first uncited"`)
}

func TestValidateRatesAlwaysInRange(t *testing.T) {
	batches := [][]Claim{
		nil,
		{{Description: "no links"}},
		{cited("x", "https://a.gov/1"), {Description: "y"}},
		{cited("x", "not a url", "ftp://weird")},
	}
	for _, claims := range batches {
		report := NewGate().Validate(claims)
		assert.GreaterOrEqual(t, report.CoverageRate, 0.0)
		assert.LessOrEqual(t, report.CoverageRate, 1.0)
		assert.GreaterOrEqual(t, report.ValidityRate, 0.0)
		assert.LessOrEqual(t, report.ValidityRate, 1.0)
	}
}

func TestValidateCustomThresholds(t *testing.T) {
	g := NewGate(func(o *Options) {
		o.CoverageThreshold = 0.5
		o.ValidityThreshold = 0.5
	})
	report := g.Validate([]Claim{
		cited("cited", "https://www.energy.gov/report"),
		{Description: "uncited"},
	})
	assert.Equal(t, Compliant, report.ComplianceStatus)
}

func TestQualityScoreAndGrade(t *testing.T) {
	g := NewGate(func(o *Options) {
		o.Metrics = Metrics{
			SourceReliability: 1.0,
			FactAccuracy:      1.0,
			Bias:              0.0,
			Consistency:       1.0,
			Completeness:      1.0,
		}
	})
	report := g.Validate([]Claim{cited("perfect", "https://www.nsf.gov/report")})
	assert.InDelta(t, 1.0, report.QualityScore, 1e-9)
	assert.Equal(t, "A+", report.QualityGrade)
}

func TestGateConstructionLeaksNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)
	for i := 0; i < 5; i++ {
		report := NewGate().Validate([]Claim{cited("gate", "https://www.nist.gov/publication")})
		assert.Equal(t, Compliant, report.ComplianceStatus)
	}
}

func TestGradeCutoffs(t *testing.T) {
	assert.Equal(t, "A+", Grade(0.97))
	assert.Equal(t, "A", Grade(0.93))
	assert.Equal(t, "B", Grade(0.85))
	assert.Equal(t, "C-", Grade(0.70))
	assert.Equal(t, "F", Grade(0.42))
}

func TestOverallScoreCitationDominates(t *testing.T) {
	full := OverallScore(Metrics{}, 1.0, 1.0)
	none := OverallScore(Metrics{}, 0.0, 0.0)
	assert.InDelta(t, 0.3+0.1, full, 1e-9) // citation weight + bias mitigation of zero bias
	assert.InDelta(t, 0.1, none, 1e-9)
}
