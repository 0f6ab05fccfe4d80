package quality

import "github.com/intelmesh/intelmesh/core"

// Metrics carries the analyst-supplied quality dimensions that feed the
// overall score alongside the gate's own coverage and validity rates. Each
// value is expected in [0,1]; Bias is the measured bias (mitigation is its
// complement).
type Metrics struct {
	SourceReliability float64 `json:"sourceReliability"`
	FactAccuracy      float64 `json:"factAccuracy"`
	Bias              float64 `json:"bias"`
	Consistency       float64 `json:"consistency"`
	Completeness      float64 `json:"completeness"`
}

// Score weights. Citation (coverage×validity) carries the highest single
// weight, reflecting the mandatory nature of source-link compliance.
const (
	weightSourceReliability = 0.15
	weightFactAccuracy      = 0.20
	weightCitation          = 0.30
	weightBiasMitigation    = 0.10
	weightConsistency       = 0.10
	weightCompleteness      = 0.15
)

// OverallScore computes the weighted quality score from the metrics and the
// gate's coverage and validity rates. The result is clamped to [0,1].
func OverallScore(m Metrics, coverageRate, validityRate float64) float64 {
	citation := coverageRate * validityRate
	score := weightSourceReliability*core.ClampConfidence(m.SourceReliability) +
		weightFactAccuracy*core.ClampConfidence(m.FactAccuracy) +
		weightCitation*core.ClampConfidence(citation) +
		weightBiasMitigation*core.ClampConfidence(1-m.Bias) +
		weightConsistency*core.ClampConfidence(m.Consistency) +
		weightCompleteness*core.ClampConfidence(m.Completeness)
	return core.ClampConfidence(score)
}

// gradeCutoffs map score floors to letter grades, best first.
var gradeCutoffs = []struct {
	floor float64
	grade string
}{
	{0.97, "A+"},
	{0.93, "A"},
	{0.90, "A-"},
	{0.87, "B+"},
	{0.83, "B"},
	{0.80, "B-"},
	{0.77, "C+"},
	{0.73, "C"},
	{0.70, "C-"},
	{0.67, "D+"},
	{0.63, "D"},
	{0.60, "D-"},
}

// Grade maps a quality score to a letter grade via fixed cutoffs.
func Grade(score float64) string {
	for _, c := range gradeCutoffs {
		if score >= c.floor {
			return c.grade
		}
	}
	return "F"
}
