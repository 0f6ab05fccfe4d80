package fusion

import (
	"fmt"
	"strings"
)

// Relationship links two entities with a typed, evidence-tagged edge.
// Relationships are created only when a pairwise detection rule fires.
type Relationship struct {
	SourceID   string  `json:"sourceId"`
	TargetID   string  `json:"targetId"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
}

// PairRule inspects an unordered pair of entities and reports a
// relationship when its condition holds. Add further rules to extend
// detection beyond the built-in shared-employer check.
type PairRule interface {
	Name() string
	Detect(a, b *Entity) (Relationship, bool)
}

// SharedEmployerRule emits a professional relationship when two person
// entities carry a populated, equal company field.
type SharedEmployerRule struct{}

// Name implements PairRule.
func (SharedEmployerRule) Name() string { return "shared_employer" }

// Detect implements PairRule.
func (SharedEmployerRule) Detect(a, b *Entity) (Relationship, bool) {
	if a.Type != "person" || b.Type != "person" {
		return Relationship{}, false
	}
	ca := companyOf(a)
	cb := companyOf(b)
	if ca == "" || cb == "" || !strings.EqualFold(ca, cb) {
		return Relationship{}, false
	}
	return Relationship{
		SourceID:   a.ID,
		TargetID:   b.ID,
		Type:       "professional",
		Confidence: 0.8,
		Evidence:   "shared_employer",
	}, true
}

func companyOf(e *Entity) string {
	for _, section := range e.Data {
		if v, ok := section["company"]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

// DetectRelationships evaluates every rule over every unordered pair of
// entities, preserving index order in the emitted edges.
func DetectRelationships(entities []*Entity, rules ...PairRule) []Relationship {
	if len(rules) == 0 {
		rules = []PairRule{SharedEmployerRule{}}
	}

	var edges []Relationship
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			for _, rule := range rules {
				if rel, ok := rule.Detect(entities[i], entities[j]); ok {
					edges = append(edges, rel)
				}
			}
		}
	}
	return edges
}
