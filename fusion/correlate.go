package fusion

import (
	"fmt"
	"strings"
	"time"
)

// Entity is a deduplicated, merged representation of a real-world subject
// built from multiple raw records. Entities are created on first sighting,
// mutated on subsequent matches, and never deleted within a run.
type Entity struct {
	ID              string                    `json:"id"`
	Type            string                    `json:"type"`
	Data            map[Category]map[string]any `json:"data"`
	Sources         []string                  `json:"sources"`
	Confidence      float64                   `json:"confidence"`
	Completeness    float64                   `json:"completeness"`
	SourceDiversity int                       `json:"sourceDiversity"`
	FirstSeen       time.Time                 `json:"firstSeen"`
	LastUpdated     time.Time                 `json:"lastUpdated"`
}

// baseConfidence is assigned to a newly seeded entity; each additional
// correlated record raises it by matchBonus up to 1.0 before the scoring
// stage applies the strategy formula.
const (
	baseConfidence = 0.5
	matchBonus     = 0.1
)

// entityType maps a record category to the entity type tag.
func entityType(category Category) string {
	switch category {
	case CategoryProfile, CategoryContact:
		return "person"
	case CategoryOrganization:
		return "organization"
	default:
		return string(category)
	}
}

// Index is the run-scoped entity index built during correlation. It is
// single-writer within one fusion call and is not shared across runs.
type Index struct {
	entities map[string]*Entity
	order    []string
	// similarity threshold above which a record attaches to an existing
	// entity instead of seeding a new one
	threshold float64
}

// NewIndex creates an empty index with the given similarity threshold.
func NewIndex(threshold float64) *Index {
	return &Index{entities: make(map[string]*Entity), threshold: threshold}
}

// Entities returns the indexed entities in creation order.
func (ix *Index) Entities() []*Entity {
	out := make([]*Entity, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.entities[id])
	}
	return out
}

// Len returns the number of entities in the index.
func (ix *Index) Len() int { return len(ix.order) }

// Correlate attaches the record to an existing entity or seeds a new one.
// A record attaches when its deterministic id matches, or when its
// similarity to any record already merged into an entity of the same
// category exceeds the threshold.
func (ix *Index) Correlate(record map[string]any, category Category, source string) *Entity {
	id := IdentityHash(record)
	if id != "" {
		if e, ok := ix.entities[id]; ok {
			ix.merge(e, record, category, source)
			return e
		}
	}

	for _, existingID := range ix.order {
		e := ix.entities[existingID]
		section, ok := e.Data[category]
		if !ok {
			continue
		}
		if Similarity(section, record) > ix.threshold {
			ix.merge(e, record, category, source)
			return e
		}
	}

	return ix.seed(id, record, category, source)
}

func (ix *Index) seed(id string, record map[string]any, category Category, source string) *Entity {
	if id == "" {
		id = fmt.Sprintf("anon-%d", len(ix.order))
	}
	now := time.Now().UTC()
	e := &Entity{
		ID:          id,
		Type:        entityType(category),
		Data:        map[Category]map[string]any{category: copyRecord(record)},
		Confidence:  baseConfidence,
		FirstSeen:   now,
		LastUpdated: now,
	}
	if source != "" {
		e.Sources = []string{source}
	}
	ix.entities[id] = e
	ix.order = append(ix.order, id)
	return e
}

// merge folds the record into the entity: first-seen values win on
// collision, the contributing source is recorded, and confidence increases.
func (ix *Index) merge(e *Entity, record map[string]any, category Category, source string) {
	section, ok := e.Data[category]
	if !ok {
		section = make(map[string]any, len(record))
		e.Data[category] = section
	}
	for k, v := range record {
		if _, exists := section[k]; !exists {
			section[k] = v
		}
	}
	if source != "" && !containsString(e.Sources, source) {
		e.Sources = append(e.Sources, source)
	}
	if e.Confidence+matchBonus <= 1.0 {
		e.Confidence += matchBonus
	} else {
		e.Confidence = 1.0
	}
	e.LastUpdated = time.Now().UTC()
}

// Similarity scores two records as the fraction of fields shared by both
// that carry equal values (case-insensitive), over the count of fields both
// records have. Records sharing no fields score zero.
func Similarity(a, b map[string]any) float64 {
	common := 0
	equal := 0
	for k, av := range a {
		if k == "normalized_at" {
			continue
		}
		bv, ok := b[k]
		if !ok || av == nil || bv == nil {
			continue
		}
		as := strings.TrimSpace(fmt.Sprint(av))
		bs := strings.TrimSpace(fmt.Sprint(bv))
		if as == "" || bs == "" {
			continue
		}
		common++
		if strings.EqualFold(as, bs) {
			equal++
		}
	}
	if common == 0 {
		return 0
	}
	return float64(equal) / float64(common)
}

func copyRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
