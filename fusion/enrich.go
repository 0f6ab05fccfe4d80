package fusion

// Enrich attaches completeness and source-diversity metrics to the entity.
// Completeness is the fraction of populated fields over all fields across
// the entity's category sections; the normalization timestamp is excluded
// since it is always stamped.
func Enrich(e *Entity) {
	total := 0
	populated := 0
	for _, section := range e.Data {
		for k, v := range section {
			if k == "normalized_at" {
				continue
			}
			total++
			if hasContent(v) {
				populated++
			}
		}
	}
	if total > 0 {
		e.Completeness = float64(populated) / float64(total)
	}
	e.SourceDiversity = len(e.Sources)
}

// EnrichAll applies Enrich to every entity.
func EnrichAll(entities []*Entity) {
	for _, e := range entities {
		Enrich(e)
	}
}

func hasContent(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
