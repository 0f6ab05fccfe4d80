package fusion

import "time"

// globalAliases apply to every category: identity fields show up under
// legacy names regardless of how the record was classified.
var globalAliases = map[string]string{
	"fullname":    "name",
	"full_name":   "name",
	"screen_name": "username",
	"handle":      "username",
}

// fieldAliases maps category-specific legacy field names onto canonical
// names. Aliases never overwrite an already-present canonical field.
var fieldAliases = map[Category]map[string]string{
	CategoryContact: {
		"mail":      "email",
		"e_mail":    "email",
		"tel":       "phone",
		"telephone": "phone",
		"mobile":    "phone",
	},
	CategoryOrganization: {
		"company_name": "company",
		"org":          "organization",
		"employer":     "company",
	},
	CategoryLocation: {
		"addr": "address",
		"lat":  "latitude",
		"lon":  "longitude",
		"lng":  "longitude",
	},
	CategoryDocument: {
		"body": "content",
	},
}

// Normalize maps legacy field names onto canonical ones for the given
// category and stamps a normalization timestamp when absent. The input
// record is returned as a new map; the original is not mutated.
func Normalize(record map[string]any, category Category) map[string]any {
	aliases := make(map[string]string, len(globalAliases)+len(fieldAliases[category]))
	for k, v := range globalAliases {
		aliases[k] = v
	}
	for k, v := range fieldAliases[category] {
		aliases[k] = v
	}
	out := make(map[string]any, len(record)+1)
	for k, v := range record {
		if _, isAlias := aliases[k]; !isAlias {
			out[k] = v
		}
	}
	for k, v := range record {
		if canonical, ok := aliases[k]; ok {
			if _, present := out[canonical]; !present {
				out[canonical] = v
			}
		}
	}
	if _, ok := out["normalized_at"]; !ok {
		out["normalized_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	return out
}

// NormalizeAll applies Normalize to every record in the group.
func NormalizeAll(records []map[string]any, category Category) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, record := range records {
		out[i] = Normalize(record, category)
	}
	return out
}
