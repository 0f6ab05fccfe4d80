package fusion

// Category classifies a raw record by the kind of subject it describes.
type Category string

const (
	// CategoryProfile is the catch-all for person-shaped records.
	CategoryProfile Category = "profile"
	// CategoryContact covers records carrying reachability data.
	CategoryContact Category = "contact"
	// CategoryOrganization covers company and institution records.
	CategoryOrganization Category = "organization"
	// CategoryLocation covers address and geo records.
	CategoryLocation Category = "location"
	// CategoryRelationship covers records asserting links between subjects.
	CategoryRelationship Category = "relationship"
	// CategoryActivity covers event and action records.
	CategoryActivity Category = "activity"
	// CategoryDocument covers textual document records.
	CategoryDocument Category = "document"
	// CategoryMedia covers image/video/audio records.
	CategoryMedia Category = "media"
)

// categoryRules maps a category to the fields whose presence selects it.
// Rules are evaluated in ruleOrder; the first match wins, profile is the
// fallback.
var categoryRules = map[Category][]string{
	CategoryContact:      {"email", "phone"},
	CategoryOrganization: {"company", "organization", "employer"},
	CategoryLocation:     {"address", "city", "country", "coordinates", "latitude"},
	CategoryRelationship: {"relation", "source_entity", "target_entity"},
	CategoryMedia:        {"image", "video", "media_url"},
	CategoryDocument:     {"document", "content", "text", "title"},
	CategoryActivity:     {"activity", "action", "event"},
}

var ruleOrder = []Category{
	CategoryContact,
	CategoryOrganization,
	CategoryLocation,
	CategoryRelationship,
	CategoryMedia,
	CategoryDocument,
	CategoryActivity,
}

// Categorize classifies a single record using field-presence rules.
func Categorize(record map[string]any) Category {
	for _, cat := range ruleOrder {
		for _, field := range categoryRules[cat] {
			if v, ok := record[field]; ok && v != nil && v != "" {
				return cat
			}
		}
	}
	return CategoryProfile
}

// CategorizeAll groups records by category preserving input order within
// each group.
func CategorizeAll(records []map[string]any) map[Category][]map[string]any {
	grouped := make(map[Category][]map[string]any)
	for _, record := range records {
		cat := Categorize(record)
		grouped[cat] = append(grouped[cat], record)
	}
	return grouped
}
