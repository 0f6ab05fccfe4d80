package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// identifyingFields is the fixed ordered set of fields used for both the
// deduplication content hash and the deterministic entity id.
var identifyingFields = []string{"name", "email", "phone", "username", "id", "url"}

// IdentityHash computes the content hash of a record from its identifying
// fields: present values are rendered as field:value pairs (values
// lowercased), sorted, joined and hashed. Records with no identifying fields
// hash to the empty string.
func IdentityHash(record map[string]any) string {
	var parts []string
	for _, field := range identifyingFields {
		v, ok := record[field]
		if !ok || v == nil {
			continue
		}
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
		if s == "" {
			continue
		}
		parts = append(parts, field+":"+s)
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Deduplicate removes records whose identity hash matches an earlier record,
// keeping the first occurrence. Records without identifying fields are kept
// as-is. The operation is idempotent.
func Deduplicate(records []map[string]any) []map[string]any {
	seen := make(map[string]bool, len(records))
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		hash := IdentityHash(record)
		if hash == "" {
			out = append(out, record)
			continue
		}
		if seen[hash] {
			continue
		}
		seen[hash] = true
		out = append(out, record)
	}
	return out
}
