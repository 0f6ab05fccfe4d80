package fusion

import (
	"fmt"
	"time"

	"github.com/intelmesh/intelmesh/core"
)

// Version is one competing view of the same entity's data, as produced by
// different sources or at different times.
type Version struct {
	Data       map[string]any `json:"data"`
	Confidence float64        `json:"confidence"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source"`
}

// ConflictStrategy selects how competing versions are reconciled.
type ConflictStrategy string

const (
	// HighestConfidence picks the version with the maximum confidence.
	HighestConfidence ConflictStrategy = "highest_confidence"
	// MostRecent picks the version with the latest timestamp.
	MostRecent ConflictStrategy = "most_recent"
	// Merge unions fields (first-seen wins on collision) and averages
	// confidence across all versions.
	Merge ConflictStrategy = "merge"
)

// ResolveConflicts reconciles competing versions under the given strategy.
// At least one version is required.
func ResolveConflicts(versions []Version, strategy ConflictStrategy) (Version, error) {
	if len(versions) == 0 {
		return Version{}, fmt.Errorf("no versions to resolve")
	}

	switch strategy {
	case HighestConfidence:
		best := versions[0]
		for _, v := range versions[1:] {
			if v.Confidence > best.Confidence {
				best = v
			}
		}
		return best, nil

	case MostRecent:
		best := versions[0]
		for _, v := range versions[1:] {
			if v.Timestamp.After(best.Timestamp) {
				best = v
			}
		}
		return best, nil

	case Merge:
		merged := Version{Data: map[string]any{}, Source: "merged", Timestamp: versions[0].Timestamp}
		total := 0.0
		for _, v := range versions {
			for k, val := range v.Data {
				if _, exists := merged.Data[k]; !exists {
					merged.Data[k] = val
				}
			}
			total += v.Confidence
			if v.Timestamp.After(merged.Timestamp) {
				merged.Timestamp = v.Timestamp
			}
		}
		merged.Confidence = core.ClampConfidence(total / float64(len(versions)))
		return merged, nil

	default:
		return Version{}, fmt.Errorf("unknown conflict strategy %q", string(strategy))
	}
}
