package fusion

import (
	"fmt"
	"time"

	"github.com/intelmesh/intelmesh/core"
	"github.com/intelmesh/intelmesh/logging"
)

// Options configures a fusion Engine.
type Options struct {
	// Strategy selects the confidence-adjustment policy for scoring.
	Strategy Strategy

	// SimilarityThreshold is the minimum similarity for a record to attach
	// to an existing entity. Defaults to 0.7.
	SimilarityThreshold float64

	// Rules are the pairwise relationship-detection rules. Defaults to the
	// shared-employer rule.
	Rules []PairRule

	// Logger for stage diagnostics.
	Logger logging.Logger
}

// Result is the output of one fusion call. A stage failure surfaces as a
// result with CollectionSuccess=false and the error text; partial stage
// output up to the failure point is discarded.
type Result struct {
	Entities          []*Entity        `json:"entities"`
	Relationships     []Relationship   `json:"relationships"`
	Categories        map[Category]int `json:"categories"`
	RecordCount       int              `json:"recordCount"`
	DuplicateCount    int              `json:"duplicateCount"`
	CollectionSuccess bool             `json:"collectionSuccess"`
	Source            string           `json:"source"`
	Error             string           `json:"error,omitempty"`
}

// Engine drives the fusion pipeline over raw collector records. One Engine
// may serve many Fuse calls, but each call builds its own entity index; the
// index is single-writer within a call and discarded with the Result.
type Engine struct {
	opts   Options
	logger logging.Logger
}

// NewEngine creates a fusion Engine with comprehensive strategy and the 0.7
// similarity threshold unless overridden.
func NewEngine(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Strategy:            StrategyComprehensive,
		SimilarityThreshold: 0.7,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{opts: opts, logger: opts.Logger}
}

type sourced struct {
	source string
	data   map[string]any
}

// Fuse runs the full pipeline: categorize, deduplicate, normalize,
// correlate, enrich, score, then relationship detection. Any stage panic or
// error is caught here and folded into the Result.
func (e *Engine) Fuse(records []core.Record) (result *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("fusion stage panicked", "panic", fmt.Sprintf("%v", r))
			result = &Result{
				Source:            "fusion_engine",
				Error:             fmt.Sprintf("fusion failed: %v", r),
				CollectionSuccess: false,
			}
		}
	}()

	var pairs []sourced
	for _, rec := range records {
		if !rec.CollectionSuccess {
			e.logger.Warn("skipping failed collection", "source", rec.Source, "error", rec.Error)
			continue
		}
		for _, raw := range rec.Results {
			pairs = append(pairs, sourced{source: rec.Source, data: raw})
		}
	}

	grouped := make(map[Category][]sourced)
	for _, p := range pairs {
		cat := Categorize(p.data)
		grouped[cat] = append(grouped[cat], p)
	}

	categories := make(map[Category]int, len(grouped))
	duplicates := 0
	ix := NewIndex(e.opts.SimilarityThreshold)

	for _, cat := range allCategories() {
		group := grouped[cat]
		if len(group) == 0 {
			continue
		}
		categories[cat] = len(group)

		// Duplicates are dropped per source; identical records from distinct
		// sources still correlate so the entity keeps every origin.
		seen := make(map[string]bool, len(group))
		for _, p := range group {
			hash := IdentityHash(p.data)
			if hash != "" {
				key := p.source + "|" + hash
				if seen[key] {
					duplicates++
					continue
				}
				seen[key] = true
			}
			ix.Correlate(Normalize(p.data, cat), cat, p.source)
		}
	}

	entities := ix.Entities()
	EnrichAll(entities)
	if err := ScoreAll(entities, e.opts.Strategy); err != nil {
		e.logger.Error("scoring failed", "error", err.Error())
		return &Result{
			Source:            "fusion_engine",
			Error:             fmt.Sprintf("fusion failed: %v", err),
			CollectionSuccess: false,
		}
	}

	relationships := DetectRelationships(entities, e.opts.Rules...)

	if ml, ok := e.logger.(*logging.MeshLogger); ok {
		ml.LogFusionRun(len(pairs), len(entities), len(relationships), time.Since(start))
	} else {
		e.logger.Info("fusion run completed",
			"records", len(pairs), "entities", len(entities),
			"relationships", len(relationships), "duration", time.Since(start).String())
	}

	return &Result{
		Entities:          entities,
		Relationships:     relationships,
		Categories:        categories,
		RecordCount:       len(pairs),
		DuplicateCount:    duplicates,
		CollectionSuccess: true,
		Source:            "fusion_engine",
	}
}

func allCategories() []Category {
	return append(append([]Category{}, ruleOrder...), CategoryProfile)
}
