// Package fusion merges raw per-source findings into a deduplicated,
// correlated, confidence-scored entity graph.
//
// The pipeline runs six stages, each pure and independently testable:
//
//  1. Categorize: classify each raw record by field presence
//  2. Deduplicate: drop records with identical identity hashes
//  3. Normalize: map legacy field names onto canonical ones
//  4. Correlate: attach records to entities by identity or similarity
//  5. Enrich: attach completeness and source-diversity metrics
//  6. Score: compute final confidence under the active fusion strategy
//
// Engine.Fuse drives the stages and converts any stage failure into a
// structured Result rather than aborting the run.
package fusion
