// Package domain defines the core business entities for ccdarank.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SectionObservation: One occurrence of a C-CDA section in a document
//   - SectionCatalog: Corpus-wide aggregate of every section type observed
//   - WeightConfig: Per-section importance weights derived from the catalog
//   - DocumentScore: Information-richness score of one document
//   - CheckpointBatch: Durable unit of scoring progress
//   - ScoreIndex: Merged, rankable view over every checkpoint batch
//
// Downstream consumers add PHIRecord, Demographics and PatientMatch.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
