// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the scoring pipeline to function:
//
//   - Corpus: Enumerates and reads document files
//   - SectionParser: Extracts section observations from C-CDA XML
//   - CheckpointStore: Append-only scoring batches (JSON files or SQLite)
//   - CatalogStore, WeightStore, IndexStore: Pipeline artifacts
//   - ConfigStore: Typed pipeline configuration
//
// # Optional Interfaces
//
// These can be nil - the dependent commands report them as unavailable:
//
//   - PHIParser, Reformatter: Downstream document processing
//   - PatientSearch: Patient index (OpenSearch)
//   - TimeSeriesStore: Glucose readings (PostgreSQL)
//   - BlobStore: Upload target (S3 or local filesystem)
//   - MatchCache: Search result cache (in-memory or Redis)
//   - RunStore: Ledger of scoring runs
//   - RunMetrics: Prometheus counters; NopMetrics when unset
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
