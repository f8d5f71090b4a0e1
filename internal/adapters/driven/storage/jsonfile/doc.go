// Package jsonfile persists pipeline artifacts as JSON files.
//
// Adapters:
//   - CheckpointStore: one analysis_batch_N.json file per scoring batch
//   - ArtifactStore: section catalog, weight table, consolidated index,
//     PHI records, tokenization output and the patient match report
//
// Object keys keep the order they were written in, so a catalog or index
// read back and written again is byte-identical. Every file is written to a
// temporary sibling, synced and renamed into place.
package jsonfile
