// Package sqlite provides a SQLite-based implementation of the scoring
// checkpoint and run ledger ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - CheckpointStore: Append-only scoring batches, one row per batch plus
//     one row per scored document
//   - RunStore: Ledger of scoring runs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <checkpoint_dir>/checkpoints.db.
//
// # Durability
//
// A batch and its scores commit in one transaction with synchronous=FULL,
// so a batch is either fully present or absent after a crash.
package sqlite
