// Package store provides SQLite-backed durable storage for combination
// traces.
//
// The store is an append-only log with:
//   - Runs: one row per harness or CLI run (theories, config, outcome,
//     content digest)
//   - Eqshare events: every delivered equality, in delivery order
//   - Diagnostics: the deduplicated diagnostic records
//   - Reason nodes: the explanation arena, so stored events can be
//     rendered with their literals
//
// # Critical Patterns
//
// Logical ordering:
//   - Rows are ordered by seq INTEGER assigned at write time, never by
//     timestamps
//   - All reads use ORDER BY seq ASC, including filtered event queries
//     compiled by package querysql
//
// Idempotent writes:
//   - PRIMARY KEY (run_id, seq) with ON CONFLICT DO NOTHING, so rewriting a
//     run's trace is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
