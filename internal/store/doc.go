// Package store provides SQLite-backed storage for sibling records and
// coalesce runs.
//
// The store holds:
//   - Records: one row per identity, body stored as canonical JSON
//   - Sibling edges: undirected, written in both directions
//   - Runs: batch coalesce results keyed by a run ID
//
// # Patterns
//
// Content hashing
//   - Each record row carries ir.RecordHash of its body
//   - PutRecord skips the write when the hash is unchanged
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - All list queries order by seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
