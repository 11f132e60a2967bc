// Package store provides SQLite-backed storage for the run history.
//
// Every install run is recorded with its requests so past reports can be
// listed and shown again. The history is an audit trail only: nothing in
// an install reads it back to make a decision.
//
// # Ordering
//
//   - Runs list newest first by started_at, then id (UUIDv7, time-sortable)
//   - Requests read back in manifest order: ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
