// Package store provides SQLite-backed durable storage for frame traces.
//
// A run is one execution of the engine. Its frame records are appended as
// the run progresses and the run is finished with a status and the digest
// of its canonical trace.
//
// # Ordering
//
//   - Runs and records are ordered by seq INTEGER (logical), never by
//     wall-clock timestamps
//   - Record queries use ORDER BY seq ASC so reads are deterministic
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
