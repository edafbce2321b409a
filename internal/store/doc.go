// Package store persists sampling runs in SQLite so they can be listed,
// read back and replayed.
//
// A run row holds everything needed to regenerate its records: the schema
// document, the sampler options and the instant used for "now". Record
// rows hold each record's hash and a msgpack payload of its value.
//
// Runs are ordered by seq, a logical clock assigned as MAX(seq)+1 inside
// the write transaction, never by wall time. Records are read back in
// (collection, idx) order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
