// Package store provides SQLite-backed durable storage for protoql's
// compile/execute audit log, powering "protoql replay".
//
// Every Run records:
//   - the document hash that was compiled (content-addressed SHA-256 of
//     the raw document bytes)
//   - the compiled SPARQL query text
//   - the raw endpoint bindings and the shaped output, both as JSON
//   - a logical seq (not a timestamp) so replay ordering is deterministic
//     regardless of wall-clock time
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
