// Package metastore persists analysis request records in SQLite.
//
// The store implements the whole-record overwrite contract: Put replaces the
// entire stored representation and Get coerces the primitive persisted fields
// (RFC 3339 timestamps, enum strings, JSON sentence documents) back into a
// typed Record. There is no version token or conditional write; concurrent
// deliveries updating the same record race last-writer-wins, which callers
// must tolerate under at-least-once task delivery.
package metastore
