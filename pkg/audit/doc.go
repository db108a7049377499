// Package audit provides the append-only mutation trail behind the record
// store: who changed what, when, and the before/after state.
//
// # Entries
//
// Every entry names a table, a record id, an action (INSERT, UPDATE,
// DELETE, SOFT_DELETE, RESTORE, LOGIN, LOGOUT, UPDATE_ATA), the acting
// user, and optionally the changed field names plus full old/new
// snapshots serialized as JSONB. Entries are written once and never
// updated or deleted, except by retention cleanup.
//
// # Best effort
//
// Audit is observability, not a correctness invariant of the business
// write: losing a trail row is preferable to losing the mutation that
// triggered it. The Sink wrapper enforces that contract: it catches every
// error from the underlying Logger, emits an operational log line,
// increments the dropped-writes counter, and never propagates.
//
// # Loggers
//
// DBLogger persists entries to PostgreSQL and supports search, export and
// retention cleanup. FileLogger appends NDJSON lines for shipping to
// external collectors. MultiLogger fans out to several loggers at once.
// LOGIN and LOGOUT entries are emitted directly by the authentication
// layer; everything else comes from the record store.
package audit
