// Package store provides a table-agnostic record store with soft-delete
// semantics and automatic audit-trail emission.
//
// # Overview
//
// Every table managed by the store follows one convention: an integer `id`
// primary key, `is_deleted`/`deleted_at`/`deleted_by` for soft deletion,
// `updated_at` refreshed on every update, plus arbitrary domain columns
// declared up front in a Schema. Records flow in and out as flat
// column/value maps; the Schema whitelist is what keeps dynamic column
// handling safe.
//
// # Soft delete
//
// SoftDelete is the only deletion path. Deleted records disappear from
// FindOne/FindAll/Count but stay addressable through
// FindAllIncludingDeleted and Restore.
//
// # Audit
//
// The store owns the decision of when to emit an audit entry: exactly one
// per successful Create/Update/SoftDelete/Restore. Audit failures never
// fail the business operation; see package audit.
//
// # Usage Example
//
//	s := store.New(db, store.Schema{
//		Table:   "objectives",
//		Columns: []string{"title", "status", "directorate_id"},
//	}, sink)
//
//	rec, err := s.Create(ctx, store.Record{"title": "Modernize fleet"}, userID)
//	ok, err := s.SoftDelete(ctx, rec.ID(), userID)
package store
