package store

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/observability"
)

// querier is the subset of database/sql used by the store. Both *sql.DB
// and *sql.Tx satisfy it, which is how WithTransaction rebinds a store to
// a single session.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Cache is an optional read-through cache for FindOne. Implementations
// must tolerate lookup failures silently; the store treats every miss the
// same way. See pkg/storage for the tiered LRU/Redis implementation.
type Cache interface {
	Get(ctx context.Context, table string, id int64) (Record, bool)
	Set(ctx context.Context, table string, id int64, record Record)
	Invalidate(ctx context.Context, table string, id int64)
}

// Store provides convention-based CRUD with soft-delete semantics over a
// single table. It is safe for concurrent use; per-request concurrency is
// delegated entirely to the underlying connection pool.
type Store struct {
	db      *sql.DB
	q       querier
	inTx    bool
	schema  Schema
	sink    *audit.Sink
	logger  *observability.Logger
	cache   Cache
	metrics *observability.Metrics
}

// Option configures optional store collaborators.
type Option func(*Store)

// WithLogger attaches a structured logger for operational diagnostics.
func WithLogger(logger *observability.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithCache attaches a read cache for FindOne. The cache is bypassed
// inside transactions and invalidated on every mutation.
func WithCache(cache Cache) Option {
	return func(s *Store) { s.cache = cache }
}

// WithMetrics attaches Prometheus metrics for store operations.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Store) { s.metrics = metrics }
}

// New creates a store for one table. The audit sink is mandatory: emitting
// trail entries on mutation is the store's responsibility, not the
// caller's.
func New(db *sql.DB, schema Schema, sink *audit.Sink, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("audit sink is required")
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	s := &Store{
		db:     db,
		q:      db,
		schema: schema,
		sink:   sink,
		logger: observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Table returns the table this store operates on.
func (s *Store) Table() string {
	return s.schema.Table
}

// FindOne returns the non-deleted record with the given id, or nil if no
// such record exists.
func (s *Store) FindOne(ctx context.Context, id int64) (Record, error) {
	if s.cache != nil && !s.inTx {
		if record, ok := s.cache.Get(ctx, s.schema.Table, id); ok {
			s.observe("find_one", nil)
			return record, nil
		}
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND is_deleted = FALSE", s.schema.Table)
	record, err := s.queryOne(ctx, query, id)
	if err != nil {
		s.observe("find_one", err)
		return nil, fmt.Errorf("failed to find %s record: %w", s.schema.Table, err)
	}

	if record != nil && s.cache != nil && !s.inTx {
		s.cache.Set(ctx, s.schema.Table, id, record)
	}
	s.observe("find_one", nil)
	return record, nil
}

// FindAll returns all non-deleted records, optionally narrowed by a
// caller-composed filter expression with bound parameters (placeholders
// numbered from $1) and ordered by orderBy (default "id").
func (s *Store) FindAll(ctx context.Context, filter string, params []interface{}, orderBy string) ([]Record, error) {
	order, err := validateOrderBy(orderBy)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE is_deleted = FALSE", s.schema.Table)
	if filter != "" {
		query += " AND (" + filter + ")"
	}
	query += " ORDER BY " + order

	rows, err := s.q.QueryContext(ctx, query, params...)
	if err != nil {
		s.observe("find_all", err)
		return nil, fmt.Errorf("failed to list %s records: %w", s.schema.Table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		s.observe("find_all", err)
		return nil, fmt.Errorf("failed to scan %s records: %w", s.schema.Table, err)
	}
	s.observe("find_all", nil)
	return records, nil
}

// Count returns the number of non-deleted records matching the optional
// filter expression.
func (s *Store) Count(ctx context.Context, filter string, params []interface{}) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_deleted = FALSE", s.schema.Table)
	if filter != "" {
		query += " AND (" + filter + ")"
	}

	rows, err := s.q.QueryContext(ctx, query, params...)
	if err != nil {
		s.observe("count", err)
		return 0, fmt.Errorf("failed to count %s records: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			s.observe("count", err)
			return 0, fmt.Errorf("failed to scan %s count: %w", s.schema.Table, err)
		}
	}
	if err := rows.Err(); err != nil {
		s.observe("count", err)
		return 0, err
	}
	s.observe("count", nil)
	return count, nil
}

// FindAllIncludingDeleted bypasses the soft-delete filter entirely.
// Intended for privileged callers; access control is their problem.
func (s *Store) FindAllIncludingDeleted(ctx context.Context, orderBy string) ([]Record, error) {
	order, err := validateOrderBy(orderBy)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", s.schema.Table, order)
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		s.observe("find_all_including_deleted", err)
		return nil, fmt.Errorf("failed to list %s records: %w", s.schema.Table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		s.observe("find_all_including_deleted", err)
		return nil, fmt.Errorf("failed to scan %s records: %w", s.schema.Table, err)
	}
	s.observe("find_all_including_deleted", nil)
	return records, nil
}

// Create inserts a new record from a flat field map and returns the stored
// row including the generated id and column defaults. Integrity-constraint
// conflicts surface as *ConstraintError; no record and no audit entry are
// produced in that case.
func (s *Store) Create(ctx context.Context, data Record, userID int64) (Record, error) {
	keys, err := s.schema.checkFields(data)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[key]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		s.schema.Table, strings.Join(keys, ", "), strings.Join(placeholders, ", "),
	)

	record, err := s.queryOne(ctx, query, args...)
	if err != nil {
		err = translateError(s.schema.Table, err)
		s.observe("create", err)
		return nil, fmt.Errorf("failed to create %s record: %w", s.schema.Table, err)
	}
	if record == nil {
		s.observe("create", sql.ErrNoRows)
		return nil, fmt.Errorf("failed to create %s record: no row returned", s.schema.Table)
	}

	s.logger.WithFields(map[string]interface{}{
		"table":     s.schema.Table,
		"record_id": record.ID(),
		"user_id":   userID,
	}).Debug("record created")

	s.sink.Record(ctx, audit.Entry{
		TableName: s.schema.Table,
		RecordID:  record.ID(),
		Action:    audit.ActionInsert,
		UserID:    userID,
		NewValues: record,
	})
	s.observe("create", nil)
	return record, nil
}

// Update applies a partial update: every field present in data (including
// explicit nils) is written, omitted fields are untouched, and updated_at
// is refreshed unconditionally, even when the effective field map is
// empty. Returns nil if no non-deleted record with that id exists.
func (s *Store) Update(ctx context.Context, id int64, data Record, userID int64) (Record, error) {
	return s.UpdateAs(ctx, id, data, userID, audit.ActionUpdate)
}

// UpdateAs is Update with a caller-chosen audit action, for mutations that
// carry a dedicated trail action (committee minutes use UPDATE_ATA).
func (s *Store) UpdateAs(ctx context.Context, id int64, data Record, userID int64, action audit.Action) (Record, error) {
	keys, err := s.schema.checkFields(data)
	if err != nil {
		return nil, err
	}

	before, err := s.findOneForUpdate(ctx, id)
	if err != nil {
		s.observe("update", err)
		return nil, err
	}
	if before == nil {
		return nil, nil
	}

	assignments := make([]string, 0, len(keys)+1)
	args := make([]interface{}, 0, len(keys)+1)
	for i, key := range keys {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", key, i+1))
		args = append(args, data[key])
	}
	// updated_at advances on every call, changed fields or not.
	assignments = append(assignments, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d AND is_deleted = FALSE RETURNING *",
		s.schema.Table, strings.Join(assignments, ", "), len(args),
	)

	after, err := s.queryOne(ctx, query, args...)
	if err != nil {
		err = translateError(s.schema.Table, err)
		s.observe("update", err)
		return nil, fmt.Errorf("failed to update %s record %d: %w", s.schema.Table, id, err)
	}
	if after == nil {
		// Deleted between snapshot and write.
		return nil, nil
	}

	changed := changedFields(before, after, keys)
	s.invalidate(ctx, id)

	s.logger.WithFields(map[string]interface{}{
		"table":          s.schema.Table,
		"record_id":      id,
		"user_id":        userID,
		"changed_fields": changed,
	}).Debug("record updated")

	s.sink.Record(ctx, audit.Entry{
		TableName:     s.schema.Table,
		RecordID:      id,
		Action:        action,
		UserID:        userID,
		ChangedFields: changed,
		OldValues:     before,
		NewValues:     after,
	})
	s.observe("update", nil)
	return after, nil
}

// SoftDelete marks the record logically removed, recording who deleted it
// and when. Returns false if no non-deleted record with that id exists.
// Physical deletion is never exposed.
func (s *Store) SoftDelete(ctx context.Context, id int64, userID int64) (bool, error) {
	before, err := s.findOneForUpdate(ctx, id)
	if err != nil {
		s.observe("soft_delete", err)
		return false, err
	}
	if before == nil {
		return false, nil
	}

	query := fmt.Sprintf(
		"UPDATE %s SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1, updated_at = NOW() WHERE id = $2 AND is_deleted = FALSE",
		s.schema.Table,
	)
	result, err := s.q.ExecContext(ctx, query, userID, id)
	if err != nil {
		s.observe("soft_delete", err)
		return false, fmt.Errorf("failed to soft delete %s record %d: %w", s.schema.Table, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		s.observe("soft_delete", err)
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	s.invalidate(ctx, id)

	s.logger.WithFields(map[string]interface{}{
		"table":     s.schema.Table,
		"record_id": id,
		"user_id":   userID,
	}).Info("record soft deleted")

	s.sink.Record(ctx, audit.Entry{
		TableName: s.schema.Table,
		RecordID:  id,
		Action:    audit.ActionSoftDelete,
		UserID:    userID,
		OldValues: before,
	})
	s.observe("soft_delete", nil)
	return true, nil
}

// Restore reverses a soft delete, clearing is_deleted, deleted_at and
// deleted_by. Returns nil unless a record with that id exists and is
// currently deleted.
func (s *Store) Restore(ctx context.Context, id int64, userID int64) (Record, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL, updated_at = NOW() WHERE id = $1 AND is_deleted = TRUE RETURNING *",
		s.schema.Table,
	)
	record, err := s.queryOne(ctx, query, id)
	if err != nil {
		s.observe("restore", err)
		return nil, fmt.Errorf("failed to restore %s record %d: %w", s.schema.Table, id, err)
	}
	if record == nil {
		return nil, nil
	}

	s.invalidate(ctx, id)

	s.logger.WithFields(map[string]interface{}{
		"table":     s.schema.Table,
		"record_id": id,
		"user_id":   userID,
	}).Info("record restored")

	s.sink.Record(ctx, audit.Entry{
		TableName: s.schema.Table,
		RecordID:  id,
		Action:    audit.ActionRestore,
		UserID:    userID,
		NewValues: record,
	})
	s.observe("restore", nil)
	return record, nil
}

// WithTransaction runs body against a store bound to a single transaction.
// The transaction commits when body returns nil and rolls back otherwise;
// the underlying connection is released on every exit path, panics
// included. Audit entries still flow through the shared pool so a failed
// audit write can never poison the business transaction.
func (s *Store) WithTransaction(ctx context.Context, body func(tx *Store) error) error {
	if s.inTx {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := *s
	txStore.q = tx
	txStore.inTx = true

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := body(&txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.WithError(rbErr).Error("transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Join binds this store to the transaction another store is running in,
// so multi-table work can commit or roll back as a unit. tx must be the
// store passed to a WithTransaction body on the same pool.
func (s *Store) Join(tx *Store) (*Store, error) {
	if !tx.inTx {
		return nil, fmt.Errorf("cannot join a store that is not in a transaction")
	}
	if s.db != tx.db {
		return nil, fmt.Errorf("cannot join a transaction on a different pool")
	}
	joined := *s
	joined.q = tx.q
	joined.inTx = true
	return &joined, nil
}

// findOneForUpdate snapshots the current non-deleted row through the
// store's own session, without touching the cache.
func (s *Store) findOneForUpdate(ctx context.Context, id int64) (Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND is_deleted = FALSE", s.schema.Table)
	record, err := s.queryOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s record %d: %w", s.schema.Table, id, err)
	}
	return record, nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...interface{}) (Record, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOneRecord(rows)
}

func (s *Store) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, s.schema.Table, id)
	}
}

func (s *Store) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperationsTotal.WithLabelValues(s.schema.Table, operation, status).Inc()
}

// changedFields reports which of the written fields actually differ
// between the before and after snapshots. A field written with its
// existing value does not count as changed.
func changedFields(before, after Record, written []string) []string {
	changed := make([]string, 0, len(written))
	for _, key := range written {
		if !valuesEqual(before[key], after[key]) {
			changed = append(changed, key)
		}
	}
	return changed
}

func valuesEqual(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
