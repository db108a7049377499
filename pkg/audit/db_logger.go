package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DBLogger persists audit entries to a PostgreSQL audit_log table.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger and ensures the
// audit_log table exists.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_log table: %w", err)
	}
	return logger, nil
}

// ensureTable creates the audit_log table if it doesn't exist.
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		table_name VARCHAR(100) NOT NULL,
		record_id BIGINT NOT NULL DEFAULT 0,
		action VARCHAR(20) NOT NULL,
		user_id BIGINT NOT NULL,
		changed_fields JSONB,
		old_values JSONB,
		new_values JSONB,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_table_record ON audit_log(table_name, record_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_user_id ON audit_log(user_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at DESC);
	`

	_, err := l.db.Exec(query)
	return err
}

// Log appends one entry. The row's id and created_at come back from the
// database.
func (l *DBLogger) Log(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	changedJSON, err := marshalOrNil(entry.ChangedFields)
	if err != nil {
		return fmt.Errorf("failed to marshal changed_fields: %w", err)
	}
	oldJSON, err := marshalOrNil(entry.OldValues)
	if err != nil {
		return fmt.Errorf("failed to marshal old_values: %w", err)
	}
	newJSON, err := marshalOrNil(entry.NewValues)
	if err != nil {
		return fmt.Errorf("failed to marshal new_values: %w", err)
	}

	query := `
		INSERT INTO audit_log (table_name, record_id, action, user_id, changed_fields, old_values, new_values)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = l.db.QueryRowContext(ctx, query,
		entry.TableName, entry.RecordID, string(entry.Action), entry.UserID,
		changedJSON, oldJSON, newJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Search returns entries matching the filter, newest first.
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	query := `
		SELECT id, table_name, record_id, action, user_id, changed_fields, old_values, new_values, created_at
		FROM audit_log
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.TableName != "" {
		query += fmt.Sprintf(" AND table_name = $%d", argCount)
		args = append(args, filter.TableName)
		argCount++
	}
	if filter.RecordID != 0 {
		query += fmt.Sprintf(" AND record_id = $%d", argCount)
		args = append(args, filter.RecordID)
		argCount++
	}
	if filter.UserID != 0 {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filter.UserID)
		argCount++
	}
	if len(filter.Actions) > 0 {
		query += fmt.Sprintf(" AND action = ANY($%d)", argCount)
		actions := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			actions[i] = string(a)
		}
		args = append(args, pq.Array(actions))
		argCount++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, filter.Since)
		argCount++
	}
	if !filter.Until.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, filter.Until)
		argCount++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}
	return entries, nil
}

// Get retrieves one entry by id, or nil if it does not exist.
func (l *DBLogger) Get(ctx context.Context, id int64) (*Entry, error) {
	query := `
		SELECT id, table_name, record_id, action, user_id, changed_fields, old_values, new_values, created_at
		FROM audit_log
		WHERE id = $1
	`
	rows, err := l.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanEntry(rows)
}

// cleanupBatchSize bounds how many expiring rows are held in memory per
// archive upload.
const cleanupBatchSize = 1000

// Cleanup deletes entries older than the retention period, archiving them
// first when the policy asks for it. The archive pass and the delete use
// the same inclusive cutoff, so a row is never archived twice across runs.
// Returns the number of rows removed.
func (l *DBLogger) Cleanup(ctx context.Context, policy RetentionPolicy, archiver Archiver) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -policy.RetentionDays)

	if policy.ArchiveEnabled && archiver != nil {
		for offset := 0; ; offset += cleanupBatchSize {
			expiring, err := l.Search(ctx, SearchFilter{
				Until:  cutoff,
				Limit:  cleanupBatchSize,
				Offset: offset,
			})
			if err != nil {
				return 0, fmt.Errorf("failed to collect expiring entries: %w", err)
			}
			if len(expiring) == 0 {
				break
			}
			if err := archiver.Archive(ctx, policy.ArchivePrefix, cutoff, expiring); err != nil {
				return 0, fmt.Errorf("failed to archive expiring entries: %w", err)
			}
			if len(expiring) < cleanupBatchSize {
				break
			}
		}
	}

	result, err := l.db.ExecContext(ctx, "DELETE FROM audit_log WHERE created_at <= $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired audit entries: %w", err)
	}
	return result.RowsAffected()
}

// Close is a no-op; the *sql.DB is shared and owned by the caller.
func (l *DBLogger) Close() error {
	return nil
}

func marshalOrNil(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case []string:
		if val == nil {
			return nil, nil
		}
	case map[string]interface{}:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	entry := &Entry{}
	var action string
	var changedJSON, oldJSON, newJSON []byte

	err := rows.Scan(
		&entry.ID, &entry.TableName, &entry.RecordID, &action, &entry.UserID,
		&changedJSON, &oldJSON, &newJSON, &entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}
	entry.Action = Action(action)

	if len(changedJSON) > 0 {
		if err := json.Unmarshal(changedJSON, &entry.ChangedFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changed_fields: %w", err)
		}
	}
	if len(oldJSON) > 0 {
		if err := json.Unmarshal(oldJSON, &entry.OldValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal old_values: %w", err)
		}
	}
	if len(newJSON) > 0 {
		if err := json.Unmarshal(newJSON, &entry.NewValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal new_values: %w", err)
		}
	}
	return entry, nil
}
