package store

import (
	"database/sql"
	"time"
)

// Record is a single row as a flat column/value map. Values are normalized
// on scan: text comes back as string, integers as int64, timestamps as
// time.Time, NULLs as nil.
type Record map[string]interface{}

// ID returns the record's surrogate primary key, or 0 if absent.
func (r Record) ID() int64 {
	return r.Int("id")
}

// Int returns the named column as int64, or 0 if absent or NULL.
func (r Record) Int(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// String returns the named column as a string, or "" if absent or NULL.
func (r Record) String(column string) string {
	if s, ok := r[column].(string); ok {
		return s
	}
	return ""
}

// Bool returns the named column as a bool, or false if absent or NULL.
func (r Record) Bool(column string) bool {
	b, _ := r[column].(bool)
	return b
}

// Time returns the named column as a time.Time, or the zero time.
func (r Record) Time(column string) time.Time {
	if t, ok := r[column].(time.Time); ok {
		return t
	}
	return time.Time{}
}

// IsDeleted reports the record's soft-delete flag.
func (r Record) IsDeleted() bool {
	return r.Bool("is_deleted")
}

// normalizeValue converts driver-level values into the canonical Record
// representation. lib/pq hands back []byte for most text-ish columns.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return v
	}
}

// scanRecords reads every row of a generic SELECT into Records, keyed by
// the result set's column names.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dests := make([]interface{}, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}

		record := make(Record, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// scanOneRecord reads at most one row; returns nil when the result set is
// empty.
func scanOneRecord(rows *sql.Rows) (Record, error) {
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
