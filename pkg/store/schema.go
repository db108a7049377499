package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Reserved columns every conforming table carries. They are managed by the
// store itself and rejected when supplied through Create/Update field maps.
const (
	colID        = "id"
	colIsDeleted = "is_deleted"
	colDeletedAt = "deleted_at"
	colDeletedBy = "deleted_by"
	colUpdatedAt = "updated_at"
)

var reservedColumns = map[string]struct{}{
	colID:        {},
	colIsDeleted: {},
	colDeletedAt: {},
	colDeletedBy: {},
	colUpdatedAt: {},
}

// Schema declares the fixed per-table convention: the table name and the
// domain columns callers may read and write. Declaring columns up front is
// what makes dynamically assembled INSERT/UPDATE statements safe; a field
// map key outside the declared set is an ErrUnknownColumn, never SQL text.
type Schema struct {
	// Table is the relational table name.
	Table string

	// Columns lists the writable domain columns, excluding the reserved
	// convention columns (id, is_deleted, deleted_at, deleted_by,
	// updated_at) which are always present.
	Columns []string
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks that the schema's table and column names are plain SQL
// identifiers.
func (s Schema) Validate() error {
	if !identifierPattern.MatchString(s.Table) {
		return fmt.Errorf("invalid table name %q", s.Table)
	}
	for _, col := range s.Columns {
		if !identifierPattern.MatchString(col) {
			return fmt.Errorf("invalid column name %q in table %s", col, s.Table)
		}
		if _, reserved := reservedColumns[col]; reserved {
			return fmt.Errorf("column %s.%s is reserved", s.Table, col)
		}
	}
	return nil
}

// writable reports whether callers may set the named column.
func (s Schema) writable(column string) bool {
	for _, col := range s.Columns {
		if col == column {
			return true
		}
	}
	return false
}

// checkFields validates a caller-supplied field map against the schema and
// returns its keys in deterministic order.
func (s Schema) checkFields(data Record) ([]string, error) {
	keys := make([]string, 0, len(data))
	for key := range data {
		if _, reserved := reservedColumns[key]; reserved {
			return nil, fmt.Errorf("%w: %s.%s is reserved", ErrUnknownColumn, s.Table, key)
		}
		if !s.writable(key) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, s.Table, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// orderByPattern accepts a bare column identifier with an optional ASC or
// DESC qualifier. Order-by expressions are the one place callers hand the
// store raw SQL structure, so they get the same identifier discipline as
// schema columns.
var orderByPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(?: (?i:ASC|DESC))?$`)

func validateOrderBy(orderBy string) (string, error) {
	trimmed := strings.TrimSpace(orderBy)
	if trimmed == "" {
		return colID, nil
	}
	if !orderByPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderBy, orderBy)
	}
	return trimmed, nil
}
