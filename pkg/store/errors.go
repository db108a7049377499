package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrUnknownColumn is returned when a caller supplies a field that is not
// part of the table's declared Schema.
var ErrUnknownColumn = errors.New("unknown column")

// ErrInvalidOrderBy is returned when an order-by expression does not match
// the allowed identifier form.
var ErrInvalidOrderBy = errors.New("invalid order by expression")

// ConstraintError wraps a database integrity-constraint violation (unique
// key conflict, foreign key violation, NOT NULL, ...) so callers can
// translate it into a domain-level "already exists" or "invalid reference"
// condition instead of a generic failure.
type ConstraintError struct {
	Table      string
	Constraint string
	Code       string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint violation on %s (%s): %v", e.Table, e.Constraint, e.Err)
	}
	return fmt.Sprintf("constraint violation on %s: %v", e.Table, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IsConstraintViolation reports whether err (or anything it wraps) is an
// integrity-constraint violation.
func IsConstraintViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// IsUniqueViolation reports whether err is specifically a unique-key
// conflict (PostgreSQL error code 23505).
func IsUniqueViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Code == "23505"
}

// translateError maps driver errors onto the store's error taxonomy.
// Integrity-constraint violations (SQLSTATE class 23) become
// *ConstraintError; everything else propagates as-is.
func translateError(table string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return &ConstraintError{
			Table:      table,
			Constraint: pqErr.Constraint,
			Code:       string(pqErr.Code),
			Err:        err,
		}
	}
	return err
}
