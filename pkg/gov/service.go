package gov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/store"
)

// ErrValidation marks input rejected before it reaches the database.
var ErrValidation = errors.New("validation failed")

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Services bundles one typed service per governance entity, all sharing a
// single pool and audit sink.
type Services struct {
	Objectives  *ObjectiveService
	Procurement *ProcurementService
	Committees  *CommitteeService
	Personnel   *PersonnelService
}

// NewServices builds stores for every governance table and wraps them in
// their typed services. Store options (cache, logger, metrics) apply to all
// stores uniformly.
func NewServices(db *sql.DB, sink *audit.Sink, opts ...store.Option) (*Services, error) {
	stores := make(map[string]*store.Store, len(Schemas()))
	for table, schema := range Schemas() {
		s, err := store.New(db, schema, sink, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build store for %s: %w", table, err)
		}
		stores[table] = s
	}

	return &Services{
		Objectives: &ObjectiveService{
			objectives: stores[TableObjectives],
			keyResults: stores[TableKeyResults],
		},
		Procurement: &ProcurementService{items: stores[TablePCAItems]},
		Committees: &CommitteeService{
			committees: stores[TableCommittees],
			members:    stores[TableCommitteeMembers],
		},
		Personnel: &PersonnelService{personnel: stores[TablePersonnel]},
	}, nil
}

// listScoped lists non-deleted records for one directorate, or all
// directorates when directorateID is zero.
func listScoped(ctx context.Context, s *store.Store, directorateID int64, orderBy string) ([]store.Record, error) {
	if directorateID == 0 {
		return s.FindAll(ctx, "", nil, orderBy)
	}
	return s.FindAll(ctx, "directorate_id = $1", []interface{}{directorateID}, orderBy)
}

func countScoped(ctx context.Context, s *store.Store, directorateID int64) (int64, error) {
	if directorateID == 0 {
		return s.Count(ctx, "", nil)
	}
	return s.Count(ctx, "directorate_id = $1", []interface{}{directorateID})
}
