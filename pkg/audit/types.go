package audit

import (
	"encoding/json"
	"time"
)

// Action identifies what happened to a record. The set is closed; anything
// else is rejected by Entry.Validate.
type Action string

const (
	ActionInsert     Action = "INSERT"
	ActionUpdate     Action = "UPDATE"
	ActionDelete     Action = "DELETE"
	ActionSoftDelete Action = "SOFT_DELETE"
	ActionRestore    Action = "RESTORE"
	ActionLogin      Action = "LOGIN"
	ActionLogout     Action = "LOGOUT"
	// ActionUpdateAta marks updates to a committee's meeting minutes
	// (ata), which are audited separately from ordinary field updates.
	ActionUpdateAta Action = "UPDATE_ATA"
)

// knownActions is the closed enumeration accepted by Validate.
var knownActions = map[Action]struct{}{
	ActionInsert:     {},
	ActionUpdate:     {},
	ActionDelete:     {},
	ActionSoftDelete: {},
	ActionRestore:    {},
	ActionLogin:      {},
	ActionLogout:     {},
	ActionUpdateAta:  {},
}

// Valid reports whether a is part of the closed action set.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// Entry is a single immutable audit trail row.
type Entry struct {
	ID        int64  `json:"id"`
	TableName string `json:"table_name"`
	RecordID  int64  `json:"record_id"`
	Action    Action `json:"action"`
	UserID    int64  `json:"user_id"`

	// ChangedFields lists the field names whose stored value actually
	// changed. Populated for UPDATE/UPDATE_ATA only.
	ChangedFields []string `json:"changed_fields,omitempty"`

	// OldValues / NewValues are full record snapshots around the
	// mutation, serialized as JSONB.
	OldValues map[string]interface{} `json:"old_values,omitempty"`
	NewValues map[string]interface{} `json:"new_values,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks structural shape only: a table, a known action, and an
// acting user. Nothing about the payload is interpreted.
func (e *Entry) Validate() error {
	if e.TableName == "" {
		return errMissingTable
	}
	if !e.Action.Valid() {
		return errUnknownAction
	}
	return nil
}

// ToJSON serializes the entry, used by the file logger and exports.
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SearchFilter narrows audit queries. Zero values mean "no constraint".
type SearchFilter struct {
	TableName string
	RecordID  int64
	UserID    int64
	Actions   []Action

	Since time.Time
	Until time.Time

	Limit  int
	Offset int
}

// ExportFormat selects the serialization for audit exports.
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatNDJSON ExportFormat = "ndjson"
)

// RetentionPolicy controls how long trail rows are kept and whether
// expiring rows are archived to object storage before deletion.
type RetentionPolicy struct {
	RetentionDays  int
	ArchiveEnabled bool
	ArchivePrefix  string
}

// DefaultRetentionPolicy keeps two years of trail, which is what the
// governance office's records schedule requires.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		RetentionDays: 730,
		ArchivePrefix: "audit-archive",
	}
}
