package gov

import "github.com/govdesk/govdesk/pkg/store"

// Table names for the governance entities.
const (
	TableObjectives       = "objectives"
	TableKeyResults       = "key_results"
	TablePCAItems         = "pca_items"
	TableCommittees       = "committees"
	TableCommitteeMembers = "committee_members"
	TablePersonnel        = "personnel"
)

// ObjectiveSchema describes the objectives table.
var ObjectiveSchema = store.Schema{
	Table:   TableObjectives,
	Columns: []string{"title", "description", "owner_id", "directorate_id", "year", "status"},
}

// KeyResultSchema describes the key_results table.
var KeyResultSchema = store.Schema{
	Table:   TableKeyResults,
	Columns: []string{"objective_id", "title", "target_value", "current_value", "unit", "due_date"},
}

// PCAItemSchema describes the pca_items table. item_pca is the official
// item code within the annual contracting plan; (item_pca, year) is unique.
var PCAItemSchema = store.Schema{
	Table:   TablePCAItems,
	Columns: []string{"item_pca", "description", "estimated_value", "quarter", "year", "status", "directorate_id"},
}

// CommitteeSchema describes the committees table. ata holds the meeting
// minutes text.
var CommitteeSchema = store.Schema{
	Table:   TableCommittees,
	Columns: []string{"name", "kind", "ata", "meeting_date", "directorate_id"},
}

// CommitteeMemberSchema describes the committee_members table.
var CommitteeMemberSchema = store.Schema{
	Table:   TableCommitteeMembers,
	Columns: []string{"committee_id", "personnel_id", "role"},
}

// PersonnelSchema describes the personnel table. email is unique.
var PersonnelSchema = store.Schema{
	Table:   TablePersonnel,
	Columns: []string{"name", "email", "registration", "position", "directorate_id"},
}

// Schemas lists every governance table schema, keyed by table name.
func Schemas() map[string]store.Schema {
	return map[string]store.Schema{
		TableObjectives:       ObjectiveSchema,
		TableKeyResults:       KeyResultSchema,
		TablePCAItems:         PCAItemSchema,
		TableCommittees:       CommitteeSchema,
		TableCommitteeMembers: CommitteeMemberSchema,
		TablePersonnel:        PersonnelSchema,
	}
}
