package gov

import (
	"context"
	"time"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/store"
)

// Committee kinds.
const (
	CommitteeGovernance = "governance"
	CommitteeBidding    = "bidding"
	CommitteeEvaluation = "evaluation"
)

var committeeKinds = map[string]bool{
	CommitteeGovernance: true,
	CommitteeBidding:    true,
	CommitteeEvaluation: true,
}

// CommitteeInput is the payload for creating a committee.
type CommitteeInput struct {
	Name          string     `json:"name"`
	Kind          string     `json:"kind"`
	MeetingDate   *time.Time `json:"meeting_date,omitempty"`
	DirectorateID int64      `json:"directorate_id"`
}

// MemberInput is the payload for adding a personnel member to a committee.
type MemberInput struct {
	PersonnelID int64  `json:"personnel_id"`
	Role        string `json:"role"`
}

// CommitteeService manages committees, their membership, and their meeting
// minutes.
type CommitteeService struct {
	committees *store.Store
	members    *store.Store
}

// Create validates and inserts a committee.
func (s *CommitteeService) Create(ctx context.Context, input CommitteeInput, userID int64) (store.Record, error) {
	if input.Name == "" {
		return nil, validationErr("committee name is required")
	}
	if !committeeKinds[input.Kind] {
		return nil, validationErr("unknown committee kind %q", input.Kind)
	}
	if input.DirectorateID <= 0 {
		return nil, validationErr("directorate_id is required")
	}

	data := store.Record{
		"name":           input.Name,
		"kind":           input.Kind,
		"directorate_id": input.DirectorateID,
	}
	if input.MeetingDate != nil {
		data["meeting_date"] = *input.MeetingDate
	}
	return s.committees.Create(ctx, data, userID)
}

// Get returns a single live committee or nil.
func (s *CommitteeService) Get(ctx context.Context, id int64) (store.Record, error) {
	return s.committees.FindOne(ctx, id)
}

// List returns a directorate's committees.
func (s *CommitteeService) List(ctx context.Context, directorateID int64) ([]store.Record, error) {
	return listScoped(ctx, s.committees, directorateID, "name")
}

// ListIncludingDeleted returns all committees regardless of deletion state.
func (s *CommitteeService) ListIncludingDeleted(ctx context.Context) ([]store.Record, error) {
	return s.committees.FindAllIncludingDeleted(ctx, "name")
}

// Update applies a partial field update to a committee. Minutes must go
// through UpdateAta so they carry their dedicated trail action.
func (s *CommitteeService) Update(ctx context.Context, id int64, patch store.Record, userID int64) (store.Record, error) {
	if _, ok := patch["ata"]; ok {
		return nil, validationErr("minutes are updated through the ata endpoint")
	}
	if kind, ok := patch["kind"].(string); ok && !committeeKinds[kind] {
		return nil, validationErr("unknown committee kind %q", kind)
	}
	return s.committees.Update(ctx, id, patch, userID)
}

// UpdateAta replaces the committee's meeting minutes. The mutation is
// recorded under the UPDATE_ATA trail action so minutes revisions are
// distinguishable from ordinary edits.
func (s *CommitteeService) UpdateAta(ctx context.Context, id int64, ata string, userID int64) (store.Record, error) {
	if ata == "" {
		return nil, validationErr("ata text is required")
	}
	return s.committees.UpdateAs(ctx, id, store.Record{"ata": ata}, userID, audit.ActionUpdateAta)
}

// Delete soft-deletes a committee and its memberships in one transaction.
func (s *CommitteeService) Delete(ctx context.Context, id int64, userID int64) (bool, error) {
	var deleted bool
	err := s.committees.WithTransaction(ctx, func(tx *store.Store) error {
		ok, err := tx.SoftDelete(ctx, id, userID)
		if err != nil {
			return err
		}
		deleted = ok
		if !ok {
			return nil
		}

		memberTx, err := s.members.Join(tx)
		if err != nil {
			return err
		}
		memberships, err := memberTx.FindAll(ctx, "committee_id = $1", []interface{}{id}, "id")
		if err != nil {
			return err
		}
		for _, m := range memberships {
			if _, err := memberTx.SoftDelete(ctx, m.ID(), userID); err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, err
}

// Restore brings a soft-deleted committee back. Memberships stay deleted
// until restored individually.
func (s *CommitteeService) Restore(ctx context.Context, id int64, userID int64) (store.Record, error) {
	return s.committees.Restore(ctx, id, userID)
}

// AddMember adds a personnel member to a committee. The committee must be
// live; duplicate membership surfaces as a *store.ConstraintError.
func (s *CommitteeService) AddMember(ctx context.Context, committeeID int64, input MemberInput, userID int64) (store.Record, error) {
	if input.PersonnelID <= 0 {
		return nil, validationErr("personnel_id is required")
	}
	if input.Role == "" {
		input.Role = "member"
	}

	committee, err := s.committees.FindOne(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	if committee == nil {
		return nil, nil
	}

	return s.members.Create(ctx, store.Record{
		"committee_id": committeeID,
		"personnel_id": input.PersonnelID,
		"role":         input.Role,
	}, userID)
}

// Members lists the live memberships of a committee.
func (s *CommitteeService) Members(ctx context.Context, committeeID int64) ([]store.Record, error) {
	return s.members.FindAll(ctx, "committee_id = $1", []interface{}{committeeID}, "id")
}

// RemoveMember soft-deletes a membership.
func (s *CommitteeService) RemoveMember(ctx context.Context, memberID int64, userID int64) (bool, error) {
	return s.members.SoftDelete(ctx, memberID, userID)
}
