package gov

import (
	"context"
	"time"

	"github.com/govdesk/govdesk/pkg/store"
)

// Objective statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var objectiveStatuses = map[string]bool{
	StatusActive:    true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// ObjectiveInput is the payload for creating an objective.
type ObjectiveInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	OwnerID       int64  `json:"owner_id"`
	DirectorateID int64  `json:"directorate_id"`
	Year          int    `json:"year"`
	Status        string `json:"status"`
}

// KeyResultInput is the payload for creating a key result under an
// objective.
type KeyResultInput struct {
	Title        string     `json:"title"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Unit         string     `json:"unit"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// ObjectiveService manages objectives and their key results.
type ObjectiveService struct {
	objectives *store.Store
	keyResults *store.Store
}

// Create validates and inserts a new objective.
func (s *ObjectiveService) Create(ctx context.Context, input ObjectiveInput, userID int64) (store.Record, error) {
	if input.Title == "" {
		return nil, validationErr("objective title is required")
	}
	if input.DirectorateID <= 0 {
		return nil, validationErr("directorate_id is required")
	}
	if input.Year < 2000 || input.Year > 2100 {
		return nil, validationErr("year %d is out of range", input.Year)
	}
	if input.Status == "" {
		input.Status = StatusActive
	}
	if !objectiveStatuses[input.Status] {
		return nil, validationErr("unknown objective status %q", input.Status)
	}

	return s.objectives.Create(ctx, store.Record{
		"title":          input.Title,
		"description":    input.Description,
		"owner_id":       input.OwnerID,
		"directorate_id": input.DirectorateID,
		"year":           input.Year,
		"status":         input.Status,
	}, userID)
}

// Get returns a single non-deleted objective or nil.
func (s *ObjectiveService) Get(ctx context.Context, id int64) (store.Record, error) {
	return s.objectives.FindOne(ctx, id)
}

// List returns the directorate's objectives, newest first.
func (s *ObjectiveService) List(ctx context.Context, directorateID int64) ([]store.Record, error) {
	return listScoped(ctx, s.objectives, directorateID, "id DESC")
}

// ListIncludingDeleted returns all objectives regardless of deletion state.
func (s *ObjectiveService) ListIncludingDeleted(ctx context.Context) ([]store.Record, error) {
	return s.objectives.FindAllIncludingDeleted(ctx, "id DESC")
}

// Count returns the number of live objectives for a directorate.
func (s *ObjectiveService) Count(ctx context.Context, directorateID int64) (int64, error) {
	return countScoped(ctx, s.objectives, directorateID)
}

// Update applies a partial field update to an objective.
func (s *ObjectiveService) Update(ctx context.Context, id int64, patch store.Record, userID int64) (store.Record, error) {
	if status, ok := patch["status"].(string); ok && !objectiveStatuses[status] {
		return nil, validationErr("unknown objective status %q", status)
	}
	return s.objectives.Update(ctx, id, patch, userID)
}

// Delete soft-deletes an objective together with its key results, all in
// one transaction.
func (s *ObjectiveService) Delete(ctx context.Context, id int64, userID int64) (bool, error) {
	var deleted bool
	err := s.objectives.WithTransaction(ctx, func(tx *store.Store) error {
		ok, err := tx.SoftDelete(ctx, id, userID)
		if err != nil {
			return err
		}
		deleted = ok
		if !ok {
			return nil
		}

		krTx, err := s.keyResults.Join(tx)
		if err != nil {
			return err
		}
		results, err := krTx.FindAll(ctx, "objective_id = $1", []interface{}{id}, "id")
		if err != nil {
			return err
		}
		for _, kr := range results {
			if _, err := krTx.SoftDelete(ctx, kr.ID(), userID); err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, err
}

// Restore brings a soft-deleted objective back. Key results are restored
// individually by the caller; restoring the parent does not resurrect them.
func (s *ObjectiveService) Restore(ctx context.Context, id int64, userID int64) (store.Record, error) {
	return s.objectives.Restore(ctx, id, userID)
}

// AddKeyResult validates and inserts a key result under an objective. The
// parent must exist and not be deleted.
func (s *ObjectiveService) AddKeyResult(ctx context.Context, objectiveID int64, input KeyResultInput, userID int64) (store.Record, error) {
	if input.Title == "" {
		return nil, validationErr("key result title is required")
	}

	parent, err := s.objectives.FindOne(ctx, objectiveID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, nil
	}

	data := store.Record{
		"objective_id":  objectiveID,
		"title":         input.Title,
		"target_value":  input.TargetValue,
		"current_value": input.CurrentValue,
		"unit":          input.Unit,
	}
	if input.DueDate != nil {
		data["due_date"] = *input.DueDate
	}
	return s.keyResults.Create(ctx, data, userID)
}

// KeyResults lists the live key results of an objective.
func (s *ObjectiveService) KeyResults(ctx context.Context, objectiveID int64) ([]store.Record, error) {
	return s.keyResults.FindAll(ctx, "objective_id = $1", []interface{}{objectiveID}, "id")
}

// UpdateKeyResult applies a partial update to a key result, typically to
// advance current_value.
func (s *ObjectiveService) UpdateKeyResult(ctx context.Context, id int64, patch store.Record, userID int64) (store.Record, error) {
	return s.keyResults.Update(ctx, id, patch, userID)
}

// DeleteKeyResult soft-deletes a single key result.
func (s *ObjectiveService) DeleteKeyResult(ctx context.Context, id int64, userID int64) (bool, error) {
	return s.keyResults.SoftDelete(ctx, id, userID)
}

// RestoreKeyResult brings a soft-deleted key result back.
func (s *ObjectiveService) RestoreKeyResult(ctx context.Context, id int64, userID int64) (store.Record, error) {
	return s.keyResults.Restore(ctx, id, userID)
}
