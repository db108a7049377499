package gov

import (
	"context"

	"github.com/govdesk/govdesk/pkg/store"
)

// Procurement item statuses.
const (
	PCAPlanned    = "planned"
	PCAInProgress = "in_progress"
	PCAContracted = "contracted"
	PCACancelled  = "cancelled"
)

var pcaStatuses = map[string]bool{
	PCAPlanned:    true,
	PCAInProgress: true,
	PCAContracted: true,
	PCACancelled:  true,
}

var pcaQuarters = map[string]bool{
	"": true, "Q1": true, "Q2": true, "Q3": true, "Q4": true,
}

// PCAItemInput is the payload for creating an annual contracting plan item.
type PCAItemInput struct {
	ItemPCA        string  `json:"item_pca"`
	Description    string  `json:"description"`
	EstimatedValue float64 `json:"estimated_value"`
	Quarter        string  `json:"quarter"`
	Year           int     `json:"year"`
	Status         string  `json:"status"`
	DirectorateID  int64   `json:"directorate_id"`
}

// ProcurementService manages annual contracting plan (PCA) items.
type ProcurementService struct {
	items *store.Store
}

// Create validates and inserts a plan item. A duplicate (item_pca, year)
// pair surfaces as a *store.ConstraintError.
func (s *ProcurementService) Create(ctx context.Context, input PCAItemInput, userID int64) (store.Record, error) {
	if input.ItemPCA == "" {
		return nil, validationErr("item_pca is required")
	}
	if input.Description == "" {
		return nil, validationErr("description is required")
	}
	if input.DirectorateID <= 0 {
		return nil, validationErr("directorate_id is required")
	}
	if input.Year < 2000 || input.Year > 2100 {
		return nil, validationErr("year %d is out of range", input.Year)
	}
	if !pcaQuarters[input.Quarter] {
		return nil, validationErr("unknown quarter %q", input.Quarter)
	}
	if input.Status == "" {
		input.Status = PCAPlanned
	}
	if !pcaStatuses[input.Status] {
		return nil, validationErr("unknown item status %q", input.Status)
	}

	return s.items.Create(ctx, store.Record{
		"item_pca":        input.ItemPCA,
		"description":     input.Description,
		"estimated_value": input.EstimatedValue,
		"quarter":         input.Quarter,
		"year":            input.Year,
		"status":          input.Status,
		"directorate_id":  input.DirectorateID,
	}, userID)
}

// Get returns a single live plan item or nil.
func (s *ProcurementService) Get(ctx context.Context, id int64) (store.Record, error) {
	return s.items.FindOne(ctx, id)
}

// List returns a directorate's plan items.
func (s *ProcurementService) List(ctx context.Context, directorateID int64) ([]store.Record, error) {
	return listScoped(ctx, s.items, directorateID, "year DESC")
}

// ListByYear returns a directorate's plan items for one year.
func (s *ProcurementService) ListByYear(ctx context.Context, directorateID int64, year int) ([]store.Record, error) {
	if directorateID == 0 {
		return s.items.FindAll(ctx, "year = $1", []interface{}{year}, "item_pca")
	}
	return s.items.FindAll(ctx,
		"directorate_id = $1 AND year = $2",
		[]interface{}{directorateID, year}, "item_pca")
}

// ListIncludingDeleted returns all plan items regardless of deletion state.
func (s *ProcurementService) ListIncludingDeleted(ctx context.Context) ([]store.Record, error) {
	return s.items.FindAllIncludingDeleted(ctx, "year DESC")
}

// Update applies a partial field update to a plan item.
func (s *ProcurementService) Update(ctx context.Context, id int64, patch store.Record, userID int64) (store.Record, error) {
	if status, ok := patch["status"].(string); ok && !pcaStatuses[status] {
		return nil, validationErr("unknown item status %q", status)
	}
	if quarter, ok := patch["quarter"].(string); ok && !pcaQuarters[quarter] {
		return nil, validationErr("unknown quarter %q", quarter)
	}
	return s.items.Update(ctx, id, patch, userID)
}

// Delete soft-deletes a plan item.
func (s *ProcurementService) Delete(ctx context.Context, id int64, userID int64) (bool, error) {
	return s.items.SoftDelete(ctx, id, userID)
}

// Restore brings a soft-deleted plan item back.
func (s *ProcurementService) Restore(ctx context.Context, id int64, userID int64) (store.Record, error) {
	return s.items.Restore(ctx, id, userID)
}
