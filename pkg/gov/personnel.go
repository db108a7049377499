package gov

import (
	"context"
	"strings"

	"github.com/govdesk/govdesk/pkg/store"
)

// PersonnelInput is the payload for registering a person.
type PersonnelInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Registration  string `json:"registration"`
	Position      string `json:"position"`
	DirectorateID int64  `json:"directorate_id"`
}

// PersonnelService manages the personnel registry.
type PersonnelService struct {
	personnel *store.Store
}

// Create validates and inserts a person. A duplicate email surfaces as a
// *store.ConstraintError.
func (s *PersonnelService) Create(ctx context.Context, input PersonnelInput, userID int64) (store.Record, error) {
	if input.Name == "" {
		return nil, validationErr("name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, validationErr("a valid email is required")
	}
	if input.DirectorateID <= 0 {
		return nil, validationErr("directorate_id is required")
	}

	return s.personnel.Create(ctx, store.Record{
		"name":           input.Name,
		"email":          email,
		"registration":   input.Registration,
		"position":       input.Position,
		"directorate_id": input.DirectorateID,
	}, userID)
}

// Get returns a single live person or nil.
func (s *PersonnelService) Get(ctx context.Context, id int64) (store.Record, error) {
	return s.personnel.FindOne(ctx, id)
}

// List returns a directorate's personnel ordered by name.
func (s *PersonnelService) List(ctx context.Context, directorateID int64) ([]store.Record, error) {
	return listScoped(ctx, s.personnel, directorateID, "name")
}

// ListIncludingDeleted returns everyone regardless of deletion state.
func (s *PersonnelService) ListIncludingDeleted(ctx context.Context) ([]store.Record, error) {
	return s.personnel.FindAllIncludingDeleted(ctx, "name")
}

// Update applies a partial field update to a person.
func (s *PersonnelService) Update(ctx context.Context, id int64, patch store.Record, userID int64) (store.Record, error) {
	if email, ok := patch["email"].(string); ok {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" || !strings.Contains(normalized, "@") {
			return nil, validationErr("a valid email is required")
		}
		patch["email"] = normalized
	}
	return s.personnel.Update(ctx, id, patch, userID)
}

// Delete soft-deletes a person.
func (s *PersonnelService) Delete(ctx context.Context, id int64, userID int64) (bool, error) {
	return s.personnel.SoftDelete(ctx, id, userID)
}

// Restore brings a soft-deleted person back.
func (s *PersonnelService) Restore(ctx context.Context, id int64, userID int64) (store.Record, error) {
	return s.personnel.Restore(ctx, id, userID)
}
