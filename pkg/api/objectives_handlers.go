package api

import (
	"net/http"

	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/httputil"
	"github.com/govdesk/govdesk/pkg/store"
)

func (s *Server) createObjective(w http.ResponseWriter, r *http.Request) {
	var input gov.ObjectiveInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	record, err := s.services.Objectives.Create(r.Context(), input, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, record)
}

func (s *Server) listObjectives(w http.ResponseWriter, r *http.Request) {
	directorateID, ok := directorateScope(w, r)
	if !ok {
		return
	}

	records, err := s.services.Objectives.List(r.Context(), directorateID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) listObjectivesIncludingDeleted(w http.ResponseWriter, r *http.Request) {
	records, err := s.services.Objectives.ListIncludingDeleted(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) getObjective(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Objectives.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "objective not found")
}

func (s *Server) updateObjective(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var patch store.Record
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	record, err := s.services.Objectives.Update(r.Context(), id, patch, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "objective not found")
}

func (s *Server) deleteObjective(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := s.services.Objectives.Delete(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		httputil.WriteNotFoundError(w, "objective not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) restoreObjective(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Objectives.Restore(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "objective not found or not deleted")
}

func (s *Server) addKeyResult(w http.ResponseWriter, r *http.Request) {
	objectiveID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var input gov.KeyResultInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	record, err := s.services.Objectives.AddKeyResult(r.Context(), objectiveID, input, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if record == nil {
		httputil.WriteNotFoundError(w, "objective not found")
		return
	}
	httputil.WriteCreated(w, record)
}

func (s *Server) listKeyResults(w http.ResponseWriter, r *http.Request) {
	objectiveID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	records, err := s.services.Objectives.KeyResults(r.Context(), objectiveID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) updateKeyResult(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var patch store.Record
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	record, err := s.services.Objectives.UpdateKeyResult(r.Context(), id, patch, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "key result not found")
}

func (s *Server) deleteKeyResult(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := s.services.Objectives.DeleteKeyResult(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		httputil.WriteNotFoundError(w, "key result not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) restoreKeyResult(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Objectives.RestoreKeyResult(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "key result not found or not deleted")
}
