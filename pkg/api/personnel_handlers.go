package api

import (
	"net/http"

	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/httputil"
	"github.com/govdesk/govdesk/pkg/store"
)

func (s *Server) createPersonnel(w http.ResponseWriter, r *http.Request) {
	var input gov.PersonnelInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	record, err := s.services.Personnel.Create(r.Context(), input, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, record)
}

func (s *Server) listPersonnel(w http.ResponseWriter, r *http.Request) {
	directorateID, ok := directorateScope(w, r)
	if !ok {
		return
	}

	records, err := s.services.Personnel.List(r.Context(), directorateID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) listPersonnelIncludingDeleted(w http.ResponseWriter, r *http.Request) {
	records, err := s.services.Personnel.ListIncludingDeleted(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) getPersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Personnel.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "person not found")
}

func (s *Server) updatePersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var patch store.Record
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	record, err := s.services.Personnel.Update(r.Context(), id, patch, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "person not found")
}

func (s *Server) deletePersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := s.services.Personnel.Delete(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		httputil.WriteNotFoundError(w, "person not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) restorePersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Personnel.Restore(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "person not found or not deleted")
}
