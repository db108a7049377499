package api

import (
	"net/http"

	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/httputil"
	"github.com/govdesk/govdesk/pkg/store"
)

func (s *Server) createPCAItem(w http.ResponseWriter, r *http.Request) {
	var input gov.PCAItemInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	record, err := s.services.Procurement.Create(r.Context(), input, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, record)
}

func (s *Server) listPCAItems(w http.ResponseWriter, r *http.Request) {
	directorateID, ok := directorateScope(w, r)
	if !ok {
		return
	}
	year, err := httputil.ParseQueryInt(r, "year", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var records []store.Record
	if year > 0 {
		records, err = s.services.Procurement.ListByYear(r.Context(), directorateID, year)
	} else {
		records, err = s.services.Procurement.List(r.Context(), directorateID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) listPCAItemsIncludingDeleted(w http.ResponseWriter, r *http.Request) {
	records, err := s.services.Procurement.ListIncludingDeleted(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) getPCAItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Procurement.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "plan item not found")
}

func (s *Server) updatePCAItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var patch store.Record
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	record, err := s.services.Procurement.Update(r.Context(), id, patch, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "plan item not found")
}

func (s *Server) deletePCAItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := s.services.Procurement.Delete(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		httputil.WriteNotFoundError(w, "plan item not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) restorePCAItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Procurement.Restore(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "plan item not found or not deleted")
}
