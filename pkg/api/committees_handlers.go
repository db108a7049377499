package api

import (
	"net/http"

	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/httputil"
	"github.com/govdesk/govdesk/pkg/store"
)

func (s *Server) createCommittee(w http.ResponseWriter, r *http.Request) {
	var input gov.CommitteeInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	record, err := s.services.Committees.Create(r.Context(), input, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, record)
}

func (s *Server) listCommittees(w http.ResponseWriter, r *http.Request) {
	directorateID, ok := directorateScope(w, r)
	if !ok {
		return
	}

	records, err := s.services.Committees.List(r.Context(), directorateID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) listCommitteesIncludingDeleted(w http.ResponseWriter, r *http.Request) {
	records, err := s.services.Committees.ListIncludingDeleted(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) getCommittee(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Committees.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "committee not found")
}

func (s *Server) updateCommittee(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var patch store.Record
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	record, err := s.services.Committees.Update(r.Context(), id, patch, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "committee not found")
}

func (s *Server) deleteCommittee(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := s.services.Committees.Delete(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		httputil.WriteNotFoundError(w, "committee not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) restoreCommittee(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	record, err := s.services.Committees.Restore(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "committee not found or not deleted")
}

// ataRequest is the payload for replacing committee meeting minutes.
type ataRequest struct {
	Ata string `json:"ata"`
}

func (s *Server) updateCommitteeAta(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req ataRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	record, err := s.services.Committees.UpdateAta(r.Context(), id, req.Ata, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecordOr404(w, record, "committee not found")
}

func (s *Server) addCommitteeMember(w http.ResponseWriter, r *http.Request) {
	committeeID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var input gov.MemberInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	record, err := s.services.Committees.AddMember(r.Context(), committeeID, input, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if record == nil {
		httputil.WriteNotFoundError(w, "committee not found")
		return
	}
	httputil.WriteCreated(w, record)
}

func (s *Server) listCommitteeMembers(w http.ResponseWriter, r *http.Request) {
	committeeID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	records, err := s.services.Committees.Members(r.Context(), committeeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) removeCommitteeMember(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	removed, err := s.services.Committees.RemoveMember(r.Context(), id, actingUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		httputil.WriteNotFoundError(w, "membership not found")
		return
	}
	httputil.WriteNoContent(w)
}
