package api

import (
	"errors"
	"net/http"

	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/httputil"
	"github.com/govdesk/govdesk/pkg/observability"
	"github.com/govdesk/govdesk/pkg/store"
)

// actingUser returns the authenticated user id resolved by the middleware.
func actingUser(r *http.Request) int64 {
	return observability.GetActingUser(r.Context())
}

// directorateScope reads the optional directorate_id query parameter; zero
// means all directorates.
func directorateScope(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := httputil.ParseQueryInt64(r, "directorate_id", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return 0, false
	}
	return id, true
}

// writeServiceError maps service failures onto status codes: validation
// errors become 400, everything else goes through the store error mapping.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, gov.ErrValidation) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	httputil.WriteStoreError(w, err)
}

// writeRecordOr404 writes the record or a 404 when the service returned
// nil (no live record with that id).
func writeRecordOr404(w http.ResponseWriter, record store.Record, message string) {
	if record == nil {
		httputil.WriteNotFoundError(w, message)
		return
	}
	httputil.WriteSuccess(w, record)
}
