package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/httputil"
)

const (
	auditDefaultLimit = 100
	auditMaxLimit     = 1000
	auditExportLimit  = 10000
)

// parseAuditFilter builds a trail search filter from query parameters:
// table, record_id, user_id, action (comma separated), since, until
// (RFC 3339), limit, offset.
func parseAuditFilter(r *http.Request, defaultLimit, maxLimit int) (audit.SearchFilter, error) {
	var filter audit.SearchFilter
	var err error

	filter.TableName = httputil.ParseQueryString(r, "table", "")
	if filter.RecordID, err = httputil.ParseQueryInt64(r, "record_id", 0); err != nil {
		return filter, err
	}
	if filter.UserID, err = httputil.ParseQueryInt64(r, "user_id", 0); err != nil {
		return filter, err
	}

	if actions := httputil.ParseQueryString(r, "action", ""); actions != "" {
		for _, raw := range strings.Split(actions, ",") {
			action := audit.Action(strings.ToUpper(strings.TrimSpace(raw)))
			if !action.Valid() {
				return filter, fmt.Errorf("unknown audit action %q", raw)
			}
			filter.Actions = append(filter.Actions, action)
		}
	}

	if filter.Since, err = httputil.ParseQueryTime(r, "since"); err != nil {
		return filter, err
	}
	if filter.Until, err = httputil.ParseQueryTime(r, "until"); err != nil {
		return filter, err
	}

	if filter.Limit, err = httputil.ParseQueryInt(r, "limit", defaultLimit); err != nil {
		return filter, err
	}
	if filter.Limit <= 0 || filter.Limit > maxLimit {
		filter.Limit = defaultLimit
	}
	if filter.Offset, err = httputil.ParseQueryInt(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

func (s *Server) searchAudit(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		httputil.WriteServiceUnavailable(w, "audit trail backend is not available")
		return
	}

	filter, err := parseAuditFilter(r, auditDefaultLimit, auditMaxLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	entries, err := s.trail.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, entries)
}

func (s *Server) getAuditEntry(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		httputil.WriteServiceUnavailable(w, "audit trail backend is not available")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	entry, err := s.trail.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if entry == nil {
		httputil.WriteNotFoundError(w, "audit entry not found")
		return
	}
	httputil.WriteSuccess(w, entry)
}

func (s *Server) exportAudit(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		httputil.WriteServiceUnavailable(w, "audit trail backend is not available")
		return
	}

	filter, err := parseAuditFilter(r, auditExportLimit, auditExportLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	format := audit.ExportFormat(httputil.ParseQueryString(r, "format", string(audit.ExportFormatJSON)))
	switch format {
	case audit.ExportFormatJSON, audit.ExportFormatCSV, audit.ExportFormatNDJSON:
	default:
		httputil.WriteBadRequest(w, fmt.Sprintf("unknown export format %q", format))
		return
	}

	entries, err := s.trail.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	data, err := audit.Export(entries, format)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	contentType := "application/json"
	switch format {
	case audit.ExportFormatCSV:
		contentType = "text/csv"
	case audit.ExportFormatNDJSON:
		contentType = "application/x-ndjson"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=audit-export.%s", format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
