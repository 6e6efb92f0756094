package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
)

func auditFilterFromQuery(r *http.Request) (audit.QueryFilter, error) {
	var filter audit.QueryFilter
	if v := r.URL.Query().Get("workflowId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.WorkflowID = &id
	}
	if v := r.URL.Query().Get("event"); v != "" {
		ev := audit.Event(v)
		filter.Event = &ev
	}
	if v := r.URL.Query().Get("entityType"); v != "" {
		filter.EntityType = &v
	}
	if v := r.URL.Query().Get("actorId"); v != "" {
		filter.ActorID = &v
	}
	start, err := parseTimeParam(r, "startTime")
	if err != nil {
		return filter, err
	}
	filter.StartTime = start
	end, err := parseTimeParam(r, "endTime")
	if err != nil {
		return filter, err
	}
	filter.EndTime = end
	return filter, nil
}

func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	limit, offset := parseLimitOffset(r, 100, 500)
	entries, total, err := s.auditSvc.QueryPaginated(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "auditId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid auditId")
		return
	}
	entry, err := s.auditSvc.GetEntry(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) verifyAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "auditId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid auditId")
		return
	}
	entry, err := s.auditSvc.GetEntry(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"auditId": entry.AuditID,
		"valid":   !entry.Tampered,
	})
}

func (s *Server) auditStats(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "startTime")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid startTime")
		return
	}
	end, err := parseTimeParam(r, "endTime")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid endTime")
		return
	}
	stats, err := s.auditSvc.Stats(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) exportAudit(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	export, err := s.auditSvc.Export(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, export)
}

// reportPeriod defaults to the trailing 30 days when the query omits bounds.
func reportPeriod(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.Add(-30 * 24 * time.Hour)
	if t, err := parseTimeParam(r, "startTime"); err != nil {
		return start, end, err
	} else if t != nil {
		start = *t
	}
	if t, err := parseTimeParam(r, "endTime"); err != nil {
		return start, end, err
	} else if t != nil {
		end = *t
	}
	return start, end, nil
}

func (s *Server) complianceReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportPeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	report, err := s.auditSvc.ComplianceReport(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) velocityReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportPeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	report, err := s.auditSvc.ApprovalVelocity(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) suspiciousPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.auditSvc.DetectSuspiciousPatterns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"patterns": patterns})
}
