package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	appDelegation "github.com/approval-hub/approval-hub/internal/application/delegation"
	appNotification "github.com/approval-hub/approval-hub/internal/application/notification"
	appRole "github.com/approval-hub/approval-hub/internal/application/role"
	appRule "github.com/approval-hub/approval-hub/internal/application/rule"
	appWorkflow "github.com/approval-hub/approval-hub/internal/application/workflow"
	"github.com/approval-hub/approval-hub/internal/domain/audit"
	"github.com/approval-hub/approval-hub/internal/domain/delegation"
	"github.com/approval-hub/approval-hub/internal/domain/role"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
	"github.com/approval-hub/approval-hub/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ruleSvc         *appRule.Service
	workflowSvc     *appWorkflow.Service
	delegationSvc   *appDelegation.Service
	auditSvc        *appAudit.Service
	notificationSvc *appNotification.Service
	roleSvc         *appRole.Service
	sseHub          *sse.Hub
}

func NewServer(
	ruleSvc *appRule.Service,
	workflowSvc *appWorkflow.Service,
	delegationSvc *appDelegation.Service,
	auditSvc *appAudit.Service,
	notificationSvc *appNotification.Service,
	roleSvc *appRole.Service,
	sseHub *sse.Hub,
) *Server {
	return &Server{
		ruleSvc:         ruleSvc,
		workflowSvc:     workflowSvc,
		delegationSvc:   delegationSvc,
		auditSvc:        auditSvc,
		notificationSvc: notificationSvc,
		roleSvc:         roleSvc,
		sseHub:          sseHub,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/rules", func(r chi.Router) {
			r.Post("/", s.createRule)
			r.Get("/", s.listRules)
			r.Post("/validate", s.validateRule)
			r.Post("/preview", s.previewRequirements)
			r.Get("/{ruleId}", s.getRule)
			r.Patch("/{ruleId}", s.updateRule)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", s.createWorkflow)
			r.Get("/", s.listWorkflows)
			r.Get("/{workflowId}", s.getWorkflow)
			r.Post("/{workflowId}/actions", s.takeAction)
			r.Get("/{workflowId}/actions", s.listActions)
			r.Get("/{workflowId}/can-act", s.canTakeAction)
			r.Get("/{workflowId}/audit", s.listWorkflowAudit)
		})
		r.Get("/invoices/{invoiceId}/workflow", s.getWorkflowByInvoice)

		r.Route("/delegations", func(r chi.Router) {
			r.Post("/", s.createDelegation)
			r.Get("/", s.listDelegations)
			r.Get("/{delegationId}", s.getDelegation)
			r.Post("/{delegationId}/revoke", s.revokeDelegation)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/", s.queryAudit)
			r.Get("/stats", s.auditStats)
			r.Get("/export", s.exportAudit)
			r.Get("/reports/compliance", s.complianceReport)
			r.Get("/reports/velocity", s.velocityReport)
			r.Get("/reports/suspicious", s.suspiciousPatterns)
			r.Get("/{auditId}", s.getAudit)
			r.Get("/{auditId}/verify", s.verifyAudit)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Post("/", s.createRole)
			r.Get("/", s.listRoles)
			r.Get("/{roleName}", s.getRole)
			r.Get("/{roleName}/members", s.listRoleMembers)
			r.Post("/{roleName}/members", s.addRoleMember)
			r.Delete("/{roleName}/members/{userId}", s.removeRoleMember)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.listNotifications)
			r.Get("/pending", s.listPendingNotifications)
			r.Get("/{notificationId}", s.getNotification)
			r.Post("/{notificationId}/dispatched", s.markNotificationDispatched)
			r.Get("/sse", s.sseEndpoint)
		})

		r.Get("/events", s.sseEndpoint)
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps domain errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *appRule.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "VALIDATION_FAILED",
			"message": verr.Error(),
			"details": verr.Errors,
		})
	case errors.Is(err, rule.ErrNotFound),
		errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, delegation.ErrNotFound),
		errors.Is(err, role.ErrNotFound),
		errors.Is(err, audit.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, workflow.ErrAlreadyExists),
		errors.Is(err, workflow.ErrConflict),
		errors.Is(err, workflow.ErrDuplicateRole),
		errors.Is(err, delegation.ErrAlreadyRevoked):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, workflow.ErrPermissionDenied),
		errors.Is(err, audit.ErrImmutable):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, workflow.ErrInvalidState):
		respondError(w, http.StatusUnprocessableEntity, "INVALID_STATE", err.Error())
	case errors.Is(err, workflow.ErrNoApplicableRule),
		errors.Is(err, delegation.ErrInvalidWindow),
		errors.Is(err, rule.ErrReferenced):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case audit.IsTransient(err):
		respondError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func parseUUIDString(val string) (uuid.UUID, error) {
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// actorFromRequest builds the audit actor from the identity headers the
// gateway injects. Authentication itself happens upstream.
func actorFromRequest(r *http.Request) appAudit.Actor {
	roles := splitCSV(r.Header.Get("X-Actor-Roles"))
	actor := appAudit.Actor{
		ID:        r.Header.Get("X-Actor-Id"),
		Roles:     roles,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
		SessionID: r.Header.Get("X-Session-Id"),
	}
	if len(roles) > 0 {
		actor.Role = roles[0]
	}
	return actor
}

func requireActor(w http.ResponseWriter, r *http.Request) (appAudit.Actor, bool) {
	actor := actorFromRequest(r)
	if actor.ID == "" {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-Actor-Id header required")
		return actor, false
	}
	return actor, true
}

func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
