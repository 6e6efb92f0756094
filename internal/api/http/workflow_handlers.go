package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	appWorkflow "github.com/approval-hub/approval-hub/internal/application/workflow"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

type workflowCreateRequest struct {
	Invoice invoiceSnapshotRequest `json:"invoice"`
}

type actionRequest struct {
	Action   string  `json:"action"`
	RoleID   string  `json:"roleId,omitempty"`
	Comments *string `json:"comments,omitempty"`
}

func (s *Server) createWorkflow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req workflowCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	inv, err := req.Invoice.toSnapshot()
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid invoiceId")
		return
	}
	created, err := s.workflowSvc.CreateWorkflow(r.Context(), inv, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	var filter workflow.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		st := workflow.Status(v)
		filter.Status = &st
	}
	if v := r.URL.Query().Get("ownerId"); v != "" {
		filter.OwnerID = &v
	}
	if v := r.URL.Query().Get("initiatedBy"); v != "" {
		filter.InitiatedBy = &v
	}
	if v := r.URL.Query().Get("ruleId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
			return
		}
		filter.RuleID = &id
	}
	workflows, err := s.workflowSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"workflows": workflows})
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "workflowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid workflowId")
		return
	}
	found, err := s.workflowSvc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) getWorkflowByInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "invoiceId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid invoiceId")
		return
	}
	found, err := s.workflowSvc.GetByInvoice(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) takeAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "workflowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid workflowId")
		return
	}
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	decision := workflow.Decision(req.Action)
	if decision != workflow.DecisionApprove && decision != workflow.DecisionReject {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "action must be APPROVE or REJECT")
		return
	}
	updated, err := s.workflowSvc.TakeAction(r.Context(), appWorkflow.ActionRequest{
		WorkflowID: id,
		Action:     decision,
		RoleID:     req.RoleID,
		Comments:   req.Comments,
		Actor:      actor,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "workflowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid workflowId")
		return
	}
	actions, err := s.workflowSvc.ListActions(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"actions": actions})
}

func (s *Server) canTakeAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "workflowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid workflowId")
		return
	}
	decision := workflow.DecisionApprove
	if v := r.URL.Query().Get("action"); v != "" {
		decision = workflow.Decision(v)
	}
	allowed, err := s.workflowSvc.CanUserTakeAction(r.Context(), actor.ID, id, decision)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"workflowId": id, "action": decision, "allowed": allowed})
}

func (s *Server) listWorkflowAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "workflowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid workflowId")
		return
	}
	entries, err := s.auditSvc.ListByWorkflow(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
