package httpapi

import (
	"net/http"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
)

type ruleCreateRequest struct {
	Name                 string        `json:"name"`
	Description          string        `json:"description,omitempty"`
	MinAmount            float64       `json:"minAmount"`
	MaxAmount            *float64      `json:"maxAmount,omitempty"`
	Currency             *string       `json:"currency,omitempty"`
	InvoiceType          *invoice.Type `json:"invoiceType,omitempty"`
	Condition            *string       `json:"condition,omitempty"`
	RequiredApprovals    int           `json:"requiredApprovals"`
	ApproverRoles        []string      `json:"approverRoles"`
	ParallelApproval     bool          `json:"parallelApproval,omitempty"`
	ApprovalTimeoutHours *int          `json:"approvalTimeoutHours,omitempty"`
	EscalateToRole       *string       `json:"escalateToRole,omitempty"`
	Priority             int           `json:"priority,omitempty"`
}

func (req ruleCreateRequest) toRule(createdBy string) *rule.Rule {
	r := rule.NewRule(req.Name, req.MinAmount, req.RequiredApprovals, req.ApproverRoles)
	r.Description = req.Description
	r.MaxAmount = req.MaxAmount
	r.Currency = req.Currency
	r.InvoiceType = req.InvoiceType
	r.Condition = req.Condition
	r.ParallelApproval = req.ParallelApproval
	r.ApprovalTimeoutHours = req.ApprovalTimeoutHours
	r.EscalateToRole = req.EscalateToRole
	r.Priority = req.Priority
	if createdBy != "" {
		r.CreatedBy = &createdBy
	}
	return r
}

type ruleUpdateRequest struct {
	Name                 *string       `json:"name,omitempty"`
	Description          *string       `json:"description,omitempty"`
	MinAmount            *float64      `json:"minAmount,omitempty"`
	MaxAmount            *float64      `json:"maxAmount,omitempty"`
	ClearMaxAmount       bool          `json:"clearMaxAmount,omitempty"`
	Currency             *string       `json:"currency,omitempty"`
	InvoiceType          *invoice.Type `json:"invoiceType,omitempty"`
	Condition            *string       `json:"condition,omitempty"`
	RequiredApprovals    *int          `json:"requiredApprovals,omitempty"`
	ApproverRoles        []string      `json:"approverRoles,omitempty"`
	ParallelApproval     *bool         `json:"parallelApproval,omitempty"`
	ApprovalTimeoutHours *int          `json:"approvalTimeoutHours,omitempty"`
	EscalateToRole       *string       `json:"escalateToRole,omitempty"`
	Priority             *int          `json:"priority,omitempty"`
	IsActive             *bool         `json:"isActive,omitempty"`
}

type invoiceSnapshotRequest struct {
	InvoiceID          string       `json:"invoiceId"`
	OwnerID            string       `json:"ownerId,omitempty"`
	Amount             float64      `json:"amount"`
	Currency           string       `json:"currency"`
	BaseCurrencyAmount float64      `json:"baseCurrencyAmount,omitempty"`
	InvoiceType        invoice.Type `json:"invoiceType"`
}

func (req invoiceSnapshotRequest) toSnapshot() (invoice.Snapshot, error) {
	id, err := parseUUIDString(req.InvoiceID)
	if err != nil {
		return invoice.Snapshot{}, err
	}
	return invoice.Snapshot{
		InvoiceID:          id,
		OwnerID:            req.OwnerID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		BaseCurrencyAmount: req.BaseCurrencyAmount,
		InvoiceType:        req.InvoiceType,
	}, nil
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req ruleCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	created, err := s.ruleSvc.CreateRule(r.Context(), req.toRule(actor.ID))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	var filter rule.Filter
	if v := r.URL.Query().Get("isActive"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	if v := r.URL.Query().Get("currency"); v != "" {
		filter.Currency = &v
	}
	if v := r.URL.Query().Get("invoiceType"); v != "" {
		t := invoice.Type(v)
		filter.InvoiceType = &t
	}
	rules, err := s.ruleSvc.ListRules(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "ruleId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
		return
	}
	found, err := s.ruleSvc.GetRule(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "ruleId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
		return
	}
	var req ruleUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	upd := rule.Update{
		Name:                 req.Name,
		Description:          req.Description,
		MinAmount:            req.MinAmount,
		MaxAmount:            req.MaxAmount,
		ClearMaxAmount:       req.ClearMaxAmount,
		Currency:             req.Currency,
		InvoiceType:          req.InvoiceType,
		Condition:            req.Condition,
		RequiredApprovals:    req.RequiredApprovals,
		ApproverRoles:        req.ApproverRoles,
		ParallelApproval:     req.ParallelApproval,
		ApprovalTimeoutHours: req.ApprovalTimeoutHours,
		EscalateToRole:       req.EscalateToRole,
		Priority:             req.Priority,
		IsActive:             req.IsActive,
		UpdatedBy:            &actor.ID,
	}
	updated, err := s.ruleSvc.UpdateRule(r.Context(), id, upd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) validateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	result, err := s.ruleSvc.ValidateRule(r.Context(), req.toRule(""))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// previewRequirements answers "what would approving this invoice take"
// without creating a workflow.
func (s *Server) previewRequirements(w http.ResponseWriter, r *http.Request) {
	var req invoiceSnapshotRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	inv, err := req.toSnapshot()
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid invoiceId")
		return
	}
	reqs, err := s.ruleSvc.CalculateRequiredApprovals(r.Context(), inv)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}
