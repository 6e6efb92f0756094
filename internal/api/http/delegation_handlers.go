package httpapi

import (
	"net/http"
	"time"

	appDelegation "github.com/approval-hub/approval-hub/internal/application/delegation"
	"github.com/approval-hub/approval-hub/internal/domain/delegation"
)

type delegationCreateRequest struct {
	FromRoleID     string   `json:"fromRoleId"`
	ToUserID       string   `json:"toUserId"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	DelegationType string   `json:"delegationType,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	MaxAmount      *float64 `json:"maxAmount,omitempty"`
}

func (s *Server) createDelegation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req delegationCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid startDate")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid endDate")
		return
	}
	created, err := s.delegationSvc.Create(r.Context(), appDelegation.CreateInput{
		FromRoleID:     req.FromRoleID,
		ToUserID:       req.ToUserID,
		StartDate:      start,
		EndDate:        end,
		DelegationType: delegation.Type(req.DelegationType),
		Reason:         req.Reason,
		MaxAmount:      req.MaxAmount,
	}, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listDelegations(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	var filter delegation.Filter
	if v := r.URL.Query().Get("fromRoleId"); v != "" {
		filter.FromRoleID = &v
	}
	if v := r.URL.Query().Get("toUserId"); v != "" {
		filter.ToUserID = &v
	}
	if r.URL.Query().Get("active") == "true" {
		now := time.Now().UTC()
		filter.ActiveAt = &now
	}
	delegations, err := s.delegationSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"delegations": delegations})
}

func (s *Server) getDelegation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "delegationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid delegationId")
		return
	}
	found, err := s.delegationSvc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) revokeDelegation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "delegationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid delegationId")
		return
	}
	revoked, err := s.delegationSvc.Revoke(r.Context(), id, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, revoked)
}
