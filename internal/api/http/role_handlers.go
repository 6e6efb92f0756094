package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/approval-hub/approval-hub/internal/domain/role"
)

type roleCreateRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Level             int      `json:"level"`
	MaxApprovalAmount *float64 `json:"maxApprovalAmount,omitempty"`
}

type memberRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "name is required")
		return
	}
	created, err := s.roleSvc.Create(r.Context(), &role.Role{
		Name:              req.Name,
		Description:       req.Description,
		Level:             req.Level,
		MaxApprovalAmount: req.MaxApprovalAmount,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roleSvc.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "roleName")
	found, err := s.roleSvc.Get(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) listRoleMembers(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "roleName")
	members, err := s.roleSvc.ListMemberIDs(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"role": name, "members": members})
}

func (s *Server) addRoleMember(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "roleName")
	var req memberRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId is required")
		return
	}
	if err := s.roleSvc.AddMember(r.Context(), name, req.UserID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"role": name, "userId": req.UserID})
}

func (s *Server) removeRoleMember(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "roleName")
	userID := chi.URLParam(r, "userId")
	if err := s.roleSvc.RemoveMember(r.Context(), name, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"role": name, "userId": userID})
}
