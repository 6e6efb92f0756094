package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/approval-hub/approval-hub/internal/domain/notification"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	var filter notification.Filter
	if v := r.URL.Query().Get("workflowId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid workflowId")
			return
		}
		filter.WorkflowID = &id
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := notification.Type(v)
		filter.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := notification.Status(v)
		filter.Status = &st
	}
	requests, err := s.notificationSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": requests})
}

func (s *Server) listPendingNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := parseLimitOffset(r, 100, 500)
	requests, err := s.notificationSvc.ListPending(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": requests})
}

func (s *Server) getNotification(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notificationId")
		return
	}
	req, err := s.notificationSvc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if req == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "notification not found")
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) markNotificationDispatched(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notificationId")
		return
	}
	if err := s.notificationSvc.MarkDispatched(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notificationId": id, "status": notification.StatusDispatched})
}

func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "client_id required")
		return
	}
	actor := actorFromRequest(r)
	if actor.ID == "" {
		actor.ID = r.URL.Query().Get("user_id")
	}
	roles := actor.Roles
	if len(roles) == 0 {
		roles = splitCSV(r.URL.Query().Get("roles"))
	}
	client := notification.NewSSEClient(clientID, actor.ID, roles)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
