package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/approval-hub/approval-hub/internal/domain/notification"
	"github.com/approval-hub/approval-hub/internal/domain/role"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

// Hub is the in-process SSE fanout.
type Hub interface {
	BroadcastToUser(userID string, message *notification.SSEMessage)
	BroadcastToRole(roleID string, message *notification.SSEMessage)
}

// Service records notification requests for external dispatchers and pushes
// them to connected SSE clients immediately.
type Service struct {
	notificationRepo notification.Repository
	roleRepo         role.Repository
	hub              Hub
	logger           zerolog.Logger
}

func NewService(
	notificationRepo notification.Repository,
	roleRepo role.Repository,
	hub Hub,
	logger zerolog.Logger,
) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		roleRepo:         roleRepo,
		hub:              hub,
		logger:           logger.With().Str("service", "notification").Logger(),
	}
}

// NotifyRole records one notification request for every member of roleID and
// broadcasts it to connected clients holding the role. Failures are logged,
// never propagated: notification is best-effort and must not fail the
// workflow transition that triggered it.
func (s *Service) NotifyRole(ctx context.Context, w *workflow.Workflow, t notification.Type, roleID string) {
	recipients, err := s.roleRepo.ListMemberIDs(ctx, roleID)
	if err != nil {
		s.logger.Warn().Err(err).Str("role", roleID).Msg("failed to list notification recipients")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"workflowId":   w.WorkflowID.String(),
		"invoiceId":    w.InvoiceID.String(),
		"amount":       w.InvoiceAmount,
		"currency":     w.Currency,
		"status":       w.Status,
		"currentLevel": w.CurrentLevel,
		"role":         roleID,
		"dueDate":      w.DueDate,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal notification payload")
		return
	}

	req := notification.NewRequest(w.WorkflowID, t, roleID, recipients, payload)
	if err := s.notificationRepo.Create(ctx, req); err != nil {
		s.logger.Error().Err(err).Str("workflowId", w.WorkflowID.String()).Msg("failed to record notification request")
	}

	if s.hub != nil {
		event := "approval_required"
		if t == notification.TypeEscalated {
			event = "workflow_escalated"
		}
		s.hub.BroadcastToRole(roleID, notification.NewSSEMessage(event, payload))
	}
}

// Get retrieves a notification request by id.
func (s *Service) Get(ctx context.Context, notificationID uuid.UUID) (*notification.Request, error) {
	return s.notificationRepo.GetByNotificationID(ctx, notificationID)
}

// List returns notification requests matching the filter.
func (s *Service) List(ctx context.Context, filter notification.Filter, limit, offset int) ([]*notification.Request, error) {
	return s.notificationRepo.List(ctx, filter, limit, offset)
}

// ListPending returns undelivered requests for an external dispatcher.
func (s *Service) ListPending(ctx context.Context, limit int) ([]*notification.Request, error) {
	return s.notificationRepo.ListPending(ctx, limit)
}

// MarkDispatched records that an external dispatcher picked the request up.
func (s *Service) MarkDispatched(ctx context.Context, notificationID uuid.UUID) error {
	return s.notificationRepo.MarkDispatched(ctx, notificationID)
}
