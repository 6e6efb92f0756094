package escalation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	appNotification "github.com/approval-hub/approval-hub/internal/application/notification"
	"github.com/approval-hub/approval-hub/internal/domain/audit"
	"github.com/approval-hub/approval-hub/internal/domain/notification"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

// monitorActor identifies the background monitor in the audit trail.
const monitorActor = "system:escalation-monitor"

// Service escalates workflows that blew their approval deadline.
type Service struct {
	workflowRepo    workflow.Repository
	auditSvc        *appAudit.Service
	notificationSvc *appNotification.Service
	publisher       workflow.StatusPublisher
	logger          zerolog.Logger
}

func NewService(
	workflowRepo workflow.Repository,
	auditSvc *appAudit.Service,
	notificationSvc *appNotification.Service,
	publisher workflow.StatusPublisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		workflowRepo:    workflowRepo,
		auditSvc:        auditSvc,
		notificationSvc: notificationSvc,
		publisher:       publisher,
		logger:          logger.With().Str("service", "escalation").Logger(),
	}
}

// FindExpired returns pending workflows past their due date.
func (s *Service) FindExpired(ctx context.Context, limit int) ([]*workflow.Workflow, error) {
	return s.workflowRepo.ListExpired(ctx, time.Now().UTC(), limit)
}

// Escalate transitions one overdue workflow to ESCALATED. The transition and
// its ESCALATED audit entry share a transaction guarded by the same
// compare-and-set as decisions: a decision that lands first wins and the
// escalation returns ErrConflict.
func (s *Service) Escalate(ctx context.Context, w *workflow.Workflow) error {
	now := time.Now().UTC()
	oldState := map[string]interface{}{
		"status":       w.Status,
		"currentLevel": w.CurrentLevel,
		"dueDate":      w.DueDate,
	}
	if err := w.ApplyEscalation(now); err != nil {
		return err
	}

	entry, err := s.auditSvc.PrepareEntry(audit.Data{
		WorkflowID: &w.WorkflowID,
		Event:      audit.EventEscalated,
		EntityType: "WORKFLOW",
		EntityID:   w.WorkflowID.String(),
		ActorID:    monitorActor,
		OldValues:  oldState,
		NewValues: map[string]interface{}{
			"status":      w.Status,
			"escalatedAt": w.EscalatedAt,
			"escalatedTo": w.EscalatedTo,
		},
	})
	if err != nil {
		return err
	}

	if err := s.workflowRepo.MarkEscalated(ctx, w, entry); err != nil {
		return err
	}

	s.logger.Warn().
		Str("workflowId", w.WorkflowID.String()).
		Str("invoiceId", w.InvoiceID.String()).
		Msg("workflow escalated")

	if s.notificationSvc != nil && w.EscalatedTo != nil {
		s.notificationSvc.NotifyRole(ctx, w, notification.TypeEscalated, *w.EscalatedTo)
	}
	if s.publisher != nil {
		s.publisher.PublishStatus(w.StatusEventFor())
	}
	return nil
}

// Sweep escalates every expired workflow it finds. A workflow decided
// between the listing and the escalation is skipped, not failed: the
// decision simply won the race.
func (s *Service) Sweep(ctx context.Context, limit int) (int, error) {
	expired, err := s.FindExpired(ctx, limit)
	if err != nil {
		return 0, err
	}
	escalated := 0
	for _, w := range expired {
		if err := s.Escalate(ctx, w); err != nil {
			if errors.Is(err, workflow.ErrConflict) || errors.Is(err, workflow.ErrInvalidState) {
				s.logger.Debug().Str("workflowId", w.WorkflowID.String()).Msg("workflow decided before escalation, skipping")
				continue
			}
			return escalated, err
		}
		escalated++
	}
	return escalated, nil
}
