package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	appDelegation "github.com/approval-hub/approval-hub/internal/application/delegation"
	appNotification "github.com/approval-hub/approval-hub/internal/application/notification"
	appRule "github.com/approval-hub/approval-hub/internal/application/rule"
	"github.com/approval-hub/approval-hub/internal/domain/audit"
	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/notification"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

// Service drives the approval workflow state machine.
type Service struct {
	workflowRepo    workflow.Repository
	ruleSvc         *appRule.Service
	delegationSvc   *appDelegation.Service
	auditSvc        *appAudit.Service
	notificationSvc *appNotification.Service
	publisher       workflow.StatusPublisher
	logger          zerolog.Logger
}

func NewService(
	workflowRepo workflow.Repository,
	ruleSvc *appRule.Service,
	delegationSvc *appDelegation.Service,
	auditSvc *appAudit.Service,
	notificationSvc *appNotification.Service,
	publisher workflow.StatusPublisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		workflowRepo:    workflowRepo,
		ruleSvc:         ruleSvc,
		delegationSvc:   delegationSvc,
		auditSvc:        auditSvc,
		notificationSvc: notificationSvc,
		publisher:       publisher,
		logger:          logger.With().Str("service", "workflow").Logger(),
	}
}

// CreateWorkflow evaluates the rule set against the invoice and creates the
// single approval workflow for it. The workflow row and its WORKFLOW_CREATED
// audit entry land in one transaction; a concurrent create for the same
// invoice loses on the unique index and surfaces ErrAlreadyExists.
func (s *Service) CreateWorkflow(ctx context.Context, inv invoice.Snapshot, actor appAudit.Actor) (*workflow.Workflow, error) {
	existing, err := s.workflowRepo.GetByInvoiceID(ctx, inv.InvoiceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, workflow.ErrAlreadyExists
	}

	r, err := s.ruleSvc.EvaluateRules(ctx, inv)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, workflow.ErrNoApplicableRule
	}

	now := time.Now().UTC()
	w := workflow.New(inv, r, actor.ID, now)

	entry, err := s.auditSvc.PrepareEntry(audit.Data{
		WorkflowID: &w.WorkflowID,
		Event:      audit.EventWorkflowCreated,
		EntityType: "WORKFLOW",
		EntityID:   w.WorkflowID.String(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		NewValues:  w,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		SessionID:  actor.SessionID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.workflowRepo.Create(ctx, w, entry); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("workflowId", w.WorkflowID.String()).
		Str("invoiceId", w.InvoiceID.String()).
		Str("ruleId", w.RuleID.String()).
		Int("requiredLevel", w.RequiredLevel).
		Msg("workflow created")

	s.notifyPending(ctx, w)
	s.publishStatus(w)
	return w, nil
}

// notifyPending notifies the approvers whose decision is awaited: the
// current-level role, or every approver role when the workflow is parallel.
func (s *Service) notifyPending(ctx context.Context, w *workflow.Workflow) {
	if s.notificationSvc == nil {
		return
	}
	if w.Parallel {
		for _, roleID := range w.ApproverRoles {
			s.notificationSvc.NotifyRole(ctx, w, notification.TypeApprovalRequired, roleID)
		}
		return
	}
	if roleID := w.CurrentRole(); roleID != "" {
		s.notificationSvc.NotifyRole(ctx, w, notification.TypeApprovalRequired, roleID)
	}
}

func (s *Service) publishStatus(w *workflow.Workflow) {
	if s.publisher != nil {
		s.publisher.PublishStatus(w.StatusEventFor())
	}
}

// ActionRequest is one approve/reject submission.
type ActionRequest struct {
	WorkflowID uuid.UUID
	Action     workflow.Decision
	RoleID     string
	Comments   *string
	Actor      appAudit.Actor
}

// TakeAction applies one decision. Exactly one Action row and one
// ACTION_TAKEN audit entry are written per successful call, atomically with
// the workflow transition; the repository's compare-and-set guard turns a
// concurrent transition into ErrConflict. Parallel approvals additionally
// serialize on the workflow row so the completion decision always sees every
// committed approval.
func (s *Service) TakeAction(ctx context.Context, req ActionRequest) (*workflow.Workflow, error) {
	w, err := s.Get(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}
	if w.IsTerminal() {
		return nil, workflow.ErrInvalidState
	}

	now := time.Now().UTC()
	roleID, err := s.resolveRole(ctx, w, req, now)
	if err != nil {
		return nil, err
	}

	oldState := stateSnapshot(w)
	expectedLevel := w.CurrentLevel

	action := &workflow.Action{
		ActionID:   uuid.New(),
		WorkflowID: w.WorkflowID,
		Action:     req.Action,
		DecidedBy:  req.Actor.ID,
		RoleID:     roleID,
		Level:      w.CurrentLevel,
		Comments:   req.Comments,
		DecidedAt:  now,
	}
	prepareEntry := func() (*audit.Entry, error) {
		return s.auditSvc.PrepareEntry(audit.Data{
			WorkflowID: &w.WorkflowID,
			Event:      audit.EventActionTaken,
			EntityType: "WORKFLOW",
			EntityID:   w.WorkflowID.String(),
			ActorID:    req.Actor.ID,
			ActorRole:  roleID,
			OldValues:  oldState,
			NewValues:  stateSnapshot(w),
			IPAddress:  req.Actor.IPAddress,
			UserAgent:  req.Actor.UserAgent,
			SessionID:  req.Actor.SessionID,
		})
	}

	switch {
	case req.Action == workflow.DecisionApprove && w.Parallel:
		// Completion hinges on the distinct-role count read under the
		// repository's row lock, so the transition and its audit entry are
		// prepared inside the transaction via the callback.
		err = s.workflowRepo.RecordParallelApproval(ctx, w, action, func(distinctApprovals int) (*audit.Entry, error) {
			if _, err := w.ApplyParallelApprove(distinctApprovals, now); err != nil {
				return nil, err
			}
			return prepareEntry()
		})
	case req.Action == workflow.DecisionApprove:
		if _, err := w.ApplyApprove(now); err != nil {
			return nil, err
		}
		entry, prepErr := prepareEntry()
		if prepErr != nil {
			return nil, prepErr
		}
		err = s.workflowRepo.RecordDecision(ctx, w, expectedLevel, action, entry)
	case req.Action == workflow.DecisionReject:
		if err := w.ApplyReject(now); err != nil {
			return nil, err
		}
		entry, prepErr := prepareEntry()
		if prepErr != nil {
			return nil, prepErr
		}
		err = s.workflowRepo.RecordDecision(ctx, w, expectedLevel, action, entry)
	default:
		return nil, workflow.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("workflowId", w.WorkflowID.String()).
		Str("action", string(req.Action)).
		Str("decidedBy", req.Actor.ID).
		Str("role", roleID).
		Str("status", string(w.Status)).
		Msg("action recorded")

	if w.IsTerminal() {
		s.publishStatus(w)
	} else {
		// The workflow is still pending: remaining approvers are waiting.
		s.notifyPending(ctx, w)
	}
	return w, nil
}

// resolveRole determines and authorizes the role the actor decides with.
func (s *Service) resolveRole(ctx context.Context, w *workflow.Workflow, req ActionRequest, now time.Time) (string, error) {
	roleID := req.RoleID
	if !w.Parallel {
		current := w.CurrentRole()
		if roleID == "" {
			roleID = current
		}
		if roleID != current {
			return "", workflow.ErrPermissionDenied
		}
	} else if roleID == "" {
		var err error
		roleID, err = s.pickParallelRole(ctx, w, req.Actor, now)
		if err != nil {
			return "", err
		}
	}
	if !w.HasRole(roleID) {
		return "", workflow.ErrPermissionDenied
	}
	ok, err := s.delegationSvc.HasAuthority(ctx, req.Actor.ID, roleID, w.InvoiceAmount, now)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", workflow.ErrPermissionDenied
	}
	return roleID, nil
}

// pickParallelRole selects the first approver role the actor holds authority
// for that has not yet approved.
func (s *Service) pickParallelRole(ctx context.Context, w *workflow.Workflow, actor appAudit.Actor, now time.Time) (string, error) {
	for _, roleID := range w.ApproverRoles {
		approved, err := s.workflowRepo.HasRoleApproval(ctx, w.WorkflowID, roleID)
		if err != nil {
			return "", err
		}
		if approved {
			continue
		}
		ok, err := s.delegationSvc.HasAuthority(ctx, actor.ID, roleID, w.InvoiceAmount, now)
		if err != nil {
			return "", err
		}
		if ok {
			return roleID, nil
		}
	}
	return "", workflow.ErrPermissionDenied
}

// CanUserTakeAction is the read-only predicate behind approve/reject buttons.
func (s *Service) CanUserTakeAction(ctx context.Context, userID string, workflowID uuid.UUID, action workflow.Decision) (bool, error) {
	w, err := s.Get(ctx, workflowID)
	if err != nil {
		return false, err
	}
	if w.IsTerminal() {
		return false, nil
	}
	now := time.Now().UTC()
	if !w.Parallel {
		return s.delegationSvc.HasAuthority(ctx, userID, w.CurrentRole(), w.InvoiceAmount, now)
	}
	for _, roleID := range w.ApproverRoles {
		if action == workflow.DecisionApprove {
			approved, err := s.workflowRepo.HasRoleApproval(ctx, w.WorkflowID, roleID)
			if err != nil {
				return false, err
			}
			if approved {
				continue
			}
		}
		ok, err := s.delegationSvc.HasAuthority(ctx, userID, roleID, w.InvoiceAmount, now)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Get retrieves a workflow by id.
func (s *Service) Get(ctx context.Context, workflowID uuid.UUID) (*workflow.Workflow, error) {
	w, err := s.workflowRepo.GetByWorkflowID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, workflow.ErrNotFound
	}
	return w, nil
}

// GetByInvoice retrieves the workflow bound to an invoice.
func (s *Service) GetByInvoice(ctx context.Context, invoiceID uuid.UUID) (*workflow.Workflow, error) {
	w, err := s.workflowRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, workflow.ErrNotFound
	}
	return w, nil
}

// ListActions returns the decision history of a workflow.
func (s *Service) ListActions(ctx context.Context, workflowID uuid.UUID) ([]*workflow.Action, error) {
	if _, err := s.Get(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.workflowRepo.ListActions(ctx, workflowID)
}

// List returns workflows matching the filter.
func (s *Service) List(ctx context.Context, filter workflow.Filter, limit, offset int) ([]*workflow.Workflow, error) {
	return s.workflowRepo.List(ctx, filter, limit, offset)
}

// stateSnapshot is the audit old/new payload for a workflow transition.
func stateSnapshot(w *workflow.Workflow) map[string]interface{} {
	snap := map[string]interface{}{
		"status":       w.Status,
		"currentLevel": w.CurrentLevel,
	}
	if w.FinalDecision != nil {
		snap["finalDecision"] = *w.FinalDecision
	}
	return snap
}
