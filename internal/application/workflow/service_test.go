package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	appDelegation "github.com/approval-hub/approval-hub/internal/application/delegation"
	appRule "github.com/approval-hub/approval-hub/internal/application/rule"
	"github.com/approval-hub/approval-hub/internal/domain/audit"
	auditMocks "github.com/approval-hub/approval-hub/internal/domain/audit/mocks"
	"github.com/approval-hub/approval-hub/internal/domain/delegation"
	delegationMocks "github.com/approval-hub/approval-hub/internal/domain/delegation/mocks"
	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
	ruleMocks "github.com/approval-hub/approval-hub/internal/domain/rule/mocks"
	roleMocks "github.com/approval-hub/approval-hub/internal/domain/role/mocks"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
	workflowMocks "github.com/approval-hub/approval-hub/internal/domain/workflow/mocks"
)

type capturePublisher struct {
	events []workflow.StatusEvent
}

func (p *capturePublisher) PublishStatus(ev workflow.StatusEvent) {
	p.events = append(p.events, ev)
}

type fixture struct {
	workflowRepo   *workflowMocks.MockRepository
	ruleRepo       *ruleMocks.MockRepository
	roleRepo       *roleMocks.MockRepository
	delegationRepo *delegationMocks.MockRepository
	publisher      *capturePublisher
	svc            *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	logger := zerolog.Nop()
	workflowRepo := workflowMocks.NewMockRepository(ctrl)
	ruleRepo := ruleMocks.NewMockRepository(ctrl)
	roleRepo := new(roleMocks.MockRepository)
	delegationRepo := new(delegationMocks.MockRepository)
	auditRepo := new(auditMocks.MockRepository)
	publisher := &capturePublisher{}

	auditSvc := appAudit.NewService(auditRepo, workflowRepo, nil, nil, nil, logger)
	ruleSvc := appRule.NewService(ruleRepo, roleRepo, "INR", logger)
	delegationSvc := appDelegation.NewService(delegationRepo, roleRepo, auditSvc, logger)

	svc := NewService(workflowRepo, ruleSvc, delegationSvc, auditSvc, nil, publisher, logger)
	return &fixture{
		workflowRepo:   workflowRepo,
		ruleRepo:       ruleRepo,
		roleRepo:       roleRepo,
		delegationRepo: delegationRepo,
		publisher:      publisher,
		svc:            svc,
	}
}

func testInvoice() invoice.Snapshot {
	return invoice.Snapshot{
		InvoiceID:          uuid.New(),
		OwnerID:            "acct-1",
		Amount:             83500,
		Currency:           "INR",
		BaseCurrencyAmount: 83500,
		InvoiceType:        invoice.TypePurchase,
	}
}

func twoLevelRule() *rule.Rule {
	hours := 48
	esc := "CFO"
	r := rule.NewRule("two-step", 50000, 2, []string{"MANAGER", "FINANCE_HEAD"})
	r.ApprovalTimeoutHours = &hours
	r.EscalateToRole = &esc
	return r
}

func pendingWorkflow(r *rule.Rule) *workflow.Workflow {
	return workflow.New(testInvoice(), r, "user:alice", time.Now().UTC())
}

func TestService_CreateWorkflow(t *testing.T) {
	actor := appAudit.Actor{ID: "user:alice", SessionID: "sess-1"}

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		inv := testInvoice()
		r := twoLevelRule()

		f.workflowRepo.EXPECT().
			GetByInvoiceID(ctx, inv.InvoiceID).
			Return(nil, nil)
		f.ruleRepo.EXPECT().
			ListActive(ctx).
			Return([]*rule.Rule{r}, nil)
		f.workflowRepo.EXPECT().
			Create(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, w *workflow.Workflow, entry *audit.Entry) error {
				assert.Equal(t, inv.InvoiceID, w.InvoiceID)
				assert.Equal(t, workflow.StatusPending, w.Status)
				assert.Equal(t, 1, w.CurrentLevel)
				assert.Equal(t, 2, w.RequiredLevel)
				require.NotNil(t, w.DueDate)
				assert.Equal(t, audit.EventWorkflowCreated, entry.Event)
				assert.Equal(t, "user:alice", entry.ActorID)
				assert.NotEmpty(t, entry.IntegrityHash)
				return nil
			})

		w, err := f.svc.CreateWorkflow(ctx, inv, actor)

		require.NoError(t, err)
		require.NotNil(t, w)
		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, workflow.StatusPending, f.publisher.events[0].WorkflowStatus)
	})

	t.Run("duplicate invoice", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		inv := testInvoice()

		f.workflowRepo.EXPECT().
			GetByInvoiceID(ctx, inv.InvoiceID).
			Return(pendingWorkflow(twoLevelRule()), nil)

		_, err := f.svc.CreateWorkflow(ctx, inv, actor)

		assert.ErrorIs(t, err, workflow.ErrAlreadyExists)
	})

	t.Run("no applicable rule", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		inv := testInvoice()

		f.workflowRepo.EXPECT().
			GetByInvoiceID(ctx, inv.InvoiceID).
			Return(nil, nil)
		// The only active rule starts above the invoice amount.
		r := rule.NewRule("big-only", 500000, 1, []string{"CFO"})
		f.ruleRepo.EXPECT().
			ListActive(ctx).
			Return([]*rule.Rule{r}, nil)

		_, err := f.svc.CreateWorkflow(ctx, inv, actor)

		assert.ErrorIs(t, err, workflow.ErrNoApplicableRule)
	})

	t.Run("condition filters rule out", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		inv := testInvoice()

		cond := "amount > 100000"
		r := twoLevelRule()
		r.Condition = &cond
		f.workflowRepo.EXPECT().
			GetByInvoiceID(ctx, inv.InvoiceID).
			Return(nil, nil)
		f.ruleRepo.EXPECT().
			ListActive(ctx).
			Return([]*rule.Rule{r}, nil)

		_, err := f.svc.CreateWorkflow(ctx, inv, actor)

		assert.ErrorIs(t, err, workflow.ErrNoApplicableRule)
	})
}

func TestService_TakeAction_Sequential(t *testing.T) {
	actor := appAudit.Actor{ID: "user:manager", SessionID: "sess-2"}

	t.Run("approve advances level", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(true, nil)
		f.workflowRepo.EXPECT().
			RecordDecision(ctx, gomock.Any(), 1, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, updated *workflow.Workflow, expectedLevel int, a *workflow.Action, entry *audit.Entry) error {
				assert.Equal(t, workflow.StatusPending, updated.Status)
				assert.Equal(t, 2, updated.CurrentLevel)
				assert.Equal(t, workflow.DecisionApprove, a.Action)
				assert.Equal(t, "MANAGER", a.RoleID)
				assert.Equal(t, 1, a.Level)
				assert.Equal(t, audit.EventActionTaken, entry.Event)
				return nil
			})

		result, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			Actor:      actor,
		})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusPending, result.Status)
		assert.Empty(t, f.publisher.events, "intermediate approval must not publish a status event")
	})

	t.Run("reject is terminal immediately", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(true, nil)
		f.workflowRepo.EXPECT().
			RecordDecision(ctx, gomock.Any(), 1, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, updated *workflow.Workflow, _ int, a *workflow.Action, _ *audit.Entry) error {
				assert.Equal(t, workflow.StatusRejected, updated.Status)
				require.NotNil(t, updated.CompletedAt)
				assert.Equal(t, workflow.DecisionReject, a.Action)
				return nil
			})

		result, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionReject,
			Actor:      actor,
		})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusRejected, result.Status)
		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, workflow.StatusRejected, f.publisher.events[0].WorkflowStatus)
	})

	t.Run("terminal workflow rejects further actions", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())
		_ = w.ApplyReject(time.Now().UTC())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)

		_, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			Actor:      actor,
		})

		assert.ErrorIs(t, err, workflow.ErrInvalidState)
	})

	t.Run("actor without role or delegation is denied", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(false, nil)
		f.delegationRepo.On("ListActiveForUser", mock.Anything, "user:manager", "MANAGER", mock.Anything).
			Return([]*delegation.Delegation{}, nil)

		_, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			Actor:      actor,
		})

		assert.ErrorIs(t, err, workflow.ErrPermissionDenied)
	})

	t.Run("delegation below amount cap grants authority", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		now := time.Now().UTC()
		d, _ := delegation.New("MANAGER", "user:manager", now.Add(-time.Hour), now.Add(time.Hour), delegation.TypeVacation, "user:boss")
		maxAmt := 100000.0
		d.MaxAmount = &maxAmt

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(false, nil)
		f.delegationRepo.On("ListActiveForUser", mock.Anything, "user:manager", "MANAGER", mock.Anything).
			Return([]*delegation.Delegation{d}, nil)
		f.workflowRepo.EXPECT().
			RecordDecision(ctx, gomock.Any(), 1, gomock.Any(), gomock.Any()).
			Return(nil)

		_, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			Actor:      actor,
		})

		require.NoError(t, err)
	})

	t.Run("acting with the wrong role is denied", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)

		_, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			RoleID:     "FINANCE_HEAD", // level 1 requires MANAGER
			Actor:      actor,
		})

		assert.ErrorIs(t, err, workflow.ErrPermissionDenied)
	})

	t.Run("concurrent decision surfaces conflict", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(true, nil)
		f.workflowRepo.EXPECT().
			RecordDecision(ctx, gomock.Any(), 1, gomock.Any(), gomock.Any()).
			Return(workflow.ErrConflict)

		_, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			Actor:      actor,
		})

		assert.ErrorIs(t, err, workflow.ErrConflict)
	})
}

func TestService_TakeAction_Parallel(t *testing.T) {
	actor := appAudit.Actor{ID: "user:finance"}

	parallelRule := func() *rule.Rule {
		r := rule.NewRule("parallel", 0, 1, []string{"MANAGER", "FINANCE_HEAD"})
		r.ParallelApproval = true
		return r
	}

	t.Run("final distinct role approval completes", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(parallelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:finance", "FINANCE_HEAD").Return(true, nil)
		f.workflowRepo.EXPECT().
			RecordParallelApproval(ctx, gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, updated *workflow.Workflow, a *workflow.Action, finish func(int) (*audit.Entry, error)) error {
				assert.Equal(t, "FINANCE_HEAD", a.RoleID)
				// MANAGER's approval is already committed, so this action is
				// the second distinct role.
				entry, err := finish(2)
				require.NoError(t, err)
				assert.Equal(t, audit.EventActionTaken, entry.Event)
				assert.Equal(t, workflow.StatusApproved, updated.Status)
				return nil
			})

		result, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			RoleID:     "FINANCE_HEAD",
			Actor:      actor,
		})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusApproved, result.Status)
		require.Len(t, f.publisher.events, 1)
	})

	t.Run("second approval from same role is rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(parallelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:finance", "FINANCE_HEAD").Return(true, nil)
		f.workflowRepo.EXPECT().
			RecordParallelApproval(ctx, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(workflow.ErrDuplicateRole)

		_, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			RoleID:     "FINANCE_HEAD",
			Actor:      actor,
		})

		assert.ErrorIs(t, err, workflow.ErrDuplicateRole)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("racing approvals decide completion from the serialized count", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(parallelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil).
			Times(2)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(true, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:finance", "FINANCE_HEAD").Return(true, nil)

		// Both approvers submit before either commit lands. The row lock
		// serializes them, so the counts handed to finish are 1 then 2: the
		// first approval must leave the workflow pending and only the second
		// may complete it.
		distinct := 0
		f.workflowRepo.EXPECT().
			RecordParallelApproval(ctx, gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *workflow.Workflow, _ *workflow.Action, finish func(int) (*audit.Entry, error)) error {
				distinct++
				_, err := finish(distinct)
				return err
			}).
			Times(2)

		first, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			RoleID:     "MANAGER",
			Actor:      appAudit.Actor{ID: "user:manager"},
		})
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusPending, first.Status)
		assert.Empty(t, f.publisher.events)

		second, err := f.svc.TakeAction(ctx, ActionRequest{
			WorkflowID: w.WorkflowID,
			Action:     workflow.DecisionApprove,
			RoleID:     "FINANCE_HEAD",
			Actor:      actor,
		})
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusApproved, second.Status)
		require.NotNil(t, second.FinalDecision)
		assert.Equal(t, workflow.DecisionApprove, *second.FinalDecision)
		require.Len(t, f.publisher.events, 1)
	})
}

func TestService_CanUserTakeAction(t *testing.T) {
	t.Run("sequential current role", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)
		f.roleRepo.On("IsMember", mock.Anything, "user:manager", "MANAGER").Return(true, nil)

		ok, err := f.svc.CanUserTakeAction(ctx, "user:manager", w.WorkflowID, workflow.DecisionApprove)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("terminal workflow", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		w := pendingWorkflow(twoLevelRule())
		_ = w.ApplyReject(time.Now().UTC())

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, w.WorkflowID).
			Return(w, nil)

		ok, err := f.svc.CanUserTakeAction(ctx, "user:manager", w.WorkflowID, workflow.DecisionApprove)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		id := uuid.New()

		f.workflowRepo.EXPECT().
			GetByWorkflowID(ctx, id).
			Return(nil, nil)

		_, err := f.svc.CanUserTakeAction(ctx, "user:manager", id, workflow.DecisionApprove)

		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})
}
