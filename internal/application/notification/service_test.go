package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/notification"
	notificationMocks "github.com/approval-hub/approval-hub/internal/domain/notification/mocks"
	roleMocks "github.com/approval-hub/approval-hub/internal/domain/role/mocks"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"

	"github.com/google/uuid"
)

type fakeHub struct {
	roleMessages map[string][]*notification.SSEMessage
	userMessages map[string][]*notification.SSEMessage
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		roleMessages: make(map[string][]*notification.SSEMessage),
		userMessages: make(map[string][]*notification.SSEMessage),
	}
}

func (h *fakeHub) BroadcastToUser(userID string, message *notification.SSEMessage) {
	h.userMessages[userID] = append(h.userMessages[userID], message)
}

func (h *fakeHub) BroadcastToRole(roleID string, message *notification.SSEMessage) {
	h.roleMessages[roleID] = append(h.roleMessages[roleID], message)
}

func testWorkflow() *workflow.Workflow {
	r := rule.NewRule("basic", 0, 1, []string{"MANAGER"})
	inv := invoice.Snapshot{
		InvoiceID:          uuid.New(),
		OwnerID:            "acct-1",
		Amount:             4200,
		Currency:           "INR",
		BaseCurrencyAmount: 4200,
		InvoiceType:        invoice.TypeExpense,
	}
	return workflow.New(inv, r, "user:alice", time.Now().UTC())
}

func TestService_NotifyRole(t *testing.T) {
	t.Run("records request and broadcasts to role", func(t *testing.T) {
		notificationRepo := new(notificationMocks.MockRepository)
		roleRepo := new(roleMocks.MockRepository)
		hub := newFakeHub()
		svc := NewService(notificationRepo, roleRepo, hub, zerolog.Nop())
		w := testWorkflow()

		roleRepo.On("ListMemberIDs", mock.Anything, "MANAGER").Return([]string{"user:bob", "user:carol"}, nil)
		notificationRepo.On("Create", mock.Anything, mock.AnythingOfType("*notification.Request")).
			Run(func(args mock.Arguments) {
				req := args.Get(1).(*notification.Request)
				assert.Equal(t, w.WorkflowID, req.WorkflowID)
				assert.Equal(t, notification.TypeApprovalRequired, req.Type)
				assert.Equal(t, "MANAGER", req.RecipientRole)
				assert.Equal(t, []string{"user:bob", "user:carol"}, req.RecipientIDs)
				assert.Equal(t, notification.StatusPending, req.Status)
			}).
			Return(nil)

		svc.NotifyRole(context.Background(), w, notification.TypeApprovalRequired, "MANAGER")

		require.Len(t, hub.roleMessages["MANAGER"], 1)
		msg := hub.roleMessages["MANAGER"][0]
		assert.Equal(t, "approval_required", msg.Event)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		assert.Equal(t, w.WorkflowID.String(), payload["workflowId"])
		notificationRepo.AssertExpectations(t)
	})

	t.Run("escalation uses its own event name", func(t *testing.T) {
		notificationRepo := new(notificationMocks.MockRepository)
		roleRepo := new(roleMocks.MockRepository)
		hub := newFakeHub()
		svc := NewService(notificationRepo, roleRepo, hub, zerolog.Nop())
		w := testWorkflow()

		roleRepo.On("ListMemberIDs", mock.Anything, "CFO").Return([]string{"user:cfo"}, nil)
		notificationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc.NotifyRole(context.Background(), w, notification.TypeEscalated, "CFO")

		require.Len(t, hub.roleMessages["CFO"], 1)
		assert.Equal(t, "workflow_escalated", hub.roleMessages["CFO"][0].Event)
	})

	t.Run("persistence failure still broadcasts", func(t *testing.T) {
		notificationRepo := new(notificationMocks.MockRepository)
		roleRepo := new(roleMocks.MockRepository)
		hub := newFakeHub()
		svc := NewService(notificationRepo, roleRepo, hub, zerolog.Nop())
		w := testWorkflow()

		roleRepo.On("ListMemberIDs", mock.Anything, "MANAGER").Return([]string{"user:bob"}, nil)
		notificationRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

		svc.NotifyRole(context.Background(), w, notification.TypeApprovalRequired, "MANAGER")

		assert.Len(t, hub.roleMessages["MANAGER"], 1)
	})

	t.Run("recipient lookup failure still records request", func(t *testing.T) {
		notificationRepo := new(notificationMocks.MockRepository)
		roleRepo := new(roleMocks.MockRepository)
		hub := newFakeHub()
		svc := NewService(notificationRepo, roleRepo, hub, zerolog.Nop())
		w := testWorkflow()

		roleRepo.On("ListMemberIDs", mock.Anything, "MANAGER").Return(nil, assert.AnError)
		notificationRepo.On("Create", mock.Anything, mock.AnythingOfType("*notification.Request")).
			Run(func(args mock.Arguments) {
				req := args.Get(1).(*notification.Request)
				assert.Empty(t, req.RecipientIDs)
			}).
			Return(nil)

		svc.NotifyRole(context.Background(), w, notification.TypeApprovalRequired, "MANAGER")

		notificationRepo.AssertExpectations(t)
	})
}

func TestService_MarkDispatched(t *testing.T) {
	notificationRepo := new(notificationMocks.MockRepository)
	svc := NewService(notificationRepo, new(roleMocks.MockRepository), nil, zerolog.Nop())
	id := uuid.New()

	notificationRepo.On("MarkDispatched", mock.Anything, id).Return(nil)

	require.NoError(t, svc.MarkDispatched(context.Background(), id))
	notificationRepo.AssertExpectations(t)
}
