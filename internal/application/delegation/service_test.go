package delegation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	"github.com/approval-hub/approval-hub/internal/domain/audit"
	auditMocks "github.com/approval-hub/approval-hub/internal/domain/audit/mocks"
	"github.com/approval-hub/approval-hub/internal/domain/delegation"
	delegationMocks "github.com/approval-hub/approval-hub/internal/domain/delegation/mocks"
	"github.com/approval-hub/approval-hub/internal/domain/role"
	roleMocks "github.com/approval-hub/approval-hub/internal/domain/role/mocks"
)

func newService(t *testing.T) (*Service, *delegationMocks.MockRepository, *roleMocks.MockRepository, *auditMocks.MockRepository) {
	t.Helper()
	delegationRepo := new(delegationMocks.MockRepository)
	roleRepo := new(roleMocks.MockRepository)
	auditRepo := new(auditMocks.MockRepository)
	auditSvc := appAudit.NewService(auditRepo, nil, nil, nil, nil, zerolog.Nop())
	svc := NewService(delegationRepo, roleRepo, auditSvc, zerolog.Nop())
	return svc, delegationRepo, roleRepo, auditRepo
}

func validInput() CreateInput {
	now := time.Now().UTC()
	return CreateInput{
		FromRoleID:     "MANAGER",
		ToUserID:       "user:bob",
		StartDate:      now,
		EndDate:        now.Add(7 * 24 * time.Hour),
		DelegationType: delegation.TypeVacation,
		Reason:         "annual leave",
	}
}

func TestService_Create(t *testing.T) {
	actor := appAudit.Actor{ID: "user:alice", Role: "MANAGER"}

	t.Run("success", func(t *testing.T) {
		svc, delegationRepo, roleRepo, auditRepo := newService(t)
		ctx := context.Background()

		roleRepo.On("GetByName", mock.Anything, "MANAGER").Return(&role.Role{Name: "MANAGER"}, nil)
		delegationRepo.On("Create", mock.Anything, mock.AnythingOfType("*delegation.Delegation")).
			Run(func(args mock.Arguments) {
				d := args.Get(1).(*delegation.Delegation)
				assert.Equal(t, "MANAGER", d.FromRoleID)
				assert.Equal(t, "user:bob", d.ToUserID)
				assert.Equal(t, "user:alice", d.CreatedBy)
			}).
			Return(nil)
		auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).
			Run(func(args mock.Arguments) {
				e := args.Get(1).(*audit.Entry)
				assert.Equal(t, audit.EventDelegationCreated, e.Event)
				assert.Equal(t, "user:alice", e.ActorID)
			}).
			Return(nil)

		d, err := svc.Create(ctx, validInput(), actor)

		require.NoError(t, err)
		assert.Equal(t, delegation.TypeVacation, d.DelegationType)
		delegationRepo.AssertExpectations(t)
		auditRepo.AssertExpectations(t)
	})

	t.Run("unknown role", func(t *testing.T) {
		svc, _, roleRepo, _ := newService(t)
		ctx := context.Background()

		roleRepo.On("GetByName", mock.Anything, "MANAGER").Return(nil, role.ErrNotFound)

		_, err := svc.Create(ctx, validInput(), actor)

		assert.ErrorIs(t, err, role.ErrNotFound)
	})

	t.Run("inverted window", func(t *testing.T) {
		svc, _, roleRepo, _ := newService(t)
		ctx := context.Background()

		roleRepo.On("GetByName", mock.Anything, "MANAGER").Return(&role.Role{Name: "MANAGER"}, nil)
		in := validInput()
		in.StartDate, in.EndDate = in.EndDate, in.StartDate

		_, err := svc.Create(ctx, in, actor)

		assert.ErrorIs(t, err, delegation.ErrInvalidWindow)
	})

	t.Run("transient audit failure spools to the failsafe queue", func(t *testing.T) {
		delegationRepo := new(delegationMocks.MockRepository)
		roleRepo := new(roleMocks.MockRepository)
		auditRepo := new(auditMocks.MockRepository)
		queue := &memQueue{}
		auditSvc := appAudit.NewService(auditRepo, nil, queue, nil, nil, zerolog.Nop())
		svc := NewService(delegationRepo, roleRepo, auditSvc, zerolog.Nop())
		ctx := context.Background()

		roleRepo.On("GetByName", mock.Anything, "MANAGER").Return(&role.Role{Name: "MANAGER"}, nil)
		delegationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		auditRepo.On("Create", mock.Anything, mock.Anything).
			Return(&audit.TransientError{Err: assert.AnError})

		d, err := svc.Create(ctx, validInput(), actor)

		require.NoError(t, err)
		assert.NotNil(t, d)
		n, err := queue.Len()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("permanent audit failure fails the grant", func(t *testing.T) {
		svc, delegationRepo, roleRepo, auditRepo := newService(t)
		ctx := context.Background()

		roleRepo.On("GetByName", mock.Anything, "MANAGER").Return(&role.Role{Name: "MANAGER"}, nil)
		delegationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		auditRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := svc.Create(ctx, validInput(), actor)

		assert.ErrorIs(t, err, assert.AnError)
	})
}

// memQueue is an in-memory stand-in for the bbolt failsafe spool.
type memQueue struct {
	entries []*audit.Entry
}

func (q *memQueue) Enqueue(e *audit.Entry) error {
	q.entries = append(q.entries, e)
	return nil
}

func (q *memQueue) Drain(fn func(*audit.Entry) error) (int, error) {
	drained := 0
	for _, e := range q.entries {
		if err := fn(e); err != nil {
			q.entries = q.entries[drained:]
			return drained, err
		}
		drained++
	}
	q.entries = nil
	return drained, nil
}

func (q *memQueue) Len() (int, error) {
	return len(q.entries), nil
}

func TestService_Revoke(t *testing.T) {
	actor := appAudit.Actor{ID: "user:alice"}

	t.Run("success", func(t *testing.T) {
		svc, delegationRepo, _, _ := newService(t)
		ctx := context.Background()

		now := time.Now().UTC()
		d, err := delegation.New("MANAGER", "user:bob", now, now.Add(time.Hour), delegation.TypeTemporary, "user:alice")
		require.NoError(t, err)

		delegationRepo.On("GetByDelegationID", mock.Anything, d.DelegationID).Return(d, nil)
		delegationRepo.On("Update", mock.Anything, mock.AnythingOfType("*delegation.Delegation")).
			Run(func(args mock.Arguments) {
				updated := args.Get(1).(*delegation.Delegation)
				assert.NotNil(t, updated.RevokedAt)
			}).
			Return(nil)

		revoked, err := svc.Revoke(ctx, d.DelegationID, actor)

		require.NoError(t, err)
		assert.NotNil(t, revoked.RevokedAt)
		assert.False(t, revoked.ActiveAt(time.Now().UTC().Add(time.Minute)))
	})

	t.Run("already revoked", func(t *testing.T) {
		svc, delegationRepo, _, _ := newService(t)
		ctx := context.Background()

		now := time.Now().UTC()
		d, err := delegation.New("MANAGER", "user:bob", now, now.Add(time.Hour), delegation.TypeTemporary, "user:alice")
		require.NoError(t, err)
		require.NoError(t, d.Revoke(now))

		delegationRepo.On("GetByDelegationID", mock.Anything, d.DelegationID).Return(d, nil)

		_, err = svc.Revoke(ctx, d.DelegationID, actor)

		assert.ErrorIs(t, err, delegation.ErrAlreadyRevoked)
	})

	t.Run("not found", func(t *testing.T) {
		svc, delegationRepo, _, _ := newService(t)
		ctx := context.Background()
		id := uuid.New()

		delegationRepo.On("GetByDelegationID", mock.Anything, id).Return(nil, nil)

		_, err := svc.Revoke(ctx, id, actor)

		assert.ErrorIs(t, err, delegation.ErrNotFound)
	})
}

func TestService_HasAuthority(t *testing.T) {
	now := time.Now().UTC()

	t.Run("direct role membership", func(t *testing.T) {
		svc, _, roleRepo, _ := newService(t)
		ctx := context.Background()

		roleRepo.On("IsMember", mock.Anything, "user:alice", "MANAGER").Return(true, nil)

		ok, err := svc.HasAuthority(ctx, "user:alice", "MANAGER", 5000, now)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("active delegation within cap", func(t *testing.T) {
		svc, delegationRepo, roleRepo, _ := newService(t)
		ctx := context.Background()

		d, err := delegation.New("MANAGER", "user:bob", now.Add(-time.Hour), now.Add(time.Hour), delegation.TypeVacation, "user:alice")
		require.NoError(t, err)
		maxAmt := 10000.0
		d.MaxAmount = &maxAmt

		roleRepo.On("IsMember", mock.Anything, "user:bob", "MANAGER").Return(false, nil)
		delegationRepo.On("ListActiveForUser", mock.Anything, "user:bob", "MANAGER", now).
			Return([]*delegation.Delegation{d}, nil)

		ok, err := svc.HasAuthority(ctx, "user:bob", "MANAGER", 5000, now)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delegation cap excludes large invoices", func(t *testing.T) {
		svc, delegationRepo, roleRepo, _ := newService(t)
		ctx := context.Background()

		d, err := delegation.New("MANAGER", "user:bob", now.Add(-time.Hour), now.Add(time.Hour), delegation.TypeVacation, "user:alice")
		require.NoError(t, err)
		maxAmt := 10000.0
		d.MaxAmount = &maxAmt

		roleRepo.On("IsMember", mock.Anything, "user:bob", "MANAGER").Return(false, nil)
		delegationRepo.On("ListActiveForUser", mock.Anything, "user:bob", "MANAGER", now).
			Return([]*delegation.Delegation{d}, nil)

		ok, err := svc.HasAuthority(ctx, "user:bob", "MANAGER", 10001, now)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no membership and no delegation", func(t *testing.T) {
		svc, delegationRepo, roleRepo, _ := newService(t)
		ctx := context.Background()

		roleRepo.On("IsMember", mock.Anything, "user:bob", "MANAGER").Return(false, nil)
		delegationRepo.On("ListActiveForUser", mock.Anything, "user:bob", "MANAGER", now).
			Return([]*delegation.Delegation{}, nil)

		ok, err := svc.HasAuthority(ctx, "user:bob", "MANAGER", 5000, now)

		require.NoError(t, err)
		assert.False(t, ok)
	})
}
