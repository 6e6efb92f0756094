// Package mocks provides a hand-written mock for the audit Repository.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
)

// MockRepository is a testify mock of audit.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, e *audit.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) GetByAuditID(ctx context.Context, auditID uuid.UUID) (*audit.Entry, error) {
	args := m.Called(ctx, auditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Entry), args.Error(1)
}

func (m *MockRepository) Query(ctx context.Context, filter audit.QueryFilter, limit, offset int) ([]*audit.Entry, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, filter audit.QueryFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*audit.Entry, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockRepository) ListByEventSince(ctx context.Context, event audit.Event, since time.Time) ([]*audit.Entry, error) {
	args := m.Called(ctx, event, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockRepository) CountByEvent(ctx context.Context, start, end time.Time) (map[audit.Event]int64, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[audit.Event]int64), args.Error(1)
}

func (m *MockRepository) CountByActor(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
