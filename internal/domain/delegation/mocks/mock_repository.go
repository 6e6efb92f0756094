// Package mocks provides a hand-written mock for the delegation Repository.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/approval-hub/approval-hub/internal/domain/delegation"
)

// MockRepository is a testify mock of delegation.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, d *delegation.Delegation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockRepository) GetByDelegationID(ctx context.Context, delegationID uuid.UUID) (*delegation.Delegation, error) {
	args := m.Called(ctx, delegationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delegation.Delegation), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter delegation.Filter, limit, offset int) ([]*delegation.Delegation, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delegation.Delegation), args.Error(1)
}

func (m *MockRepository) ListActiveForUser(ctx context.Context, userID, roleID string, now time.Time) ([]*delegation.Delegation, error) {
	args := m.Called(ctx, userID, roleID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delegation.Delegation), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, d *delegation.Delegation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
