// Package mocks provides a hand-written mock for the notification Repository.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/approval-hub/approval-hub/internal/domain/notification"
)

// MockRepository is a testify mock of notification.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *notification.Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) GetByNotificationID(ctx context.Context, notificationID uuid.UUID) (*notification.Request, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Request), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter notification.Filter, limit, offset int) ([]*notification.Request, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Request), args.Error(1)
}

func (m *MockRepository) ListPending(ctx context.Context, limit int) ([]*notification.Request, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Request), args.Error(1)
}

func (m *MockRepository) MarkDispatched(ctx context.Context, notificationID uuid.UUID) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}
