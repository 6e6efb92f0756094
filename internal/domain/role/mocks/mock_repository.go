// Package mocks provides a hand-written mock for the role Repository.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/approval-hub/approval-hub/internal/domain/role"
)

// MockRepository is a testify mock of role.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *role.Role) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) GetByName(ctx context.Context, name string) (*role.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*role.Role), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]*role.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*role.Role), args.Error(1)
}

func (m *MockRepository) Names(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockRepository) AddMember(ctx context.Context, roleName, userID string) error {
	args := m.Called(ctx, roleName, userID)
	return args.Error(0)
}

func (m *MockRepository) RemoveMember(ctx context.Context, roleName, userID string) error {
	args := m.Called(ctx, roleName, userID)
	return args.Error(0)
}

func (m *MockRepository) IsMember(ctx context.Context, userID, roleName string) (bool, error) {
	args := m.Called(ctx, userID, roleName)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListMemberIDs(ctx context.Context, roleName string) ([]string, error) {
	args := m.Called(ctx, roleName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
