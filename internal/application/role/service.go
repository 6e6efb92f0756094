package role

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/approval-hub/approval-hub/internal/domain/role"
)

// Service manages the approver role directory and its memberships.
type Service struct {
	roleRepo role.Repository
	logger   zerolog.Logger
}

func NewService(roleRepo role.Repository, logger zerolog.Logger) *Service {
	return &Service{
		roleRepo: roleRepo,
		logger:   logger.With().Str("service", "role").Logger(),
	}
}

// Create registers a role in the directory.
func (s *Service) Create(ctx context.Context, r *role.Role) (*role.Role, error) {
	if err := s.roleRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info().Str("role", r.Name).Msg("role created")
	return r, nil
}

// Get retrieves a role by name.
func (s *Service) Get(ctx context.Context, name string) (*role.Role, error) {
	r, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, role.ErrNotFound
	}
	return r, nil
}

// List returns every role in the directory.
func (s *Service) List(ctx context.Context) ([]*role.Role, error) {
	return s.roleRepo.List(ctx)
}

// AddMember grants direct membership of a role to a principal.
func (s *Service) AddMember(ctx context.Context, roleName, userID string) error {
	if _, err := s.Get(ctx, roleName); err != nil {
		return err
	}
	if err := s.roleRepo.AddMember(ctx, roleName, userID); err != nil {
		return err
	}
	s.logger.Info().Str("role", roleName).Str("userId", userID).Msg("role member added")
	return nil
}

// RemoveMember revokes direct membership.
func (s *Service) RemoveMember(ctx context.Context, roleName, userID string) error {
	return s.roleRepo.RemoveMember(ctx, roleName, userID)
}

// ListMemberIDs returns the principals holding a role.
func (s *Service) ListMemberIDs(ctx context.Context, roleName string) ([]string, error) {
	if _, err := s.Get(ctx, roleName); err != nil {
		return nil, err
	}
	return s.roleRepo.ListMemberIDs(ctx, roleName)
}
