package delegation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	"github.com/approval-hub/approval-hub/internal/domain/audit"
	"github.com/approval-hub/approval-hub/internal/domain/delegation"
	"github.com/approval-hub/approval-hub/internal/domain/role"
)

// Service manages delegation grants and answers authority checks.
type Service struct {
	delegationRepo delegation.Repository
	roleRepo       role.Repository
	auditSvc       *appAudit.Service
	logger         zerolog.Logger
}

func NewService(
	delegationRepo delegation.Repository,
	roleRepo role.Repository,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		delegationRepo: delegationRepo,
		roleRepo:       roleRepo,
		auditSvc:       auditSvc,
		logger:         logger.With().Str("service", "delegation").Logger(),
	}
}

// CreateInput captures a delegation grant request.
type CreateInput struct {
	FromRoleID     string
	ToUserID       string
	StartDate      time.Time
	EndDate        time.Time
	DelegationType delegation.Type
	Reason         string
	MaxAmount      *float64
}

// Create validates and persists a delegation and writes its audit entry.
func (s *Service) Create(ctx context.Context, in CreateInput, actor appAudit.Actor) (*delegation.Delegation, error) {
	r, err := s.roleRepo.GetByName(ctx, in.FromRoleID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, role.ErrNotFound
	}
	d, err := delegation.New(in.FromRoleID, in.ToUserID, in.StartDate, in.EndDate, in.DelegationType, actor.ID)
	if err != nil {
		return nil, err
	}
	d.Reason = in.Reason
	d.MaxAmount = in.MaxAmount
	if err := s.delegationRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	// The grant entry must not be lost: CreateCriticalEntry spools to the
	// failsafe queue when the store is down, so an error here is permanent
	// and fails the grant.
	if _, err := s.auditSvc.CreateCriticalEntry(ctx, audit.Data{
		Event:      audit.EventDelegationCreated,
		EntityType: "DELEGATION",
		EntityID:   d.DelegationID.String(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		NewValues:  d,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		SessionID:  actor.SessionID,
	}); err != nil {
		s.logger.Error().Err(err).Str("delegationId", d.DelegationID.String()).Msg("failed to audit delegation creation")
		return nil, err
	}

	s.logger.Info().
		Str("delegationId", d.DelegationID.String()).
		Str("fromRole", d.FromRoleID).
		Str("toUser", d.ToUserID).
		Msg("delegation created")
	return d, nil
}

// Get retrieves a delegation by id.
func (s *Service) Get(ctx context.Context, delegationID uuid.UUID) (*delegation.Delegation, error) {
	d, err := s.delegationRepo.GetByDelegationID(ctx, delegationID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, delegation.ErrNotFound
	}
	return d, nil
}

// List returns delegations matching the filter.
func (s *Service) List(ctx context.Context, filter delegation.Filter, limit, offset int) ([]*delegation.Delegation, error) {
	return s.delegationRepo.List(ctx, filter, limit, offset)
}

// Revoke ends a delegation immediately.
func (s *Service) Revoke(ctx context.Context, delegationID uuid.UUID, actor appAudit.Actor) (*delegation.Delegation, error) {
	d, err := s.Get(ctx, delegationID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := d.Revoke(now); err != nil {
		return nil, err
	}
	if err := s.delegationRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info().Str("delegationId", d.DelegationID.String()).Str("revokedBy", actor.ID).Msg("delegation revoked")
	return d, nil
}

// HasAuthority reports whether userID may act with roleID's authority on an
// invoice of the given amount: either by direct role membership or through
// an active delegation covering the amount.
func (s *Service) HasAuthority(ctx context.Context, userID, roleID string, amount float64, now time.Time) (bool, error) {
	member, err := s.roleRepo.IsMember(ctx, userID, roleID)
	if err != nil {
		return false, err
	}
	if member {
		return true, nil
	}
	delegations, err := s.delegationRepo.ListActiveForUser(ctx, userID, roleID, now)
	if err != nil {
		return false, err
	}
	for _, d := range delegations {
		if d.Grants(userID, roleID, amount, now) {
			return true, nil
		}
	}
	return false, nil
}
