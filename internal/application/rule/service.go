package rule

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/role"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
)

// ValidationError carries the authoring errors of a rejected rule.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid rule: " + strings.Join(e.Errors, "; ")
}

// Service owns rule authoring and evaluation.
type Service struct {
	ruleRepo     rule.Repository
	roleRepo     role.Repository
	baseCurrency string
	logger       zerolog.Logger
}

func NewService(ruleRepo rule.Repository, roleRepo role.Repository, baseCurrency string, logger zerolog.Logger) *Service {
	return &Service{
		ruleRepo:     ruleRepo,
		roleRepo:     roleRepo,
		baseCurrency: baseCurrency,
		logger:       logger.With().Str("service", "rule").Logger(),
	}
}

// CreateRule validates and persists a new rule.
func (s *Service) CreateRule(ctx context.Context, r *rule.Rule) (*rule.Rule, error) {
	res, err := s.ValidateRule(ctx, r)
	if err != nil {
		return nil, err
	}
	if !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	if err := s.ruleRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info().Str("ruleId", r.RuleID.String()).Str("name", r.Name).Msg("rule created")
	return r, nil
}

// GetRule retrieves a rule by id.
func (s *Service) GetRule(ctx context.Context, ruleID uuid.UUID) (*rule.Rule, error) {
	r, err := s.ruleRepo.GetByRuleID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, rule.ErrNotFound
	}
	return r, nil
}

// ListRules returns rules matching the filter.
func (s *Service) ListRules(ctx context.Context, filter rule.Filter, limit, offset int) ([]*rule.Rule, error) {
	return s.ruleRepo.List(ctx, filter, limit, offset)
}

// UpdateRule applies a partial update. A rule already referenced by a
// workflow cannot be mutated: in-flight workflows carry their own snapshot,
// but the rule itself stays frozen for later reconstruction of why a
// workflow looked the way it did. Deactivation via IsActive is still allowed.
func (s *Service) UpdateRule(ctx context.Context, ruleID uuid.UUID, upd rule.Update) (*rule.Rule, error) {
	r, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	referenced, err := s.ruleRepo.IsReferenced(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if referenced && !onlyActivationChange(upd) {
		return nil, rule.ErrReferenced
	}
	r.Apply(upd)
	res, err := s.ValidateRule(ctx, r)
	if err != nil {
		return nil, err
	}
	if !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	if err := s.ruleRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info().Str("ruleId", r.RuleID.String()).Msg("rule updated")
	return r, nil
}

func onlyActivationChange(u rule.Update) bool {
	return u.IsActive != nil &&
		u.Name == nil && u.Description == nil && u.MinAmount == nil &&
		u.MaxAmount == nil && !u.ClearMaxAmount && u.Currency == nil &&
		u.InvoiceType == nil && u.Condition == nil && u.RequiredApprovals == nil &&
		u.ApproverRoles == nil && u.ParallelApproval == nil &&
		u.ApprovalTimeoutHours == nil && u.EscalateToRole == nil && u.Priority == nil
}

// ValidateRule runs authoring validation against the role directory.
func (s *Service) ValidateRule(ctx context.Context, r *rule.Rule) (rule.ValidationResult, error) {
	names, err := s.roleRepo.Names(ctx)
	if err != nil {
		return rule.ValidationResult{}, err
	}
	res := r.Validate(names)
	if r.Condition != nil && *r.Condition != "" {
		if _, err := EvaluateCondition(*r.Condition, conditionParams(invoice.Snapshot{})); err != nil {
			res.IsValid = false
			res.Errors = append(res.Errors, "condition does not parse: "+err.Error())
		}
	}
	return res, nil
}

// EvaluateRules returns the single applicable rule for the invoice, or nil
// when no active rule matches.
func (s *Service) EvaluateRules(ctx context.Context, inv invoice.Snapshot) (*rule.Rule, error) {
	active, err := s.ruleRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	params := conditionParams(inv)
	var matches []*rule.Rule
	for _, r := range active {
		if !r.MatchesInvoice(inv, s.baseCurrency) {
			continue
		}
		if r.Condition != nil {
			ok, err := EvaluateCondition(*r.Condition, params)
			if err != nil {
				// A rule whose condition cannot be evaluated never fires.
				s.logger.Warn().Err(err).Str("ruleId", r.RuleID.String()).Msg("rule condition evaluation failed")
				continue
			}
			if !ok {
				continue
			}
		}
		matches = append(matches, r)
	}
	return rule.Select(matches), nil
}

// Requirements previews what approving an invoice would take.
type Requirements struct {
	RuleID           *uuid.UUID `json:"ruleId,omitempty"`
	RequiredLevels   int        `json:"requiredLevels"`
	ApproverRoles    []string   `json:"approverRoles"`
	ParallelApproval bool       `json:"parallelApproval"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
}

// CalculateRequiredApprovals previews requirements without creating a
// workflow. When no rule matches, the default applies: one level, no bound
// role, due in 24 hours.
func (s *Service) CalculateRequiredApprovals(ctx context.Context, inv invoice.Snapshot) (*Requirements, error) {
	now := time.Now().UTC()
	r, err := s.EvaluateRules(ctx, inv)
	if err != nil {
		return nil, err
	}
	if r == nil {
		due := now.Add(24 * time.Hour)
		return &Requirements{
			RequiredLevels: 1,
			DueDate:        &due,
		}, nil
	}
	req := &Requirements{
		RuleID:           &r.RuleID,
		RequiredLevels:   r.RequiredApprovals,
		ApproverRoles:    append([]string(nil), r.ApproverRoles...),
		ParallelApproval: r.ParallelApproval,
	}
	if r.ApprovalTimeoutHours != nil {
		due := now.Add(time.Duration(*r.ApprovalTimeoutHours) * time.Hour)
		req.DueDate = &due
	}
	return req, nil
}
