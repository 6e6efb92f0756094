package rule

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for rule persistence.
type Repository interface {
	Create(ctx context.Context, r *Rule) error
	GetByRuleID(ctx context.Context, ruleID uuid.UUID) (*Rule, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Rule, error)
	ListActive(ctx context.Context) ([]*Rule, error)
	Update(ctx context.Context, r *Rule) error

	// IsReferenced reports whether any workflow snapshots this rule.
	IsReferenced(ctx context.Context, ruleID uuid.UUID) (bool, error)
}
