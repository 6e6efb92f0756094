package delegation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for delegation persistence.
type Repository interface {
	Create(ctx context.Context, d *Delegation) error
	GetByDelegationID(ctx context.Context, delegationID uuid.UUID) (*Delegation, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Delegation, error)
	// ListActiveForUser returns delegations granting roleID's authority to
	// userID that are unrevoked and whose window contains now.
	ListActiveForUser(ctx context.Context, userID, roleID string, now time.Time) ([]*Delegation, error)
	Update(ctx context.Context, d *Delegation) error
}
