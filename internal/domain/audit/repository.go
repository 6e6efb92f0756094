package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for audit trail persistence. The backing
// table is append-only; there are deliberately no update or delete methods.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByAuditID(ctx context.Context, auditID uuid.UUID) (*Entry, error)
	Query(ctx context.Context, filter QueryFilter, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*Entry, error)
	ListByEventSince(ctx context.Context, event Event, since time.Time) ([]*Entry, error)
	CountByEvent(ctx context.Context, start, end time.Time) (map[Event]int64, error)
	CountByActor(ctx context.Context, start, end time.Time) (map[string]int64, error)

	// Ping checks backend availability; used by the failsafe path.
	Ping(ctx context.Context) error
}
