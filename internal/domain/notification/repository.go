package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for notification request persistence.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByNotificationID(ctx context.Context, notificationID uuid.UUID) (*Request, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Request, error)
	ListPending(ctx context.Context, limit int) ([]*Request, error)
	MarkDispatched(ctx context.Context, notificationID uuid.UUID) error
}
