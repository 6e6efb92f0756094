package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/approval-hub/approval-hub/internal/domain/notification"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, notification_id, workflow_id, type, recipient_ids, recipient_role, channels, payload, status, created_at, dispatched_at`

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Request) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_requests
		(notification_id, workflow_id, type, recipient_ids, recipient_role, channels, payload, status, created_at, dispatched_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, n.NotificationID, n.WorkflowID, n.Type, n.RecipientIDs, n.RecipientRole, n.Channels, n.Payload, n.Status, n.CreatedAt, n.DispatchedAt)
	return err
}

func (r *NotificationRepository) GetByNotificationID(ctx context.Context, notificationID uuid.UUID) (*notification.Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notification_requests WHERE notification_id=$1
	`, notificationID)
	return scanNotification(row)
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter, limit, offset int) ([]*notification.Request, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification_requests`
	args := []interface{}{}
	idx := 1
	if filter.WorkflowID != nil {
		query += " WHERE workflow_id=$" + itoa(idx)
		args = append(args, *filter.WorkflowID)
		idx++
	}
	if filter.Type != nil {
		query += addWhere(query) + " type=$" + itoa(idx)
		args = append(args, *filter.Type)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var requests []*notification.Request
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, n)
	}
	return requests, rows.Err()
}

func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*notification.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notification_requests WHERE status='PENDING'
		ORDER BY created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var requests []*notification.Request
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, n)
	}
	return requests, rows.Err()
}

func (r *NotificationRepository) MarkDispatched(ctx context.Context, notificationID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_requests
		SET status='DISPATCHED', dispatched_at=NOW()
		WHERE notification_id=$1 AND status='PENDING'
	`, notificationID)
	return err
}

func scanNotification(row pgx.Row) (*notification.Request, error) {
	var n notification.Request
	if err := row.Scan(&n.ID, &n.NotificationID, &n.WorkflowID, &n.Type, &n.RecipientIDs, &n.RecipientRole, &n.Channels, &n.Payload, &n.Status, &n.CreatedAt, &n.DispatchedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
