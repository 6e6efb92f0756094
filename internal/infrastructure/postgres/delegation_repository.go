package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/approval-hub/approval-hub/internal/domain/delegation"
)

// DelegationRepository implements delegation.Repository.
type DelegationRepository struct {
	pool *pgxpool.Pool
}

func NewDelegationRepository(pool *pgxpool.Pool) *DelegationRepository {
	return &DelegationRepository{pool: pool}
}

const delegationColumns = `id, delegation_id, from_role_id, to_user_id, start_date, end_date, delegation_type, reason, max_amount, created_by, created_at, revoked_at`

func (r *DelegationRepository) Create(ctx context.Context, d *delegation.Delegation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_delegations
		(delegation_id, from_role_id, to_user_id, start_date, end_date, delegation_type, reason, max_amount, created_by, created_at, revoked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, d.DelegationID, d.FromRoleID, d.ToUserID, d.StartDate, d.EndDate, d.DelegationType, d.Reason, d.MaxAmount, d.CreatedBy, d.CreatedAt, d.RevokedAt)
	return err
}

func (r *DelegationRepository) GetByDelegationID(ctx context.Context, delegationID uuid.UUID) (*delegation.Delegation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+delegationColumns+`
		FROM approval_delegations WHERE delegation_id=$1
	`, delegationID)
	return scanDelegation(row)
}

func (r *DelegationRepository) List(ctx context.Context, filter delegation.Filter, limit, offset int) ([]*delegation.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM approval_delegations`
	args := []interface{}{}
	idx := 1
	if filter.FromRoleID != nil {
		query += " WHERE from_role_id=$" + itoa(idx)
		args = append(args, *filter.FromRoleID)
		idx++
	}
	if filter.ToUserID != nil {
		query += addWhere(query) + " to_user_id=$" + itoa(idx)
		args = append(args, *filter.ToUserID)
		idx++
	}
	if filter.ActiveAt != nil {
		query += addWhere(query) + " start_date <= $" + itoa(idx) + " AND end_date >= $" + itoa(idx) + " AND revoked_at IS NULL"
		args = append(args, *filter.ActiveAt)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var delegations []*delegation.Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, d)
	}
	return delegations, rows.Err()
}

func (r *DelegationRepository) ListActiveForUser(ctx context.Context, userID, roleID string, now time.Time) ([]*delegation.Delegation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+delegationColumns+`
		FROM approval_delegations
		WHERE to_user_id=$1 AND from_role_id=$2
		  AND start_date <= $3 AND end_date >= $3
		  AND (revoked_at IS NULL OR revoked_at > $3)
		ORDER BY created_at DESC
	`, userID, roleID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var delegations []*delegation.Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, d)
	}
	return delegations, rows.Err()
}

func (r *DelegationRepository) Update(ctx context.Context, d *delegation.Delegation) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE approval_delegations
		SET end_date=$1, reason=$2, max_amount=$3, revoked_at=$4
		WHERE delegation_id=$5
	`, d.EndDate, d.Reason, d.MaxAmount, d.RevokedAt, d.DelegationID)
	return err
}

func scanDelegation(row pgx.Row) (*delegation.Delegation, error) {
	var d delegation.Delegation
	var reason *string
	if err := row.Scan(&d.ID, &d.DelegationID, &d.FromRoleID, &d.ToUserID, &d.StartDate, &d.EndDate, &d.DelegationType, &reason, &d.MaxAmount, &d.CreatedBy, &d.CreatedAt, &d.RevokedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if reason != nil {
		d.Reason = *reason
	}
	return &d, nil
}
