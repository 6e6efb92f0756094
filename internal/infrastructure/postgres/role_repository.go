package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/approval-hub/approval-hub/internal/domain/role"
)

// RoleRepository implements role.Repository.
type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) Create(ctx context.Context, ro *role.Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_roles
		(name, description, level, max_approval_amount, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, ro.Name, ro.Description, ro.Level, ro.MaxApprovalAmount, ro.CreatedAt)
	return err
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*role.Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, level, max_approval_amount, created_at
		FROM approval_roles WHERE name=$1
	`, name)
	return scanRole(row)
}

func (r *RoleRepository) List(ctx context.Context) ([]*role.Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, level, max_approval_amount, created_at
		FROM approval_roles ORDER BY level ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []*role.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, ro)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) Names(ctx context.Context) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM approval_roles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

func (r *RoleRepository) AddMember(ctx context.Context, roleName, userID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_role_members (role_name, user_id, created_at)
		VALUES ($1,$2,NOW())
		ON CONFLICT (role_name, user_id) DO NOTHING
	`, roleName, userID)
	return err
}

func (r *RoleRepository) RemoveMember(ctx context.Context, roleName, userID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM approval_role_members WHERE role_name=$1 AND user_id=$2
	`, roleName, userID)
	return err
}

func (r *RoleRepository) IsMember(ctx context.Context, userID, roleName string) (bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT 1 FROM approval_role_members WHERE user_id=$1 AND role_name=$2 LIMIT 1
	`, userID, roleName)
	var v int
	if err := row.Scan(&v); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *RoleRepository) ListMemberIDs(ctx context.Context, roleName string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM approval_role_members WHERE role_name=$1 ORDER BY user_id ASC
	`, roleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRole(row pgx.Row) (*role.Role, error) {
	var ro role.Role
	var desc *string
	if err := row.Scan(&ro.ID, &ro.Name, &desc, &ro.Level, &ro.MaxApprovalAmount, &ro.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if desc != nil {
		ro.Description = *desc
	}
	return &ro, nil
}
