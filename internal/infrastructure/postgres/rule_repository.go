package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/approval-hub/approval-hub/internal/domain/rule"
)

// RuleRepository implements rule.Repository.
type RuleRepository struct {
	pool *pgxpool.Pool
}

func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, rule_id, name, description, min_amount, max_amount, currency, invoice_type, condition_expr, required_approvals, approver_roles, parallel_approval, approval_timeout_hours, escalate_to_role, priority, is_active, created_at, created_by, updated_at, updated_by`

func (r *RuleRepository) Create(ctx context.Context, ru *rule.Rule) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_rules
		(rule_id, name, description, min_amount, max_amount, currency, invoice_type, condition_expr, required_approvals, approver_roles, parallel_approval, approval_timeout_hours, escalate_to_role, priority, is_active, created_at, created_by, updated_at, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`, ru.RuleID, ru.Name, ru.Description, ru.MinAmount, ru.MaxAmount, ru.Currency, ru.InvoiceType, ru.Condition, ru.RequiredApprovals, ru.ApproverRoles, ru.ParallelApproval, ru.ApprovalTimeoutHours, ru.EscalateToRole, ru.Priority, ru.IsActive, ru.CreatedAt, ru.CreatedBy, ru.UpdatedAt, ru.UpdatedBy)
	return err
}

func (r *RuleRepository) GetByRuleID(ctx context.Context, ruleID uuid.UUID) (*rule.Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM approval_rules WHERE rule_id=$1
	`, ruleID)
	return scanRule(row)
}

func (r *RuleRepository) List(ctx context.Context, filter rule.Filter, limit, offset int) ([]*rule.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM approval_rules`
	args := []interface{}{}
	idx := 1
	if filter.IsActive != nil {
		query += " WHERE is_active=$" + itoa(idx)
		args = append(args, *filter.IsActive)
		idx++
	}
	if filter.Currency != nil {
		query += addWhere(query) + " currency=$" + itoa(idx)
		args = append(args, *filter.Currency)
		idx++
	}
	if filter.InvoiceType != nil {
		query += addWhere(query) + " invoice_type=$" + itoa(idx)
		args = append(args, *filter.InvoiceType)
		idx++
	}
	query += " ORDER BY priority DESC, created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []*rule.Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, ru)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) ListActive(ctx context.Context) ([]*rule.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM approval_rules WHERE is_active=TRUE
		ORDER BY priority DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []*rule.Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, ru)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) Update(ctx context.Context, ru *rule.Rule) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE approval_rules
		SET name=$1, description=$2, min_amount=$3, max_amount=$4, currency=$5, invoice_type=$6, condition_expr=$7, required_approvals=$8, approver_roles=$9, parallel_approval=$10, approval_timeout_hours=$11, escalate_to_role=$12, priority=$13, is_active=$14, updated_at=$15, updated_by=$16
		WHERE rule_id=$17
	`, ru.Name, ru.Description, ru.MinAmount, ru.MaxAmount, ru.Currency, ru.InvoiceType, ru.Condition, ru.RequiredApprovals, ru.ApproverRoles, ru.ParallelApproval, ru.ApprovalTimeoutHours, ru.EscalateToRole, ru.Priority, ru.IsActive, ru.UpdatedAt, ru.UpdatedBy, ru.RuleID)
	return err
}

func (r *RuleRepository) IsReferenced(ctx context.Context, ruleID uuid.UUID) (bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT 1 FROM approval_workflows WHERE rule_id=$1 LIMIT 1
	`, ruleID)
	var v int
	if err := row.Scan(&v); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanRule(row pgx.Row) (*rule.Rule, error) {
	var ru rule.Rule
	var desc *string
	if err := row.Scan(&ru.ID, &ru.RuleID, &ru.Name, &desc, &ru.MinAmount, &ru.MaxAmount, &ru.Currency, &ru.InvoiceType, &ru.Condition, &ru.RequiredApprovals, &ru.ApproverRoles, &ru.ParallelApproval, &ru.ApprovalTimeoutHours, &ru.EscalateToRole, &ru.Priority, &ru.IsActive, &ru.CreatedAt, &ru.CreatedBy, &ru.UpdatedAt, &ru.UpdatedBy); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if desc != nil {
		ru.Description = *desc
	}
	return &ru, nil
}
