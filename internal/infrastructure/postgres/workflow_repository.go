package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

// WorkflowRepository implements workflow.Repository. State transitions and
// their audit entries are written in a single transaction.
type WorkflowRepository struct {
	pool *pgxpool.Pool
}

func NewWorkflowRepository(pool *pgxpool.Pool) *WorkflowRepository {
	return &WorkflowRepository{pool: pool}
}

const workflowColumns = `id, workflow_id, invoice_id, owner_id, rule_id, invoice_amount, currency, status, current_level, required_level, approver_roles, parallel, escalate_to_role, initiated_by, due_date, escalated_at, escalated_to, final_decision, completed_at, created_at, updated_at`

func (r *WorkflowRepository) Create(ctx context.Context, w *workflow.Workflow, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO approval_workflows
		(workflow_id, invoice_id, owner_id, rule_id, invoice_amount, currency, status, current_level, required_level, approver_roles, parallel, escalate_to_role, initiated_by, due_date, escalated_at, escalated_to, final_decision, completed_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, w.WorkflowID, w.InvoiceID, w.OwnerID, w.RuleID, w.InvoiceAmount, w.Currency, w.Status, w.CurrentLevel, w.RequiredLevel, w.ApproverRoles, w.Parallel, w.EscalateToRole, w.InitiatedBy, w.DueDate, w.EscalatedAt, w.EscalatedTo, w.FinalDecision, w.CompletedAt, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.ErrAlreadyExists
		}
		return err
	}
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) RecordDecision(ctx context.Context, w *workflow.Workflow, expectedLevel int, a *workflow.Action, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE approval_workflows
		SET status=$1, current_level=$2, final_decision=$3, completed_at=$4, updated_at=$5
		WHERE workflow_id=$6 AND status='PENDING' AND current_level=$7
	`, w.Status, w.CurrentLevel, w.FinalDecision, w.CompletedAt, w.UpdatedAt, w.WorkflowID, expectedLevel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO approval_actions
		(action_id, workflow_id, action, decided_by, role_id, level, comments, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ActionID, a.WorkflowID, a.Action, a.DecidedBy, a.RoleID, a.Level, a.Comments, a.DecidedAt)
	if err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) RecordParallelApproval(ctx context.Context, w *workflow.Workflow, a *workflow.Action, finish func(distinctApprovals int) (*audit.Entry, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the workflow row so concurrent approvals of the same workflow
	// serialize; the second transaction blocks here until the first commits
	// and then sees its action when counting.
	var status workflow.Status
	err = tx.QueryRow(ctx, `
		SELECT status FROM approval_workflows WHERE workflow_id=$1 FOR UPDATE
	`, w.WorkflowID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return workflow.ErrNotFound
		}
		return err
	}
	if status != workflow.StatusPending {
		return workflow.ErrConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO approval_actions
		(action_id, workflow_id, action, decided_by, role_id, level, comments, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ActionID, a.WorkflowID, a.Action, a.DecidedBy, a.RoleID, a.Level, a.Comments, a.DecidedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.ErrDuplicateRole
		}
		return err
	}

	var distinct int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(DISTINCT role_id) FROM approval_actions WHERE workflow_id=$1 AND action='APPROVE'
	`, a.WorkflowID).Scan(&distinct)
	if err != nil {
		return err
	}

	entry, err := finish(distinct)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE approval_workflows
		SET status=$1, final_decision=$2, completed_at=$3, updated_at=$4
		WHERE workflow_id=$5
	`, w.Status, w.FinalDecision, w.CompletedAt, w.UpdatedAt, w.WorkflowID)
	if err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) MarkEscalated(ctx context.Context, w *workflow.Workflow, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE approval_workflows
		SET status=$1, escalated_at=$2, escalated_to=$3, completed_at=$4, updated_at=$5
		WHERE workflow_id=$6 AND status='PENDING'
	`, w.Status, w.EscalatedAt, w.EscalatedTo, w.CompletedAt, w.UpdatedAt, w.WorkflowID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrConflict
	}
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) GetByWorkflowID(ctx context.Context, workflowID uuid.UUID) (*workflow.Workflow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+workflowColumns+`
		FROM approval_workflows WHERE workflow_id=$1
	`, workflowID)
	return scanWorkflow(row)
}

func (r *WorkflowRepository) GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*workflow.Workflow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+workflowColumns+`
		FROM approval_workflows WHERE invoice_id=$1
	`, invoiceID)
	return scanWorkflow(row)
}

func (r *WorkflowRepository) List(ctx context.Context, filter workflow.Filter, limit, offset int) ([]*workflow.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM approval_workflows`
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		query += " WHERE status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.OwnerID != nil {
		query += addWhere(query) + " owner_id=$" + itoa(idx)
		args = append(args, *filter.OwnerID)
		idx++
	}
	if filter.InitiatedBy != nil {
		query += addWhere(query) + " initiated_by=$" + itoa(idx)
		args = append(args, *filter.InitiatedBy)
		idx++
	}
	if filter.RuleID != nil {
		query += addWhere(query) + " rule_id=$" + itoa(idx)
		args = append(args, *filter.RuleID)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var workflows []*workflow.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (r *WorkflowRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*workflow.Workflow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+workflowColumns+`
		FROM approval_workflows
		WHERE status='PENDING' AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date ASC LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var workflows []*workflow.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (r *WorkflowRepository) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*workflow.Workflow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+workflowColumns+`
		FROM approval_workflows
		WHERE completed_at IS NOT NULL AND completed_at >= $1 AND completed_at <= $2
		ORDER BY completed_at ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var workflows []*workflow.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (r *WorkflowRepository) ListActions(ctx context.Context, workflowID uuid.UUID) ([]*workflow.Action, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action_id, workflow_id, action, decided_by, role_id, level, comments, decided_at
		FROM approval_actions WHERE workflow_id=$1 ORDER BY decided_at ASC
	`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var actions []*workflow.Action
	for rows.Next() {
		var a workflow.Action
		if err := rows.Scan(&a.ID, &a.ActionID, &a.WorkflowID, &a.Action, &a.DecidedBy, &a.RoleID, &a.Level, &a.Comments, &a.DecidedAt); err != nil {
			return nil, err
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

func (r *WorkflowRepository) HasRoleApproval(ctx context.Context, workflowID uuid.UUID, roleID string) (bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT 1 FROM approval_actions WHERE workflow_id=$1 AND role_id=$2 AND action='APPROVE' LIMIT 1
	`, workflowID, roleID)
	var v int
	if err := row.Scan(&v); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *WorkflowRepository) IsRuleReferenced(ctx context.Context, ruleID uuid.UUID) (bool, error) {
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

func scanWorkflow(row pgx.Row) (*workflow.Workflow, error) {
	var w workflow.Workflow
	if err := row.Scan(&w.ID, &w.WorkflowID, &w.InvoiceID, &w.OwnerID, &w.RuleID, &w.InvoiceAmount, &w.Currency, &w.Status, &w.CurrentLevel, &w.RequiredLevel, &w.ApproverRoles, &w.Parallel, &w.EscalateToRole, &w.InitiatedBy, &w.DueDate, &w.EscalatedAt, &w.EscalatedTo, &w.FinalDecision, &w.CompletedAt, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
