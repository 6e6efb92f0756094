package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
)

// AuditRepository implements audit.Repository over an append-only table.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditColumns = `id, audit_id, workflow_id, event, entity_type, entity_id, actor_id, actor_role, old_values, new_values, ip_address, user_agent, session_id, created_at, integrity_hash`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// insertAudit writes one audit row. It runs against the pool or inside a
// workflow transaction.
func insertAudit(ctx context.Context, db execer, e *audit.Entry) error {
	_, err := db.Exec(ctx, `
		INSERT INTO approval_audit_log
		(audit_id, workflow_id, event, entity_type, entity_id, actor_id, actor_role, old_values, new_values, ip_address, user_agent, session_id, created_at, integrity_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, e.AuditID, e.WorkflowID, e.Event, e.EntityType, e.EntityID, e.ActorID, e.ActorRole, e.OldValues, e.NewValues, e.IPAddress, e.UserAgent, e.SessionID, e.CreatedAt, e.IntegrityHash)
	return err
}

func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	if err := insertAudit(ctx, r.pool, e); err != nil {
		if isConnectivityErr(err) {
			return &audit.TransientError{Err: err}
		}
		return err
	}
	return nil
}

func (r *AuditRepository) GetByAuditID(ctx context.Context, auditID uuid.UUID) (*audit.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+auditColumns+`
		FROM approval_audit_log WHERE audit_id=$1
	`, auditID)
	return scanAudit(row)
}

func (r *AuditRepository) Query(ctx context.Context, filter audit.QueryFilter, limit, offset int) ([]*audit.Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM approval_audit_log`
	args := []interface{}{}
	idx := 1
	query, args, idx = applyAuditFilter(query, args, idx, filter)
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*audit.Entry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *AuditRepository) Count(ctx context.Context, filter audit.QueryFilter) (int64, error) {
	query := `SELECT COUNT(1) FROM approval_audit_log`
	args := []interface{}{}
	idx := 1
	query, args, _ = applyAuditFilter(query, args, idx, filter)
	row := r.pool.QueryRow(ctx, query, args...)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AuditRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*audit.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM approval_audit_log WHERE workflow_id=$1 ORDER BY created_at ASC, id ASC
	`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*audit.Entry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *AuditRepository) ListByEventSince(ctx context.Context, event audit.Event, since time.Time) ([]*audit.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM approval_audit_log WHERE event=$1 AND created_at >= $2 ORDER BY created_at ASC
	`, event, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*audit.Entry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *AuditRepository) CountByEvent(ctx context.Context, start, end time.Time) (map[audit.Event]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event, COUNT(1) FROM approval_audit_log
		WHERE created_at >= $1 AND created_at <= $2 GROUP BY event
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[audit.Event]int64)
	for rows.Next() {
		var event audit.Event
		var count int64
		if err := rows.Scan(&event, &count); err != nil {
			return nil, err
		}
		counts[event] = count
	}
	return counts, rows.Err()
}

func (r *AuditRepository) CountByActor(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT actor_id, COUNT(1) FROM approval_audit_log
		WHERE created_at >= $1 AND created_at <= $2 GROUP BY actor_id
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var actor string
		var count int64
		if err := rows.Scan(&actor, &count); err != nil {
			return nil, err
		}
		counts[actor] = count
	}
	return counts, rows.Err()
}

func (r *AuditRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return &audit.TransientError{Err: err}
	}
	return nil
}

func applyAuditFilter(query string, args []interface{}, idx int, filter audit.QueryFilter) (string, []interface{}, int) {
	if filter.WorkflowID != nil {
		query += addWhere(query) + " workflow_id=$" + itoa(idx)
		args = append(args, *filter.WorkflowID)
		idx++
	}
	if filter.Event != nil {
		query += addWhere(query) + " event=$" + itoa(idx)
		args = append(args, *filter.Event)
		idx++
	}
	if filter.EntityType != nil {
		query += addWhere(query) + " entity_type=$" + itoa(idx)
		args = append(args, *filter.EntityType)
		idx++
	}
	if filter.ActorID != nil {
		query += addWhere(query) + " actor_id=$" + itoa(idx)
		args = append(args, *filter.ActorID)
		idx++
	}
	if filter.StartTime != nil {
		query += addWhere(query) + " created_at >= $" + itoa(idx)
		args = append(args, *filter.StartTime)
		idx++
	}
	if filter.EndTime != nil {
		query += addWhere(query) + " created_at <= $" + itoa(idx)
		args = append(args, *filter.EndTime)
		idx++
	}
	return query, args, idx
}

func scanAudit(row pgx.Row) (*audit.Entry, error) {
	var e audit.Entry
	if err := row.Scan(&e.ID, &e.AuditID, &e.WorkflowID, &e.Event, &e.EntityType, &e.EntityID, &e.ActorID, &e.ActorRole, &e.OldValues, &e.NewValues, &e.IPAddress, &e.UserAgent, &e.SessionID, &e.CreatedAt, &e.IntegrityHash); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
