package workflow

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
)

// Repository defines workflow persistence. Methods that change workflow state
// take the prepared audit entry and persist it in the same transaction, so a
// state transition and its audit record are atomic.
type Repository interface {
	// Create inserts the workflow and its WORKFLOW_CREATED audit entry in one
	// transaction. A duplicate invoice reference yields ErrAlreadyExists.
	Create(ctx context.Context, w *Workflow, entry *audit.Entry) error

	// RecordDecision writes the action, the workflow update, and the audit
	// entry in one transaction. The workflow row is updated with a
	// compare-and-set guard on (status=PENDING, current_level=expectedLevel);
	// a concurrent transition yields ErrConflict.
	RecordDecision(ctx context.Context, w *Workflow, expectedLevel int, a *Action, entry *audit.Entry) error

	// RecordParallelApproval inserts one approval action for a parallel
	// workflow and decides completion inside the same transaction. The
	// workflow row is locked first so concurrent approvals serialize; a
	// repeat approval from the same role yields ErrDuplicateRole. finish
	// receives the distinct-role approval count including this action, read
	// under the lock; it applies the transition to w and returns the audit
	// entry persisted in the same transaction.
	RecordParallelApproval(ctx context.Context, w *Workflow, a *Action, finish func(distinctApprovals int) (*audit.Entry, error)) error

	// MarkEscalated applies the escalation transition with the same CAS guard
	// as decisions, together with its audit entry.
	MarkEscalated(ctx context.Context, w *Workflow, entry *audit.Entry) error

	GetByWorkflowID(ctx context.Context, workflowID uuid.UUID) (*Workflow, error)
	GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*Workflow, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Workflow, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*Workflow, error)
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*Workflow, error)

	ListActions(ctx context.Context, workflowID uuid.UUID) ([]*Action, error)
	HasRoleApproval(ctx context.Context, workflowID uuid.UUID, roleID string) (bool, error)
	IsRuleReferenced(ctx context.Context, ruleID uuid.UUID) (bool, error)
}
