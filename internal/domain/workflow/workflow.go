package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
)

// Status represents the workflow state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusEscalated Status = "ESCALATED"
)

// Decision represents an approval decision.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

var (
	ErrNotFound         = errors.New("workflow not found")
	ErrAlreadyExists    = errors.New("workflow already exists for invoice")
	ErrNoApplicableRule = errors.New("no applicable approval rule")
	ErrInvalidState     = errors.New("workflow is already decided")
	ErrConflict         = errors.New("workflow changed concurrently")
	ErrPermissionDenied = errors.New("actor may not act on this workflow")
	ErrDuplicateRole    = errors.New("role has already approved this workflow")
)

// Workflow is one tracked approval instance, bound to exactly one invoice.
// The matched rule's requirements are snapshotted at creation time so later
// rule edits never change an in-flight workflow.
type Workflow struct {
	ID             int64      `json:"id"`
	WorkflowID     uuid.UUID  `json:"workflowId"`
	InvoiceID      uuid.UUID  `json:"invoiceId"`
	OwnerID        string     `json:"ownerId"`
	RuleID         uuid.UUID  `json:"ruleId"`
	InvoiceAmount  float64    `json:"invoiceAmount"`
	Currency       string     `json:"currency"`
	Status         Status     `json:"status"`
	CurrentLevel   int        `json:"currentLevel"`
	RequiredLevel  int        `json:"requiredLevel"`
	ApproverRoles  []string   `json:"approverRoles"`
	Parallel       bool       `json:"parallel"`
	EscalateToRole *string    `json:"escalateToRole,omitempty"`
	InitiatedBy    string     `json:"initiatedBy"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	EscalatedAt    *time.Time `json:"escalatedAt,omitempty"`
	EscalatedTo    *string    `json:"escalatedTo,omitempty"`
	FinalDecision  *Decision  `json:"finalDecision,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Action is one recorded decision. Actions are append-only; the set of
// actions for a workflow reconstructs its history.
type Action struct {
	ID         int64     `json:"id"`
	ActionID   uuid.UUID `json:"actionId"`
	WorkflowID uuid.UUID `json:"workflowId"`
	Action     Decision  `json:"action"`
	DecidedBy  string    `json:"decidedBy"`
	RoleID     string    `json:"roleId"`
	Level      int       `json:"level"`
	Comments   *string   `json:"comments,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// StatusEvent is emitted to the invoicing subsystem whenever a workflow
// reaches a new status.
type StatusEvent struct {
	InvoiceID      uuid.UUID `json:"invoiceId"`
	WorkflowStatus Status    `json:"workflowStatus"`
	FinalDecision  *Decision `json:"finalDecision,omitempty"`
}

// StatusPublisher delivers status change events to external consumers.
type StatusPublisher interface {
	PublishStatus(ev StatusEvent)
}

// New builds a PENDING workflow at level 1 from the matched rule. The rule's
// approval requirements are copied onto the workflow.
func New(inv invoice.Snapshot, r *rule.Rule, initiatedBy string, now time.Time) *Workflow {
	w := &Workflow{
		WorkflowID:     uuid.New(),
		InvoiceID:      inv.InvoiceID,
		OwnerID:        inv.OwnerID,
		RuleID:         r.RuleID,
		InvoiceAmount:  inv.RuleAmount(),
		Currency:       inv.Currency,
		Status:         StatusPending,
		CurrentLevel:   1,
		RequiredLevel:  r.RequiredApprovals,
		ApproverRoles:  append([]string(nil), r.ApproverRoles...),
		Parallel:       r.ParallelApproval,
		EscalateToRole: r.EscalateToRole,
		InitiatedBy:    initiatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if r.ApprovalTimeoutHours != nil {
		due := now.Add(time.Duration(*r.ApprovalTimeoutHours) * time.Hour)
		w.DueDate = &due
	}
	return w
}

// IsTerminal reports whether the workflow has reached a final status.
// ESCALATED is terminal: an escalated workflow requires manual intervention
// and cannot be decided through the normal action path.
func (w *Workflow) IsTerminal() bool {
	return w.Status != StatusPending
}

// IsOverdue reports whether a pending workflow has passed its due date.
func (w *Workflow) IsOverdue(now time.Time) bool {
	return w.Status == StatusPending && w.DueDate != nil && w.DueDate.Before(now)
}

// CurrentRole returns the role required at the current sequential level.
func (w *Workflow) CurrentRole() string {
	if w.CurrentLevel < 1 || w.CurrentLevel > len(w.ApproverRoles) {
		return ""
	}
	return w.ApproverRoles[w.CurrentLevel-1]
}

// HasRole reports whether roleID is one of the workflow's approver roles.
func (w *Workflow) HasRole(roleID string) bool {
	for _, r := range w.ApproverRoles {
		if r == roleID {
			return true
		}
	}
	return false
}

// ApplyReject transitions the workflow to REJECTED. Rejection at any level is
// terminal immediately.
func (w *Workflow) ApplyReject(now time.Time) error {
	if w.IsTerminal() {
		return ErrInvalidState
	}
	d := DecisionReject
	w.Status = StatusRejected
	w.FinalDecision = &d
	w.CompletedAt = &now
	w.UpdatedAt = now
	return nil
}

// ApplyApprove advances a sequential workflow one level, completing it when
// the current level is the last required one. Returns true on completion.
func (w *Workflow) ApplyApprove(now time.Time) (bool, error) {
	if w.IsTerminal() {
		return false, ErrInvalidState
	}
	if w.CurrentLevel < w.RequiredLevel {
		w.CurrentLevel++
		w.UpdatedAt = now
		return false, nil
	}
	d := DecisionApprove
	w.Status = StatusApproved
	w.FinalDecision = &d
	w.CompletedAt = &now
	w.UpdatedAt = now
	return true, nil
}

// ApplyParallelApprove completes a parallel workflow once distinct approvals
// exist from every approver role. distinctApprovals counts roles that have
// approved including the one being recorded now.
func (w *Workflow) ApplyParallelApprove(distinctApprovals int, now time.Time) (bool, error) {
	if w.IsTerminal() {
		return false, ErrInvalidState
	}
	if distinctApprovals < len(w.ApproverRoles) {
		w.UpdatedAt = now
		return false, nil
	}
	d := DecisionApprove
	w.Status = StatusApproved
	w.FinalDecision = &d
	w.CompletedAt = &now
	w.UpdatedAt = now
	return true, nil
}

// ApplyEscalation transitions an overdue workflow to ESCALATED and records
// the fallback role. ESCALATED is terminal.
func (w *Workflow) ApplyEscalation(now time.Time) error {
	if w.IsTerminal() {
		return ErrInvalidState
	}
	w.Status = StatusEscalated
	w.EscalatedAt = &now
	w.EscalatedTo = w.EscalateToRole
	w.CompletedAt = &now
	w.UpdatedAt = now
	return nil
}

// StatusEventFor builds the outbound invoice-status synchronization event.
func (w *Workflow) StatusEventFor() StatusEvent {
	return StatusEvent{
		InvoiceID:      w.InvoiceID,
		WorkflowStatus: w.Status,
		FinalDecision:  w.FinalDecision,
	}
}

// Filter represents filters for querying workflows.
type Filter struct {
	Status      *Status
	OwnerID     *string
	InitiatedBy *string
	RuleID      *uuid.UUID
}
